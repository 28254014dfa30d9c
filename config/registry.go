package config

import (
	"fmt"
	"sort"
	"sync"

	"github.com/rushteam/itemsim/core"
	"github.com/rushteam/itemsim/filter"
)

// RuleBuilder 根据一条规则配置构建过滤器。
// 自定义规则在 init 中调用 RegisterRule(typeName, builder) 即可被配置驱动。
type RuleBuilder func(rc RuleConfig) (filter.Filter, error)

var (
	ruleBuilders   = make(map[string]RuleBuilder)
	ruleBuildersMu sync.RWMutex
)

func init() {
	RegisterRule("expr", buildExprRule)
	RegisterRule("blacklist", buildBlacklistRule)
}

// RegisterRule 注册一种规则类型；同名覆盖。
func RegisterRule(typeName string, builder RuleBuilder) {
	if typeName == "" || builder == nil {
		return
	}
	ruleBuildersMu.Lock()
	defer ruleBuildersMu.Unlock()
	ruleBuilders[typeName] = builder
}

// SupportedRuleTypes 返回已注册的规则类型（排序），用于错误提示。
func SupportedRuleTypes() []string {
	ruleBuildersMu.RLock()
	defer ruleBuildersMu.RUnlock()
	types := make([]string, 0, len(ruleBuilders))
	for t := range ruleBuilders {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

func lookupRule(typeName string) (RuleBuilder, bool) {
	ruleBuildersMu.RLock()
	defer ruleBuildersMu.RUnlock()
	b, ok := ruleBuilders[typeName]
	return b, ok
}

// BuildRules 按配置顺序构建额外的过滤器（排在内置规则之后）。
func (c FilterConfig) BuildRules() ([]filter.Filter, error) {
	out := make([]filter.Filter, 0, len(c.Rules))
	for i, rc := range c.Rules {
		builder, ok := lookupRule(rc.Type)
		if !ok {
			return nil, fmt.Errorf("filter.rules[%d]: unsupported rule type %q (supported: %v)", i, rc.Type, SupportedRuleTypes())
		}
		f, err := builder(rc)
		if err != nil {
			return nil, fmt.Errorf("filter.rules[%d]: %w", i, err)
		}
		out = append(out, f)
	}
	return out, nil
}

// BuiltinRules 返回内置规则阈值
func (c FilterConfig) BuiltinRules() filter.Rules {
	return filter.Rules{
		MinScore:           c.MinScore,
		DuplicateThreshold: c.DuplicateThreshold,
	}
}

func buildExprRule(rc RuleConfig) (filter.Filter, error) {
	if rc.Expr == "" {
		return nil, fmt.Errorf("expr rule requires expr")
	}
	return filter.NewExprFilter(rc.Name, rc.Expr)
}

func buildBlacklistRule(rc RuleConfig) (filter.Filter, error) {
	ids := make([]core.ItemID, len(rc.ItemIDs))
	for i, id := range rc.ItemIDs {
		ids[i] = core.ItemID(id)
	}
	return filter.NewBlacklistFilter(ids), nil
}
