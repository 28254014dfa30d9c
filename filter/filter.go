package filter

import (
	"context"

	"github.com/rushteam/itemsim/core"
)

// Filter 是过滤器的抽象接口，用于判断一个候选是否应该被过滤掉。
// 返回 true 表示应该过滤（移除），false 表示保留。
type Filter interface {
	// Name 返回过滤器名称，同时作为 filtered label 的来源
	Name() string

	// ShouldFilter 判断 item 是否应该被过滤；rctx.Base 为基准商品
	ShouldFilter(ctx context.Context, rctx *core.RecommendContext, item *core.Item) (bool, error)
}

// Predicate 是外部注入的业务规则：返回 true 表示候选可以保留。
// 多个 Predicate 之间为逻辑 AND。
type Predicate func(candidate, base *core.CatalogItem) bool

// Rules 是内置业务规则的阈值。
type Rules struct {
	// MinScore 总分下限（不含），默认 0.1
	MinScore float64

	// DuplicateThreshold 标题相似度上限（不含），超过视为重复商品，默认 0.95
	DuplicateThreshold float64
}

// 默认阈值
const (
	DefaultMinScore           = 0.1
	DefaultDuplicateThreshold = 0.95
)

// DefaultRules 返回默认阈值。
func DefaultRules() Rules {
	return Rules{
		MinScore:           DefaultMinScore,
		DuplicateThreshold: DefaultDuplicateThreshold,
	}
}

// BusinessFilters 按固定顺序组装内置规则：分数下限、重复检测、库存、可见性，
// 之后是外部注入的过滤器（Predicate、CEL 规则、黑名单等）。
func BusinessFilters(r Rules, extra ...Filter) []Filter {
	filters := []Filter{
		&MinScoreFilter{Min: r.MinScore},
		&DuplicateTitleFilter{Threshold: r.DuplicateThreshold},
		&StockFilter{},
		&VisibilityFilter{},
	}
	for _, f := range extra {
		if f != nil {
			filters = append(filters, f)
		}
	}
	return filters
}
