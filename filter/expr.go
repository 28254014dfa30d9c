package filter

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/rushteam/itemsim/core"
)

var (
	// celEnv 是全局的 CEL 环境，线程安全，可复用
	celEnv     *cel.Env
	celEnvErr  error
	celEnvOnce sync.Once
)

func getCELEnv() (*cel.Env, error) {
	celEnvOnce.Do(func() {
		celEnv, celEnvErr = cel.NewEnv(
			cel.Variable("candidate", cel.MapType(cel.StringType, cel.DynType)),
			cel.Variable("base", cel.MapType(cel.StringType, cel.DynType)),
			cel.Variable("score", cel.MapType(cel.StringType, cel.DoubleType)),
		)
	})
	return celEnv, celEnvErr
}

// ExprFilter 是基于 CEL (Common Expression Language) 的可配置业务规则。
// 表达式返回 true 表示候选可以保留，返回 false 则被过滤。
//
// 可用变量：
//   - candidate / base：id, type, status, name, price, stock_status, visibility, sales_count, reviews_avg
//     （已注入特征时 sales_count / reviews_avg 取特征值，即外部信号源覆盖后的值）
//   - score：overall, category, tag, attribute, price, brand, semantic
//
// 示例：
//   - `candidate.price <= base.price * 3.0`
//   - `score.brand == 1.0 || score.category > 0.5`
//   - `candidate.reviews_avg >= 3.0`
type ExprFilter struct {
	name string
	expr string
	prg  cel.Program
}

// NewExprFilter 编译表达式；表达式在构造时编译一次，之后可并发求值。
func NewExprFilter(name, expr string) (*ExprFilter, error) {
	env, err := getCELEnv()
	if err != nil {
		return nil, fmt.Errorf("cel env: %w", err)
	}
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile rule %q: %w", expr, issues.Err())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program rule %q: %w", expr, err)
	}
	if name == "" {
		name = expr
	}
	return &ExprFilter{name: name, expr: expr, prg: prg}, nil
}

func (f *ExprFilter) Name() string { return "filter.expr:" + f.name }

// Expr 返回原始表达式。
func (f *ExprFilter) Expr() string { return f.expr }

func (f *ExprFilter) ShouldFilter(_ context.Context, rctx *core.RecommendContext, item *core.Item) (bool, error) {
	var (
		base         *core.CatalogItem
		baseFeatures *core.ItemFeatures
	)
	if rctx != nil {
		base, baseFeatures = rctx.Base, rctx.BaseFeatures
	}
	out, _, err := f.prg.Eval(map[string]any{
		"candidate": productVars(item.Product, item.Features),
		"base":      productVars(base, baseFeatures),
		"score":     scoreVars(item.Scores),
	})
	if err != nil {
		return false, fmt.Errorf("eval rule %q: %w", f.expr, err)
	}
	keep, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("rule %q must return bool, got %T", f.expr, out.Value())
	}
	return !keep, nil
}

func productVars(p *core.CatalogItem, f *core.ItemFeatures) map[string]any {
	if p == nil {
		return map[string]any{}
	}
	vars := map[string]any{
		"id":           int64(p.ID),
		"type":         p.Type,
		"status":       p.Status,
		"name":         p.Name,
		"price":        p.Price,
		"stock_status": string(p.Stock),
		"visibility":   string(p.Visibility),
		"sales_count":  p.SalesCount,
		"reviews_avg":  p.ReviewsAvg,
	}
	if f != nil {
		vars["sales_count"] = f.SalesRank
		vars["reviews_avg"] = f.ReviewsAvg
	}
	return vars
}

func scoreVars(s *core.CandidateScore) map[string]float64 {
	if s == nil {
		return map[string]float64{}
	}
	return map[string]float64{
		"overall":   s.Overall,
		"category":  s.Category,
		"tag":       s.Tag,
		"attribute": s.Attribute,
		"price":     s.Price,
		"brand":     s.Brand,
		"semantic":  s.Semantic,
	}
}
