package filter

import (
	"context"
	"strings"

	"github.com/rushteam/itemsim/core"
)

// MinScoreFilter 过滤总分低于下限的候选。
type MinScoreFilter struct {
	Min float64
}

func (f *MinScoreFilter) Name() string { return "filter.min_score" }

func (f *MinScoreFilter) ShouldFilter(_ context.Context, _ *core.RecommendContext, item *core.Item) (bool, error) {
	return item.Score < f.Min, nil
}

// DuplicateTitleFilter 过滤与基准商品标题几乎相同的候选（同款重复上架）。
type DuplicateTitleFilter struct {
	Threshold float64
}

func (f *DuplicateTitleFilter) Name() string { return "filter.duplicate_title" }

func (f *DuplicateTitleFilter) ShouldFilter(_ context.Context, rctx *core.RecommendContext, item *core.Item) (bool, error) {
	if rctx == nil || rctx.Base == nil || item.Product == nil {
		return false, nil
	}
	ratio := TitleSimilarity(strings.ToLower(item.Product.Name), strings.ToLower(rctx.Base.Name))
	return ratio > f.Threshold, nil
}

// StockFilter 过滤非 instock 的候选。
type StockFilter struct{}

func (f *StockFilter) Name() string { return "filter.stock" }

func (f *StockFilter) ShouldFilter(_ context.Context, _ *core.RecommendContext, item *core.Item) (bool, error) {
	return item.Product == nil || item.Product.Stock != core.StockInStock, nil
}

// VisibilityFilter 过滤目录不可见的候选。
type VisibilityFilter struct{}

func (f *VisibilityFilter) Name() string { return "filter.visibility" }

func (f *VisibilityFilter) ShouldFilter(_ context.Context, _ *core.RecommendContext, item *core.Item) (bool, error) {
	return item.Product == nil || !item.Product.Visibility.Listed(), nil
}

// PredicateFilter 组合外部注入的 Predicate：全部返回 true 才保留。
type PredicateFilter struct {
	Predicates []Predicate
}

// NewPredicateFilter 创建 Predicate 过滤器，nil 会被忽略
func NewPredicateFilter(preds ...Predicate) *PredicateFilter {
	f := &PredicateFilter{}
	for _, p := range preds {
		if p != nil {
			f.Predicates = append(f.Predicates, p)
		}
	}
	return f
}

func (f *PredicateFilter) Name() string { return "filter.predicate" }

func (f *PredicateFilter) ShouldFilter(_ context.Context, rctx *core.RecommendContext, item *core.Item) (bool, error) {
	var base *core.CatalogItem
	if rctx != nil {
		base = rctx.Base
	}
	for _, p := range f.Predicates {
		if !p(item.Product, base) {
			return true, nil
		}
	}
	return false, nil
}
