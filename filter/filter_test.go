package filter

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/itemsim/core"
	"github.com/rushteam/itemsim/pipeline"
)

func candidate(id core.ItemID, score float64, name string) *core.Item {
	it := core.NewItem(id)
	it.Score = score
	it.Product = &core.CatalogItem{
		ID:         id,
		Name:       name,
		Price:      float64(id) * 10,
		Stock:      core.StockInStock,
		Visibility: core.VisibilityVisible,
	}
	return it
}

func ids(items []*core.Item) []core.ItemID {
	out := make([]core.ItemID, 0, len(items))
	for _, it := range items {
		out = append(out, it.ID)
	}
	return out
}

func TestTitleSimilarity(t *testing.T) {
	tests := []struct {
		a, b string
		want float64
	}{
		{"same title", "same title", 1},
		{"abc", "xyz", 0},
		{"", "", 0},
		{"abcd", "abxd", 0.75},
		{"café", "cafe", 0.75},
		{"abc", "", 0},
	}
	for _, tt := range tests {
		t.Run(tt.a+"|"+tt.b, func(t *testing.T) {
			assert.InDelta(t, tt.want, TitleSimilarity(tt.a, tt.b), 1e-9)
			assert.InDelta(t, tt.want, TitleSimilarity(tt.b, tt.a), 1e-9)
		})
	}
}

func TestBuiltinRules(t *testing.T) {
	ctx := context.Background()
	rctx := &core.RecommendContext{Base: &core.CatalogItem{ID: 1, Name: "Blue Cotton Shirt", Price: 20}}

	tests := []struct {
		name   string
		filter Filter
		item   func() *core.Item
		want   bool
	}{
		{"min score keeps", &MinScoreFilter{Min: 0.1}, func() *core.Item { return candidate(2, 0.1, "x") }, false},
		{"min score drops", &MinScoreFilter{Min: 0.1}, func() *core.Item { return candidate(2, 0.099, "x") }, true},
		{"duplicate title", &DuplicateTitleFilter{Threshold: 0.95}, func() *core.Item { return candidate(2, 1, "blue cotton shirt") }, true},
		{"distinct title", &DuplicateTitleFilter{Threshold: 0.95}, func() *core.Item { return candidate(2, 1, "Red Linen Shirt") }, false},
		{"out of stock", &StockFilter{}, func() *core.Item {
			it := candidate(2, 1, "x")
			it.Product.Stock = core.StockOutOfStock
			return it
		}, true},
		{"backorder", &StockFilter{}, func() *core.Item {
			it := candidate(2, 1, "x")
			it.Product.Stock = core.StockOnBackorder
			return it
		}, true},
		{"no product", &StockFilter{}, func() *core.Item { return core.NewItem(2) }, true},
		{"catalog visibility", &VisibilityFilter{}, func() *core.Item {
			it := candidate(2, 1, "x")
			it.Product.Visibility = core.VisibilityCatalog
			return it
		}, false},
		{"search only", &VisibilityFilter{}, func() *core.Item {
			it := candidate(2, 1, "x")
			it.Product.Visibility = core.VisibilitySearch
			return it
		}, true},
		{"blacklisted", NewBlacklistFilter([]core.ItemID{2, 9}), func() *core.Item { return candidate(2, 1, "x") }, true},
		{"not blacklisted", NewBlacklistFilter([]core.ItemID{9}), func() *core.Item { return candidate(2, 1, "x") }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.filter.ShouldFilter(ctx, rctx, tt.item())
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPredicateFilter(t *testing.T) {
	ctx := context.Background()
	rctx := &core.RecommendContext{Base: &core.CatalogItem{ID: 1, Price: 25}}
	cheaper := func(c, b *core.CatalogItem) bool { return c.Price <= b.Price }
	even := func(c, _ *core.CatalogItem) bool { return c.ID%2 == 0 }

	f := NewPredicateFilter(cheaper, nil, even)
	assert.Len(t, f.Predicates, 2)

	drop, err := f.ShouldFilter(ctx, rctx, candidate(2, 1, "x"))
	require.NoError(t, err)
	assert.False(t, drop)

	drop, _ = f.ShouldFilter(ctx, rctx, candidate(3, 1, "x"))
	assert.True(t, drop, "price 30 > 25")

	drop, _ = f.ShouldFilter(ctx, rctx, candidate(1, 1, "x"))
	assert.True(t, drop, "odd id")
}

func TestExprFilter(t *testing.T) {
	ctx := context.Background()
	rctx := &core.RecommendContext{Base: &core.CatalogItem{ID: 1, Price: 10}}

	f, err := NewExprFilter("price_cap", "candidate.price <= base.price * 3.0")
	require.NoError(t, err)
	assert.Equal(t, "filter.expr:price_cap", f.Name())
	assert.Equal(t, "candidate.price <= base.price * 3.0", f.Expr())

	drop, err := f.ShouldFilter(ctx, rctx, candidate(2, 1, "x"))
	require.NoError(t, err)
	assert.False(t, drop)

	drop, err = f.ShouldFilter(ctx, rctx, candidate(4, 1, "x"))
	require.NoError(t, err)
	assert.True(t, drop)

	brand, err := NewExprFilter("", "score.brand == 1.0")
	require.NoError(t, err)
	assert.Equal(t, "filter.expr:score.brand == 1.0", brand.Name())
	it := candidate(2, 1, "x")
	it.SetScores(core.CandidateScore{Overall: 1, Brand: 0.5})
	drop, err = brand.ShouldFilter(ctx, rctx, it)
	require.NoError(t, err)
	assert.True(t, drop)

	_, err = NewExprFilter("broken", "candidate.price >")
	assert.Error(t, err)

	notBool, err := NewExprFilter("", "candidate.price")
	require.NoError(t, err)
	_, err = notBool.ShouldFilter(ctx, rctx, it)
	assert.Error(t, err)
}

type failingFilter struct{}

func (failingFilter) Name() string { return "filter.failing" }

func (failingFilter) ShouldFilter(context.Context, *core.RecommendContext, *core.Item) (bool, error) {
	return true, errors.New("boom")
}

func TestFilterNode(t *testing.T) {
	ctx := context.Background()
	rctx := &core.RecommendContext{Base: &core.CatalogItem{ID: 1, Name: "Blue Cotton Shirt"}}

	dropped := map[string]int{}
	node := &FilterNode{
		Filters: BusinessFilters(DefaultRules(), failingFilter{}, nil, NewBlacklistFilter([]core.ItemID{5})),
		OnFiltered: func(name string) {
			dropped[name]++
		},
		Logger: zerolog.Nop(),
	}
	assert.Equal(t, "filter.node", node.Name())
	assert.Equal(t, pipeline.KindFilter, node.Kind())

	low := candidate(3, 0.05, "Socks")
	dup := candidate(4, 0.9, "Blue Cotton Shirt")
	items := []*core.Item{
		candidate(2, 0.8, "Red Linen Shirt"),
		low,
		dup,
		candidate(5, 0.7, "Hat"),
		nil,
		candidate(6, 0.6, "Scarf"),
	}

	out, err := node.Process(ctx, rctx, items)
	require.NoError(t, err)
	assert.Equal(t, []core.ItemID{2, 6}, ids(out))
	assert.Equal(t, map[string]int{
		"filter.min_score":       1,
		"filter.duplicate_title": 1,
		"filter.blacklist":       1,
	}, dropped)
	assert.Equal(t, "filter.min_score", low.Labels["filtered"].Source)
	assert.Equal(t, "filter.duplicate_title", dup.Labels["filtered"].Source)
}

func TestApply(t *testing.T) {
	items := []*core.Item{candidate(2, 0.5, "a"), candidate(3, 0.01, "b")}
	out := Apply(context.Background(), BusinessFilters(DefaultRules()), items, &core.CatalogItem{ID: 1, Name: "z"})
	assert.Equal(t, []core.ItemID{2}, ids(out))

	assert.Len(t, Apply(context.Background(), nil, items, nil), 2)
}

func TestExprFilter_FeatureSignals(t *testing.T) {
	ctx := context.Background()
	f, err := NewExprFilter("rated", "candidate.reviews_avg >= 4.0 && candidate.sales_count > base.sales_count")
	require.NoError(t, err)

	it := candidate(2, 1, "x")
	it.Product.ReviewsAvg = 1
	rctx := &core.RecommendContext{
		Base:         &core.CatalogItem{ID: 1, SalesCount: 500},
		BaseFeatures: &core.ItemFeatures{SalesRank: 10},
	}

	drop, err := f.ShouldFilter(ctx, rctx, it)
	require.NoError(t, err)
	assert.True(t, drop, "catalog values only")

	it.Features = &core.ItemFeatures{ReviewsAvg: 4.5, SalesRank: 20}
	drop, err = f.ShouldFilter(ctx, rctx, it)
	require.NoError(t, err)
	assert.False(t, drop, "enriched signals take precedence")
}
