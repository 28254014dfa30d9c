package similar

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/itemsim/cache"
	"github.com/rushteam/itemsim/catalog"
	"github.com/rushteam/itemsim/core"
	"github.com/rushteam/itemsim/feature"
	"github.com/rushteam/itemsim/filter"
	"github.com/rushteam/itemsim/metrics"
	"github.com/rushteam/itemsim/store"
)

func product(id core.ItemID, name string, price float64, cats ...core.CategoryID) catalog.Product {
	return catalog.Product{
		CatalogItem: core.CatalogItem{
			ID:         id,
			Type:       "simple",
			Status:     "publish",
			Name:       name,
			Price:      price,
			Stock:      core.StockInStock,
			Visibility: core.VisibilityVisible,
		},
		Categories: cats,
	}
}

// newTestCatalog:
//
//	1  基准商品
//	2  同分类、同标签、同品牌 -> 最相似
//	3  同分类、价格 3 倍、无标签/品牌
//	4  无关分类且价格超出窗口 -> 不会被召回
//	5  同分类但缺货 -> 召回阶段排除
//	6  与基准商品同名 -> 重复标题被过滤
//	7  草稿
func newTestCatalog() *catalog.MemoryCatalog {
	c := catalog.NewMemoryCatalog()
	c.AddCategory(catalog.Category{ID: 1, Name: "Apparel"})
	c.AddCategory(catalog.Category{ID: 2, Parent: 1, Name: "Shoes"})
	c.AddCategory(catalog.Category{ID: 3, Parent: 2, Name: "Running"})
	c.AddCategory(catalog.Category{ID: 9, Name: "Kitchen"})

	base := product(1, "Trail Running Shoe", 100, 3)
	base.Description = "Lightweight trail shoe with grippy outsole"
	base.Brand = "Acme"
	base.Tags = []core.TagID{1, 2, 3}
	base.Attributes = map[string][]core.AttributeValueID{"color": {10}}
	c.AddProduct(base)

	p2 := product(2, "Road Runner", 100, 3)
	p2.Description = "Lightweight road shoe"
	p2.Brand = "acme"
	p2.Tags = []core.TagID{1, 2, 3}
	p2.Attributes = map[string][]core.AttributeValueID{"color": {10}}
	c.AddProduct(p2)

	c.AddProduct(product(3, "Spike Racer", 300, 3))
	c.AddProduct(product(4, "Chef Knife", 500, 9))

	p5 := product(5, "Sold Out Runner", 100, 3)
	p5.Stock = core.StockOutOfStock
	c.AddProduct(p5)

	c.AddProduct(product(6, "Trail Running Shoe", 100, 3))

	p7 := product(7, "Prototype Runner", 100, 3)
	p7.Status = "draft"
	c.AddProduct(p7)
	return c
}

// countingCatalog 统计召回查询次数，可注入故障
type countingCatalog struct {
	*catalog.MemoryCatalog
	finds   atomic.Int32
	findErr error
	getErr  error
}

func (c *countingCatalog) FindItemsByCategoryOrPriceRange(ctx context.Context, q core.CandidateQuery) ([]core.ItemID, error) {
	c.finds.Add(1)
	if c.findErr != nil {
		return nil, c.findErr
	}
	return c.MemoryCatalog.FindItemsByCategoryOrPriceRange(ctx, q)
}

func (c *countingCatalog) GetItem(ctx context.Context, id core.ItemID) (*core.CatalogItem, error) {
	if c.getErr != nil {
		return nil, c.getErr
	}
	return c.MemoryCatalog.GetItem(ctx, id)
}

func newTestEngine(t *testing.T, cat core.Catalog, opts Options, options ...Option) *Engine {
	t.Helper()
	e, err := NewEngine(cat, opts, options...)
	require.NoError(t, err)
	return e
}

func newMemoryCache(t *testing.T) *cache.ResultCache {
	t.Helper()
	ms := store.NewMemoryStore(store.WithCleanupInterval(0))
	t.Cleanup(func() { _ = ms.Close() })
	return cache.NewResultCache(ms)
}

func ids(list []core.CandidateScore) []core.ItemID {
	out := make([]core.ItemID, len(list))
	for i, s := range list {
		out[i] = s.ItemID
	}
	return out
}

func TestEngine_GetSimilarItems(t *testing.T) {
	e := newTestEngine(t, newTestCatalog(), DefaultOptions())

	list, err := e.GetSimilarItems(context.Background(), 1, 4)
	require.NoError(t, err)

	// 只有 2 和 3 能通过全部规则：limit 为 4 时返回 2 条，不补齐
	assert.Equal(t, []core.ItemID{2, 3}, ids(list))
	assert.Greater(t, list[0].Overall, list[1].Overall)
	for _, s := range list {
		assert.NotEqual(t, core.ItemID(1), s.ItemID, "base item must never be returned")
		assert.GreaterOrEqual(t, s.Overall, filter.DefaultMinScore)
	}

	top := list[0]
	assert.Equal(t, 1.0, top.Tag)
	assert.Equal(t, 1.0, top.Attribute)
	assert.Equal(t, 1.0, top.Price)
	assert.Equal(t, 1.0, top.Brand)
	assert.InDelta(t, 1.5, top.Category, 1e-9)

	assert.InDelta(t, 0.264, list[1].Price, 0.001)
	assert.Equal(t, 0.1, list[1].Brand)
}

func TestEngine_Limit(t *testing.T) {
	e := newTestEngine(t, newTestCatalog(), DefaultOptions())

	list, err := e.GetSimilarItems(context.Background(), 1, 1)
	require.NoError(t, err)
	assert.Equal(t, []core.ItemID{2}, ids(list))

	opts := DefaultOptions()
	tests := []struct {
		in, want int
	}{
		{0, 4},
		{-3, 1},
		{1, 1},
		{20, 20},
		{100, 20},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, opts.ClampLimit(tt.in), "limit %d", tt.in)
	}
}

func TestEngine_InvalidBase(t *testing.T) {
	c := newTestCatalog()
	grouped := product(8, "Bundle", 100, 3)
	grouped.Type = "grouped"
	c.AddProduct(grouped)
	e := newTestEngine(t, c, DefaultOptions())

	for _, id := range []core.ItemID{0, -1, 999, 7, 8} {
		list, err := e.GetSimilarItems(context.Background(), id, 4)
		require.NoError(t, err, "item %d", id)
		assert.Empty(t, list, "item %d", id)
	}
}

func TestEngine_CatalogFailure(t *testing.T) {
	down := errors.New("connection reset")

	cat := &countingCatalog{MemoryCatalog: newTestCatalog(), findErr: down}
	e := newTestEngine(t, cat, DefaultOptions())
	_, err := e.GetSimilarItems(context.Background(), 1, 4)
	require.Error(t, err)
	assert.True(t, core.IsUnavailable(err))
	assert.ErrorIs(t, err, down)

	cat = &countingCatalog{MemoryCatalog: newTestCatalog(), getErr: down}
	e = newTestEngine(t, cat, DefaultOptions())
	_, err = e.GetSimilarItems(context.Background(), 1, 4)
	require.Error(t, err)
	assert.True(t, core.IsUnavailable(err))
}

func TestEngine_CacheHit(t *testing.T) {
	ctx := context.Background()
	mc := newTestCatalog()
	cat := &countingCatalog{MemoryCatalog: mc}
	e := newTestEngine(t, cat, DefaultOptions(), WithCache(newMemoryCache(t)))

	first, err := e.GetSimilarItems(ctx, 1, 4)
	require.NoError(t, err)
	require.Equal(t, int32(1), cat.finds.Load())

	// 命中时原样返回，即使目录数据已变化
	mc.RemoveProduct(2)
	second, err := e.GetSimilarItems(ctx, 1, 4)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), cat.finds.Load(), "cache hit must not re-score")

	// 不同 limit 独立缓存
	third, err := e.GetSimilarItems(ctx, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int32(2), cat.finds.Load())
	assert.Equal(t, []core.ItemID{3}, ids(third))
}

func TestEngine_Predicates(t *testing.T) {
	opts := DefaultOptions()
	opts.Predicates = []filter.Predicate{
		func(candidate, base *core.CatalogItem) bool { return candidate.Price <= base.Price*2 },
	}
	e := newTestEngine(t, newTestCatalog(), opts)

	list, err := e.GetSimilarItems(context.Background(), 1, 4)
	require.NoError(t, err)
	assert.Equal(t, []core.ItemID{2}, ids(list))
}

func TestEngine_ExprRule(t *testing.T) {
	rule, err := filter.NewExprFilter("same_brand", `score.brand == 1.0`)
	require.NoError(t, err)
	opts := DefaultOptions()
	opts.Filters = []filter.Filter{rule}
	e := newTestEngine(t, newTestCatalog(), opts)

	list, err := e.GetSimilarItems(context.Background(), 1, 4)
	require.NoError(t, err)
	assert.Equal(t, []core.ItemID{2}, ids(list))
}

func TestEngine_Coalesce(t *testing.T) {
	opts := DefaultOptions()
	opts.Coalesce = true
	e := newTestEngine(t, newTestCatalog(), opts, WithCache(newMemoryCache(t)))

	const n = 8
	results := make([][]core.CandidateScore, n)
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			list, err := e.GetSimilarItems(context.Background(), 1, 4)
			assert.NoError(t, err)
			results[i] = list
		}()
	}
	wg.Wait()

	for _, r := range results {
		assert.Equal(t, results[0], r)
	}
	assert.Equal(t, []core.ItemID{2, 3}, ids(results[0]))
}

func TestEngine_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	e := newTestEngine(t, newTestCatalog(), DefaultOptions(), WithMetrics(m), WithCache(newMemoryCache(t)))

	_, err := e.GetSimilarItems(context.Background(), 1, 4)
	require.NoError(t, err)
	_, err = e.GetSimilarItems(context.Background(), 1, 4)
	require.NoError(t, err)
	_, err = e.GetSimilarItems(context.Background(), 999, 4)
	require.NoError(t, err)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Requests.WithLabelValues(metrics.ResultOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Requests.WithLabelValues(metrics.ResultInvalid)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Cache.WithLabelValues(metrics.CacheMiss)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Cache.WithLabelValues(metrics.CacheHit)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Filtered.WithLabelValues("filter.duplicate_title")))
}

func TestNewEngine_InvalidOptions(t *testing.T) {
	_, err := NewEngine(nil, DefaultOptions())
	assert.Error(t, err)

	opts := DefaultOptions()
	opts.Weights.Price = -1
	_, err = NewEngine(newTestCatalog(), opts)
	assert.Error(t, err)

	opts = DefaultOptions()
	opts.MinLimit, opts.MaxLimit = 10, 5
	_, err = NewEngine(newTestCatalog(), opts)
	assert.Error(t, err)
}

// staticSignals 对所有商品返回同一评分
type staticSignals struct {
	reviews float64
	calls   atomic.Int32
}

func (s *staticSignals) Name() string { return "static" }

func (s *staticSignals) GetSignals(_ context.Context, ids []core.ItemID) (map[core.ItemID]feature.Signals, error) {
	s.calls.Add(1)
	out := make(map[core.ItemID]feature.Signals, len(ids))
	for _, id := range ids {
		out[id] = feature.Signals{ReviewsAvg: s.reviews, HasReviewsAvg: true}
	}
	return out, nil
}

func TestEngine_SignalsDriveRules(t *testing.T) {
	rule, err := filter.NewExprFilter("well_rated", `candidate.reviews_avg >= 4.0 && base.reviews_avg >= 4.0`)
	require.NoError(t, err)
	opts := DefaultOptions()
	opts.Filters = []filter.Filter{rule}

	// 目录评分都是 0，全部被规则过滤
	without := newTestEngine(t, newTestCatalog(), opts)
	list, err := without.GetSimilarItems(context.Background(), 1, 4)
	require.NoError(t, err)
	assert.Empty(t, list)

	src := &staticSignals{reviews: 5}
	with := newTestEngine(t, newTestCatalog(), opts, WithSignalSource(src))
	list, err = with.GetSimilarItems(context.Background(), 1, 4)
	require.NoError(t, err)
	assert.Equal(t, []core.ItemID{2, 3}, ids(list))

	results, err := with.Recommend(context.Background(), Request{ItemID: 1})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, 5.0, results[0].ReviewsAvg)
	assert.Positive(t, src.calls.Load())
}
