package feature

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/rs/zerolog"

	"github.com/rushteam/itemsim/core"
)

// Extractor 把目录中的商品转换为 ItemFeatures。
//
// 抽取是商品当前目录数据的纯函数：分类（含祖先展开）、标签、属性、价格、
// 品牌、名称/描述分词、销量与评分。除读取 Catalog 外没有副作用。
type Extractor struct {
	Catalog core.Catalog

	// Signals 可选：覆盖 SalesRank / ReviewsAvg（例如来自 Feast 在线特征）
	Signals SignalSource

	stopWords map[string]struct{}
	logger    zerolog.Logger
}

// ExtractorOption 抽取器配置选项
type ExtractorOption func(*Extractor)

// WithSignalSource 设置数值信号源
func WithSignalSource(src SignalSource) ExtractorOption {
	return func(e *Extractor) {
		e.Signals = src
	}
}

// WithStopWords 替换默认停用词表
func WithStopWords(words []string) ExtractorOption {
	return func(e *Extractor) {
		e.stopWords = StopWordSet(words)
	}
}

// WithLogger 设置日志
func WithLogger(logger zerolog.Logger) ExtractorOption {
	return func(e *Extractor) {
		e.logger = logger
	}
}

// NewExtractor 创建特征抽取器
func NewExtractor(catalog core.Catalog, opts ...ExtractorOption) *Extractor {
	e := &Extractor{
		Catalog:   catalog,
		stopWords: StopWordSet(DefaultStopWords),
		logger:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With().Str("component", "feature.extractor").Logger()
	return e
}

// Extract 抽取单个商品的特征。
// 商品不存在时返回的错误满足 core.IsNotFound；其他目录错误包装为 UNAVAILABLE。
func (e *Extractor) Extract(ctx context.Context, item *core.CatalogItem) (*core.ItemFeatures, error) {
	if item == nil {
		return nil, core.ErrItemNotFound
	}
	id := item.ID

	categories, err := e.Catalog.GetCategories(ctx, id)
	if err != nil {
		return nil, catalogErr("get categories", id, err)
	}
	categories = uniqueSorted(categories)

	hierarchy, err := e.hierarchy(ctx, categories)
	if err != nil {
		return nil, err
	}

	tags, err := e.Catalog.GetTags(ctx, id)
	if err != nil {
		return nil, catalogErr("get tags", id, err)
	}

	attrs, err := e.Catalog.GetAttributes(ctx, id)
	if err != nil {
		return nil, catalogErr("get attributes", id, err)
	}

	brand, err := e.Catalog.GetBrand(ctx, id)
	if err != nil {
		return nil, catalogErr("get brand", id, err)
	}

	name, desc, short, err := e.Catalog.GetTextFields(ctx, id)
	if err != nil {
		return nil, catalogErr("get text fields", id, err)
	}

	price := item.Price
	if price < 0 {
		price = 0
	}

	return &core.ItemFeatures{
		Categories: categories,
		Hierarchy:  hierarchy,
		Tags:       uniqueSorted(tags),
		Attributes: normalizeAttributes(attrs),
		Price:      price,
		PriceBand:  PriceBandOf(price),
		Brand:      strings.TrimSpace(brand),
		Keywords:   Tokenize(name+" "+desc+" "+short, e.stopWords),
		SalesRank:  item.SalesCount,
		ReviewsAvg: item.ReviewsAvg,
	}, nil
}

// hierarchy 把直接分类展开为 分类 -> 深度。
// 祖先链由近及远，链上第 i 个祖先的深度为 len(chain)-1-i。
func (e *Extractor) hierarchy(ctx context.Context, categories []core.CategoryID) (map[core.CategoryID]int, error) {
	if len(categories) == 0 {
		return nil, nil
	}
	out := make(map[core.CategoryID]int, len(categories)*2)
	for _, c := range categories {
		ancestors, err := e.Catalog.GetAncestors(ctx, c)
		if err != nil && !core.IsNotFound(err) {
			return nil, core.NewUnavailable(core.ModuleCatalog, fmt.Errorf("get ancestors of category %d: %w", c, err))
		}
		out[c] = len(ancestors)
		for i, a := range ancestors {
			if _, ok := out[a]; !ok {
				out[a] = len(ancestors) - 1 - i
			}
		}
	}
	return out, nil
}

// ApplySignals 用信号源覆盖 SalesRank / ReviewsAvg。
// 信号不参与打分，只供业务规则读取；信号源失败只记录日志。
func (e *Extractor) ApplySignals(ctx context.Context, features map[core.ItemID]*core.ItemFeatures) {
	if e.Signals == nil || len(features) == 0 {
		return
	}
	ids := make([]core.ItemID, 0, len(features))
	for id := range features {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	signals, err := e.Signals.GetSignals(ctx, ids)
	if err != nil {
		e.logger.Warn().Err(err).Str("source", e.Signals.Name()).Int("items", len(ids)).Msg("signal source failed, keeping catalog signals")
		return
	}
	for id, s := range signals {
		f, ok := features[id]
		if !ok || f == nil {
			continue
		}
		if s.HasSalesRank {
			f.SalesRank = s.SalesRank
		}
		if s.HasReviewsAvg {
			f.ReviewsAvg = s.ReviewsAvg
		}
	}
}

func catalogErr(op string, id core.ItemID, err error) error {
	if core.IsNotFound(err) {
		return err
	}
	return core.NewUnavailable(core.ModuleCatalog, fmt.Errorf("%s %d: %w", op, id, err))
}

func uniqueSorted[T cmp.Ordered](in []T) []T {
	if len(in) == 0 {
		return nil
	}
	out := slices.Clone(in)
	slices.Sort(out)
	return slices.Compact(out)
}

func normalizeAttributes(in map[string][]core.AttributeValueID) map[string][]core.AttributeValueID {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string][]core.AttributeValueID, len(in))
	for name, values := range in {
		values = uniqueSorted(values)
		if len(values) == 0 {
			continue
		}
		out[name] = values
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
