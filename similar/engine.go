// Package similar 编排相似商品推荐：缓存检查、特征抽取、召回、打分、过滤、截断与缓存回写。
package similar

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/rushteam/itemsim/cache"
	"github.com/rushteam/itemsim/core"
	"github.com/rushteam/itemsim/feature"
	"github.com/rushteam/itemsim/filter"
	"github.com/rushteam/itemsim/metrics"
	"github.com/rushteam/itemsim/pipeline"
	"github.com/rushteam/itemsim/rank"
	"github.com/rushteam/itemsim/recall"
	"github.com/rushteam/itemsim/rerank"
)

// Engine 是相似推荐的编排器，构造后可并发使用。
//
// 唯一的共享可变状态是结果缓存；并发未命中默认各自计算、后写覆盖，
// 开启 Coalesce 后同一 (item, limit) 只计算一次。
type Engine struct {
	catalog   core.Catalog
	opts      Options
	extractor *feature.Extractor
	pipeline  *pipeline.Pipeline
	cache     *cache.ResultCache
	metrics   *metrics.Collectors
	logger    zerolog.Logger
	group     singleflight.Group

	signals feature.SignalSource
}

// Option Engine 配置选项
type Option func(*Engine)

// WithCache 开启结果缓存
func WithCache(c *cache.ResultCache) Option {
	return func(e *Engine) {
		e.cache = c
	}
}

// WithMetrics 设置指标
func WithMetrics(m *metrics.Collectors) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithLogger 设置日志
func WithLogger(logger zerolog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithSignalSource 设置销量/评分信号源（例如 Feast）
func WithSignalSource(src feature.SignalSource) Option {
	return func(e *Engine) {
		e.signals = src
	}
}

// NewEngine 创建编排器。opts 中的零值字段使用默认值。
func NewEngine(catalog core.Catalog, opts Options, options ...Option) (*Engine, error) {
	if catalog == nil {
		return nil, fmt.Errorf("similar: catalog is required")
	}
	opts, err := opts.normalize()
	if err != nil {
		return nil, err
	}

	e := &Engine{
		catalog: catalog,
		opts:    opts,
		logger:  zerolog.Nop(),
	}
	for _, o := range options {
		o(e)
	}
	e.logger = e.logger.With().Str("component", "similar").Logger()

	extractorOpts := []feature.ExtractorOption{feature.WithLogger(e.logger)}
	if e.signals != nil {
		extractorOpts = append(extractorOpts, feature.WithSignalSource(e.signals))
	}
	if len(opts.StopWords) > 0 {
		extractorOpts = append(extractorOpts, feature.WithStopWords(opts.StopWords))
	}
	e.extractor = feature.NewExtractor(catalog, extractorOpts...)
	e.pipeline = e.buildPipeline()
	return e, nil
}

// buildPipeline 召回 -> 特征注入 -> 打分排序 -> 业务过滤 -> 截断
func (e *Engine) buildPipeline() *pipeline.Pipeline {
	extra := slices.Clone(e.opts.Filters)
	if len(e.opts.Predicates) > 0 {
		extra = append(extra, filter.NewPredicateFilter(e.opts.Predicates...))
	}

	return &pipeline.Pipeline{
		Nodes: []pipeline.Node{
			&recall.CandidateNode{
				Retriever:  recall.NewRetriever(e.catalog, e.opts.EligibleTypes, e.opts.PublishStatus),
				Multiplier: e.opts.CandidateMultiplier,
			},
			&feature.EnrichNode{
				Extractor:     e.extractor,
				MaxConcurrent: e.opts.MaxConcurrent,
			},
			&rank.SimilarityNode{
				Scorer: rank.NewScorer(e.opts.Weights),
			},
			&filter.FilterNode{
				Filters:    filter.BusinessFilters(e.opts.Rules, extra...),
				OnFiltered: e.metrics.IncFiltered,
				Logger:     e.logger,
			},
			&rerank.TopNNode{},
		},
		Hook: e.stageHook,
	}
}

func (e *Engine) stageHook(node pipeline.Node, in, out int, elapsed time.Duration) {
	e.metrics.ObserveStage(node.Name(), elapsed)
	if node.Kind() == pipeline.KindRecall {
		e.metrics.ObserveCandidates(out)
	}
	e.logger.Debug().
		Str("stage", node.Name()).
		Str("kind", string(node.Kind())).
		Int("in", in).
		Int("out", out).
		Dur("elapsed", elapsed).
		Msg("stage done")
}

// Options 返回生效的参数
func (e *Engine) Options() Options { return e.opts }

// GetSimilarItems 返回与 baseID 最相似的至多 limit 个商品，按总分降序。
//
// limit 为 0 时取 DefaultLimit，其余值裁剪到 [MinLimit, MaxLimit]（负数得到 MinLimit）。
// 基准商品不存在、未发布或类型不合格时返回空列表且不报错；
// 目录等协作方失败时返回满足 core.IsUnavailable 的错误。
func (e *Engine) GetSimilarItems(ctx context.Context, baseID core.ItemID, limit int) ([]core.CandidateScore, error) {
	start := time.Now()
	limit = e.opts.ClampLimit(limit)
	logger := e.logger.With().Int64("item_id", int64(baseID)).Int("limit", limit).Logger()

	list, result, err := e.getSimilarItems(ctx, baseID, limit, logger)
	e.metrics.ObserveRequest(result, time.Since(start))
	if err != nil {
		logger.Warn().Err(err).Msg("similar items failed")
		return nil, err
	}
	return list, nil
}

func (e *Engine) getSimilarItems(ctx context.Context, baseID core.ItemID, limit int, logger zerolog.Logger) ([]core.CandidateScore, string, error) {
	if baseID <= 0 {
		logger.Debug().Msg("invalid item id")
		return []core.CandidateScore{}, metrics.ResultInvalid, nil
	}
	if e.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.opts.Timeout)
		defer cancel()
	}

	base, err := e.catalog.GetItem(ctx, baseID)
	if core.IsNotFound(err) {
		logger.Debug().Msg("base item not found")
		return []core.CandidateScore{}, metrics.ResultInvalid, nil
	}
	if err != nil {
		return nil, metrics.ResultError, core.NewUnavailable(core.ModuleCatalog, fmt.Errorf("get item %d: %w", baseID, err))
	}
	if !e.Eligible(base) {
		logger.Debug().Str("type", base.Type).Str("status", base.Status).Msg("base item not eligible")
		return []core.CandidateScore{}, metrics.ResultInvalid, nil
	}

	if list, ok := e.cacheGet(ctx, baseID, limit, logger); ok {
		return list, resultOf(list), nil
	}

	var list []core.CandidateScore
	if e.opts.Coalesce {
		v, err, shared := e.group.Do(fmt.Sprintf("%d:%d", baseID, limit), func() (any, error) {
			return e.computeAndStore(ctx, base, limit, logger)
		})
		if err != nil {
			return nil, metrics.ResultError, err
		}
		list = v.([]core.CandidateScore)
		if shared {
			list = slices.Clone(list)
		}
	} else {
		list, err = e.computeAndStore(ctx, base, limit, logger)
		if err != nil {
			return nil, metrics.ResultError, err
		}
	}
	return list, resultOf(list), nil
}

func (e *Engine) computeAndStore(ctx context.Context, base *core.CatalogItem, limit int, logger zerolog.Logger) ([]core.CandidateScore, error) {
	list, err := e.compute(ctx, base, limit)
	if err != nil {
		return nil, err
	}
	e.cacheSet(ctx, base.ID, limit, list, logger)
	logger.Debug().Int("returned", len(list)).Msg("similar items computed")
	return list, nil
}

func (e *Engine) compute(ctx context.Context, base *core.CatalogItem, limit int) ([]core.CandidateScore, error) {
	features, err := e.extractor.Extract(ctx, base)
	if core.IsNotFound(err) {
		return []core.CandidateScore{}, nil
	}
	if err != nil {
		return nil, err
	}

	rctx := &core.RecommendContext{
		BaseID:       base.ID,
		Base:         base,
		BaseFeatures: features,
		Limit:        limit,
	}
	items, err := e.pipeline.Run(ctx, rctx, nil)
	if err != nil {
		return nil, err
	}

	out := make([]core.CandidateScore, 0, len(items))
	for _, it := range items {
		if it == nil || it.Scores == nil || it.ID == base.ID {
			continue
		}
		out = append(out, *it.Scores)
	}
	return out, nil
}

// Eligible 基准商品必须已发布且类型合格
func (e *Engine) Eligible(item *core.CatalogItem) bool {
	return item != nil &&
		item.Status == e.opts.PublishStatus &&
		slices.Contains(e.opts.EligibleTypes, item.Type)
}

func (e *Engine) cacheGet(ctx context.Context, baseID core.ItemID, limit int, logger zerolog.Logger) ([]core.CandidateScore, bool) {
	if e.cache == nil {
		return nil, false
	}
	list, ok, err := e.cache.Get(ctx, baseID, limit)
	if err != nil {
		// 缓存只是优化，失败按未命中处理
		e.metrics.CacheOutcome(metrics.CacheError)
		logger.Warn().Err(err).Msg("cache get failed")
		return nil, false
	}
	if !ok {
		e.metrics.CacheOutcome(metrics.CacheMiss)
		return nil, false
	}
	e.metrics.CacheOutcome(metrics.CacheHit)
	logger.Debug().Int("returned", len(list)).Msg("cache hit")
	return list, true
}

func (e *Engine) cacheSet(ctx context.Context, baseID core.ItemID, limit int, list []core.CandidateScore, logger zerolog.Logger) {
	if e.cache == nil {
		return
	}
	if err := e.cache.Set(ctx, baseID, limit, list, e.opts.CacheTTL); err != nil {
		logger.Warn().Err(err).Msg("cache set failed")
	}
}

func resultOf(list []core.CandidateScore) string {
	if len(list) == 0 {
		return metrics.ResultEmpty
	}
	return metrics.ResultOK
}
