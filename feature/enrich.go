package feature

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/rushteam/itemsim/core"
	"github.com/rushteam/itemsim/pipeline"
)

// DefaultMaxConcurrent 单次请求内并发加载候选特征的默认上限。
const DefaultMaxConcurrent = 8

// EnrichNode 是特征注入节点：为每个候选并发加载目录数据并抽取特征。
//
// 召回与注入之间被删除的商品（NOT_FOUND）直接丢弃；其他错误中断整个请求。
// 输出保持输入顺序。
type EnrichNode struct {
	Extractor *Extractor

	// MaxConcurrent 最大并发数（<= 0 时使用 DefaultMaxConcurrent）
	MaxConcurrent int
}

func (n *EnrichNode) Name() string {
	return "feature.enrich"
}

func (n *EnrichNode) Kind() pipeline.Kind {
	return pipeline.KindPostProcess
}

func (n *EnrichNode) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(items) == 0 {
		return items, nil
	}

	limit := n.MaxConcurrent
	if limit <= 0 {
		limit = DefaultMaxConcurrent
	}

	slots := make([]*core.Item, len(items))
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(limit)

	for i, it := range items {
		if it == nil {
			continue
		}
		eg.Go(func() error {
			if it.Product == nil {
				product, err := n.Extractor.Catalog.GetItem(egCtx, it.ID)
				if core.IsNotFound(err) {
					return nil
				}
				if err != nil {
					return catalogErr("get item", it.ID, err)
				}
				it.Product = product
			}
			if it.Features == nil {
				f, err := n.Extractor.Extract(egCtx, it.Product)
				if core.IsNotFound(err) {
					return nil
				}
				if err != nil {
					return err
				}
				it.Features = f
			}
			slots[i] = it
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	out := make([]*core.Item, 0, len(slots))
	byID := make(map[core.ItemID]*core.ItemFeatures, len(slots))
	for _, it := range slots {
		if it == nil {
			continue
		}
		out = append(out, it)
		byID[it.ID] = it.Features
	}
	// 基准商品与候选一起批量读取信号，规则里的 base.* 与 candidate.* 口径一致
	if rctx != nil && rctx.BaseFeatures != nil {
		if _, dup := byID[rctx.BaseID]; !dup {
			byID[rctx.BaseID] = rctx.BaseFeatures
		}
	}
	n.Extractor.ApplySignals(ctx, byID)
	return out, nil
}
