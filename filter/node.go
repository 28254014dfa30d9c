package filter

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/rushteam/itemsim/core"
	"github.com/rushteam/itemsim/pipeline"
)

// FilterNode 是过滤 Node，可以组合多个过滤器进行过滤。
// 如果任何一个过滤器返回 true，该候选就会被过滤掉；保留的候选保持输入顺序。
type FilterNode struct {
	Filters []Filter

	// OnFiltered 可选：每过滤掉一个候选回调一次（用于指标）
	OnFiltered func(filterName string)

	Logger zerolog.Logger
}

func (n *FilterNode) Name() string {
	return "filter.node"
}

func (n *FilterNode) Kind() pipeline.Kind {
	return pipeline.KindFilter
}

func (n *FilterNode) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(n.Filters) == 0 || len(items) == 0 {
		return items, nil
	}

	out := make([]*core.Item, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		if reason, drop := n.check(ctx, rctx, item); drop {
			// 记录过滤原因（用于调试/观测）
			item.PutLabel("filtered", core.Label{Value: "true", Source: reason})
			if n.OnFiltered != nil {
				n.OnFiltered(reason)
			}
			continue
		}
		out = append(out, item)
	}
	return out, nil
}

func (n *FilterNode) check(ctx context.Context, rctx *core.RecommendContext, item *core.Item) (string, bool) {
	for _, f := range n.Filters {
		drop, err := f.ShouldFilter(ctx, rctx, item)
		if err != nil {
			// 过滤器错误时记录但不中断流程
			n.Logger.Warn().Err(err).Str("filter", f.Name()).Int64("item_id", int64(item.ID)).Msg("filter failed, skipping rule")
			continue
		}
		if drop {
			return f.Name(), true
		}
	}
	return "", false
}

// Apply 是不经过 Pipeline 的便捷入口：按顺序过滤已排序的候选。
func Apply(ctx context.Context, filters []Filter, items []*core.Item, base *core.CatalogItem) []*core.Item {
	n := &FilterNode{Filters: filters, Logger: zerolog.Nop()}
	var baseID core.ItemID
	if base != nil {
		baseID = base.ID
	}
	out, _ := n.Process(ctx, &core.RecommendContext{BaseID: baseID, Base: base}, items)
	return out
}
