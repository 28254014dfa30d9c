package rerank

import (
	"context"

	"github.com/rushteam/itemsim/core"
	"github.com/rushteam/itemsim/pipeline"
)

// TopNNode 是一个 Top-N 截断节点，用于在过滤后截取前 N 个商品。
//
// 截断数量优先取 N，N <= 0 时取 RecommendContext.Limit；两者都 <= 0 则不截断。
// 候选不足 N 个时原样返回，不做补齐。
type TopNNode struct {
	N int
}

func (n *TopNNode) Name() string {
	return "rerank.topn"
}

func (n *TopNNode) Kind() pipeline.Kind {
	return pipeline.KindReRank
}

func (n *TopNNode) Process(
	_ context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	limit := n.N
	if limit <= 0 && rctx != nil {
		limit = rctx.Limit
	}
	if limit <= 0 || len(items) <= limit {
		return items, nil
	}
	return items[:limit], nil
}
