package rank

import (
	"cmp"
	"context"
	"slices"

	"github.com/rushteam/itemsim/core"
	"github.com/rushteam/itemsim/pipeline"
)

// SimilarityNode 是 Rank Node：对已注入特征的候选打分，并按总分降序排序。
// 总分相同按 ItemID 升序，保证结果确定。没有特征的候选与基准商品本身会被丢弃。
type SimilarityNode struct {
	Scorer *Scorer
}

func (n *SimilarityNode) Name() string        { return "rank.similarity" }
func (n *SimilarityNode) Kind() pipeline.Kind { return pipeline.KindRank }

func (n *SimilarityNode) Process(
	_ context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(items) == 0 || rctx == nil || rctx.BaseFeatures == nil {
		return nil, nil
	}

	out := make([]*core.Item, 0, len(items))
	for _, it := range items {
		if it == nil || it.Features == nil || it.ID == rctx.BaseID {
			continue
		}
		it.SetScores(n.Scorer.Score(rctx.BaseFeatures, it.Features, it.ID))
		out = append(out, it)
	}

	SortByScore(out)
	return out, nil
}

// SortByScore 按 Score 降序、ItemID 升序排序。
func SortByScore(items []*core.Item) {
	slices.SortStableFunc(items, func(a, b *core.Item) int {
		if c := cmp.Compare(b.Score, a.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}
