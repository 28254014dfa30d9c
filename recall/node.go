package recall

import (
	"context"

	"github.com/rushteam/itemsim/core"
	"github.com/rushteam/itemsim/pipeline"
)

// DefaultCandidateMultiplier 候选数 = limit * 3
const DefaultCandidateMultiplier = 3

// CandidateNode 是 Recall Node：以 RecommendContext 中的基准商品为种子生成候选集。
// 输入 items 被忽略。
type CandidateNode struct {
	Retriever *Retriever

	// Multiplier 候选数相对 limit 的倍数（<= 0 时使用默认值 3）
	Multiplier int
}

func (n *CandidateNode) Name() string        { return "recall.candidate" }
func (n *CandidateNode) Kind() pipeline.Kind { return pipeline.KindRecall }

func (n *CandidateNode) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	if rctx == nil || rctx.Limit <= 0 {
		return nil, nil
	}
	m := n.Multiplier
	if m <= 0 {
		m = DefaultCandidateMultiplier
	}

	ids, err := n.Retriever.FindCandidates(ctx, rctx.BaseID, rctx.BaseFeatures, rctx.Limit*m)
	if err != nil {
		return nil, err
	}

	source := "category_or_price"
	if rctx.BaseFeatures == nil || (len(rctx.BaseFeatures.Categories) == 0 && rctx.BaseFeatures.Price <= 0) {
		source = "type_status"
	}

	out := make([]*core.Item, 0, len(ids))
	for _, id := range ids {
		it := core.NewItem(id)
		it.PutLabel("recall_source", core.Label{Value: source, Source: "recall"})
		out = append(out, it)
	}
	return out, nil
}
