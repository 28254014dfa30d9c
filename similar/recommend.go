package similar

import (
	"context"
	"fmt"
	"math"

	"github.com/rushteam/itemsim/core"
)

// Request 对外的相似推荐请求
type Request struct {
	ItemID        core.ItemID `json:"item_id"`
	Limit         int         `json:"limit,omitempty"`
	IncludeScores bool        `json:"include_scores,omitempty"`
}

// Result 一条推荐结果，附带展示所需的商品摘要
type Result struct {
	ItemID      core.ItemID      `json:"id"`
	Name        string           `json:"name"`
	Price       float64          `json:"price"`
	StockStatus core.StockStatus `json:"stock_status"`
	ReviewsAvg  float64          `json:"average_rating"`
	Score       float64          `json:"score"`
	Scores      *ComponentScores `json:"similarity_scores,omitempty"`
}

// ComponentScores 分项分数，保留 3 位小数
type ComponentScores struct {
	Overall   float64 `json:"overall"`
	Category  float64 `json:"category"`
	Tag       float64 `json:"tags"`
	Attribute float64 `json:"attributes"`
	Price     float64 `json:"price"`
	Brand     float64 `json:"brand"`
	Semantic  float64 `json:"semantic"`
}

// Recommend 是对外暴露的操作：计算（或命中缓存）相似列表，并补齐商品摘要。
// 结果返回时已被删除的商品直接跳过。
func (e *Engine) Recommend(ctx context.Context, req Request) ([]Result, error) {
	if req.ItemID <= 0 {
		return []Result{}, nil
	}
	list, err := e.GetSimilarItems(ctx, req.ItemID, req.Limit)
	if err != nil {
		return nil, err
	}

	out := make([]Result, 0, len(list))
	for _, s := range list {
		item, err := e.catalog.GetItem(ctx, s.ItemID)
		if core.IsNotFound(err) {
			continue
		}
		if err != nil {
			return nil, core.NewUnavailable(core.ModuleCatalog, fmt.Errorf("get item %d: %w", s.ItemID, err))
		}
		r := Result{
			ItemID:      s.ItemID,
			Name:        item.Name,
			Price:       item.Price,
			StockStatus: item.Stock,
			ReviewsAvg:  item.ReviewsAvg,
			Score:       round3(s.Overall),
		}
		if req.IncludeScores {
			r.Scores = componentScores(s)
		}
		out = append(out, r)
	}
	e.applyResultSignals(ctx, out)
	return out, nil
}

// applyResultSignals 用信号源的评分覆盖结果中的目录评分，失败时保留目录值。
func (e *Engine) applyResultSignals(ctx context.Context, results []Result) {
	if e.signals == nil || len(results) == 0 {
		return
	}
	ids := make([]core.ItemID, len(results))
	for i, r := range results {
		ids[i] = r.ItemID
	}
	signals, err := e.signals.GetSignals(ctx, ids)
	if err != nil {
		e.logger.Warn().Err(err).Str("source", e.signals.Name()).Msg("signal source failed, reporting catalog ratings")
		return
	}
	for i := range results {
		if s, ok := signals[results[i].ItemID]; ok && s.HasReviewsAvg {
			results[i].ReviewsAvg = s.ReviewsAvg
		}
	}
}

func componentScores(s core.CandidateScore) *ComponentScores {
	return &ComponentScores{
		Overall:   round3(s.Overall),
		Category:  round3(s.Category),
		Tag:       round3(s.Tag),
		Attribute: round3(s.Attribute),
		Price:     round3(s.Price),
		Brand:     round3(s.Brand),
		Semantic:  round3(s.Semantic),
	}
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
