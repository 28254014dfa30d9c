package recall

import (
	"context"
	"fmt"

	"github.com/rushteam/itemsim/core"
)

// 默认价格窗口：[0.5x, 2.0x]
const (
	DefaultPriceLowRatio  = 0.5
	DefaultPriceHighRatio = 2.0
)

// Retriever 是候选召回器：按分类 或 价格窗口粗筛可能相似的商品。
//
// 谓词为逻辑 OR（命中任意信号即可），并强制要求商品已发布、类型合格、
// 目录可见、有库存。基准商品既没有分类也没有价格时，退化为仅按类型/状态召回。
// 返回顺序不做保证，最终顺序由打分阶段决定。
type Retriever struct {
	Catalog core.Catalog

	// Types 合格的商品类型（例如 simple、variable）
	Types []string

	// Status 视为“已发布”的状态值（例如 publish）
	Status string

	PriceLowRatio  float64
	PriceHighRatio float64
}

// NewRetriever 创建召回器，价格窗口使用默认值。
func NewRetriever(catalog core.Catalog, types []string, status string) *Retriever {
	return &Retriever{
		Catalog:        catalog,
		Types:          types,
		Status:         status,
		PriceLowRatio:  DefaultPriceLowRatio,
		PriceHighRatio: DefaultPriceHighRatio,
	}
}

// BuildQuery 根据基准商品特征构造参数化查询。
func (r *Retriever) BuildQuery(baseID core.ItemID, features *core.ItemFeatures, maxCandidates int) core.CandidateQuery {
	q := core.CandidateQuery{
		ExcludeID:    baseID,
		Types:        r.Types,
		Status:       r.Status,
		Visibilities: core.ListedVisibilities(),
		Stock:        core.StockInStock,
		Limit:        maxCandidates,
	}
	if features == nil {
		return q
	}
	q.CategoryIDs = features.Categories
	if features.Price > 0 {
		low, high := r.PriceLowRatio, r.PriceHighRatio
		if low <= 0 {
			low = DefaultPriceLowRatio
		}
		if high <= 0 {
			high = DefaultPriceHighRatio
		}
		q.PriceMin = features.Price * low
		q.PriceMax = features.Price * high
	}
	return q
}

// FindCandidates 返回至多 maxCandidates 个候选商品 ID，不包含 baseID，已去重。
func (r *Retriever) FindCandidates(
	ctx context.Context,
	baseID core.ItemID,
	features *core.ItemFeatures,
	maxCandidates int,
) ([]core.ItemID, error) {
	if maxCandidates <= 0 {
		return nil, nil
	}
	q := r.BuildQuery(baseID, features, maxCandidates)
	ids, err := r.Catalog.FindItemsByCategoryOrPriceRange(ctx, q)
	if err != nil {
		return nil, core.NewUnavailable(core.ModuleCatalog, fmt.Errorf("find candidates for %d: %w", baseID, err))
	}

	seen := make(map[core.ItemID]struct{}, len(ids))
	out := make([]core.ItemID, 0, min(len(ids), maxCandidates))
	for _, id := range ids {
		if id == baseID {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
		if len(out) >= maxCandidates {
			break
		}
	}
	return out, nil
}
