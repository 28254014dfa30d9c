package feast

import (
	"context"
	"fmt"

	"github.com/rushteam/itemsim/core"
	"github.com/rushteam/itemsim/feature"
)

// 默认特征引用与实体键
const (
	DefaultEntityKey      = "item_id"
	DefaultSalesFeature   = "item_stats:sales_count"
	DefaultReviewsFeature = "item_stats:reviews_avg"
)

// SignalSource 从 Feast 在线特征读取销量与评分，实现 feature.SignalSource。
//
// 一次请求对全部候选批量读取；Feast 中缺失的商品不出现在结果里，保留目录值。
type SignalSource struct {
	Client Client

	Project        string
	EntityKey      string
	SalesFeature   string
	ReviewsFeature string
}

// NewSignalSource 使用默认特征引用创建信号源
func NewSignalSource(client Client, project string) *SignalSource {
	return &SignalSource{
		Client:         client,
		Project:        project,
		EntityKey:      DefaultEntityKey,
		SalesFeature:   DefaultSalesFeature,
		ReviewsFeature: DefaultReviewsFeature,
	}
}

func (s *SignalSource) Name() string { return "feast" }

func (s *SignalSource) GetSignals(ctx context.Context, ids []core.ItemID) (map[core.ItemID]feature.Signals, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	key := s.EntityKey
	if key == "" {
		key = DefaultEntityKey
	}

	rows := make([]map[string]any, len(ids))
	for i, id := range ids {
		rows[i] = map[string]any{key: int64(id)}
	}
	resp, err := s.Client.GetOnlineFeatures(ctx, &GetOnlineFeaturesRequest{
		Features:   []string{s.SalesFeature, s.ReviewsFeature},
		EntityRows: rows,
		Project:    s.Project,
	})
	if err != nil {
		return nil, core.NewUnavailable(core.ModuleFeature, err)
	}
	if len(resp.FeatureVectors) != len(ids) {
		return nil, core.NewUnavailable(core.ModuleFeature,
			fmt.Errorf("feast: expected %d feature vectors, got %d", len(ids), len(resp.FeatureVectors)))
	}

	out := make(map[core.ItemID]feature.Signals, len(ids))
	for i, fv := range resp.FeatureVectors {
		sales, okSales := fv.Values[s.SalesFeature]
		reviews, okReviews := fv.Values[s.ReviewsFeature]
		if !okSales && !okReviews {
			continue
		}
		out[ids[i]] = feature.Signals{
			SalesRank:     int64(sales),
			ReviewsAvg:    reviews,
			HasSalesRank:  okSales,
			HasReviewsAvg: okReviews,
		}
	}
	return out, nil
}

var _ feature.SignalSource = (*SignalSource)(nil)
