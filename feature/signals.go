package feature

import (
	"context"

	"github.com/rushteam/itemsim/core"
)

// Signals 是不参与打分的数值信号，Has* 标记信号源实际返回了哪些字段。
// 未返回的字段保留目录中的值。
type Signals struct {
	SalesRank  int64
	ReviewsAvg float64

	HasSalesRank  bool
	HasReviewsAvg bool
}

// SignalSource 是数值信号的外部来源（例如 Feast 在线特征库）。
//
// 返回的 map 可以缺少部分商品，缺失的商品保留目录中的值。
type SignalSource interface {
	Name() string
	GetSignals(ctx context.Context, ids []core.ItemID) (map[core.ItemID]Signals, error)
}
