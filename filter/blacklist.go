package filter

import (
	"context"

	"github.com/rushteam/itemsim/core"
)

// BlacklistFilter 是黑名单过滤器，过滤掉运营配置的禁推商品。
type BlacklistFilter struct {
	ids map[core.ItemID]struct{}
}

// NewBlacklistFilter 创建一个黑名单过滤器。
func NewBlacklistFilter(itemIDs []core.ItemID) *BlacklistFilter {
	ids := make(map[core.ItemID]struct{}, len(itemIDs))
	for _, id := range itemIDs {
		ids[id] = struct{}{}
	}
	return &BlacklistFilter{ids: ids}
}

func (f *BlacklistFilter) Name() string {
	return "filter.blacklist"
}

func (f *BlacklistFilter) ShouldFilter(_ context.Context, _ *core.RecommendContext, item *core.Item) (bool, error) {
	_, blocked := f.ids[item.ID]
	return blocked, nil
}
