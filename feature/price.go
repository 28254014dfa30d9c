package feature

import "github.com/rushteam/itemsim/core"

// 价格档位阈值
const (
	budgetCeiling  = 25.0
	midCeiling     = 100.0
	premiumCeiling = 500.0
)

// PriceBandOf 根据固定阈值计算价格档位。
func PriceBandOf(price float64) core.PriceBand {
	switch {
	case price < budgetCeiling:
		return core.PriceBandBudget
	case price < midCeiling:
		return core.PriceBandMid
	case price < premiumCeiling:
		return core.PriceBandPremium
	default:
		return core.PriceBandLuxury
	}
}
