package core

// CandidateScore 是候选商品相对基准商品的相似度打分结果。
//
// Overall 为六个分项的加权和，不保证落在 [0,1]（权重之和为 1.4）。
// Category 为层级亲和度，按深度加权，可能略大于 1。
type CandidateScore struct {
	ItemID    ItemID  `json:"item_id"`
	Overall   float64 `json:"overall"`
	Category  float64 `json:"category"`
	Tag       float64 `json:"tag"`
	Attribute float64 `json:"attribute"`
	Price     float64 `json:"price"`
	Brand     float64 `json:"brand"`
	Semantic  float64 `json:"semantic"`
}
