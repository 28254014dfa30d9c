package core

// PriceBand 价格档位。
type PriceBand string

const (
	PriceBandBudget  PriceBand = "budget"  // < 25
	PriceBandMid     PriceBand = "mid"     // < 100
	PriceBandPremium PriceBand = "premium" // < 500
	PriceBandLuxury  PriceBand = "luxury"
)

// ItemFeatures 是单个商品用于相似度计算的特征集合。
//
// 每次请求重新抽取，创建后不再修改。集合类字段均已去重并升序排列。
type ItemFeatures struct {
	// Categories 商品直接挂载的分类
	Categories []CategoryID `json:"categories"`

	// Hierarchy 分类展开集合：直接分类及其全部祖先 -> 深度（祖先个数）
	Hierarchy map[CategoryID]int `json:"hierarchy,omitempty"`

	Tags []TagID `json:"tags"`

	// Attributes 属性名 -> 属性值 ID 集合
	Attributes map[string][]AttributeValueID `json:"attributes"`

	Price     float64   `json:"price"`
	PriceBand PriceBand `json:"price_band"`

	// Brand 品牌原文，比较时忽略大小写；空表示无品牌
	Brand string `json:"brand,omitempty"`

	// Keywords 名称/描述分词后的关键词集合
	Keywords []string `json:"keywords"`

	// SalesRank / ReviewsAvg 暂不参与打分，预留
	SalesRank  int64   `json:"sales_rank"`
	ReviewsAvg float64 `json:"reviews_avg"`
}
