package core

// RecommendContext 承载一次相似推荐请求的基准商品信息，贯穿整个 Pipeline 透传。
//
// 由 Orchestrator 在进入 Pipeline 前填充，各 Node 只读。
type RecommendContext struct {
	// BaseID 基准商品 ID（永远不会出现在结果中）
	BaseID ItemID

	// Base 基准商品的目录数据，供过滤阶段做重复检测
	Base *CatalogItem

	// BaseFeatures 基准商品特征，召回与打分阶段使用
	BaseFeatures *ItemFeatures

	// Limit 本次请求返回条数（已按配置范围裁剪）
	Limit int
}
