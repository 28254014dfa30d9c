// Package itemsim 为商品目录计算“相似商品”推荐。
//
// 设计要点：
// - Pipeline-first: 召回 → 特征注入 → 打分排序 → 业务过滤 → 截断，每一步都是一个 Node
// - 可解释: 每个结果附带分类/标签/属性/价格/品牌/语义六项分数
// - 目录、缓存、信号源都是接口，内存实现用于测试，Postgres / Redis / Feast 用于生产
//
// 最小用法：
//
//	cat, _ := catalog.LoadFixtures("catalog.yaml")
//	engine, _ := itemsim.NewEngine(cat, itemsim.DefaultOptions())
//	results, _ := engine.Recommend(ctx, itemsim.Request{ItemID: 100, Limit: 4})
package itemsim

import (
	"github.com/rushteam/itemsim/core"
	"github.com/rushteam/itemsim/pipeline"
	"github.com/rushteam/itemsim/similar"
)

// 轻量 facade：便于直接 import "itemsim" 使用核心抽象。
type (
	Engine   = similar.Engine
	Options  = similar.Options
	Request  = similar.Request
	Result   = similar.Result
	Pipeline = pipeline.Pipeline
	Node     = pipeline.Node
	Kind     = pipeline.Kind

	ItemID         = core.ItemID
	Catalog        = core.Catalog
	CandidateScore = core.CandidateScore
)

const (
	KindRecall      = pipeline.KindRecall
	KindFilter      = pipeline.KindFilter
	KindRank        = pipeline.KindRank
	KindReRank      = pipeline.KindReRank
	KindPostProcess = pipeline.KindPostProcess
)

// NewEngine 见 similar.NewEngine
func NewEngine(catalog core.Catalog, opts Options, options ...similar.Option) (*Engine, error) {
	return similar.NewEngine(catalog, opts, options...)
}

// DefaultOptions 见 similar.DefaultOptions
func DefaultOptions() Options {
	return similar.DefaultOptions()
}
