package rank

import (
	"fmt"

	"github.com/rushteam/itemsim/core"
)

// Weights 是六个分项的线性组合权重。
//
// 默认权重之和为 1.4，Overall 因此不是概率；MinScore 等阈值都以这个未归一化的尺度为准。
type Weights struct {
	Category  float64 `yaml:"category" json:"category" validate:"gte=0"`
	Tag       float64 `yaml:"tag" json:"tag" validate:"gte=0"`
	Attribute float64 `yaml:"attribute" json:"attribute" validate:"gte=0"`
	Price     float64 `yaml:"price" json:"price" validate:"gte=0"`
	Brand     float64 `yaml:"brand" json:"brand" validate:"gte=0"`
	Semantic  float64 `yaml:"semantic" json:"semantic" validate:"gte=0"`
}

// DefaultWeights 返回默认权重。
func DefaultWeights() Weights {
	return Weights{
		Category:  0.40,
		Tag:       0.20,
		Attribute: 0.25,
		Price:     0.10,
		Brand:     0.15,
		Semantic:  0.30,
	}
}

// Sum 返回权重之和。
func (w Weights) Sum() float64 {
	return w.Category + w.Tag + w.Attribute + w.Price + w.Brand + w.Semantic
}

// Validate 权重不能为负，且不能全为 0。
func (w Weights) Validate() error {
	for name, v := range map[string]float64{
		"category": w.Category, "tag": w.Tag, "attribute": w.Attribute,
		"price": w.Price, "brand": w.Brand, "semantic": w.Semantic,
	} {
		if v < 0 {
			return fmt.Errorf("weight %s must be >= 0, got %v", name, v)
		}
	}
	if w.Sum() == 0 {
		return fmt.Errorf("weights must not all be zero")
	}
	return nil
}

// Scorer 计算候选相对基准商品的六项相似度与加权总分。无状态，可并发使用。
type Scorer struct {
	Weights Weights
}

// NewScorer 创建打分器
func NewScorer(w Weights) *Scorer {
	return &Scorer{Weights: w}
}

// Score 计算单个候选的打分。任一特征为空时返回全 0（仅带 ItemID）。
func (s *Scorer) Score(base, cand *core.ItemFeatures, candidateID core.ItemID) core.CandidateScore {
	out := core.CandidateScore{ItemID: candidateID}
	if base == nil || cand == nil {
		return out
	}

	out.Category = CategorySimilarity(base, cand)
	out.Tag = Jaccard(base.Tags, cand.Tags)
	out.Attribute = AttributeSimilarity(base.Attributes, cand.Attributes)
	out.Price = PriceSimilarity(base.Price, cand.Price)
	out.Brand = BrandSimilarity(base.Brand, cand.Brand)
	out.Semantic = SemanticSimilarity(base.Keywords, cand.Keywords)

	w := s.Weights
	out.Overall = out.Category*w.Category +
		out.Tag*w.Tag +
		out.Attribute*w.Attribute +
		out.Price*w.Price +
		out.Brand*w.Brand +
		out.Semantic*w.Semantic
	return out
}
