package core

// Item 是推荐链路中的统一承载结构：候选商品、特征、分数、标签。
// Scores 用于解释与缓存；Score 与 Scores.Overall 保持一致，用于排序决策。
type Item struct {
	ID       ItemID
	Score    float64
	Scores   *CandidateScore
	Features *ItemFeatures
	Product  *CatalogItem
	Labels   map[string]Label
}

func NewItem(id ItemID) *Item {
	return &Item{
		ID:     id,
		Labels: make(map[string]Label),
	}
}

// PutLabel 写入 Label；若已存在同名 key，则按默认 Merge 规则累积。
func (it *Item) PutLabel(key string, lbl Label) {
	if it.Labels == nil {
		it.Labels = make(map[string]Label)
	}
	if old, ok := it.Labels[key]; ok {
		it.Labels[key] = MergeLabel(old, lbl)
		return
	}
	it.Labels[key] = lbl
}

// SetScores 写入分项分数，并同步总分。
func (it *Item) SetScores(s CandidateScore) {
	it.Scores = &s
	it.Score = s.Overall
}
