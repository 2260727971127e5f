package core

import "github.com/rushteam/recipekit/pkg/utils"

// Item 是推荐链路中的统一承载结构：候选用户、分数、特征、标签。
// Labels 用于解释与策略驱动；Score 用于排序决策。
// Item 只在单次请求内存在，不做持久化。
type Item struct {
	ID        string
	Score     float64
	Candidate *Candidate
	Features  map[string]float64
	Labels    map[string]utils.Label
}

func NewItem(c *Candidate) *Item {
	it := &Item{
		Candidate: c,
		Features:  make(map[string]float64),
		Labels:    make(map[string]utils.Label),
	}
	if c != nil {
		it.ID = c.User.ID
	}
	return it
}

// PutLabel 写入 Label；若已存在同名 key，则按默认 Merge 规则累积。
func (it *Item) PutLabel(key string, lbl utils.Label) {
	if it.Labels == nil {
		it.Labels = make(map[string]utils.Label)
	}
	if old, ok := it.Labels[key]; ok {
		it.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	it.Labels[key] = lbl
}

// Previews 把 items 转换为对外的用户摘要，保持顺序。
func Previews(items []*Item) []UserPreview {
	out := make([]UserPreview, 0, len(items))
	for _, it := range items {
		if it == nil || it.Candidate == nil {
			continue
		}
		out = append(out, it.Candidate.Preview())
	}
	return out
}
