package core

import "time"

// UserProfile 是观看者画像：最近窗口内的互动文档集及由此推导的关键词与类别。
//
// 它不是某一个 Node，而是：
//   - 由 recall.UserHistory 在请求开始时构建
//   - 驱动候选查询（recall.KeywordRecall）与打分（rank.RelevanceNode）
//   - 只在单次请求内有效，每次请求重新计算
//
//	维度            来源
//	Documents       点赞 + 收藏 + 浏览的菜谱（按类型拼接，不去重）
//	FoodTypes       Documents 中出现过的类别（按首次出现顺序）
//	TitleKeywords   标题字段 TF-IDF Top-N
//	IngredientKeys  食材字段 TF-IDF Top-N
type UserProfile struct {
	UserID string

	// Documents 是关键词抽取的文档集；同一菜谱被点赞又被收藏会出现两次
	Documents []Recipe

	// FoodTypes 是观看者历史中出现过的菜谱类别
	FoodTypes []string

	TitleKeywords      []string
	IngredientKeywords []string

	// Since 是历史窗口起点
	Since time.Time
}

// NewUserProfile 创建一个新的观看者画像。
func NewUserProfile(userID string, since time.Time) *UserProfile {
	return &UserProfile{
		UserID:    userID,
		Documents: make([]Recipe, 0),
		FoodTypes: make([]string, 0),
		Since:     since,
	}
}

// AddDocument 追加一条文档并记录其类别。
func (p *UserProfile) AddDocument(r Recipe) {
	p.Documents = append(p.Documents, r)
	for _, t := range p.FoodTypes {
		if t == r.FoodType {
			return
		}
	}
	p.FoodTypes = append(p.FoodTypes, r.FoodType)
}

// HasHistory 返回观看者在窗口内是否有任何可用互动。
func (p *UserProfile) HasHistory() bool {
	return p != nil && len(p.Documents) > 0
}

// HasFoodType 判断类别是否出现在观看者历史中。
func (p *UserProfile) HasFoodType(foodType string) bool {
	if p == nil {
		return false
	}
	for _, t := range p.FoodTypes {
		if t == foodType {
			return true
		}
	}
	return false
}
