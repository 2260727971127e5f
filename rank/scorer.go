// Package rank 对候选用户打分并排序。
package rank

import (
	"strings"

	"github.com/rushteam/recipekit/core"
)

// Weights 是打分公式中的权重。
type Weights struct {
	// Title 是标题关键词命中数的系数
	Title float64
	// Follow 是每个关注者贡献的分数
	Follow float64
}

// DefaultWeights 返回默认权重：标题 x2，关注者 x10。
func DefaultWeights() Weights {
	return Weights{Title: 2, Follow: 10}
}

// RecipeScore 是单个菜谱的打分明细。
type RecipeScore struct {
	TitleRelevance       int
	IngredientsRelevance int
	CategoryRelevance    int
	Popularity           int
	Score                float64
}

// Scorer 计算候选用户的综合分：
//
//	recipeScore = (title*W.Title + ingredients + category) * popularity
//	finalScore  = sum(recipeScore) + followers*W.Follow
//
// 关键词在这里按子串匹配（菜谱文本先转小写），与召回阶段的精确匹配不同。
type Scorer struct {
	Weights Weights
}

// NewScorer 使用给定权重创建 Scorer。
func NewScorer(w Weights) *Scorer {
	return &Scorer{Weights: w}
}

func countContained(text string, keywords []string) int {
	if text == "" || len(keywords) == 0 {
		return 0
	}
	lower := strings.ToLower(text)
	n := 0
	for _, kw := range keywords {
		if strings.Contains(lower, kw) {
			n++
		}
	}
	return n
}

// Recipe 计算单个菜谱的得分。
func (s *Scorer) Recipe(p *core.UserProfile, r core.Recipe) RecipeScore {
	rs := RecipeScore{Popularity: r.Popularity()}
	if p != nil {
		rs.TitleRelevance = countContained(r.Title, p.TitleKeywords)
		rs.IngredientsRelevance = countContained(r.Ingredients, p.IngredientKeywords)
		if p.HasFoodType(r.FoodType) {
			rs.CategoryRelevance = 1
		}
	}
	relevance := float64(rs.TitleRelevance)*s.Weights.Title +
		float64(rs.IngredientsRelevance) +
		float64(rs.CategoryRelevance)
	rs.Score = relevance * float64(rs.Popularity)
	return rs
}

// Score 计算候选用户的最终得分。
func (s *Scorer) Score(p *core.UserProfile, c *core.Candidate) float64 {
	if c == nil {
		return 0
	}
	var total float64
	for _, r := range c.Recipes {
		total += s.Recipe(p, r).Score
	}
	return total + float64(c.FollowersCount)*s.Weights.Follow
}
