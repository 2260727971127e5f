package feature

import "github.com/rushteam/recipekit/core"

// DefaultKeywordLimit 是每个字段保留的关键词数量。
const DefaultKeywordLimit = 30

// Field 是参与关键词抽取的菜谱字段。
type Field string

const (
	FieldTitle       Field = "title"
	FieldIngredients Field = "ingredients"
)

// Value 返回菜谱在该字段上的文本。
func (f Field) Value(r core.Recipe) string {
	switch f {
	case FieldTitle:
		return r.Title
	case FieldIngredients:
		return r.Ingredients
	}
	return ""
}

// KeywordExtractor 对观看者文档集的标题、食材两个字段分别做 TF-IDF 并取 Top-N。
type KeywordExtractor struct {
	// Limit 是每个字段的关键词上限，<=0 时使用 DefaultKeywordLimit
	Limit int
}

// NewKeywordExtractor 创建关键词抽取器。
func NewKeywordExtractor(limit int) *KeywordExtractor {
	return &KeywordExtractor{Limit: limit}
}

func (e *KeywordExtractor) Name() string { return "feature.tfidf" }

func (e *KeywordExtractor) limit() int {
	if e.Limit <= 0 {
		return DefaultKeywordLimit
	}
	return e.Limit
}

// Corpus 构建某个字段上的语料统计。
func (e *KeywordExtractor) Corpus(recipes []core.Recipe, field Field) *Corpus {
	docs := make([]string, len(recipes))
	for i, r := range recipes {
		docs[i] = field.Value(r)
	}
	return NewCorpus(docs)
}

// Keywords 返回某个字段的 Top-N 关键词。
func (e *KeywordExtractor) Keywords(recipes []core.Recipe, field Field) []string {
	return e.Corpus(recipes, field).TopKeywords(e.limit())
}

// Extract 把两个字段的关键词写回观看者画像。
func (e *KeywordExtractor) Extract(profile *core.UserProfile) {
	if profile == nil {
		return
	}
	profile.TitleKeywords = e.Keywords(profile.Documents, FieldTitle)
	profile.IngredientKeywords = e.Keywords(profile.Documents, FieldIngredients)
}
