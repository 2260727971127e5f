package feature

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/recipekit/core"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{name: "lower and split", text: "Spicy  Noodle\tSoup", want: []string{"spicy", "noodle", "soup"}},
		{name: "punctuation kept", text: "salt, pepper", want: []string{"salt,", "pepper"}},
		{name: "empty", text: "", want: []string{}},
		{name: "only whitespace", text: " \n\t ", want: []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tokenize(tt.text)
			if len(tt.want) == 0 {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCorpus_Weights(t *testing.T) {
	c := NewCorpus([]string{"spicy noodle soup", "spicy rice", "cold salad"})

	assert.Equal(t, 3, c.TotalDocuments)
	assert.Equal(t, 2, c.TermCounts["spicy"])
	assert.Equal(t, 2, c.DocFrequencies["spicy"])
	assert.Equal(t, []string{"spicy", "noodle", "soup", "rice", "cold", "salad"}, c.Terms)

	w := c.Weights()
	assert.InDelta(t, (2.0/3.0)*math.Log(3.0/2.0), w["spicy"], 1e-12)
	assert.InDelta(t, (1.0/3.0)*math.Log(3.0), w["noodle"], 1e-12)
}

func TestCorpus_CorpusLevelTermFrequency(t *testing.T) {
	// 同一文档内重复出现也计入总词频
	c := NewCorpus([]string{"egg egg egg", "milk"})
	w := c.Weights()
	assert.InDelta(t, (3.0/2.0)*math.Log(2.0), w["egg"], 1e-12)
	assert.InDelta(t, (1.0/2.0)*math.Log(2.0), w["milk"], 1e-12)
}

func TestCorpus_MissingTextCountsAsDocument(t *testing.T) {
	c := NewCorpus([]string{"", "tomato"})
	assert.Equal(t, 2, c.TotalDocuments)
	assert.InDelta(t, 0.5*math.Log(2), c.Weights()["tomato"], 1e-12)
}

func TestCorpus_Empty(t *testing.T) {
	c := NewCorpus(nil)
	assert.NotPanics(t, func() {
		assert.Empty(t, c.Weights())
		assert.Empty(t, c.TopKeywords(DefaultKeywordLimit))
	})
	assert.Empty(t, TFIDF([]string{}))
}

func TestWeight_Monotonic(t *testing.T) {
	const docs = 20
	for df := 1; df <= docs; df++ {
		prev := math.Inf(-1)
		for tf := df; tf <= 3*docs; tf++ {
			w := Weight(tf, df, docs)
			require.GreaterOrEqual(t, w, prev, "tf=%d df=%d", tf, df)
			prev = w
		}
	}
	for tf := 1; tf <= 3*docs; tf++ {
		prev := math.Inf(1)
		for df := 1; df <= docs; df++ {
			w := Weight(tf, df, docs)
			require.LessOrEqual(t, w, prev, "tf=%d df=%d", tf, df)
			prev = w
		}
	}
}

func TestWeight_DocFrequencyFloor(t *testing.T) {
	assert.InDelta(t, Weight(1, 1, 4), Weight(1, 0, 4), 1e-12)
	assert.Zero(t, Weight(3, 1, 0))
}

func TestCorpus_TopKeywords(t *testing.T) {
	docs := make([]string, 0, 40)
	for i := 0; i < 40; i++ {
		docs = append(docs, fmt.Sprintf("common term%d term%d", i, i%7))
	}
	c := NewCorpus(docs)
	top := c.TopKeywords(DefaultKeywordLimit)
	require.Len(t, top, DefaultKeywordLimit)

	w := c.Weights()
	assert.True(t, sort.SliceIsSorted(top, func(i, j int) bool { return w[top[i]] > w[top[j]] }))
	assert.NotContains(t, top[:7], "common")
}

func TestCorpus_TopKeywordsTiesKeepFirstAppearance(t *testing.T) {
	c := NewCorpus([]string{"b a", "c d"})
	assert.Equal(t, []string{"b", "a", "c", "d"}, c.TopKeywords(10))
	assert.Equal(t, []string{"b", "a"}, c.TopKeywords(2))
}

func TestCorpus_TopKeywordsDeterministic(t *testing.T) {
	docs := []string{"x y z", "z y", "q r s t u v", "y"}
	first := NewCorpus(docs).TopKeywords(30)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first, NewCorpus(docs).TopKeywords(30))
	}
}

func TestKeywordExtractor_Extract(t *testing.T) {
	profile := core.NewUserProfile("viewer", timeZero)
	profile.AddDocument(core.Recipe{ID: "r1", Title: "Spicy Noodle Soup", Ingredients: "noodle chili", FoodType: "asian"})
	profile.AddDocument(core.Recipe{ID: "r2", Title: "Green Salad", Ingredients: "lettuce", FoodType: "salad"})

	NewKeywordExtractor(0).Extract(profile)

	assert.ElementsMatch(t, []string{"spicy", "noodle", "soup", "green", "salad"}, profile.TitleKeywords)
	assert.ElementsMatch(t, []string{"noodle", "chili", "lettuce"}, profile.IngredientKeywords)
	for _, k := range profile.TitleKeywords {
		assert.Equal(t, strings.ToLower(k), k)
	}
}

func TestKeywordExtractor_Limit(t *testing.T) {
	recipes := make([]core.Recipe, 0, 50)
	for i := 0; i < 50; i++ {
		recipes = append(recipes, core.Recipe{Title: fmt.Sprintf("dish%d", i)})
	}
	e := NewKeywordExtractor(5)
	assert.Len(t, e.Keywords(recipes, FieldTitle), 5)
	assert.Len(t, NewKeywordExtractor(0).Keywords(recipes, FieldTitle), DefaultKeywordLimit)
	assert.Empty(t, e.Keywords(recipes, FieldIngredients))
}

var timeZero = time.Time{}
