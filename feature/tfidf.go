// Package feature 负责从观看者的历史文档集中抽取关键词特征（TF-IDF）。
//
// 与全局语料不同，这里的文档集就是观看者最近互动过的菜谱：
//   - TF 以整个文档集为单位累计词频再除以文档数，反映“反复出现”的偏好
//   - IDF 在这个小语料内折减到处都出现的词（例如 "the"）
//
// 每次请求重新计算，不维护任何索引或缓存。
package feature

import (
	"math"
	"sort"
	"strings"
)

// KeywordWeights 是 term -> TF-IDF 权重，只对一个字段、一次调用有效。
type KeywordWeights map[string]float64

// Corpus 是一个字段上的文档集统计。
type Corpus struct {
	// TermCounts 是每个词在全部文档中的出现总次数
	TermCounts map[string]int

	// DocFrequencies 是包含该词的文档数
	DocFrequencies map[string]int

	// Terms 按首次出现顺序记录所有词，用于稳定的并列排序
	Terms []string

	// TotalDocuments 是文档数（空文本也计为一篇文档）
	TotalDocuments int
}

// Tokenize 小写后按空白切分，不去标点、不做词干化。
func Tokenize(text string) []string {
	return strings.Fields(strings.ToLower(text))
}

// NewCorpus 统计文档集的词频与文档频率。
func NewCorpus(docs []string) *Corpus {
	c := &Corpus{
		TermCounts:     make(map[string]int),
		DocFrequencies: make(map[string]int),
		TotalDocuments: len(docs),
	}
	for _, doc := range docs {
		words := Tokenize(doc)
		seen := make(map[string]struct{}, len(words))
		for _, w := range words {
			if _, ok := c.TermCounts[w]; !ok {
				c.Terms = append(c.Terms, w)
			}
			c.TermCounts[w]++
			if _, ok := seen[w]; !ok {
				seen[w] = struct{}{}
				c.DocFrequencies[w]++
			}
		}
	}
	return c
}

// Weight 计算 TF-IDF 权重：
//
//	tf  = termCount / totalDocs
//	idf = ln(totalDocs / docFreq)，docFreq 缺省为 1
func Weight(termCount, docFreq, totalDocs int) float64 {
	if totalDocs <= 0 {
		return 0
	}
	if docFreq <= 0 {
		docFreq = 1
	}
	tf := float64(termCount) / float64(totalDocs)
	idf := math.Log(float64(totalDocs) / float64(docFreq))
	return tf * idf
}

// Weights 返回语料中每个已出现词的权重。
func (c *Corpus) Weights() KeywordWeights {
	out := make(KeywordWeights, len(c.TermCounts))
	for _, w := range c.Terms {
		out[w] = Weight(c.TermCounts[w], c.DocFrequencies[w], c.TotalDocuments)
	}
	return out
}

// TopKeywords 按权重降序返回前 n 个词；并列时保持首次出现顺序。
func (c *Corpus) TopKeywords(n int) []string {
	if n <= 0 || len(c.Terms) == 0 {
		return []string{}
	}
	weights := c.Weights()
	terms := make([]string, len(c.Terms))
	copy(terms, c.Terms)
	sort.SliceStable(terms, func(i, j int) bool {
		return weights[terms[i]] > weights[terms[j]]
	})
	if len(terms) > n {
		terms = terms[:n]
	}
	return terms
}

// TFIDF 是 NewCorpus(docs).Weights() 的便捷写法。
func TFIDF(docs []string) KeywordWeights {
	return NewCorpus(docs).Weights()
}
