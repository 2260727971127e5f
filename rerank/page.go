// Package rerank 在排序结果上做最终调整。
package rerank

import (
	"context"

	"github.com/rushteam/recipekit/core"
	"github.com/rushteam/recipekit/pipeline"
)

// PageNode 按请求的 page/limit 在内存中切片：[(page-1)*limit, page*limit)。
// 通常放在热门链路的最后，对完整排序后的列表分页。
//
// 示例：
//
//	pipeline := &pipeline.Pipeline{
//	    Nodes: []pipeline.Node{
//	        &recall.Popular{...},   // 召回全部用户并排序
//	        &rerank.PageNode{},     // 切出当前页
//	    },
//	}
type PageNode struct {
	// DefaultLimit 在请求未指定 limit 时使用，<=0 表示不截断
	DefaultLimit int
}

func (n *PageNode) Name() string {
	return "rerank.page"
}

func (n *PageNode) Kind() pipeline.Kind {
	return pipeline.KindReRank
}

func (n *PageNode) Process(
	_ context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	limit := n.DefaultLimit
	page := 1
	if rctx != nil {
		if rctx.Limit > 0 {
			limit = rctx.Limit
		}
		if rctx.Page > 1 {
			page = rctx.Page
		}
	}
	if limit <= 0 {
		return items, nil
	}

	// 先按页数判断越界，避免 (page-1)*limit 溢出
	pages := len(items) / limit
	if len(items)%limit != 0 {
		pages++
	}
	if page-1 >= pages {
		return []*core.Item{}, nil
	}
	start := (page - 1) * limit
	end := len(items)
	if limit < end-start {
		end = start + limit
	}
	return items[start:end], nil
}
