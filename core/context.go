package core

import (
	"math"

	"github.com/rushteam/recipekit/pkg/utils"
)

// RecommendContext 承载观看者/分页/画像信息，贯穿整个 Pipeline 透传。
type RecommendContext struct {
	// ViewerID 是发起请求的用户；为空表示未登录（只走热门链路）
	ViewerID string

	// Page 从 1 开始；Limit 为每页数量
	Page  int
	Limit int

	// Username 是可选的用户名过滤（大小写不敏感子串）
	Username string

	// Profile 是 recall.UserHistory 构建的观看者画像（历史文档集、关键词、类别）
	// 为空或无历史时走热门链路
	Profile *UserProfile

	// Labels 是请求级标签，可驱动整个 Pipeline 行为
	// 例如：recommend_path=personalized / popular
	Labels map[string]utils.Label

	// Params 请求级上下文参数（如 request_id）
	Params map[string]any
}

// Skip 返回分页偏移量 (page-1)*limit，溢出时饱和为 math.MaxInt。
func (rctx *RecommendContext) Skip() int {
	if rctx.Page <= 1 || rctx.Limit <= 0 {
		return 0
	}
	if rctx.Page-1 > math.MaxInt/rctx.Limit {
		return math.MaxInt
	}
	return (rctx.Page - 1) * rctx.Limit
}

// PutLabel 写入请求级 Label。
func (rctx *RecommendContext) PutLabel(key string, lbl utils.Label) {
	if rctx.Labels == nil {
		rctx.Labels = make(map[string]utils.Label)
	}
	if old, ok := rctx.Labels[key]; ok {
		rctx.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	rctx.Labels[key] = lbl
}

// GetLabel 获取请求级 Label。
func (rctx *RecommendContext) GetLabel(key string) (utils.Label, bool) {
	if rctx.Labels == nil {
		return utils.Label{}, false
	}
	lbl, ok := rctx.Labels[key]
	return lbl, ok
}
