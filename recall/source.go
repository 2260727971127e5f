// Package recall 生成候选用户：个性化链路按关键词召回，热门链路召回全部用户。
package recall

import (
	"context"

	"github.com/rushteam/recipekit/core"
)

// Source 表示一个可复用的召回源（关键词/热门）。
type Source interface {
	Name() string
	Recall(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error)
}
