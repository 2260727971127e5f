package filter

import (
	"context"

	"github.com/rushteam/recipekit/core"
)

// SelfFilter 保证观看者本人不会出现在结果中。
type SelfFilter struct{}

func (f *SelfFilter) Name() string { return "filter.self" }

func (f *SelfFilter) ShouldFilter(
	_ context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil {
		return true, nil
	}
	return rctx != nil && rctx.ViewerID != "" && item.ID == rctx.ViewerID, nil
}
