package filter

import (
	"context"

	"github.com/rushteam/recipekit/core"
)

// UserBlockFilter 过滤掉观看者拉黑的用户。
type UserBlockFilter struct {
	// Store 用于从存储中读取观看者的拉黑列表
	Store UserBlockStore

	// KeyPrefix 是 Store 中的 key 前缀，实际 key 为 {KeyPrefix}:{ViewerID}
	KeyPrefix string
}

// UserBlockStore 是用户拉黑存储接口。
type UserBlockStore interface {
	// GetUserBlocks 获取观看者拉黑的用户 ID 列表
	GetUserBlocks(ctx context.Context, viewerID string, keyPrefix string) ([]string, error)
}

// NewUserBlockFilter 创建一个用户拉黑过滤器。
func NewUserBlockFilter(storeAdapter *StoreAdapter, keyPrefix string) *UserBlockFilter {
	var store UserBlockStore
	if storeAdapter != nil {
		store = storeAdapter
	}
	return &UserBlockFilter{
		Store:     store,
		KeyPrefix: keyPrefix,
	}
}

func (f *UserBlockFilter) Name() string {
	return "filter.user_block"
}

func (f *UserBlockFilter) ShouldFilter(
	ctx context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil || rctx == nil || rctx.ViewerID == "" || f.Store == nil {
		return false, nil
	}

	keyPrefix := f.KeyPrefix
	if keyPrefix == "" {
		keyPrefix = "user:block"
	}

	blocked, err := requestSet(rctx, "user_block:"+keyPrefix, func() ([]string, error) {
		return f.Store.GetUserBlocks(ctx, rctx.ViewerID, keyPrefix)
	})
	if err != nil {
		return false, err
	}
	_, hit := blocked[item.ID]
	return hit, nil
}
