package filter

import (
	"context"

	"github.com/rushteam/recipekit/core"
)

// BlacklistFilter 是运营黑名单过滤器（封禁账号等）。
// 黑名单由配置内的 UserIDs 与 KV 中 Key 下的 JSON 数组合并而成，每个请求只读取一次 KV。
type BlacklistFilter struct {
	// UserIDs 是配置内的固定黑名单
	UserIDs []string

	// Store 用于读取运营维护的黑名单（可选）
	Store BlacklistStore

	// Key 是 Store 中的黑名单 key（可选）
	Key string
}

// BlacklistStore 是黑名单存储接口。
type BlacklistStore interface {
	GetBlacklist(ctx context.Context, key string) ([]string, error)
}

// NewBlacklistFilter 创建黑名单过滤器；storeAdapter 为空时只使用 userIDs。
func NewBlacklistFilter(userIDs []string, storeAdapter *StoreAdapter, key string) *BlacklistFilter {
	f := &BlacklistFilter{UserIDs: userIDs, Key: key}
	if storeAdapter != nil {
		f.Store = storeAdapter
	}
	return f
}

func (f *BlacklistFilter) Name() string {
	return "filter.blacklist"
}

func (f *BlacklistFilter) ShouldFilter(
	ctx context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil {
		return true, nil
	}
	banned, err := requestSet(rctx, "blacklist:"+f.Key, func() ([]string, error) {
		ids := append([]string(nil), f.UserIDs...)
		if f.Store == nil || f.Key == "" {
			return ids, nil
		}
		stored, err := f.Store.GetBlacklist(ctx, f.Key)
		if err != nil {
			return nil, err
		}
		return append(ids, stored...), nil
	})
	if err != nil {
		return false, err
	}
	_, hit := banned[item.ID]
	return hit, nil
}

// requestSet 把 load 的结果缓存在 rctx.Params[cacheKey]，同一请求内只加载一次。
// rctx 为空时每次都加载。
func requestSet(rctx *core.RecommendContext, cacheKey string, load func() ([]string, error)) (map[string]struct{}, error) {
	if rctx != nil {
		if set, ok := rctx.Params[cacheKey].(map[string]struct{}); ok {
			return set, nil
		}
	}
	ids, err := load()
	if err != nil {
		return nil, err
	}
	set := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	if rctx != nil {
		if rctx.Params == nil {
			rctx.Params = make(map[string]any)
		}
		rctx.Params[cacheKey] = set
	}
	return set, nil
}
