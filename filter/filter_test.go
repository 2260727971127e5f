package filter

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/recipekit/core"
	"github.com/rushteam/recipekit/store"
)

func items(ids ...string) []*core.Item {
	out := make([]*core.Item, 0, len(ids))
	for i, id := range ids {
		out = append(out, core.NewItem(&core.Candidate{
			User:         core.User{ID: id, Username: id},
			RecipesCount: i,
		}))
	}
	return out
}

func ids(items []*core.Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func TestFilterNode_SelfAndBlacklist(t *testing.T) {
	node := &FilterNode{Filters: []Filter{
		&SelfFilter{},
		NewBlacklistFilter([]string{"banned"}, nil, ""),
	}}
	rctx := &core.RecommendContext{ViewerID: "viewer"}

	out, err := node.Process(context.Background(), rctx, items("a", "viewer", "banned", "b"))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids(out))
}

func TestBlacklistFilter_FromStore(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryStore()
	defer kv.Close()
	require.NoError(t, kv.Set(ctx, "recommend:blacklist", []byte(`["b"]`)))

	f := NewBlacklistFilter(nil, NewStoreAdapter(kv), "recommend:blacklist")
	out, err := (&FilterNode{Filters: []Filter{f}}).Process(ctx, &core.RecommendContext{}, items("a", "b", "c"))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c"}, ids(out))

	// key 不存在视为空列表
	f.Key = "missing"
	out, err = (&FilterNode{Filters: []Filter{f}}).Process(ctx, &core.RecommendContext{}, items("a", "b"))
	require.NoError(t, err)
	assert.Len(t, out, 2)
}

type countingBlacklist struct {
	calls int
	ids   []string
}

func (c *countingBlacklist) GetBlacklist(context.Context, string) ([]string, error) {
	c.calls++
	return c.ids, nil
}

func TestBlacklistFilter_ReadsStoreOncePerRequest(t *testing.T) {
	ctx := context.Background()
	src := &countingBlacklist{ids: []string{"b"}}
	f := &BlacklistFilter{UserIDs: []string{"d"}, Store: src, Key: "bl"}
	node := &FilterNode{Filters: []Filter{f}}

	out, err := node.Process(ctx, &core.RecommendContext{}, items("a", "b", "c", "d", "e"))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c", "e"}, ids(out))
	assert.Equal(t, 1, src.calls)

	_, err = node.Process(ctx, &core.RecommendContext{}, items("a", "b"))
	require.NoError(t, err)
	assert.Equal(t, 2, src.calls)
}

func TestBlacklistFilter_DecodeErrorFailsRequest(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryStore()
	defer kv.Close()
	require.NoError(t, kv.Set(ctx, "bl", []byte(`not-json`)))

	node := &FilterNode{Filters: []Filter{NewBlacklistFilter(nil, NewStoreAdapter(kv), "bl")}}
	_, err := node.Process(ctx, &core.RecommendContext{}, items("a"))
	assert.Error(t, err)
}

func TestUserBlockFilter(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemoryStore()
	defer kv.Close()
	require.NoError(t, kv.Set(ctx, "user:block:viewer", []byte(`["c"]`)))

	node := &FilterNode{Filters: []Filter{NewUserBlockFilter(NewStoreAdapter(kv), "")}}
	out, err := node.Process(ctx, &core.RecommendContext{ViewerID: "viewer"}, items("a", "c"))
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, ids(out))

	// 未登录不过滤
	out, err = node.Process(ctx, &core.RecommendContext{}, items("a", "c"))
	require.NoError(t, err)
	assert.Len(t, out, 2)
}

func TestExprFilter(t *testing.T) {
	f, err := NewExprFilter("item.recipes_count > 0")
	require.NoError(t, err)

	out, err := (&FilterNode{Filters: []Filter{f}}).Process(context.Background(), &core.RecommendContext{}, items("zero", "one", "two"))
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two"}, ids(out))

	_, err = NewExprFilter("item.recipes_count >")
	assert.Error(t, err)
}

type failingFilter struct{}

func (failingFilter) Name() string { return "filter.failing" }
func (failingFilter) ShouldFilter(context.Context, *core.RecommendContext, *core.Item) (bool, error) {
	return false, errors.New("boom")
}

func TestFilterNode_ErrorFailsWholeCall(t *testing.T) {
	node := &FilterNode{Filters: []Filter{failingFilter{}}}
	_, err := node.Process(context.Background(), &core.RecommendContext{}, items("a"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "filter.failing")
}
