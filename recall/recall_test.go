package recall

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/recipekit/core"
	"github.com/rushteam/recipekit/repository"
	"github.com/rushteam/recipekit/store"
)

var now = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return now }

func newRepo(t *testing.T) *repository.KVRepository {
	kv := store.NewMemoryStore()
	t.Cleanup(func() { _ = kv.Close() })
	return repository.NewKVRepository(kv)
}

func seedHistory(t *testing.T, repo repository.Store) {
	t.Helper()
	ctx := context.Background()
	fx := repository.Fixture{
		Users: []core.User{{ID: "viewer"}, {ID: "alice"}, {ID: "bob"}},
		Recipes: []core.Recipe{
			{ID: "r1", OwnerID: "alice", Title: "Spicy Noodle Soup", Ingredients: "noodle chili", FoodType: "asian"},
			{ID: "r2", OwnerID: "bob", Title: "green salad", Ingredients: "lettuce", FoodType: "vegan"},
			{ID: "r3", OwnerID: "bob", Title: "old stew", Ingredients: "beef", FoodType: "french"},
		},
		Interactions: []core.Interaction{
			{ID: "l1", Kind: core.InteractionLike, UserID: "viewer", RecipeID: "r1", CreatedAt: now.Add(-time.Hour)},
			{ID: "s1", Kind: core.InteractionSave, UserID: "viewer", RecipeID: "r1", CreatedAt: now.Add(-time.Hour)},
			{ID: "v1", Kind: core.InteractionView, UserID: "viewer", RecipeID: "r2", CreatedAt: now.Add(-2 * time.Hour)},
			{ID: "v2", Kind: core.InteractionView, UserID: "viewer", RecipeID: "r3", CreatedAt: now.Add(-31 * 24 * time.Hour)},
		},
	}
	require.NoError(t, fx.Apply(ctx, repo))
}

func TestUserHistory_BuildsProfile(t *testing.T) {
	repo := newRepo(t)
	seedHistory(t, repo)

	h := &UserHistory{Repo: repo, Now: clock}
	p, err := h.Fetch(context.Background(), "viewer")
	require.NoError(t, err)
	require.True(t, p.HasHistory())

	// 点赞与收藏各算一次，窗口外的浏览被忽略
	require.Len(t, p.Documents, 3)
	assert.Equal(t, "r1", p.Documents[0].ID)
	assert.Equal(t, "r1", p.Documents[1].ID)
	assert.Equal(t, "r2", p.Documents[2].ID)
	assert.Equal(t, []string{"asian", "vegan"}, p.FoodTypes)
	assert.Equal(t, now.Add(-DefaultHistoryWindow), p.Since)

	assert.Contains(t, p.TitleKeywords, "spicy")
	assert.Contains(t, p.TitleKeywords, "green")
	assert.NotContains(t, p.TitleKeywords, "stew")
	assert.Contains(t, p.IngredientKeywords, "lettuce")
}

func TestUserHistory_SkipsDeletedRecipes(t *testing.T) {
	repo := newRepo(t)
	seedHistory(t, repo)
	require.NoError(t, repo.DeleteRecipe(context.Background(), "r1"))

	p, err := (&UserHistory{Repo: repo, Now: clock, MaxConcurrent: 1}).Fetch(context.Background(), "viewer")
	require.NoError(t, err)
	require.Len(t, p.Documents, 1)
	assert.Equal(t, "r2", p.Documents[0].ID)
}

func TestUserHistory_NoHistory(t *testing.T) {
	repo := newRepo(t)
	seedHistory(t, repo)

	p, err := (&UserHistory{Repo: repo, Now: clock}).Fetch(context.Background(), "alice")
	require.NoError(t, err)
	assert.False(t, p.HasHistory())
	assert.Empty(t, p.TitleKeywords)

	p, err = (&UserHistory{Repo: repo, Now: clock}).Fetch(context.Background(), "")
	require.NoError(t, err)
	assert.False(t, p.HasHistory())
}

type brokenRepo struct {
	core.Repository
}

func (brokenRepo) FetchInteractions(context.Context, string, core.InteractionKind, time.Time) ([]core.Interaction, error) {
	return []core.Interaction{{ID: "x", RecipeID: "r"}}, nil
}

func (brokenRepo) FindRecipe(context.Context, string) (*core.Recipe, error) {
	return nil, errors.New("connection reset")
}

func TestUserHistory_StoreFailure(t *testing.T) {
	_, err := (&UserHistory{Repo: brokenRepo{}, Now: clock}).Fetch(context.Background(), "viewer")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestKeywordRecall(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	for i := 0; i < 11; i++ {
		id := fmt.Sprintf("u%02d", i)
		require.NoError(t, repo.PutUser(ctx, core.User{ID: id, Username: id}))
		require.NoError(t, repo.PutRecipe(ctx, core.Recipe{ID: "r" + id, OwnerID: id, Title: "pasta", FoodType: "italian"}))
	}

	r := &KeywordRecall{Repo: repo}
	profile := &core.UserProfile{
		UserID:        "u00",
		Documents:     []core.Recipe{{Title: "pasta"}},
		FoodTypes:     []string{"italian"},
		TitleKeywords: []string{"pasta"},
	}

	rctx := &core.RecommendContext{ViewerID: "u00", Page: 1, Limit: 10, Profile: profile}
	q := r.Query(rctx)
	assert.Equal(t, "u00", q.ExcludeUserID)
	assert.Equal(t, 0, q.Skip)
	assert.Equal(t, 10, q.Take)

	out, err := r.Process(ctx, rctx, nil)
	require.NoError(t, err)
	require.Len(t, out, 10)
	assert.Equal(t, "u01", out[0].ID)
	assert.Equal(t, "keyword", out[0].Labels["recall_source"].Value)

	rctx.Page = 2
	out, err = r.Process(ctx, rctx, nil)
	require.NoError(t, err)
	assert.Empty(t, out)

	// 没有历史时不召回
	out, err = r.Process(ctx, &core.RecommendContext{ViewerID: "u00", Page: 1, Limit: 10}, nil)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestPopular_SortsByRecentThenTotal(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	for _, id := range []string{"a", "b", "c", "d", "viewer"} {
		require.NoError(t, repo.PutUser(ctx, core.User{ID: id, Username: id}))
	}
	follow := func(follower, followee string, ago time.Duration) {
		require.NoError(t, repo.AddFollow(ctx, core.Follow{FollowerID: follower, FolloweeID: followee, CreatedAt: now.Add(-ago)}))
	}
	// a: 3 个关注，全部是旧的
	follow("x1", "a", 72*time.Hour)
	follow("x2", "a", 72*time.Hour)
	follow("x3", "a", 72*time.Hour)
	// b: 1 个近期关注
	follow("x1", "b", time.Hour)
	// c: 1 个近期 + 1 个旧关注
	follow("x1", "c", time.Hour)
	follow("x2", "c", 48*time.Hour)
	// viewer: 多个近期关注，但会被排除
	follow("x1", "viewer", time.Hour)
	follow("x2", "viewer", time.Hour)

	p := &Popular{Repo: repo, Now: clock}
	out, err := p.Process(ctx, &core.RecommendContext{ViewerID: "viewer"}, nil)
	require.NoError(t, err)

	got := make([]string, len(out))
	for i, it := range out {
		got[i] = it.ID
	}
	assert.Equal(t, []string{"c", "b", "a", "d"}, got)
	assert.Equal(t, 1, out[0].Candidate.RecentFollowers)
	assert.Equal(t, 2, out[0].Candidate.FollowersCount)
}

func TestPopular_UsernameFilter(t *testing.T) {
	repo := newRepo(t)
	ctx := context.Background()
	require.NoError(t, repo.PutUser(ctx, core.User{ID: "1", Username: "ChefAnna"}))
	require.NoError(t, repo.PutUser(ctx, core.User{ID: "2", Username: "bob"}))

	out, err := (&Popular{Repo: repo, Now: clock}).Recall(ctx, &core.RecommendContext{Username: "chef"})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "1", out[0].ID)
}
