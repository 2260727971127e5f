package repository

import (
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/recipekit/core"
	"github.com/rushteam/recipekit/store"
)

var now = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

type backend struct {
	name string
	open func(t *testing.T) Store
}

func backends() []backend {
	return []backend{
		{
			name: "kv",
			open: func(t *testing.T) Store {
				kv := store.NewMemoryStore()
				t.Cleanup(func() { _ = kv.Close() })
				return NewKVRepository(kv)
			},
		},
		{
			name: "duckdb",
			open: func(t *testing.T) Store {
				repo, err := OpenDuckDB(context.Background(), "")
				if err != nil {
					t.Skipf("duckdb unavailable: %v", err)
				}
				t.Cleanup(func() { _ = repo.Close() })
				return repo
			},
		},
	}
}

func seed(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()
	fx := Fixture{
		Users: []core.User{
			{ID: "viewer", Username: "viewer"},
			{ID: "alice", Username: "Alice", Email: "a@x.io", Password: "secret"},
			{ID: "bob", Username: "bob"},
			{ID: "carol", Username: "carol"},
		},
		Recipes: []core.Recipe{
			{ID: "r1", OwnerID: "alice", Title: "pasta", Ingredients: "tomato basil", FoodType: "italian"},
			{ID: "r2", OwnerID: "alice", Title: "salad", Ingredients: "lettuce", FoodType: "vegan"},
			{ID: "r3", OwnerID: "bob", Title: "curry", Ingredients: "rice", FoodType: "indian"},
			{ID: "r4", OwnerID: "carol", Title: "pasta", Ingredients: "cream", FoodType: "italian"},
		},
		Interactions: []core.Interaction{
			{ID: "i1", Kind: core.InteractionLike, UserID: "viewer", RecipeID: "r1", CreatedAt: now.Add(-2 * time.Hour)},
			{ID: "i2", Kind: core.InteractionLike, UserID: "viewer", RecipeID: "r3", CreatedAt: now.Add(-40 * 24 * time.Hour)},
			{ID: "i3", Kind: core.InteractionSave, UserID: "viewer", RecipeID: "r1", CreatedAt: now.Add(-time.Hour)},
			{ID: "i4", Kind: core.InteractionView, UserID: "bob", RecipeID: "r1", CreatedAt: now.Add(-time.Hour)},
		},
		Follows: []core.Follow{
			{FollowerID: "viewer", FolloweeID: "bob", CreatedAt: now.Add(-48 * time.Hour)},
			{FollowerID: "alice", FolloweeID: "bob", CreatedAt: now.Add(-72 * time.Hour)},
			{FollowerID: "viewer", FolloweeID: "carol", CreatedAt: now.Add(-time.Hour)},
		},
	}
	require.NoError(t, fx.Apply(ctx, s))
}

func TestRepository_FetchInteractions(t *testing.T) {
	for _, b := range backends() {
		t.Run(b.name, func(t *testing.T) {
			s := b.open(t)
			seed(t, s)
			ctx := context.Background()

			likes, err := s.FetchInteractions(ctx, "viewer", core.InteractionLike, now.Add(-30*24*time.Hour))
			require.NoError(t, err)
			require.Len(t, likes, 1)
			assert.Equal(t, "i1", likes[0].ID)
			assert.Equal(t, "r1", likes[0].RecipeID)

			saves, err := s.FetchInteractions(ctx, "viewer", core.InteractionSave, now.Add(-30*24*time.Hour))
			require.NoError(t, err)
			require.Len(t, saves, 1)

			views, err := s.FetchInteractions(ctx, "viewer", core.InteractionView, now.Add(-30*24*time.Hour))
			require.NoError(t, err)
			assert.Empty(t, views)
		})
	}
}

func TestRepository_FindRecipeWithCounts(t *testing.T) {
	for _, b := range backends() {
		t.Run(b.name, func(t *testing.T) {
			s := b.open(t)
			seed(t, s)
			ctx := context.Background()

			rec, err := s.FindRecipe(ctx, "r1")
			require.NoError(t, err)
			assert.Equal(t, "pasta", rec.Title)
			assert.Equal(t, 1, rec.LikeCount)
			assert.Equal(t, 1, rec.SaveCount)
			assert.Equal(t, 1, rec.ViewCount)
			assert.Equal(t, 3, rec.Popularity())

			_, err = s.FindRecipe(ctx, "missing")
			assert.True(t, core.IsNotFound(err))
		})
	}
}

func TestRepository_DeletedRecipeIsNotFound(t *testing.T) {
	for _, b := range backends() {
		t.Run(b.name, func(t *testing.T) {
			s := b.open(t)
			seed(t, s)
			ctx := context.Background()

			require.NoError(t, s.DeleteRecipe(ctx, "r1"))
			_, err := s.FindRecipe(ctx, "r1")
			assert.True(t, core.IsNotFound(err))

			// 互动记录仍然存在
			likes, err := s.FetchInteractions(ctx, "viewer", core.InteractionLike, now.Add(-30*24*time.Hour))
			require.NoError(t, err)
			assert.Len(t, likes, 1)
		})
	}
}

func TestRepository_GetUser(t *testing.T) {
	for _, b := range backends() {
		t.Run(b.name, func(t *testing.T) {
			s := b.open(t)
			seed(t, s)

			u, err := s.GetUser(context.Background(), "alice")
			require.NoError(t, err)
			assert.Equal(t, "Alice", u.Username)

			_, err = s.GetUser(context.Background(), "nobody")
			assert.ErrorIs(t, err, core.ErrUserNotFound)
		})
	}
}

func candidateIDs(cs []*core.Candidate) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.User.ID
	}
	return out
}

func TestRepository_QueryCandidatesExactMatch(t *testing.T) {
	for _, b := range backends() {
		t.Run(b.name, func(t *testing.T) {
			s := b.open(t)
			seed(t, s)
			ctx := context.Background()

			// 关键词 "pasta" 精确命中 r1 与 r4 的标题
			got, err := s.QueryCandidates(ctx, core.CandidateQuery{
				ExcludeUserID: "viewer",
				TitleKeywords: []string{"pasta"},
				Take:          10,
			})
			require.NoError(t, err)
			// carol 有 1 个关注者，alice 没有
			assert.Equal(t, []string{"carol", "alice"}, candidateIDs(got))

			alice := got[1]
			assert.Equal(t, 2, alice.RecipesCount)
			require.Len(t, alice.Recipes, 2)
			assert.Equal(t, "r1", alice.Recipes[0].ID)
			assert.Equal(t, 3, alice.Recipes[0].Popularity())

			// 子串不算命中
			got, err = s.QueryCandidates(ctx, core.CandidateQuery{
				ExcludeUserID:      "viewer",
				IngredientKeywords: []string{"tomato"},
				Take:               10,
			})
			require.NoError(t, err)
			assert.Empty(t, got)

			got, err = s.QueryCandidates(ctx, core.CandidateQuery{
				ExcludeUserID:      "viewer",
				IngredientKeywords: []string{"tomato basil"},
				FoodTypes:          []string{"indian"},
				Take:               10,
			})
			require.NoError(t, err)
			assert.Equal(t, []string{"bob", "alice"}, candidateIDs(got))
		})
	}
}

func TestRepository_QueryCandidatesEmptyAndFilters(t *testing.T) {
	for _, b := range backends() {
		t.Run(b.name, func(t *testing.T) {
			s := b.open(t)
			seed(t, s)
			ctx := context.Background()

			got, err := s.QueryCandidates(ctx, core.CandidateQuery{ExcludeUserID: "viewer", Take: 10})
			require.NoError(t, err)
			assert.Empty(t, got)

			got, err = s.QueryCandidates(ctx, core.CandidateQuery{
				ExcludeUserID: "carol",
				Username:      "ALI",
				FoodTypes:     []string{"italian"},
				Take:          10,
			})
			require.NoError(t, err)
			assert.Equal(t, []string{"alice"}, candidateIDs(got))
		})
	}
}

func TestRepository_QueryCandidatesPagination(t *testing.T) {
	for _, b := range backends() {
		t.Run(b.name, func(t *testing.T) {
			s := b.open(t)
			ctx := context.Background()
			for i := 0; i < 11; i++ {
				id := fmt.Sprintf("u%02d", i)
				require.NoError(t, s.PutUser(ctx, core.User{ID: id, Username: id}))
				require.NoError(t, s.PutRecipe(ctx, core.Recipe{ID: "r" + id, OwnerID: id, Title: "soup"}))
			}
			q := core.CandidateQuery{TitleKeywords: []string{"soup"}, Skip: 10, Take: 10}
			got, err := s.QueryCandidates(ctx, q)
			require.NoError(t, err)
			assert.Equal(t, []string{"u10"}, candidateIDs(got))

			q.Skip = 20
			got, err = s.QueryCandidates(ctx, q)
			require.NoError(t, err)
			assert.Empty(t, got)

			q.Skip = math.MaxInt
			got, err = s.QueryCandidates(ctx, q)
			require.NoError(t, err)
			assert.Empty(t, got)
		})
	}
}

func TestRepository_ListUsers(t *testing.T) {
	for _, b := range backends() {
		t.Run(b.name, func(t *testing.T) {
			s := b.open(t)
			seed(t, s)
			ctx := context.Background()

			got, err := s.ListUsers(ctx, core.UserQuery{ExcludeUserID: "viewer", RecentSince: now.Add(-24 * time.Hour)})
			require.NoError(t, err)
			assert.Equal(t, []string{"bob", "carol", "alice"}, candidateIDs(got))

			byID := map[string]*core.Candidate{}
			for _, c := range got {
				byID[c.User.ID] = c
			}
			assert.Equal(t, 2, byID["bob"].FollowersCount)
			assert.Equal(t, 0, byID["bob"].RecentFollowers)
			assert.Equal(t, 1, byID["carol"].RecentFollowers)
			assert.Equal(t, 2, byID["alice"].RecipesCount)
		})
	}
}

func TestRepository_CountFollowers(t *testing.T) {
	for _, b := range backends() {
		t.Run(b.name, func(t *testing.T) {
			s := b.open(t)
			seed(t, s)
			ctx := context.Background()

			n, err := s.CountFollowers(ctx, "bob", nil)
			require.NoError(t, err)
			assert.Equal(t, 2, n)

			since := now.Add(-60 * time.Hour)
			n, err = s.CountFollowers(ctx, "bob", &since)
			require.NoError(t, err)
			assert.Equal(t, 1, n)
		})
	}
}

func TestRepository_InvalidInteractionKind(t *testing.T) {
	for _, b := range backends() {
		t.Run(b.name, func(t *testing.T) {
			s := b.open(t)
			err := s.AddInteraction(context.Background(), core.Interaction{ID: "x", Kind: "share"})
			assert.True(t, core.IsInvalidInput(err))
		})
	}
}

func TestLoadFixtureFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fixture.yaml")
	content := `
users:
  - id: u1
    username: alice
  - id: u2
    username: bob
recipes:
  - id: r1
    owner_id: u1
    title: pasta
    ingredients: tomato
    food_type: italian
interactions:
  - id: i1
    kind: like
    user_id: u2
    recipe_id: r1
    created_at: 2024-06-01T10:00:00Z
follows:
  - follower_id: u2
    followee_id: u1
    created_at: 2024-06-01T10:00:00Z
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	repo := NewKVRepository(store.NewMemoryStore())
	require.NoError(t, LoadFixtureFile(context.Background(), repo, path))

	rec, err := repo.FindRecipe(context.Background(), "r1")
	require.NoError(t, err)
	assert.Equal(t, 1, rec.LikeCount)

	n, err := repo.CountFollowers(context.Background(), "u1", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	assert.Error(t, LoadFixtureFile(context.Background(), repo, filepath.Join(t.TempDir(), "missing.yaml")))
}

func TestPaginate(t *testing.T) {
	list := []int{1, 2, 3, 4, 5}
	assert.Equal(t, []int{3, 4}, paginate(list, 2, 2))
	assert.Equal(t, []int{5}, paginate(list, 4, 10))
	assert.Equal(t, []int{}, paginate(list, 5, 10))
	assert.Equal(t, list, paginate(list, 0, 0))
	assert.Equal(t, list, paginate(list, -1, 0))
	assert.Equal(t, []int{}, paginate(list, math.MaxInt, 10))
	assert.Equal(t, []int{2, 3, 4, 5}, paginate(list, 1, math.MaxInt))
}
