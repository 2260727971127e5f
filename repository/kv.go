package repository

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/goccy/go-json"

	"github.com/rushteam/recipekit/core"
	"github.com/rushteam/recipekit/pkg/metrics"
)

// KV 布局：
//
//	users                         hash  userID      -> User(JSON)
//	recipes                       hash  recipeID    -> Recipe(JSON，不含计数)
//	interactions                  hash  id          -> Interaction(JSON)
//	user:{uid}:{kind}             zset  interaction -> created_at(ms)
//	user:{uid}:recipes            zset  recipeID    -> 0
//	user:{uid}:followers          zset  followerID  -> created_at(ms)
//	recipe:{rid}:{kind}           zset  interaction -> created_at(ms)
const (
	keyUsers        = "users"
	keyRecipes      = "recipes"
	keyInteractions = "interactions"
)

func keyUserInteractions(userID string, kind core.InteractionKind) string {
	return "user:" + userID + ":" + string(kind)
}

func keyUserRecipes(userID string) string   { return "user:" + userID + ":recipes" }
func keyUserFollowers(userID string) string { return "user:" + userID + ":followers" }

func keyRecipeInteractions(recipeID string, kind core.InteractionKind) string {
	return "recipe:" + recipeID + ":" + string(kind)
}

func scoreOf(t time.Time) float64 {
	return float64(t.UnixMilli())
}

// KVRepository 基于 core.KeyValueStore 实现 core.Repository。
// 查询在内存中完成过滤、排序与分页，适合开发环境与中小规模数据。
type KVRepository struct {
	kv core.KeyValueStore
}

var _ Store = (*KVRepository)(nil)

// NewKVRepository 创建 KV 仓库。
func NewKVRepository(kv core.KeyValueStore) *KVRepository {
	return &KVRepository{kv: kv}
}

func (r *KVRepository) Name() string { return "kv." + r.kv.Name() }

// ========== 写入 ==========

func (r *KVRepository) hsetJSON(ctx context.Context, key, field string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s/%s: %w", key, field, err)
	}
	return r.kv.HSet(ctx, key, field, data)
}

func (r *KVRepository) PutUser(ctx context.Context, u core.User) error {
	return r.hsetJSON(ctx, keyUsers, u.ID, u)
}

func (r *KVRepository) PutRecipe(ctx context.Context, rec core.Recipe) error {
	rec.LikeCount, rec.SaveCount, rec.ViewCount = 0, 0, 0
	if err := r.hsetJSON(ctx, keyRecipes, rec.ID, rec); err != nil {
		return err
	}
	return r.kv.ZAdd(ctx, keyUserRecipes(rec.OwnerID), 0, rec.ID)
}

func (r *KVRepository) AddInteraction(ctx context.Context, i core.Interaction) error {
	if !i.Kind.Valid() {
		return core.NewDomainError(core.ModuleRepository, core.ErrorCodeInvalidInput, "repository: invalid interaction kind "+string(i.Kind))
	}
	if err := r.hsetJSON(ctx, keyInteractions, i.ID, i); err != nil {
		return err
	}
	if err := r.kv.ZAdd(ctx, keyUserInteractions(i.UserID, i.Kind), scoreOf(i.CreatedAt), i.ID); err != nil {
		return err
	}
	return r.kv.ZAdd(ctx, keyRecipeInteractions(i.RecipeID, i.Kind), scoreOf(i.CreatedAt), i.ID)
}

func (r *KVRepository) AddFollow(ctx context.Context, f core.Follow) error {
	return r.kv.ZAdd(ctx, keyUserFollowers(f.FolloweeID), scoreOf(f.CreatedAt), f.FollowerID)
}

// DeleteRecipe 删除菜谱记录；互动记录保留，读取时按 NotFound 处理。
func (r *KVRepository) DeleteRecipe(ctx context.Context, recipeID string) error {
	rec, err := r.loadRecipe(ctx, recipeID)
	if err != nil {
		return err
	}
	if err := r.kv.ZRem(ctx, keyUserRecipes(rec.OwnerID), recipeID); err != nil {
		return err
	}
	return r.kv.HDel(ctx, keyRecipes, recipeID)
}

// ========== 读取 ==========

func (r *KVRepository) FetchInteractions(ctx context.Context, userID string, kind core.InteractionKind, since time.Time) ([]core.Interaction, error) {
	defer metrics.ObserveQuery(r.Name(), "fetch_interactions", time.Now())

	ids, err := r.kv.ZRangeByScore(ctx, keyUserInteractions(userID, kind), scoreOf(since))
	if err != nil {
		return nil, fmt.Errorf("fetch %s interactions of %s: %w", kind, userID, err)
	}
	records, err := r.kv.HMGet(ctx, keyInteractions, ids...)
	if err != nil {
		return nil, fmt.Errorf("load interactions of %s: %w", userID, err)
	}
	out := make([]core.Interaction, 0, len(ids))
	for _, id := range ids {
		data, ok := records[id]
		if !ok {
			continue
		}
		var it core.Interaction
		if err := json.Unmarshal(data, &it); err != nil {
			return nil, fmt.Errorf("decode interaction %s: %w", id, err)
		}
		if it.CreatedAt.Before(since) {
			continue
		}
		out = append(out, it)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *KVRepository) loadRecipe(ctx context.Context, recipeID string) (*core.Recipe, error) {
	data, err := r.kv.HGet(ctx, keyRecipes, recipeID)
	if err != nil {
		if core.IsStoreNotFound(err) {
			return nil, core.ErrRecipeNotFound
		}
		return nil, fmt.Errorf("load recipe %s: %w", recipeID, err)
	}
	var rec core.Recipe
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode recipe %s: %w", recipeID, err)
	}
	return &rec, nil
}

func (r *KVRepository) zcard(ctx context.Context, key string) (int, error) {
	n, err := r.kv.ZCard(ctx, key)
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

func (r *KVRepository) fillCounts(ctx context.Context, rec *core.Recipe) error {
	counts := make([]int, len(core.InteractionKinds))
	for i, kind := range core.InteractionKinds {
		n, err := r.zcard(ctx, keyRecipeInteractions(rec.ID, kind))
		if err != nil {
			return fmt.Errorf("count %s of recipe %s: %w", kind, rec.ID, err)
		}
		counts[i] = n
	}
	rec.LikeCount, rec.SaveCount, rec.ViewCount = counts[0], counts[1], counts[2]
	return nil
}

func (r *KVRepository) FindRecipe(ctx context.Context, recipeID string) (*core.Recipe, error) {
	defer metrics.ObserveQuery(r.Name(), "find_recipe", time.Now())

	rec, err := r.loadRecipe(ctx, recipeID)
	if err != nil {
		return nil, err
	}
	if err := r.fillCounts(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (r *KVRepository) GetUser(ctx context.Context, userID string) (*core.User, error) {
	data, err := r.kv.HGet(ctx, keyUsers, userID)
	if err != nil {
		if core.IsStoreNotFound(err) {
			return nil, core.ErrUserNotFound
		}
		return nil, fmt.Errorf("load user %s: %w", userID, err)
	}
	var u core.User
	if err := json.Unmarshal(data, &u); err != nil {
		return nil, fmt.Errorf("decode user %s: %w", userID, err)
	}
	return &u, nil
}

// users 返回除 exclude 外、用户名匹配的全部用户，按 ID 升序。
func (r *KVRepository) users(ctx context.Context, exclude, username string) ([]core.User, error) {
	all, err := r.kv.HGetAll(ctx, keyUsers)
	if err != nil {
		return nil, fmt.Errorf("scan users: %w", err)
	}
	out := make([]core.User, 0, len(all))
	for id, data := range all {
		if id == exclude {
			continue
		}
		var u core.User
		if err := json.Unmarshal(data, &u); err != nil {
			return nil, fmt.Errorf("decode user %s: %w", id, err)
		}
		if !usernameMatches(u.Username, username) {
			continue
		}
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *KVRepository) userRecipes(ctx context.Context, userID string) ([]core.Recipe, error) {
	ids, err := r.kv.ZRange(ctx, keyUserRecipes(userID), 0, -1)
	if err != nil {
		return nil, fmt.Errorf("list recipes of %s: %w", userID, err)
	}
	sort.Strings(ids)
	records, err := r.kv.HMGet(ctx, keyRecipes, ids...)
	if err != nil {
		return nil, fmt.Errorf("load recipes of %s: %w", userID, err)
	}
	out := make([]core.Recipe, 0, len(ids))
	for _, id := range ids {
		data, ok := records[id]
		if !ok {
			continue
		}
		var rec core.Recipe
		if err := json.Unmarshal(data, &rec); err != nil {
			return nil, fmt.Errorf("decode recipe %s: %w", id, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

func (r *KVRepository) QueryCandidates(ctx context.Context, q core.CandidateQuery) ([]*core.Candidate, error) {
	defer metrics.ObserveQuery(r.Name(), "query_candidates", time.Now())

	if q.Empty() {
		return []*core.Candidate{}, nil
	}
	users, err := r.users(ctx, q.ExcludeUserID, q.Username)
	if err != nil {
		return nil, err
	}

	matched := make([]*core.Candidate, 0)
	for _, u := range users {
		recipes, err := r.userRecipes(ctx, u.ID)
		if err != nil {
			return nil, err
		}
		hit := false
		for _, rec := range recipes {
			if recipeMatches(rec, q) {
				hit = true
				break
			}
		}
		if !hit {
			continue
		}
		followers, err := r.zcard(ctx, keyUserFollowers(u.ID))
		if err != nil {
			return nil, fmt.Errorf("count followers of %s: %w", u.ID, err)
		}
		matched = append(matched, &core.Candidate{
			User:           u,
			Recipes:        recipes,
			FollowersCount: followers,
			RecipesCount:   len(recipes),
		})
	}

	sortCandidates(matched)
	page := paginate(matched, q.Skip, q.Take)
	for _, c := range page {
		for i := range c.Recipes {
			if err := r.fillCounts(ctx, &c.Recipes[i]); err != nil {
				return nil, err
			}
		}
	}
	return page, nil
}

func (r *KVRepository) ListUsers(ctx context.Context, q core.UserQuery) ([]*core.Candidate, error) {
	defer metrics.ObserveQuery(r.Name(), "list_users", time.Now())

	users, err := r.users(ctx, q.ExcludeUserID, q.Username)
	if err != nil {
		return nil, err
	}
	out := make([]*core.Candidate, 0, len(users))
	for _, u := range users {
		followers, err := r.zcard(ctx, keyUserFollowers(u.ID))
		if err != nil {
			return nil, fmt.Errorf("count followers of %s: %w", u.ID, err)
		}
		recent, err := r.kv.ZRangeByScore(ctx, keyUserFollowers(u.ID), scoreOf(q.RecentSince))
		if err != nil {
			return nil, fmt.Errorf("count recent followers of %s: %w", u.ID, err)
		}
		recipes, err := r.userRecipes(ctx, u.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, &core.Candidate{
			User:            u,
			FollowersCount:  followers,
			RecentFollowers: len(recent),
			RecipesCount:    len(recipes),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].FollowersCount > out[j].FollowersCount
	})
	return out, nil
}

func (r *KVRepository) CountFollowers(ctx context.Context, userID string, since *time.Time) (int, error) {
	min := math.Inf(-1)
	if since != nil {
		min = scoreOf(*since)
	}
	members, err := r.kv.ZRangeByScore(ctx, keyUserFollowers(userID), min)
	if err != nil {
		return 0, fmt.Errorf("count followers of %s: %w", userID, err)
	}
	return len(members), nil
}
