// Package repository 实现 core.Repository：推荐链路读取的用户、菜谱、互动与关注数据。
//
// 两种后端：
//   - KVRepository：基于 core.KeyValueStore（store.MemoryStore / store.RedisStore）
//   - SQLRepository：基于 DuckDB（database/sql）
//
// 两者语义一致，由同一组测试覆盖。写入方法（Writer）只用于数据导入与测试，
// 推荐链路本身只读。
package repository

import (
	"context"
	"sort"
	"strings"

	"github.com/rushteam/recipekit/core"
)

// Writer 是数据导入接口，fixture 加载与测试使用。
type Writer interface {
	PutUser(ctx context.Context, u core.User) error
	PutRecipe(ctx context.Context, r core.Recipe) error
	AddInteraction(ctx context.Context, i core.Interaction) error
	AddFollow(ctx context.Context, f core.Follow) error
	DeleteRecipe(ctx context.Context, recipeID string) error
}

// Store 同时具备读写能力。
type Store interface {
	core.Repository
	Writer
}

// usernameMatches 大小写不敏感的子串匹配，空过滤条件匹配所有用户。
func usernameMatches(username, filter string) bool {
	if filter == "" {
		return true
	}
	return strings.Contains(strings.ToLower(username), strings.ToLower(filter))
}

// recipeMatches 是候选查询的精确匹配规则：标题或食材文本与关键词完全相等，或类别命中。
func recipeMatches(r core.Recipe, q core.CandidateQuery) bool {
	return containsString(q.TitleKeywords, r.Title) ||
		containsString(q.IngredientKeywords, r.Ingredients) ||
		containsString(q.FoodTypes, r.FoodType)
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// sortCandidates 按关注数降序、菜谱数降序、用户 ID 升序排序。
func sortCandidates(cs []*core.Candidate) {
	sort.SliceStable(cs, func(i, j int) bool {
		a, b := cs[i], cs[j]
		if a.FollowersCount != b.FollowersCount {
			return a.FollowersCount > b.FollowersCount
		}
		if a.RecipesCount != b.RecipesCount {
			return a.RecipesCount > b.RecipesCount
		}
		return a.User.ID < b.User.ID
	})
}

// paginate 在存储层执行 skip/take。
func paginate[T any](list []T, skip, take int) []T {
	if skip < 0 {
		skip = 0
	}
	if skip >= len(list) {
		return []T{}
	}
	end := len(list)
	if take > 0 && take < end-skip {
		end = skip + take
	}
	return list[skip:end]
}
