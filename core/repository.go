package core

import (
	"context"
	"time"
)

// Repository 是推荐链路读取用户、菜谱、互动与关注数据的领域接口。
//
// 设计原则：
//   - 定义在领域层（core），由基础设施层（repository）实现
//   - 只读：推荐链路从不修改任何数据
//   - 每次请求直接查询，不做缓存
//
// 实现：
//   - repository.KVRepository 基于 core.KeyValueStore（Memory / Redis）
//   - repository.SQLRepository 基于 DuckDB
type Repository interface {
	// Name 返回存储后端名称（用于日志/监控）
	Name() string

	// FetchInteractions 返回用户在 since 之后创建的某一类互动，按创建时间升序
	FetchInteractions(ctx context.Context, userID string, kind InteractionKind, since time.Time) ([]Interaction, error)

	// FindRecipe 按 ID 读取菜谱（带互动计数），不存在时返回 ErrRecipeNotFound
	FindRecipe(ctx context.Context, recipeID string) (*Recipe, error)

	// GetUser 按 ID 读取用户，不存在时返回 ErrUserNotFound
	GetUser(ctx context.Context, userID string) (*User, error)

	// QueryCandidates 查询个性化候选用户，分页在存储层完成
	QueryCandidates(ctx context.Context, q CandidateQuery) ([]*Candidate, error)

	// ListUsers 返回所有匹配的用户（不分页），附带关注数、近期关注数与菜谱数
	ListUsers(ctx context.Context, q UserQuery) ([]*Candidate, error)

	// CountFollowers 统计用户的关注者数量；since 不为空时只统计 since 之后的关注
	CountFollowers(ctx context.Context, userID string, since *time.Time) (int, error)
}

// CandidateQuery 描述个性化候选用户查询。
//
// 匹配规则：用户至少拥有一个菜谱满足以下任一条件
//   - Title 与 TitleKeywords 中某个关键词完全相等
//   - Ingredients 与 IngredientKeywords 中某个关键词完全相等
//   - FoodType 属于 FoodTypes
//
// 空列表不参与匹配。结果按关注数降序、菜谱数降序、用户 ID 升序排列后再 Skip/Take。
type CandidateQuery struct {
	ExcludeUserID      string
	Username           string // 大小写不敏感的子串匹配，空表示不过滤
	TitleKeywords      []string
	IngredientKeywords []string
	FoodTypes          []string
	Skip               int
	Take               int
}

// UserQuery 描述热门用户查询。
type UserQuery struct {
	ExcludeUserID string
	Username      string
	RecentSince   time.Time // 统计 RecentFollowers 的起始时间
}

// Empty 表示查询没有任何匹配条件，此时不可能命中任何用户。
func (q CandidateQuery) Empty() bool {
	return len(q.TitleKeywords) == 0 && len(q.IngredientKeywords) == 0 && len(q.FoodTypes) == 0
}
