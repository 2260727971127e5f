package core

import "time"

// Recipe 是菜谱的只读快照。
// LikeCount / SaveCount / ViewCount 为关联互动记录的聚合数量。
type Recipe struct {
	ID          string `json:"id" yaml:"id"`
	OwnerID     string `json:"owner_id" yaml:"owner_id"`
	Title       string `json:"title" yaml:"title"`
	Ingredients string `json:"ingredients" yaml:"ingredients"`
	FoodType    string `json:"food_type" yaml:"food_type"`

	LikeCount int `json:"like_count" yaml:"-"`
	SaveCount int `json:"save_count" yaml:"-"`
	ViewCount int `json:"view_count" yaml:"-"`
}

// Popularity 返回菜谱的热度：点赞 + 收藏 + 浏览。
func (r Recipe) Popularity() int {
	return r.LikeCount + r.SaveCount + r.ViewCount
}

// InteractionKind 是互动类型。
type InteractionKind string

const (
	InteractionLike InteractionKind = "like"
	InteractionSave InteractionKind = "save"
	InteractionView InteractionKind = "view"
)

// InteractionKinds 是历史窗口读取互动的固定顺序：点赞、收藏、浏览。
var InteractionKinds = []InteractionKind{InteractionLike, InteractionSave, InteractionView}

// Valid 检查互动类型是否合法。
func (k InteractionKind) Valid() bool {
	switch k {
	case InteractionLike, InteractionSave, InteractionView:
		return true
	}
	return false
}

// Interaction 是一条用户对菜谱的互动记录（点赞/收藏/浏览）。
type Interaction struct {
	ID        string          `json:"id" yaml:"id"`
	Kind      InteractionKind `json:"kind" yaml:"kind"`
	UserID    string          `json:"user_id" yaml:"user_id"`
	RecipeID  string          `json:"recipe_id" yaml:"recipe_id"`
	CreatedAt time.Time       `json:"created_at" yaml:"created_at"`
}

// User 是存储层的完整用户记录，包含不可对外暴露的字段。
type User struct {
	ID              string `json:"id" yaml:"id"`
	Username        string `json:"username" yaml:"username"`
	Name            string `json:"name" yaml:"name"`
	Image           string `json:"image" yaml:"image"`
	BackgroundImage string `json:"background_image" yaml:"background_image"`

	Email      string `json:"email" yaml:"email"`
	Password   string `json:"password" yaml:"password"`
	IsPrivate  bool   `json:"is_private" yaml:"is_private"`
	IsVerified bool   `json:"is_verified" yaml:"is_verified"`
}

// Follow 是一条关注关系：FollowerID 关注了 FolloweeID。
type Follow struct {
	FollowerID string    `json:"follower_id" yaml:"follower_id"`
	FolloweeID string    `json:"followee_id" yaml:"followee_id"`
	CreatedAt  time.Time `json:"created_at" yaml:"created_at"`
}

// Candidate 是候选用户及其推荐所需的嵌套数据。
type Candidate struct {
	User User

	// Recipes 是用户拥有的全部菜谱（带互动计数），仅个性化链路填充
	Recipes []Recipe

	FollowersCount  int
	RecentFollowers int // 最近窗口（默认 24h）内新增的关注数，仅热门链路填充
	RecipesCount    int
}

// Preview 转换为对外的用户摘要。
func (c *Candidate) Preview() UserPreview {
	return UserPreview{
		ID:              c.User.ID,
		Username:        c.User.Username,
		Name:            c.User.Name,
		Image:           c.User.Image,
		BackgroundImage: c.User.BackgroundImage,
		FollowersCount:  c.FollowersCount,
		RecipesCount:    c.RecipesCount,
	}
}

// UserPreview 是推荐结果中的用户摘要，不包含密码、邮箱、隐私标记等字段。
type UserPreview struct {
	ID              string `json:"id"`
	Username        string `json:"username"`
	Name            string `json:"name"`
	Image           string `json:"image"`
	BackgroundImage string `json:"backgroundImage"`
	FollowersCount  int    `json:"followersCount"`
	RecipesCount    int    `json:"recipesCount"`
}
