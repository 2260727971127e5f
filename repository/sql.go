package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/duckdb/duckdb-go/v2" // 注册 duckdb driver

	"github.com/rushteam/recipekit/core"
	"github.com/rushteam/recipekit/pkg/metrics"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id               VARCHAR PRIMARY KEY,
	username         VARCHAR NOT NULL,
	name             VARCHAR NOT NULL DEFAULT '',
	image            VARCHAR NOT NULL DEFAULT '',
	background_image VARCHAR NOT NULL DEFAULT '',
	email            VARCHAR NOT NULL DEFAULT '',
	password         VARCHAR NOT NULL DEFAULT '',
	is_private       BOOLEAN NOT NULL DEFAULT false,
	is_verified      BOOLEAN NOT NULL DEFAULT false
);
CREATE TABLE IF NOT EXISTS recipes (
	id          VARCHAR PRIMARY KEY,
	owner_id    VARCHAR NOT NULL,
	title       VARCHAR NOT NULL DEFAULT '',
	ingredients VARCHAR NOT NULL DEFAULT '',
	food_type   VARCHAR NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS interactions (
	id         VARCHAR PRIMARY KEY,
	kind       VARCHAR NOT NULL,
	user_id    VARCHAR NOT NULL,
	recipe_id  VARCHAR NOT NULL,
	created_at TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS follows (
	follower_id VARCHAR NOT NULL,
	followee_id VARCHAR NOT NULL,
	created_at  TIMESTAMP NOT NULL,
	PRIMARY KEY (follower_id, followee_id)
);
`

// SQLRepository 基于 DuckDB 实现 core.Repository。
// 候选查询的精确匹配、排序与 LIMIT/OFFSET 分页全部在 SQL 中完成。
type SQLRepository struct {
	db *sql.DB
}

var _ Store = (*SQLRepository)(nil)

// OpenDuckDB 打开（或创建）DuckDB 数据库并建表；path 为空时使用内存库。
func OpenDuckDB(ctx context.Context, path string) (*SQLRepository, error) {
	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, core.WrapDomainError(core.ModuleRepository, core.ErrorCodeUnavailable, "repository: open duckdb", err)
	}
	// 内存库每个连接是独立的数据库
	if path == "" {
		db.SetMaxOpenConns(1)
	}
	repo := &SQLRepository{db: db}
	if err := repo.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return repo, nil
}

// NewSQLRepository 使用已打开的连接，调用方负责 Migrate。
func NewSQLRepository(db *sql.DB) *SQLRepository {
	return &SQLRepository{db: db}
}

func (r *SQLRepository) Name() string { return "duckdb" }

// Migrate 创建表结构（幂等）。
func (r *SQLRepository) Migrate(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// Close 关闭数据库连接。
func (r *SQLRepository) Close() error {
	return r.db.Close()
}

// ========== 写入 ==========

func (r *SQLRepository) PutUser(ctx context.Context, u core.User) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO users (id, username, name, image, background_image, email, password, is_private, is_verified)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Username, u.Name, u.Image, u.BackgroundImage, u.Email, u.Password, u.IsPrivate, u.IsVerified)
	if err != nil {
		return fmt.Errorf("put user %s: %w", u.ID, err)
	}
	return nil
}

func (r *SQLRepository) PutRecipe(ctx context.Context, rec core.Recipe) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO recipes (id, owner_id, title, ingredients, food_type)
		VALUES (?, ?, ?, ?, ?)`,
		rec.ID, rec.OwnerID, rec.Title, rec.Ingredients, rec.FoodType)
	if err != nil {
		return fmt.Errorf("put recipe %s: %w", rec.ID, err)
	}
	return nil
}

func (r *SQLRepository) AddInteraction(ctx context.Context, i core.Interaction) error {
	if !i.Kind.Valid() {
		return core.NewDomainError(core.ModuleRepository, core.ErrorCodeInvalidInput, "repository: invalid interaction kind "+string(i.Kind))
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO interactions (id, kind, user_id, recipe_id, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		i.ID, string(i.Kind), i.UserID, i.RecipeID, i.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("add interaction %s: %w", i.ID, err)
	}
	return nil
}

func (r *SQLRepository) AddFollow(ctx context.Context, f core.Follow) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO follows (follower_id, followee_id, created_at)
		VALUES (?, ?, ?)`,
		f.FollowerID, f.FolloweeID, f.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("add follow %s->%s: %w", f.FollowerID, f.FolloweeID, err)
	}
	return nil
}

func (r *SQLRepository) DeleteRecipe(ctx context.Context, recipeID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM recipes WHERE id = ?`, recipeID)
	if err != nil {
		return fmt.Errorf("delete recipe %s: %w", recipeID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return core.ErrRecipeNotFound
	}
	return nil
}

// ========== 读取 ==========

const recipeColumns = `
	r.id, r.owner_id, r.title, r.ingredients, r.food_type,
	count(i.id) FILTER (WHERE i.kind = 'like') AS like_count,
	count(i.id) FILTER (WHERE i.kind = 'save') AS save_count,
	count(i.id) FILTER (WHERE i.kind = 'view') AS view_count`

func scanRecipe(row interface{ Scan(...any) error }) (core.Recipe, error) {
	var rec core.Recipe
	err := row.Scan(&rec.ID, &rec.OwnerID, &rec.Title, &rec.Ingredients, &rec.FoodType,
		&rec.LikeCount, &rec.SaveCount, &rec.ViewCount)
	return rec, err
}

func (r *SQLRepository) FetchInteractions(ctx context.Context, userID string, kind core.InteractionKind, since time.Time) ([]core.Interaction, error) {
	defer metrics.ObserveQuery(r.Name(), "fetch_interactions", time.Now())

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, kind, user_id, recipe_id, created_at
		FROM interactions
		WHERE user_id = ? AND kind = ? AND created_at >= ?
		ORDER BY created_at ASC, id ASC`,
		userID, string(kind), since.UTC())
	if err != nil {
		return nil, fmt.Errorf("fetch %s interactions of %s: %w", kind, userID, err)
	}
	defer rows.Close()

	out := make([]core.Interaction, 0)
	for rows.Next() {
		var (
			it   core.Interaction
			kind string
		)
		if err := rows.Scan(&it.ID, &kind, &it.UserID, &it.RecipeID, &it.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan interaction: %w", err)
		}
		it.Kind = core.InteractionKind(kind)
		out = append(out, it)
	}
	return out, rows.Err()
}

func (r *SQLRepository) FindRecipe(ctx context.Context, recipeID string) (*core.Recipe, error) {
	defer metrics.ObserveQuery(r.Name(), "find_recipe", time.Now())

	row := r.db.QueryRowContext(ctx, `
		SELECT `+recipeColumns+`
		FROM recipes r
		LEFT JOIN interactions i ON i.recipe_id = r.id
		WHERE r.id = ?
		GROUP BY r.id, r.owner_id, r.title, r.ingredients, r.food_type`, recipeID)
	rec, err := scanRecipe(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, core.ErrRecipeNotFound
		}
		return nil, fmt.Errorf("find recipe %s: %w", recipeID, err)
	}
	return &rec, nil
}

func (r *SQLRepository) GetUser(ctx context.Context, userID string) (*core.User, error) {
	var u core.User
	err := r.db.QueryRowContext(ctx, `
		SELECT id, username, name, image, background_image, email, password, is_private, is_verified
		FROM users WHERE id = ?`, userID).
		Scan(&u.ID, &u.Username, &u.Name, &u.Image, &u.BackgroundImage, &u.Email, &u.Password, &u.IsPrivate, &u.IsVerified)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, core.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user %s: %w", userID, err)
	}
	return &u, nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func appendStrings(args []any, list []string) []any {
	for _, s := range list {
		args = append(args, s)
	}
	return args
}

// userStatsCTE 计算用户的关注数与菜谱数，并按排除 ID 与用户名过滤。
// maxOffset 是 DuckDB 接受的 OFFSET 上限，更大的偏移量必然越过结果末尾。
const maxOffset = 1 << 62

const userStatsCTE = `
	WITH stats AS (
		SELECT u.id, u.username, u.name, u.image, u.background_image,
			(SELECT count(*) FROM follows f WHERE f.followee_id = u.id) AS followers_count,
			(SELECT count(*) FROM follows f WHERE f.followee_id = u.id AND f.created_at >= ?) AS recent_followers,
			(SELECT count(*) FROM recipes r WHERE r.owner_id = u.id) AS recipes_count
		FROM users u
		WHERE u.id <> ? AND (? = '' OR contains(lower(u.username), lower(?)))
	)`

func scanCandidate(rows *sql.Rows) (*core.Candidate, error) {
	c := &core.Candidate{}
	err := rows.Scan(&c.User.ID, &c.User.Username, &c.User.Name, &c.User.Image, &c.User.BackgroundImage,
		&c.FollowersCount, &c.RecentFollowers, &c.RecipesCount)
	return c, err
}

func (r *SQLRepository) QueryCandidates(ctx context.Context, q core.CandidateQuery) ([]*core.Candidate, error) {
	defer metrics.ObserveQuery(r.Name(), "query_candidates", time.Now())

	if q.Empty() || q.Skip >= maxOffset {
		return []*core.Candidate{}, nil
	}

	var conds []string
	args := []any{time.Time{}, q.ExcludeUserID, q.Username, q.Username}
	if len(q.TitleKeywords) > 0 {
		conds = append(conds, "r.title IN ("+placeholders(len(q.TitleKeywords))+")")
		args = appendStrings(args, q.TitleKeywords)
	}
	if len(q.IngredientKeywords) > 0 {
		conds = append(conds, "r.ingredients IN ("+placeholders(len(q.IngredientKeywords))+")")
		args = appendStrings(args, q.IngredientKeywords)
	}
	if len(q.FoodTypes) > 0 {
		conds = append(conds, "r.food_type IN ("+placeholders(len(q.FoodTypes))+")")
		args = appendStrings(args, q.FoodTypes)
	}

	query := userStatsCTE + `
		SELECT s.id, s.username, s.name, s.image, s.background_image,
			s.followers_count, s.recent_followers, s.recipes_count
		FROM stats s
		WHERE EXISTS (
			SELECT 1 FROM recipes r WHERE r.owner_id = s.id AND (` + strings.Join(conds, " OR ") + `)
		)
		ORDER BY s.followers_count DESC, s.recipes_count DESC, s.id ASC`
	if q.Take > 0 {
		query += ` LIMIT ? OFFSET ?`
		args = append(args, q.Take, max(q.Skip, 0))
	} else if q.Skip > 0 {
		query += ` OFFSET ?`
		args = append(args, q.Skip)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query candidates: %w", err)
	}
	defer rows.Close()

	out := make([]*core.Candidate, 0)
	byID := make(map[string]*core.Candidate)
	for rows.Next() {
		c, err := scanCandidate(rows)
		if err != nil {
			return nil, fmt.Errorf("scan candidate: %w", err)
		}
		c.RecentFollowers = 0
		out = append(out, c)
		byID[c.User.ID] = c
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return out, nil
	}

	if err := r.loadCandidateRecipes(ctx, byID); err != nil {
		return nil, err
	}
	return out, nil
}

// loadCandidateRecipes 一次性读取当前页候选用户的全部菜谱及互动计数。
func (r *SQLRepository) loadCandidateRecipes(ctx context.Context, byID map[string]*core.Candidate) error {
	ids := make([]any, 0, len(byID))
	for id := range byID {
		ids = append(ids, id)
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+recipeColumns+`
		FROM recipes r
		LEFT JOIN interactions i ON i.recipe_id = r.id
		WHERE r.owner_id IN (`+placeholders(len(ids))+`)
		GROUP BY r.id, r.owner_id, r.title, r.ingredients, r.food_type
		ORDER BY r.owner_id, r.id`, ids...)
	if err != nil {
		return fmt.Errorf("load candidate recipes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		rec, err := scanRecipe(rows)
		if err != nil {
			return fmt.Errorf("scan recipe: %w", err)
		}
		if c, ok := byID[rec.OwnerID]; ok {
			c.Recipes = append(c.Recipes, rec)
		}
	}
	return rows.Err()
}

func (r *SQLRepository) ListUsers(ctx context.Context, q core.UserQuery) ([]*core.Candidate, error) {
	defer metrics.ObserveQuery(r.Name(), "list_users", time.Now())

	rows, err := r.db.QueryContext(ctx, userStatsCTE+`
		SELECT s.id, s.username, s.name, s.image, s.background_image,
			s.followers_count, s.recent_followers, s.recipes_count
		FROM stats s
		ORDER BY s.followers_count DESC, s.id ASC`,
		q.RecentSince.UTC(), q.ExcludeUserID, q.Username, q.Username)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	out := make([]*core.Candidate, 0)
	for rows.Next() {
		c, err := scanCandidate(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *SQLRepository) CountFollowers(ctx context.Context, userID string, since *time.Time) (int, error) {
	query := `SELECT count(*) FROM follows WHERE followee_id = ?`
	args := []any{userID}
	if since != nil {
		query += ` AND created_at >= ?`
		args = append(args, since.UTC())
	}
	var n int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count followers of %s: %w", userID, err)
	}
	return n, nil
}
