package repository

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/rushteam/recipekit/core"
)

// Fixture 是种子数据文件的结构。
//
// 示例：
//
//	users:
//	  - id: u1
//	    username: alice
//	recipes:
//	  - id: r1
//	    owner_id: u1
//	    title: pasta
//	    ingredients: tomato basil
//	    food_type: italian
//	interactions:
//	  - id: i1
//	    kind: like
//	    user_id: u2
//	    recipe_id: r1
//	    created_at: 2024-01-01T00:00:00Z
//	follows:
//	  - follower_id: u2
//	    followee_id: u1
//	    created_at: 2024-01-01T00:00:00Z
type Fixture struct {
	Users        []core.User        `yaml:"users"`
	Recipes      []core.Recipe      `yaml:"recipes"`
	Interactions []core.Interaction `yaml:"interactions"`
	Follows      []core.Follow      `yaml:"follows"`
}

// LoadFixtureFile 从 YAML 文件读取种子数据并写入 w。
func LoadFixtureFile(ctx context.Context, w Writer, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read fixture: %w", err)
	}
	var fx Fixture
	if err := yaml.Unmarshal(data, &fx); err != nil {
		return fmt.Errorf("parse fixture %s: %w", path, err)
	}
	return fx.Apply(ctx, w)
}

// Apply 按用户、菜谱、互动、关注的顺序写入。
func (fx *Fixture) Apply(ctx context.Context, w Writer) error {
	for _, u := range fx.Users {
		if err := w.PutUser(ctx, u); err != nil {
			return err
		}
	}
	for _, r := range fx.Recipes {
		if err := w.PutRecipe(ctx, r); err != nil {
			return err
		}
	}
	for _, i := range fx.Interactions {
		if err := w.AddInteraction(ctx, i); err != nil {
			return err
		}
	}
	for _, f := range fx.Follows {
		if err := w.AddFollow(ctx, f); err != nil {
			return err
		}
	}
	return nil
}
