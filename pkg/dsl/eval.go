package dsl

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/rushteam/recipekit/core"
)

var (
	// celEnv 是全局的 CEL 环境，线程安全，可复用
	celEnv     *cel.Env
	celEnvErr  error
	celEnvOnce sync.Once
)

// initCELEnv 初始化 CEL 环境，定义变量和函数
func initCELEnv() (*cel.Env, error) {
	return cel.NewEnv(
		cel.Variable("item", cel.DynType),
		cel.Variable("label", cel.DynType),
		cel.Variable("rctx", cel.DynType),
	)
}

// getCELEnv 获取或创建 CEL 环境
func getCELEnv() (*cel.Env, error) {
	celEnvOnce.Do(func() {
		celEnv, celEnvErr = initCELEnv()
	})
	return celEnv, celEnvErr
}

// Program 是编译后的表达式，可在多个请求间并发复用。
//
// 表达式语法（CEL 标准语法）：
//   - 数值：item.followers_count >= 1 / item.recipes_count > 0 / item.score > 10.0
//   - 字符串：item.username.startsWith("test_") / !item.username.contains("bot")
//   - 标签：label.recall_source == "keyword"
//   - 上下文：rctx.viewer_id != item.id
type Program struct {
	expr string
	prg  cel.Program
}

// Compile 编译表达式；空表达式恒为 true。
func Compile(expr string) (*Program, error) {
	if expr == "" {
		return &Program{}, nil
	}
	env, err := getCELEnv()
	if err != nil {
		return nil, fmt.Errorf("cel env: %w", err)
	}
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile error: %w", issues.Err())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program error: %w", err)
	}
	return &Program{expr: expr, prg: prg}, nil
}

// String 返回原始表达式。
func (p *Program) String() string { return p.expr }

// Eval 对一个候选用户求值，表达式必须返回布尔值。
func (p *Program) Eval(item *core.Item, rctx *core.RecommendContext) (bool, error) {
	if p == nil || p.prg == nil {
		return true, nil
	}
	out, _, err := p.prg.Eval(buildInput(item, rctx))
	if err != nil {
		return false, fmt.Errorf("eval error: %w", err)
	}
	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("expression must return boolean, got %T", out.Value())
	}
	return result, nil
}

// Eval 是一次性的表达式求值器，适合只执行一次的场景。
type Eval struct {
	item *core.Item
	rctx *core.RecommendContext
}

// NewEval 创建一个新的 DSL 解释器。
func NewEval(item *core.Item, rctx *core.RecommendContext) *Eval {
	return &Eval{item: item, rctx: rctx}
}

// Evaluate 编译并执行表达式，返回布尔结果。
func (e *Eval) Evaluate(expr string) (bool, error) {
	p, err := Compile(expr)
	if err != nil {
		return false, err
	}
	return p.Eval(e.item, e.rctx)
}

// buildInput 构建 CEL 表达式的输入数据
func buildInput(it *core.Item, rctx *core.RecommendContext) map[string]interface{} {
	labels := make(map[string]interface{})
	item := map[string]interface{}{
		"id":               "",
		"score":            0.0,
		"username":         "",
		"name":             "",
		"followers_count":  int64(0),
		"recent_followers": int64(0),
		"recipes_count":    int64(0),
		"features":         map[string]float64{},
	}
	if it != nil {
		for k, v := range it.Labels {
			labels[k] = v.Value
		}
		item["id"] = it.ID
		item["score"] = it.Score
		if it.Features != nil {
			item["features"] = it.Features
		}
		if c := it.Candidate; c != nil {
			item["username"] = c.User.Username
			item["name"] = c.User.Name
			item["followers_count"] = int64(c.FollowersCount)
			item["recent_followers"] = int64(c.RecentFollowers)
			item["recipes_count"] = int64(c.RecipesCount)
		}
	}

	ctxMap := map[string]interface{}{
		"viewer_id": "",
		"page":      int64(0),
		"limit":     int64(0),
		"username":  "",
		"params":    map[string]any{},
	}
	if rctx != nil {
		ctxMap["viewer_id"] = rctx.ViewerID
		ctxMap["page"] = int64(rctx.Page)
		ctxMap["limit"] = int64(rctx.Limit)
		ctxMap["username"] = rctx.Username
		if rctx.Params != nil {
			ctxMap["params"] = rctx.Params
		}
	}

	return map[string]interface{}{
		"item":  item,
		"label": labels,
		"rctx":  ctxMap,
	}
}
