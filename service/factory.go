package service

import (
	"fmt"

	"github.com/rushteam/recipekit/config"
	_ "github.com/rushteam/recipekit/config/builders" // 注册内置 Node
	"github.com/rushteam/recipekit/core"
	"github.com/rushteam/recipekit/pipeline"
)

// NewFromSettings 按配置构建两条推荐链路并创建服务。
// kv 为空时黑名单与拉黑过滤器不可用。
func NewFromSettings(s *config.Settings, repo core.Repository, kv core.Store, opts ...Option) (*UserRecommendService, error) {
	if s == nil {
		return nil, fmt.Errorf("settings is required")
	}
	if repo == nil {
		return nil, fmt.Errorf("repository is required")
	}
	personalized, popular, err := s.BuildPipelines(pipeline.Deps{Repo: repo, Store: kv})
	if err != nil {
		return nil, fmt.Errorf("build pipelines: %w", err)
	}
	opts = append([]Option{WithHistoryConcurrency(s.Recommend.MaxConcurrent)}, opts...)
	return NewUserRecommendService(repo, s, personalized, popular, opts...), nil
}
