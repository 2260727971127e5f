// Package service 对外提供用户推荐：个性化推荐与热门用户。
package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/rushteam/recipekit/core"
	"github.com/rushteam/recipekit/feature"
	"github.com/rushteam/recipekit/pipeline"
	"github.com/rushteam/recipekit/pkg/logging"
	"github.com/rushteam/recipekit/pkg/metrics"
	"github.com/rushteam/recipekit/pkg/utils"
	"github.com/rushteam/recipekit/recall"
)

// ErrInternal 是返回给调用方的唯一错误，具体原因只写日志。
var ErrInternal = core.NewDomainError(core.ModuleRecommend, core.ErrorCodeInternalError, "internal server error")

// UserRecommendService 编排推荐流程：
//
//	UserHistory -> 有历史：personalized（关键词召回 -> 过滤 -> 打分排序）
//	            -> 无历史：popular（热门召回 -> 过滤 -> 内存分页）
//
// 每次请求重新计算，不做缓存；任何一步失败都返回 ErrInternal，不返回部分结果。
type UserRecommendService struct {
	history      *recall.UserHistory
	personalized *pipeline.Pipeline
	popular      *pipeline.Pipeline
	cfg          core.RecommendConfig
	logger       zerolog.Logger
}

// Option 是 UserRecommendService 的可选配置。
type Option func(*UserRecommendService)

// WithClock 替换历史窗口与热门召回使用的时钟，用于测试。
func WithClock(now func() time.Time) Option {
	return func(s *UserRecommendService) {
		s.history.Now = now
		for _, p := range []*pipeline.Pipeline{s.personalized, s.popular} {
			if p == nil {
				continue
			}
			for _, n := range p.Nodes {
				if pop, ok := n.(*recall.Popular); ok {
					pop.Now = now
				}
			}
		}
	}
}

// WithHistoryConcurrency 设置读取历史菜谱的并发上限。
func WithHistoryConcurrency(n int) Option {
	return func(s *UserRecommendService) { s.history.MaxConcurrent = n }
}

// WithLogger 替换服务 logger。
//
//nolint:gocritic // zerolog.Logger 按值传递
func WithLogger(l zerolog.Logger) Option {
	return func(s *UserRecommendService) { s.logger = l }
}

// NewUserRecommendService 创建推荐服务。cfg 为空时使用 core.DefaultRecommendConfig。
func NewUserRecommendService(
	repo core.Repository,
	cfg core.RecommendConfig,
	personalized, popular *pipeline.Pipeline,
	opts ...Option,
) *UserRecommendService {
	if cfg == nil {
		cfg = &core.DefaultRecommendConfig{}
	}
	s := &UserRecommendService{
		history: &recall.UserHistory{
			Repo:      repo,
			Window:    cfg.HistoryWindow(),
			Extractor: feature.NewKeywordExtractor(cfg.KeywordLimit()),
		},
		personalized: personalized,
		popular:      popular,
		cfg:          cfg,
		logger:       logging.WithComponent("recommend"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *UserRecommendService) newContext(viewerID string, page, limit int, username string) *core.RecommendContext {
	if page < 1 {
		page = s.cfg.DefaultPage()
	}
	if limit < 1 {
		limit = s.cfg.DefaultLimit()
	}
	return &core.RecommendContext{
		ViewerID: viewerID,
		Page:     page,
		Limit:    limit,
		Username: username,
		Params:   make(map[string]any),
	}
}

// GetRecommendedUsers 返回观看者的个性化推荐用户；
// 观看者在历史窗口内没有可用互动时，结果与 GetPopularUsers(viewerID, ...) 完全一致。
func (s *UserRecommendService) GetRecommendedUsers(
	ctx context.Context,
	viewerID string,
	page, limit int,
	username string,
) (out []core.UserPreview, err error) {
	rctx := s.newContext(viewerID, page, limit, username)
	path := metrics.PathPersonalized
	start := time.Now()
	defer func() { metrics.ObserveRequest(path, start, err) }()

	profile, err := s.history.Fetch(ctx, viewerID)
	if err != nil {
		return nil, s.fail(ctx, rctx, "fetch history", err)
	}

	p := s.personalized
	if profile.HasHistory() {
		rctx.Profile = profile
	} else {
		path = metrics.PathPopular
		p = s.popular
	}
	rctx.PutLabel("recommend_path", utils.Label{Value: path, Source: "service"})

	return s.run(ctx, p, rctx, path)
}

// GetPopularUsers 返回热门用户，excludeID 不为空时排除该用户。
func (s *UserRecommendService) GetPopularUsers(
	ctx context.Context,
	excludeID string,
	page, limit int,
	username string,
) (out []core.UserPreview, err error) {
	rctx := s.newContext(excludeID, page, limit, username)
	start := time.Now()
	defer func() { metrics.ObserveRequest(metrics.PathPopular, start, err) }()

	rctx.PutLabel("recommend_path", utils.Label{Value: metrics.PathPopular, Source: "service"})
	return s.run(ctx, s.popular, rctx, metrics.PathPopular)
}

func (s *UserRecommendService) run(
	ctx context.Context,
	p *pipeline.Pipeline,
	rctx *core.RecommendContext,
	path string,
) ([]core.UserPreview, error) {
	if p == nil {
		return nil, s.fail(ctx, rctx, "run "+path, errors.New("pipeline not configured"))
	}
	items, err := p.Run(ctx, rctx, nil)
	if err != nil {
		return nil, s.fail(ctx, rctx, "run "+path, err)
	}
	metrics.RecommendCandidates.WithLabelValues(path).Observe(float64(len(items)))

	s.logFor(ctx).Debug().
		Str("viewer_id", rctx.ViewerID).
		Str("path", path).
		Int("page", rctx.Page).
		Int("limit", rctx.Limit).
		Int("results", len(items)).
		Msg("recommendation served")
	return core.Previews(items), nil
}

// fail 记录带请求上下文的错误日志，并返回不透明的 ErrInternal。
func (s *UserRecommendService) fail(ctx context.Context, rctx *core.RecommendContext, op string, err error) error {
	s.logFor(ctx).Error().
		Err(err).
		Str("op", op).
		Str("viewer_id", rctx.ViewerID).
		Int("page", rctx.Page).
		Int("limit", rctx.Limit).
		Str("username", rctx.Username).
		Msg("user recommendation failed")
	return ErrInternal
}

func (s *UserRecommendService) logFor(ctx context.Context) *zerolog.Logger {
	l := s.logger
	if id := logging.RequestIDFromContext(ctx); id != "" {
		l = l.With().Str("request_id", id).Logger()
	}
	return &l
}
