package recall

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rushteam/recipekit/core"
	"github.com/rushteam/recipekit/feature"
)

// DefaultHistoryWindow 是观看者历史互动的回溯窗口。
const DefaultHistoryWindow = 30 * 24 * time.Hour

// UserHistory 读取观看者最近窗口内的点赞、收藏、浏览，构建画像并抽取关键词。
//
// 文档集按 点赞 -> 收藏 -> 浏览 的顺序拼接，同一菜谱被多次互动会重复出现；
// 读取期间被删除的菜谱直接跳过，不影响整个请求。
type UserHistory struct {
	Repo core.Repository

	// Window 是回溯窗口，0 表示 DefaultHistoryWindow
	Window time.Duration

	// Extractor 为空时使用默认的 Top-30 抽取器
	Extractor *feature.KeywordExtractor

	// MaxConcurrent 是读取菜谱的最大并发数（0 表示无限制）
	MaxConcurrent int

	// Now 用于测试注入时钟
	Now func() time.Time
}

func (h *UserHistory) Name() string { return "recall.user_history" }

func (h *UserHistory) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

func (h *UserHistory) window() time.Duration {
	if h.Window <= 0 {
		return DefaultHistoryWindow
	}
	return h.Window
}

// Fetch 构建观看者画像。观看者没有任何可用互动时，返回的画像 HasHistory() 为 false。
func (h *UserHistory) Fetch(ctx context.Context, viewerID string) (*core.UserProfile, error) {
	since := h.now().Add(-h.window())
	profile := core.NewUserProfile(viewerID, since)
	if h.Repo == nil || viewerID == "" {
		return profile, nil
	}

	var refs []core.Interaction
	for _, kind := range core.InteractionKinds {
		list, err := h.Repo.FetchInteractions(ctx, viewerID, kind, since)
		if err != nil {
			return nil, fmt.Errorf("fetch %s history: %w", kind, err)
		}
		refs = append(refs, list...)
	}
	if len(refs) == 0 {
		return profile, nil
	}

	recipes := make([]*core.Recipe, len(refs))
	eg, egCtx := errgroup.WithContext(ctx)
	if h.MaxConcurrent > 0 {
		eg.SetLimit(h.MaxConcurrent)
	}
	for i, ref := range refs {
		eg.Go(func() error {
			rec, err := h.Repo.FindRecipe(egCtx, ref.RecipeID)
			if err != nil {
				if core.IsNotFound(err) {
					return nil
				}
				return fmt.Errorf("load recipe %s: %w", ref.RecipeID, err)
			}
			recipes[i] = rec
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	for _, rec := range recipes {
		if rec != nil {
			profile.AddDocument(*rec)
		}
	}
	if !profile.HasHistory() {
		return profile, nil
	}

	extractor := h.Extractor
	if extractor == nil {
		extractor = feature.NewKeywordExtractor(feature.DefaultKeywordLimit)
	}
	extractor.Extract(profile)
	return profile, nil
}
