package recall

import (
	"context"
	"sort"
	"time"

	"github.com/rushteam/recipekit/core"
	"github.com/rushteam/recipekit/pipeline"
	"github.com/rushteam/recipekit/pkg/utils"
)

// DefaultRecentFollowWindow 是统计近期新增关注的窗口。
const DefaultRecentFollowWindow = 24 * time.Hour

// Popular 是热门用户召回源：读取全部匹配用户，
// 按 近期新增关注数 降序、总关注数 降序 排序（稳定排序）。
// 不分页，分页交给后续的 rerank.PageNode 在内存中切片。
type Popular struct {
	Repo core.Repository

	// Window 是近期新增关注的统计窗口，0 表示 DefaultRecentFollowWindow
	Window time.Duration

	Now func() time.Time
}

var (
	_ Source        = (*Popular)(nil)
	_ pipeline.Node = (*Popular)(nil)
)

func (r *Popular) Name() string        { return "recall.popular" }
func (r *Popular) Kind() pipeline.Kind { return pipeline.KindRecall }

func (r *Popular) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	return r.Recall(ctx, rctx)
}

func (r *Popular) since() time.Time {
	now := time.Now()
	if r.Now != nil {
		now = r.Now()
	}
	w := r.Window
	if w <= 0 {
		w = DefaultRecentFollowWindow
	}
	return now.Add(-w)
}

func (r *Popular) Recall(
	ctx context.Context,
	rctx *core.RecommendContext,
) ([]*core.Item, error) {
	if r.Repo == nil {
		return nil, nil
	}
	q := core.UserQuery{RecentSince: r.since()}
	if rctx != nil {
		q.ExcludeUserID = rctx.ViewerID
		q.Username = rctx.Username
	}

	users, err := r.Repo.ListUsers(ctx, q)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(users, func(i, j int) bool {
		if users[i].RecentFollowers != users[j].RecentFollowers {
			return users[i].RecentFollowers > users[j].RecentFollowers
		}
		return users[i].FollowersCount > users[j].FollowersCount
	})

	out := make([]*core.Item, 0, len(users))
	for _, c := range users {
		it := core.NewItem(c)
		it.Score = float64(c.RecentFollowers)
		it.PutLabel("recall_source", utils.Label{Value: "popular", Source: "recall"})
		out = append(out, it)
	}
	return out, nil
}
