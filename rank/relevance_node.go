package rank

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"golang.org/x/sync/errgroup"

	"github.com/rushteam/recipekit/core"
	"github.com/rushteam/recipekit/pipeline"
	"github.com/rushteam/recipekit/pkg/utils"
)

// RelevanceNode 按 Scorer 为每个候选用户并发打分，然后稳定降序排序。
// 分数相同的候选保持召回阶段的相对顺序。
type RelevanceNode struct {
	Scorer *Scorer

	// MaxConcurrent 是并发打分的最大协程数（0 表示无限制）
	MaxConcurrent int
}

func (n *RelevanceNode) Name() string        { return "rank.relevance" }
func (n *RelevanceNode) Kind() pipeline.Kind { return pipeline.KindRank }

func (n *RelevanceNode) scorer() *Scorer {
	if n.Scorer == nil {
		return NewScorer(DefaultWeights())
	}
	return n.Scorer
}

func (n *RelevanceNode) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(items) == 0 {
		return items, nil
	}
	var profile *core.UserProfile
	if rctx != nil {
		profile = rctx.Profile
	}
	scorer := n.scorer()

	eg, egCtx := errgroup.WithContext(ctx)
	if n.MaxConcurrent > 0 {
		eg.SetLimit(n.MaxConcurrent)
	}
	for _, it := range items {
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			if it == nil || it.Candidate == nil {
				return fmt.Errorf("candidate %q has no data", itemID(it))
			}
			it.Score = scorer.Score(profile, it.Candidate)
			if it.Features == nil {
				it.Features = make(map[string]float64)
			}
			it.Features["follow_score"] = float64(it.Candidate.FollowersCount) * scorer.Weights.Follow
			it.Features["recipe_score"] = it.Score - it.Features["follow_score"]
			it.PutLabel("rank_model", utils.Label{Value: "relevance", Source: "rank"})
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Score > items[j].Score
	})
	for i, it := range items {
		it.PutLabel("rank_position", utils.Label{Value: strconv.Itoa(i + 1), Source: "rank"})
	}
	return items, nil
}

func itemID(it *core.Item) string {
	if it == nil {
		return ""
	}
	return it.ID
}
