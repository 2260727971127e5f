package recall

import (
	"context"

	"github.com/rushteam/recipekit/core"
	"github.com/rushteam/recipekit/pipeline"
	"github.com/rushteam/recipekit/pkg/utils"
)

// KeywordRecall 根据观看者画像查询候选用户：
// 拥有至少一个菜谱，其标题或食材与关键词完全相等，或类别出现在观看者历史中。
// 分页在存储层完成，只召回当前页的候选。
type KeywordRecall struct {
	Repo core.Repository
}

var (
	_ Source        = (*KeywordRecall)(nil)
	_ pipeline.Node = (*KeywordRecall)(nil)
)

func (r *KeywordRecall) Name() string        { return "recall.keyword" }
func (r *KeywordRecall) Kind() pipeline.Kind { return pipeline.KindRecall }

func (r *KeywordRecall) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	return r.Recall(ctx, rctx)
}

// Query 由请求上下文构造候选查询。
func (r *KeywordRecall) Query(rctx *core.RecommendContext) core.CandidateQuery {
	p := rctx.Profile
	return core.CandidateQuery{
		ExcludeUserID:      rctx.ViewerID,
		Username:           rctx.Username,
		TitleKeywords:      p.TitleKeywords,
		IngredientKeywords: p.IngredientKeywords,
		FoodTypes:          p.FoodTypes,
		Skip:               rctx.Skip(),
		Take:               rctx.Limit,
	}
}

func (r *KeywordRecall) Recall(
	ctx context.Context,
	rctx *core.RecommendContext,
) ([]*core.Item, error) {
	if r.Repo == nil || rctx == nil || !rctx.Profile.HasHistory() {
		return nil, nil
	}

	candidates, err := r.Repo.QueryCandidates(ctx, r.Query(rctx))
	if err != nil {
		return nil, err
	}

	out := make([]*core.Item, 0, len(candidates))
	for _, c := range candidates {
		it := core.NewItem(c)
		it.PutLabel("recall_source", utils.Label{Value: "keyword", Source: "recall"})
		out = append(out, it)
	}
	return out, nil
}
