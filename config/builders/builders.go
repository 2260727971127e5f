package builders

import (
	"fmt"

	"github.com/rushteam/recipekit/config"
	"github.com/rushteam/recipekit/filter"
	"github.com/rushteam/recipekit/pipeline"
	"github.com/rushteam/recipekit/pkg/conv"
	"github.com/rushteam/recipekit/rank"
	"github.com/rushteam/recipekit/recall"
	"github.com/rushteam/recipekit/rerank"
)

func init() {
	config.Register("recall.keyword", BuildKeywordNode)
	config.Register("recall.popular", BuildPopularNode)
	config.Register("rank.relevance", BuildRelevanceNode)
	config.Register("rerank.page", BuildPageNode)
	config.Register("filter", BuildFilterNode)
}

func BuildKeywordNode(_ map[string]interface{}, deps pipeline.Deps) (pipeline.Node, error) {
	if deps.Repo == nil {
		return nil, fmt.Errorf("recall.keyword requires a repository")
	}
	return &recall.KeywordRecall{Repo: deps.Repo}, nil
}

func BuildPopularNode(cfg map[string]interface{}, deps pipeline.Deps) (pipeline.Node, error) {
	if deps.Repo == nil {
		return nil, fmt.Errorf("recall.popular requires a repository")
	}
	window, err := conv.ConfigGetDuration(cfg, "recent_follow_window", recall.DefaultRecentFollowWindow)
	if err != nil {
		return nil, err
	}
	return &recall.Popular{Repo: deps.Repo, Window: window}, nil
}

func BuildRelevanceNode(cfg map[string]interface{}, _ pipeline.Deps) (pipeline.Node, error) {
	def := rank.DefaultWeights()
	w := rank.Weights{
		Title:  conv.ConfigGetFloat64(cfg, "title_weight", def.Title),
		Follow: conv.ConfigGetFloat64(cfg, "follow_weight", def.Follow),
	}
	if w.Title < 0 || w.Follow < 0 {
		return nil, fmt.Errorf("weights must be non-negative")
	}
	return &rank.RelevanceNode{
		Scorer:        rank.NewScorer(w),
		MaxConcurrent: int(conv.ConfigGetInt64(cfg, "max_concurrent", 0)),
	}, nil
}

func BuildPageNode(cfg map[string]interface{}, _ pipeline.Deps) (pipeline.Node, error) {
	return &rerank.PageNode{DefaultLimit: int(conv.ConfigGetInt64(cfg, "default_limit", 10))}, nil
}

// BuildFilterNode 构建组合过滤器；key 或表达式为空的过滤器会被跳过。
func BuildFilterNode(cfg map[string]interface{}, deps pipeline.Deps) (pipeline.Node, error) {
	filtersConfig, ok := cfg["filters"].([]interface{})
	if !ok {
		return nil, fmt.Errorf("filters not found or invalid")
	}

	var adapter *filter.StoreAdapter
	if deps.Store != nil {
		adapter = filter.NewStoreAdapter(deps.Store)
	}

	filters := make([]filter.Filter, 0, len(filtersConfig))
	for _, fc := range filtersConfig {
		filterMap, ok := fc.(map[string]interface{})
		if !ok {
			continue
		}
		filterType := conv.ConfigGet(filterMap, "type", "")
		switch filterType {
		case "self":
			filters = append(filters, &filter.SelfFilter{})
		case "blacklist":
			ids := conv.SliceAnyToString(filterMap["user_ids"])
			key := conv.ConfigGet(filterMap, "key", "")
			if len(ids) == 0 && (key == "" || adapter == nil) {
				continue
			}
			filters = append(filters, filter.NewBlacklistFilter(ids, adapter, key))
		case "user_block":
			keyPrefix := conv.ConfigGet(filterMap, "key_prefix", "")
			if keyPrefix == "" || adapter == nil {
				continue
			}
			filters = append(filters, filter.NewUserBlockFilter(adapter, keyPrefix))
		case "expr":
			expr := conv.ConfigGet(filterMap, "expr", "")
			if expr == "" {
				continue
			}
			f, err := filter.NewExprFilter(expr)
			if err != nil {
				return nil, fmt.Errorf("expr filter: %w", err)
			}
			filters = append(filters, f)
		default:
			return nil, fmt.Errorf("unknown filter type: %s", filterType)
		}
	}
	return &filter.FilterNode{Filters: filters}, nil
}
