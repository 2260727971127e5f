package config

import (
	_ "embed"
	"fmt"

	"github.com/rushteam/recipekit/pipeline"
)

// 内置的两条推荐链路名称。
const (
	PipelinePersonalized = "personalized"
	PipelinePopular      = "popular"
)

//go:embed pipelines.yaml
var defaultPipelines []byte

// Pipelines 读取 pipeline 配置（外部文件或内置配置），并用 Settings 填充未显式配置的参数。
func (s *Settings) Pipelines() (*pipeline.Set, error) {
	var (
		set *pipeline.Set
		err error
	)
	if p := s.Recommend.PipelinesPath; p != "" {
		set, err = pipeline.LoadSetFile(p)
	} else {
		set, err = pipeline.ParseSetYAML(defaultPipelines)
	}
	if err != nil {
		return nil, fmt.Errorf("load pipelines: %w", err)
	}
	for _, name := range []string{PipelinePersonalized, PipelinePopular} {
		nodes, ok := set.Pipelines[name]
		if !ok {
			return nil, fmt.Errorf("pipeline %q not configured", name)
		}
		if err := ValidateNodes(nodes); err != nil {
			return nil, fmt.Errorf("pipeline %q: %w", name, err)
		}
		for i := range nodes {
			nodes[i].Config = s.fillNodeDefaults(nodes[i].Type, nodes[i].Config)
		}
	}
	return set, nil
}

// BuildPipelines 构建内置的两条链路。
func (s *Settings) BuildPipelines(deps pipeline.Deps) (personalized, popular *pipeline.Pipeline, err error) {
	set, err := s.Pipelines()
	if err != nil {
		return nil, nil, err
	}
	factory := DefaultFactory()
	personalized, err = pipeline.Build(PipelinePersonalized, set.Pipelines[PipelinePersonalized], factory, deps)
	if err != nil {
		return nil, nil, err
	}
	popular, err = pipeline.Build(PipelinePopular, set.Pipelines[PipelinePopular], factory, deps)
	if err != nil {
		return nil, nil, err
	}
	return personalized, popular, nil
}

func setDefault(m map[string]interface{}, key string, v interface{}) {
	if _, ok := m[key]; !ok {
		m[key] = v
	}
}

func (s *Settings) fillNodeDefaults(nodeType string, cfg map[string]interface{}) map[string]interface{} {
	if cfg == nil {
		cfg = make(map[string]interface{})
	}
	r := s.Recommend
	switch nodeType {
	case "recall.popular":
		setDefault(cfg, "recent_follow_window", r.RecentFollowWindow)
	case "rank.relevance":
		setDefault(cfg, "title_weight", r.TitleWeight)
		setDefault(cfg, "follow_weight", r.FollowWeight)
		setDefault(cfg, "max_concurrent", r.MaxConcurrent)
	case "rerank.page":
		setDefault(cfg, "default_limit", r.DefaultLimit)
	case "filter":
		filters, _ := cfg["filters"].([]interface{})
		for _, fc := range filters {
			fm, ok := fc.(map[string]interface{})
			if !ok {
				continue
			}
			switch fm["type"] {
			case "blacklist":
				setDefault(fm, "key", r.BlacklistKey)
			case "user_block":
				setDefault(fm, "key_prefix", r.BlockKeyPrefix)
			case "expr":
				setDefault(fm, "expr", r.CandidateExpr)
			}
		}
	}
	return cfg
}
