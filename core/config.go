package core

import "time"

// RecommendConfig 是推荐链路相关的配置接口，用于提供默认值。
type RecommendConfig interface {
	// HistoryWindow 返回观看者历史互动的回溯窗口
	HistoryWindow() time.Duration

	// RecentFollowWindow 返回热门链路统计“近期新增关注”的窗口
	RecentFollowWindow() time.Duration

	// KeywordLimit 返回每个字段抽取的关键词数量上限
	KeywordLimit() int

	// DefaultPage 返回默认页码
	DefaultPage() int

	// DefaultLimit 返回默认每页数量
	DefaultLimit() int
}

// DefaultRecommendConfig 是默认的推荐配置实现。
type DefaultRecommendConfig struct{}

func (c *DefaultRecommendConfig) HistoryWindow() time.Duration {
	return 30 * 24 * time.Hour
}

func (c *DefaultRecommendConfig) RecentFollowWindow() time.Duration {
	return 24 * time.Hour
}

func (c *DefaultRecommendConfig) KeywordLimit() int {
	return 30
}

func (c *DefaultRecommendConfig) DefaultPage() int {
	return 1
}

func (c *DefaultRecommendConfig) DefaultLimit() int {
	return 10
}
