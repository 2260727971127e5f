// Package recipekit 是食谱社区的用户推荐服务。
//
// 设计要点：
// - Pipeline-first: 推荐逻辑通过 Node 串联（Recall → Filter → Rank → ReRank），链路由 YAML 声明
// - 个性化：近 30 天的点赞/收藏/浏览 → TF-IDF 关键词 → 精确匹配召回 → 相关度 × 热度打分
// - 兜底：没有可用历史时返回热门用户（近 24 小时新增关注优先）
// - 失败即报错：任何一步出错都返回不透明的内部错误，不返回部分结果
package recipekit
