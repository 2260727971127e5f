// Package metrics 定义推荐服务的 Prometheus 指标。
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// 推荐链路：path = personalized / popular
const (
	PathPersonalized = "personalized"
	PathPopular      = "popular"
)

var (
	RecommendRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommend_requests_total",
			Help: "Total number of user recommendation requests",
		},
		[]string{"path", "outcome"},
	)

	RecommendDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "recommend_duration_seconds",
			Help:    "Duration of user recommendation requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path"},
	)

	RecommendCandidates = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "recommend_candidates",
			Help:    "Number of candidate users fetched per request",
			Buckets: []float64{0, 1, 5, 10, 20, 50, 100, 500, 1000},
		},
		[]string{"path"},
	)

	RepositoryQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "repository_query_duration_seconds",
			Help:    "Duration of repository queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"backend", "operation"},
	)
)

// ObserveRequest 记录一次推荐请求。
func ObserveRequest(path string, start time.Time, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	RecommendRequests.WithLabelValues(path, outcome).Inc()
	RecommendDuration.WithLabelValues(path).Observe(time.Since(start).Seconds())
}

// ObserveQuery 记录一次存储查询耗时，用法：defer metrics.ObserveQuery("duckdb", "list_users", time.Now())
func ObserveQuery(backend, operation string, start time.Time) {
	RepositoryQueryDuration.WithLabelValues(backend, operation).Observe(time.Since(start).Seconds())
}
