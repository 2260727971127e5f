// Package server 通过 HTTP 暴露用户推荐接口。
//
//	GET /user/recommended/users/get  个性化推荐（需要 X-User-ID）
//	GET /user/popular/users/get      热门用户（X-User-ID 可选，用于排除自己）
//	GET /healthz                     存活检查
//	GET /metrics                     Prometheus 指标
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rushteam/recipekit/core"
	"github.com/rushteam/recipekit/pkg/logging"
)

// HeaderUserID 携带上游鉴权后的用户 ID。
const HeaderUserID = "X-User-ID"

// HeaderRequestID 是请求 ID 头。
const HeaderRequestID = "X-Request-ID"

// Recommender 是接口层依赖的推荐能力。
type Recommender interface {
	GetRecommendedUsers(ctx context.Context, viewerID string, page, limit int, username string) ([]core.UserPreview, error)
	GetPopularUsers(ctx context.Context, excludeID string, page, limit int, username string) ([]core.UserPreview, error)
}

// Options 是 HTTP 层配置。
type Options struct {
	DefaultLimit int
	MaxLimit     int
	// RateLimit 是每个客户端 IP 每分钟的请求数，0 表示不限流
	RateLimit   int
	CORSOrigins []string
}

// Server 持有路由与依赖。
type Server struct {
	rec      Recommender
	opts     Options
	validate *validator.Validate
}

// New 创建 Server。
func New(rec Recommender, opts Options) *Server {
	if opts.DefaultLimit <= 0 {
		opts.DefaultLimit = 10
	}
	if opts.MaxLimit <= 0 {
		opts.MaxLimit = 100
	}
	return &Server{
		rec:      rec,
		opts:     opts,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// Handler 构建完整的路由。
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(requestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(accessLog)

	if len(s.opts.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.opts.CORSOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type", HeaderUserID, HeaderRequestID},
			ExposedHeaders: []string{HeaderRequestID},
			MaxAge:         300,
		}))
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/user", func(r chi.Router) {
		if s.opts.RateLimit > 0 {
			r.Use(httprate.LimitByIP(s.opts.RateLimit, time.Minute))
		}
		r.Get("/recommended/users/get", s.handleRecommended)
		r.Get("/popular/users/get", s.handlePopular)
	})
	return r
}

// requestID 复用或生成请求 ID，并写入 context 与响应头。
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(HeaderRequestID)
		if id == "" {
			id = logging.NewRequestID()
		}
		w.Header().Set(HeaderRequestID, id)
		ctx := logging.ContextWithRequestID(r.Context(), id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		logging.Ctx(r.Context()).Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("took", time.Since(start)).
			Msg("http request")
	})
}
