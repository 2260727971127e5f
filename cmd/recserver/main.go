// Package main 启动用户推荐 HTTP 服务。
//
// 配置按优先级从低到高合并：内置默认值、配置文件（RECIPEKIT_CONFIG 或 ./recipekit.yaml）、
// RECIPEKIT_ 前缀的环境变量，例如：
//
//	RECIPEKIT_STORE__DRIVER=redis RECIPEKIT_STORE__REDIS_ADDR=localhost:6379 ./recserver
//	RECIPEKIT_STORE__DRIVER=duckdb RECIPEKIT_STORE__FIXTURE_PATH=seed.yaml ./recserver
//
// 收到 SIGINT / SIGTERM 后停止接收新连接，等待在途请求结束再关闭存储。
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rushteam/recipekit/config"
	"github.com/rushteam/recipekit/core"
	"github.com/rushteam/recipekit/pkg/logging"
	"github.com/rushteam/recipekit/repository"
	"github.com/rushteam/recipekit/server"
	"github.com/rushteam/recipekit/service"
	"github.com/rushteam/recipekit/store"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		l := logging.Logger()
		l.Error().Err(err).Msg("recserver exited")
		os.Exit(1)
	}
}

func run() error {
	settings, err := config.Load("")
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logging.Init(logging.Config{
		Level:  settings.Log.Level,
		Format: settings.Log.Format,
		Caller: settings.Log.Caller,
	})
	log := logging.WithComponent("main")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repo, kv, closers, err := openStorage(ctx, settings.Store)
	defer func() {
		for _, c := range closers {
			if cerr := c.Close(); cerr != nil {
				log.Warn().Err(cerr).Msg("close storage")
			}
		}
	}()
	if err != nil {
		return err
	}

	if path := settings.Store.FixturePath; path != "" {
		if err := repository.LoadFixtureFile(ctx, repo, path); err != nil {
			return fmt.Errorf("load fixture: %w", err)
		}
		log.Info().Str("path", path).Msg("fixture loaded")
	}

	svc, err := service.NewFromSettings(settings, repo, kv)
	if err != nil {
		return err
	}

	api := server.New(svc, server.Options{
		DefaultLimit: settings.Recommend.DefaultLimit,
		MaxLimit:     settings.Recommend.MaxLimit,
		RateLimit:    settings.Server.RateLimit,
		CORSOrigins:  settings.Server.CORSOrigins,
	})
	httpServer := &http.Server{
		Addr:              settings.Server.Addr,
		Handler:           api.Handler(),
		ReadTimeout:       settings.Server.ReadTimeout,
		ReadHeaderTimeout: settings.Server.ReadTimeout,
		WriteTimeout:      settings.Server.WriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info().
			Str("addr", httpServer.Addr).
			Str("store", settings.Store.Driver).
			Msg("http server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// openStorage 按驱动创建仓储与 KV（黑名单、拉黑列表所在）。
// duckdb 驱动下 KV 使用进程内存储。
func openStorage(ctx context.Context, s config.StoreSettings) (repository.Store, core.Store, []io.Closer, error) {
	switch s.Driver {
	case "redis":
		kv, err := store.NewRedisStore(ctx, s.RedisAddr, s.RedisPassword, s.RedisDB)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("connect redis: %w", err)
		}
		return repository.NewKVRepository(kv), kv, []io.Closer{kv}, nil
	case "duckdb":
		repo, err := repository.OpenDuckDB(ctx, s.DuckDBPath)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("open duckdb: %w", err)
		}
		kv := store.NewMemoryStore()
		return repo, kv, []io.Closer{repo, kv}, nil
	default:
		kv := store.NewMemoryStore()
		return repository.NewKVRepository(kv), kv, []io.Closer{kv}, nil
	}
}
