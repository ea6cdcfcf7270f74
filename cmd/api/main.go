// Copyright (c) 2026 Manhwaru. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Command api is the entry point for the Manhwaru HTTP API server.
//
// # Startup Sequence
//
//  1. Initialize structured logger.
//  2. Load configuration from environment variables.
//  3. Connect to PostgreSQL (pgxpool).
//  4. Connect to Redis (optional cache mirror).
//  5. Run database migrations (idempotent).
//  6. Construct the data-plane singletons: cache tiers, upstream client,
//     catalogue service, and the background syncer.
//  7. Start HTTP server with graceful shutdown.
//
// No business logic lives here. All wiring is explicit constructor injection.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/taibuivan/manhwaru/internal/api"
	"github.com/taibuivan/manhwaru/internal/cache"
	"github.com/taibuivan/manhwaru/internal/core/manhwa"
	"github.com/taibuivan/manhwaru/internal/platform/config"
	"github.com/taibuivan/manhwaru/internal/platform/constants"
	"github.com/taibuivan/manhwaru/internal/platform/migration"
	pgstore "github.com/taibuivan/manhwaru/internal/platform/postgres"
	redisstore "github.com/taibuivan/manhwaru/internal/platform/redis"
	"github.com/taibuivan/manhwaru/internal/syncer"
	"github.com/taibuivan/manhwaru/internal/upstream"
)

func main() {
	// ── 1. Logger ──────────────────────────────────────────────────────────
	// Initialize first so that subsequent startup errors are structured JSON.
	rawLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	// Add global context to all log entries.
	log := rawLog.With(slog.String("app", constants.AppName))
	slog.SetDefault(log)

	log.Info("service_initializing")

	// ── 2. Configuration ──────────────────────────────────────────────────
	cfg, err := config.Load()
	must(log, err, "load configuration")

	if cfg.Debug {
		debugLog := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
		log = debugLog.With(slog.String("app", constants.AppName))
		slog.SetDefault(log)
		log.Debug("debug_logging_enabled")
	}

	log.Info("configuration_loaded",
		slog.String("environment", cfg.Environment),
		slog.String("port", cfg.ServerPort),
	)

	// Root context for startup. Use a 30s deadline so misconfiguration is
	// caught quickly rather than hanging indefinitely.
	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	// ── 3. PostgreSQL ─────────────────────────────────────────────────────
	pool, err := pgstore.NewPool(startupCtx, cfg.DatabaseURL, log)
	must(log, err, "connect to postgres")
	defer func() {
		log.Info("closing postgres pool")
		pool.Close()
	}()

	// ── 4. Redis (optional) ───────────────────────────────────────────────
	// Without REDIS_URL the service runs on the in-process cache alone.
	var rdb *goredis.Client
	if cfg.RedisURL != "" {
		rdb, err = redisstore.NewClient(startupCtx, cfg.RedisURL, log)
		must(log, err, "connect to redis")
		defer func() {
			log.Info("closing redis client")
			if cerr := rdb.Close(); cerr != nil {
				log.Error("redis close error", slog.Any("error", cerr))
			}
		}()
	}

	// ── 5. Migrations ─────────────────────────────────────────────────────
	must(log, migration.RunUp(cfg.DatabaseURL, cfg.MigrationPath, log), "run migrations")

	// ── 6. Data Plane ─────────────────────────────────────────────────────
	var remote *cache.Remote
	if rdb != nil {
		remote = cache.NewRemote(rdb, cfg.CacheTTLDefault, log)
	}
	cacheManager := cache.NewManager(cache.Config{
		EntityTTL: cfg.CacheTTLDefault,
		SearchTTL: cfg.CacheTTLSearch,
		TagTTL:    cfg.CacheTTLTag,
		MaxKeys:   cfg.CacheMaxKeys,
	}, remote, log)
	defer cacheManager.Stop()

	upstreamClient := upstream.NewClient(upstream.Config{
		BaseURL:      cfg.UpstreamAPIURL,
		CoverBaseURL: cfg.UpstreamCoverURL,
		UserAgent:    cfg.UpstreamUserAgent,
		Username:     cfg.UpstreamUsername,
		Secret:       cfg.UpstreamSecret,
	}, log)

	store := manhwa.NewPostgresStore(pool)
	engine := manhwa.NewSearchEngine(store)
	catalogue := manhwa.NewService(store, engine, cacheManager, upstreamClient, log)

	sync := syncer.New(catalogue, store, cfg.SyncBatchSize, log)
	catalogue.SetRefreshScheduler(sync)
	must(log, sync.Start(cfg.CronSchedule()), "start syncer")
	defer sync.Stop()

	// ── 7. Health handlers (wired with real dependency checkers) ──────────
	healthDeps := api.HealthDependencies{
		CheckDatabase: func() error {
			return pgstore.Ping(context.Background(), pool)
		},
	}
	if rdb != nil {
		healthDeps.CheckCache = func() error {
			return redisstore.Ping(context.Background(), rdb)
		}
	}
	liveness, readiness := api.NewHealthHandlers(healthDeps, log)

	// ── 8. HTTP Server ────────────────────────────────────────────────────
	handlers := api.Handlers{
		Liveness:  liveness,
		Readiness: readiness,
		Manhwa:    manhwa.NewHandler(catalogue),
		Sync:      syncer.NewHandler(sync, catalogue),
	}

	serverCtx, serverCancel := context.WithCancel(context.Background())
	defer serverCancel()

	server := api.NewServer(serverCtx, cfg, log, handlers)

	// ── 9. Graceful Shutdown ──────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)

	serverErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Block until OS signal or server error.
	select {
	case sig := <-quit:
		log.Info("shutdown signal received", slog.String("signal", sig.String()))
	case err := <-serverErr:
		log.Error("server startup error", slog.Any("error", err))
	}

	// Give in-flight requests enough time to complete.
	shutdownTimeout := constants.ShutdownTimeout
	log.Info("shutting down server", slog.Duration("timeout", shutdownTimeout))

	if err := server.Shutdown(shutdownTimeout); err != nil {
		log.Error("shutdown error", slog.Any("error", err))
		os.Exit(1)
	}

	log.Info("server stopped cleanly")
}

// must logs a structured fatal error and terminates the process if err is non-nil.
//
// It is intentionally limited to startup wiring. After startup, all errors
// must be returned and handled explicitly (never panic).
func must(log *slog.Logger, err error, context string) {
	if err != nil {
		log.Error("startup failure",
			slog.String("context", context),
			slog.Any("error", err),
		)
		os.Exit(1)
	}
}
