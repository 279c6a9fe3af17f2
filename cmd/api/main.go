package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/siamex/siamex/internal/config"
	"github.com/siamex/siamex/internal/infra"
	"github.com/siamex/siamex/internal/logging"
	"github.com/siamex/siamex/internal/seed"
	"github.com/siamex/siamex/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.LogLevel, cfg.AppName)

	ctx := context.Background()

	pool, err := connectPostgres(ctx, cfg, logger)
	if err != nil {
		os.Exit(1)
	}
	if pool != nil {
		defer pool.Close()
	}

	cache, err := connectRedis(ctx, cfg, logger)
	if err != nil {
		os.Exit(1)
	}
	if cache != nil {
		defer func() {
			if err := cache.Close(); err != nil {
				logger.Warn("close redis", "error", err)
			}
		}()
	}

	srv, err := server.New(cfg, pool, cache, logger)
	if err != nil {
		logger.Error("build server", "error", err)
		os.Exit(1)
	}

	if cfg.SeedDemoData && !cfg.IsProduction() {
		if err := seed.Demo(ctx, srv.Identity(), srv.Ledger(), logger); err != nil {
			logger.Error("seed demo data", "error", err)
			os.Exit(1)
		}
	}

	srvErrCh := make(chan error, 1)
	go func() {
		srvErrCh <- srv.Listen()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("shutdown signal received", "signal", sig.String())
	case err := <-srvErrCh:
		if err != nil {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
		return
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownPeriod)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}

	logger.Info("server exited cleanly")
}

// connectPostgres dials the database when configured. In development a
// missing DATABASE_URL falls back to the in-memory ledger, so a nil pool is
// returned without error.
func connectPostgres(ctx context.Context, cfg config.Config, logger *slog.Logger) (*pgxpool.Pool, error) {
	if cfg.DatabaseURL == "" {
		logger.Warn("DATABASE_URL not set, using in-memory storage")
		return nil, nil
	}
	pool, err := infra.NewPostgresPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Error("connect postgres", "error", err)
		return nil, err
	}
	if err := infra.EnsureSchema(ctx, pool); err != nil {
		logger.Error("ensure schema", "error", err)
		pool.Close()
		return nil, err
	}
	return pool, nil
}

// connectRedis dials Redis when configured; a nil client disables the
// idempotency and rate-limit middlewares.
func connectRedis(ctx context.Context, cfg config.Config, logger *slog.Logger) (*redis.Client, error) {
	if cfg.RedisURL == "" {
		logger.Warn("REDIS_URL not set, idempotency and rate limiting disabled")
		return nil, nil
	}
	cache, err := infra.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		logger.Error("connect redis", "error", err)
		return nil, err
	}
	return cache, nil
}
