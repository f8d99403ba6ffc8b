// AngelaMos | 2026
// main.go

package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/anujtyagi85/cleanintel-loader/internal/admin"
	"github.com/anujtyagi85/cleanintel-loader/internal/auth"
	"github.com/anujtyagi85/cleanintel-loader/internal/config"
	"github.com/anujtyagi85/cleanintel-loader/internal/core"
	"github.com/anujtyagi85/cleanintel-loader/internal/dashboard"
	"github.com/anujtyagi85/cleanintel-loader/internal/health"
	"github.com/anujtyagi85/cleanintel-loader/internal/middleware"
	"github.com/anujtyagi85/cleanintel-loader/internal/quota"
	"github.com/anujtyagi85/cleanintel-loader/internal/server"
	"github.com/anujtyagi85/cleanintel-loader/internal/tender"
)

const (
	drainDelay = 5 * time.Second
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

//nolint:funlen // bootstrap code is inherently verbose
func run(configPath string) error {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Log)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"name", cfg.App.Name,
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
	)

	var telemetry *core.Telemetry
	if cfg.Otel.Enabled {
		tel, telErr := core.NewTelemetry(ctx, cfg.Otel, cfg.App)
		if telErr != nil {
			logger.Warn("failed to initialize telemetry", "error", telErr)
		} else {
			telemetry = tel
			logger.Info("OpenTelemetry tracer initialized",
				"endpoint", cfg.Otel.Endpoint,
			)
		}
	}

	db, err := core.NewDatabase(ctx, cfg.Database)
	if err != nil {
		return err
	}
	logger.Info("database connected",
		"max_open_conns", cfg.Database.MaxOpenConns,
		"max_idle_conns", cfg.Database.MaxIdleConns,
	)

	redis, err := core.NewRedis(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	logger.Info("redis connected",
		"pool_size", cfg.Redis.PoolSize,
	)

	verifier, err := auth.NewVerifier(cfg.Auth)
	if err != nil {
		return err
	}
	logger.Info("token verifier initialized",
		"issuer", cfg.Auth.Issuer,
	)

	quotaRepo := quota.NewRepository(db.DB)
	quotaSvc := quota.NewService(quotaRepo, cfg.Quota)
	quotaHandler := quota.NewHandler(quotaSvc)

	tenderRepo := tender.NewRepository(db.DB)
	tenderSvc := tender.NewService(tenderRepo, quotaSvc, cfg.Ranking, logger)
	tenderHandler := tender.NewHandler(tenderSvc)

	dashboardRepo := dashboard.NewRepository(db.DB)
	dashboardSvc := dashboard.NewService(dashboardRepo, redis.Client, logger)
	dashboardHandler := dashboard.NewHandler(dashboardSvc)

	healthHandler := health.NewHandler(cfg.App.Version)
	healthHandler.AddProbe("database", db)
	healthHandler.AddProbe("redis", redis)

	adminHandler := admin.NewHandler(admin.HandlerConfig{
		DBStats:    db.Stats,
		RedisStats: redis.PoolStats,
		DBPing:     db.Ping,
		RedisPing:  redis.Ping,
		Data:       dashboardSvc,
		Usage:      quotaHandler,
	})

	srv := server.New(server.Config{
		ServerConfig:  cfg.Server,
		HealthHandler: healthHandler,
		Logger:        logger,
	})

	router := srv.Router()

	rateLimit := middleware.PerWindow(
		cfg.RateLimit.Requests,
		cfg.RateLimit.Burst,
		cfg.RateLimit.Window,
	)

	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(logger))
	router.Use(
		middleware.NewRateLimiter(redis.Client, middleware.RateLimitConfig{
			Limit:    rateLimit,
			FailOpen: true,
		}).Handler,
	)
	router.Use(middleware.SecurityHeaders(cfg.IsProduction()))
	router.Use(middleware.CORS(cfg.CORS))

	// Behind the authenticator the search path throttles per subscriber,
	// not per source address.
	searchLimiter := middleware.NewRateLimiter(
		redis.Client,
		middleware.RateLimitConfig{
			Limit:    rateLimit,
			KeyFunc:  middleware.KeyByUser,
			FailOpen: true,
		},
	).Handler

	healthHandler.RegisterRoutes(router)

	authenticator := middleware.Authenticator(verifier)
	adminOnly := middleware.RequireAdmin

	router.Route("/v1", func(r chi.Router) {
		tenderHandler.RegisterRoutes(r, authenticator, searchLimiter)

		r.Group(func(r chi.Router) {
			r.Use(authenticator)
			quotaHandler.RegisterRoutes(r)
		})

		dashboardHandler.RegisterRoutes(r)
		adminHandler.RegisterRoutes(r, authenticator, adminOnly)
	})

	healthHandler.SetReady(true)

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		cfg.Server.ShutdownTimeout+drainDelay+5*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx, drainDelay); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			logger.Error("telemetry shutdown error", "error", err)
		}
	}

	if err := redis.Close(); err != nil {
		logger.Error("redis close error", "error", err)
	}

	if err := db.Close(); err != nil {
		logger.Error("database close error", "error", err)
	}

	logger.Info("application stopped")
	return nil
}

func setupLogger(cfg config.LogConfig) *slog.Logger {
	var handler slog.Handler

	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
