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

	"github.com/anujtyagi85/cleanintel-loader/internal/config"
	"github.com/anujtyagi85/cleanintel-loader/internal/core"
	"github.com/anujtyagi85/cleanintel-loader/internal/feed"
	"github.com/anujtyagi85/cleanintel-loader/internal/tender"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	maxPages := flag.Int("max-pages", 0, "override feed.max_pages (0 = use config)")
	flag.Parse()

	if err := run(*configPath, *maxPages); err != nil {
		slog.Error("ingest error", "error", err)
		os.Exit(1)
	}
}

func run(configPath string, maxPages int) error {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer stop()

	cfg, err := config.LoadIngest(configPath)
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Log)
	slog.SetDefault(logger)

	if maxPages <= 0 {
		maxPages = cfg.Feed.MaxPages
	}

	logger.Info("starting feed ingest",
		"base_url", cfg.Feed.BaseURL,
		"page_size", cfg.Feed.PageSize,
		"max_pages", maxPages,
	)

	db, err := core.NewDatabase(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close() //nolint:errcheck // process exits right after

	client := feed.NewClient(cfg.Feed)
	store := tender.NewRepository(db.DB)
	ingestor := feed.NewIngestor(client, store, maxPages, logger)

	result, err := ingestor.Run(ctx)
	if err != nil {
		return err
	}

	logger.Info("feed ingest complete",
		"pages", result.Pages,
		"upserted", result.Upserted,
		"skipped", result.Skipped,
		"failed", result.Failed,
	)

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
