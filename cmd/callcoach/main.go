package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/callcoachhq/callcoach/internal/analysis"
	"github.com/callcoachhq/callcoach/internal/anthropic"
	"github.com/callcoachhq/callcoach/internal/api"
	"github.com/callcoachhq/callcoach/internal/coach"
	"github.com/callcoachhq/callcoach/internal/config"
	"github.com/callcoachhq/callcoach/internal/events"
	"github.com/callcoachhq/callcoach/internal/extract"
	"github.com/callcoachhq/callcoach/internal/ratelimit"
	"github.com/callcoachhq/callcoach/internal/storage"
	"github.com/callcoachhq/callcoach/internal/store"
)

func main() {
	cfg := config.Load()
	setupLogging(cfg.LogLevel)

	slog.Info("callcoach starting", "port", cfg.Port)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database
	if cfg.DatabaseURL == "" {
		slog.Error("DATABASE_URL is required")
		os.Exit(1)
	}
	db, err := store.New(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("database connected")

	// Object storage
	if cfg.StorageURL == "" {
		slog.Error("STORAGE_URL is required")
		os.Exit(1)
	}
	objects := storage.NewClient(cfg.StorageURL, cfg.StorageKey, cfg.StorageBucket)
	slog.Info("object storage ready", "bucket", cfg.StorageBucket)

	// Anthropic client. A missing key is tolerated at startup: handlers
	// surface the not-configured failure per request instead.
	llm := anthropic.NewClient(cfg.AnthropicAPIKey, cfg.AnthropicModel)
	if cfg.AnthropicAPIKey == "" {
		slog.Warn("ANTHROPIC_API_KEY not set, analysis requests will fail")
	} else {
		slog.Info("anthropic client ready", "model", cfg.AnthropicModel)
	}

	// One limiter shared by analysis and coaching dispatch.
	limiter := ratelimit.New(cfg.CallsPerHour, cfg.CallsPerMinute)

	// NATS event publisher (optional; callcoach works without a broker).
	var publisher *events.Publisher
	if cfg.NatsURL != "" {
		publisher, err = events.NewPublisher(cfg.NatsURL, cfg.NatsToken, slog.Default())
		if err != nil {
			slog.Error("failed to connect to NATS", "error", err)
			os.Exit(1)
		}
		defer publisher.Close()
		slog.Info("NATS connected", "url", cfg.NatsURL)
	} else {
		slog.Warn("NATS not configured, lifecycle events disabled")
	}

	analyzer := analysis.New(llm, limiter, slog.Default())
	coachSvc := coach.New(llm, limiter, slog.Default())
	extractor := extract.NewRunner(db, objects, publisher, slog.Default())

	srv := api.NewServer(cfg.Port, cfg.APIToken, cfg.CronSecret, api.Deps{
		Store:    db,
		Objects:  objects,
		Analyzer: analyzer,
		Coach:    coachSvc,
		Extract:  extractor,
		Events:   publisher,
	}, slog.Default())

	go func() {
		if err := srv.Start(); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()

	slog.Info("callcoach ready", "port", cfg.Port)

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	slog.Info("shutting down")
	cancel()
	slog.Info("callcoach stopped")
}

func setupLogging(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
}
