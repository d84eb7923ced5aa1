package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/bver-dev/bver/internal/adapter/httpadapter"
	kafkaadapter "github.com/bver-dev/bver/internal/adapter/kafka"
	"github.com/bver-dev/bver/internal/app"
	"github.com/bver-dev/bver/internal/config"
	"github.com/bver-dev/bver/internal/fusion"
	"github.com/bver-dev/bver/internal/observability"
	"github.com/bver-dev/bver/internal/sweeper"
)

func main() {
	if err := config.LoadEnvFile(".env"); err != nil {
		slog.Error("failed to load .env", "error", err)
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := app.OpenStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open cache store", "backend", cfg.CacheBackend, "error", err)
		os.Exit(1)
	}

	var opts []fusion.Option
	var publisher *kafkaadapter.Publisher
	if len(cfg.KafkaBrokers) > 0 {
		publisher = kafkaadapter.NewPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
		opts = append(opts, fusion.WithPublisher(publisher))
		logger.Info("publishing resolutions", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}

	resolver := app.NewResolver(cfg, store, logger, metrics, opts...)
	for _, p := range resolver.Providers() {
		logger.Info("provider", "name", p.Name, "configured", p.Configured)
	}

	assessor := fusion.NewAssessor(logger, metrics)
	srv := httpadapter.NewServer(cfg.HTTPAddr, resolver, resolver, assessor, logger)

	if cfg.SweepInterval > 0 && store != nil {
		go func() {
			if err := sweeper.New(resolver, cfg.SweepInterval, nil, logger).Run(ctx); err != nil {
				logger.Error("cache sweeper error", "error", err)
			}
		}()
	}

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if publisher != nil {
		if err := publisher.Close(); err != nil {
			logger.Error("kafka publisher close error", "error", err)
		}
	}
	if store != nil {
		if err := store.Close(); err != nil {
			logger.Error("cache store close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
