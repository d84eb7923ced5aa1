// Package app assembles the cache store, providers and resolver from Config.
// It is shared by the service binary and the cachectl tool.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bver-dev/bver/internal/adapter/attom"
	"github.com/bver-dev/bver/internal/adapter/postgres"
	"github.com/bver-dev/bver/internal/adapter/redis"
	"github.com/bver-dev/bver/internal/adapter/rentcast"
	"github.com/bver-dev/bver/internal/cache"
	"github.com/bver-dev/bver/internal/config"
	"github.com/bver-dev/bver/internal/domain"
	"github.com/bver-dev/bver/internal/fusion"
	"github.com/bver-dev/bver/internal/observability"
)

// Store is a cache.Store that owns a connection.
type Store interface {
	cache.Store
	Close() error
}

// OpenStore connects the configured durable cache backend. It returns a nil
// Store for the "none" backend. Postgres tables are created if missing. An
// unreachable backend is logged and the store is returned anyway, so lookups
// degrade to provider fetches until it recovers.
func OpenStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (Store, error) {
	switch cfg.CacheBackend {
	case config.BackendPostgres:
		s, err := postgres.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := s.Migrate(ctx); err != nil {
			logger.Warn("postgres not reachable at startup, continuing", "error", err)
		}
		logger.Info("cache store ready", "backend", cfg.CacheBackend)
		return s, nil
	case config.BackendRedis:
		s := redis.New(redis.NewClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB))
		if err := s.Ping(ctx); err != nil {
			logger.Warn("redis not reachable at startup, continuing", "addr", cfg.RedisAddr, "error", err)
		}
		logger.Info("cache store ready", "backend", cfg.CacheBackend, "addr", cfg.RedisAddr)
		return s, nil
	case config.BackendNone:
		logger.Info("durable cache disabled")
		return nil, nil
	}
	return nil, fmt.Errorf("unknown cache backend %q", cfg.CacheBackend)
}

// Providers returns the provider adapters in priority order.
func Providers(cfg *config.Config, logger *slog.Logger) []domain.Provider {
	return []domain.Provider{
		rentcast.NewClient(cfg.RentCastAPIKey, cfg.RentCastBaseURL, cfg.ProviderTimeout, logger),
		attom.NewClient(cfg.AttomAPIKey, cfg.AttomBaseURL, cfg.ProviderTimeout, logger),
	}
}

// NewResolver wires a Resolver over store, which may be nil.
func NewResolver(cfg *config.Config, store Store, logger *slog.Logger, metrics *observability.Metrics, opts ...fusion.Option) *fusion.Resolver {
	var cs cache.Store
	if store != nil {
		cs = store
	}
	memo := cache.NewMemo(cfg.MemoSize, cfg.MemoTTL, nil)
	opts = append([]fusion.Option{fusion.WithTTL(cfg.CacheTTL)}, opts...)
	return fusion.New(cs, memo, Providers(cfg, logger), logger, metrics, opts...)
}
