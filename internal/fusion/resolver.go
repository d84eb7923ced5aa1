// Package fusion resolves an address to a single canonical property record.
//
// Lookup order is memo, durable store, each configured provider in priority
// order, then the synthetic generator. The first provider that returns any
// core field wins outright; fields are never merged across providers. Every
// freshly fused record is written through to both cache layers.
package fusion

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/bver-dev/bver/internal/cache"
	"github.com/bver-dev/bver/internal/domain"
	"github.com/bver-dev/bver/internal/observability"
	"github.com/jonboulle/clockwork"
)

const (
	layerMemo  = "memo"
	layerStore = "store"
)

// Publisher receives every freshly fused resolution.
type Publisher interface {
	PublishResolution(ctx context.Context, res domain.Resolution) error
}

// Resolver is the fusion orchestrator.
type Resolver struct {
	store     cache.Store
	memo      *cache.Memo
	providers []domain.Provider
	publisher Publisher
	logger    *slog.Logger
	metrics   *observability.Metrics
	clock     clockwork.Clock
	ttl       time.Duration
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithTTL sets the cache freshness window. Non-positive values are ignored.
func WithTTL(ttl time.Duration) Option {
	return func(r *Resolver) {
		if ttl > 0 {
			r.ttl = ttl
		}
	}
}

// WithClock overrides the time source.
func WithClock(c clockwork.Clock) Option {
	return func(r *Resolver) {
		if c != nil {
			r.clock = c
		}
	}
}

// WithPublisher publishes each freshly fused resolution.
func WithPublisher(p Publisher) Option {
	return func(r *Resolver) {
		r.publisher = p
	}
}

// New creates a Resolver. store and memo may be nil; providers are tried in
// slice order.
func New(store cache.Store, memo *cache.Memo, providers []domain.Provider, logger *slog.Logger, metrics *observability.Metrics, opts ...Option) *Resolver {
	r := &Resolver{
		store:     store,
		memo:      memo,
		providers: providers,
		logger:    logger,
		metrics:   metrics,
		clock:     clockwork.NewRealClock(),
		ttl:       domain.DefaultCacheTTL,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// TTL returns the configured freshness window.
func (r *Resolver) TTL() time.Duration {
	return r.ttl
}

// Resolve returns the canonical record for addr. The only error is
// domain.ErrInvalidAddress; provider and cache failures degrade to the next
// source and ultimately to a synthetic record.
func (r *Resolver) Resolve(ctx context.Context, addr domain.AddressIdentity) (domain.Resolution, error) {
	if err := addr.Validate(); err != nil {
		return domain.Resolution{}, err
	}

	key := addr.Key()
	now := r.clock.Now()

	if e, ok := r.memo.Get(key); ok && domain.IsValid(e.WrittenAt, now, r.ttl) {
		r.metrics.CacheLookups.WithLabelValues(layerMemo, "hit").Inc()
		return domain.Resolution{Record: e.Payload, FromCache: true, CacheLayer: layerMemo, ResolvedAt: now}, nil
	}
	r.metrics.CacheLookups.WithLabelValues(layerMemo, "miss").Inc()

	if e, ok := r.lookupStore(ctx, key, now); ok {
		r.memo.Put(e)
		return domain.Resolution{Record: e.Payload, FromCache: true, CacheLayer: layerStore, ResolvedAt: now}, nil
	}

	record, attempts := r.acquire(ctx, addr)

	entry := cache.NewEntry(record, now)
	r.memo.Put(entry)
	r.writeStore(ctx, entry)

	res := domain.Resolution{Record: record, Attempts: attempts, ResolvedAt: now}
	r.metrics.Resolutions.WithLabelValues(string(record.DataSource)).Inc()
	r.publish(ctx, res)
	return res, nil
}

func (r *Resolver) lookupStore(ctx context.Context, key string, now time.Time) (cache.Entry, bool) {
	if r.store == nil {
		return cache.Entry{}, false
	}

	e, ok, err := r.store.Get(ctx, key)
	switch {
	case err != nil:
		r.metrics.CacheErrors.WithLabelValues("get").Inc()
		r.logger.Warn("cache store lookup failed, continuing without cache",
			"op", "get", "key", key, "error", err)
		return cache.Entry{}, false
	case !ok:
		r.metrics.CacheLookups.WithLabelValues(layerStore, "miss").Inc()
		return cache.Entry{}, false
	case !domain.IsValid(e.WrittenAt, now, r.ttl):
		r.metrics.CacheLookups.WithLabelValues(layerStore, "stale").Inc()
		r.logger.Debug("cache entry stale", "key", key, "written_at", e.WrittenAt)
		return cache.Entry{}, false
	}

	r.metrics.CacheLookups.WithLabelValues(layerStore, "hit").Inc()
	return e, true
}

// acquire walks the providers strictly in order and falls back to a
// synthetic record when none yields core data.
func (r *Resolver) acquire(ctx context.Context, addr domain.AddressIdentity) (domain.PropertyRecord, []domain.Attempt) {
	attempts := make([]domain.Attempt, 0, len(r.providers))
	var failures []string

	for _, p := range r.providers {
		name := p.Name()

		if !p.Configured() {
			attempts = append(attempts, domain.Attempt{Provider: name, Outcome: domain.OutcomeUnconfigured})
			r.metrics.ProviderRequests.WithLabelValues(string(name), string(domain.OutcomeUnconfigured)).Inc()
			continue
		}

		start := r.clock.Now()
		partial, err := p.Fetch(ctx, addr)
		r.metrics.ProviderDuration.WithLabelValues(string(name)).Observe(r.clock.Since(start).Seconds())

		outcome := domain.OutcomeOf(partial, err)
		r.metrics.ProviderRequests.WithLabelValues(string(name), string(outcome)).Inc()

		attempt := domain.Attempt{Provider: name, Outcome: outcome, Missing: partial.Missing}
		if err != nil {
			attempt.Error = err.Error()
			attempt.Missing = nil
			failures = append(failures, err.Error())
			r.logProviderError(name, addr, err)
		} else {
			r.logger.Info("provider attempt", "provider", name, "outcome", outcome,
				"missing", len(partial.Missing), "duration", r.clock.Since(start))
		}
		attempts = append(attempts, attempt)

		if outcome == domain.OutcomeFound {
			record := partial.Record
			record.Address = addr
			record.DataSource = name
			record.AcquisitionError = strings.Join(failures, "; ")
			return record, attempts
		}
	}

	r.logger.Info("no provider returned data, using synthetic record", "address", addr.String())
	record := domain.SyntheticRecord(addr)
	record.AcquisitionError = strings.Join(failures, "; ")
	return record, attempts
}

func (r *Resolver) logProviderError(name domain.DataSource, addr domain.AddressIdentity, err error) {
	attrs := []any{"provider", name, "address", addr.String(), "error", err}
	var perr *domain.ProviderError
	if errors.As(err, &perr) && perr.StatusCode != 0 {
		attrs = append(attrs, "status", perr.StatusCode)
	}
	r.logger.Warn("provider attempt failed", attrs...)
}

func (r *Resolver) writeStore(ctx context.Context, e cache.Entry) {
	if r.store == nil {
		return
	}
	if err := r.store.Put(ctx, e); err != nil {
		r.metrics.CacheErrors.WithLabelValues("put").Inc()
		r.logger.Warn("cache store write failed, result not persisted",
			"op", "put", "key", e.Key, "error", err)
	}
}

func (r *Resolver) publish(ctx context.Context, res domain.Resolution) {
	if r.publisher == nil {
		return
	}
	if err := r.publisher.PublishResolution(ctx, res); err != nil {
		r.logger.Warn("publish resolution failed", "key", res.Record.Address.Key(), "error", err)
	}
}

// CacheStatistics counts durable entries by freshness. Without a store all
// counts are zero.
func (r *Resolver) CacheStatistics(ctx context.Context) (cache.Stats, error) {
	if r.store == nil {
		return cache.Stats{}, nil
	}
	st, err := r.store.Stats(ctx, domain.ExpiryCutoff(r.clock.Now(), r.ttl))
	if err != nil {
		r.metrics.CacheErrors.WithLabelValues("stats").Inc()
		return cache.Stats{}, err
	}
	return st, nil
}

// SweepExpired deletes every stale durable entry and returns the count.
// It is idempotent.
func (r *Resolver) SweepExpired(ctx context.Context) (int64, error) {
	if r.store == nil {
		return 0, nil
	}
	n, err := r.store.SweepExpired(ctx, domain.ExpiryCutoff(r.clock.Now(), r.ttl))
	if err != nil {
		r.metrics.CacheErrors.WithLabelValues("sweep").Inc()
		return 0, err
	}
	r.metrics.CacheSwept.Add(float64(n))
	r.logger.Info("expired cache entries swept", "removed", n, "ttl", r.ttl)
	return n, nil
}

// ProviderStatus reports whether a provider has a usable credential.
type ProviderStatus struct {
	Name       domain.DataSource `json:"name"`
	Configured bool              `json:"configured"`
}

// Providers lists providers in priority order.
func (r *Resolver) Providers() []ProviderStatus {
	out := make([]ProviderStatus, len(r.providers))
	for i, p := range r.providers {
		out[i] = ProviderStatus{Name: p.Name(), Configured: p.Configured()}
	}
	return out
}

// CheckReadiness pings the durable store. A resolver without one is always ready.
func (r *Resolver) CheckReadiness(ctx context.Context) error {
	if r.store == nil {
		return nil
	}
	return r.store.Ping(ctx)
}
