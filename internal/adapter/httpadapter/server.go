package httpadapter

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/bver-dev/bver/internal/cache"
	"github.com/bver-dev/bver/internal/domain"
	"github.com/bver-dev/bver/internal/fusion"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PropertyResolver is the fusion surface the HTTP handlers depend on.
type PropertyResolver interface {
	Resolve(ctx context.Context, addr domain.AddressIdentity) (domain.Resolution, error)
	CacheStatistics(ctx context.Context) (cache.Stats, error)
	SweepExpired(ctx context.Context) (int64, error)
	Providers() []fusion.ProviderStatus
	TTL() time.Duration
}

// Assessor scores a record with user corrections applied.
type Assessor interface {
	Assess(record domain.PropertyRecord, c domain.Corrections) (domain.AssessmentResult, error)
}

// Server exposes health, readiness, metrics, property lookup, assessment
// scoring and cache administration endpoints.
type Server struct {
	httpServer *http.Server
	resolver   PropertyResolver
	assessor   Assessor
	logger     *slog.Logger
}

// NewServer creates an HTTP server with all routes registered.
func NewServer(addr string, ready sharedobs.ReadinessChecker, resolver PropertyResolver, assessor Assessor, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      withRequestID(mux, logger),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		resolver: resolver,
		assessor: assessor,
		logger:   logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /api/property", s.handleProperty)
	mux.HandleFunc("POST /api/assessment", s.handleAssessment)
	mux.HandleFunc("GET /api/admin/cache", s.handleCacheStats)
	mux.HandleFunc("DELETE /api/admin/cache", s.handleCacheSweep)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}
