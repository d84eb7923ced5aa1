package httpadapter

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/bver-dev/bver/internal/cache"
	"github.com/bver-dev/bver/internal/domain"
	"github.com/bver-dev/bver/internal/fusion"
)

const maxBodyBytes = 1 << 20

type errorResponse struct {
	Error     string   `json:"error"`
	Details   []string `json:"details,omitempty"`
	RequestID string   `json:"requestId,omitempty"`
}

type assessmentRequest struct {
	Property    domain.PropertyRecord `json:"property"`
	Corrections domain.Corrections    `json:"corrections"`
}

type assessmentResponse struct {
	Property   domain.PropertyRecord   `json:"property"`
	Assessment domain.AssessmentResult `json:"assessment"`
}

type cacheStatsResponse struct {
	Cache     cache.Stats             `json:"cache"`
	TTLDays   int                     `json:"ttlDays"`
	Providers []fusion.ProviderStatus `json:"providers"`
}

func (s *Server) handleProperty(w http.ResponseWriter, r *http.Request) {
	addr, err := addressFromQuery(r)
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, err.Error(), nil)
		return
	}

	res, err := s.resolver.Resolve(r.Context(), addr)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidAddress) {
			s.writeError(w, r, http.StatusBadRequest, err.Error(), nil)
			return
		}
		s.logger.Error("resolve property", "request_id", requestID(r.Context()), "error", err)
		s.writeError(w, r, http.StatusInternalServerError, "failed to resolve property", nil)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// addressFromQuery accepts either a free-form ?address= or the individual
// street, city, state and zip parameters.
func addressFromQuery(r *http.Request) (domain.AddressIdentity, error) {
	q := r.URL.Query()
	if full := strings.TrimSpace(q.Get("address")); full != "" {
		return domain.ParseAddress(full)
	}
	zip := q.Get("zip")
	if zip == "" {
		zip = q.Get("zipCode")
	}
	addr := domain.AddressIdentity{
		Street:  strings.TrimSpace(q.Get("street")),
		City:    strings.TrimSpace(q.Get("city")),
		State:   strings.TrimSpace(q.Get("state")),
		ZipCode: strings.TrimSpace(zip),
	}
	return addr, addr.Validate()
}

func (s *Server) handleAssessment(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, "read request body", nil)
		return
	}

	details, err := validateAssessment(body)
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, "request body is not valid JSON", nil)
		return
	}
	if len(details) > 0 {
		s.writeError(w, r, http.StatusBadRequest, "request body failed validation", details)
		return
	}

	var req assessmentRequest
	if err := json.Unmarshal(body, &req); err != nil {
		s.writeError(w, r, http.StatusBadRequest, "decode request body", nil)
		return
	}

	result, err := s.assessor.Assess(req.Property, req.Corrections)
	if err != nil {
		if errors.Is(err, domain.ErrMissingAssessedValue) {
			s.writeError(w, r, http.StatusBadRequest, err.Error(), nil)
			return
		}
		s.logger.Error("score assessment", "request_id", requestID(r.Context()), "error", err)
		s.writeError(w, r, http.StatusInternalServerError, "failed to score assessment", nil)
		return
	}

	writeJSON(w, http.StatusOK, assessmentResponse{
		Property:   domain.ApplyCorrections(req.Property, req.Corrections),
		Assessment: result,
	})
}

func (s *Server) handleCacheStats(w http.ResponseWriter, r *http.Request) {
	st, err := s.resolver.CacheStatistics(r.Context())
	if err != nil {
		s.logger.Warn("cache statistics", "request_id", requestID(r.Context()), "error", err)
		s.writeError(w, r, http.StatusServiceUnavailable, err.Error(), nil)
		return
	}
	writeJSON(w, http.StatusOK, cacheStatsResponse{
		Cache:     st,
		TTLDays:   int(s.resolver.TTL().Hours() / 24),
		Providers: s.resolver.Providers(),
	})
}

func (s *Server) handleCacheSweep(w http.ResponseWriter, r *http.Request) {
	n, err := s.resolver.SweepExpired(r.Context())
	if err != nil {
		s.logger.Warn("cache sweep", "request_id", requestID(r.Context()), "error", err)
		s.writeError(w, r, http.StatusServiceUnavailable, err.Error(), nil)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"removed": n})
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, msg string, details []string) {
	writeJSON(w, status, errorResponse{Error: msg, Details: details, RequestID: requestID(r.Context())})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
