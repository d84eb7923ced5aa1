package httpadapter_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bver-dev/bver/internal/adapter/httpadapter"
	"github.com/bver-dev/bver/internal/cache"
	"github.com/bver-dev/bver/internal/domain"
	"github.com/bver-dev/bver/internal/fusion"
	"github.com/bver-dev/bver/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockReadiness struct {
	err error
}

func (m *mockReadiness) CheckReadiness(_ context.Context) error { return m.err }

type mockResolver struct {
	resolved []domain.AddressIdentity
	stats    cache.Stats
	swept    int64
	err      error
}

func (m *mockResolver) Resolve(_ context.Context, addr domain.AddressIdentity) (domain.Resolution, error) {
	if err := addr.Validate(); err != nil {
		return domain.Resolution{}, err
	}
	m.resolved = append(m.resolved, addr)
	if m.err != nil {
		return domain.Resolution{}, m.err
	}
	return domain.Resolution{Record: domain.SyntheticRecord(addr)}, nil
}

func (m *mockResolver) CacheStatistics(context.Context) (cache.Stats, error) { return m.stats, m.err }
func (m *mockResolver) SweepExpired(context.Context) (int64, error)         { return m.swept, m.err }
func (m *mockResolver) TTL() time.Duration                                  { return domain.DefaultCacheTTL }

func (m *mockResolver) Providers() []fusion.ProviderStatus {
	return []fusion.ProviderStatus{
		{Name: domain.SourceRentCast, Configured: true},
		{Name: domain.SourceATTOM, Configured: false},
	}
}

func newTestServer(readyErr error, resolver *mockResolver) *httpadapter.Server {
	assessor := fusion.NewAssessor(slog.Default(), observability.NewMetricsForTesting())
	return httpadapter.NewServer(":0", &mockReadiness{err: readyErr}, resolver, assessor, slog.Default())
}

func do(srv *httpadapter.Server, method, target, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	srv.ServeHTTP(rec, req)
	return rec
}

func TestHealthzReturns200(t *testing.T) {
	rec := do(newTestServer(nil, &mockResolver{}), http.MethodGet, "/healthz", "")

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestReadyzReturns200WhenReady(t *testing.T) {
	rec := do(newTestServer(nil, &mockResolver{}), http.MethodGet, "/readyz", "")

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ready", body["status"])
}

func TestReadyzReturns503WhenNotReady(t *testing.T) {
	rec := do(newTestServer(fmt.Errorf("cache store unreachable"), &mockResolver{}), http.MethodGet, "/readyz", "")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "not ready", body["status"])
	assert.Equal(t, "cache store unreachable", body["error"])
}

func TestMetricsEndpoint(t *testing.T) {
	rec := do(newTestServer(nil, &mockResolver{}), http.MethodGet, "/metrics", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestRequestIDEchoed(t *testing.T) {
	srv := newTestServer(nil, &mockResolver{})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set("X-Request-ID", "req-42")

	srv.ServeHTTP(rec, req)
	assert.Equal(t, "req-42", rec.Header().Get("X-Request-ID"))
}

func TestPropertyLookup_FreeForm(t *testing.T) {
	resolver := &mockResolver{}
	rec := do(newTestServer(nil, resolver), http.MethodGet, "/api/property?address=123+Main+St,+Austin,+TX+78701", "")

	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, resolver.resolved, 1)
	assert.Equal(t, domain.AddressIdentity{Street: "123 Main St", City: "Austin", State: "TX", ZipCode: "78701"}, resolver.resolved[0])

	var res domain.Resolution
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, domain.SourceSynthetic, res.Record.DataSource)
	assert.NotNil(t, res.Record.AssessedValue)
}

func TestPropertyLookup_Parts(t *testing.T) {
	resolver := &mockResolver{}
	rec := do(newTestServer(nil, resolver), http.MethodGet, "/api/property?street=9+Elm+Rd&city=Boise&state=ID&zip=83702", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "83702", resolver.resolved[0].ZipCode)
}

func TestPropertyLookup_MissingStreet(t *testing.T) {
	resolver := &mockResolver{}
	rec := do(newTestServer(nil, resolver), http.MethodGet, "/api/property?city=Boise", "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, resolver.resolved)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body["error"], "street address is required")
	assert.NotEmpty(t, body["requestId"])
}

func TestPropertyLookup_ResolveFailure(t *testing.T) {
	rec := do(newTestServer(nil, &mockResolver{err: errors.New("boom")}), http.MethodGet, "/api/property?street=1+A+St", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestAssessment_Scores(t *testing.T) {
	body := `{
		"property": {"assessedValue": 600000, "squareFeet": 1200, "dataSource": "attom"},
		"corrections": {"condition": "good"}
	}`
	rec := do(newTestServer(nil, &mockResolver{}), http.MethodPost, "/api/assessment", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Property   domain.PropertyRecord   `json:"property"`
		Assessment domain.AssessmentResult `json:"assessment"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, domain.ViabilityMedium, resp.Assessment.Viability)
	assert.InDelta(t, 540000.0, resp.Assessment.EstimatedMarketValue, 0.001)
	assert.InDelta(t, 10.0, resp.Assessment.OverAssessmentPercentage, 0.0001)
	assert.Equal(t, 65, resp.Assessment.Confidence)
}

func TestAssessment_CorrectionsApplied(t *testing.T) {
	body := `{"property": {"assessedValue": null}, "corrections": {"assessedValue": 500000}}`
	rec := do(newTestServer(nil, &mockResolver{}), http.MethodPost, "/api/assessment", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"assessedValue":500000`)
}

func TestAssessment_MissingAssessedValue(t *testing.T) {
	rec := do(newTestServer(nil, &mockResolver{}), http.MethodPost, "/api/assessment", `{"property": {"squareFeet": 1500}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "assessed value")
}

func TestAssessment_SchemaViolations(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing property", `{"corrections": {}}`},
		{"string assessed value", `{"property": {"assessedValue": "lots"}}`},
		{"unknown condition", `{"property": {"assessedValue": 1}, "corrections": {"condition": "haunted"}}`},
		{"negative square feet", `{"property": {"assessedValue": 1, "squareFeet": -10}}`},
		{"renovations not bool", `{"property": {"assessedValue": 1}, "corrections": {"recentRenovations": "yes"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(newTestServer(nil, &mockResolver{}), http.MethodPost, "/api/assessment", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)

			var body map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, "request body failed validation", body["error"])
			assert.NotEmpty(t, body["details"])
		})
	}
}

func TestAssessment_NotJSON(t *testing.T) {
	rec := do(newTestServer(nil, &mockResolver{}), http.MethodPost, "/api/assessment", `property=1`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCacheAdmin_Stats(t *testing.T) {
	resolver := &mockResolver{stats: cache.Stats{TotalEntries: 5, ValidEntries: 3, ExpiredEntries: 2}}
	rec := do(newTestServer(nil, resolver), http.MethodGet, "/api/admin/cache", "")
	require.Equal(t, http.StatusOK, rec.Code)

	assert.JSONEq(t, `{
		"cache": {"totalEntries": 5, "validEntries": 3, "expiredEntries": 2},
		"ttlDays": 30,
		"providers": [
			{"name": "rentcast", "configured": true},
			{"name": "attom", "configured": false}
		]
	}`, rec.Body.String())
}

func TestCacheAdmin_Sweep(t *testing.T) {
	rec := do(newTestServer(nil, &mockResolver{swept: 7}), http.MethodDelete, "/api/admin/cache", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"removed": 7}`, rec.Body.String())
}

func TestCacheAdmin_StoreUnavailable(t *testing.T) {
	resolver := &mockResolver{err: domain.ErrCacheUnavailable}
	srv := newTestServer(nil, resolver)

	assert.Equal(t, http.StatusServiceUnavailable, do(srv, http.MethodGet, "/api/admin/cache", "").Code)
	assert.Equal(t, http.StatusServiceUnavailable, do(srv, http.MethodDelete, "/api/admin/cache", "").Code)
}

func TestMethodNotAllowed(t *testing.T) {
	rec := do(newTestServer(nil, &mockResolver{}), http.MethodPost, "/api/property", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
