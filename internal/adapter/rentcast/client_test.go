package rentcast

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bver-dev/bver/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testKey           = "rc-test-key"
	contentTypeJSON   = "application/json"
	headerContentType = "Content-Type"
)

var testAddr = domain.AddressIdentity{Street: "5500 Grand Lake Dr", City: "San Antonio", State: "TX", ZipCode: "78244"}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testClient(baseURL string) *Client {
	return NewClient(testKey, baseURL, 5*time.Second, discardLogger())
}

func serveJSON(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set(headerContentType, contentTypeJSON)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_Fetch_Request(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/properties", r.URL.Path)
		assert.Equal(t, testKey, r.Header.Get("X-Api-Key"))
		assert.Equal(t, contentTypeJSON, r.Header.Get("Accept"))

		q := r.URL.Query()
		assert.Equal(t, "5500 Grand Lake Dr", q.Get("address"))
		assert.Equal(t, "San Antonio", q.Get("city"))
		assert.Equal(t, "TX", q.Get("state"))
		assert.Equal(t, "78244", q.Get("zipCode"))

		w.Header().Set(headerContentType, contentTypeJSON)
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	got, err := testClient(srv.URL).Fetch(context.Background(), testAddr)
	require.NoError(t, err)
	assert.True(t, got.Empty())
}

func TestClient_Fetch_FlatFields(t *testing.T) {
	srv := serveJSON(t, `[{
		"assessedValue": 275000,
		"value": 301000,
		"lastSalePrice": 250000,
		"lastSaleDate": "2021-09-15T00:00:00.000Z",
		"squareFootage": 1878,
		"yearBuilt": 1973,
		"bedrooms": 3,
		"bathrooms": 2,
		"lotSize": 8843,
		"propertyType": "Single Family",
		"county": "Bexar",
		"assessorID": "05076-103-0500",
		"owner": {"names": ["Michael Smith"], "type": "Individual"},
		"hoa": {"fee": 175},
		"rent": 1850
	}]`)

	got, err := testClient(srv.URL).Fetch(context.Background(), testAddr)
	require.NoError(t, err)

	rec := got.Record
	assert.Equal(t, domain.SourceRentCast, rec.DataSource)
	assert.Equal(t, testAddr, rec.Address)
	assert.Equal(t, 275000.0, *rec.AssessedValue)
	assert.Equal(t, 301000.0, *rec.MarketValueEstimate)
	assert.Equal(t, 250000.0, *rec.LastSalePrice)
	assert.Equal(t, "2021-09-15T00:00:00.000Z", rec.LastSaleDate)
	assert.Equal(t, 1878.0, *rec.SquareFeet)
	assert.Equal(t, 1973, *rec.YearBuilt)
	assert.Equal(t, 3, *rec.Bedrooms)
	assert.Equal(t, 2.0, *rec.Bathrooms)
	assert.Equal(t, 8843.0, *rec.LotSize)
	assert.Equal(t, "Single Family", rec.PropertyType)
	assert.Equal(t, "Bexar", rec.County)
	assert.Equal(t, "05076-103-0500", rec.ParcelNumber)
	assert.Equal(t, 1850.0, *rec.RentEstimate)
	assert.JSONEq(t, `{"names":["Michael Smith"],"type":"Individual"}`, string(rec.Owner))
	assert.JSONEq(t, `{"fee":175}`, string(rec.HOA))
	assert.Nil(t, rec.TaxYear)
	assert.Equal(t, []string{"taxYear"}, got.Missing)
}

func TestClient_Fetch_HistoryContainers(t *testing.T) {
	srv := serveJSON(t, `[{
		"squareFootage": 2100,
		"taxAssessments": {
			"2022": {"year": 2022, "value": 301500, "land": 80000},
			"2024": {"year": 2024, "value": 344100, "land": 90000},
			"2023": {"year": 2023, "value": 325000, "land": 85000}
		},
		"history": {
			"2017-03-01": {"event": "Sale", "date": "2017-03-01T00:00:00.000Z", "price": 198000},
			"2020-11-20": {"event": "Sale", "date": "2020-11-20T00:00:00.000Z", "price": 265000}
		}
	}]`)

	got, err := testClient(srv.URL).Fetch(context.Background(), testAddr)
	require.NoError(t, err)

	rec := got.Record
	assert.Equal(t, 344100.0, *rec.AssessedValue)
	assert.Equal(t, 2024, *rec.TaxYear)
	assert.Equal(t, 265000.0, *rec.LastSalePrice)
	assert.Equal(t, "2020-11-20T00:00:00.000Z", rec.LastSaleDate)
	assert.NotEmpty(t, rec.TaxAssessmentHistory)
	assert.NotEmpty(t, rec.SaleHistory)
	assert.Contains(t, got.Missing, "marketValueEstimate")
	assert.NotContains(t, got.Missing, "assessedValue")
}

func TestClient_Fetch_SaleHistoryKeyFallback(t *testing.T) {
	srv := serveJSON(t, `[{"saleHistory": {"2019-05-01": {"amount": "310,000"}, "2015-01-10": {"amount": 1}}}]`)

	got, err := testClient(srv.URL).Fetch(context.Background(), testAddr)
	require.NoError(t, err)
	assert.Equal(t, 310000.0, *got.Record.LastSalePrice)
	assert.Equal(t, "2019-05-01", got.Record.LastSaleDate)
}

func TestClient_Fetch_TaxHistoryList(t *testing.T) {
	srv := serveJSON(t, `[{"taxHistory": [{"assessedValue": 199000}, {"assessedValue": 180000}]}]`)

	got, err := testClient(srv.URL).Fetch(context.Background(), testAddr)
	require.NoError(t, err)
	assert.Equal(t, 199000.0, *got.Record.AssessedValue)
}

func TestClient_Fetch_EmptyAndMalformed(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty array", `[]`},
		{"not json", `<html>oops</html>`},
		{"array of scalars", `[1, 2]`},
		{"object without fields", `[{"id": "abc", "formattedAddress": "5500 Grand Lake Dr"}]`},
		{"null", `null`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := serveJSON(t, tt.body)
			got, err := testClient(srv.URL).Fetch(context.Background(), testAddr)
			require.NoError(t, err)
			assert.True(t, got.Empty())
		})
	}
}

func TestClient_Fetch_NonOKSuccess(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		empty  bool
	}{
		{"no content", http.StatusNoContent, "", true},
		{"accepted with body", http.StatusAccepted, `[{"squareFootage": 1878, "bedrooms": 3}]`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			got, err := testClient(srv.URL).Fetch(context.Background(), testAddr)
			require.NoError(t, err)
			assert.Equal(t, tt.empty, got.Empty())
		})
	}
}

func TestClient_Fetch_StatusError(t *testing.T) {
	long := strings.Repeat("x", 500)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(long))
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Fetch(context.Background(), testAddr)
	require.Error(t, err)

	var perr *domain.ProviderError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, domain.SourceRentCast, perr.Provider)
	assert.Equal(t, http.StatusTooManyRequests, perr.StatusCode)
	assert.Len(t, perr.Body, 200)
	assert.True(t, strings.HasPrefix(err.Error(), "rentcast returned 429: "))
}

func TestClient_Fetch_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(testKey, srv.URL, 50*time.Millisecond, discardLogger())
	_, err := c.Fetch(context.Background(), testAddr)
	require.Error(t, err)

	var perr *domain.ProviderError
	require.True(t, errors.As(err, &perr))
	assert.Zero(t, perr.StatusCode)
}

func TestClient_Unconfigured(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		_ = json.NewEncoder(w).Encode([]map[string]any{{"assessedValue": 1}})
	}))
	defer srv.Close()

	for _, key := range []string{"", "   ", "your_rentcast_api_key"} {
		c := NewClient(key, srv.URL, time.Second, discardLogger())
		assert.False(t, c.Configured())

		got, err := c.Fetch(context.Background(), testAddr)
		require.NoError(t, err)
		assert.True(t, got.Empty())
	}
	assert.Zero(t, calls.Load(), "unconfigured client must not call the API")
}

func TestNewClient_DefaultBaseURL(t *testing.T) {
	c := NewClient(testKey, "", time.Second, discardLogger())
	assert.Equal(t, DefaultBaseURL, c.baseURL)
	assert.Equal(t, domain.SourceRentCast, c.Name())
	assert.True(t, c.Configured())
}
