// Package rentcast adapts the RentCast property records API.
package rentcast

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/bver-dev/bver/internal/domain"
)

const (
	// DefaultBaseURL is the RentCast v1 API root.
	DefaultBaseURL = "https://api.rentcast.io/v1"

	placeholderKey = "your_rentcast_api_key"

	// maxBodyRead bounds how much of an error body is read before truncation.
	maxBodyRead = 4096
)

// Client implements domain.Provider using the RentCast /properties endpoint.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a RentCast client. An empty baseURL uses DefaultBaseURL.
func NewClient(apiKey, baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		apiKey:  apiKey,
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

func (c *Client) Name() domain.DataSource {
	return domain.SourceRentCast
}

func (c *Client) Configured() bool {
	return domain.CredentialConfigured(c.apiKey, placeholderKey)
}

// Fetch looks up the property and maps the first returned record.
func (c *Client) Fetch(ctx context.Context, addr domain.AddressIdentity) (domain.PartialRecord, error) {
	if !c.Configured() {
		return domain.PartialRecord{}, nil
	}

	params := url.Values{
		"address": {addr.Street},
		"city":    {addr.City},
		"state":   {addr.State},
		"zipCode": {addr.ZipCode},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/properties?"+params.Encode(), nil)
	if err != nil {
		return domain.PartialRecord{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("X-Api-Key", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.PartialRecord{}, &domain.ProviderError{Provider: domain.SourceRentCast, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxBodyRead))
		return domain.PartialRecord{}, domain.NewStatusError(domain.SourceRentCast, resp.StatusCode, body)
	}

	var decoded any
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(&decoded); err != nil {
		if errors.Is(err, io.EOF) {
			return domain.PartialRecord{}, nil
		}
		c.logger.Warn("rentcast response not decodable", "error", err)
		return domain.PartialRecord{}, nil
	}

	property, ok := firstProperty(decoded)
	if !ok {
		c.logger.Debug("rentcast returned no properties", "address", addr.String())
		return domain.PartialRecord{}, nil
	}
	return mapProperty(addr, property), nil
}

// firstProperty accepts the documented array response and, defensively, a
// bare object.
func firstProperty(v any) (domain.Payload, bool) {
	switch t := v.(type) {
	case []any:
		if len(t) == 0 {
			return nil, false
		}
		obj, ok := t[0].(map[string]any)
		return obj, ok
	case map[string]any:
		return t, true
	}
	return nil, false
}

func mapProperty(addr domain.AddressIdentity, p domain.Payload) domain.PartialRecord {
	x := domain.NewExtraction(p)

	rec := domain.PropertyRecord{
		Address:             addr,
		AssessedValue:       x.Number(assessedValue),
		MarketValueEstimate: x.Number(marketValue),
		LastSalePrice:       x.Number(lastSalePrice),
		LastSaleDate:        x.Text(lastSaleDate),
		SquareFeet:          x.Number(squareFeet),
		YearBuilt:           x.Int(yearBuilt),
		Bedrooms:            x.Int(bedrooms),
		Bathrooms:           x.Number(bathrooms),
		LotSize:             x.Number(lotSize),
		PropertyType:        x.Text(propertyType),
		County:              x.Text(county),
		ParcelNumber:        x.Text(parcelNumber),
		TaxYear:             x.Int(taxYear),
		DataSource:          domain.SourceRentCast,

		Owner:                x.Raw("owner"),
		HOA:                  x.Raw("hoa"),
		RentEstimate:         x.OptionalNumber(rentEstimate),
		TaxAssessmentHistory: x.Raw("taxAssessments"),
		SaleHistory:          x.Raw("saleHistory", "history"),
	}

	return domain.PartialRecord{Record: rec, Missing: x.Missing()}
}
