// Package attom adapts the ATTOM property detail API.
package attom

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
	// DefaultBaseURL is the ATTOM property API root.
	DefaultBaseURL = "https://api.attomdata.com/property/v4"

	placeholderKey = "your_attom_api_key"
	maxBodyRead    = 4096
)

// Client implements domain.Provider using ATTOM /property/detail.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates an ATTOM client. An empty baseURL uses DefaultBaseURL.
func NewClient(apiKey, baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		apiKey:     apiKey,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

func (c *Client) Name() domain.DataSource {
	return domain.SourceATTOM
}

func (c *Client) Configured() bool {
	return domain.CredentialConfigured(c.apiKey, placeholderKey)
}

func (c *Client) Fetch(ctx context.Context, addr domain.AddressIdentity) (domain.PartialRecord, error) {
	if !c.Configured() {
		return domain.PartialRecord{}, nil
	}

	params := url.Values{
		"address": {addr.Street},
		"city":    {addr.City},
		"state":   {addr.State},
		"zip":     {addr.ZipCode},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/property/detail?"+params.Encode(), nil)
	if err != nil {
		return domain.PartialRecord{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.PartialRecord{}, &domain.ProviderError{Provider: domain.SourceATTOM, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxBodyRead))
		return domain.PartialRecord{}, domain.NewStatusError(domain.SourceATTOM, resp.StatusCode, body)
	}

	var envelope domain.Payload
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(&envelope); err != nil {
		if errors.Is(err, io.EOF) {
			return domain.PartialRecord{}, nil
		}
		c.logger.Warn("attom response not decodable", "error", err)
		return domain.PartialRecord{}, nil
	}

	property, ok := propertyOf(envelope)
	if !ok {
		c.logger.Debug("attom returned no property", "address", addr.String())
		return domain.PartialRecord{}, nil
	}
	return mapProperty(addr, property), nil
}

// propertyOf unwraps envelope.property, which ATTOM returns as either an
// object or an array of objects depending on the endpoint version.
func propertyOf(envelope domain.Payload) (domain.Payload, bool) {
	raw, ok := envelope.Lookup("property")
	if !ok {
		return nil, false
	}
	switch t := raw.(type) {
	case map[string]any:
		return t, true
	case []any:
		if len(t) == 0 {
			return nil, false
		}
		obj, ok := t[0].(map[string]any)
		return obj, ok
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
		DataSource:          domain.SourceATTOM,
		Owner:               x.Raw("owner"),
	}

	return domain.PartialRecord{Record: rec, Missing: x.Missing()}
}

var (
	assessedValue = domain.FieldSpec{Name: "assessedValue", Aliases: []string{"assessment.assessed.assdTotalValue"}}
	marketValue   = domain.FieldSpec{Name: "marketValueEstimate", Aliases: []string{"assessment.market.mktTotalValue"}}
	lastSalePrice = domain.FieldSpec{Name: "lastSalePrice", Aliases: []string{"sale.amount.saleAmt"}}
	lastSaleDate  = domain.FieldSpec{Name: "lastSaleDate", Aliases: []string{"sale.amount.saleDate", "sale.saleTransDate"}}
	squareFeet    = domain.FieldSpec{Name: "squareFeet", Aliases: []string{"building.size.livingSize"}}
	yearBuilt     = domain.FieldSpec{Name: "yearBuilt", Aliases: []string{"building.construction.yearBuilt", "summary.yearBuilt"}}
	bedrooms      = domain.FieldSpec{Name: "bedrooms", Aliases: []string{"building.rooms.beds"}}
	bathrooms     = domain.FieldSpec{Name: "bathrooms", Aliases: []string{"building.rooms.bathsTotal"}}
	lotSize       = domain.FieldSpec{Name: "lotSize", Aliases: []string{"lot.lotSize"}}
	propertyType  = domain.FieldSpec{Name: "propertyType", Aliases: []string{"summary.propertyType"}}
	county        = domain.FieldSpec{Name: "county", Aliases: []string{"area.countrySecSubd"}}
	parcelNumber  = domain.FieldSpec{Name: "parcelNumber", Aliases: []string{"identifier.apn", "parcel.apn"}}
	taxYear       = domain.FieldSpec{Name: "taxYear", Aliases: []string{"assessment.assessed.assdYear", "assessment.tax.taxYear"}}
)
