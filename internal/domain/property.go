package domain

import "encoding/json"

// DataSource names the single source whose fields populate a record.
type DataSource string

const (
	SourceRentCast  DataSource = "rentcast"
	SourceATTOM     DataSource = "attom"
	SourceSynthetic DataSource = "synthetic"
)

// PropertyRecord is the canonical fused representation of a property.
// Numeric fields are nil when unknown.
type PropertyRecord struct {
	Address AddressIdentity `json:"address"`

	AssessedValue       *float64 `json:"assessedValue"`
	MarketValueEstimate *float64 `json:"marketValueEstimate"`
	LastSalePrice       *float64 `json:"lastSalePrice"`
	LastSaleDate        string   `json:"lastSaleDate,omitempty"`
	SquareFeet          *float64 `json:"squareFeet"`
	YearBuilt           *int     `json:"yearBuilt"`
	Bedrooms            *int     `json:"bedrooms"`
	Bathrooms           *float64 `json:"bathrooms"`
	LotSize             *float64 `json:"lotSize"`
	PropertyType        string   `json:"propertyType,omitempty"`
	County              string   `json:"county,omitempty"`
	ParcelNumber        string   `json:"parcelNumber,omitempty"`
	TaxYear             *int     `json:"taxYear"`

	DataSource DataSource `json:"dataSource"`

	// Extended fields, passed through as the provider reported them.
	Owner                json.RawMessage `json:"owner,omitempty"`
	HOA                  json.RawMessage `json:"hoa,omitempty"`
	RentEstimate         *float64        `json:"rentEstimate,omitempty"`
	TaxAssessmentHistory json.RawMessage `json:"taxAssessmentHistory,omitempty"`
	SaleHistory          json.RawMessage `json:"saleHistory,omitempty"`

	// AcquisitionError records provider failures seen before this record was
	// produced. It never means the record itself is unusable.
	AcquisitionError string `json:"acquisitionError,omitempty"`
}

// HasCoreData reports whether at least one core field is populated.
// Records without core data are treated as empty by the resolver.
func (r PropertyRecord) HasCoreData() bool {
	switch {
	case r.AssessedValue != nil, r.MarketValueEstimate != nil, r.LastSalePrice != nil:
		return true
	case r.SquareFeet != nil, r.Bathrooms != nil, r.LotSize != nil:
		return true
	case r.YearBuilt != nil, r.Bedrooms != nil:
		return true
	case r.LastSaleDate != "", r.ParcelNumber != "":
		return true
	}
	return false
}

// Float returns a pointer to v.
func Float(v float64) *float64 { return &v }

// Int returns a pointer to v.
func Int(v int) *int { return &v }
