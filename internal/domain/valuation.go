package domain

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Viability is the appeal-worthiness tier.
type Viability string

const (
	ViabilityHigh   Viability = "high"
	ViabilityMedium Viability = "medium"
	ViabilityLow    Viability = "low"
	ViabilityNone   Viability = "none"
)

const (
	// averageTaxRate converts an over-assessment into annual savings.
	averageTaxRate = 0.012

	renovationPremium = 1.08
	maxConfidence     = 95
	baseConfidence    = 50
	daysPerYear       = 365
)

// pricePerSquareFoot is the regional baseline by property type.
var pricePerSquareFoot = map[string]float64{
	"Single Family": 450,
	"Condo":         550,
	"Townhouse":     400,
	"Multi-Family":  350,
}

const defaultPricePerSquareFoot = 400

var conditionMultipliers = map[string]float64{
	"excellent": 1.15,
	"good":      1.0,
	"fair":      0.85,
	"poor":      0.70,
}

// Corrections are user-supplied overrides applied on top of a fused record
// before scoring. Nil fields keep the record's value.
type Corrections struct {
	AssessedValue *float64 `json:"assessedValue,omitempty"`
	LastSalePrice *float64 `json:"lastSalePrice,omitempty"`
	LastSaleDate  *string  `json:"lastSaleDate,omitempty"`
	SquareFeet    *float64 `json:"squareFeet,omitempty"`
	YearBuilt     *int     `json:"yearBuilt,omitempty"`
	Bedrooms      *int     `json:"bedrooms,omitempty"`
	Bathrooms     *float64 `json:"bathrooms,omitempty"`
	PropertyType  *string  `json:"propertyType,omitempty"`

	// Condition is one of excellent, good, fair or poor.
	Condition         string `json:"condition,omitempty"`
	RecentRenovations bool   `json:"recentRenovations,omitempty"`
	AdditionalNotes   string `json:"additionalNotes,omitempty"`
}

// ApplyCorrections overlays c on r and returns the corrected copy.
func ApplyCorrections(r PropertyRecord, c Corrections) PropertyRecord {
	if c.AssessedValue != nil {
		r.AssessedValue = c.AssessedValue
	}
	if c.LastSalePrice != nil {
		r.LastSalePrice = c.LastSalePrice
	}
	if c.LastSaleDate != nil {
		r.LastSaleDate = *c.LastSaleDate
	}
	if c.SquareFeet != nil {
		r.SquareFeet = c.SquareFeet
	}
	if c.YearBuilt != nil {
		r.YearBuilt = c.YearBuilt
	}
	if c.Bedrooms != nil {
		r.Bedrooms = c.Bedrooms
	}
	if c.Bathrooms != nil {
		r.Bathrooms = c.Bathrooms
	}
	if c.PropertyType != nil {
		r.PropertyType = *c.PropertyType
	}
	return r
}

// AssessmentResult is the appeal-viability verdict for a property.
type AssessmentResult struct {
	Viability                Viability `json:"viability"`
	OverAssessmentAmount     float64   `json:"overAssessmentAmount"`
	OverAssessmentPercentage float64   `json:"overAssessmentPercentage"`
	EstimatedSavings         float64   `json:"estimatedSavings"`
	Confidence               int       `json:"confidence"`
	Reasons                  []string  `json:"reasons"`
	CurrentAssessment        float64   `json:"currentAssessment"`
	EstimatedMarketValue     float64   `json:"estimatedMarketValue"`
	Recommendation           string    `json:"recommendation"`
}

// ScoreAssessment scores a record using the package clock.
func ScoreAssessment(r PropertyRecord, c Corrections) (AssessmentResult, error) {
	return Score(r, c, clock.Now())
}

// Score applies corrections to r and computes the assessment at now.
// It returns ErrMissingAssessedValue when the corrected record has no
// positive assessed value.
func Score(r PropertyRecord, c Corrections, now time.Time) (AssessmentResult, error) {
	r = ApplyCorrections(r, c)
	if r.AssessedValue == nil || *r.AssessedValue <= 0 {
		return AssessmentResult{}, ErrMissingAssessedValue
	}
	assessed := *r.AssessedValue
	condition := strings.ToLower(strings.TrimSpace(c.Condition))

	market := EstimateMarketValue(r, condition, c.RecentRenovations, now)
	over := math.Max(0, assessed-market)
	pct := over / assessed * 100
	savings := over * averageTaxRate
	viability := ViabilityFor(pct)

	return AssessmentResult{
		Viability:                viability,
		OverAssessmentAmount:     over,
		OverAssessmentPercentage: pct,
		EstimatedSavings:         savings,
		Confidence:               confidence(r, condition, now),
		Reasons:                  reasons(r, condition, c.RecentRenovations, pct, now),
		CurrentAssessment:        assessed,
		EstimatedMarketValue:     market,
		Recommendation:           recommendation(viability, pct, savings),
	}, nil
}

// EstimateMarketValue runs the five valuation steps in order and rounds to
// the nearest whole unit. r.AssessedValue must be set.
func EstimateMarketValue(r PropertyRecord, condition string, renovated bool, now time.Time) float64 {
	market := *r.AssessedValue

	if years, ok := yearsSinceSale(r, now); ok {
		switch {
		case years < 2:
			market = *r.LastSalePrice * 1.05
		case years < 5:
			market = *r.LastSalePrice * (1 + years*0.025)
		}
	}

	if r.SquareFeet != nil && *r.SquareFeet > 0 {
		bySize := *r.SquareFeet * RegionalPricePerSquareFoot(r.PropertyType)
		market = (market + bySize) / 2
	}

	if m, ok := conditionMultipliers[condition]; ok {
		market *= m
	}

	if renovated {
		market *= renovationPremium
	}

	if age, ok := buildingAge(r, now); ok {
		switch {
		case age > 50:
			market *= 0.95
		case age < 5:
			market *= 1.05
		}
	}

	return math.Round(market)
}

// RegionalPricePerSquareFoot returns the baseline price for a property type.
func RegionalPricePerSquareFoot(propertyType string) float64 {
	if p, ok := pricePerSquareFoot[propertyType]; ok {
		return p
	}
	return defaultPricePerSquareFoot
}

// ViabilityFor maps an over-assessment percentage to a tier. Boundaries
// fall into the lower tier.
func ViabilityFor(pct float64) Viability {
	switch {
	case pct > 15:
		return ViabilityHigh
	case pct > 8:
		return ViabilityMedium
	case pct > 3:
		return ViabilityLow
	default:
		return ViabilityNone
	}
}

func yearsSinceSale(r PropertyRecord, now time.Time) (float64, bool) {
	if r.LastSalePrice == nil || *r.LastSalePrice <= 0 {
		return 0, false
	}
	sold, ok := ParseDate(r.LastSaleDate)
	if !ok {
		return 0, false
	}
	return now.Sub(sold).Hours() / 24 / daysPerYear, true
}

func buildingAge(r PropertyRecord, now time.Time) (int, bool) {
	if r.YearBuilt == nil || *r.YearBuilt <= 0 {
		return 0, false
	}
	return now.Year() - *r.YearBuilt, true
}

func confidence(r PropertyRecord, condition string, now time.Time) int {
	score := baseConfidence

	if years, ok := yearsSinceSale(r, now); ok {
		switch {
		case years < 2:
			score += 25
		case years < 5:
			score += 15
		}
	}
	if r.SquareFeet != nil && *r.SquareFeet > 0 {
		score += 10
	}
	if r.Bedrooms != nil && *r.Bedrooms > 0 && r.Bathrooms != nil && *r.Bathrooms > 0 {
		score += 10
	}
	if condition != "" {
		score += 5
	}

	return min(maxConfidence, score)
}

func reasons(r PropertyRecord, condition string, renovated bool, pct float64, now time.Time) []string {
	var out []string

	if pct > 10 {
		out = append(out, fmt.Sprintf("Your property is assessed %.1f%% above estimated market value", pct))
	}
	if r.LastSalePrice != nil && *r.LastSalePrice > 0 && *r.LastSalePrice < *r.AssessedValue*0.9 {
		out = append(out, "Recent sale price significantly lower than current assessment")
	}
	if condition == "fair" || condition == "poor" {
		out = append(out, fmt.Sprintf("Property condition (%s) not reflected in assessment", condition))
	}
	if age, ok := buildingAge(r, now); ok {
		if age > 40 {
			out = append(out, fmt.Sprintf("Property age (%d years) may warrant depreciation adjustment", age))
		}
		if !renovated && age > 20 {
			out = append(out, "No recent renovations to justify high assessment")
		}
	}

	if len(out) == 0 {
		if pct > 0 {
			return []string{"Minor over-assessment detected"}
		}
		return []string{"Assessment appears to be in line with market value"}
	}
	return out
}

func recommendation(v Viability, pct, savings float64) string {
	switch v {
	case ViabilityHigh:
		return fmt.Sprintf("Strong appeal recommended. With %.1f%% over-assessment, you could save approximately $%.0f annually. File your appeal as soon as possible.", pct, savings)
	case ViabilityMedium:
		return fmt.Sprintf("Appeal is worthwhile. Your %.1f%% over-assessment could result in $%.0f annual savings. Consider filing an appeal.", pct, savings)
	case ViabilityLow:
		return fmt.Sprintf("Appeal may be beneficial. While the %.1f%% over-assessment is modest, you could still save $%.0f annually.", pct, savings)
	default:
		return "Appeal not recommended at this time. Your assessment appears to be in line with market value. Monitor your assessment annually for changes."
	}
}
