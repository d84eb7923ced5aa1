package rentcast

import "github.com/bver-dev/bver/internal/domain"

// Field locations in a RentCast property record. RentCast has renamed fields
// across API revisions, so every canonical field lists each name seen.

var saleContainers = []string{"saleHistory", "history"}

func saleHistory(aliases []string, keyFallback bool) []domain.Container {
	out := make([]domain.Container, 0, len(saleContainers))
	for _, path := range saleContainers {
		out = append(out, domain.Container{
			Path:        path,
			Kind:        domain.KeyedByDate,
			Aliases:     aliases,
			KeyFallback: keyFallback,
		})
	}
	return out
}

var (
	assessedValue = domain.FieldSpec{
		Name:    "assessedValue",
		Aliases: []string{"assessedValue", "taxAssessedValue", "assessmentTotal", "assessment"},
		Containers: []domain.Container{
			{Path: "taxAssessments", Kind: domain.KeyedByYear, Aliases: []string{"value", "totalValue", "assessedValue", "total"}},
			{Path: "taxHistory", Kind: domain.Listed, Aliases: []string{"assessedValue", "value"}},
		},
	}

	taxYear = domain.FieldSpec{
		Name:    "taxYear",
		Aliases: []string{"taxYear"},
		Containers: []domain.Container{
			{Path: "taxAssessments", Kind: domain.KeyedByYear, Aliases: []string{"year"}, KeyFallback: true},
		},
	}

	lastSalePrice = domain.FieldSpec{
		Name:       "lastSalePrice",
		Aliases:    []string{"lastSalePrice", "lastSoldPrice"},
		Containers: saleHistory([]string{"price", "amount"}, false),
	}

	lastSaleDate = domain.FieldSpec{
		Name:       "lastSaleDate",
		Aliases:    []string{"lastSaleDate", "lastSoldDate"},
		Containers: saleHistory([]string{"date", "saleDate"}, true),
	}

	marketValue  = domain.FieldSpec{Name: "marketValueEstimate", Aliases: []string{"value", "estimatedValue"}}
	squareFeet   = domain.FieldSpec{Name: "squareFeet", Aliases: []string{"squareFootage", "livingArea", "buildingSize"}}
	yearBuilt    = domain.FieldSpec{Name: "yearBuilt", Aliases: []string{"yearBuilt", "yearConstructed"}}
	bedrooms     = domain.FieldSpec{Name: "bedrooms", Aliases: []string{"bedrooms", "beds", "bedroomCount"}}
	bathrooms    = domain.FieldSpec{Name: "bathrooms", Aliases: []string{"bathrooms", "baths", "bathroomCount"}}
	lotSize      = domain.FieldSpec{Name: "lotSize", Aliases: []string{"lotSize", "lotSquareFootage"}}
	propertyType = domain.FieldSpec{Name: "propertyType", Aliases: []string{"propertyType", "type"}}
	county       = domain.FieldSpec{Name: "county", Aliases: []string{"county", "countyName"}}
	parcelNumber = domain.FieldSpec{Name: "parcelNumber", Aliases: []string{"apn", "parcelNumber", "parcelId", "assessorID"}}
	rentEstimate = domain.FieldSpec{Name: "rentEstimate", Aliases: []string{"rentEstimate", "rent"}}
)
