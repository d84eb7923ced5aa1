package domain

import (
	"fmt"
	"math"
	"unicode/utf16"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// addressHash sums the UTF-16 code units of the normalized street and city.
func addressHash(addr AddressIdentity) int {
	n := addr.Normalize()
	sum := 0
	for _, u := range utf16.Encode([]rune(n.Street + n.City)) {
		sum += int(u)
	}
	return sum
}

// SyntheticRecord derives a complete record from the address alone. It is a
// pure function: the same normalized street and city always produce the same
// record, with no network access and no dependence on the clock.
func SyntheticRecord(addr AddressIdentity) PropertyRecord {
	hash := addressHash(addr)
	n := addr.Normalize()

	base := float64(200000 + (hash*1000)%800000)

	propertyType := "Single Family"
	switch {
	case hash%5 == 0:
		propertyType = "Condo"
	case hash%7 == 0:
		propertyType = "Townhouse"
	}

	var county string
	if n.City != "" {
		county = cases.Title(language.English).String(n.City) + " County"
	}

	return PropertyRecord{
		Address:             addr,
		AssessedValue:       Float(math.Round(base * 1.15)),
		MarketValueEstimate: Float(base),
		LastSalePrice:       Float(math.Round(base * 0.85)),
		LastSaleDate:        fmt.Sprintf("%d-%02d-15", 2020+hash%4, hash%12+1),
		SquareFeet:          Float(float64(1200 + hash%3000)),
		YearBuilt:           Int(1950 + hash%70),
		Bedrooms:            Int(2 + hash%4),
		Bathrooms:           Float(float64(1+hash%3) + 0.5*float64(hash%2)),
		LotSize:             Float(float64(5000 + hash%15000)),
		PropertyType:        propertyType,
		County:              county,
		ParcelNumber:        fmt.Sprintf("%s-%04d-%02d", n.ZipCode, hash%10000, hash%100),
		DataSource:          SourceSynthetic,
	}
}
