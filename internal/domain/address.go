package domain

import (
	"fmt"
	"strings"
)

// AddressIdentity is the lookup key for a property.
type AddressIdentity struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zipCode"`
}

// Normalize lowercases every part, trims it and collapses internal whitespace.
func (a AddressIdentity) Normalize() AddressIdentity {
	return AddressIdentity{
		Street:  normalizePart(a.Street),
		City:    normalizePart(a.City),
		State:   normalizePart(a.State),
		ZipCode: normalizePart(a.ZipCode),
	}
}

// Key returns the cache key for the address. Identities that normalize to the
// same parts always share a key.
func (a AddressIdentity) Key() string {
	n := a.Normalize()
	key := strings.Join([]string{n.Street, n.City, n.State, n.ZipCode}, "_")
	return strings.ReplaceAll(key, " ", "_")
}

// Validate reports ErrInvalidAddress when the street is blank.
func (a AddressIdentity) Validate() error {
	if strings.TrimSpace(a.Street) == "" {
		return ErrInvalidAddress
	}
	return nil
}

// String formats the address as "street, city, ST zip".
func (a AddressIdentity) String() string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(a.Street))
	if city := strings.TrimSpace(a.City); city != "" {
		b.WriteString(", ")
		b.WriteString(city)
	}
	stateZip := strings.TrimSpace(strings.TrimSpace(a.State) + " " + strings.TrimSpace(a.ZipCode))
	if stateZip != "" {
		b.WriteString(", ")
		b.WriteString(stateZip)
	}
	return b.String()
}

// ParseAddress splits a free-form "street, city, ST zip" string. Missing
// trailing components are left empty.
func ParseAddress(s string) (AddressIdentity, error) {
	parts := strings.Split(s, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	var addr AddressIdentity
	addr.Street = parts[0]
	if len(parts) > 1 {
		addr.City = parts[1]
	}
	if len(parts) > 2 {
		fields := strings.Fields(parts[2])
		if len(fields) > 0 {
			addr.State = fields[0]
		}
		if len(fields) > 1 {
			addr.ZipCode = fields[1]
		}
	}

	if err := addr.Validate(); err != nil {
		return AddressIdentity{}, fmt.Errorf("parse address %q: %w", s, err)
	}
	return addr, nil
}

func normalizePart(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}
