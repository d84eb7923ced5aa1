package domain

import (
	"context"
	"strings"
	"time"
)

// Provider fetches a property record from one external data source.
type Provider interface {
	// Name identifies the provider and is stamped as the record's DataSource.
	Name() DataSource

	// Configured is false when the credential is absent or a known
	// placeholder. Unconfigured providers are never called.
	Configured() bool

	// Fetch returns the provider's view of the property. A malformed or empty
	// response yields an empty PartialRecord and a nil error; transport and
	// non-2xx failures return a *ProviderError.
	Fetch(ctx context.Context, addr AddressIdentity) (PartialRecord, error)
}

// PartialRecord is one provider's extraction result along with the names
// of canonical fields it could not find.
type PartialRecord struct {
	Record  PropertyRecord
	Missing []string
}

// Empty reports whether no core field was extracted.
func (p PartialRecord) Empty() bool {
	return !p.Record.HasCoreData()
}

// Outcome classifies a single provider attempt.
type Outcome string

const (
	OutcomeFound        Outcome = "found"
	OutcomeEmpty        Outcome = "empty"
	OutcomeUnconfigured Outcome = "unconfigured"
	OutcomeFailed       Outcome = "failed"
)

// OutcomeOf maps a Fetch result onto an Outcome.
func OutcomeOf(p PartialRecord, err error) Outcome {
	switch {
	case err != nil:
		return OutcomeFailed
	case p.Empty():
		return OutcomeEmpty
	default:
		return OutcomeFound
	}
}

// Attempt is the provenance of one provider call within a resolution.
type Attempt struct {
	Provider DataSource `json:"provider"`
	Outcome  Outcome    `json:"outcome"`
	Missing  []string   `json:"missing,omitempty"`
	Error    string     `json:"error,omitempty"`
}

// Resolution is the result of resolving an address to a canonical record.
type Resolution struct {
	Record     PropertyRecord `json:"property"`
	FromCache  bool           `json:"fromCache"`
	CacheLayer string         `json:"cacheLayer,omitempty"` // "memo" or "store"
	Attempts   []Attempt      `json:"attempts,omitempty"`
	ResolvedAt time.Time      `json:"resolvedAt"`
}

// CredentialConfigured reports whether key is set and differs from the
// template placeholder shipped in sample env files.
func CredentialConfigured(key, placeholder string) bool {
	key = strings.TrimSpace(key)
	return key != "" && key != placeholder
}
