// Package cache defines the durable Cache Store contract and the
// process-local memo that shadows it.
package cache

import (
	"context"
	"time"

	"github.com/bver-dev/bver/internal/domain"
)

// Entry is one cached fusion result. Entries are replaced whole on every
// write and never mutated in place.
type Entry struct {
	Key        string                 `json:"key"`
	Address    domain.AddressIdentity `json:"address"`
	DataSource domain.DataSource      `json:"dataSource"`
	Payload    domain.PropertyRecord  `json:"payload"`
	WrittenAt  time.Time              `json:"writtenAt"`
}

// NewEntry wraps a fused record for storage.
func NewEntry(record domain.PropertyRecord, writtenAt time.Time) Entry {
	return Entry{
		Key:        record.Address.Key(),
		Address:    record.Address,
		DataSource: record.DataSource,
		Payload:    record,
		WrittenAt:  writtenAt.UTC(),
	}
}

// Stats summarizes store contents relative to an expiry cutoff.
type Stats struct {
	TotalEntries   int64 `json:"totalEntries"`
	ValidEntries   int64 `json:"validEntries"`
	ExpiredEntries int64 `json:"expiredEntries"`
}

// Store is a durable record store keyed by address identity.
//
// Implementations wrap connectivity failures with domain.ErrCacheUnavailable.
type Store interface {
	// Get returns the entry for key regardless of age. The bool is false
	// when no entry exists.
	Get(ctx context.Context, key string) (Entry, bool, error)

	// Put upserts e, fully replacing any entry with the same key.
	Put(ctx context.Context, e Entry) error

	// SweepExpired deletes every entry written at or before cutoff and
	// returns how many were removed.
	SweepExpired(ctx context.Context, cutoff time.Time) (int64, error)

	// Stats counts entries; those written after cutoff are valid.
	Stats(ctx context.Context, cutoff time.Time) (Stats, error)

	// Ping checks connectivity.
	Ping(ctx context.Context) error
}
