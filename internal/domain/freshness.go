package domain

import "time"

// DefaultCacheTTL is how long a cached record stays fresh.
const DefaultCacheTTL = 30 * 24 * time.Hour

// IsValid reports whether an entry written at writtenAt is still fresh at
// now. Freshness is the half-open interval [writtenAt, writtenAt+ttl).
func IsValid(writtenAt, now time.Time, ttl time.Duration) bool {
	return now.Sub(writtenAt) < ttl
}

// ExpiryCutoff returns the newest writtenAt that is already stale at now.
// Entries written at or before the cutoff are expired.
func ExpiryCutoff(now time.Time, ttl time.Duration) time.Time {
	return now.Add(-ttl)
}
