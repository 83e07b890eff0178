package model

import "time"

// CacheEntry is one row of the scalar item cache: a key (an item's
// market name, or an account id for whole-snapshot values) mapped to an
// opaque value and the time it was last written. Staleness is decided
// at read time against the configured TTL; stale rows stay on disk.
type CacheEntry struct {
	Key         string    `json:"key"`
	Value       []byte    `json:"value"`
	LastUpdated time.Time `json:"last_updated"`
}

// IsStale reports whether the entry's age exceeds ttl. A zero ttl
// disables the check.
func (e *CacheEntry) IsStale(ttl time.Duration, now time.Time) bool {
	if ttl <= 0 {
		return false
	}
	return now.Sub(e.LastUpdated) > ttl
}
