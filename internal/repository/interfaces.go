package repository

import (
	"context"
	"time"

	"steamvault-rest-api/internal/model"
)

// SnapshotStore defines inventory snapshot data access methods.
// One row per steam_id; upserts are idempotent by primary key.
type SnapshotStore interface {
	// UpsertSnapshot inserts or replaces the snapshot for a steam id.
	UpsertSnapshot(ctx context.Context, steamID string, itemCount int, rawJSON []byte) error

	// GetSnapshot retrieves the latest snapshot for a steam id.
	// Returns nil without error when absent.
	GetSnapshot(ctx context.Context, steamID string) (*model.Snapshot, error)

	// BatchUpsertSnapshots inserts or replaces multiple snapshots efficiently.
	BatchUpsertSnapshots(ctx context.Context, items []model.SnapshotWrite) error

	// Leaderboard returns snapshot summaries ordered by item count descending.
	Leaderboard(ctx context.Context, limit, offset int) ([]model.SnapshotSummary, int64, error)

	// DeleteStaleSnapshots deletes snapshots not synced within the threshold.
	DeleteStaleSnapshots(ctx context.Context, threshold time.Duration) (int64, error)

	// GetStats returns statistics about the snapshot store.
	GetStats(ctx context.Context) (map[string]interface{}, error)

	// Close closes the store connection.
	Close() error
}

// ItemCacheStore defines the scalar key/value cache. Rows are never
// evicted on write; staleness is decided lazily on read.
type ItemCacheStore interface {
	// GetCacheEntry retrieves an entry. Returns nil without error when
	// absent, or when ttl > 0 and the entry's age exceeds it (the row
	// stays physically present).
	GetCacheEntry(ctx context.Context, key string, ttl time.Duration) (*model.CacheEntry, error)

	// PutCacheEntry upserts value under key, refreshing the timestamp
	// atomically via the engine's native conflict resolution.
	PutCacheEntry(ctx context.Context, key string, value []byte) error

	// ClearCache deletes every cache entry unconditionally.
	// Returns the number of rows removed.
	ClearCache(ctx context.Context) (int64, error)
}

// APIKeyRepository defines api key account data access methods.
type APIKeyRepository interface {
	// GetAPIKeyBySteamID finds the api key account linked to a steam id.
	GetAPIKeyBySteamID(ctx context.Context, steamID string) (int64, error)

	// ValidateKeyAndHWID validates a key+hwid+steam_id combination for
	// token generation.
	ValidateKeyAndHWID(ctx context.Context, key, hwid, steamID string) (*model.APIKeyValidation, error)
}
