package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"sync"
	"time"

	"steamvault-rest-api/internal/model"

	_ "modernc.org/sqlite" // Pure Go SQLite driver - no CGO required
)

// SQLiteStore implements SnapshotStore and ItemCacheStore using SQLite.
// Thread-safe with WAL mode for high-concurrency reads.
type SQLiteStore struct {
	db *sql.DB
	mu sync.RWMutex
}

// NewSQLiteStore creates a new SQLite-backed store.
// dbPath is the path to the SQLite database file (e.g., "./data/steamvault.db")
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	// Open with WAL mode and other optimizations
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_cache_size=10000&_busy_timeout=5000", dbPath)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite: %w", err)
	}

	// SQLite connection pool settings
	db.SetMaxOpenConns(1) // SQLite only supports 1 writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0) // Keep connection alive

	if err := createSQLiteTables(db); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	log.Printf("[SQLiteStore] Initialized with database: %s", dbPath)
	return &SQLiteStore{db: db}, nil
}

// createSQLiteTables creates the snapshot and item cache tables.
func createSQLiteTables(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS inventory_snapshots (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		steam_id TEXT NOT NULL UNIQUE,
		item_count INTEGER NOT NULL DEFAULT 0,
		raw_json TEXT NOT NULL,
		synced_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_snapshots_steam_id ON inventory_snapshots(steam_id);
	CREATE INDEX IF NOT EXISTS idx_snapshots_synced_at ON inventory_snapshots(synced_at);
	CREATE INDEX IF NOT EXISTS idx_snapshots_item_count ON inventory_snapshots(item_count);

	CREATE TABLE IF NOT EXISTS item_cache (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at DATETIME NOT NULL
	);
	`
	_, err := db.Exec(query)
	return err
}

// UpsertSnapshot inserts or replaces the snapshot for a steam id.
func (s *SQLiteStore) UpsertSnapshot(ctx context.Context, steamID string, itemCount int, rawJSON []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO inventory_snapshots (steam_id, item_count, raw_json, synced_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(steam_id) DO UPDATE SET
			item_count = excluded.item_count,
			raw_json = excluded.raw_json,
			synced_at = excluded.synced_at`

	_, err := s.db.ExecContext(ctx, query, steamID, itemCount, string(rawJSON), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to upsert snapshot: %w", err)
	}
	return nil
}

// BatchUpsertSnapshots inserts or replaces multiple snapshots efficiently.
func (s *SQLiteStore) BatchUpsertSnapshots(ctx context.Context, items []model.SnapshotWrite) error {
	if len(items) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO inventory_snapshots (steam_id, item_count, raw_json, synced_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(steam_id) DO UPDATE SET
			item_count = excluded.item_count,
			raw_json = excluded.raw_json,
			synced_at = excluded.synced_at`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, item := range items {
		_, err := stmt.ExecContext(ctx, item.SteamID, item.ItemCount, string(item.RawJSON), item.SyncedAt)
		if err != nil {
			return fmt.Errorf("failed to batch upsert snapshot %s: %w", item.SteamID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetSnapshot retrieves the latest snapshot for a steam id.
func (s *SQLiteStore) GetSnapshot(ctx context.Context, steamID string) (*model.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT id, steam_id, item_count, raw_json, synced_at FROM inventory_snapshots WHERE steam_id = ?`

	var snap model.Snapshot
	var rawJSON string

	err := s.db.QueryRowContext(ctx, query, steamID).Scan(&snap.ID, &snap.SteamID, &snap.ItemCount, &rawJSON, &snap.SyncedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}

	snap.RawJSON = []byte(rawJSON)
	return &snap, nil
}

// Leaderboard returns snapshot summaries ordered by item count descending,
// most recent first on ties.
func (s *SQLiteStore) Leaderboard(ctx context.Context, limit, offset int) ([]model.SnapshotSummary, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var total int64
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM inventory_snapshots`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count snapshots: %w", err)
	}

	query := `
		SELECT steam_id, item_count, synced_at
		FROM inventory_snapshots
		ORDER BY item_count DESC, synced_at DESC
		LIMIT ? OFFSET ?`

	rows, err := s.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query leaderboard: %w", err)
	}
	defer rows.Close()

	var summaries []model.SnapshotSummary
	for rows.Next() {
		var sum model.SnapshotSummary
		if err := rows.Scan(&sum.SteamID, &sum.ItemCount, &sum.SyncedAt); err != nil {
			return nil, 0, fmt.Errorf("failed to scan leaderboard row: %w", err)
		}
		summaries = append(summaries, sum)
	}
	return summaries, total, rows.Err()
}

// GetCacheEntry retrieves a cache entry, treating rows older than ttl as
// a miss. Stale rows stay on disk; there is no background sweeper.
func (s *SQLiteStore) GetCacheEntry(ctx context.Context, key string, ttl time.Duration) (*model.CacheEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT key, value, updated_at FROM item_cache WHERE key = ?`

	var entry model.CacheEntry
	var value string

	err := s.db.QueryRowContext(ctx, query, key).Scan(&entry.Key, &value, &entry.LastUpdated)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get cache entry: %w", err)
	}

	entry.Value = []byte(value)
	if entry.IsStale(ttl, time.Now().UTC()) {
		return nil, nil
	}
	return &entry, nil
}

// PutCacheEntry upserts value under key with a refreshed timestamp.
func (s *SQLiteStore) PutCacheEntry(ctx context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
		INSERT INTO item_cache (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at`

	_, err := s.db.ExecContext(ctx, query, key, string(value), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to put cache entry: %w", err)
	}
	return nil
}

// ClearCache deletes every cache entry unconditionally.
func (s *SQLiteStore) ClearCache(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.db.ExecContext(ctx, `DELETE FROM item_cache`)
	if err != nil {
		return 0, fmt.Errorf("failed to clear cache: %w", err)
	}
	return result.RowsAffected()
}

// GetStats returns statistics about the store.
func (s *SQLiteStore) GetStats(ctx context.Context) (map[string]interface{}, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := make(map[string]interface{})

	var count int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM inventory_snapshots").Scan(&count); err != nil {
		return nil, err
	}
	stats["total_snapshots"] = count

	var cached int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM item_cache").Scan(&cached); err == nil {
		stats["cache_entries"] = cached
	}

	var lastSync sql.NullTime
	if err := s.db.QueryRowContext(ctx, "SELECT MAX(synced_at) FROM inventory_snapshots").Scan(&lastSync); err == nil && lastSync.Valid {
		stats["last_sync"] = lastSync.Time
	}

	// Database file size (approximate from page count)
	var pageCount, pageSize int64
	s.db.QueryRowContext(ctx, "PRAGMA page_count").Scan(&pageCount)
	s.db.QueryRowContext(ctx, "PRAGMA page_size").Scan(&pageSize)
	stats["db_size_bytes"] = pageCount * pageSize

	return stats, nil
}

// DeleteStaleSnapshots deletes snapshots not synced within the threshold.
func (s *SQLiteStore) DeleteStaleSnapshots(ctx context.Context, threshold time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoffTime := time.Now().UTC().Add(-threshold)

	result, err := s.db.ExecContext(ctx, `DELETE FROM inventory_snapshots WHERE synced_at < ?`, cutoffTime)
	if err != nil {
		return 0, fmt.Errorf("failed to delete stale snapshots: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}

	if deleted > 0 {
		log.Printf("[SQLiteStore] Cleaned up %d stale snapshots (threshold: %v)", deleted, threshold)
	}

	return deleted, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Ensure SQLiteStore implements both store interfaces
var (
	_ SnapshotStore  = (*SQLiteStore)(nil)
	_ ItemCacheStore = (*SQLiteStore)(nil)
)
