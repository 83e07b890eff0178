package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"steamvault-rest-api/internal/cache"
	"steamvault-rest-api/internal/fetch"
	"steamvault-rest-api/internal/model"
	"steamvault-rest-api/internal/repository"
)

// ErrUnauthorized is returned when a privileged operation's credential
// does not match the configured secret.
var ErrUnauthorized = errors.New("unauthorized")

// ErrMalformedDocument is returned when a pushed snapshot body does not
// parse as an inventory document. Store failures are not wrapped in it.
var ErrMalformedDocument = errors.New("malformed inventory document")

// InventoryFetcher retrieves an inventory document from the upstream.
// Satisfied by *fetch.Fetcher.
type InventoryFetcher interface {
	Fetch(ctx context.Context, steamID string) (*model.InventoryDocument, string, error)
}

// InventoryResult is the outcome of a resolved inventory request.
type InventoryResult struct {
	SteamID   string                 `json:"steam_id"`
	Source    string                 `json:"source"` // cache, store, or the strategy label
	ItemCount int                    `json:"item_count"`
	SyncedAt  time.Time              `json:"synced_at"`
	Raw       json.RawMessage        `json:"inventory,omitempty"`
	Items     []model.NormalizedItem `json:"items,omitempty"`
}

// InventoryService handles inventory business logic: cache-aside reads,
// upstream fetches, normalization and persistence.
type InventoryService struct {
	fetcher   InventoryFetcher
	snapshots repository.SnapshotStore
	itemCache repository.ItemCacheStore
	hot       cache.Cache
	buffer    *cache.RedisSnapshotBuffer

	ttl      time.Duration
	clearKey string
}

// InventoryServiceConfig wires the service's collaborators. Fetcher and
// Snapshots are required; the rest are optional tiers.
type InventoryServiceConfig struct {
	Fetcher   InventoryFetcher
	Snapshots repository.SnapshotStore
	ItemCache repository.ItemCacheStore
	Hot       cache.Cache
	Buffer    *cache.RedisSnapshotBuffer
	TTL       time.Duration
	ClearKey  string
}

// NewInventoryService creates a new inventory service.
// Returns nil if required dependencies are missing.
func NewInventoryService(cfg InventoryServiceConfig) *InventoryService {
	if cfg.Fetcher == nil || cfg.Snapshots == nil {
		return nil
	}
	return &InventoryService{
		fetcher:   cfg.Fetcher,
		snapshots: cfg.Snapshots,
		itemCache: cfg.ItemCache,
		hot:       cfg.Hot,
		buffer:    cfg.Buffer,
		ttl:       cfg.TTL,
		clearKey:  cfg.ClearKey,
	}
}

func hotKey(steamID string) string {
	return "snapshot:" + steamID
}

// GetInventory resolves an inventory request cache-aside: hot tier,
// then the store within TTL, then the upstream through the fetcher.
// refresh bypasses both cached tiers. normalized selects the joined
// item view instead of the raw document.
func (s *InventoryService) GetInventory(ctx context.Context, steamID string, refresh, normalized bool) (*InventoryResult, error) {
	// Malformed ids are rejected before any I/O, cache reads included.
	if !fetch.ValidSteamID(steamID) {
		return nil, fetch.ErrInvalidSteamID
	}

	if !refresh {
		if result := s.lookupCached(ctx, steamID, normalized); result != nil {
			return result, nil
		}
	}

	doc, label, err := s.fetcher.Fetch(ctx, steamID)
	if err != nil {
		return nil, err
	}

	rawJSON, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to encode inventory document: %w", err)
	}
	itemCount := len(doc.AssetList())
	now := time.Now().UTC()

	if err := s.persist(ctx, steamID, itemCount, rawJSON); err != nil {
		// The caller still gets the document; persistence is logged,
		// not surfaced.
		log.Printf("[InventoryService] persist failed for %s: %v", steamID, err)
	}

	if s.hot != nil && s.ttl > 0 {
		_ = s.hot.Set(ctx, hotKey(steamID), rawJSON, s.ttl)
	}

	result := &InventoryResult{
		SteamID:   steamID,
		Source:    label,
		ItemCount: itemCount,
		SyncedAt:  now,
	}
	if normalized {
		result.Items = doc.Normalize(steamID)
	} else {
		result.Raw = rawJSON
	}
	return result, nil
}

// lookupCached checks the hot tier, the write-behind buffer, then the
// store. A store row older than the TTL is a miss; the row stays.
func (s *InventoryService) lookupCached(ctx context.Context, steamID string, normalized bool) *InventoryResult {
	now := time.Now().UTC()

	if s.hot != nil {
		if data, err := s.hot.Get(ctx, hotKey(steamID)); err == nil {
			return buildResult(steamID, "cache", now, data, normalized)
		}
	}

	if s.buffer != nil {
		if snap, err := s.buffer.Get(ctx, steamID); err == nil && snap != nil {
			if s.ttl <= 0 || now.Sub(snap.UpdatedAt) <= s.ttl {
				return buildResult(steamID, "cache", snap.UpdatedAt, snap.RawJSON, normalized)
			}
		}
	}

	snap, err := s.snapshots.GetSnapshot(ctx, steamID)
	if err != nil || snap == nil {
		return nil
	}
	if s.ttl > 0 && now.Sub(snap.SyncedAt) > s.ttl {
		return nil
	}
	return buildResult(steamID, "store", snap.SyncedAt, snap.RawJSON, normalized)
}

func buildResult(steamID, source string, syncedAt time.Time, rawJSON []byte, normalized bool) *InventoryResult {
	var doc model.InventoryDocument
	if err := json.Unmarshal(rawJSON, &doc); err != nil {
		return nil
	}

	result := &InventoryResult{
		SteamID:   steamID,
		Source:    source,
		ItemCount: len(doc.AssetList()),
		SyncedAt:  syncedAt,
	}
	if normalized {
		result.Items = doc.Normalize(steamID)
	} else {
		result.Raw = rawJSON
	}
	return result
}

// persist writes a snapshot through the buffer when available,
// otherwise directly to the store.
func (s *InventoryService) persist(ctx context.Context, steamID string, itemCount int, rawJSON []byte) error {
	if s.buffer != nil {
		return s.buffer.Add(ctx, steamID, itemCount, rawJSON)
	}
	return s.snapshots.UpsertSnapshot(ctx, steamID, itemCount, rawJSON)
}

// SyncSnapshot stores a raw inventory document pushed by a client.
func (s *InventoryService) SyncSnapshot(ctx context.Context, steamID string, rawJSON []byte) (int, error) {
	if !fetch.ValidSteamID(steamID) {
		return 0, fetch.ErrInvalidSteamID
	}

	var doc model.InventoryDocument
	if err := json.Unmarshal(rawJSON, &doc); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrMalformedDocument, err)
	}
	itemCount := len(doc.AssetList())

	if err := s.persist(ctx, steamID, itemCount, rawJSON); err != nil {
		return 0, err
	}

	if s.hot != nil && s.ttl > 0 {
		_ = s.hot.Set(ctx, hotKey(steamID), rawJSON, s.ttl)
	}
	return itemCount, nil
}

// GetSnapshot retrieves the stored snapshot regardless of TTL.
// Checks the write-behind buffer first, then the store.
func (s *InventoryService) GetSnapshot(ctx context.Context, steamID string) ([]byte, *time.Time, error) {
	if s.buffer != nil {
		if snap, err := s.buffer.Get(ctx, steamID); err == nil && snap != nil {
			return snap.RawJSON, &snap.UpdatedAt, nil
		}
	}

	snap, err := s.snapshots.GetSnapshot(ctx, steamID)
	if err != nil {
		return nil, nil, err
	}
	if snap == nil {
		return nil, nil, nil
	}
	return snap.RawJSON, &snap.SyncedAt, nil
}

// GetCachedValue reads the scalar item cache with the configured TTL.
func (s *InventoryService) GetCachedValue(ctx context.Context, key string) (*model.CacheEntry, error) {
	if s.itemCache == nil {
		return nil, nil
	}
	return s.itemCache.GetCacheEntry(ctx, key, s.ttl)
}

// PutCachedValue upserts a scalar cache entry.
func (s *InventoryService) PutCachedValue(ctx context.Context, key string, value []byte) error {
	if s.itemCache == nil {
		return errors.New("item cache not configured")
	}
	return s.itemCache.PutCacheEntry(ctx, key, value)
}

// ClearCache deletes every scalar cache entry and drops the hot tier.
// Fails with ErrUnauthorized unless credential matches the configured
// secret exactly. Irreversible.
func (s *InventoryService) ClearCache(ctx context.Context, credential string) (int64, error) {
	if s.clearKey == "" || credential != s.clearKey {
		return 0, ErrUnauthorized
	}
	if s.itemCache == nil {
		return 0, errors.New("item cache not configured")
	}

	deleted, err := s.itemCache.ClearCache(ctx)
	if err != nil {
		return 0, err
	}

	if s.hot != nil {
		if err := s.hot.Clear(ctx); err != nil {
			log.Printf("[InventoryService] hot cache clear failed: %v", err)
		}
	}

	log.Printf("[InventoryService] cache cleared: %d entries", deleted)
	return deleted, nil
}

// Leaderboard returns snapshot summaries ordered by item count.
func (s *InventoryService) Leaderboard(ctx context.Context, limit, offset int) ([]model.SnapshotSummary, int64, error) {
	return s.snapshots.Leaderboard(ctx, limit, offset)
}

// CreateFlushFunc creates a flush function for the snapshot buffer.
func CreateFlushFunc(store repository.SnapshotStore) cache.FlushFunc {
	return func(ctx context.Context, items []*model.BufferedSnapshot) error {
		writes := make([]model.SnapshotWrite, len(items))
		for i, item := range items {
			writes[i] = model.SnapshotWrite{
				SteamID:   item.SteamID,
				ItemCount: item.ItemCount,
				RawJSON:   item.RawJSON,
				SyncedAt:  item.UpdatedAt,
			}
		}
		return store.BatchUpsertSnapshots(ctx, writes)
	}
}
