package repository

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"steamvault-rest-api/internal/model"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestCacheEntryRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	entry, err := store.GetCacheEntry(ctx, "missing", time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if entry != nil {
		t.Fatalf("expected miss for absent key, got %+v", entry)
	}

	if err := store.PutCacheEntry(ctx, "price:ak47", []byte(`{"usd":12.5}`)); err != nil {
		t.Fatalf("put failed: %v", err)
	}

	entry, err = store.GetCacheEntry(ctx, "price:ak47", time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if entry == nil {
		t.Fatal("expected hit after put")
	}
	if string(entry.Value) != `{"usd":12.5}` {
		t.Fatalf("unexpected value %q", entry.Value)
	}
	if entry.LastUpdated.IsZero() {
		t.Fatal("expected a populated timestamp")
	}
}

func TestCacheEntryLastWriteWins(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.PutCacheEntry(ctx, "k", []byte("first")); err != nil {
		t.Fatal(err)
	}
	if err := store.PutCacheEntry(ctx, "k", []byte("second")); err != nil {
		t.Fatal(err)
	}

	entry, err := store.GetCacheEntry(ctx, "k", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if string(entry.Value) != "second" {
		t.Fatalf("expected last write to win, got %q", entry.Value)
	}
}

func TestCacheEntryLazyExpiry(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.PutCacheEntry(ctx, "k", []byte("v")); err != nil {
		t.Fatal(err)
	}
	time.Sleep(20 * time.Millisecond)

	entry, err := store.GetCacheEntry(ctx, "k", 5*time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}
	if entry != nil {
		t.Fatalf("expected stale read to miss, got %+v", entry)
	}

	// Rows are never evicted; a zero TTL read still sees the value.
	entry, err = store.GetCacheEntry(ctx, "k", 0)
	if err != nil {
		t.Fatal(err)
	}
	if entry == nil || string(entry.Value) != "v" {
		t.Fatalf("expected stale row to survive on disk, got %+v", entry)
	}

	// A fresh write resets the clock.
	if err := store.PutCacheEntry(ctx, "k", []byte("v2")); err != nil {
		t.Fatal(err)
	}
	entry, err = store.GetCacheEntry(ctx, "k", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if entry == nil || string(entry.Value) != "v2" {
		t.Fatalf("expected refreshed entry, got %+v", entry)
	}
}

func TestClearCacheDeletesEverything(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	for _, key := range []string{"a", "b", "c"} {
		if err := store.PutCacheEntry(ctx, key, []byte("v")); err != nil {
			t.Fatal(err)
		}
	}

	deleted, err := store.ClearCache(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if deleted != 3 {
		t.Fatalf("expected 3 deleted rows, got %d", deleted)
	}

	entry, err := store.GetCacheEntry(ctx, "a", 0)
	if err != nil {
		t.Fatal(err)
	}
	if entry != nil {
		t.Fatalf("expected miss after clear, got %+v", entry)
	}

	// Clearing an empty table is a no-op, not an error.
	deleted, err = store.ClearCache(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if deleted != 0 {
		t.Fatalf("expected 0 deleted rows, got %d", deleted)
	}
}

func TestSnapshotUpsertKeepsLatestOnly(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	steamID := "76561198000000000"

	snap, err := store.GetSnapshot(ctx, steamID)
	if err != nil {
		t.Fatal(err)
	}
	if snap != nil {
		t.Fatalf("expected no snapshot, got %+v", snap)
	}

	if err := store.UpsertSnapshot(ctx, steamID, 10, []byte(`{"assets":[]}`)); err != nil {
		t.Fatal(err)
	}
	if err := store.UpsertSnapshot(ctx, steamID, 25, []byte(`{"assets":[{}]}`)); err != nil {
		t.Fatal(err)
	}

	snap, err = store.GetSnapshot(ctx, steamID)
	if err != nil {
		t.Fatal(err)
	}
	if snap == nil {
		t.Fatal("expected snapshot")
	}
	if snap.ItemCount != 25 {
		t.Fatalf("expected latest snapshot to replace the old one, got count %d", snap.ItemCount)
	}

	summaries, total, err := store.Leaderboard(ctx, 10, 0)
	if err != nil {
		t.Fatal(err)
	}
	if total != 1 || len(summaries) != 1 {
		t.Fatalf("expected a single retained row per account, got total=%d rows=%d", total, len(summaries))
	}
}

func TestLeaderboardOrdering(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	accounts := []struct {
		steamID string
		count   int
	}{
		{"76561198000000001", 5},
		{"76561198000000002", 50},
		{"76561198000000003", 20},
	}
	for _, a := range accounts {
		if err := store.UpsertSnapshot(ctx, a.steamID, a.count, []byte("{}")); err != nil {
			t.Fatal(err)
		}
	}

	summaries, total, err := store.Leaderboard(ctx, 2, 0)
	if err != nil {
		t.Fatal(err)
	}
	if total != 3 {
		t.Fatalf("expected total 3, got %d", total)
	}
	if len(summaries) != 2 {
		t.Fatalf("expected page of 2, got %d", len(summaries))
	}
	if summaries[0].ItemCount != 50 || summaries[1].ItemCount != 20 {
		t.Fatalf("expected descending item counts, got %+v", summaries)
	}

	page2, _, err := store.Leaderboard(ctx, 2, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(page2) != 1 || page2[0].ItemCount != 5 {
		t.Fatalf("unexpected second page %+v", page2)
	}
}

func TestBatchUpsertSnapshots(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	now := time.Now().UTC()
	writes := []model.SnapshotWrite{
		{SteamID: "76561198000000001", ItemCount: 3, RawJSON: []byte("{}"), SyncedAt: now},
		{SteamID: "76561198000000002", ItemCount: 7, RawJSON: []byte("{}"), SyncedAt: now},
	}

	if err := store.BatchUpsertSnapshots(ctx, writes); err != nil {
		t.Fatal(err)
	}

	for _, w := range writes {
		snap, err := store.GetSnapshot(ctx, w.SteamID)
		if err != nil {
			t.Fatal(err)
		}
		if snap == nil || snap.ItemCount != w.ItemCount {
			t.Fatalf("snapshot %s missing or wrong: %+v", w.SteamID, snap)
		}
	}

	if err := store.BatchUpsertSnapshots(ctx, nil); err != nil {
		t.Fatalf("empty batch must be a no-op, got %v", err)
	}
}

func TestDeleteStaleSnapshots(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.UpsertSnapshot(ctx, "76561198000000001", 1, []byte("{}")); err != nil {
		t.Fatal(err)
	}

	deleted, err := store.DeleteStaleSnapshots(ctx, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if deleted != 0 {
		t.Fatalf("fresh snapshot must survive, deleted %d", deleted)
	}

	time.Sleep(20 * time.Millisecond)
	deleted, err = store.DeleteStaleSnapshots(ctx, 5*time.Millisecond)
	if err != nil {
		t.Fatal(err)
	}
	if deleted != 1 {
		t.Fatalf("expected 1 stale snapshot deleted, got %d", deleted)
	}
}
