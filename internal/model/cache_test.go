package model

import (
	"testing"
	"time"
)

func TestCacheEntryIsStale(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	entry := CacheEntry{Key: "k", Value: []byte("v"), LastUpdated: now.Add(-10 * time.Minute)}

	if entry.IsStale(time.Hour, now) {
		t.Fatal("entry inside its TTL must be fresh")
	}
	if !entry.IsStale(5*time.Minute, now) {
		t.Fatal("entry past its TTL must be stale")
	}
	boundary := CacheEntry{Key: "k", LastUpdated: now.Add(-10 * time.Minute)}
	if boundary.IsStale(10*time.Minute+time.Millisecond, now) {
		t.Fatal("age just under the TTL must be fresh")
	}
	if !boundary.IsStale(10*time.Minute-time.Millisecond, now) {
		t.Fatal("age just over the TTL must be stale")
	}
	if boundary.IsStale(10*time.Minute, now) {
		t.Fatal("age exactly at the TTL is still fresh")
	}

	if entry.IsStale(0, now) {
		t.Fatal("zero TTL disables expiry")
	}
	if entry.IsStale(-time.Minute, now) {
		t.Fatal("negative TTL disables expiry")
	}
}
