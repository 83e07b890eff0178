package service

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

type countingStore struct {
	fakeSnapshotStore
	deletes    int64
	lastThresh time.Duration
}

func (s *countingStore) DeleteStaleSnapshots(ctx context.Context, threshold time.Duration) (int64, error) {
	atomic.AddInt64(&s.deletes, 1)
	s.lastThresh = threshold
	return 2, nil
}

func TestCleanupSchedulerDefaults(t *testing.T) {
	store := &countingStore{}
	sched := NewCleanupScheduler(store, CleanupConfig{})

	if sched.config.StaleThreshold != 30*24*time.Hour {
		t.Fatalf("expected 30 day default threshold, got %v", sched.config.StaleThreshold)
	}
	if sched.config.Interval != 24*time.Hour {
		t.Fatalf("expected 24h default interval, got %v", sched.config.Interval)
	}
}

func TestCleanupSchedulerRunNow(t *testing.T) {
	store := &countingStore{}
	sched := NewCleanupScheduler(store, CleanupConfig{StaleThreshold: time.Hour})

	deleted, err := sched.RunNow()
	if err != nil {
		t.Fatal(err)
	}
	if deleted != 2 {
		t.Fatalf("expected 2 deleted, got %d", deleted)
	}
	if store.lastThresh != time.Hour {
		t.Fatalf("expected configured threshold, got %v", store.lastThresh)
	}
}

func TestCleanupSchedulerTicks(t *testing.T) {
	store := &countingStore{}
	sched := NewCleanupScheduler(store, CleanupConfig{
		StaleThreshold: time.Hour,
		Interval:       10 * time.Millisecond,
	})

	sched.Start()
	sched.Start() // idempotent

	time.Sleep(60 * time.Millisecond)
	sched.Stop()
	sched.Stop() // idempotent

	// Stop joins the run loop, so the count is final the moment it returns.
	n := atomic.LoadInt64(&store.deletes)
	if n == 0 {
		t.Fatal("expected at least one cleanup tick")
	}

	time.Sleep(30 * time.Millisecond)
	if atomic.LoadInt64(&store.deletes) != n {
		t.Fatal("cleanup kept running after stop")
	}
}

func TestCleanupSchedulerStopWithoutStart(t *testing.T) {
	sched := NewCleanupScheduler(&countingStore{}, CleanupConfig{})

	done := make(chan struct{})
	go func() {
		sched.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("stop without start must not block")
	}
}
