package service

import (
	"context"
	"log"
	"sync"
	"time"

	"steamvault-rest-api/internal/repository"
)

// CleanupConfig holds configuration for the cleanup scheduler.
type CleanupConfig struct {
	// StaleThreshold is the duration after which unsynced snapshots are
	// deleted. Default: 30 days.
	StaleThreshold time.Duration

	// Interval is how often the cleanup runs. Default: 24 hours.
	Interval time.Duration
}

// CleanupScheduler runs periodic deletion of stale snapshots.
type CleanupScheduler struct {
	store     repository.SnapshotStore
	config    CleanupConfig
	ticker    *time.Ticker
	stopCh    chan struct{}
	doneCh    chan struct{}
	stopOnce  sync.Once
	isRunning bool
	mu        sync.Mutex
}

// NewCleanupScheduler creates a new cleanup scheduler.
func NewCleanupScheduler(store repository.SnapshotStore, config CleanupConfig) *CleanupScheduler {
	if config.StaleThreshold == 0 {
		config.StaleThreshold = 30 * 24 * time.Hour
	}
	if config.Interval == 0 {
		config.Interval = 24 * time.Hour
	}

	return &CleanupScheduler{
		store:  store,
		config: config,
		stopCh: make(chan struct{}),
	}
}

// Start begins the cleanup scheduler.
func (s *CleanupScheduler) Start() {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return
	}
	s.isRunning = true
	s.ticker = time.NewTicker(s.config.Interval)
	s.doneCh = make(chan struct{})
	s.mu.Unlock()

	log.Printf("[CleanupScheduler] Started - Interval: %v, Threshold: %v",
		s.config.Interval, s.config.StaleThreshold)

	go s.run()
}

// run is the main cleanup loop.
func (s *CleanupScheduler) run() {
	defer close(s.doneCh)

	for {
		select {
		case <-s.ticker.C:
			// A tick can already be buffered when Stop fires; drop it.
			select {
			case <-s.stopCh:
				log.Printf("[CleanupScheduler] Stopped")
				return
			default:
			}
			s.runCleanup()
		case <-s.stopCh:
			log.Printf("[CleanupScheduler] Stopped")
			return
		}
	}
}

// runCleanup performs the actual cleanup.
func (s *CleanupScheduler) runCleanup() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	log.Printf("[CleanupScheduler] Running cleanup for stale snapshots (threshold: %v)", s.config.StaleThreshold)

	deleted, err := s.store.DeleteStaleSnapshots(ctx, s.config.StaleThreshold)
	if err != nil {
		log.Printf("[CleanupScheduler] Error during cleanup: %v", err)
		return
	}

	if deleted > 0 {
		log.Printf("[CleanupScheduler] Cleaned up %d stale snapshots", deleted)
	} else {
		log.Printf("[CleanupScheduler] No stale snapshots to clean up")
	}
}

// Stop stops the cleanup scheduler and waits for the run loop to exit,
// so no cleanup fires after Stop returns.
func (s *CleanupScheduler) Stop() {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		if s.ticker != nil {
			s.ticker.Stop()
		}
		close(s.stopCh)
		running := s.isRunning
		done := s.doneCh
		s.isRunning = false
		s.mu.Unlock()

		if running {
			<-done
		}
	})
}

// RunNow triggers an immediate cleanup run.
func (s *CleanupScheduler) RunNow() (int64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	return s.store.DeleteStaleSnapshots(ctx, s.config.StaleThreshold)
}
