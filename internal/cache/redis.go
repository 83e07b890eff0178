package cache

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"steamvault-rest-api/internal/model"

	"github.com/redis/go-redis/v9"
)

// Buffer configuration
const (
	MaxBatchSize       = 20
	FlushTimeout       = 2 * time.Minute
	StaleDataThreshold = 1 * time.Hour
	CleanupInterval    = 5 * time.Minute
)

// FlushFunc is called to persist buffered snapshots to the database.
type FlushFunc func(ctx context.Context, items []*model.BufferedSnapshot) error

var deleteIfUnchangedScript = redis.NewScript(`
	if redis.call("HGET", KEYS[1], ARGV[1]) == ARGV[2] then
		redis.call("HDEL", KEYS[1], ARGV[1])
		redis.call("SREM", KEYS[2], ARGV[1])
		return 1
	else
		return 0
	end
`)

// RedisSnapshotBuffer uses Redis for write-behind snapshot persistence:
// sync writes land in a Redis hash and are flushed to the store in
// batches. A snapshot overwritten while its batch is in flight survives
// deletion via the delete-if-unchanged script.
type RedisSnapshotBuffer struct {
	client        *redis.Client
	flushFunc     FlushFunc
	flushTicker   *time.Ticker
	cleanupTicker *time.Ticker
	stopFlush     chan struct{}
	stopOnce      sync.Once
	keyPrefix     string
}

// RedisBufferConfig holds configuration for the snapshot buffer.
type RedisBufferConfig struct {
	Addr          string
	Password      string
	DB            int
	FlushInterval time.Duration
	KeyPrefix     string
}

// NewRedisSnapshotBuffer creates a Redis-backed snapshot buffer.
func NewRedisSnapshotBuffer(cfg RedisBufferConfig, flushFunc FlushFunc) (*RedisSnapshotBuffer, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     20,
		MinIdleConns: 5,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	keyPrefix := cfg.KeyPrefix
	if keyPrefix == "" {
		keyPrefix = "steamvault:inventory"
	}

	b := &RedisSnapshotBuffer{
		client:        client,
		flushFunc:     flushFunc,
		flushTicker:   time.NewTicker(cfg.FlushInterval),
		cleanupTicker: time.NewTicker(CleanupInterval),
		stopFlush:     make(chan struct{}),
		keyPrefix:     keyPrefix,
	}

	go b.backgroundFlush()
	go b.backgroundCleanup()

	log.Printf("[RedisSnapshotBuffer] Started - DB:%d, prefix:%s, flush:%v, batch:%d",
		cfg.DB, keyPrefix, cfg.FlushInterval, MaxBatchSize)
	return b, nil
}

func (b *RedisSnapshotBuffer) bufferKey() string {
	return b.keyPrefix + ":buffer"
}

func (b *RedisSnapshotBuffer) pendingKey() string {
	return b.keyPrefix + ":pending"
}

// Add buffers a snapshot write in Redis.
func (b *RedisSnapshotBuffer) Add(ctx context.Context, steamID string, itemCount int, rawJSON []byte) error {
	data := &model.BufferedSnapshot{
		SteamID:   steamID,
		ItemCount: itemCount,
		RawJSON:   rawJSON,
		UpdatedAt: time.Now(),
	}

	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}

	pipe := b.client.Pipeline()
	pipe.HSet(ctx, b.bufferKey(), steamID, jsonData)
	pipe.SAdd(ctx, b.pendingKey(), steamID)
	_, err = pipe.Exec(ctx)
	return err
}

// Get retrieves a buffered snapshot from Redis.
func (b *RedisSnapshotBuffer) Get(ctx context.Context, steamID string) (*model.BufferedSnapshot, error) {
	data, err := b.client.HGet(ctx, b.bufferKey(), steamID).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var snap model.BufferedSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, err
	}

	return &snap, nil
}

// Count returns the number of pending snapshots.
func (b *RedisSnapshotBuffer) Count(ctx context.Context) (int64, error) {
	return b.client.SCard(ctx, b.pendingKey()).Result()
}

// FlushBatch writes up to MaxBatchSize snapshots to the database.
func (b *RedisSnapshotBuffer) FlushBatch(ctx context.Context) (int, error) {
	steamIDs, err := b.client.SRandMemberN(ctx, b.pendingKey(), MaxBatchSize).Result()
	if err != nil {
		return 0, err
	}

	if len(steamIDs) == 0 {
		return 0, nil
	}

	totalPending, _ := b.Count(ctx)
	log.Printf("[RedisSnapshotBuffer] Flushing %d/%d snapshots", len(steamIDs), totalPending)

	items := make([]*model.BufferedSnapshot, 0, len(steamIDs))
	originalData := make(map[string]string)

	for _, steamID := range steamIDs {
		data, err := b.client.HGet(ctx, b.bufferKey(), steamID).Bytes()
		if err == redis.Nil {
			b.client.SRem(ctx, b.pendingKey(), steamID)
			continue
		}
		if err != nil {
			log.Printf("[RedisSnapshotBuffer] Error getting %s: %v", steamID, err)
			continue
		}

		originalData[steamID] = string(data)

		var snap model.BufferedSnapshot
		if err := json.Unmarshal(data, &snap); err != nil {
			log.Printf("[RedisSnapshotBuffer] Error unmarshaling %s: %v", steamID, err)
			b.client.HDel(ctx, b.bufferKey(), steamID)
			b.client.SRem(ctx, b.pendingKey(), steamID)
			continue
		}
		items = append(items, &snap)
	}

	if len(items) == 0 {
		return 0, nil
	}

	if err := b.flushFunc(ctx, items); err != nil {
		log.Printf("[RedisSnapshotBuffer] Flush error: %v", err)
		return 0, err
	}

	pipe := b.client.Pipeline()
	for steamID, rawJSON := range originalData {
		deleteIfUnchangedScript.Run(ctx, pipe, []string{b.bufferKey(), b.pendingKey()}, steamID, rawJSON)
	}
	_, err = pipe.Exec(ctx)
	if err != nil {
		log.Printf("[RedisSnapshotBuffer] Error clearing Redis: %v", err)
	}

	log.Printf("[RedisSnapshotBuffer] Successfully flushed %d snapshots", len(items))
	return len(items), nil
}

// Flush writes all buffered snapshots to the database.
func (b *RedisSnapshotBuffer) Flush(ctx context.Context) error {
	_, err := b.FlushBatch(ctx)
	return err
}

// CleanupStale removes buffered snapshots older than StaleDataThreshold.
func (b *RedisSnapshotBuffer) CleanupStale(ctx context.Context) (int, error) {
	steamIDs, err := b.client.SMembers(ctx, b.pendingKey()).Result()
	if err != nil {
		return 0, err
	}

	if len(steamIDs) == 0 {
		return 0, nil
	}

	staleThreshold := time.Now().Add(-StaleDataThreshold)
	staleCount := 0
	pipe := b.client.Pipeline()

	for _, steamID := range steamIDs {
		data, err := b.client.HGet(ctx, b.bufferKey(), steamID).Bytes()
		if err == redis.Nil {
			pipe.SRem(ctx, b.pendingKey(), steamID)
			continue
		}
		if err != nil {
			continue
		}

		var snap model.BufferedSnapshot
		if err := json.Unmarshal(data, &snap); err != nil {
			pipe.HDel(ctx, b.bufferKey(), steamID)
			pipe.SRem(ctx, b.pendingKey(), steamID)
			staleCount++
			continue
		}

		if snap.UpdatedAt.Before(staleThreshold) {
			pipe.HDel(ctx, b.bufferKey(), steamID)
			pipe.SRem(ctx, b.pendingKey(), steamID)
			staleCount++
		}
	}

	if staleCount > 0 {
		_, err = pipe.Exec(ctx)
		if err != nil {
			log.Printf("[RedisSnapshotBuffer] Cleanup exec error: %v", err)
			return 0, err
		}
		log.Printf("[RedisSnapshotBuffer] Cleaned up %d stale snapshots", staleCount)
	}

	return staleCount, nil
}

func (b *RedisSnapshotBuffer) backgroundFlush() {
	for {
		select {
		case <-b.flushTicker.C:
			ctx, cancel := context.WithTimeout(context.Background(), FlushTimeout)
			if _, err := b.FlushBatch(ctx); err != nil {
				log.Printf("[RedisSnapshotBuffer] Background flush error: %v", err)
			}
			cancel()
		case <-b.stopFlush:
			log.Printf("[RedisSnapshotBuffer] Shutdown: flushing remaining snapshots...")
			ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
			for {
				flushed, err := b.FlushBatch(ctx)
				if err != nil {
					log.Printf("[RedisSnapshotBuffer] Shutdown flush error: %v", err)
					break
				}
				if flushed == 0 {
					break
				}
			}
			cancel()
			log.Printf("[RedisSnapshotBuffer] Shutdown flush complete")
			return
		}
	}
}

func (b *RedisSnapshotBuffer) backgroundCleanup() {
	for {
		select {
		case <-b.cleanupTicker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			b.CleanupStale(ctx)
			cancel()
		case <-b.stopFlush:
			return
		}
	}
}

// Close stops the buffer and performs a final flush.
func (b *RedisSnapshotBuffer) Close() error {
	b.stopOnce.Do(func() {
		b.flushTicker.Stop()
		b.cleanupTicker.Stop()
		close(b.stopFlush)
	})
	return b.client.Close()
}
