package ratelimit

import (
	"context"
	"sync"
	"time"
)

type windowCounter struct {
	count     int64
	expiresAt time.Time
}

// MemoryStore implements Store with in-process counters. Suitable for a
// single instance deployment or tests; use RedisStore when counters must be
// shared across replicas.
type MemoryStore struct {
	mu       sync.Mutex
	counters map[string]*windowCounter

	cleanupInterval time.Duration
	stopCleanup     chan struct{}
	closeOnce       sync.Once
}

// MemoryStoreOption configures a MemoryStore.
type MemoryStoreOption func(*MemoryStore)

// WithCleanupInterval sets how often expired counters are purged.
// Set to 0 to disable background cleanup.
func WithCleanupInterval(interval time.Duration) MemoryStoreOption {
	return func(ms *MemoryStore) {
		ms.cleanupInterval = interval
	}
}

// NewMemoryStore creates an in-memory store with optional background cleanup.
func NewMemoryStore(opts ...MemoryStoreOption) *MemoryStore {
	ms := &MemoryStore{
		counters:        make(map[string]*windowCounter),
		cleanupInterval: 5 * time.Minute,
		stopCleanup:     make(chan struct{}),
	}

	for _, opt := range opts {
		opt(ms)
	}

	if ms.cleanupInterval > 0 {
		go ms.cleanup()
	}

	return ms
}

func (ms *MemoryStore) IncrementAndGet(ctx context.Context, key string, incr int, window time.Duration) (int64, time.Duration, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	now := time.Now()
	c, ok := ms.counters[key]
	if !ok || now.After(c.expiresAt) {
		c = &windowCounter{expiresAt: now.Add(window)}
		ms.counters[key] = c
	}

	c.count += int64(incr)
	return c.count, time.Until(c.expiresAt), nil
}

func (ms *MemoryStore) Get(ctx context.Context, key string) (int64, time.Duration, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	c, ok := ms.counters[key]
	if !ok || time.Now().After(c.expiresAt) {
		return 0, 0, nil
	}
	return c.count, time.Until(c.expiresAt), nil
}

func (ms *MemoryStore) Delete(ctx context.Context, key string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	delete(ms.counters, key)
	return nil
}

func (ms *MemoryStore) cleanup() {
	ticker := time.NewTicker(ms.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ms.removeExpired()
		case <-ms.stopCleanup:
			return
		}
	}
}

func (ms *MemoryStore) removeExpired() {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	now := time.Now()
	for key, c := range ms.counters {
		if now.After(c.expiresAt) {
			delete(ms.counters, key)
		}
	}
}

// Close stops the cleanup goroutine. Safe to call multiple times.
func (ms *MemoryStore) Close() {
	ms.closeOnce.Do(func() { close(ms.stopCleanup) })
}
