package ratelimit

import (
	"context"
	"time"
)

// FixedWindow implements a fixed window counter rate limiter. All requests
// within one window interval share a single counter that resets when the
// window expires. Cheap on storage and good enough for abuse protection on
// webhook endpoints.
type FixedWindow struct {
	store  Store
	limit  int
	window time.Duration
}

// NewFixedWindow creates a fixed window rate limiter allowing limit requests
// per window interval.
func NewFixedWindow(store Store, limit int, window time.Duration) (*FixedWindow, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if limit <= 0 {
		return nil, ErrInvalidLimit
	}
	if window <= 0 {
		return nil, ErrInvalidInterval
	}

	return &FixedWindow{
		store:  store,
		limit:  limit,
		window: window,
	}, nil
}

// Allow checks if a single request is allowed for the given key.
func (fw *FixedWindow) Allow(ctx context.Context, key string) (*Result, error) {
	return fw.AllowN(ctx, key, 1)
}

// AllowN checks if n requests are allowed for the given key. The counter is
// incremented even when the limit is exceeded, which keeps hammering clients
// locked out for the full window.
func (fw *FixedWindow) AllowN(ctx context.Context, key string, n int) (*Result, error) {
	if key == "" {
		return nil, ErrKeyRequired
	}
	if n <= 0 {
		n = 1
	}

	current, ttl, err := fw.store.IncrementAndGet(ctx, key, n, fw.window)
	if err != nil {
		return nil, err
	}
	if ttl <= 0 {
		ttl = fw.window
	}

	return &Result{
		Allowed:   current <= int64(fw.limit),
		Limit:     fw.limit,
		Remaining: max(0, fw.limit-int(current)),
		ResetAt:   time.Now().Add(ttl),
	}, nil
}

// Status returns the current state for the given key without incrementing.
func (fw *FixedWindow) Status(ctx context.Context, key string) (*Result, error) {
	if key == "" {
		return nil, ErrKeyRequired
	}

	current, ttl, err := fw.store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if ttl <= 0 {
		ttl = fw.window
	}

	return &Result{
		Allowed:   current < int64(fw.limit),
		Limit:     fw.limit,
		Remaining: max(0, fw.limit-int(current)),
		ResetAt:   time.Now().Add(ttl),
	}, nil
}

// Reset clears the rate limit state for the given key.
func (fw *FixedWindow) Reset(ctx context.Context, key string) error {
	if key == "" {
		return ErrKeyRequired
	}
	return fw.store.Delete(ctx, key)
}
