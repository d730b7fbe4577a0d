package ratelimit_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/briefly-bot/briefly/pkg/ratelimit"
)

func TestNewFixedWindow(t *testing.T) {
	t.Parallel()

	store := ratelimit.NewMemoryStore(ratelimit.WithCleanupInterval(0))

	t.Run("valid", func(t *testing.T) {
		t.Parallel()
		fw, err := ratelimit.NewFixedWindow(store, 100, time.Minute)
		require.NoError(t, err)
		require.NotNil(t, fw)
	})

	t.Run("nil store", func(t *testing.T) {
		t.Parallel()
		_, err := ratelimit.NewFixedWindow(nil, 100, time.Minute)
		assert.ErrorIs(t, err, ratelimit.ErrStoreRequired)
	})

	t.Run("invalid limit", func(t *testing.T) {
		t.Parallel()
		_, err := ratelimit.NewFixedWindow(store, 0, time.Minute)
		assert.ErrorIs(t, err, ratelimit.ErrInvalidLimit)
	})

	t.Run("invalid interval", func(t *testing.T) {
		t.Parallel()
		_, err := ratelimit.NewFixedWindow(store, 100, 0)
		assert.ErrorIs(t, err, ratelimit.ErrInvalidInterval)
	})
}

func TestFixedWindowAllow(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("enforces limit within window", func(t *testing.T) {
		t.Parallel()

		store := ratelimit.NewMemoryStore(ratelimit.WithCleanupInterval(0))
		fw, err := ratelimit.NewFixedWindow(store, 3, time.Minute)
		require.NoError(t, err)

		for i := range 3 {
			result, err := fw.Allow(ctx, "10.0.0.1")
			require.NoError(t, err)
			assert.True(t, result.Allowed, "request %d should be allowed", i+1)
			assert.Equal(t, 3, result.Limit)
			assert.Equal(t, 2-i, result.Remaining)
		}

		result, err := fw.Allow(ctx, "10.0.0.1")
		require.NoError(t, err)
		assert.False(t, result.Allowed)
		assert.Equal(t, 0, result.Remaining)
		assert.Positive(t, result.RetryAfter())
	})

	t.Run("keys are independent", func(t *testing.T) {
		t.Parallel()

		store := ratelimit.NewMemoryStore(ratelimit.WithCleanupInterval(0))
		fw, err := ratelimit.NewFixedWindow(store, 1, time.Minute)
		require.NoError(t, err)

		first, err := fw.Allow(ctx, "10.0.0.1")
		require.NoError(t, err)
		assert.True(t, first.Allowed)

		blocked, err := fw.Allow(ctx, "10.0.0.1")
		require.NoError(t, err)
		assert.False(t, blocked.Allowed)

		other, err := fw.Allow(ctx, "10.0.0.2")
		require.NoError(t, err)
		assert.True(t, other.Allowed)
	})

	t.Run("window expiry resets counter", func(t *testing.T) {
		t.Parallel()

		store := ratelimit.NewMemoryStore(ratelimit.WithCleanupInterval(0))
		fw, err := ratelimit.NewFixedWindow(store, 1, 50*time.Millisecond)
		require.NoError(t, err)

		result, err := fw.Allow(ctx, "10.0.0.1")
		require.NoError(t, err)
		assert.True(t, result.Allowed)

		result, err = fw.Allow(ctx, "10.0.0.1")
		require.NoError(t, err)
		assert.False(t, result.Allowed)

		time.Sleep(60 * time.Millisecond)

		result, err = fw.Allow(ctx, "10.0.0.1")
		require.NoError(t, err)
		assert.True(t, result.Allowed)
	})

	t.Run("empty key rejected", func(t *testing.T) {
		t.Parallel()

		store := ratelimit.NewMemoryStore(ratelimit.WithCleanupInterval(0))
		fw, err := ratelimit.NewFixedWindow(store, 1, time.Minute)
		require.NoError(t, err)

		_, err = fw.Allow(ctx, "")
		assert.ErrorIs(t, err, ratelimit.ErrKeyRequired)
	})
}

func TestFixedWindowStatus(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store := ratelimit.NewMemoryStore(ratelimit.WithCleanupInterval(0))
	fw, err := ratelimit.NewFixedWindow(store, 5, time.Minute)
	require.NoError(t, err)

	status, err := fw.Status(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, status.Allowed)
	assert.Equal(t, 5, status.Remaining)

	_, err = fw.AllowN(ctx, "10.0.0.1", 2)
	require.NoError(t, err)

	status, err = fw.Status(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, 3, status.Remaining)

	// Status must not consume.
	status2, err := fw.Status(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.Equal(t, status.Remaining, status2.Remaining)
}

func TestFixedWindowReset(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	store := ratelimit.NewMemoryStore(ratelimit.WithCleanupInterval(0))
	fw, err := ratelimit.NewFixedWindow(store, 1, time.Minute)
	require.NoError(t, err)

	_, err = fw.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)

	blocked, err := fw.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.False(t, blocked.Allowed)

	require.NoError(t, fw.Reset(ctx, "10.0.0.1"))

	result, err := fw.Allow(ctx, "10.0.0.1")
	require.NoError(t, err)
	assert.True(t, result.Allowed)
}
