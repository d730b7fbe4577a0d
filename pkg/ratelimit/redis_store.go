package ratelimit

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore implements Store on top of Redis, letting multiple gateway
// replicas share one set of counters.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisStore creates a Redis-backed store. Keys are namespaced with the
// given prefix to avoid collisions with other users of the same database.
func NewRedisStore(client redis.UniversalClient, prefix string) (*RedisStore, error) {
	if client == nil {
		return nil, ErrStoreRequired
	}
	if prefix == "" {
		prefix = "ratelimit"
	}
	return &RedisStore{client: client, prefix: prefix}, nil
}

func (rs *RedisStore) key(key string) string {
	return rs.prefix + ":" + key
}

func (rs *RedisStore) IncrementAndGet(ctx context.Context, key string, incr int, window time.Duration) (int64, time.Duration, error) {
	k := rs.key(key)

	pipe := rs.client.TxPipeline()
	incrCmd := pipe.IncrBy(ctx, k, int64(incr))
	// NX keeps the original window expiry: only the first increment in a
	// window sets the TTL.
	pipe.ExpireNX(ctx, k, window)
	ttlCmd := pipe.PTTL(ctx, k)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, 0, err
	}

	ttl := ttlCmd.Val()
	if ttl < 0 {
		ttl = window
	}
	return incrCmd.Val(), ttl, nil
}

func (rs *RedisStore) Get(ctx context.Context, key string) (int64, time.Duration, error) {
	k := rs.key(key)

	current, err := rs.client.Get(ctx, k).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, 0, nil
		}
		return 0, 0, err
	}

	ttl, err := rs.client.PTTL(ctx, k).Result()
	if err != nil {
		return 0, 0, err
	}
	if ttl < 0 {
		ttl = 0
	}
	return current, ttl, nil
}

func (rs *RedisStore) Delete(ctx context.Context, key string) error {
	return rs.client.Del(ctx, rs.key(key)).Err()
}
