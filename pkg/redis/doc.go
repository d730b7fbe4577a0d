// Package redis wraps the go-redis client with retrying connection setup and
// a health probe. Redis backs the shared rate limit counters for the payment
// webhook gateway.
//
// Configuration comes from environment variables via github.com/caarlos0/env:
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer client.Close()
//
// Sentinel errors wrap driver errors with errors.Join so callers can use
// errors.Is on ErrNotReady and friends.
package redis
