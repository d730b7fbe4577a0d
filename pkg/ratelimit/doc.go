// Package ratelimit implements fixed window request limiting for the payment
// webhook gateway.
//
// A FixedWindow limiter counts requests per key within a rolling series of
// fixed intervals. Counters live behind the Store interface with two
// backends: MemoryStore for single-instance deployments and tests, and
// RedisStore for sharing counters across replicas.
//
//	store := ratelimit.NewMemoryStore()
//	limiter, _ := ratelimit.NewFixedWindow(store, 100, time.Minute)
//	router.Use(ratelimit.Middleware(limiter, ratelimit.PerIP))
//
// The middleware sets X-RateLimit-* headers on every response and answers
// 429 with Retry-After once the window is exhausted.
package ratelimit
