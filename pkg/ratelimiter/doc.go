// Package ratelimiter implements a token bucket limiter with in-memory and
// Redis storage, plus net/http middleware.
//
// A bucket holds up to Capacity tokens and regains RefillRate tokens every
// RefillInterval. A request that finds too few tokens is denied without
// consuming any.
//
//	limiter, err := ratelimiter.NewBucket(ratelimiter.NewMemoryStore(), ratelimiter.Config{
//		Capacity:       60,
//		RefillRate:     1,
//		RefillInterval: time.Second,
//	})
//	r.Use(ratelimiter.Middleware(limiter, ratelimiter.ByClientIP))
//
// RedisStore shares buckets between replicas; MemoryStore is per process.
package ratelimiter
