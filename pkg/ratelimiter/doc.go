// Package ratelimiter implements token bucket rate limiting with in-memory and
// Redis backed stores and an HTTP middleware.
//
// A bucket holds Capacity tokens and regains RefillRate tokens every
// RefillInterval. Each request takes one token; a request that does not fit
// is denied without draining the bucket further.
//
//	bucket, err := ratelimiter.NewBucket(ratelimiter.NewRedisStore(rdb), cfg)
//	r.With(ratelimiter.Middleware(bucket,
//		ratelimiter.Composite(ratelimiter.ByPath, ratelimiter.ByIP),
//	)).Post("/auth/login", login)
package ratelimiter
