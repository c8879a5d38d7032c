// Package ratelimiter throttles requests with a token bucket per key.
//
// A bucket holds up to Capacity tokens and regains RefillRate tokens every
// RefillInterval. Each request takes one token; a request that finds too
// few tokens is denied without draining the bucket further. Buckets live in
// a Store: RedisStore shares them across replicas, MemoryStore keeps them
// in process.
//
//	bucket, err := ratelimiter.NewBucket(ratelimiter.NewRedisStore(client), cfg)
//	if err != nil {
//		return err
//	}
//	r.With(ratelimiter.Middleware(bucket, clientip.Key)).Post("/auth/token", login)
package ratelimiter
