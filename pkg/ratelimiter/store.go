package ratelimiter

import (
	"context"
	"time"
)

// Store keeps bucket state.
//
// ConsumeTokens refills the bucket for the time elapsed, then takes tokens
// if enough are left. It returns what remains after the attempt, negative
// when the attempt was refused, and when the next refill happens. Taking
// zero tokens reports the state without changing it.
type Store interface {
	ConsumeTokens(ctx context.Context, key string, tokens int, cfg Config) (remaining int, resetAt time.Time, err error)
	Reset(ctx context.Context, key string) error
}
