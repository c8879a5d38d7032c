package ratelimiter

import (
	"fmt"
	"time"
)

// Config sizes a bucket. A zero Capacity disables limiting.
type Config struct {
	Capacity       int           `env:"AUTH_RATE_LIMIT_BURST" envDefault:"10"`
	RefillRate     int           `env:"AUTH_RATE_LIMIT_REFILL" envDefault:"1"`
	RefillInterval time.Duration `env:"AUTH_RATE_LIMIT_INTERVAL" envDefault:"6s"`
}

func (c Config) Enabled() bool {
	return c.Capacity > 0
}

func (c Config) validate() error {
	if c.Capacity <= 0 {
		return fmt.Errorf("%w: capacity must be positive, got %d", ErrInvalidConfig, c.Capacity)
	}
	if c.RefillRate <= 0 {
		return fmt.Errorf("%w: refill rate must be positive, got %d", ErrInvalidConfig, c.RefillRate)
	}
	if c.RefillInterval < time.Millisecond {
		return fmt.Errorf("%w: refill interval must be at least 1ms, got %v", ErrInvalidConfig, c.RefillInterval)
	}
	return nil
}

// idleTTL is how long an untouched bucket takes to refill completely, after
// which its state carries no information.
func (c Config) idleTTL() time.Duration {
	intervals := (c.Capacity + c.RefillRate - 1) / c.RefillRate
	return time.Duration(intervals+1) * c.RefillInterval
}

// Result describes one check against a bucket.
type Result struct {
	Limit     int
	Remaining int // negative when the request was denied
	ResetAt   time.Time
}

func (r Result) Allowed() bool {
	return r.Remaining >= 0
}

// RetryAfter returns how long a denied caller should wait, rounded up to
// whole seconds for the Retry-After header.
func (r Result) RetryAfter(now time.Time) time.Duration {
	if r.Allowed() {
		return 0
	}
	d := r.ResetAt.Sub(now)
	if d <= 0 {
		return time.Second
	}
	return (d + time.Second - 1) / time.Second * time.Second
}
