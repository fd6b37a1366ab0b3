package ratelimiter

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Config describes a token bucket.
type Config struct {
	Capacity       int
	RefillRate     int
	RefillInterval time.Duration
}

func (c Config) validate() error {
	switch {
	case c.Capacity <= 0:
		return errors.Join(ErrInvalidConfig, fmt.Errorf("capacity must be positive, got %d", c.Capacity))
	case c.RefillRate <= 0:
		return errors.Join(ErrInvalidConfig, fmt.Errorf("refill rate must be positive, got %d", c.RefillRate))
	case c.RefillInterval <= 0:
		return errors.Join(ErrInvalidConfig, fmt.Errorf("refill interval must be positive, got %v", c.RefillInterval))
	}
	return nil
}

// Result is the outcome of one check. Remaining is negative when the
// request was denied.
type Result struct {
	Limit     int
	Remaining int
	ResetAt   time.Time
}

func (r *Result) Allowed() bool {
	return r.Remaining >= 0
}

// RetryAfter is how long a denied caller should wait; zero when allowed.
func (r *Result) RetryAfter(now time.Time) time.Duration {
	if r.Allowed() || !r.ResetAt.After(now) {
		return 0
	}
	return r.ResetAt.Sub(now)
}

// Store keeps bucket state.
type Store interface {
	// ConsumeTokens takes n tokens from the bucket at key when enough are
	// available. Otherwise it leaves the bucket untouched and reports the
	// shortfall as a negative remaining count.
	ConsumeTokens(ctx context.Context, key string, n int, cfg Config) (remaining int, resetAt time.Time, err error)
	Reset(ctx context.Context, key string) error
}
