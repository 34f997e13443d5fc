package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Limiter defines the interface for request budgets
type Limiter interface {
	// Allow takes a token if one is available
	Allow() bool
	// Wait blocks until a token is available or ctx is done
	Wait(ctx context.Context) error
	// Reset refills the limiter
	Reset()
}

// TokenBucket grants capacity requests per refill period. The whole bucket
// refills at once when the period has elapsed.
type TokenBucket struct {
	capacity     int
	tokens       int
	refillPeriod time.Duration
	lastRefill   time.Time
	now          func() time.Time
	mu           sync.Mutex
}

// NewTokenBucket creates a full bucket
func NewTokenBucket(capacity int, refillPeriod time.Duration) *TokenBucket {
	if capacity < 1 {
		capacity = 1
	}
	return &TokenBucket{
		capacity:     capacity,
		tokens:       capacity,
		refillPeriod: refillPeriod,
		lastRefill:   time.Now(),
		now:          time.Now,
	}
}

// PerMinute creates a bucket allowing n requests per minute
func PerMinute(n int) *TokenBucket {
	return NewTokenBucket(n, time.Minute)
}

func (tb *TokenBucket) Allow() bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.refill()
	if tb.tokens > 0 {
		tb.tokens--
		return true
	}
	return false
}

func (tb *TokenBucket) Wait(ctx context.Context) error {
	for !tb.Allow() {
		if err := SleepContext(ctx, tb.untilRefill()); err != nil {
			return err
		}
	}
	return ctx.Err()
}

func (tb *TokenBucket) Reset() {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.tokens = tb.capacity
	tb.lastRefill = tb.now()
}

func (tb *TokenBucket) untilRefill() time.Duration {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	d := tb.refillPeriod - tb.now().Sub(tb.lastRefill)
	if d < 10*time.Millisecond {
		d = 10 * time.Millisecond
	}
	return d
}

func (tb *TokenBucket) refill() {
	now := tb.now()
	if now.Sub(tb.lastRefill) >= tb.refillPeriod {
		tb.tokens = tb.capacity
		tb.lastRefill = now
	}
}
