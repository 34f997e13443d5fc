package ratelimit

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"ignonfollowers/pkg/config"
	"ignonfollowers/pkg/logger"
)

// DefaultLongMultiplier scales the delay range after bulk list fetches
const DefaultLongMultiplier = 3.0

// SleepFunc blocks for d or until ctx is done
type SleepFunc func(ctx context.Context, d time.Duration) error

// Pacer sleeps a uniformly random duration between outbound calls
type Pacer struct {
	min time.Duration
	max time.Duration

	rand  func() float64
	sleep SleepFunc
	now   func() time.Time
	log   logger.Logger

	mu          sync.Mutex
	lastRequest time.Time
}

// PacerOption customizes a Pacer
type PacerOption func(*Pacer)

// WithRand replaces the random source; f must return values in [0, 1)
func WithRand(f func() float64) PacerOption {
	return func(p *Pacer) { p.rand = f }
}

// WithSleep replaces the sleep primitive
func WithSleep(f SleepFunc) PacerOption {
	return func(p *Pacer) { p.sleep = f }
}

// WithClock replaces time.Now
func WithClock(f func() time.Time) PacerOption {
	return func(p *Pacer) { p.now = f }
}

// WithLogger sets the logger used for wait events
func WithLogger(l logger.Logger) PacerOption {
	return func(p *Pacer) { p.log = l }
}

// NewPacer creates a pacer drawing delays from [min, max].
// A max below min is raised to min.
func NewPacer(min, max time.Duration, opts ...PacerOption) *Pacer {
	if min < 0 {
		min = 0
	}
	if max < min {
		max = min
	}
	p := &Pacer{
		min:   min,
		max:   max,
		rand:  rand.Float64,
		sleep: SleepContext,
		now:   time.Now,
		log:   logger.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// NewPacerFromConfig converts the second-based config bounds into a Pacer
func NewPacerFromConfig(cfg config.PacingConfig, opts ...PacerOption) *Pacer {
	return NewPacer(seconds(cfg.MinDelay), seconds(cfg.MaxDelay), opts...)
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// Wait sleeps a short random delay. It returns ctx.Err() if the context
// ends first.
func (p *Pacer) Wait(ctx context.Context, reason string) error {
	d := p.draw(p.min, p.max)
	p.log.WithFields(map[string]interface{}{
		"delay":  d,
		"reason": reason,
	}).Debug("Pacing")
	return p.pause(ctx, d)
}

// WaitLong sleeps a delay drawn from the range scaled by multiplier.
// A non-positive multiplier means DefaultLongMultiplier.
func (p *Pacer) WaitLong(ctx context.Context, multiplier float64, reason string) error {
	if multiplier <= 0 {
		multiplier = DefaultLongMultiplier
	}
	lo := time.Duration(float64(p.min) * multiplier)
	hi := time.Duration(float64(p.max) * multiplier)
	d := p.draw(lo, hi)
	p.log.WithFields(map[string]interface{}{
		"delay":  d,
		"reason": reason,
	}).Info("Extended pause")
	return p.pause(ctx, d)
}

// LastRequestTime reports when the last wait ended. It is informational
// only; delays are never shortened based on it.
func (p *Pacer) LastRequestTime() time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastRequest
}

// Range returns the configured short-delay bounds
func (p *Pacer) Range() (time.Duration, time.Duration) {
	return p.min, p.max
}

func (p *Pacer) draw(lo, hi time.Duration) time.Duration {
	if hi <= lo {
		return lo
	}
	return lo + time.Duration(p.rand()*float64(hi-lo))
}

func (p *Pacer) pause(ctx context.Context, d time.Duration) error {
	err := p.sleep(ctx, d)
	p.mu.Lock()
	p.lastRequest = p.now()
	p.mu.Unlock()
	return err
}

// SleepContext sleeps for d unless ctx is done first
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
