package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Pacer throttles outbound sends to a global ceiling using fixed-delay
// pacing: every Wait pays one interval, so N sends take at least N*interval.
// Throttling delays callers, it never reorders or drops them.
type Pacer struct {
	interval time.Duration

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error

	mu   sync.Mutex
	next time.Time
}

// NewPacer creates a pacer allowing at most maxPerSecond sends per second.
func NewPacer(maxPerSecond float64) *Pacer {
	if maxPerSecond <= 0 {
		maxPerSecond = 1
	}
	return &Pacer{
		interval: time.Duration(float64(time.Second) / maxPerSecond),
		now:      time.Now,
		sleep: func(ctx context.Context, d time.Duration) error {
			select {
			case <-time.After(d):
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		},
	}
}

// SetClock overrides time and sleeping for simulated-clock tests.
func (p *Pacer) SetClock(now func() time.Time, sleep func(ctx context.Context, d time.Duration) error) {
	if now != nil {
		p.now = now
	}
	if sleep != nil {
		p.sleep = sleep
	}
}

// Interval returns the pacing interval between sends.
func (p *Pacer) Interval() time.Duration { return p.interval }

// Wait blocks until the next send slot is available or ctx is done.
func (p *Pacer) Wait(ctx context.Context) error {
	p.mu.Lock()
	now := p.now()
	target := p.next
	if target.Before(now) {
		target = now
	}
	target = target.Add(p.interval)
	p.next = target
	p.mu.Unlock()

	if d := target.Sub(now); d > 0 {
		return p.sleep(ctx, d)
	}
	return nil
}
