package testutil

import (
	"context"
	"sync"
	"time"

	"MarketMood/internal/domain/models"
)

// FakeClock is a manually driven time source for simulated-time tests.
type FakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func NewFakeClock(start time.Time) *FakeClock {
	return &FakeClock{now: start}
}

// Now returns the current simulated instant.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the simulated clock forward.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Set jumps the simulated clock to a specific instant.
func (c *FakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// Sleep advances the clock by d instead of blocking, honoring cancellation.
func (c *FakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.Advance(d)
	return nil
}

// NopMetrics discards every recording.
type NopMetrics struct{}

func (NopMetrics) RecordFetch(string, models.Indicator, string)      {}
func (NopMetrics) RecordCacheHit(models.Indicator, models.Freshness) {}
func (NopMetrics) RecordNotification(string)                         {}
func (NopMetrics) RecordLastValue(models.Indicator, float64)         {}
func (NopMetrics) RecordLatency(string, float64)                     {}
