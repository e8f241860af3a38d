package ratelimit

import (
	"context"
	"sync"
	"testing"
	"time"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
	return nil
}

func TestWaitPacesSequentialSends(t *testing.T) {
	clk := &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	start := clk.Now()
	p := NewPacer(20)
	p.SetClock(clk.Now, clk.Sleep)

	for i := 0; i < 100; i++ {
		if err := p.Wait(context.Background()); err != nil {
			t.Fatalf("wait %d: %v", i, err)
		}
	}
	// 100 slots at 20/s pay 50ms each.
	if elapsed := clk.Now().Sub(start); elapsed < 5*time.Second {
		t.Fatalf("100 sends at 20/s finished in %v", elapsed)
	}
}

func TestWaitInterval(t *testing.T) {
	if got := NewPacer(20).Interval(); got != 50*time.Millisecond {
		t.Fatalf("expected 50ms interval, got %v", got)
	}
	if got := NewPacer(0).Interval(); got != time.Second {
		t.Fatalf("non-positive rate falls back to 1/s, got %v", got)
	}
}

func TestWaitHonoursCancellation(t *testing.T) {
	clk := &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	p := NewPacer(20)
	p.SetClock(clk.Now, clk.Sleep)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := p.Wait(ctx); err == nil {
		t.Fatalf("expected context error from cancelled wait")
	}
}

func TestWaitIsSafeConcurrently(t *testing.T) {
	clk := &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	start := clk.Now()
	p := NewPacer(100)
	p.SetClock(clk.Now, clk.Sleep)

	const callers = 50
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = p.Wait(context.Background())
		}()
	}
	wg.Wait()

	// Every caller reserved a distinct slot, so simulated time advanced by at
	// least one interval per caller.
	if elapsed := clk.Now().Sub(start); elapsed < callers*10*time.Millisecond {
		t.Fatalf("concurrent waits overlapped slots: %v", elapsed)
	}
}
