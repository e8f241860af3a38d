package scheduler

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"MarketMood/internal/domain/models"
	internalrepo "MarketMood/internal/repository"
	"MarketMood/internal/service/ratelimit"
	"MarketMood/internal/testutil"
	"MarketMood/internal/usecase"
)

type staticReadings struct {
	mu  sync.Mutex
	err error
}

func (s *staticReadings) Get(_ context.Context, ind models.Indicator) (*models.Reading, models.Freshness, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, "", s.err
	}
	return &models.Reading{
		Indicator: ind,
		Value:     50,
		Rating:    models.RatingFor(ind, 50),
		FetchedAt: time.Now(),
	}, models.FreshnessCached, nil
}

type recordingOutbound struct {
	mu    sync.Mutex
	sends []sentMessage
	fail  func(destination string) error
}

type sentMessage struct {
	destination string
}

func (o *recordingOutbound) Send(_ context.Context, destination string, _ *models.Notification) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.fail != nil {
		if err := o.fail(destination); err != nil {
			return err
		}
	}
	o.sends = append(o.sends, sentMessage{destination: destination})
	return nil
}

func (o *recordingOutbound) destinations() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]string, 0, len(o.sends))
	for _, s := range o.sends {
		out = append(out, s.destination)
	}
	return out
}

func newTestNotifier(t *testing.T, store *internalrepo.MemorySubscriptionStore, out *recordingOutbound, clk *testutil.FakeClock, maxPerSecond float64) *Notifier {
	t.Helper()
	pacer := ratelimit.NewPacer(maxPerSecond)
	pacer.SetClock(clk.Now, clk.Sleep)
	n := NewNotifier(store, &staticReadings{}, out, usecase.NewRenderer(), pacer, testutil.NopMetrics{}, testutil.Logger(), NotifierConfig{
		GraceWindow: 6 * time.Hour,
		Indicators:  []models.Indicator{models.IndicatorComposite, models.IndicatorVolatility},
	})
	n.SetClock(clk.Now)
	return n
}

func seedSubs(t *testing.T, store *internalrepo.MemorySubscriptionStore, count int, notify string) {
	t.Helper()
	for i := 1; i <= count; i++ {
		err := store.Upsert(context.Background(), &models.Subscription{
			SubscriberID: int64(i),
			NotifyTime:   notify,
			Timezone:     "UTC",
			Enabled:      true,
		})
		if err != nil {
			t.Fatalf("seed sub %d: %v", i, err)
		}
	}
}

func TestTickFiresDueSubscriberExactlyOnce(t *testing.T) {
	clk := testutil.NewFakeClock(time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC))
	store := internalrepo.NewMemorySubscriptionStore()
	out := &recordingOutbound{}
	seedSubs(t, store, 1, "09:00")
	n := newTestNotifier(t, store, out, clk, 20)

	n.Tick(context.Background())
	if got := len(out.destinations()); got != 1 {
		t.Fatalf("expected one send, got %d", got)
	}

	// Second tick the same day: nothing new.
	clk.Advance(5 * time.Minute)
	n.Tick(context.Background())
	if got := len(out.destinations()); got != 1 {
		t.Fatalf("expected still one send, got %d", got)
	}

	// Next day fires again.
	clk.Advance(24 * time.Hour)
	n.Tick(context.Background())
	if got := len(out.destinations()); got != 2 {
		t.Fatalf("expected second send the next day, got %d", got)
	}
}

func TestTickDispatchOrderIsStable(t *testing.T) {
	clk := testutil.NewFakeClock(time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC))
	store := internalrepo.NewMemorySubscriptionStore()
	out := &recordingOutbound{}
	seedSubs(t, store, 10, "09:00")
	n := newTestNotifier(t, store, out, clk, 1000)

	n.Tick(context.Background())
	dests := out.destinations()
	if len(dests) != 10 {
		t.Fatalf("expected 10 sends, got %d", len(dests))
	}
	for i, d := range dests {
		want := fmt.Sprintf("%d", i+1)
		if d != want {
			t.Fatalf("position %d: expected subscriber %s, got %s", i, want, d)
		}
	}
}

func TestTickPacesLargeBatch(t *testing.T) {
	clk := testutil.NewFakeClock(time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC))
	start := clk.Now()
	store := internalrepo.NewMemorySubscriptionStore()
	out := &recordingOutbound{}
	seedSubs(t, store, 500, "09:00")
	n := newTestNotifier(t, store, out, clk, 20)

	n.Tick(context.Background())
	if got := len(out.destinations()); got != 500 {
		t.Fatalf("expected 500 sends, got %d", got)
	}
	// 500 sends at 20/s must consume at least 25 simulated seconds.
	if elapsed := clk.Now().Sub(start); elapsed < 25*time.Second {
		t.Fatalf("batch finished too fast: %v", elapsed)
	}
}

func TestSendFailureDoesNotMarkFired(t *testing.T) {
	clk := testutil.NewFakeClock(time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC))
	store := internalrepo.NewMemorySubscriptionStore()
	failing := true
	out := &recordingOutbound{fail: func(string) error {
		if failing {
			return models.NewSendError("1", models.SendUnreachable, fmt.Errorf("down"))
		}
		return nil
	}}
	seedSubs(t, store, 1, "09:00")
	n := newTestNotifier(t, store, out, clk, 20)

	n.Tick(context.Background())
	if len(out.destinations()) != 0 {
		t.Fatalf("failed send must not be recorded as delivered")
	}
	sub, _ := store.Get(context.Background(), 1)
	if sub.LastFiredAt != nil {
		t.Fatalf("failed send must not advance last_fired_at")
	}

	// Channel recovers inside the grace window: the next tick retries.
	failing = false
	clk.Advance(10 * time.Minute)
	n.Tick(context.Background())
	if got := len(out.destinations()); got != 1 {
		t.Fatalf("expected retry to deliver, got %d sends", got)
	}
	sub, _ = store.Get(context.Background(), 1)
	if sub.LastFiredAt == nil {
		t.Fatalf("successful send must advance last_fired_at")
	}
}

func TestOneFailingSubscriberDoesNotBlockOthers(t *testing.T) {
	clk := testutil.NewFakeClock(time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC))
	store := internalrepo.NewMemorySubscriptionStore()
	out := &recordingOutbound{fail: func(destination string) error {
		if destination == "2" {
			return models.NewSendError(destination, models.SendRejected, fmt.Errorf("blocked bot"))
		}
		return nil
	}}
	seedSubs(t, store, 3, "09:00")
	n := newTestNotifier(t, store, out, clk, 100)

	n.Tick(context.Background())
	dests := out.destinations()
	if len(dests) != 2 || dests[0] != "1" || dests[1] != "3" {
		t.Fatalf("expected subscribers 1 and 3 delivered, got %v", dests)
	}
}

func TestNoDataSkipsSendAndKeepsDue(t *testing.T) {
	clk := testutil.NewFakeClock(time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC))
	store := internalrepo.NewMemorySubscriptionStore()
	out := &recordingOutbound{}
	seedSubs(t, store, 1, "09:00")

	pacer := ratelimit.NewPacer(20)
	pacer.SetClock(clk.Now, clk.Sleep)
	readings := &staticReadings{err: models.ErrDataUnavailable}
	n := NewNotifier(store, readings, out, usecase.NewRenderer(), pacer, testutil.NopMetrics{}, testutil.Logger(), NotifierConfig{
		GraceWindow: 6 * time.Hour,
		Indicators:  []models.Indicator{models.IndicatorComposite},
	})
	n.SetClock(clk.Now)

	n.Tick(context.Background())
	if len(out.destinations()) != 0 {
		t.Fatalf("no notification without data")
	}

	// Data returns: the subscription is still due and fires.
	readings.mu.Lock()
	readings.err = nil
	readings.mu.Unlock()
	clk.Advance(10 * time.Minute)
	n.Tick(context.Background())
	if got := len(out.destinations()); got != 1 {
		t.Fatalf("expected delivery once data is back, got %d", got)
	}
}

func TestQuietHoursDeferThenFire(t *testing.T) {
	// Target 06:30 falls inside the 23:00-07:00 quiet window; with a 6h grace
	// the subscription is still due when the window ends, so the deferred
	// notification fires on the first tick after 07:00.
	clk := testutil.NewFakeClock(time.Date(2025, 6, 2, 6, 35, 0, 0, time.UTC))
	store := internalrepo.NewMemorySubscriptionStore()
	out := &recordingOutbound{}
	seedSubs(t, store, 1, "06:30")

	pacer := ratelimit.NewPacer(20)
	pacer.SetClock(clk.Now, clk.Sleep)
	n := NewNotifier(store, &staticReadings{}, out, usecase.NewRenderer(), pacer, testutil.NopMetrics{}, testutil.Logger(), NotifierConfig{
		GraceWindow:     6 * time.Hour,
		QuietHoursStart: "23:00",
		QuietHoursEnd:   "07:00",
		Indicators:      []models.Indicator{models.IndicatorComposite},
	})
	n.SetClock(clk.Now)

	n.Tick(context.Background())
	if len(out.destinations()) != 0 {
		t.Fatalf("no delivery inside quiet hours")
	}

	clk.Set(time.Date(2025, 6, 2, 7, 5, 0, 0, time.UTC))
	n.Tick(context.Background())
	if got := len(out.destinations()); got != 1 {
		t.Fatalf("expected the deferred notification after quiet hours, got %d sends", got)
	}

	// Still exactly once for the day.
	clk.Advance(10 * time.Minute)
	n.Tick(context.Background())
	if got := len(out.destinations()); got != 1 {
		t.Fatalf("deferred delivery must not repeat, got %d sends", got)
	}
}

func TestQuietHoursPastGraceSkipsDay(t *testing.T) {
	// A target deep inside quiet hours whose grace window also ends inside
	// the window: the day is missed, not delivered late.
	clk := testutil.NewFakeClock(time.Date(2025, 6, 2, 23, 30, 0, 0, time.UTC))
	store := internalrepo.NewMemorySubscriptionStore()
	out := &recordingOutbound{}
	seedSubs(t, store, 1, "23:00")

	pacer := ratelimit.NewPacer(20)
	pacer.SetClock(clk.Now, clk.Sleep)
	n := NewNotifier(store, &staticReadings{}, out, usecase.NewRenderer(), pacer, testutil.NopMetrics{}, testutil.Logger(), NotifierConfig{
		GraceWindow:     6 * time.Hour,
		QuietHoursStart: "23:00",
		QuietHoursEnd:   "07:00",
		Indicators:      []models.Indicator{models.IndicatorComposite},
	})
	n.SetClock(clk.Now)

	n.Tick(context.Background())
	if len(out.destinations()) != 0 {
		t.Fatalf("no delivery inside quiet hours")
	}

	clk.Set(time.Date(2025, 6, 3, 4, 30, 0, 0, time.UTC))
	n.Tick(context.Background())
	if len(out.destinations()) != 0 {
		t.Fatalf("still quiet at 04:30")
	}
}

func TestBroadcastDoesNotTouchLastFired(t *testing.T) {
	clk := testutil.NewFakeClock(time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC))
	store := internalrepo.NewMemorySubscriptionStore()
	out := &recordingOutbound{}
	seedSubs(t, store, 5, "09:00")
	n := newTestNotifier(t, store, out, clk, 100)

	sent, failed := n.Broadcast(context.Background(), "maintenance tonight")
	if sent != 5 || failed != 0 {
		t.Fatalf("expected 5 sends, got sent=%d failed=%d", sent, failed)
	}
	for i := int64(1); i <= 5; i++ {
		sub, _ := store.Get(context.Background(), i)
		if sub.LastFiredAt != nil {
			t.Fatalf("broadcast must not mark daily notifications fired")
		}
	}
}
