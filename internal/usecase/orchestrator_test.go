package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"MarketMood/internal/domain/models"
	domrepo "MarketMood/internal/domain/repository"
	internalrepo "MarketMood/internal/repository"
	"MarketMood/internal/testutil"
)

type fakeProvider struct {
	name string
	fn   func(ctx context.Context, ind models.Indicator) (*models.Reading, error)

	mu    sync.Mutex
	calls int
}

func (p *fakeProvider) Name() string { return p.name }

func (p *fakeProvider) Supports(models.Indicator) bool { return true }

func (p *fakeProvider) Fetch(ctx context.Context, ind models.Indicator) (*models.Reading, error) {
	p.mu.Lock()
	p.calls++
	p.mu.Unlock()
	return p.fn(ctx, ind)
}

func (p *fakeProvider) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

func newTestOrchestrator(t *testing.T, repo *internalrepo.MemoryReadingStore, p *fakeProvider, clk *testutil.FakeClock) *Orchestrator {
	t.Helper()
	o := NewOrchestrator(repo, []domrepo.Provider{p}, nil, testutil.NopMetrics{}, testutil.Logger(), OrchestratorConfig{
		FreshnessWindow: func(models.Indicator) time.Duration { return 30 * time.Minute },
		FallbackWindow:  3 * time.Hour,
		MaxRetries:      3,
		BackoffMin:      time.Second,
		BackoffMax:      8 * time.Second,
	})
	o.SetClock(clk.Now, clk.Sleep)
	return o
}

func TestGetServesFreshWithoutFetch(t *testing.T) {
	clk := testutil.NewFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	repo := internalrepo.NewMemoryReadingStore()
	_ = repo.Append(context.Background(), &models.Reading{
		Indicator: models.IndicatorComposite,
		Value:     42,
		FetchedAt: clk.Now().Add(-10 * time.Minute),
	})
	p := &fakeProvider{name: "cnn", fn: func(context.Context, models.Indicator) (*models.Reading, error) {
		t.Fatal("fetch must not run inside the freshness window")
		return nil, nil
	}}
	o := newTestOrchestrator(t, repo, p, clk)

	r, fresh, err := o.Get(context.Background(), models.IndicatorComposite)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fresh != models.FreshnessCached {
		t.Fatalf("expected cached, got %s", fresh)
	}
	if r.Value != 42 {
		t.Fatalf("unexpected value %v", r.Value)
	}
	if p.callCount() != 0 {
		t.Fatalf("expected zero fetches, got %d", p.callCount())
	}
}

func TestConcurrentGetsShareOneFetch(t *testing.T) {
	clk := testutil.NewFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	repo := internalrepo.NewMemoryReadingStore()

	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	p := &fakeProvider{name: "cnn", fn: func(_ context.Context, ind models.Indicator) (*models.Reading, error) {
		once.Do(func() { close(entered) })
		<-release
		return &models.Reading{Indicator: ind, Value: 55}, nil
	}}
	o := newTestOrchestrator(t, repo, p, clk)

	const callers = 8
	var wg sync.WaitGroup
	results := make([]float64, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r, _, err := o.Get(context.Background(), models.IndicatorComposite)
			errs[i] = err
			if r != nil {
				results[i] = r.Value
			}
		}(i)
	}

	<-entered
	// Every caller is now either inside the flight or waiting on it.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if p.callCount() != 1 {
		t.Fatalf("expected exactly one fetch, got %d", p.callCount())
	}
	for i := 0; i < callers; i++ {
		if errs[i] != nil {
			t.Fatalf("caller %d error: %v", i, errs[i])
		}
		if results[i] != 55 {
			t.Fatalf("caller %d got value %v", i, results[i])
		}
	}
}

func TestStaleFallbackServedWhenAdaptersFail(t *testing.T) {
	clk := testutil.NewFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	repo := internalrepo.NewMemoryReadingStore()
	_ = repo.Append(context.Background(), &models.Reading{
		Indicator: models.IndicatorComposite,
		Value:     33,
		FetchedAt: clk.Now().Add(-2 * time.Hour),
	})
	p := &fakeProvider{name: "cnn", fn: func(context.Context, models.Indicator) (*models.Reading, error) {
		return nil, fmt.Errorf("upstream down")
	}}
	o := newTestOrchestrator(t, repo, p, clk)

	r, fresh, err := o.Get(context.Background(), models.IndicatorComposite)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fresh != models.FreshnessStale {
		t.Fatalf("expected stale fallback, got %s", fresh)
	}
	if r.Value != 33 {
		t.Fatalf("unexpected value %v", r.Value)
	}
	if p.callCount() != 3 {
		t.Fatalf("expected 3 attempts, got %d", p.callCount())
	}
}

func TestDataUnavailableWhenNothingCached(t *testing.T) {
	clk := testutil.NewFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	repo := internalrepo.NewMemoryReadingStore()
	p := &fakeProvider{name: "cnn", fn: func(context.Context, models.Indicator) (*models.Reading, error) {
		return nil, fmt.Errorf("upstream down")
	}}
	o := newTestOrchestrator(t, repo, p, clk)

	_, _, err := o.Get(context.Background(), models.IndicatorComposite)
	if !errors.Is(err, models.ErrDataUnavailable) {
		t.Fatalf("expected ErrDataUnavailable, got %v", err)
	}
}

func TestDataUnavailableWhenFallbackTooOld(t *testing.T) {
	clk := testutil.NewFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	repo := internalrepo.NewMemoryReadingStore()
	_ = repo.Append(context.Background(), &models.Reading{
		Indicator: models.IndicatorComposite,
		Value:     33,
		FetchedAt: clk.Now().Add(-4 * time.Hour),
	})
	p := &fakeProvider{name: "cnn", fn: func(context.Context, models.Indicator) (*models.Reading, error) {
		return nil, fmt.Errorf("upstream down")
	}}
	o := newTestOrchestrator(t, repo, p, clk)

	_, _, err := o.Get(context.Background(), models.IndicatorComposite)
	if !errors.Is(err, models.ErrDataUnavailable) {
		t.Fatalf("expected ErrDataUnavailable, got %v", err)
	}
}

func TestOutOfBoundsValueRejected(t *testing.T) {
	clk := testutil.NewFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	repo := internalrepo.NewMemoryReadingStore()
	p := &fakeProvider{name: "cnn", fn: func(_ context.Context, ind models.Indicator) (*models.Reading, error) {
		return &models.Reading{Indicator: ind, Value: 250}, nil
	}}
	o := newTestOrchestrator(t, repo, p, clk)

	_, _, err := o.Get(context.Background(), models.IndicatorComposite)
	if !errors.Is(err, models.ErrDataUnavailable) {
		t.Fatalf("expected ErrDataUnavailable after bounds rejection, got %v", err)
	}
	latest, _ := repo.Latest(context.Background(), models.IndicatorComposite)
	if latest != nil {
		t.Fatalf("rejected value must never be stored")
	}
}

func TestRetrySucceedsAfterTransientFailures(t *testing.T) {
	clk := testutil.NewFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	repo := internalrepo.NewMemoryReadingStore()
	var n int
	p := &fakeProvider{name: "cnn", fn: func(_ context.Context, ind models.Indicator) (*models.Reading, error) {
		n++
		if n < 3 {
			return nil, fmt.Errorf("transient")
		}
		return &models.Reading{Indicator: ind, Value: 61}, nil
	}}
	o := newTestOrchestrator(t, repo, p, clk)

	r, fresh, err := o.Get(context.Background(), models.IndicatorComposite)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fresh != models.FreshnessFresh {
		t.Fatalf("expected fresh, got %s", fresh)
	}
	if r.Value != 61 || r.Rating != models.RatingGreed {
		t.Fatalf("unexpected reading %+v", r)
	}
	latest, _ := repo.Latest(context.Background(), models.IndicatorComposite)
	if latest == nil || latest.Value != 61 {
		t.Fatalf("successful fetch must be persisted")
	}
}

func TestForceRefreshBypassesFreshness(t *testing.T) {
	clk := testutil.NewFakeClock(time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))
	repo := internalrepo.NewMemoryReadingStore()
	_ = repo.Append(context.Background(), &models.Reading{
		Indicator: models.IndicatorComposite,
		Value:     42,
		FetchedAt: clk.Now().Add(-time.Minute),
	})
	p := &fakeProvider{name: "cnn", fn: func(_ context.Context, ind models.Indicator) (*models.Reading, error) {
		return &models.Reading{Indicator: ind, Value: 50}, nil
	}}
	o := newTestOrchestrator(t, repo, p, clk)

	r, fresh, err := o.ForceRefresh(context.Background(), models.IndicatorComposite)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fresh != models.FreshnessFresh || r.Value != 50 {
		t.Fatalf("expected fresh refetch, got %s %v", fresh, r.Value)
	}
	if p.callCount() != 1 {
		t.Fatalf("expected one fetch, got %d", p.callCount())
	}
}
