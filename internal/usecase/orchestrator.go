package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"MarketMood/internal/domain/models"
	domrepo "MarketMood/internal/domain/repository"
	"MarketMood/pkg/cache"
	applogger "MarketMood/pkg/logger"
)

// OrchestratorConfig carries the cache windows and retry policy.
type OrchestratorConfig struct {
	FreshnessWindow func(models.Indicator) time.Duration
	FallbackWindow  time.Duration
	RequestTimeout  time.Duration
	MaxRetries      int
	BackoffMin      time.Duration
	BackoffMax      time.Duration
	Bounds          map[models.Indicator]models.ValueBounds
}

// Orchestrator is the cache-aware fetch engine. The hot path serves from the
// layered cache and the repository without touching the network; stale reads
// funnel through a per-indicator in-flight fetch so that at most one adapter
// call sequence runs per indicator at a time, with every concurrent caller
// sharing its result.
type Orchestrator struct {
	repo      domrepo.ReadingRepository
	providers []domrepo.Provider
	hot       cache.Service
	metrics   domrepo.Metrics
	logger    *applogger.Logger
	cfg       OrchestratorConfig

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error

	mu      sync.Mutex
	flights map[models.Indicator]*flight
}

// flight is one in-progress fetch shared by all waiters.
type flight struct {
	done    chan struct{}
	reading *models.Reading
	fresh   models.Freshness
	err     error
}

// NewOrchestrator builds the orchestrator. Providers are attempted in the
// order given (primary first). hot may be nil to disable the layered cache.
func NewOrchestrator(
	repo domrepo.ReadingRepository,
	providers []domrepo.Provider,
	hot cache.Service,
	metrics domrepo.Metrics,
	lgr *applogger.Logger,
	cfg OrchestratorConfig,
) *Orchestrator {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.BackoffMin <= 0 {
		cfg.BackoffMin = 500 * time.Millisecond
	}
	if cfg.BackoffMax <= 0 {
		cfg.BackoffMax = 10 * time.Second
	}
	if cfg.FreshnessWindow == nil {
		cfg.FreshnessWindow = func(models.Indicator) time.Duration { return 30 * time.Minute }
	}
	if cfg.FallbackWindow <= 0 {
		cfg.FallbackWindow = 3 * time.Hour
	}
	if cfg.Bounds == nil {
		cfg.Bounds = models.DefaultBounds()
	}
	return &Orchestrator{
		repo:      repo,
		providers: providers,
		hot:       hot,
		metrics:   metrics,
		logger:    lgr,
		cfg:       cfg,
		now:       time.Now,
		flights:   make(map[models.Indicator]*flight),
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

// SetClock overrides time and backoff sleeping, used by tests and the
// simulated-clock harness.
func (o *Orchestrator) SetClock(now func() time.Time, sleep func(ctx context.Context, d time.Duration) error) {
	if now != nil {
		o.now = now
	}
	if sleep != nil {
		o.sleep = sleep
	}
}

// Get returns the current reading for ind. A repository hit inside the
// freshness window is served as-is and never blocks on any external call.
func (o *Orchestrator) Get(ctx context.Context, ind models.Indicator) (*models.Reading, models.Freshness, error) {
	if !ind.Valid() {
		return nil, "", fmt.Errorf("unknown indicator %q", ind)
	}

	latest, err := o.latest(ctx, ind)
	if err != nil {
		o.logger.Warn("latest read failed", applogger.String("indicator", string(ind)), applogger.Error(err))
	}
	if DecideFetch(o.now(), latest, o.cfg.FreshnessWindow(ind)) == ActionServe {
		o.metrics.RecordCacheHit(ind, models.FreshnessCached)
		return latest, models.FreshnessCached, nil
	}

	return o.fetchShared(ctx, ind)
}

// ForceRefresh bypasses the freshness check but still joins any in-flight
// fetch for the indicator, and honors the same fallback ladder on failure.
func (o *Orchestrator) ForceRefresh(ctx context.Context, ind models.Indicator) (*models.Reading, models.Freshness, error) {
	if !ind.Valid() {
		return nil, "", fmt.Errorf("unknown indicator %q", ind)
	}
	return o.fetchShared(ctx, ind)
}

// History returns stored readings since the given instant, oldest first.
func (o *Orchestrator) History(ctx context.Context, ind models.Indicator, since time.Time) ([]*models.Reading, error) {
	if !ind.Valid() {
		return nil, fmt.Errorf("unknown indicator %q", ind)
	}
	return o.repo.History(ctx, ind, since)
}

// Status reports the cache state for every tracked indicator.
func (o *Orchestrator) Status(ctx context.Context) []models.CacheStatus {
	now := o.now()
	out := make([]models.CacheStatus, 0, len(models.Indicators()))
	for _, ind := range models.Indicators() {
		st := models.CacheStatus{Indicator: ind}
		if r, err := o.latest(ctx, ind); err == nil && r != nil {
			fetched := r.FetchedAt
			st.HasReading = true
			st.Value = r.Value
			st.Source = r.Source
			st.FetchedAt = &fetched
			st.AgeSeconds = int64(r.Age(now).Seconds())
			st.Fresh = r.Age(now) <= o.cfg.FreshnessWindow(ind)
		}
		out = append(out, st)
	}
	return out
}

// fetchShared deduplicates concurrent fetches per indicator: the first caller
// runs the adapter ladder, later callers wait on the same flight.
func (o *Orchestrator) fetchShared(ctx context.Context, ind models.Indicator) (*models.Reading, models.Freshness, error) {
	o.mu.Lock()
	if f, ok := o.flights[ind]; ok {
		o.mu.Unlock()
		select {
		case <-f.done:
			return f.reading, f.fresh, f.err
		case <-ctx.Done():
			return nil, "", ctx.Err()
		}
	}

	f := &flight{done: make(chan struct{})}
	o.flights[ind] = f
	o.mu.Unlock()

	f.reading, f.fresh, f.err = o.doFetch(ctx, ind)

	o.mu.Lock()
	delete(o.flights, ind)
	o.mu.Unlock()
	close(f.done)

	return f.reading, f.fresh, f.err
}

// doFetch walks the adapter ladder with bounded exponential backoff, persists
// the first valid reading, and falls back to the last persisted reading when
// every adapter is exhausted.
func (o *Orchestrator) doFetch(ctx context.Context, ind models.Indicator) (*models.Reading, models.Freshness, error) {
	start := o.now()
	var lastErr error

	for _, p := range o.providers {
		if !p.Supports(ind) {
			continue
		}

		delay := o.cfg.BackoffMin
		for attempt := 1; attempt <= o.cfg.MaxRetries; attempt++ {
			r, err := o.fetchOnce(ctx, p, ind)
			if err == nil {
				if err := o.repo.Append(ctx, r); err != nil {
					o.logger.Error("append reading failed", applogger.String("indicator", string(ind)), applogger.Error(err))
				}
				o.cacheLatest(ctx, r)
				o.metrics.RecordFetch(p.Name(), ind, "ok")
				o.metrics.RecordLastValue(ind, r.Value)
				o.metrics.RecordLatency("fetch", o.now().Sub(start).Seconds())
				return r, models.FreshnessFresh, nil
			}

			lastErr = err
			o.metrics.RecordFetch(p.Name(), ind, "error")
			o.logger.Warn("adapter fetch failed",
				applogger.String("adapter", p.Name()),
				applogger.String("indicator", string(ind)),
				applogger.Int("attempt", attempt),
				applogger.Error(err),
			)

			if attempt == o.cfg.MaxRetries {
				break
			}
			if err := o.sleep(ctx, delay); err != nil {
				return nil, "", err
			}
			delay *= 2
			if delay > o.cfg.BackoffMax {
				delay = o.cfg.BackoffMax
			}
		}
	}

	// Every adapter exhausted: serve stale if the last persisted reading is
	// still inside the fallback window.
	latest, err := o.repo.Latest(ctx, ind)
	if err == nil && DecideFallback(o.now(), latest, o.cfg.FallbackWindow) == FallbackServeStale {
		o.metrics.RecordCacheHit(ind, models.FreshnessStale)
		o.logger.Warn("serving stale fallback",
			applogger.String("indicator", string(ind)),
			applogger.Duration("age", latest.Age(o.now())),
		)
		return latest, models.FreshnessStale, nil
	}

	if lastErr != nil {
		return nil, "", fmt.Errorf("%w: %v", models.ErrDataUnavailable, lastErr)
	}
	return nil, "", models.ErrDataUnavailable
}

// fetchOnce runs one adapter attempt under the per-attempt timeout and
// normalizes the result: missing timestamps are assigned now, ratings are
// recomputed from the value, and out-of-range values are rejected so a
// provider glitch cannot poison the cache.
func (o *Orchestrator) fetchOnce(ctx context.Context, p domrepo.Provider, ind models.Indicator) (*models.Reading, error) {
	if o.cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.cfg.RequestTimeout)
		defer cancel()
	}

	r, err := p.Fetch(ctx, ind)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, models.NewAdapterError(p.Name(), ind, models.AdapterBadResponse, fmt.Errorf("empty reading"))
	}

	now := o.now()
	if r.ObservedAt.IsZero() {
		r.ObservedAt = now
	}
	r.FetchedAt = now
	if r.FetchedAt.Before(r.ObservedAt) {
		r.ObservedAt = r.FetchedAt
	}
	r.Indicator = ind
	r.Rating = models.RatingFor(ind, r.Value)
	if r.Source == "" {
		r.Source = p.Name()
	}

	if b, ok := o.cfg.Bounds[ind]; ok && !b.Contains(r.Value) {
		return nil, models.NewAdapterError(p.Name(), ind, models.AdapterBadResponse,
			fmt.Errorf("value %.2f outside sane range [%.2f, %.2f]", r.Value, b.Min, b.Max))
	}

	return r, nil
}

// latest reads the newest reading, consulting the layered cache before the
// repository.
func (o *Orchestrator) latest(ctx context.Context, ind models.Indicator) (*models.Reading, error) {
	if o.hot != nil {
		// The memory layer only round-trips strings, so readings are cached
		// as JSON.
		var raw string
		if err := o.hot.Get(ctx, latestKey(ind), &raw); err == nil && raw != "" {
			var r models.Reading
			if err := json.Unmarshal([]byte(raw), &r); err == nil && !r.FetchedAt.IsZero() {
				return &r, nil
			}
		}
	}
	r, err := o.repo.Latest(ctx, ind)
	if err != nil {
		return nil, err
	}
	if r != nil {
		o.cacheLatest(ctx, r)
	}
	return r, nil
}

func (o *Orchestrator) cacheLatest(ctx context.Context, r *models.Reading) {
	if o.hot == nil {
		return
	}
	b, err := json.Marshal(r)
	if err != nil {
		return
	}
	ttl := o.cfg.FreshnessWindow(r.Indicator)
	if err := o.hot.Set(ctx, latestKey(r.Indicator), string(b), ttl); err != nil {
		o.logger.Debug("hot cache set failed", applogger.Error(err))
	}
}

func latestKey(ind models.Indicator) string {
	return cache.GenerateKey("reading:latest", string(ind))
}
