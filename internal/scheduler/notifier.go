package scheduler

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"MarketMood/internal/domain/models"
	domrepo "MarketMood/internal/domain/repository"
	"MarketMood/internal/service/ratelimit"
	"MarketMood/internal/usecase"
	applogger "MarketMood/pkg/logger"
)

// ReadingGetter is the orchestrator surface the notifier depends on. Dispatch
// uses Get, never ForceRefresh, so one tick's fetch result is shared across
// every subscriber due in that tick.
type ReadingGetter interface {
	Get(ctx context.Context, ind models.Indicator) (*models.Reading, models.Freshness, error)
}

// NotifierConfig carries dispatch policy.
type NotifierConfig struct {
	GraceWindow     time.Duration
	QuietHoursStart string
	QuietHoursEnd   string
	// Indicators included in the daily payload. The first entry is required
	// for a send; the rest are best-effort.
	Indicators []models.Indicator
}

// Notifier evaluates due subscriptions on each tick and dispatches paced
// notifications. last_fired_at is advanced only after a successful send and
// before the next subscriber, so a crash mid-batch cannot duplicate sends on
// restart.
type Notifier struct {
	store    domrepo.SubscriptionStore
	readings ReadingGetter
	outbound domrepo.Outbound
	renderer *usecase.Renderer
	pacer    *ratelimit.Pacer
	metrics  domrepo.Metrics
	logger   *applogger.Logger
	cfg      NotifierConfig

	now func() time.Time

	mu      sync.Mutex
	ticking bool
}

func NewNotifier(
	store domrepo.SubscriptionStore,
	readings ReadingGetter,
	outbound domrepo.Outbound,
	renderer *usecase.Renderer,
	pacer *ratelimit.Pacer,
	metrics domrepo.Metrics,
	lgr *applogger.Logger,
	cfg NotifierConfig,
) *Notifier {
	if len(cfg.Indicators) == 0 {
		cfg.Indicators = []models.Indicator{models.IndicatorComposite, models.IndicatorVolatility}
	}
	if cfg.GraceWindow <= 0 {
		cfg.GraceWindow = 6 * time.Hour
	}
	return &Notifier{
		store:    store,
		readings: readings,
		outbound: outbound,
		renderer: renderer,
		pacer:    pacer,
		metrics:  metrics,
		logger:   lgr,
		cfg:      cfg,
		now:      time.Now,
	}
}

// SetClock overrides the notifier's time source for simulated-clock tests.
func (n *Notifier) SetClock(now func() time.Time) {
	if now != nil {
		n.now = now
	}
}

// Tick runs one due-evaluation pass. Ticks never overlap: a tick arriving
// while one is still running is dropped, and no failure inside the pass
// terminates the loop.
func (n *Notifier) Tick(ctx context.Context) {
	n.mu.Lock()
	if n.ticking {
		n.mu.Unlock()
		n.logger.Warn("tick still running, skipping")
		return
	}
	n.ticking = true
	n.mu.Unlock()
	defer func() {
		n.mu.Lock()
		n.ticking = false
		n.mu.Unlock()
	}()

	now := n.now()
	subs, err := n.store.ListEnabled(ctx)
	if err != nil {
		n.logger.Error("list subscriptions failed", applogger.Error(err))
		return
	}

	// Stable dispatch order regardless of store implementation.
	sort.Slice(subs, func(i, j int) bool { return subs[i].SubscriberID < subs[j].SubscriberID })

	var due, sent int
	for _, sub := range subs {
		if !IsDue(sub, now, n.cfg.GraceWindow) {
			continue
		}
		if InQuietHours(now, sub.Location(), n.cfg.QuietHoursStart, n.cfg.QuietHoursEnd) {
			// Deferred, not skipped: the next tick after quiet hours end
			// still finds the subscription due within the grace window.
			continue
		}
		due++
		if n.dispatch(ctx, sub, now) {
			sent++
		}
		if ctx.Err() != nil {
			return
		}
	}

	if due > 0 {
		n.logger.Info("notification tick",
			applogger.Int("enabled", len(subs)),
			applogger.Int("due", due),
			applogger.Int("sent", sent),
		)
	}
}

// dispatch sends one subscriber's daily report. Returns true when the send
// succeeded and last_fired_at was advanced.
func (n *Notifier) dispatch(ctx context.Context, sub *models.Subscription, now time.Time) bool {
	readings := make([]models.Reading, 0, len(n.cfg.Indicators))
	for i, ind := range n.cfg.Indicators {
		r, _, err := n.readings.Get(ctx, ind)
		if err != nil {
			if i == 0 {
				// No composite reading means nothing to report; keep the
				// subscription due so the next tick retries.
				n.logger.Error("no data for notification",
					applogger.Int64("subscriber", sub.SubscriberID),
					applogger.Error(err),
				)
				n.metrics.RecordNotification("no_data")
				return false
			}
			continue
		}
		readings = append(readings, *r)
	}

	payload := n.renderer.RenderDaily(sub, readings, now)

	if err := n.pacer.Wait(ctx); err != nil {
		return false
	}
	if err := n.outbound.Send(ctx, payload.Destination, payload); err != nil {
		// last_fired_at is not advanced; the next tick retries within the
		// grace window.
		n.logger.Error("send failed",
			applogger.Int64("subscriber", sub.SubscriberID),
			applogger.Error(err),
		)
		n.metrics.RecordNotification("send_failed")
		return false
	}

	if err := n.store.MarkFired(ctx, sub.SubscriberID, n.now()); err != nil {
		// The message went out; log loudly since a lost mark risks a
		// duplicate after restart.
		n.logger.Error("mark fired failed",
			applogger.Int64("subscriber", sub.SubscriberID),
			applogger.Error(err),
		)
	}
	n.metrics.RecordNotification("sent")
	return true
}

// Broadcast sends an operator message to every enabled subscriber through
// the same paced path. It never touches last_fired_at.
func (n *Notifier) Broadcast(ctx context.Context, text string) (sent, failed int) {
	subs, err := n.store.ListEnabled(ctx)
	if err != nil {
		n.logger.Error("list subscriptions failed", applogger.Error(err))
		return 0, 0
	}
	sort.Slice(subs, func(i, j int) bool { return subs[i].SubscriberID < subs[j].SubscriberID })

	now := n.now()
	for _, sub := range subs {
		if err := n.pacer.Wait(ctx); err != nil {
			return sent, failed
		}
		payload := n.renderer.RenderBroadcast(sub, text, now)
		if err := n.outbound.Send(ctx, payload.Destination, payload); err != nil {
			if !errors.Is(err, context.Canceled) {
				n.logger.Error("broadcast send failed",
					applogger.Int64("subscriber", sub.SubscriberID),
					applogger.Error(err),
				)
			}
			failed++
			continue
		}
		sent++
	}
	n.logger.Info("broadcast completed", applogger.Int("sent", sent), applogger.Int("failed", failed))
	return sent, failed
}
