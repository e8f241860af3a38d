package scheduler

import (
	"context"
	"time"

	"MarketMood/internal/domain/models"
	domrepo "MarketMood/internal/domain/repository"
	applogger "MarketMood/pkg/logger"
)

// ReadingRefresher is the orchestrator surface the refresher depends on.
type ReadingRefresher interface {
	ForceRefresh(ctx context.Context, ind models.Indicator) (*models.Reading, models.Freshness, error)
}

// Publisher fans a refreshed reading out to live listeners. The websocket hub
// implements it; a nil publisher disables streaming.
type Publisher interface {
	Publish(r *models.Reading)
}

// Refresher keeps the store warm independent of request traffic and trims
// history past the retention horizon.
type Refresher struct {
	orch      ReadingRefresher
	repo      domrepo.ReadingRepository
	publisher Publisher
	logger    *applogger.Logger
	retention time.Duration

	now func() time.Time
}

func NewRefresher(orch ReadingRefresher, repo domrepo.ReadingRepository, publisher Publisher, lgr *applogger.Logger, retention time.Duration) *Refresher {
	if retention <= 0 {
		retention = 30 * 24 * time.Hour
	}
	return &Refresher{
		orch:      orch,
		repo:      repo,
		publisher: publisher,
		logger:    lgr,
		retention: retention,
		now:       time.Now,
	}
}

// SetClock overrides the refresher's time source for tests.
func (r *Refresher) SetClock(now func() time.Time) {
	if now != nil {
		r.now = now
	}
}

// RefreshAll force-refreshes every tracked indicator. Only genuinely fresh
// readings are published to stream listeners; stale fallbacks are not news.
func (r *Refresher) RefreshAll(ctx context.Context) {
	for _, ind := range models.Indicators() {
		reading, fresh, err := r.orch.ForceRefresh(ctx, ind)
		if err != nil {
			r.logger.Warn("forced refresh failed",
				applogger.String("indicator", string(ind)),
				applogger.Error(err),
			)
			continue
		}
		if r.publisher != nil && fresh == models.FreshnessFresh {
			r.publisher.Publish(reading)
		}
		if ctx.Err() != nil {
			return
		}
	}
}

// PruneOld deletes readings past the retention horizon.
func (r *Refresher) PruneOld(ctx context.Context) {
	cutoff := r.now().Add(-r.retention)
	if err := r.repo.Prune(ctx, cutoff); err != nil {
		r.logger.Error("prune failed", applogger.Error(err))
		return
	}
	r.logger.Info("pruned readings", applogger.String("older_than", cutoff.Format(time.RFC3339)))
}
