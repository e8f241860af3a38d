package repository

import (
	"context"
	"time"

	"MarketMood/internal/domain/models"
)

// Provider fetches one indicator reading from an external source. Adapters
// for the same indicator need not agree on transport; only the Reading shape
// is fixed.
type Provider interface {
	Name() string
	Supports(ind models.Indicator) bool
	Fetch(ctx context.Context, ind models.Indicator) (*models.Reading, error)
}

// ReadingRepository stores the latest reading and a bounded history per
// indicator. Append never overwrites; History is ordered by observed_at,
// oldest first.
type ReadingRepository interface {
	Latest(ctx context.Context, ind models.Indicator) (*models.Reading, error)
	Append(ctx context.Context, r *models.Reading) error
	History(ctx context.Context, ind models.Indicator, since time.Time) ([]*models.Reading, error)
	Prune(ctx context.Context, olderThan time.Time) error
	Health(ctx context.Context) error
}

// SubscriptionStore persists subscriber notification configurations.
// ListEnabled returns subscriptions in ascending subscriber_id order so
// throttled dispatch stays stable. MarkFired must not move last_fired_at
// backwards.
type SubscriptionStore interface {
	Upsert(ctx context.Context, s *models.Subscription) error
	Disable(ctx context.Context, subscriberID int64) error
	Get(ctx context.Context, subscriberID int64) (*models.Subscription, error)
	ListEnabled(ctx context.Context) ([]*models.Subscription, error)
	MarkFired(ctx context.Context, subscriberID int64, at time.Time) error
}

// Outbound delivers a rendered notification to a destination.
type Outbound interface {
	Send(ctx context.Context, destination string, n *models.Notification) error
}

// Metrics records operational counters for the fetch and dispatch paths.
type Metrics interface {
	RecordFetch(adapter string, ind models.Indicator, outcome string)
	RecordCacheHit(ind models.Indicator, freshness models.Freshness)
	RecordNotification(outcome string)
	RecordLastValue(ind models.Indicator, value float64)
	RecordLatency(op string, seconds float64)
}
