package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"MarketMood/internal/domain/models"
)

// PGSubscriptionStore implements SubscriptionStore backed by Postgres.
type PGSubscriptionStore struct {
	pool *pgxpool.Pool
}

func NewPGSubscriptionStore(pool *pgxpool.Pool) *PGSubscriptionStore {
	return &PGSubscriptionStore{pool: pool}
}

// InitSchema creates the subscriptions table (idempotent).
func (s *PGSubscriptionStore) InitSchema(ctx context.Context) error {
	const ddl = `
        CREATE TABLE IF NOT EXISTS subscriptions (
            subscriber_id BIGINT PRIMARY KEY,
            notify_time   TEXT        NOT NULL,
            timezone      TEXT        NOT NULL,
            enabled       BOOLEAN     NOT NULL DEFAULT TRUE,
            language      TEXT        NOT NULL DEFAULT 'en',
            last_fired_at TIMESTAMPTZ,
            created_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
            updated_at    TIMESTAMPTZ NOT NULL DEFAULT now()
        )`
	if _, err := s.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("init subscriptions schema: %w", err)
	}
	return nil
}

// Upsert validates and writes the configuration. An update keeps the existing
// last_fired_at so a settings change never re-arms the current day.
func (s *PGSubscriptionStore) Upsert(ctx context.Context, sub *models.Subscription) error {
	if err := sub.Validate(); err != nil {
		return err
	}
	const q = `
        INSERT INTO subscriptions
            (subscriber_id, notify_time, timezone, enabled, language, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, now(), now())
        ON CONFLICT (subscriber_id) DO UPDATE SET
            notify_time = EXCLUDED.notify_time,
            timezone    = EXCLUDED.timezone,
            enabled     = EXCLUDED.enabled,
            language    = EXCLUDED.language,
            updated_at  = now()`
	if _, err := s.pool.Exec(ctx, q,
		sub.SubscriberID, sub.NotifyTime, sub.Timezone, sub.Enabled, sub.Language); err != nil {
		return fmt.Errorf("upsert subscription: %w", err)
	}
	return nil
}

func (s *PGSubscriptionStore) Disable(ctx context.Context, subscriberID int64) error {
	const q = `UPDATE subscriptions SET enabled = FALSE, updated_at = now() WHERE subscriber_id = $1`
	if _, err := s.pool.Exec(ctx, q, subscriberID); err != nil {
		return fmt.Errorf("disable subscription: %w", err)
	}
	return nil
}

func (s *PGSubscriptionStore) Get(ctx context.Context, subscriberID int64) (*models.Subscription, error) {
	const q = `
        SELECT subscriber_id, notify_time, timezone, enabled, language,
               last_fired_at, created_at, updated_at
        FROM subscriptions
        WHERE subscriber_id = $1`
	sub, err := scanSubscription(s.pool.QueryRow(ctx, q, subscriberID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get subscription: %w", err)
	}
	return sub, nil
}

func (s *PGSubscriptionStore) ListEnabled(ctx context.Context) ([]*models.Subscription, error) {
	const q = `
        SELECT subscriber_id, notify_time, timezone, enabled, language,
               last_fired_at, created_at, updated_at
        FROM subscriptions
        WHERE enabled
        ORDER BY subscriber_id ASC`
	rows, err := s.pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}
	defer rows.Close()

	var out []*models.Subscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, fmt.Errorf("scan subscription: %w", err)
		}
		out = append(out, sub)
	}
	return out, rows.Err()
}

// MarkFired advances last_fired_at; GREATEST keeps it monotonic even if ticks
// race.
func (s *PGSubscriptionStore) MarkFired(ctx context.Context, subscriberID int64, at time.Time) error {
	const q = `
        UPDATE subscriptions
        SET last_fired_at = GREATEST(COALESCE(last_fired_at, 'epoch'::timestamptz), $2),
            updated_at = now()
        WHERE subscriber_id = $1`
	if _, err := s.pool.Exec(ctx, q, subscriberID, at); err != nil {
		return fmt.Errorf("mark fired: %w", err)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanSubscription(row scannable) (*models.Subscription, error) {
	var sub models.Subscription
	if err := row.Scan(
		&sub.SubscriberID, &sub.NotifyTime, &sub.Timezone, &sub.Enabled, &sub.Language,
		&sub.LastFiredAt, &sub.CreatedAt, &sub.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &sub, nil
}
