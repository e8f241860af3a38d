package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"MarketMood/internal/domain/models"
	pkgch "MarketMood/pkg/clickhouse"
	applogger "MarketMood/pkg/logger"
)

// CHReadingStore implements ReadingRepository backed by ClickHouse. Readings
// are append-only; Latest is the newest row by fetched_at.
type CHReadingStore struct {
	db *sql.DB
	l  *applogger.Logger
}

func NewCHReadingStore(ch *pkgch.Client) *CHReadingStore {
	return &CHReadingStore{db: ch.DB()}
}

// SetLogger injects a structured logger.
func (s *CHReadingStore) SetLogger(l *applogger.Logger) { s.l = l }

// Schema returns the idempotent DDL for the readings table, fed to
// Client.InitSchema at startup.
func Schema() []string {
	return []string{
		`CREATE DATABASE IF NOT EXISTS marketmood`,
		`CREATE TABLE IF NOT EXISTS marketmood.readings (
            indicator   LowCardinality(String),
            value       Float64,
            rating      LowCardinality(String),
            observed_at DateTime64(3, 'UTC'),
            fetched_at  DateTime64(3, 'UTC'),
            source      LowCardinality(String)
        ) ENGINE = MergeTree()
        PARTITION BY toYYYYMM(observed_at)
        ORDER BY (indicator, fetched_at)`,
	}
}

func (s *CHReadingStore) Latest(ctx context.Context, ind models.Indicator) (*models.Reading, error) {
	const q = `
        SELECT indicator, value, rating, observed_at, fetched_at, source
        FROM marketmood.readings
        WHERE indicator = ?
        ORDER BY fetched_at DESC
        LIMIT 1
    `
	var r models.Reading
	row := s.db.QueryRowContext(ctx, q, string(ind))
	if err := row.Scan(&r.Indicator, &r.Value, &r.Rating, &r.ObservedAt, &r.FetchedAt, &r.Source); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		if s.l != nil {
			s.l.Error("clickhouse latest query error",
				applogger.String("indicator", string(ind)),
				applogger.Error(err),
			)
		}
		return nil, fmt.Errorf("latest reading: %w", err)
	}
	return &r, nil
}

func (s *CHReadingStore) Append(ctx context.Context, r *models.Reading) error {
	const q = `
        INSERT INTO marketmood.readings
            (indicator, value, rating, observed_at, fetched_at, source)
        VALUES (?, ?, ?, ?, ?, ?)
    `
	_, err := s.db.ExecContext(ctx, q,
		string(r.Indicator), r.Value, string(r.Rating), r.ObservedAt, r.FetchedAt, r.Source)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse append error",
				applogger.String("indicator", string(r.Indicator)),
				applogger.Error(err),
			)
		}
		return fmt.Errorf("append reading: %w", err)
	}
	return nil
}

func (s *CHReadingStore) History(ctx context.Context, ind models.Indicator, since time.Time) ([]*models.Reading, error) {
	start := time.Now()
	const q = `
        SELECT indicator, value, rating, observed_at, fetched_at, source
        FROM marketmood.readings
        WHERE indicator = ? AND observed_at >= ?
        ORDER BY observed_at ASC
    `
	rows, err := s.db.QueryContext(ctx, q, string(ind), since)
	if err != nil {
		if s.l != nil {
			s.l.Error("clickhouse history query error",
				applogger.String("indicator", string(ind)),
				applogger.Error(err),
			)
		}
		return nil, fmt.Errorf("reading history: %w", err)
	}
	defer rows.Close()

	out := make([]*models.Reading, 0, 256)
	for rows.Next() {
		var r models.Reading
		if err := rows.Scan(&r.Indicator, &r.Value, &r.Rating, &r.ObservedAt, &r.FetchedAt, &r.Source); err != nil {
			return nil, fmt.Errorf("scan reading: %w", err)
		}
		out = append(out, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	if s.l != nil {
		s.l.Debug("clickhouse history ok",
			applogger.String("indicator", string(ind)),
			applogger.Int("rows", len(out)),
			applogger.Duration("duration_ms", time.Since(start)),
		)
	}
	return out, nil
}

// Prune removes rows past the retention horizon. ClickHouse mutations run
// asynchronously; the delete is issued and completion is not awaited.
func (s *CHReadingStore) Prune(ctx context.Context, olderThan time.Time) error {
	const q = `ALTER TABLE marketmood.readings DELETE WHERE observed_at < ?`
	if _, err := s.db.ExecContext(ctx, q, olderThan); err != nil {
		return fmt.Errorf("prune readings: %w", err)
	}
	return nil
}

func (s *CHReadingStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
