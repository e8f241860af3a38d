package usecase

import (
	"testing"
	"time"

	"MarketMood/internal/domain/models"
)

func TestDecideFetchNoReading(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	if got := DecideFetch(now, nil, 30*time.Minute); got != ActionFetch {
		t.Fatalf("expected fetch, got %v", got)
	}
}

func TestDecideFetchFreshReading(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	r := &models.Reading{Indicator: models.IndicatorComposite, FetchedAt: now.Add(-10 * time.Minute)}
	if got := DecideFetch(now, r, 30*time.Minute); got != ActionServe {
		t.Fatalf("expected serve, got %v", got)
	}
}

func TestDecideFetchBoundaryIsFresh(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	r := &models.Reading{FetchedAt: now.Add(-30 * time.Minute)}
	if got := DecideFetch(now, r, 30*time.Minute); got != ActionServe {
		t.Fatalf("reading exactly at the window edge should still serve")
	}
}

func TestDecideFetchStaleReading(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	r := &models.Reading{FetchedAt: now.Add(-31 * time.Minute)}
	if got := DecideFetch(now, r, 30*time.Minute); got != ActionFetch {
		t.Fatalf("expected fetch, got %v", got)
	}
}

func TestDecideFallbackInsideWindow(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	r := &models.Reading{FetchedAt: now.Add(-2 * time.Hour)}
	if got := DecideFallback(now, r, 3*time.Hour); got != FallbackServeStale {
		t.Fatalf("expected stale serve, got %v", got)
	}
}

func TestDecideFallbackPastWindow(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	r := &models.Reading{FetchedAt: now.Add(-4 * time.Hour)}
	if got := DecideFallback(now, r, 3*time.Hour); got != FallbackFail {
		t.Fatalf("expected fail, got %v", got)
	}
}

func TestDecideFallbackNoReading(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	if got := DecideFallback(now, nil, 3*time.Hour); got != FallbackFail {
		t.Fatalf("expected fail, got %v", got)
	}
}
