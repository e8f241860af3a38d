package repository

import (
	"context"
	"testing"
	"time"

	"MarketMood/internal/domain/models"
)

func TestMemoryReadingStoreLatest(t *testing.T) {
	s := NewMemoryReadingStore()
	ctx := context.Background()

	r, err := s.Latest(ctx, models.IndicatorComposite)
	if err != nil || r != nil {
		t.Fatalf("empty store: got %v, %v", r, err)
	}

	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for i, v := range []float64{40, 60, 50} {
		_ = s.Append(ctx, &models.Reading{
			Indicator:  models.IndicatorComposite,
			Value:      v,
			FetchedAt:  base.Add(time.Duration(i) * time.Minute),
			ObservedAt: base.Add(time.Duration(i) * time.Minute),
		})
	}

	r, err = s.Latest(ctx, models.IndicatorComposite)
	if err != nil {
		t.Fatalf("latest: %v", err)
	}
	if r.Value != 50 {
		t.Fatalf("expected the most recently fetched reading, got %v", r.Value)
	}

	// Other indicators stay independent.
	r, _ = s.Latest(ctx, models.IndicatorVolatility)
	if r != nil {
		t.Fatalf("expected nil for an indicator never appended")
	}
}

func TestMemoryReadingStoreLatestReturnsCopy(t *testing.T) {
	s := NewMemoryReadingStore()
	ctx := context.Background()
	_ = s.Append(ctx, &models.Reading{Indicator: models.IndicatorComposite, Value: 42, FetchedAt: time.Now()})

	r, _ := s.Latest(ctx, models.IndicatorComposite)
	r.Value = 99
	again, _ := s.Latest(ctx, models.IndicatorComposite)
	if again.Value != 42 {
		t.Fatalf("mutating a returned reading must not affect the store")
	}
}

func TestMemoryReadingStoreHistory(t *testing.T) {
	s := NewMemoryReadingStore()
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	// Appended out of order; History returns observed-time order.
	for _, d := range []time.Duration{48 * time.Hour, 0, 24 * time.Hour} {
		_ = s.Append(ctx, &models.Reading{
			Indicator:  models.IndicatorVolatility,
			Value:      float64(d / time.Hour),
			FetchedAt:  base.Add(d),
			ObservedAt: base.Add(d),
		})
	}

	hist, err := s.History(ctx, models.IndicatorVolatility, base.Add(12*time.Hour))
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(hist) != 2 {
		t.Fatalf("expected 2 readings since cutoff, got %d", len(hist))
	}
	if !hist[0].ObservedAt.Before(hist[1].ObservedAt) {
		t.Fatalf("history must be sorted by observed time")
	}
}

func TestMemoryReadingStorePrune(t *testing.T) {
	s := NewMemoryReadingStore()
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	for _, d := range []time.Duration{0, 24 * time.Hour, 48 * time.Hour} {
		_ = s.Append(ctx, &models.Reading{
			Indicator:  models.IndicatorComposite,
			FetchedAt:  base.Add(d),
			ObservedAt: base.Add(d),
		})
	}

	if err := s.Prune(ctx, base.Add(24*time.Hour)); err != nil {
		t.Fatalf("prune: %v", err)
	}
	hist, _ := s.History(ctx, models.IndicatorComposite, time.Time{})
	if len(hist) != 2 {
		t.Fatalf("expected the cutoff reading kept and older dropped, got %d", len(hist))
	}
	if hist[0].ObservedAt.Before(base.Add(24 * time.Hour)) {
		t.Fatalf("pruned reading still present")
	}
}
