package usecase

import (
	"time"

	"MarketMood/internal/domain/models"
)

// FetchAction is the hot-path decision for one get call.
type FetchAction int

const (
	// ActionServe returns the cached reading without any network call.
	ActionServe FetchAction = iota
	// ActionFetch triggers a live fetch through the adapter ladder.
	ActionFetch
)

// DecideFetch is the pure freshness decision: serve the cached reading when
// one exists and is younger than the freshness window, otherwise fetch.
func DecideFetch(now time.Time, latest *models.Reading, freshness time.Duration) FetchAction {
	if latest == nil {
		return ActionFetch
	}
	if latest.Age(now) <= freshness {
		return ActionServe
	}
	return ActionFetch
}

// FallbackAction is the decision after every adapter has failed.
type FallbackAction int

const (
	// FallbackServeStale serves the last persisted reading tagged stale.
	FallbackServeStale FallbackAction = iota
	// FallbackFail surfaces DataUnavailable; nothing is fabricated.
	FallbackFail
)

// DecideFallback decides whether a stale reading may still be served once
// live fetching is exhausted.
func DecideFallback(now time.Time, latest *models.Reading, fallbackWindow time.Duration) FallbackAction {
	if latest == nil {
		return FallbackFail
	}
	if latest.Age(now) <= fallbackWindow {
		return FallbackServeStale
	}
	return FallbackFail
}
