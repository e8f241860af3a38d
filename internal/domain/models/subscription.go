package models

import (
	"fmt"
	"time"

	"MarketMood/pkg/util"
)

// Subscription is one subscriber's daily notification configuration.
// last_fired_at, once set, only moves forward.
type Subscription struct {
	SubscriberID int64      `json:"subscriber_id"`
	NotifyTime   string     `json:"notify_time"` // HH:MM wall clock in the subscriber's zone
	Timezone     string     `json:"timezone"`    // IANA zone name
	Enabled      bool       `json:"enabled"`
	Language     string     `json:"language"` // en or zh
	LastFiredAt  *time.Time `json:"last_fired_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Validate rejects configurations that must never reach the scheduler:
// unparseable notify times and unknown timezones.
func (s *Subscription) Validate() error {
	if s.SubscriberID == 0 {
		return fmt.Errorf("%w: subscriber_id is required", ErrInvalidSubscription)
	}
	if _, _, ok := util.ParseClock(s.NotifyTime); !ok {
		return fmt.Errorf("%w: notify_time %q is not HH:MM", ErrInvalidSubscription, s.NotifyTime)
	}
	if _, err := time.LoadLocation(s.Timezone); err != nil {
		return fmt.Errorf("%w: timezone %q: %v", ErrInvalidSubscription, s.Timezone, err)
	}
	switch s.Language {
	case "", "en", "zh":
	default:
		return fmt.Errorf("%w: language %q is not supported", ErrInvalidSubscription, s.Language)
	}
	return nil
}

// Location resolves the subscriber's IANA zone. Callers must Validate first;
// an unresolvable zone falls back to UTC rather than panicking mid-tick.
func (s *Subscription) Location() *time.Location {
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// TargetInstant returns today's notification instant for the given moment,
// computed on the subscriber's own clock.
func (s *Subscription) TargetInstant(now time.Time) time.Time {
	hour, minute, ok := util.ParseClock(s.NotifyTime)
	if !ok {
		hour, minute = 9, 0
	}
	loc := s.Location()
	local := now.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), hour, minute, 0, 0, loc)
}
