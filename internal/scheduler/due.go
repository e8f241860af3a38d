package scheduler

import (
	"time"

	"MarketMood/internal/domain/models"
	"MarketMood/pkg/util"
)

// IsDue reports whether a subscription should fire at now. A subscription is
// due when its local target instant for the current local day has passed, the
// delay has not exceeded the grace window, and it has not already fired on
// the current local calendar day. Day boundaries follow the subscriber's own
// clock, not UTC.
func IsDue(sub *models.Subscription, now time.Time, grace time.Duration) bool {
	if sub == nil || !sub.Enabled {
		return false
	}

	target := sub.TargetInstant(now)
	if now.Before(target) {
		return false
	}
	if grace > 0 && now.After(target.Add(grace)) {
		// Past the grace window the day counts as missed; wait for the next
		// day's target instead of sending a stale notification.
		return false
	}

	if sub.LastFiredAt == nil {
		return true
	}
	// A zone change between ticks re-evaluates day boundaries in the new
	// zone; an already-fired local day is never un-fired.
	return !util.SameLocalDay(*sub.LastFiredAt, now, sub.Location())
}

// InQuietHours reports whether local time at now falls inside the configured
// quiet window (start/end as HH:MM; the window may wrap midnight). Empty
// bounds disable quiet hours.
func InQuietHours(now time.Time, loc *time.Location, start, end string) bool {
	sh, sm, ok := util.ParseClock(start)
	if !ok {
		return false
	}
	eh, em, ok := util.ParseClock(end)
	if !ok {
		return false
	}

	local := now.In(loc)
	cur := local.Hour()*60 + local.Minute()
	s := sh*60 + sm
	e := eh*60 + em

	if s == e {
		return false
	}
	if s < e {
		return cur >= s && cur < e
	}
	// Wraps midnight, e.g. 22:00-07:00.
	return cur >= s || cur < e
}
