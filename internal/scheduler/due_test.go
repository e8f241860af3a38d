package scheduler

import (
	"testing"
	"time"

	"MarketMood/internal/domain/models"
)

func mustLoc(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	if err != nil {
		t.Fatalf("load location %s: %v", name, err)
	}
	return loc
}

func newSub(id int64, notify, tz string) *models.Subscription {
	return &models.Subscription{
		SubscriberID: id,
		NotifyTime:   notify,
		Timezone:     tz,
		Enabled:      true,
	}
}

func TestIsDueBeforeTarget(t *testing.T) {
	loc := mustLoc(t, "America/New_York")
	sub := newSub(1, "09:00", "America/New_York")
	now := time.Date(2025, 6, 2, 8, 59, 0, 0, loc)
	if IsDue(sub, now, 6*time.Hour) {
		t.Fatalf("must not fire before the local target")
	}
}

func TestIsDueAtTarget(t *testing.T) {
	loc := mustLoc(t, "America/New_York")
	sub := newSub(1, "09:00", "America/New_York")
	now := time.Date(2025, 6, 2, 9, 0, 0, 0, loc)
	if !IsDue(sub, now, 6*time.Hour) {
		t.Fatalf("expected due at the target instant")
	}
}

func TestIsDueOncePerLocalDay(t *testing.T) {
	loc := mustLoc(t, "America/New_York")
	sub := newSub(1, "09:00", "America/New_York")
	fired := time.Date(2025, 6, 2, 9, 0, 30, 0, loc)
	sub.LastFiredAt = &fired

	later := time.Date(2025, 6, 2, 14, 0, 0, 0, loc)
	if IsDue(sub, later, 6*time.Hour) {
		t.Fatalf("already fired this local day")
	}

	nextDay := time.Date(2025, 6, 3, 9, 0, 0, 0, loc)
	if !IsDue(sub, nextDay, 6*time.Hour) {
		t.Fatalf("expected due again the next local day")
	}
}

func TestIsDueWithinGraceAfterDowntime(t *testing.T) {
	loc := mustLoc(t, "America/New_York")
	sub := newSub(1, "09:00", "America/New_York")

	// Process restarted two hours after the target: still inside the grace
	// window, so the missed notification is sent.
	now := time.Date(2025, 6, 2, 11, 0, 0, 0, loc)
	if !IsDue(sub, now, 6*time.Hour) {
		t.Fatalf("expected catch-up inside the grace window")
	}
}

func TestIsDuePastGraceSkipsDay(t *testing.T) {
	loc := mustLoc(t, "America/New_York")
	sub := newSub(1, "09:00", "America/New_York")

	// Eight hours late with a six hour grace: the day is missed.
	now := time.Date(2025, 6, 2, 17, 0, 0, 0, loc)
	if IsDue(sub, now, 6*time.Hour) {
		t.Fatalf("past the grace window the day counts as missed")
	}

	nextDay := time.Date(2025, 6, 3, 9, 30, 0, 0, loc)
	if !IsDue(sub, nextDay, 6*time.Hour) {
		t.Fatalf("expected normal firing the next day")
	}
}

func TestIsDueGraceTruncatedAtMidnight(t *testing.T) {
	// The target instant is always computed on the current local day, so a
	// 23:00 target missed across midnight is no longer due at 01:00 even
	// though a six hour grace would otherwise still cover it. The subscriber
	// catches up at the next day's own target.
	loc := mustLoc(t, "America/New_York")
	sub := newSub(1, "23:00", "America/New_York")

	now := time.Date(2025, 6, 3, 1, 0, 0, 0, loc)
	if IsDue(sub, now, 6*time.Hour) {
		t.Fatalf("catch-up does not cross the local midnight boundary")
	}

	nextTarget := time.Date(2025, 6, 3, 23, 0, 0, 0, loc)
	if !IsDue(sub, nextTarget, 6*time.Hour) {
		t.Fatalf("expected normal firing at the next day's target")
	}
}

func TestIsDueDisabled(t *testing.T) {
	loc := mustLoc(t, "UTC")
	sub := newSub(1, "09:00", "UTC")
	sub.Enabled = false
	now := time.Date(2025, 6, 2, 9, 30, 0, 0, loc)
	if IsDue(sub, now, 6*time.Hour) {
		t.Fatalf("disabled subscriptions never fire")
	}
}

func TestIsDueUsesSubscriberClock(t *testing.T) {
	// 09:00 in Tokyo is 00:00 UTC; at 01:00 UTC the Tokyo subscriber is due
	// while a UTC subscriber with the same notify time is not.
	tokyo := newSub(1, "09:00", "Asia/Tokyo")
	utc := newSub(2, "09:00", "UTC")

	now := time.Date(2025, 6, 2, 1, 0, 0, 0, time.UTC)
	if !IsDue(tokyo, now, 6*time.Hour) {
		t.Fatalf("tokyo subscriber should be due")
	}
	if IsDue(utc, now, 6*time.Hour) {
		t.Fatalf("utc subscriber should not be due yet")
	}
}

func TestIsDueTimezoneChangeNeverUnfires(t *testing.T) {
	loc := mustLoc(t, "America/New_York")
	sub := newSub(1, "09:00", "America/New_York")
	fired := time.Date(2025, 6, 2, 9, 1, 0, 0, loc)
	sub.LastFiredAt = &fired

	// Moving to Tokyo an hour later: the fired instant falls on June 2 in
	// Tokyo as well, so no second send on that calendar day.
	sub.Timezone = "Asia/Tokyo"
	now := time.Date(2025, 6, 2, 10, 0, 0, 0, loc)
	if IsDue(sub, now, 24*time.Hour) {
		t.Fatalf("a fired local day must never re-fire after a zone change")
	}
}

func TestInQuietHoursPlainWindow(t *testing.T) {
	loc := mustLoc(t, "UTC")
	if !InQuietHours(time.Date(2025, 6, 2, 23, 0, 0, 0, loc), loc, "22:00", "07:00") {
		t.Fatalf("23:00 is inside 22:00-07:00")
	}
	if !InQuietHours(time.Date(2025, 6, 2, 3, 0, 0, 0, loc), loc, "22:00", "07:00") {
		t.Fatalf("03:00 is inside the wrapped window")
	}
	if InQuietHours(time.Date(2025, 6, 2, 12, 0, 0, 0, loc), loc, "22:00", "07:00") {
		t.Fatalf("noon is outside the window")
	}
}

func TestInQuietHoursDisabled(t *testing.T) {
	loc := mustLoc(t, "UTC")
	if InQuietHours(time.Date(2025, 6, 2, 3, 0, 0, 0, loc), loc, "", "") {
		t.Fatalf("empty bounds disable quiet hours")
	}
}
