package util

import (
    "strconv"
    "time"
)

// ParseTime tries RFC3339, RFC3339Nano, and unix seconds. Returns (t, true) if any worked.
func ParseTime(s string) (time.Time, bool) {
    if s == "" {
        return time.Time{}, false
    }
    if t, err := time.Parse(time.RFC3339, s); err == nil {
        return t, true
    }
    if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
        return t, true
    }
    if ts, err := strconv.ParseInt(s, 10, 64); err == nil && ts > 0 {
        return time.Unix(ts, 0), true
    }
    return time.Time{}, false
}

// ParseTimeDefault parses time or returns default if empty/invalid.
func ParseTimeDefault(s string, def time.Time) time.Time {
    if t, ok := ParseTime(s); ok {
        return t
    }
    return def
}

// ParseClock parses an HH:MM wall-clock string into hour and minute.
func ParseClock(s string) (hour, minute int, ok bool) {
    if len(s) != 5 || s[2] != ':' {
        return 0, 0, false
    }
    h, err := strconv.Atoi(s[:2])
    if err != nil {
        return 0, 0, false
    }
    m, err := strconv.Atoi(s[3:])
    if err != nil {
        return 0, 0, false
    }
    if h < 0 || h > 23 || m < 0 || m > 59 {
        return 0, 0, false
    }
    return h, m, true
}

// SameLocalDay reports whether a and b fall on the same calendar date in loc.
func SameLocalDay(a, b time.Time, loc *time.Location) bool {
    ay, am, ad := a.In(loc).Date()
    by, bm, bd := b.In(loc).Date()
    return ay == by && am == bm && ad == bd
}
