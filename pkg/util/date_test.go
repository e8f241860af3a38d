package util

import (
    "strconv"
    "testing"
    "time"
)

func TestParseTimeRFC3339(t *testing.T) {
    s := "2024-10-10T10:10:10Z"
    got, ok := ParseTime(s)
    if !ok {
        t.Fatalf("expected ok")
    }
    if got.UTC().Format(time.RFC3339) != s {
        t.Fatalf("unexpected time %v", got)
    }
}

func TestParseTimeUnix(t *testing.T) {
    ts := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC).Unix()
    got, ok := ParseTime(strconv.FormatInt(ts, 10))
    if !ok {
        t.Fatalf("expected ok")
    }
    if got.Unix() != ts {
        t.Fatalf("unexpected unix %v", got.Unix())
    }
}

func TestParseTimeDefault(t *testing.T) {
    def := time.Date(2024, 10, 10, 10, 10, 10, 0, time.UTC)
    got := ParseTimeDefault("", def)
    if !got.Equal(def) {
        t.Fatalf("expected default")
    }
}

func TestParseClock(t *testing.T) {
    h, m, ok := ParseClock("09:30")
    if !ok || h != 9 || m != 30 {
        t.Fatalf("unexpected result %d:%d %v", h, m, ok)
    }
    for _, bad := range []string{"", "9:30", "09:60", "24:00", "ab:cd", "09-30"} {
        if _, _, ok := ParseClock(bad); ok {
            t.Fatalf("expected %q to be rejected", bad)
        }
    }
}

func TestSameLocalDay(t *testing.T) {
    tokyo, err := time.LoadLocation("Asia/Tokyo")
    if err != nil {
        t.Fatalf("load location: %v", err)
    }
    a := time.Date(2024, 10, 10, 23, 0, 0, 0, time.UTC)
    b := time.Date(2024, 10, 11, 1, 0, 0, 0, time.UTC)
    if SameLocalDay(a, b, time.UTC) {
        t.Fatalf("different UTC days")
    }
    // Both instants fall on October 11 in Tokyo.
    if !SameLocalDay(a, b, tokyo) {
        t.Fatalf("same Tokyo day")
    }
}