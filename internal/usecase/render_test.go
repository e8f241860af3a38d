package usecase

import (
	"strings"
	"testing"
	"time"

	"MarketMood/internal/domain/models"
)

func TestRenderDailyEnglish(t *testing.T) {
	r := NewRenderer()
	sub := &models.Subscription{SubscriberID: 42, NotifyTime: "09:00", Timezone: "UTC"}
	now := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)

	n := r.RenderDaily(sub, []models.Reading{
		{Indicator: models.IndicatorComposite, Value: 62, Rating: models.RatingGreed},
		{Indicator: models.IndicatorVolatility, Value: 18.42},
	}, now)

	if n.Destination != "42" {
		t.Fatalf("unexpected destination %q", n.Destination)
	}
	if n.Kind != "daily" || n.Language != "en" {
		t.Fatalf("unexpected payload meta %q %q", n.Kind, n.Language)
	}
	if !strings.Contains(n.Text, "June 2, 2025") {
		t.Fatalf("missing local date line: %q", n.Text)
	}
	// Rated indicators show rounded value with the category in parentheses.
	if !strings.Contains(n.Text, "Fear & Greed Index: 62 (Greed)") {
		t.Fatalf("missing rated line: %q", n.Text)
	}
	// Ratio-style indicators show two decimals and no category.
	if !strings.Contains(n.Text, "Volatility Index: 18.42") {
		t.Fatalf("missing ratio line: %q", n.Text)
	}
	if strings.HasSuffix(n.Text, "\n") {
		t.Fatalf("trailing newline in payload")
	}
}

func TestRenderDailyChinese(t *testing.T) {
	r := NewRenderer()
	sub := &models.Subscription{SubscriberID: 7, NotifyTime: "09:00", Timezone: "Asia/Shanghai", Language: "zh"}
	now := time.Date(2025, 6, 2, 1, 0, 0, 0, time.UTC)

	n := r.RenderDaily(sub, []models.Reading{
		{Indicator: models.IndicatorComposite, Value: 30, Rating: models.RatingFear},
	}, now)

	if n.Language != "zh" {
		t.Fatalf("unexpected language %q", n.Language)
	}
	if !strings.Contains(n.Text, "每日市场情绪报告 2025-06-02") {
		t.Fatalf("missing localized header: %q", n.Text)
	}
	if !strings.Contains(n.Text, "恐慌贪婪指数: 30") {
		t.Fatalf("missing localized indicator name: %q", n.Text)
	}
}

func TestRenderDailyDateUsesSubscriberZone(t *testing.T) {
	r := NewRenderer()
	// 23:00 UTC June 2 is already June 3 in Tokyo.
	sub := &models.Subscription{SubscriberID: 1, NotifyTime: "08:00", Timezone: "Asia/Tokyo"}
	now := time.Date(2025, 6, 2, 23, 0, 0, 0, time.UTC)

	n := r.RenderDaily(sub, nil, now)
	if !strings.Contains(n.Text, "June 3, 2025") {
		t.Fatalf("date must be the subscriber's local date: %q", n.Text)
	}
}

func TestRenderBroadcast(t *testing.T) {
	r := NewRenderer()
	sub := &models.Subscription{SubscriberID: 9, NotifyTime: "09:00", Timezone: "UTC", Language: "zh"}
	now := time.Date(2025, 6, 2, 12, 0, 0, 0, time.UTC)

	n := r.RenderBroadcast(sub, "maintenance tonight", now)
	if n.Kind != "broadcast" || n.Destination != "9" {
		t.Fatalf("unexpected payload %+v", n)
	}
	if n.Text != "maintenance tonight" {
		t.Fatalf("broadcast text must pass through unchanged: %q", n.Text)
	}
}
