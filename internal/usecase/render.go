package usecase

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"MarketMood/internal/domain/models"
)

// Renderer turns readings into a compact notification payload. Rich
// formatting and full localization live in the presentation layer; this
// produces the minimal bilingual daily-report text the scheduler dispatches.
type Renderer struct{}

func NewRenderer() *Renderer { return &Renderer{} }

// RenderDaily builds the daily report for one subscriber.
func (r *Renderer) RenderDaily(sub *models.Subscription, readings []models.Reading, now time.Time) *models.Notification {
	lang := sub.Language
	if lang == "" {
		lang = "en"
	}

	var b strings.Builder
	local := now.In(sub.Location())
	if lang == "zh" {
		b.WriteString("每日市场情绪报告 ")
		b.WriteString(local.Format("2006-01-02"))
	} else {
		b.WriteString("Daily Market Sentiment Report ")
		b.WriteString(local.Format("January 2, 2006"))
	}
	b.WriteString("\n")

	for _, rd := range readings {
		b.WriteString(renderLine(rd, lang))
		b.WriteString("\n")
	}

	return &models.Notification{
		Destination: strconv.FormatInt(sub.SubscriberID, 10),
		Text:        strings.TrimRight(b.String(), "\n"),
		Language:    lang,
		Kind:        "daily",
		Readings:    readings,
		RenderedAt:  now,
	}
}

// RenderBroadcast wraps an operator-supplied message for one subscriber.
func (r *Renderer) RenderBroadcast(sub *models.Subscription, text string, now time.Time) *models.Notification {
	lang := sub.Language
	if lang == "" {
		lang = "en"
	}
	return &models.Notification{
		Destination: strconv.FormatInt(sub.SubscriberID, 10),
		Text:        text,
		Language:    lang,
		Kind:        "broadcast",
		RenderedAt:  now,
	}
}

func renderLine(rd models.Reading, lang string) string {
	name := indicatorName(rd.Indicator, lang)
	if rd.Rating != models.RatingNone {
		return fmt.Sprintf("%s: %.0f (%s)", name, rd.Value, rd.Rating)
	}
	return fmt.Sprintf("%s: %.2f", name, rd.Value)
}

func indicatorName(ind models.Indicator, lang string) string {
	if lang == "zh" {
		switch ind {
		case models.IndicatorComposite:
			return "恐慌贪婪指数"
		case models.IndicatorVolatility:
			return "波动率指数"
		case models.IndicatorMomentum:
			return "市场动量"
		case models.IndicatorPutCall:
			return "看跌/看涨比率"
		case models.IndicatorSafeHaven:
			return "避险需求"
		case models.IndicatorJunkBond:
			return "垃圾债需求"
		}
	}
	switch ind {
	case models.IndicatorComposite:
		return "Fear & Greed Index"
	case models.IndicatorVolatility:
		return "Volatility Index"
	case models.IndicatorMomentum:
		return "Market Momentum"
	case models.IndicatorPutCall:
		return "Put/Call Ratio"
	case models.IndicatorSafeHaven:
		return "Safe Haven Demand"
	case models.IndicatorJunkBond:
		return "Junk Bond Demand"
	}
	return string(ind)
}
