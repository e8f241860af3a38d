package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"MarketMood/internal/domain/models"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	fetchesTotal       *prometheus.CounterVec
	cacheHitsTotal     *prometheus.CounterVec
	notificationsTotal *prometheus.CounterVec
	lastValue          *prometheus.GaugeVec
	latency            *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		fetchesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketmood_fetches_total",
				Help: "Total adapter fetch attempts by outcome",
			},
			[]string{"adapter", "indicator", "outcome"},
		),
		cacheHitsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketmood_cache_hits_total",
				Help: "Total reads served from stored readings",
			},
			[]string{"indicator", "freshness"},
		),
		notificationsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "marketmood_notifications_total",
				Help: "Total notification dispatch outcomes",
			},
			[]string{"outcome"},
		),
		lastValue: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "marketmood_last_value",
				Help: "Last fetched value per indicator",
			},
			[]string{"indicator"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "marketmood_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordFetch records one adapter fetch attempt.
func (r *Recorder) RecordFetch(adapter string, ind models.Indicator, outcome string) {
	r.fetchesTotal.WithLabelValues(adapter, string(ind), outcome).Inc()
}

// RecordCacheHit records a read served without a fresh fetch.
func (r *Recorder) RecordCacheHit(ind models.Indicator, freshness models.Freshness) {
	r.cacheHitsTotal.WithLabelValues(string(ind), string(freshness)).Inc()
}

// RecordNotification records a dispatch outcome.
func (r *Recorder) RecordNotification(outcome string) {
	r.notificationsTotal.WithLabelValues(outcome).Inc()
}

// RecordLastValue records the last fetched value for an indicator.
func (r *Recorder) RecordLastValue(ind models.Indicator, value float64) {
	r.lastValue.WithLabelValues(string(ind)).Set(value)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
