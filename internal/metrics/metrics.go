// Package metrics exposes the Prometheus instruments of the service.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ReportsSubmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "barpulse_reports_submitted_total",
			Help: "Report submissions by outcome",
		},
		[]string{"outcome"}, // "stored", "rejected", "error"
	)

	StatsRecomputeDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "barpulse_stats_recompute_duration_seconds",
			Help:    "Duration of venue statistics recomputation",
			Buckets: prometheus.DefBuckets,
		},
	)

	StatsRecomputeFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "barpulse_stats_recompute_failures_total",
			Help: "Recomputations that failed after the report was stored",
		},
	)

	VenueLockWait = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "barpulse_venue_lock_wait_seconds",
			Help:    "Time spent waiting for a venue statistics lock",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "barpulse_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route", "status"},
	)
)

// RecordSubmission counts a submission outcome.
func RecordSubmission(outcome string) {
	ReportsSubmitted.WithLabelValues(outcome).Inc()
}

// RecordRecompute observes a recompute pass, counting failures.
func RecordRecompute(d time.Duration, err error) {
	StatsRecomputeDuration.Observe(d.Seconds())
	if err != nil {
		StatsRecomputeFailures.Inc()
	}
}

// RecordHTTPRequest observes one served request.
func RecordHTTPRequest(method, route string, status int, d time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
}
