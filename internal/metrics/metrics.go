// internal/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RatingSubmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "peer_rating_submissions_total",
			Help: "Total number of rating submissions by outcome",
		},
		[]string{"class", "round", "result"},
	)

	AnalysisDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "peer_analysis_duration_seconds",
			Help:    "Time spent building an analysis report",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"class"},
	)

	InversionCountHistogram = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "peer_inversion_count",
			Help:    "Distribution of per-student inversion counts in analysis reports",
			Buckets: prometheus.LinearBuckets(0, 2, 10),
		},
		[]string{"class"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method", "status"},
	)
)
