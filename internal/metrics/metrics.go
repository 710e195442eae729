// Package metrics holds the Prometheus collectors for the stream worker.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Batch Metrics
var (
	// BatchesTotal counts flushed batches by outcome (ok, empty, failed)
	BatchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedbacklens_batches_total",
			Help: "Flushed comment batches by outcome",
		},
		[]string{"status"},
	)

	BatchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "feedbacklens_batch_duration_seconds",
			Help:    "Time from flush to commit for a comment batch",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
	)

	CommentsAnalyzed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feedbacklens_comments_analyzed_total",
			Help: "Unique comments classified, by sentiment",
		},
		[]string{"sentiment"},
	)

	DuplicatesIgnored = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "feedbacklens_duplicates_ignored_total",
			Help: "Comments dropped as exact duplicates within a batch",
		},
	)

	// SatisfactionScore is the score of the most recent batch
	SatisfactionScore = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "feedbacklens_satisfaction_score",
			Help: "Satisfaction score of the last analyzed batch",
		},
	)

	HandlerErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "feedbacklens_summary_handler_errors_total",
			Help: "Failures delivering a summary to a downstream handler",
		},
	)
)

// Dependency Metrics
var (
	// DependencyHealthy is 1 while the named service passes its health check
	DependencyHealthy = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "feedbacklens_dependency_healthy",
			Help: "Health check result per downstream service (1 healthy, 0 unhealthy)",
		},
		[]string{"service"},
	)
)
