// Package metrics exposes Prometheus collectors for the classifier
// service: inference throughput, registry cache efficiency, training
// runs, and history store failures.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PredictionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kbk_predictions_total",
			Help: "Total number of predictions served",
		},
		[]string{"class", "version"},
	)

	PredictionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "kbk_prediction_duration_seconds",
			Help:    "End-to-end prediction latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	RegistryCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "kbk_registry_cache_hits_total",
			Help: "Bundle loads served from the registry cache",
		},
	)

	RegistryCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "kbk_registry_cache_misses_total",
			Help: "Bundle loads that required a cold read from the artifact store",
		},
	)

	TrainingsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kbk_trainings_total",
			Help: "Total number of training runs by outcome",
		},
		[]string{"outcome"},
	)

	HistoryFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "kbk_history_failures_total",
			Help: "History store operations that failed",
		},
		[]string{"op"},
	)
)
