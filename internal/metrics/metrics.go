package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels shared by the counters below.
const (
	OutcomeOK       = "ok"
	OutcomeDegraded = "degraded"
	OutcomeEmpty    = "empty"
)

var (
	// Completion calls by provider and outcome (ok or degraded).
	CompletionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docchat",
			Subsystem: "completion",
			Name:      "requests_total",
			Help:      "Total completion requests",
		},
		[]string{"provider", "outcome"},
	)

	CompletionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docchat",
			Subsystem: "completion",
			Name:      "duration_seconds",
			Help:      "Completion latency including retries",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"provider"},
	)

	// Document extractions by file extension and outcome (ok or empty).
	IngestionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docchat",
			Subsystem: "ingest",
			Name:      "documents_total",
			Help:      "Total documents extracted",
		},
		[]string{"extension", "outcome"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docchat",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docchat",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"method", "route"},
	)
)
