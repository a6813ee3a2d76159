package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus instrumentation for optimization jobs.
type Metrics struct {
	JobsStarted   prometheus.Counter
	JobsCompleted prometheus.Counter
	JobsFailed    prometheus.Counter
	JobsCancelled prometheus.Counter
	JobDuration   prometheus.Histogram
}

// NewMetrics registers and returns the server's job metrics.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		JobsStarted: factory.NewCounter(prometheus.CounterOpts{
			Name: "taiga_optimizations_started_total",
			Help: "Number of optimization jobs started.",
		}),
		JobsCompleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "taiga_optimizations_completed_total",
			Help: "Number of optimization jobs that completed successfully.",
		}),
		JobsFailed: factory.NewCounter(prometheus.CounterOpts{
			Name: "taiga_optimizations_failed_total",
			Help: "Number of optimization jobs that terminated with an error.",
		}),
		JobsCancelled: factory.NewCounter(prometheus.CounterOpts{
			Name: "taiga_optimizations_cancelled_total",
			Help: "Number of optimization jobs cancelled by a client.",
		}),
		JobDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "taiga_optimization_duration_seconds",
			Help:    "Wall-clock duration of optimization jobs.",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		}),
	}
}
