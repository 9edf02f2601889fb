// Package metrics exposes prometheus instrumentation for client operations.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace = "storekit"
)

var (
	// RequestsTotal counts store operations by outcome
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Total number of store operations issued",
		},
		[]string{"op", "status"}, // op: get/put/delete, status: success/error
	)

	// RequestDuration measures operation latency
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "Store operation latency in seconds",
			Buckets:   []float64{.0005, .001, .005, .01, .05, .1, .5, 1, 5},
		},
		[]string{"op"},
	)

	// ConflictsResolved counts multi-version reads collapsed by the client
	ConflictsResolved = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "conflicts_resolved_total",
			Help:      "Total number of concurrent version sets resolved client-side",
		},
	)

	// BootstrapTotal counts cluster bootstrap attempts
	BootstrapTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bootstrap_total",
			Help:      "Total number of cluster bootstrap attempts",
		},
		[]string{"status"},
	)
)

// ObserveRequest records one completed operation.
func ObserveRequest(op string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	RequestsTotal.WithLabelValues(op, status).Inc()
	RequestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}
