package client

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for Sintel API operations.
var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sintel_requests_total",
		Help: "Total API requests by operation and HTTP status",
	}, []string{"operation", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sintel_request_duration_seconds",
		Help:    "Time from request dispatch to response headers by operation",
		Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
	}, []string{"operation"})

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sintel_errors_total",
		Help: "Total API errors by kind",
	}, []string{"kind"})

	gateWaitSeconds = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sintel_gate_wait_seconds",
		Help:    "Time spent waiting for a concurrency gate permit by operation",
		Buckets: []float64{0.001, 0.01, 0.1, 0.5, 1, 5, 30},
	}, []string{"operation"})

	recordsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sintel_records_total",
		Help: "Total records yielded to callers by operation",
	}, []string{"operation"})
)

// countError bumps the error counter for taxonomy errors passing through a
// result stream.
func countError(err error) {
	if apiErr, ok := err.(*APIError); ok {
		errorsTotal.WithLabelValues(string(apiErr.Kind)).Inc()
	}
}
