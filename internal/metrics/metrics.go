// Package metrics holds the Prometheus collectors exported at /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels for booking_operations_total.
const (
	OutcomeOK       = "ok"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

// Metrics groups the collectors of one process.  A nil *Metrics is valid
// and records nothing, which keeps unit tests free of registry plumbing.
type Metrics struct {
	BookingOps   *prometheus.CounterVec
	LockWait     prometheus.Histogram
	HTTPDuration *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		BookingOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "booking_operations_total",
			Help: "Booking mutations and reads by operation and outcome.",
		}, []string{"op", "outcome"}),
		LockWait: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "booking_product_lock_wait_seconds",
			Help:    "Time spent waiting for the per-product lock.",
			Buckets: []float64{.0005, .001, .005, .01, .05, .1, .25, .5, 1, 2.5, 5},
		}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency by route and status.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
	reg.MustRegister(m.BookingOps, m.LockWait, m.HTTPDuration)
	return m
}

// ObserveOp counts one booking operation.
func (m *Metrics) ObserveOp(op, outcome string) {
	if m == nil {
		return
	}
	m.BookingOps.WithLabelValues(op, outcome).Inc()
}

// ObserveLockWait records how long a product lock took to acquire.
func (m *Metrics) ObserveLockWait(d time.Duration) {
	if m == nil {
		return
	}
	m.LockWait.Observe(d.Seconds())
}

// ObserveHTTP records one served request.
func (m *Metrics) ObserveHTTP(method, route, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPDuration.WithLabelValues(method, route, status).Observe(d.Seconds())
}
