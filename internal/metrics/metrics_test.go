package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveOpCountsByLabel(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.ObserveOp("create", OutcomeOK)
	m.ObserveOp("create", OutcomeOK)
	m.ObserveOp("create", OutcomeRejected)

	if got := testutil.ToFloat64(m.BookingOps.WithLabelValues("create", OutcomeOK)); got != 2 {
		t.Fatalf("create/ok = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.BookingOps.WithLabelValues("create", OutcomeRejected)); got != 1 {
		t.Fatalf("create/rejected = %v, want 1", got)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveOp("create", OutcomeOK)
	m.ObserveLockWait(time.Millisecond)
	m.ObserveHTTP("GET", "/healthz", "200", time.Millisecond)
}
