package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func delta(t *testing.T, collector prometheus.Collector, observe func()) float64 {
	t.Helper()

	before := testutil.ToFloat64(collector)
	observe()
	after := testutil.ToFloat64(collector)
	return after - before
}

func TestLedgerRecords(t *testing.T) {
	m := NewLedger()
	start := time.Now().Add(-time.Second)

	if inc := delta(t, transactionsStagedTotal, func() {
		m.ObserveTransactionStaged()
	}); inc != 1 {
		t.Fatalf("expected staged transaction counter increment, got %v", inc)
	}

	if inc := delta(t, mineTotal.WithLabelValues("success"), func() {
		m.ObserveMine(nil, 88914, start)
	}); inc != 1 {
		t.Fatalf("expected mine success counter increment, got %v", inc)
	}

	if errInc := delta(t, mineTotal.WithLabelValues("error"), func() {
		m.ObserveMine(errors.New("context deadline exceeded"), 0, start)
	}); errInc != 1 {
		t.Fatalf("expected mine error counter increment, got %v", errInc)
	}
}
