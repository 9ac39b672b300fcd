package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	transactionsStagedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "meridia",
		Subsystem: "ledger",
		Name:      "transactions_staged_total",
		Help:      "Count of transactions staged into the pending buffer.",
	})

	mineTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "meridia",
		Subsystem: "ledger",
		Name:      "mine_total",
		Help:      "Count of mining attempts.",
	}, []string{"status"})

	mineDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "meridia",
		Subsystem: "ledger",
		Name:      "mine_duration_seconds",
		Help:      "Duration of mining attempts, proof-of-work search included.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"status"})

	proofAttempts = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "meridia",
		Subsystem: "ledger",
		Name:      "proof_attempts",
		Help:      "Number of candidates evaluated per successful proof-of-work search.",
		Buckets:   prometheus.ExponentialBuckets(1, 4, 12),
	})
)

// Ledger tracks metrics for a ledger instance.
type Ledger struct{}

// NewLedger constructs a Ledger metrics recorder.
func NewLedger() Ledger {
	return Ledger{}
}

// ObserveTransactionStaged records one staged transaction.
func (m Ledger) ObserveTransactionStaged() {
	transactionsStagedTotal.Inc()
}

// ObserveMine records a mining attempt outcome and duration. Attempts is
// the number of proof candidates evaluated; it is only meaningful on
// success.
func (m Ledger) ObserveMine(err error, attempts uint64, started time.Time) {
	status := "success"
	if err != nil {
		status = "error"
	}
	mineTotal.WithLabelValues(status).Inc()
	mineDuration.WithLabelValues(status).Observe(time.Since(started).Seconds())
	if err == nil {
		proofAttempts.Observe(float64(attempts))
	}
}
