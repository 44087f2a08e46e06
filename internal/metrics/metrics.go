// internal/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels for LedgerTransactionsTotal.
const (
	OutcomeOK                = "ok"
	OutcomeInsufficientFunds = "insufficient_funds"
	OutcomeConflict          = "conflict"
	OutcomeUnavailable       = "unavailable"
	OutcomeInvalid           = "invalid"
	OutcomeError             = "error"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tochcoin_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "tochcoin_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	LedgerTransactionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tochcoin_ledger_transactions_total",
			Help: "Ledger writes by direction, source and outcome",
		},
		[]string{"type", "source", "outcome"},
	)

	RewardsGrantedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tochcoin_rewards_granted_total",
			Help: "Reward credits granted by source",
		},
		[]string{"source"},
	)

	TxRetriesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tochcoin_tx_retries_total",
			Help: "Atomic units retried after a write conflict",
		},
	)

	LedgerMismatches = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "tochcoin_ledger_mismatches",
			Help: "Wallets whose balance disagrees with their history in the last reconciliation run",
		},
	)
)

func RecordHTTPRequest(method, path, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
}

func RecordLedgerTransaction(txType, source, outcome string) {
	LedgerTransactionsTotal.WithLabelValues(txType, source, outcome).Inc()
}

func RecordReward(source string) {
	RewardsGrantedTotal.WithLabelValues(source).Inc()
}

func RecordTxRetry() {
	TxRetriesTotal.Inc()
}

func SetLedgerMismatches(n int) {
	LedgerMismatches.Set(float64(n))
}
