package ledger

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	transactionsProcessed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "safebank",
		Subsystem: "ledger",
		Name:      "transactions_processed_total",
		Help:      "Transactions accepted by the processing pipeline.",
	})

	transactionAmount = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "safebank",
		Subsystem: "ledger",
		Name:      "transaction_amount",
		Help:      "Amounts of accepted transactions.",
		Buckets:   []float64{10, 50, 100, 500, 1000, 2500, 5000, 10000},
	})

	transitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "safebank",
		Subsystem: "ledger",
		Name:      "status_transitions_total",
		Help:      "Approve/reject transitions by resulting status.",
	}, []string{"status"})

	offlineSealed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "safebank",
		Subsystem: "ledger",
		Name:      "offline_sealed_total",
		Help:      "Offline envelopes created.",
	})

	offlineReplayed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "safebank",
		Subsystem: "ledger",
		Name:      "offline_replayed_total",
		Help:      "Offline envelope replay attempts by outcome.",
	}, []string{"result"})
)
