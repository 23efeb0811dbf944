package blockchain

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BlocksAppended = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "stakeledger",
			Subsystem: "chain",
			Name:      "blocks_appended_total",
			Help:      "Total number of blocks appended to the chain.",
		},
	)

	ChainHeight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "stakeledger",
			Subsystem: "chain",
			Name:      "height",
			Help:      "Index of the last block in the chain.",
		},
	)

	TransactionsExecuted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "stakeledger",
			Subsystem: "chain",
			Name:      "transactions_executed_total",
			Help:      "Total number of executed transactions, labeled by type.",
		},
		[]string{"type"},
	)

	TransactionsUncovered = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "stakeledger",
			Subsystem: "chain",
			Name:      "transactions_uncovered_total",
			Help:      "Total number of transactions dropped because the sender balance did not cover them.",
		},
	)

	BlocksRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "stakeledger",
			Subsystem: "chain",
			Name:      "blocks_rejected_total",
			Help:      "Total number of candidate blocks rejected, labeled by failed predicate.",
		},
		[]string{"predicate"}, // blockCount, lastBlockHash, forger, transactions
	)
)
