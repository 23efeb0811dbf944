package consensus

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ForgingRounds = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "stakeledger",
			Subsystem: "consensus",
			Name:      "forging_rounds_total",
			Help:      "Total number of forging rounds, labeled by outcome.",
		},
		[]string{"outcome"}, // forged, not_selected, no_forger, busy, failed
	)

	ForgingDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "stakeledger",
			Subsystem: "consensus",
			Name:      "block_creation_duration_seconds",
			Help:      "Time spent creating a block once the local wallet is selected.",
			Buckets:   prometheus.DefBuckets,
		},
	)
)
