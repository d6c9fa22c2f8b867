// Package metrics exposes Prometheus counters for settlement operations.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PositionsOpened = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stakeledger_positions_opened_total",
		Help: "Number of staking positions opened",
	})

	InterestCollections = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stakeledger_interest_collections_total",
		Help: "Number of successful interest collections",
	})

	InterestPaid = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stakeledger_interest_paid_base_units_total",
		Help: "Interest paid out, in base units of the interest token",
	})

	Redemptions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stakeledger_redemptions_total",
		Help: "Number of positions redeemed",
	})

	RefuelsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stakeledger_interest_refuels_total",
		Help: "Number of interest pool refuels",
	})

	IntentsDispatched = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stakeledger_transfer_intents_dispatched_total",
		Help: "Number of transfer intents handed to the transfer ledger",
	})
)
