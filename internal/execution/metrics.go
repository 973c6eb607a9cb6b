package execution

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// OrdersTotal tracks simulated order attempts by result.
	OrdersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "polyshark_execution_orders_total",
			Help: "Total number of simulated order attempts",
		},
		[]string{"result"},
	)

	// NotionalTradedUSD tracks cumulative executed notional.
	NotionalTradedUSD = promauto.NewCounter(prometheus.CounterOpts{
		Name: "polyshark_execution_notional_traded_usd",
		Help: "Cumulative simulated notional traded (USD)",
	})

	// FeesChargedUSD tracks cumulative simulated fees.
	FeesChargedUSD = promauto.NewCounter(prometheus.CounterOpts{
		Name: "polyshark_execution_fees_charged_usd",
		Help: "Cumulative simulated taker fees charged (USD)",
	})

	// SlippageFraction tracks realized slippage per simulated fill.
	SlippageFraction = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "polyshark_execution_slippage_fraction",
		Help:    "Realized slippage fraction per simulated fill",
		Buckets: prometheus.ExponentialBuckets(0.0001, 2, 12),
	})
)
