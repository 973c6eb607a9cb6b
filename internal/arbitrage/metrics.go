package arbitrage

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SignalsDetectedTotal tracks price-sum violations detected.
	SignalsDetectedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "polyshark_arb_signals_detected_total",
		Help: "Total number of arbitrage signals detected",
	})

	// SignalSpread tracks the price-sum deviation of detected signals.
	SignalSpread = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "polyshark_arb_signal_spread",
		Help:    "Price-sum deviation from 1.0 of detected signals",
		Buckets: []float64{0.005, 0.01, 0.02, 0.03, 0.05, 0.08, 0.12, 0.2},
	})

	// ScanDurationSeconds tracks market scan latency.
	ScanDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "polyshark_arb_scan_duration_seconds",
		Help:    "Duration of a market scan pass",
		Buckets: prometheus.DefBuckets,
	})

	// SignalsRejectedTotal tracks signals rejected by the profitability
	// gate, by reason.
	SignalsRejectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "polyshark_arb_signals_rejected_total",
			Help: "Total number of arbitrage signals rejected",
		},
		[]string{"reason"},
	)

	// ExpectedProfitUSD tracks expected net profit of approved trades.
	ExpectedProfitUSD = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "polyshark_arb_expected_profit_usd",
		Help:    "Expected net profit of trades passing the profitability gate (USD)",
		Buckets: prometheus.ExponentialBuckets(0.25, 2, 10),
	})
)
