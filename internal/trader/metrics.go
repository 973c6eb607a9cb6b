package trader

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics
var (
	// SignalsTotal tracks signals seen by the trading loop.
	SignalsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "polyshark_trader_signals_total",
		Help: "Total arbitrage signals produced by the live quote check",
	})

	// EntriesExecutedTotal tracks simulated entries that filled.
	EntriesExecutedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "polyshark_trader_entries_total",
		Help: "Total simulated entries executed",
	})

	// EntriesRejectedTotal tracks entries blocked before execution, by reason.
	EntriesRejectedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "polyshark_trader_entries_rejected_total",
			Help: "Total candidate entries rejected before execution",
		},
		[]string{"reason"},
	)

	// ExitsTotal tracks convergence exits.
	ExitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "polyshark_trader_exits_total",
		Help: "Total positions closed on spread convergence",
	})

	// PositionsDisplacedTotal tracks entries that replaced an open position.
	PositionsDisplacedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "polyshark_trader_positions_displaced_total",
		Help: "Total open positions displaced by a re-entry on the same token",
	})

	// RealizedPnLUSD accumulates realized profit and loss.
	RealizedPnLUSD = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "polyshark_trader_realized_pnl_usd",
		Help: "Cumulative realized PnL of convergence exits in USDC",
	})

	// EquityUSD tracks wallet equity at the latest marks.
	EquityUSD = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "polyshark_trader_equity_usd",
		Help: "Wallet equity (cash plus marked positions) in USDC",
	})

	// CashUSD tracks the wallet cash balance.
	CashUSD = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "polyshark_trader_cash_usd",
		Help: "Wallet cash balance in USDC",
	})

	// FeesPaidUSD tracks cumulative simulated fees.
	FeesPaidUSD = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "polyshark_trader_fees_paid_usd",
		Help: "Cumulative simulated taker fees in USDC",
	})

	// OpenPositions tracks the number of open positions.
	OpenPositions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "polyshark_trader_open_positions",
		Help: "Number of currently open simulated positions",
	})

	// WinRateRatio tracks winning exits over total exits.
	WinRateRatio = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "polyshark_trader_win_rate",
		Help: "Fraction of closed trades with positive realized PnL",
	})

	// UpdateCheckDuration tracks per-update processing latency.
	UpdateCheckDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "polyshark_trader_update_check_duration_seconds",
		Help:    "Time spent processing one book-update event",
		Buckets: prometheus.DefBuckets,
	})
)
