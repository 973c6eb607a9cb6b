package wallet

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

//nolint:gochecknoglobals // Prometheus metrics
var (
	// CashBalance tracks the simulated cash balance.
	CashBalance = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "polyshark_wallet_cash_balance",
		Help: "Simulated cash balance (USD)",
	})

	// Equity tracks cash plus marked value of open positions.
	Equity = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "polyshark_wallet_equity",
		Help: "Simulated equity: cash + open positions at mid (USD)",
	})

	// PnL tracks equity minus the starting balance.
	PnL = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "polyshark_wallet_pnl",
		Help: "Simulated P&L vs starting balance (USD)",
	})

	// OpenPositions tracks the number of open simulated positions.
	OpenPositions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "polyshark_wallet_open_positions",
		Help: "Number of open simulated positions",
	})

	// WinRate tracks the fraction of closed trades with positive PnL.
	WinRate = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "polyshark_wallet_win_rate",
		Help: "Fraction of closed trades with positive PnL",
	})

	// FeesPaid tracks cumulative simulated fees.
	FeesPaid = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "polyshark_wallet_fees_paid_total",
		Help: "Cumulative simulated fees (USD)",
	})

	// ChainMATICBalance tracks the on-chain MATIC balance of the funding wallet.
	ChainMATICBalance = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "polyshark_wallet_chain_matic_balance",
		Help: "On-chain MATIC balance of the funding wallet (native units)",
	})

	// ChainUSDCBalance tracks the on-chain USDC balance of the funding wallet.
	ChainUSDCBalance = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "polyshark_wallet_chain_usdc_balance",
		Help: "On-chain USDC balance of the funding wallet (USD)",
	})
)
