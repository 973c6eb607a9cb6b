package arbitrage

import (
	"time"

	"go.uber.org/zap"

	"github.com/mselser95/polyshark/pkg/types"
)

// Detector scans markets for price-sum violations and decides whether a
// signal is worth trading once fees and slippage are charged against its
// edge.
type Detector struct {
	checker   Checker
	minProfit float64
	feeLegs   int
	logger    *zap.Logger
}

// Config holds detector configuration.
type Config struct {
	// MinSpread is the price-sum deviation required to emit a signal.
	MinSpread float64
	// MinProfit is the net profit a trade must strictly exceed.
	MinProfit float64
	// FeeLegs is how many fee-charged legs the cost model assumes per
	// trade. Binary arbitrage takes both sides, so this is normally 2.
	FeeLegs int
	Logger  *zap.Logger
}

// New creates a new arbitrage detector.
func New(cfg Config) *Detector {
	return &Detector{
		checker:   Checker{MinSpread: cfg.MinSpread},
		minProfit: cfg.MinProfit,
		feeLegs:   cfg.FeeLegs,
		logger:    cfg.Logger,
	}
}

// Checker returns the underlying constraint checker.
func (d *Detector) Checker() Checker {
	return d.checker
}

// Scan applies the constraint checker to every active market accepting
// orders, returning all emitted signals in input order.
func (d *Detector) Scan(markets []*types.Market) []*types.ArbitrageSignal {
	start := time.Now()
	signals := make([]*types.ArbitrageSignal, 0)

	for _, market := range markets {
		if !market.Active || !market.AcceptingOrders {
			continue
		}

		signal, ok := d.checker.Check(market)
		if !ok {
			continue
		}

		SignalsDetectedTotal.Inc()
		SignalSpread.Observe(signal.Spread)

		d.logger.Debug("arbitrage-signal-detected",
			zap.String("signal-id", signal.ID),
			zap.String("market-slug", signal.Slug),
			zap.Float64("spread", signal.Spread),
			zap.String("recommended-side", signal.RecommendedSide.String()),
			zap.Float64("yes-price", signal.YesPrice),
			zap.Float64("no-price", signal.NoPrice))

		signals = append(signals, signal)
	}

	ScanDurationSeconds.Observe(time.Since(start).Seconds())

	return signals
}

// ExpectedProfit returns the net profit of acting on a signal at the given
// size: gross edge minus fees on every leg minus slippage cost. Fees are
// charged at the yes-price basis on all legs, a deliberate simplification
// of the two-sided trade.
func (d *Detector) ExpectedProfit(signal *types.ArbitrageSignal, size, feeRate, slippage float64) float64 {
	gross := signal.Edge * size
	feeCost := size * signal.YesPrice * feeRate * float64(d.feeLegs)
	slippageCost := size * slippage

	return gross - feeCost - slippageCost
}

// ShouldTrade reports whether the expected net profit strictly exceeds the
// configured minimum. Exactly meeting the minimum is not enough.
func (d *Detector) ShouldTrade(signal *types.ArbitrageSignal, size, feeRate, slippage float64) bool {
	net := d.ExpectedProfit(signal, size, feeRate, slippage)
	if net > d.minProfit {
		ExpectedProfitUSD.Observe(net)
		return true
	}

	SignalsRejectedTotal.WithLabelValues("below_min_profit").Inc()
	d.logger.Debug("signal-below-min-profit",
		zap.String("signal-id", signal.ID),
		zap.String("market-slug", signal.Slug),
		zap.Float64("net-profit", net),
		zap.Float64("min-profit", d.minProfit))

	return false
}
