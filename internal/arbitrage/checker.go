package arbitrage

import (
	"time"

	"github.com/google/uuid"

	"github.com/mselser95/polyshark/pkg/types"
)

// Checker flags binary markets whose outcome prices have drifted from
// summing to 1.0.
type Checker struct {
	// MinSpread is the deviation below which a market is considered
	// balanced, e.g. 0.02 for 2%.
	MinSpread float64
}

// Check inspects one market for a price-sum violation. It emits a signal
// whose edge equals the spread and whose recommended side is Sell when the
// outcomes are overpriced (sum above 1.0) and Buy when underpriced. Markets
// within the threshold produce no signal.
func (c Checker) Check(market *types.Market) (*types.ArbitrageSignal, bool) {
	spread := market.Spread()
	if spread <= c.MinSpread {
		return nil, false
	}

	side := types.Buy
	if market.PriceSum() > 1.0 {
		side = types.Sell
	}

	return &types.ArbitrageSignal{
		ID:              uuid.New().String(),
		MarketID:        market.ID,
		Slug:            market.Slug,
		Question:        market.Question,
		Spread:          spread,
		Edge:            spread,
		RecommendedSide: side,
		YesPrice:        market.YesPrice(),
		NoPrice:         market.NoPrice(),
		DetectedAt:      time.Now(),
	}, true
}
