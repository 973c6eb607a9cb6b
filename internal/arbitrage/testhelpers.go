package arbitrage

import (
	"time"

	"github.com/mselser95/polyshark/pkg/types"
)

// CreateTestMarket creates an unbalanced binary market with the given
// outcome prices. This is a test helper kept out of testutil to avoid
// import cycles.
func CreateTestMarket(id string, yesPrice, noPrice float64) *types.Market {
	return &types.Market{
		ID:              id,
		Question:        "Test market: " + id,
		Slug:            "test-market-" + id,
		Outcomes:        []string{"Yes", "No"},
		OutcomePrices:   []float64{yesPrice, noPrice},
		ClobTokenIDs:    []string{"yes-token-" + id, "no-token-" + id},
		MakerFeeBps:     0,
		TakerFeeBps:     200,
		Active:          true,
		AcceptingOrders: true,
	}
}

// CreateTestSignal creates a signal as the checker would emit it for a
// market priced at yes 0.48 / no 0.47.
func CreateTestSignal(marketID string) *types.ArbitrageSignal {
	return &types.ArbitrageSignal{
		ID:              "test-signal-" + marketID,
		MarketID:        marketID,
		Slug:            "test-market-" + marketID,
		Question:        "Test market: " + marketID,
		Spread:          0.05,
		Edge:            0.05,
		RecommendedSide: types.Buy,
		YesPrice:        0.48,
		NoPrice:         0.47,
		DetectedAt:      time.Now(),
	}
}
