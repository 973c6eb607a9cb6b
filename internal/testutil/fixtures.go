package testutil

import (
	"strconv"
	"time"

	"github.com/mselser95/polyshark/pkg/types"
)

// CreateTestMarket creates an active binary market whose quotes sum below
// 1.0, so default detector settings emit a Buy signal for it. Token IDs are
// "<id>-yes" and "<id>-no".
func CreateTestMarket(id string, slug string, question string) *types.Market {
	return &types.Market{
		ID:              id,
		Question:        question,
		Slug:            slug,
		Outcomes:        []string{"Yes", "No"},
		OutcomePrices:   []float64{0.48, 0.47},
		ClobTokenIDs:    []string{id + "-yes", id + "-no"},
		MakerFeeBps:     0,
		TakerFeeBps:     200,
		Liquidity:       50000,
		Volume24h:       125000,
		Active:          true,
		AcceptingOrders: true,
		EndDate:         time.Now().Add(30 * 24 * time.Hour).UTC().Format(time.RFC3339),
	}
}

// CreateBalancedTestMarket creates a market whose quotes sum to exactly 1.0,
// below any sensible signal threshold.
func CreateBalancedTestMarket(id string, slug string, question string) *types.Market {
	market := CreateTestMarket(id, slug, question)
	market.OutcomePrices = []float64{0.50, 0.50}
	return market
}

// CreateTestBookMessage creates a full "book" snapshot message quoting one
// deep level either side of the given midpoint, 0.02 wide.
func CreateTestBookMessage(assetID string, marketID string, mid float64) *types.BookMessage {
	return &types.BookMessage{
		EventType: types.EventBook,
		AssetID:   assetID,
		Market:    marketID,
		Timestamp: time.Now().UnixMilli(),
		Bids: []types.BookLevel{
			{Price: formatPrice(mid - 0.01), Size: "1000"},
		},
		Asks: []types.BookLevel{
			{Price: formatPrice(mid + 0.01), Size: "1000"},
		},
	}
}

// CreateTestPriceChangeMessage creates a "price_change" message that sets a
// single level. Side is "BUY" or "SELL"; a size of "0" removes the level.
func CreateTestPriceChangeMessage(assetID string, marketID string, side string, price string, size string) *types.BookMessage {
	return &types.BookMessage{
		EventType: types.EventPriceChange,
		AssetID:   assetID,
		Market:    marketID,
		Timestamp: time.Now().UnixMilli(),
		Changes: []types.BookChange{
			{Price: price, Side: side, Size: size},
		},
	}
}

func formatPrice(price float64) string {
	return strconv.FormatFloat(price, 'f', -1, 64)
}
