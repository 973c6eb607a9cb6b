package types

import "time"

// ArbitrageSignal is emitted when a market's outcome-price sum deviates from
// 1.0 by more than the configured spread threshold.
//
// Edge equals Spread in this model: the gross expected profit per unit of
// size before fees and slippage. RecommendedSide is Sell when the sum is
// above 1.0 (outcomes overpriced) and Buy when below.
type ArbitrageSignal struct {
	ID              string    `json:"id"`
	MarketID        string    `json:"market_id"`
	Slug            string    `json:"slug"`
	Question        string    `json:"question"`
	Spread          float64   `json:"spread"`
	Edge            float64   `json:"edge"`
	RecommendedSide Side      `json:"recommended_side"`
	YesPrice        float64   `json:"yes_price"`
	NoPrice         float64   `json:"no_price"`
	DetectedAt      time.Time `json:"detected_at"`
}
