package arbitrage

import (
	"math"
	"testing"

	"github.com/mselser95/polyshark/pkg/types"
)

func TestChecker_Check(t *testing.T) {
	tests := []struct {
		name       string
		minSpread  float64
		yesPrice   float64
		noPrice    float64
		wantSignal bool
		wantSide   types.Side
		wantSpread float64
	}{
		{
			name:       "balanced-market-no-signal",
			minSpread:  0.02,
			yesPrice:   0.50,
			noPrice:    0.50,
			wantSignal: false,
		},
		{
			name:       "underpriced-recommends-buy",
			minSpread:  0.02,
			yesPrice:   0.48,
			noPrice:    0.47,
			wantSignal: true,
			wantSide:   types.Buy,
			wantSpread: 0.05,
		},
		{
			name:       "overpriced-recommends-sell",
			minSpread:  0.02,
			yesPrice:   0.55,
			noPrice:    0.48,
			wantSignal: true,
			wantSide:   types.Sell,
			wantSpread: 0.03,
		},
		{
			name:       "spread-exactly-at-threshold-no-signal",
			minSpread:  0.5,
			yesPrice:   0.25,
			noPrice:    0.25,
			wantSignal: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := Checker{MinSpread: tt.minSpread}
			market := CreateTestMarket("m1", tt.yesPrice, tt.noPrice)

			signal, ok := checker.Check(market)
			if ok != tt.wantSignal {
				t.Fatalf("Check() ok = %v, want %v", ok, tt.wantSignal)
			}
			if !tt.wantSignal {
				return
			}

			if signal.RecommendedSide != tt.wantSide {
				t.Errorf("RecommendedSide = %v, want %v", signal.RecommendedSide, tt.wantSide)
			}
			if math.Abs(signal.Spread-tt.wantSpread) > 1e-9 {
				t.Errorf("Spread = %v, want %v", signal.Spread, tt.wantSpread)
			}
			if signal.Edge != signal.Spread {
				t.Errorf("Edge = %v, want same as spread %v", signal.Edge, signal.Spread)
			}
			if signal.MarketID != market.ID {
				t.Errorf("MarketID = %v, want %v", signal.MarketID, market.ID)
			}
			if signal.YesPrice != tt.yesPrice || signal.NoPrice != tt.noPrice {
				t.Errorf("prices = (%v, %v), want (%v, %v)",
					signal.YesPrice, signal.NoPrice, tt.yesPrice, tt.noPrice)
			}
			if signal.ID == "" {
				t.Error("ID is empty")
			}
			if signal.DetectedAt.IsZero() {
				t.Error("DetectedAt is zero")
			}
		})
	}
}
