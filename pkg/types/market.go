package types

import (
	"encoding/json"
	"strconv"
)

// Market represents a binary Polymarket market from the Gamma API.
//
// Outcomes, OutcomePrices and ClobTokenIDs arrive as JSON-encoded strings
// ("[\"Yes\", \"No\"]") and are decoded into slices by UnmarshalJSON. Index 0
// is the YES outcome and index 1 the NO outcome by convention; consumers only
// read those two indices. A Market is immutable once built.
type Market struct {
	ID              string    `json:"id"`
	Question        string    `json:"question"`
	Slug            string    `json:"slug"`
	Outcomes        []string  `json:"-"`
	OutcomePrices   []float64 `json:"-"`
	ClobTokenIDs    []string  `json:"-"`
	BestBid         float64   `json:"bestBid"`
	BestAsk         float64   `json:"bestAsk"`
	MakerFeeBps     int       `json:"makerBaseFee"`
	TakerFeeBps     int       `json:"takerBaseFee"`
	Liquidity       float64   `json:"-"` // Gamma serves this as a string
	Volume24h       float64   `json:"volume24hr"`
	Active          bool      `json:"active"`
	Closed          bool      `json:"closed"`
	AcceptingOrders bool      `json:"acceptingOrders"`
	EndDate         string    `json:"endDate"`
}

// UnmarshalJSON decodes the stringified array fields and the string liquidity
// figure that the Gamma API embeds in its market payloads.
func (m *Market) UnmarshalJSON(data []byte) error {
	type Alias Market
	aux := &struct {
		Outcomes      string `json:"outcomes"`
		OutcomePrices string `json:"outcomePrices"`
		ClobTokenIDs  string `json:"clobTokenIds"`
		Liquidity     string `json:"liquidity"`
		*Alias
	}{
		Alias: (*Alias)(m),
	}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	if aux.Outcomes != "" {
		if err := json.Unmarshal([]byte(aux.Outcomes), &m.Outcomes); err != nil {
			return err
		}
	}

	if aux.ClobTokenIDs != "" {
		if err := json.Unmarshal([]byte(aux.ClobTokenIDs), &m.ClobTokenIDs); err != nil {
			return err
		}
	}

	// Prices are doubly encoded: a JSON string holding a JSON array of strings.
	if aux.OutcomePrices != "" {
		var raw []string
		if err := json.Unmarshal([]byte(aux.OutcomePrices), &raw); err != nil {
			return err
		}

		m.OutcomePrices = make([]float64, 0, len(raw))
		for _, s := range raw {
			p, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return err
			}
			m.OutcomePrices = append(m.OutcomePrices, p)
		}
	}

	if aux.Liquidity != "" {
		liq, err := strconv.ParseFloat(aux.Liquidity, 64)
		if err != nil {
			return err
		}
		m.Liquidity = liq
	}

	return nil
}

// YesPrice returns the quoted price of the YES outcome.
func (m *Market) YesPrice() float64 {
	if len(m.OutcomePrices) < 1 {
		return 0
	}
	return m.OutcomePrices[0]
}

// NoPrice returns the quoted price of the NO outcome.
func (m *Market) NoPrice() float64 {
	if len(m.OutcomePrices) < 2 {
		return 0
	}
	return m.OutcomePrices[1]
}

// PriceSum returns YES price + NO price. In an efficient binary market this
// sums to 1.0.
func (m *Market) PriceSum() float64 {
	return m.YesPrice() + m.NoPrice()
}

// Spread returns the absolute deviation of the outcome-price sum from 1.0.
// This is the arbitrage spread, not a bid/ask spread.
func (m *Market) Spread() float64 {
	d := m.PriceSum() - 1.0
	if d < 0 {
		return -d
	}
	return d
}

// IsBinary reports whether the market has exactly two outcomes with prices
// and CLOB tokens for both.
func (m *Market) IsBinary() bool {
	return len(m.Outcomes) == 2 && len(m.OutcomePrices) == 2 && len(m.ClobTokenIDs) == 2
}

// Tradeable reports whether the market is open for trading.
func (m *Market) Tradeable() bool {
	return m.Active && !m.Closed && m.AcceptingOrders
}

// YesTokenID returns the CLOB token ID of the YES outcome, or "" if unknown.
func (m *Market) YesTokenID() string {
	if len(m.ClobTokenIDs) < 1 {
		return ""
	}
	return m.ClobTokenIDs[0]
}

// NoTokenID returns the CLOB token ID of the NO outcome, or "" if unknown.
func (m *Market) NoTokenID() string {
	if len(m.ClobTokenIDs) < 2 {
		return ""
	}
	return m.ClobTokenIDs[1]
}
