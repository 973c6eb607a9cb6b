package types

import "time"

// ExecutionResult is the record of one simulated execution attempt.
type ExecutionResult struct {
	FilledSize     float64 `json:"filled_size"`
	ExecutionPrice float64 `json:"execution_price"` // VWAP over the walked levels
	Fee            float64 `json:"fee"`
	Slippage       float64 `json:"slippage"` // unsigned fraction vs midpoint
	TotalCost      float64 `json:"total_cost"`
	Success        bool    `json:"success"`
}

// Trade is one simulated fill as recorded by the paper-trading loop: an
// entry (RealizedPnL zero) or a convergence exit (RealizedPnL set).
type Trade struct {
	ID          string    `json:"id"`
	MarketID    string    `json:"market_id"`
	Slug        string    `json:"slug"`
	TokenID     string    `json:"token_id"`
	Side        Side      `json:"side"`
	Size        float64   `json:"size"`
	Price       float64   `json:"price"`
	Fee         float64   `json:"fee"`
	Slippage    float64   `json:"slippage"`
	Notional    float64   `json:"notional"`
	RealizedPnL float64   `json:"realized_pnl"`
	ExecutedAt  time.Time `json:"executed_at"`
}
