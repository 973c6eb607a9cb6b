package types

import "time"

// PriceLevel is one resting order-book rung: a price and the size quoted at
// that price. Size is a non-negative quantity.
type PriceLevel struct {
	Price float64 `json:"price"`
	Size  float64 `json:"size"`
}

// OrderBook is an immutable snapshot of one token's resting liquidity.
//
// Bids are best-first (price-descending) and Asks best-first
// (price-ascending). The ordering is the producer's responsibility: the
// walking methods below consume levels in the order given and never sort.
type OrderBook struct {
	TokenID   string       `json:"token_id"`
	Bids      []PriceLevel `json:"bids"`
	Asks      []PriceLevel `json:"asks"`
	Timestamp time.Time    `json:"timestamp"`
}

// BestBid returns the top bid level.
func (b *OrderBook) BestBid() (PriceLevel, bool) {
	if len(b.Bids) == 0 {
		return PriceLevel{}, false
	}
	return b.Bids[0], true
}

// BestAsk returns the top ask level.
func (b *OrderBook) BestAsk() (PriceLevel, bool) {
	if len(b.Asks) == 0 {
		return PriceLevel{}, false
	}
	return b.Asks[0], true
}

// Midpoint returns the average of the best bid and best ask prices. It
// reports false when either side of the book is empty.
func (b *OrderBook) Midpoint() (float64, bool) {
	bid, ok := b.BestBid()
	if !ok {
		return 0, false
	}

	ask, ok := b.BestAsk()
	if !ok {
		return 0, false
	}

	return (bid.Price + ask.Price) / 2, true
}

// ExecutionPrice walks the book and returns the volume-weighted average
// price of filling the requested size: asks for a Buy, bids for a Sell.
// Each level contributes min(remaining, level size) at its price. It reports
// false when the side is exhausted before the full size is filled.
//
// A zero size is not guarded; callers must not request zero.
func (b *OrderBook) ExecutionPrice(size float64, side Side) (float64, bool) {
	levels := b.Asks
	if side == Sell {
		levels = b.Bids
	}

	remaining := size
	notional := 0.0

	for _, level := range levels {
		if remaining <= 0 {
			break
		}

		fill := remaining
		if level.Size < fill {
			fill = level.Size
		}

		notional += fill * level.Price
		remaining -= fill
	}

	if remaining > 0 {
		return 0, false
	}

	return notional / size, true
}

// BidLiquidity returns the total size resting on the bid side.
func (b *OrderBook) BidLiquidity() float64 {
	total := 0.0
	for _, level := range b.Bids {
		total += level.Size
	}
	return total
}

// AskLiquidity returns the total size resting on the ask side.
func (b *OrderBook) AskLiquidity() float64 {
	total := 0.0
	for _, level := range b.Asks {
		total += level.Size
	}
	return total
}

// Depth returns the number of bid and ask levels.
func (b *OrderBook) Depth() (bids int, asks int) {
	return len(b.Bids), len(b.Asks)
}

// Clone returns a deep copy sharing no level slices with the receiver.
func (b *OrderBook) Clone() *OrderBook {
	cp := &OrderBook{
		TokenID:   b.TokenID,
		Timestamp: b.Timestamp,
	}

	if len(b.Bids) > 0 {
		cp.Bids = make([]PriceLevel, len(b.Bids))
		copy(cp.Bids, b.Bids)
	}

	if len(b.Asks) > 0 {
		cp.Asks = make([]PriceLevel, len(b.Asks))
		copy(cp.Asks, b.Asks)
	}

	return cp
}
