package execution

import (
	"github.com/mselser95/polyshark/pkg/types"
)

// Slippage returns the fractional deviation of the volume-weighted execution
// price from the book midpoint for a hypothetical order. The convention is
// adverse-cost-positive: (exec - mid)/mid for a Buy, (mid - exec)/mid for a
// Sell. It reports false when the midpoint or the execution price is
// unavailable.
func Slippage(book *types.OrderBook, size float64, side types.Side) (float64, bool) {
	midpoint, ok := book.Midpoint()
	if !ok {
		return 0, false
	}

	execPrice, ok := book.ExecutionPrice(size, side)
	if !ok {
		return 0, false
	}

	if side == types.Buy {
		return (execPrice - midpoint) / midpoint, true
	}

	return (midpoint - execPrice) / midpoint, true
}

// ExecutionCost returns the notional cost of filling a size at the book's
// volume-weighted execution price. It reports false when the book cannot
// fill the size.
func ExecutionCost(book *types.OrderBook, size float64, side types.Side) (float64, bool) {
	execPrice, ok := book.ExecutionPrice(size, side)
	if !ok {
		return 0, false
	}

	return execPrice * size, true
}
