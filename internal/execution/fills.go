package execution

import (
	"github.com/mselser95/polyshark/pkg/types"
)

// EstimateFillRatio returns the fraction of a requested size the book can
// fill. Ask liquidity fills a Buy, bid liquidity fills a Sell. The ratio is
// 1.0 when available liquidity covers the request, available/size otherwise,
// and 0 against an empty book.
func EstimateFillRatio(book *types.OrderBook, size float64, side types.Side) float64 {
	var available float64
	if side == types.Buy {
		available = book.AskLiquidity()
	} else {
		available = book.BidLiquidity()
	}

	if available >= size {
		return 1.0
	}

	return available / size
}

// FilledSize returns how much of a requested size the book can actually fill.
func FilledSize(book *types.OrderBook, size float64, side types.Side) float64 {
	return size * EstimateFillRatio(book, size, side)
}
