package types

import "errors"

// Execution failure kinds. Both mean "cannot execute now", never a partial
// fill: the engine rejects atomically with no wallet mutation.
var (
	// ErrNoLiquidity is returned when the book cannot satisfy the requested
	// size, or when a midpoint cannot be formed because a side is empty.
	ErrNoLiquidity = errors.New("insufficient liquidity")

	// ErrInsufficientFunds is returned when the wallet cannot afford the
	// total cost of a simulated order.
	ErrInsufficientFunds = errors.New("insufficient funds")
)
