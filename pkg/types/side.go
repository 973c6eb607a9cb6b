package types

// Side is the direction of a simulated order.
type Side int

const (
	// Buy takes liquidity from the ask side.
	Buy Side = iota
	// Sell takes liquidity from the bid side.
	Sell
)

// String returns the CLOB wire spelling of the side.
func (s Side) String() string {
	if s == Sell {
		return "SELL"
	}
	return "BUY"
}

// MarshalJSON encodes the side as its string form.
func (s Side) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}
