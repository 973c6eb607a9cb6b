package wallet

import (
	"sort"
	"time"

	"github.com/mselser95/polyshark/pkg/types"
)

// Position is one open simulated holding: at most one exists per token.
type Position struct {
	TokenID    string     `json:"token_id"`
	Side       types.Side `json:"side"`
	Size       float64    `json:"size"`
	EntryPrice float64    `json:"entry_price"`
	OpenedAt   time.Time  `json:"opened_at"`
}

// Ledger is the simulated balance sheet: cash, open positions, cumulative
// fees and trade counters. Cash never goes negative: Deduct refuses any
// debit it cannot afford and leaves the balance untouched.
//
// A Ledger performs no locking. It is meant to be exclusively owned by one
// simulation task; callers sharing one across goroutines must provide their
// own exclusion.
type Ledger struct {
	cash            float64
	positions       map[string]Position
	startingBalance float64
	feesPaid        float64
	trades          int
	wins            int
}

// NewLedger creates a ledger funded with the given starting balance.
func NewLedger(startingBalance float64) *Ledger {
	return &Ledger{
		cash:            startingBalance,
		positions:       make(map[string]Position),
		startingBalance: startingBalance,
	}
}

// Cash returns the current cash balance.
func (l *Ledger) Cash() float64 {
	return l.cash
}

// StartingBalance returns the balance the ledger was created with.
func (l *Ledger) StartingBalance() float64 {
	return l.startingBalance
}

// FeesPaid returns cumulative fees recorded so far.
func (l *Ledger) FeesPaid() float64 {
	return l.feesPaid
}

// Trades returns the number of recorded trades.
func (l *Ledger) Trades() int {
	return l.trades
}

// Wins returns the number of recorded winning trades.
func (l *Ledger) Wins() int {
	return l.wins
}

// CanAfford reports whether the cash balance covers the given amount.
func (l *Ledger) CanAfford(amount float64) bool {
	return l.cash >= amount
}

// Deduct debits the cash balance. An unaffordable debit is a no-op and
// returns false.
func (l *Ledger) Deduct(amount float64) bool {
	if !l.CanAfford(amount) {
		return false
	}

	l.cash -= amount
	return true
}

// Credit adds to the cash balance unconditionally.
func (l *Ledger) Credit(amount float64) {
	l.cash += amount
}

// RecordFee accumulates a paid fee.
func (l *Ledger) RecordFee(fee float64) {
	l.feesPaid += fee
}

// RecordTrade increments the trade counters.
func (l *Ledger) RecordTrade(isWinner bool) {
	l.trades++
	if isWinner {
		l.wins++
	}
}

// Equity returns cash plus the marked value of all open positions. Tokens
// missing from prices contribute zero.
func (l *Ledger) Equity(prices map[string]float64) float64 {
	equity := l.cash
	for tokenID, pos := range l.positions {
		equity += pos.Size * prices[tokenID]
	}
	return equity
}

// PnL returns equity minus the starting balance.
func (l *Ledger) PnL(prices map[string]float64) float64 {
	return l.Equity(prices) - l.startingBalance
}

// WinRate returns winning trades over total trades, or 0 when no trades
// have been recorded.
func (l *Ledger) WinRate() float64 {
	if l.trades == 0 {
		return 0
	}
	return float64(l.wins) / float64(l.trades)
}

// OpenPosition inserts the position for the token, replacing any prior one.
// The displaced position is returned so the caller can account for its
// discarded cost basis; nil when the token had no open position.
func (l *Ledger) OpenPosition(tokenID string, side types.Side, size, entryPrice float64, openedAt time.Time) *Position {
	var displaced *Position
	if prev, ok := l.positions[tokenID]; ok {
		displaced = &prev
	}

	l.positions[tokenID] = Position{
		TokenID:    tokenID,
		Side:       side,
		Size:       size,
		EntryPrice: entryPrice,
		OpenedAt:   openedAt,
	}

	return displaced
}

// ClosePosition removes the token's position, credits size * exit price
// back to cash and returns the realized PnL: (exit - entry) * size for a
// Buy position, reversed for Sell. It reports false, and changes nothing,
// when the token has no open position.
func (l *Ledger) ClosePosition(tokenID string, exitPrice float64) (float64, bool) {
	pos, ok := l.positions[tokenID]
	if !ok {
		return 0, false
	}

	delete(l.positions, tokenID)

	pnl := (exitPrice - pos.EntryPrice) * pos.Size
	if pos.Side == types.Sell {
		pnl = -pnl
	}

	l.Credit(pos.Size * exitPrice)

	return pnl, true
}

// Position returns the open position for a token.
func (l *Ledger) Position(tokenID string) (Position, bool) {
	pos, ok := l.positions[tokenID]
	return pos, ok
}

// Positions returns a copy of all open positions, ordered by token ID.
func (l *Ledger) Positions() []Position {
	out := make([]Position, 0, len(l.positions))
	for _, pos := range l.positions {
		out = append(out, pos)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].TokenID < out[j].TokenID
	})

	return out
}

// OpenPositionCount returns the number of open positions.
func (l *Ledger) OpenPositionCount() int {
	return len(l.positions)
}
