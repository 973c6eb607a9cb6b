package storage

import (
	"context"

	"github.com/mselser95/polyshark/pkg/types"
)

// Storage persists detected signals and simulated trades.
type Storage interface {
	// StoreSignal stores an arbitrage signal.
	StoreSignal(ctx context.Context, signal *types.ArbitrageSignal) error

	// StoreTrade stores a simulated trade.
	StoreTrade(ctx context.Context, trade *types.Trade) error

	// Close closes the storage connection.
	Close() error
}
