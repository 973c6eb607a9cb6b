package storage

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mselser95/polyshark/pkg/types"
)

const consoleRule = "━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━"

// ConsoleStorage implements Storage by pretty-printing to console.
type ConsoleStorage struct {
	logger *zap.Logger
}

// NewConsoleStorage creates a new console storage.
func NewConsoleStorage(logger *zap.Logger) *ConsoleStorage {
	logger.Info("console-storage-initialized")
	return &ConsoleStorage{
		logger: logger,
	}
}

// StoreSignal pretty-prints an arbitrage signal to console.
func (c *ConsoleStorage) StoreSignal(ctx context.Context, signal *types.ArbitrageSignal) error {
	fmt.Println("\n" + consoleRule)
	fmt.Printf("🎯 ARBITRAGE SIGNAL DETECTED\n")
	fmt.Println(consoleRule)
	fmt.Printf("ID:       %s\n", shortID(signal.ID))
	fmt.Printf("Market:   %s\n", signal.Slug)
	fmt.Printf("Question: %s\n", signal.Question)
	fmt.Printf("Time:     %s\n", signal.DetectedAt.Format("2006-01-02 15:04:05"))
	fmt.Println(consoleRule)
	fmt.Printf("📊 PRICES\n")
	fmt.Printf("  YES:      %.4f\n", signal.YesPrice)
	fmt.Printf("  NO:       %.4f\n", signal.NoPrice)
	fmt.Printf("  Sum:      %.4f\n", signal.YesPrice+signal.NoPrice)
	fmt.Printf("  Spread:   %.4f (%.0f bps edge)\n", signal.Spread, signal.Edge*10000)
	fmt.Printf("  Action:   %s\n", signal.RecommendedSide)
	fmt.Println(consoleRule)

	return nil
}

// StoreTrade pretty-prints a simulated trade to console.
func (c *ConsoleStorage) StoreTrade(ctx context.Context, trade *types.Trade) error {
	fmt.Println("\n" + consoleRule)
	fmt.Printf("💰 SIMULATED TRADE EXECUTED\n")
	fmt.Println(consoleRule)
	fmt.Printf("ID:       %s\n", shortID(trade.ID))
	fmt.Printf("Market:   %s\n", trade.Slug)
	fmt.Printf("Token:    %s\n", trade.TokenID)
	fmt.Printf("Time:     %s\n", trade.ExecutedAt.Format("2006-01-02 15:04:05"))
	fmt.Println(consoleRule)
	fmt.Printf("  Side:       %s\n", trade.Side)
	fmt.Printf("  Size:       %.2f\n", trade.Size)
	fmt.Printf("  Price:      %.4f\n", trade.Price)
	fmt.Printf("  Notional:   $%.2f\n", trade.Notional)
	fmt.Printf("  Fee:        $%.4f\n", trade.Fee)
	fmt.Printf("  Slippage:   %.4f%%\n", trade.Slippage*100)
	if trade.RealizedPnL != 0 {
		fmt.Printf("  PnL:        $%.2f\n", trade.RealizedPnL)
	}
	fmt.Println(consoleRule)

	return nil
}

// Close is a no-op for console storage.
func (c *ConsoleStorage) Close() error {
	c.logger.Info("closing-console-storage")
	return nil
}

// shortID trims a UUID down to its first block for display.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
