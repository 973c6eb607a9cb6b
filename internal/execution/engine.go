package execution

import (
	"math"

	"github.com/mselser95/polyshark/pkg/types"
	"github.com/mselser95/polyshark/pkg/wallet"
	"go.uber.org/zap"
)

const (
	resultFilled            = "filled"
	resultNoLiquidity       = "no_liquidity"
	resultInsufficientFunds = "insufficient_funds"
)

// Engine simulates order execution against an order-book snapshot, charging
// taker fees and debiting a paper ledger. Rejected orders leave the ledger
// untouched.
type Engine struct {
	fees   FeeModel
	logger *zap.Logger
}

// Config holds engine configuration.
type Config struct {
	Fees   FeeModel
	Logger *zap.Logger
}

// New creates a new execution engine.
func New(cfg *Config) *Engine {
	return &Engine{
		fees:   cfg.Fees,
		logger: cfg.Logger,
	}
}

// Execute simulates one order end to end. The requested size is first sized
// down to what the book can fill, the book is walked for a volume-weighted
// price at that size, and the ledger is debited by notional plus taker fee.
// There is no partial-success path: the order executes at the sized-down
// amount or not at all.
//
// It returns types.ErrNoLiquidity when the book cannot produce a price and
// types.ErrInsufficientFunds when the ledger cannot cover the total cost.
// Both are expected outcomes during a scan, not faults.
func (e *Engine) Execute(book *types.OrderBook, size float64, side types.Side, ledger *wallet.Ledger) (*types.ExecutionResult, error) {
	filled := FilledSize(book, size, side)
	if filled <= 0 {
		OrdersTotal.WithLabelValues(resultNoLiquidity).Inc()
		e.logger.Debug("order-rejected-empty-book",
			zap.String("token-id", book.TokenID),
			zap.String("side", side.String()),
			zap.Float64("size", size))
		return nil, types.ErrNoLiquidity
	}

	execPrice, ok := book.ExecutionPrice(filled, side)
	if !ok {
		OrdersTotal.WithLabelValues(resultNoLiquidity).Inc()
		e.logger.Debug("order-rejected-illiquid",
			zap.String("token-id", book.TokenID),
			zap.String("side", side.String()),
			zap.Float64("size", size),
			zap.Float64("filled-size", filled))
		return nil, types.ErrNoLiquidity
	}

	midpoint, ok := book.Midpoint()
	if !ok {
		OrdersTotal.WithLabelValues(resultNoLiquidity).Inc()
		e.logger.Debug("order-rejected-no-midpoint",
			zap.String("token-id", book.TokenID),
			zap.String("side", side.String()))
		return nil, types.ErrNoLiquidity
	}

	slippage := math.Abs(execPrice-midpoint) / midpoint
	notional := execPrice * filled
	fee := e.fees.Calculate(notional, false)
	totalCost := notional + fee

	if !ledger.Deduct(totalCost) {
		OrdersTotal.WithLabelValues(resultInsufficientFunds).Inc()
		e.logger.Debug("order-rejected-insufficient-funds",
			zap.String("token-id", book.TokenID),
			zap.String("side", side.String()),
			zap.Float64("total-cost", totalCost),
			zap.Float64("cash", ledger.Cash()))
		return nil, types.ErrInsufficientFunds
	}

	ledger.RecordFee(fee)

	OrdersTotal.WithLabelValues(resultFilled).Inc()
	NotionalTradedUSD.Add(notional)
	FeesChargedUSD.Add(fee)
	SlippageFraction.Observe(slippage)

	e.logger.Debug("order-filled",
		zap.String("token-id", book.TokenID),
		zap.String("side", side.String()),
		zap.Float64("filled-size", filled),
		zap.Float64("execution-price", execPrice),
		zap.Float64("slippage", slippage),
		zap.Float64("fee", fee),
		zap.Float64("total-cost", totalCost))

	return &types.ExecutionResult{
		FilledSize:     filled,
		ExecutionPrice: execPrice,
		Fee:            fee,
		Slippage:       slippage,
		TotalCost:      totalCost,
		Success:        true,
	}, nil
}
