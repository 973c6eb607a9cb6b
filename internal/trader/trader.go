package trader

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mselser95/polyshark/internal/arbitrage"
	"github.com/mselser95/polyshark/internal/circuitbreaker"
	"github.com/mselser95/polyshark/internal/execution"
	"github.com/mselser95/polyshark/internal/markets"
	"github.com/mselser95/polyshark/internal/storage"
	"github.com/mselser95/polyshark/pkg/types"
	"github.com/mselser95/polyshark/pkg/wallet"
)

// Entry rejection reasons.
const (
	reasonCooldown          = "cooldown"
	reasonBreakerOpen       = "breaker_open"
	reasonNoBook            = "no_book"
	reasonBelowMinProfit    = "below_min_profit"
	reasonNoLiquidity       = "no_liquidity"
	reasonInsufficientFunds = "insufficient_funds"
	reasonExecutionError    = "execution_error"
)

// BookSource provides order-book snapshots by token ID.
type BookSource interface {
	Book(tokenID string) (*types.OrderBook, bool)
}

// MarketSource lists the markets currently under subscription.
type MarketSource interface {
	GetSubscribedMarkets() []*types.Market
}

// MetadataSource resolves per-token trading constraints.
type MetadataSource interface {
	Fetch(ctx context.Context, tokenID string) (markets.TokenMetadata, error)
}

// Trader is the paper-trading loop. It consumes book-update events, runs the
// arbitrage check against live quotes, sizes and gates candidate entries, and
// settles convergence exits, all against a simulated wallet ledger.
//
// The ledger itself performs no locking; the trader owns it and serializes
// every access behind its mutex. HTTP snapshots go through Snapshot, never
// the ledger directly.
type Trader struct {
	detector *arbitrage.Detector
	breaker  *circuitbreaker.Breaker
	books    BookSource
	markets  MarketSource
	metadata MetadataSource
	storage  storage.Storage
	updates  <-chan string
	logger   *zap.Logger

	tradeSize    float64
	maxTradeSize float64
	exitSpread   float64
	cooldown     time.Duration

	// Protected by mutex
	mu        sync.Mutex
	ledger    *wallet.Ledger
	marks     map[string]float64   // token_id -> latest quoted yes price
	lastEntry map[string]time.Time // market_id -> last entry time
	signals   int
	entries   int
	exits     int

	ctx context.Context
	wg  sync.WaitGroup
}

// Config holds trader configuration.
type Config struct {
	TradeSize     float64
	MaxTradeSize  float64
	ExitSpread    float64
	EntryCooldown time.Duration
	Detector      *arbitrage.Detector
	Breaker       *circuitbreaker.Breaker
	Ledger        *wallet.Ledger
	Books         BookSource
	Markets       MarketSource
	Metadata      MetadataSource
	Storage       storage.Storage
	Updates       <-chan string
	Logger        *zap.Logger
}

// New creates a new paper trader.
func New(cfg *Config) *Trader {
	return &Trader{
		detector:     cfg.Detector,
		breaker:      cfg.Breaker,
		books:        cfg.Books,
		markets:      cfg.Markets,
		metadata:     cfg.Metadata,
		storage:      cfg.Storage,
		updates:      cfg.Updates,
		logger:       cfg.Logger,
		tradeSize:    cfg.TradeSize,
		maxTradeSize: cfg.MaxTradeSize,
		exitSpread:   cfg.ExitSpread,
		cooldown:     cfg.EntryCooldown,
		ledger:       cfg.Ledger,
		marks:        make(map[string]float64),
		lastEntry:    make(map[string]time.Time),
	}
}

// Start starts the trading loop.
func (t *Trader) Start(ctx context.Context) error {
	t.ctx = ctx
	t.logger.Info("trader-starting",
		zap.Float64("trade-size", t.tradeSize),
		zap.Float64("max-trade-size", t.maxTradeSize),
		zap.Float64("exit-spread", t.exitSpread),
		zap.Duration("entry-cooldown", t.cooldown),
		zap.Float64("starting-balance", t.ledger.StartingBalance()))

	t.wg.Add(1)
	go t.tradeLoop()

	return nil
}

// tradeLoop processes book-update events until the context is cancelled or
// the update channel closes.
func (t *Trader) tradeLoop() {
	defer t.wg.Done()

	for {
		select {
		case <-t.ctx.Done():
			t.logger.Info("trader-stopping")
			return
		case tokenID, ok := <-t.updates:
			if !ok {
				t.logger.Info("book-update-channel-closed")
				return
			}

			t.processUpdate(tokenID)
		}
	}
}

// processUpdate runs the exit check and the entry check for the market a
// token belongs to. Tokens outside any subscribed market are ignored.
func (t *Trader) processUpdate(tokenID string) {
	start := time.Now()
	defer func() {
		UpdateCheckDuration.Observe(time.Since(start).Seconds())
	}()

	market := t.resolveMarket(tokenID)
	if market == nil {
		return
	}

	quoted := t.quotedMarket(market)

	t.mu.Lock()
	t.marks[quoted.YesTokenID()] = quoted.YesPrice()
	t.mu.Unlock()

	if t.tryExit(quoted) {
		return
	}

	t.tryEnter(quoted)
}

// resolveMarket finds the subscribed market a token belongs to.
func (t *Trader) resolveMarket(tokenID string) *types.Market {
	for _, market := range t.markets.GetSubscribedMarkets() {
		if market.YesTokenID() == tokenID || market.NoTokenID() == tokenID {
			return market
		}
	}

	return nil
}

// quotedMarket returns a copy of the market re-priced from the live books:
// each outcome takes its book midpoint when both sides are quoted, falling
// back to the discovery snapshot price.
func (t *Trader) quotedMarket(market *types.Market) *types.Market {
	quoted := *market
	quoted.OutcomePrices = []float64{
		t.tokenPrice(market.YesTokenID(), market.YesPrice()),
		t.tokenPrice(market.NoTokenID(), market.NoPrice()),
	}

	return &quoted
}

// tokenPrice returns the live midpoint for a token, or the fallback when the
// book is missing or one-sided.
func (t *Trader) tokenPrice(tokenID string, fallback float64) float64 {
	book, ok := t.books.Book(tokenID)
	if !ok {
		return fallback
	}

	mid, ok := book.Midpoint()
	if !ok {
		return fallback
	}

	return mid
}

// tryExit closes the market's open position when the live spread has
// converged back under the exit threshold. Reports whether a position was
// closed.
func (t *Trader) tryExit(quoted *types.Market) bool {
	if quoted.Spread() > t.exitSpread {
		return false
	}

	yesToken := quoted.YesTokenID()

	t.mu.Lock()

	pos, ok := t.ledger.Position(yesToken)
	if !ok {
		t.mu.Unlock()
		return false
	}

	// Exit at the live yes-book midpoint; a missing or one-sided book
	// falls back to the quoted yes price.
	exitPrice := quoted.YesPrice()
	if book, bok := t.books.Book(yesToken); bok {
		if mid, mok := book.Midpoint(); mok {
			exitPrice = mid
		}
	}

	pnl, _ := t.ledger.ClosePosition(yesToken, exitPrice)
	t.ledger.RecordTrade(pnl > 0)
	t.exits++

	equity := t.ledger.Equity(t.marks)
	cash := t.ledger.Cash()
	winRate := t.ledger.WinRate()
	openCount := t.ledger.OpenPositionCount()

	t.mu.Unlock()

	t.breaker.Observe(equity)

	ExitsTotal.Inc()
	RealizedPnLUSD.Add(pnl)
	EquityUSD.Set(equity)
	CashUSD.Set(cash)
	WinRateRatio.Set(winRate)
	OpenPositions.Set(float64(openCount))

	t.logger.Info("position-closed-on-convergence",
		zap.String("market-slug", quoted.Slug),
		zap.String("token-id", yesToken),
		zap.Float64("entry-price", pos.EntryPrice),
		zap.Float64("exit-price", exitPrice),
		zap.Float64("size", pos.Size),
		zap.Float64("realized-pnl", pnl),
		zap.Float64("spread", quoted.Spread()))

	t.persistTrade(&types.Trade{
		ID:          uuid.New().String(),
		MarketID:    quoted.ID,
		Slug:        quoted.Slug,
		TokenID:     yesToken,
		Side:        exitSide(pos.Side),
		Size:        pos.Size,
		Price:       exitPrice,
		Notional:    pos.Size * exitPrice,
		RealizedPnL: pnl,
		ExecutedAt:  time.Now(),
	})

	return true
}

// tryEnter checks the live quotes for a fresh signal and simulates an entry
// when it survives the cooldown, breaker, sizing and profitability gates.
func (t *Trader) tryEnter(quoted *types.Market) {
	signal, ok := t.detector.Checker().Check(quoted)
	if !ok {
		return
	}

	SignalsTotal.Inc()

	t.mu.Lock()
	t.signals++
	last, seen := t.lastEntry[quoted.ID]
	t.mu.Unlock()

	if seen && time.Since(last) < t.cooldown {
		EntriesRejectedTotal.WithLabelValues(reasonCooldown).Inc()
		return
	}

	if !t.breaker.Allow() {
		EntriesRejectedTotal.WithLabelValues(reasonBreakerOpen).Inc()
		t.logger.Debug("entry-blocked-breaker-open",
			zap.String("market-slug", quoted.Slug),
			zap.String("signal-id", signal.ID))
		return
	}

	yesToken := quoted.YesTokenID()

	book, ok := t.books.Book(yesToken)
	if !ok {
		EntriesRejectedTotal.WithLabelValues(reasonNoBook).Inc()
		t.logger.Debug("entry-skipped-no-book",
			zap.String("market-slug", quoted.Slug),
			zap.String("token-id", yesToken))
		return
	}

	size := t.entrySize(yesToken)

	slippage := 0.0
	if slip, sok := execution.Slippage(book, size, signal.RecommendedSide); sok {
		slippage = slip
	}

	feeModel := execution.FeeModelForMarket(quoted)

	if !t.detector.ShouldTrade(signal, size, feeModel.TakerRate(), slippage) {
		EntriesRejectedTotal.WithLabelValues(reasonBelowMinProfit).Inc()
		return
	}

	engine := execution.New(&execution.Config{
		Fees:   feeModel,
		Logger: t.logger,
	})

	now := time.Now()

	t.mu.Lock()

	result, err := engine.Execute(book, size, signal.RecommendedSide, t.ledger)
	if err != nil {
		t.mu.Unlock()
		EntriesRejectedTotal.WithLabelValues(rejectReason(err)).Inc()
		t.logger.Debug("entry-execution-rejected",
			zap.String("market-slug", quoted.Slug),
			zap.String("signal-id", signal.ID),
			zap.Float64("size", size),
			zap.Error(err))
		return
	}

	displaced := t.ledger.OpenPosition(yesToken, signal.RecommendedSide, result.FilledSize, result.ExecutionPrice, now)
	t.lastEntry[quoted.ID] = now
	t.entries++

	equity := t.ledger.Equity(t.marks)
	cash := t.ledger.Cash()
	fees := t.ledger.FeesPaid()
	openCount := t.ledger.OpenPositionCount()

	t.mu.Unlock()

	t.breaker.Observe(equity)

	if displaced != nil {
		PositionsDisplacedTotal.Inc()
		t.logger.Warn("position-displaced",
			zap.String("token-id", yesToken),
			zap.Float64("displaced-size", displaced.Size),
			zap.Float64("displaced-entry-price", displaced.EntryPrice),
			zap.Float64("displaced-basis", displaced.Size*displaced.EntryPrice))
	}

	EntriesExecutedTotal.Inc()
	EquityUSD.Set(equity)
	CashUSD.Set(cash)
	FeesPaidUSD.Set(fees)
	OpenPositions.Set(float64(openCount))

	t.logger.Info("simulated-entry-executed",
		zap.String("market-slug", quoted.Slug),
		zap.String("signal-id", signal.ID),
		zap.String("side", signal.RecommendedSide.String()),
		zap.Float64("size", result.FilledSize),
		zap.Float64("price", result.ExecutionPrice),
		zap.Float64("fee", result.Fee),
		zap.Float64("slippage", result.Slippage),
		zap.Float64("cash", cash))

	t.persistSignal(signal)
	t.persistTrade(&types.Trade{
		ID:         uuid.New().String(),
		MarketID:   quoted.ID,
		Slug:       quoted.Slug,
		TokenID:    yesToken,
		Side:       signal.RecommendedSide,
		Size:       result.FilledSize,
		Price:      result.ExecutionPrice,
		Fee:        result.Fee,
		Slippage:   result.Slippage,
		Notional:   result.ExecutionPrice * result.FilledSize,
		ExecutedAt: now,
	})
}

// entrySize clamps the configured trade size to the max and floors it at the
// token's minimum order size.
func (t *Trader) entrySize(tokenID string) float64 {
	size := t.tradeSize
	if size > t.maxTradeSize {
		size = t.maxTradeSize
	}

	meta, err := t.metadata.Fetch(t.ctx, tokenID)
	if err == nil && meta.MinOrderSize > size {
		size = meta.MinOrderSize
	}

	return size
}

// persistSignal stores a signal. Storage failures are logged, never fatal.
func (t *Trader) persistSignal(signal *types.ArbitrageSignal) {
	err := t.storage.StoreSignal(t.ctx, signal)
	if err != nil {
		t.logger.Error("failed-to-store-signal",
			zap.String("signal-id", signal.ID),
			zap.Error(err))
	}
}

// persistTrade stores a trade. Storage failures are logged, never fatal.
func (t *Trader) persistTrade(trade *types.Trade) {
	err := t.storage.StoreTrade(t.ctx, trade)
	if err != nil {
		t.logger.Error("failed-to-store-trade",
			zap.String("trade-id", trade.ID),
			zap.Error(err))
	}
}

// Snapshot is a point-in-time view of the paper wallet for HTTP handlers.
type Snapshot struct {
	Cash            float64           `json:"cash"`
	Equity          float64           `json:"equity"`
	StartingBalance float64           `json:"starting_balance"`
	PnL             float64           `json:"pnl"`
	FeesPaid        float64           `json:"fees_paid"`
	WinRate         float64           `json:"win_rate"`
	Trades          int               `json:"trades"`
	Wins            int               `json:"wins"`
	Signals         int               `json:"signals"`
	Entries         int               `json:"entries"`
	Exits           int               `json:"exits"`
	OpenPositions   []wallet.Position `json:"open_positions"`
}

// Snapshot returns the current wallet state. Open positions are marked at
// the latest quoted yes prices.
func (t *Trader) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	return Snapshot{
		Cash:            t.ledger.Cash(),
		Equity:          t.ledger.Equity(t.marks),
		StartingBalance: t.ledger.StartingBalance(),
		PnL:             t.ledger.PnL(t.marks),
		FeesPaid:        t.ledger.FeesPaid(),
		WinRate:         t.ledger.WinRate(),
		Trades:          t.ledger.Trades(),
		Wins:            t.ledger.Wins(),
		Signals:         t.signals,
		Entries:         t.entries,
		Exits:           t.exits,
		OpenPositions:   t.ledger.Positions(),
	}
}

// Close waits for the trading loop to stop and logs the final wallet state.
// Callers must cancel the Start context first.
func (t *Trader) Close() error {
	t.logger.Info("closing-trader")
	t.wg.Wait()

	snap := t.Snapshot()
	t.logger.Info("trader-closed",
		zap.Float64("final-cash", snap.Cash),
		zap.Float64("final-equity", snap.Equity),
		zap.Float64("fees-paid", snap.FeesPaid),
		zap.Int("entries", snap.Entries),
		zap.Int("exits", snap.Exits),
		zap.Float64("win-rate", snap.WinRate))

	return nil
}

// exitSide returns the side that unwinds a position.
func exitSide(entry types.Side) types.Side {
	if entry == types.Buy {
		return types.Sell
	}

	return types.Buy
}

// rejectReason maps an execution error to a rejection metric label.
func rejectReason(err error) string {
	switch {
	case errors.Is(err, types.ErrNoLiquidity):
		return reasonNoLiquidity
	case errors.Is(err, types.ErrInsufficientFunds):
		return reasonInsufficientFunds
	default:
		return reasonExecutionError
	}
}
