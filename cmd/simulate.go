package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/mselser95/polyshark/internal/arbitrage"
	"github.com/mselser95/polyshark/internal/circuitbreaker"
	"github.com/mselser95/polyshark/internal/markets"
	"github.com/mselser95/polyshark/internal/orderbook"
	"github.com/mselser95/polyshark/internal/storage"
	"github.com/mselser95/polyshark/internal/trader"
	"github.com/mselser95/polyshark/pkg/config"
	"github.com/mselser95/polyshark/pkg/types"
	"github.com/mselser95/polyshark/pkg/wallet"
)

//nolint:gochecknoglobals // Cobra boilerplate
var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Replay a captured book-message file through the simulation",
	Long: `Replays a capture file through the full simulation pipeline offline: the
book manager rebuilds order books from the messages, the detector checks
live quotes, and the trader runs entries and convergence exits against a
fresh paper wallet. The final wallet state is printed.

The file holds one JSON object with a "markets" array in the Gamma API
schema and a "messages" array in the market WebSocket channel schema.
Detection thresholds, exit spread and cooldown come from the environment.`,
	RunE: runSimulate,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(simulateCmd)
	simulateCmd.Flags().StringP("file", "f", "", "Capture file to replay (required)")
	simulateCmd.Flags().Float64P("balance", "b", 1000.0, "Paper wallet starting balance in USDC")
	simulateCmd.Flags().Float64P("size", "s", 100.0, "Trade size per entry in tokens")
	_ = simulateCmd.MarkFlagRequired("file")
}

// simulationInput is the capture file layout.
type simulationInput struct {
	Markets  []*types.Market      `json:"markets"`
	Messages []*types.BookMessage `json:"messages"`
}

// marketList serves the capture file's markets to the trader.
type marketList []*types.Market

func (l marketList) GetSubscribedMarkets() []*types.Market { return l }

// fixedMetadata keeps the replay offline: every token gets standard
// constraints instead of a CLOB API lookup.
type fixedMetadata struct{}

func (fixedMetadata) Fetch(ctx context.Context, tokenID string) (markets.TokenMetadata, error) {
	return markets.TokenMetadata{
		TickSize:     0.01,
		MinOrderSize: 5,
		FetchedAt:    time.Now(),
	}, nil
}

func runSimulate(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := config.NewLogger(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	file, _ := cmd.Flags().GetString("file")
	balance, _ := cmd.Flags().GetFloat64("balance")
	size, _ := cmd.Flags().GetFloat64("size")

	if balance <= 0 {
		return fmt.Errorf("invalid balance: %.2f. Must be positive", balance)
	}
	if size <= 0 {
		return fmt.Errorf("invalid size: %.2f. Must be positive", size)
	}

	input, err := loadSimulationInput(file)
	if err != nil {
		return err
	}

	fmt.Printf("=== Polyshark Replay ===\n\n")
	fmt.Printf("File: %s\n", file)
	fmt.Printf("Markets: %d\n", len(input.Markets))
	fmt.Printf("Messages: %d\n", len(input.Messages))
	fmt.Printf("Balance: $%.2f\n", balance)
	fmt.Printf("Trade Size: %.2f tokens\n\n", size)

	msgChan := make(chan *types.BookMessage, len(input.Messages)+1)
	books := orderbook.New(&orderbook.Config{
		Logger:         logger,
		MessageChannel: msgChan,
	})

	detector := arbitrage.New(arbitrage.Config{
		MinSpread: cfg.ArbMinSpread,
		MinProfit: cfg.ArbMinProfit,
		FeeLegs:   cfg.ArbFeeLegs,
		Logger:    logger,
	})

	breaker, err := circuitbreaker.New(&circuitbreaker.Config{
		EquityFloor:   cfg.BreakerEquityFloorRatio * balance,
		ReenableRatio: cfg.BreakerReenableRatio,
		Logger:        logger,
	})
	if err != nil {
		return fmt.Errorf("create breaker: %w", err)
	}

	maxSize := cfg.SimMaxTradeSize
	if size > maxSize {
		maxSize = size
	}

	sim := trader.New(&trader.Config{
		TradeSize:     size,
		MaxTradeSize:  maxSize,
		ExitSpread:    cfg.SimExitSpread,
		EntryCooldown: cfg.SimEntryCooldown,
		Detector:      detector,
		Breaker:       breaker,
		Ledger:        wallet.NewLedger(balance),
		Books:         books,
		Markets:       marketList(input.Markets),
		Metadata:      fixedMetadata{},
		Storage:       storage.NewConsoleStorage(logger),
		Updates:       books.UpdatesChan(),
		Logger:        logger,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	err = books.Start(ctx)
	if err != nil {
		return fmt.Errorf("start book manager: %w", err)
	}

	err = sim.Start(ctx)
	if err != nil {
		return fmt.Errorf("start trader: %w", err)
	}

	// Replay. Closing the message channel drains the book manager, closing
	// the update channel in turn drains the trader, so the final snapshot
	// reflects every message.
	for _, msg := range input.Messages {
		msgChan <- msg
	}
	close(msgChan)

	_ = books.Close()
	_ = sim.Close()

	printSimulationSummary(sim.Snapshot(), input.Markets)

	return nil
}

func loadSimulationInput(file string) (*simulationInput, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("read capture file: %w", err)
	}

	var input simulationInput
	err = json.Unmarshal(data, &input)
	if err != nil {
		return nil, fmt.Errorf("parse capture file: %w", err)
	}

	if len(input.Markets) == 0 {
		return nil, fmt.Errorf("capture file has no markets")
	}
	if len(input.Messages) == 0 {
		return nil, fmt.Errorf("capture file has no messages")
	}

	return &input, nil
}

func printSimulationSummary(snap trader.Snapshot, replayed []*types.Market) {
	slugByToken := make(map[string]string, len(replayed)*2)
	for _, market := range replayed {
		slugByToken[market.YesTokenID()] = market.Slug
		slugByToken[market.NoTokenID()] = market.Slug
	}

	fmt.Printf("\n=== Simulation Summary ===\n\n")
	fmt.Printf("Signals: %d\n", snap.Signals)
	fmt.Printf("Entries: %d\n", snap.Entries)
	fmt.Printf("Exits: %d\n\n", snap.Exits)

	fmt.Printf("Starting Balance: $%.2f\n", snap.StartingBalance)
	fmt.Printf("Final Cash: $%.2f\n", snap.Cash)
	fmt.Printf("Equity: $%.2f\n", snap.Equity)
	fmt.Printf("Net PnL: $%.2f\n", snap.PnL)
	fmt.Printf("Fees Paid: $%.2f\n", snap.FeesPaid)
	fmt.Printf("Closed Trades: %d (%d wins, %.0f%% win rate)\n",
		snap.Trades, snap.Wins, snap.WinRate*100)

	if len(snap.OpenPositions) == 0 {
		return
	}

	fmt.Printf("\n=== Open Positions ===\n\n")

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "MARKET\tSIDE\tSIZE\tENTRY\tBASIS\n")
	fmt.Fprintf(w, "------\t----\t----\t-----\t-----\n")

	for _, pos := range snap.OpenPositions {
		slug := slugByToken[pos.TokenID]
		if slug == "" {
			slug = pos.TokenID
		}

		fmt.Fprintf(w, "%s\t%s\t%.2f\t%.4f\t$%.2f\n",
			slug, pos.Side, pos.Size, pos.EntryPrice, pos.Size*pos.EntryPrice)
	}

	w.Flush()
}
