package cmd

import (
	"context"
	"fmt"
	"math"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mselser95/polyshark/internal/discovery"
	"github.com/mselser95/polyshark/internal/orderbook"
	"github.com/mselser95/polyshark/pkg/config"
	"github.com/mselser95/polyshark/pkg/types"
	"github.com/mselser95/polyshark/pkg/websocket"
)

//nolint:gochecknoglobals // Cobra boilerplate
var bookCmd = &cobra.Command{
	Use:   "book <market-slug>",
	Short: "Show order books for a market",
	Long: `Fetches the current order books for a market's YES and NO tokens from the
CLOB REST API and prints them with the live price sum, the spread, and a
VWAP preview showing what an order of --size tokens would fill at.

With --watch the command subscribes over WebSocket instead and streams book
updates until interrupted.

Example:
  polyshark book will-bitcoin-hit-100k
  polyshark book will-bitcoin-hit-100k --watch`,
	Args: cobra.ExactArgs(1),
	RunE: runBook,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(bookCmd)
	bookCmd.Flags().BoolP("watch", "w", false, "Stream live updates over WebSocket")
	bookCmd.Flags().BoolP("json", "j", false, "Output raw JSON messages (watch mode)")
	bookCmd.Flags().IntP("depth", "d", 5, "Book levels to print per side")
	bookCmd.Flags().Float64P("size", "s", 100, "Order size in tokens for the VWAP preview")
}

func runBook(cmd *cobra.Command, args []string) error {
	marketSlug := args[0]

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

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

	watch, _ := cmd.Flags().GetBool("watch")
	jsonOutput, _ := cmd.Flags().GetBool("json")
	depth, _ := cmd.Flags().GetInt("depth")
	size, _ := cmd.Flags().GetFloat64("size")

	if size <= 0 {
		return fmt.Errorf("invalid size: %.2f. Must be positive", size)
	}

	client := discovery.NewClient(cfg.GammaAPIURL, logger)
	market, err := client.FetchMarketBySlug(ctx, marketSlug)
	if err != nil {
		return fmt.Errorf("fetch market: %w", err)
	}

	yesToken := market.YesTokenID()
	noToken := market.NoTokenID()

	if yesToken == "" || noToken == "" {
		return fmt.Errorf("market missing yes or no token")
	}

	fmt.Printf("Market: %s\n", market.Question)
	fmt.Printf("Slug: %s\n", market.Slug)
	fmt.Printf("YES Token: %s\n", yesToken)
	fmt.Printf("NO Token: %s\n\n", noToken)

	if watch {
		return watchBooks(ctx, cfg, logger, yesToken, noToken, jsonOutput)
	}

	return printBooks(ctx, cfg, logger, yesToken, noToken, depth, size)
}

// printBooks fetches both books once over REST and prints them with the
// cross-book price sum and a VWAP preview at the requested size.
func printBooks(ctx context.Context, cfg *config.Config, logger *zap.Logger, yesToken, noToken string, depth int, size float64) error {
	client := orderbook.NewClient(cfg.ClobAPIURL, logger)

	yesBook, err := client.FetchBook(ctx, yesToken)
	if err != nil {
		return fmt.Errorf("fetch yes book: %w", err)
	}

	noBook, err := client.FetchBook(ctx, noToken)
	if err != nil {
		return fmt.Errorf("fetch no book: %w", err)
	}

	printBookTable("YES", yesBook, depth)
	printBookTable("NO", noBook, depth)

	fmt.Printf("=== VWAP Preview (%.0f tokens) ===\n", size)
	printVWAPPreview("YES", yesBook, size)
	printVWAPPreview("NO", noBook, size)
	fmt.Println()

	yesMid, yesOK := yesBook.Midpoint()
	noMid, noOK := noBook.Midpoint()

	if !yesOK || !noOK {
		fmt.Println("Price sum unavailable: one book is empty or one-sided")
		return nil
	}

	sum := yesMid + noMid
	fmt.Printf("YES Mid: %.4f\n", yesMid)
	fmt.Printf("NO Mid: %.4f\n", noMid)
	fmt.Printf("Price Sum: %.4f\n", sum)
	fmt.Printf("Spread: %.2f%%\n", math.Abs(sum-1.0)*100)

	return nil
}

// printVWAPPreview walks the book the way the execution engine would and
// prints the fill price for one order of the given size on each side.
func printVWAPPreview(outcome string, book *types.OrderBook, size float64) {
	buy := "insufficient liquidity"
	if vwap, ok := book.ExecutionPrice(size, types.Buy); ok {
		buy = fmt.Sprintf("%.4f (cost $%.2f)", vwap, vwap*size)
	}

	sell := "insufficient liquidity"
	if vwap, ok := book.ExecutionPrice(size, types.Sell); ok {
		sell = fmt.Sprintf("%.4f (proceeds $%.2f)", vwap, vwap*size)
	}

	fmt.Printf("%s: buy %s, sell %s\n", outcome, buy, sell)
}

// printBookTable prints the top levels of one book, best levels first.
func printBookTable(outcome string, book *types.OrderBook, depth int) {
	fmt.Printf("=== %s Book ===\n", outcome)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "BID\tSIZE\t\tASK\tSIZE\n")

	for i := 0; i < depth; i++ {
		bid, ask := "", ""
		bidSize, askSize := "", ""

		if i < len(book.Bids) {
			bid = fmt.Sprintf("%.4f", book.Bids[i].Price)
			bidSize = fmt.Sprintf("%.2f", book.Bids[i].Size)
		}
		if i < len(book.Asks) {
			ask = fmt.Sprintf("%.4f", book.Asks[i].Price)
			askSize = fmt.Sprintf("%.2f", book.Asks[i].Size)
		}

		if bid == "" && ask == "" {
			break
		}

		fmt.Fprintf(w, "%s\t%s\t\t%s\t%s\n", bid, bidSize, ask, askSize)
	}

	w.Flush()
	fmt.Println()
}

// watchBooks streams book updates for both tokens until interrupted.
func watchBooks(ctx context.Context, cfg *config.Config, logger *zap.Logger, yesToken, noToken string, jsonOutput bool) error {
	wsManager := websocket.New(websocket.Config{
		URL:                   cfg.PolymarketWSURL,
		DialTimeout:           cfg.WSDialTimeout,
		PongTimeout:           cfg.WSPongTimeout,
		PingInterval:          cfg.WSPingInterval,
		ReconnectInitialDelay: cfg.WSReconnectInitialDelay,
		ReconnectMaxDelay:     cfg.WSReconnectMaxDelay,
		ReconnectBackoffMult:  cfg.WSReconnectBackoffMult,
		MessageBufferSize:     cfg.WSMessageBufferSize,
		Logger:                logger,
	})

	err := wsManager.Start()
	if err != nil {
		return fmt.Errorf("start websocket: %w", err)
	}
	defer func() {
		_ = wsManager.Close()
	}()

	err = wsManager.Subscribe(ctx, []string{yesToken, noToken})
	if err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}

	fmt.Println("Subscribed! Watching for book updates...")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	msgChan := wsManager.MessageChan()

	for {
		select {
		case <-sigChan:
			fmt.Println("\nShutting down...")
			return nil
		case msg, ok := <-msgChan:
			if !ok {
				return fmt.Errorf("message channel closed")
			}

			if jsonOutput {
				jsonBytes, _ := json.MarshalIndent(msg, "", "  ")
				fmt.Println(string(jsonBytes))
			} else {
				printBookUpdate(w, msg, yesToken, noToken)
			}
		}
	}
}

// printBookUpdate prints one formatted line per book event.
func printBookUpdate(w *tabwriter.Writer, msg *types.BookMessage, yesTokenID string, noTokenID string) {
	outcome := "UNKNOWN"
	if msg.AssetID == yesTokenID {
		outcome = "YES"
	} else if msg.AssetID == noTokenID {
		outcome = "NO"
	}

	timestamp := time.UnixMilli(msg.Timestamp).Format("15:04:05")

	fmt.Fprintf(w, "[%s] %s\t%s\t", timestamp, outcome, msg.EventType)

	switch msg.EventType {
	case types.EventBook:
		bestBid := "N/A"
		bestAsk := "N/A"

		if len(msg.Bids) > 0 {
			bestBid = fmt.Sprintf("%s@%s", msg.Bids[0].Price, msg.Bids[0].Size)
		}
		if len(msg.Asks) > 0 {
			bestAsk = fmt.Sprintf("%s@%s", msg.Asks[0].Price, msg.Asks[0].Size)
		}

		fmt.Fprintf(w, "Bid: %s\tAsk: %s\n", bestBid, bestAsk)
	case types.EventPriceChange:
		for _, change := range msg.Changes {
			fmt.Fprintf(w, "%s %s@%s\t", change.Side, change.Price, change.Size)
		}
		fmt.Fprintf(w, "\n")
	default:
		fmt.Fprintf(w, "\n")
	}

	w.Flush()
}
