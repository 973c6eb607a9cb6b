package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/mselser95/polyshark/internal/discovery"
	"github.com/mselser95/polyshark/pkg/config"
	"github.com/mselser95/polyshark/pkg/types"
)

//nolint:gochecknoglobals // Cobra boilerplate
var marketsCmd = &cobra.Command{
	Use:   "markets",
	Short: "List active markets from the Gamma API",
	Long: `Fetches active markets from the Polymarket Gamma API, highest 24h volume
first, and shows each market's outcome prices and price-sum spread. Markets
the simulator would skip are marked with the reason.`,
	RunE: runMarkets,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(marketsCmd)
	marketsCmd.Flags().IntP("limit", "l", 20, "Maximum number of markets to fetch")
	marketsCmd.Flags().BoolP("verbose", "v", false, "Show detailed market information")
}

func runMarkets(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
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

	limit, _ := cmd.Flags().GetInt("limit")
	verbose, _ := cmd.Flags().GetBool("verbose")

	client := discovery.NewClient(cfg.GammaAPIURL, logger)

	fmt.Printf("Fetching up to %d active markets from Polymarket...\n\n", limit)

	fetched, err := client.FetchActiveMarkets(ctx, limit)
	if err != nil {
		return fmt.Errorf("fetch markets: %w", err)
	}

	if len(fetched) == 0 {
		fmt.Println("No active markets found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "SLUG\tQUESTION\tSUM\tSPREAD\tLIQUIDITY\tSTATUS\n")
	fmt.Fprintf(w, "----\t--------\t---\t------\t---------\t------\n")

	tradeable := 0

	for i := range fetched {
		market := &fetched[i]

		status, ok := marketStatus(market, cfg.DiscoveryMinLiquidity)
		if ok {
			tradeable++
		}

		question := truncateQuestion(market.Question, 60)

		fmt.Fprintf(w, "%s\t%s\t%.3f\t%.2f%%\t$%.0f\t%s\n",
			market.Slug,
			question,
			market.PriceSum(),
			market.Spread()*100,
			market.Liquidity,
			status)

		if verbose {
			fmt.Fprintf(w, "\tID: %s\n", market.ID)
			fmt.Fprintf(w, "\tYES Token: %s\n", market.YesTokenID())
			fmt.Fprintf(w, "\tNO Token: %s\n", market.NoTokenID())
			fmt.Fprintf(w, "\tVolume 24h: $%.0f, Ends: %s\n", market.Volume24h, market.EndDate)
			fmt.Fprintf(w, "\n")
		}
	}

	w.Flush()

	fmt.Printf("\nTotal: %d markets (%d tradeable by the simulator)\n", len(fetched), tradeable)

	return nil
}

// marketStatus classifies a market the same way the discovery filter does and
// reports whether the simulator would subscribe to it.
func marketStatus(m *types.Market, minLiquidity float64) (string, bool) {
	switch {
	case !m.Tradeable():
		return "not tradeable", false
	case !m.IsBinary():
		return "not binary", false
	case m.YesTokenID() == "" || m.NoTokenID() == "":
		return "missing tokens", false
	case m.Liquidity < minLiquidity:
		return "illiquid", false
	default:
		return "ok", true
	}
}

// truncateQuestion shortens long questions so the table stays readable.
func truncateQuestion(q string, maxLen int) string {
	if len(q) <= maxLen {
		return q
	}
	return q[:maxLen-3] + "..."
}
