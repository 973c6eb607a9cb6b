package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/mselser95/polyshark/internal/arbitrage"
	"github.com/mselser95/polyshark/internal/discovery"
	"github.com/mselser95/polyshark/internal/execution"
	"github.com/mselser95/polyshark/pkg/config"
	"github.com/mselser95/polyshark/pkg/types"
)

//nolint:gochecknoglobals // Cobra boilerplate
var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Scan markets once for price-sum dislocations",
	Long: `Fetches active binary markets from the Gamma API and runs one detection
pass over their snapshot prices. Markets whose outcome prices deviate from
summing to 1.0 by more than the threshold are printed with the side a
simulated trade would take.

Estimated net profit uses the configured trade size and each market's taker
fee, with no slippage since no order books are consulted.`,
	RunE: runScan,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(scanCmd)
	scanCmd.Flags().IntP("limit", "l", 100, "Maximum number of markets to fetch")
	scanCmd.Flags().Float64P("threshold", "t", 0.02, "Price-sum deviation required to flag a market")
}

func runScan(cmd *cobra.Command, args []string) error {
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
	threshold, _ := cmd.Flags().GetFloat64("threshold")

	if threshold <= 0 || threshold >= 1 {
		return fmt.Errorf("invalid threshold: %.4f. Must be between 0 and 1", threshold)
	}

	client := discovery.NewClient(cfg.GammaAPIURL, logger)

	fmt.Printf("Scanning up to %d active markets (threshold %.2f%%)...\n\n", limit, threshold*100)

	fetched, err := client.FetchActiveMarkets(ctx, limit)
	if err != nil {
		return fmt.Errorf("fetch markets: %w", err)
	}

	// The checker assumes well-formed binary markets; filter the way the
	// discovery service does.
	candidates := make([]*types.Market, 0, len(fetched))
	byID := make(map[string]*types.Market, len(fetched))

	for i := range fetched {
		market := &fetched[i]
		if !market.Tradeable() || !market.IsBinary() {
			continue
		}
		if market.YesTokenID() == "" || market.NoTokenID() == "" {
			continue
		}

		candidates = append(candidates, market)
		byID[market.ID] = market
	}

	detector := arbitrage.New(arbitrage.Config{
		MinSpread: threshold,
		MinProfit: cfg.ArbMinProfit,
		FeeLegs:   cfg.ArbFeeLegs,
		Logger:    logger,
	})

	signals := detector.Scan(candidates)

	if len(signals) == 0 {
		fmt.Printf("No dislocations found above threshold (%d candidates of %d fetched).\n",
			len(candidates), len(fetched))
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "SLUG\tSIDE\tYES\tNO\tSUM\tSPREAD\tEST NET\n")
	fmt.Fprintf(w, "----\t----\t---\t--\t---\t------\t-------\n")

	for _, signal := range signals {
		market := byID[signal.MarketID]

		estNet := 0.0
		if market != nil {
			feeModel := execution.FeeModelForMarket(market)
			estNet = detector.ExpectedProfit(signal, cfg.SimTradeSize, feeModel.TakerRate(), 0)
		}

		fmt.Fprintf(w, "%s\t%s\t%.3f\t%.3f\t%.3f\t%.2f%%\t$%.2f\n",
			signal.Slug,
			signal.RecommendedSide,
			signal.YesPrice,
			signal.NoPrice,
			signal.YesPrice+signal.NoPrice,
			signal.Spread*100,
			estNet)
	}

	w.Flush()

	fmt.Printf("\nTotal: %d signals across %d candidate markets (%d fetched)\n",
		len(signals), len(candidates), len(fetched))

	return nil
}
