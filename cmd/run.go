package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mselser95/polyshark/internal/app"
	"github.com/mselser95/polyshark/pkg/config"
)

//nolint:gochecknoglobals // Cobra boilerplate
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the arbitrage simulator",
	Long: `Starts the Polymarket arbitrage simulator, which will:
1. Discover binary markets from the Gamma API
2. Mirror their order books via WebSocket
3. Detect price-sum dislocations and simulate entries against a paper wallet
4. Close positions when the spread converges back to balance

State is exposed over HTTP: /health, /ready, /metrics and /api/wallet.`,
	RunE: runSimulator,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(runCmd)
}

func runSimulator(cmd *cobra.Command, args []string) error {
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

	application, err := app.New(cfg, logger)
	if err != nil {
		return fmt.Errorf("create app: %w", err)
	}

	err = application.Run()
	if err != nil {
		return fmt.Errorf("run app: %w", err)
	}

	return nil
}
