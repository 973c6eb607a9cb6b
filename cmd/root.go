package cmd

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var rootCmd = &cobra.Command{
	Use:   "polyshark",
	Short: "Polymarket arbitrage simulator",
	Long: `Polyshark watches Polymarket binary markets for outcome prices that
drift from summing to 1.0 and simulates trading the dislocation against a
paper wallet.

The daemon polls the Gamma API for markets, mirrors their order books over
WebSocket, sizes and gates candidate entries against live liquidity, and
closes positions when the spread converges. No real orders are ever placed.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		// .env is optional and never overrides the real environment.
		_ = godotenv.Load()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
