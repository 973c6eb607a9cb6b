package cmd

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"github.com/mselser95/polyshark/pkg/config"
	"github.com/mselser95/polyshark/pkg/wallet"
)

//nolint:gochecknoglobals // Cobra boilerplate
var balanceCmd = &cobra.Command{
	Use:   "balance",
	Short: "Check on-chain wallet funding",
	Long: `Displays the wallet's on-chain holdings on Polygon:
- MATIC balance (for gas)
- USDC balance (what SIM_SEED_FROM_CHAIN would fund the paper ledger with)

The wallet is read-only: the simulator never signs or sends transactions.`,
	RunE: runWalletBalance,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(balanceCmd)
	balanceCmd.Flags().StringP("rpc", "r", "", "Polygon RPC endpoint (defaults to POLYGON_RPC_URL)")
	balanceCmd.Flags().StringP("address", "a", "", "Wallet address (defaults to WALLET_ADDRESS)")
}

func runWalletBalance(cmd *cobra.Command, args []string) error {
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

	rpcURL, _ := cmd.Flags().GetString("rpc")
	if rpcURL == "" {
		rpcURL = cfg.PolygonRPCURL
	}

	address, _ := cmd.Flags().GetString("address")
	if address == "" {
		address = cfg.WalletAddress
	}
	if address == "" {
		return fmt.Errorf("no wallet address: set WALLET_ADDRESS or pass --address")
	}

	client, err := wallet.NewChainClient(rpcURL, logger)
	if err != nil {
		return fmt.Errorf("create chain client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	fmt.Printf("=== Wallet Balance Sheet ===\n\n")
	fmt.Printf("Address: %s\n", address)
	fmt.Printf("RPC: %s\n\n", rpcURL)

	balances, err := client.Balances(ctx, common.HexToAddress(address))
	if err != nil {
		return fmt.Errorf("fetch balances: %w", err)
	}

	maticFloat := new(big.Float).Quo(new(big.Float).SetInt(balances.MATIC), big.NewFloat(1e18))
	fmt.Printf("MATIC Balance: %s MATIC\n", maticFloat.Text('f', 6))

	usdc := wallet.USDCFloat(balances.USDC)
	fmt.Printf("USDC Balance: %.2f USDC\n", usdc)

	fmt.Printf("\n=== Summary ===\n")
	if usdc > 0 {
		fmt.Printf("SIM_SEED_FROM_CHAIN=true would fund the paper ledger with $%.2f\n", usdc)
	} else {
		fmt.Printf("No USDC: chain seeding would fall back to SIM_STARTING_BALANCE\n")
	}

	return nil
}
