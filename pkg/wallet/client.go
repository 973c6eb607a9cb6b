package wallet

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"go.uber.org/zap"
)

const (
	polygonUSDC  = "0x2791Bca1f2de4661ED88A30C99A7a9449Aa84174"
	usdcDecimals = 1e6
)

// ChainClient reads on-chain balances from a Polygon RPC endpoint. The
// simulation uses it to seed the paper ledger from a real wallet and to
// report funding alongside simulated equity.
type ChainClient struct {
	rpcURL string
	logger *zap.Logger
}

// ChainBalances holds on-chain token balances.
type ChainBalances struct {
	MATIC *big.Int // in wei
	USDC  *big.Int // in 6-decimal units
}

// NewChainClient creates a new on-chain balance reader.
func NewChainClient(rpcURL string, logger *zap.Logger) (c *ChainClient, err error) {
	if rpcURL == "" {
		return nil, errors.New("rpcURL cannot be empty")
	}

	if logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	client := &ChainClient{
		rpcURL: rpcURL,
		logger: logger,
	}

	return client, nil
}

// Balances fetches MATIC and USDC balances for an address.
func (c *ChainClient) Balances(ctx context.Context, address common.Address) (balances *ChainBalances, err error) {
	client, err := ethclient.DialContext(ctx, c.rpcURL)
	if err != nil {
		return nil, fmt.Errorf("dial RPC: %w", err)
	}
	defer client.Close()

	maticBalance, err := client.BalanceAt(ctx, address, nil)
	if err != nil {
		return nil, fmt.Errorf("get MATIC balance: %w", err)
	}

	usdcBalance, err := c.getERC20Balance(ctx, client, address, polygonUSDC)
	if err != nil {
		return nil, fmt.Errorf("get USDC balance: %w", err)
	}

	balances = &ChainBalances{
		MATIC: maticBalance,
		USDC:  usdcBalance,
	}

	return balances, nil
}

// getERC20Balance fetches ERC20 token balance for an address.
func (c *ChainClient) getERC20Balance(
	ctx context.Context,
	client *ethclient.Client,
	owner common.Address,
	tokenAddr string,
) (balance *big.Int, err error) {
	balanceOfABI := `[{"constant":true,"inputs":[{"name":"owner","type":"address"}],"name":"balanceOf","outputs":[{"name":"","type":"uint256"}],"type":"function"}]`

	parsedABI, err := abi.JSON(strings.NewReader(balanceOfABI))
	if err != nil {
		return nil, fmt.Errorf("parse ABI: %w", err)
	}

	data, err := parsedABI.Pack("balanceOf", owner)
	if err != nil {
		return nil, fmt.Errorf("pack ABI: %w", err)
	}

	tokenAddress := common.HexToAddress(tokenAddr)
	msg := ethereum.CallMsg{
		To:   &tokenAddress,
		Data: data,
	}

	result, err := client.CallContract(ctx, msg, nil)
	if err != nil {
		return nil, fmt.Errorf("call contract: %w", err)
	}

	balance = new(big.Int).SetBytes(result)
	return balance, nil
}

// USDCFloat converts a 6-decimal USDC amount into dollars.
func USDCFloat(amount *big.Int) float64 {
	if amount == nil {
		return 0
	}

	value, _ := new(big.Float).Quo(new(big.Float).SetInt(amount), big.NewFloat(usdcDecimals)).Float64()
	return value
}
