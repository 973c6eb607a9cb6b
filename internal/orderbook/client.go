package orderbook

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"time"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/mselser95/polyshark/pkg/types"
)

// Client is an HTTP client for the CLOB REST book endpoints.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a new CLOB book client.
func NewClient(baseURL string, logger *zap.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger,
	}
}

// FetchBook fetches the full order book for a token.
func (c *Client) FetchBook(ctx context.Context, tokenID string) (*types.OrderBook, error) {
	resp, err := c.FetchBookResponse(ctx, tokenID)
	if err != nil {
		return nil, err
	}

	book, err := ParseBook(resp)
	if err != nil {
		FetchErrorsTotal.Inc()
		return nil, fmt.Errorf("parse book for token %s: %w", tokenID, err)
	}

	c.logger.Debug("fetched-book",
		zap.String("token-id", tokenID),
		zap.Int("bid-levels", len(book.Bids)),
		zap.Int("ask-levels", len(book.Asks)))

	return book, nil
}

// FetchBookResponse fetches the raw CLOB book payload for a token. Callers
// that only need min_size can use this without paying for level parsing.
func (c *Client) FetchBookResponse(ctx context.Context, tokenID string) (*types.BookResponse, error) {
	endpoint := fmt.Sprintf("%s/book", c.baseURL)

	params := url.Values{}
	params.Add("token_id", tokenID)

	requestURL := fmt.Sprintf("%s?%s", endpoint, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "polyshark/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		FetchErrorsTotal.Inc()
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		FetchErrorsTotal.Inc()
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	var bookResp types.BookResponse
	err = json.Unmarshal(body, &bookResp)
	if err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	return &bookResp, nil
}

// ParseBook converts a raw CLOB book payload into an OrderBook. The REST API
// serves levels worst-first, so both sides are re-sorted best-first here.
func ParseBook(resp *types.BookResponse) (*types.OrderBook, error) {
	book := &types.OrderBook{
		TokenID:   resp.AssetID,
		Timestamp: time.Now(),
	}

	for _, raw := range resp.Bids {
		level, err := raw.Level()
		if err != nil {
			return nil, fmt.Errorf("parse bid level: %w", err)
		}
		book.Bids = append(book.Bids, level)
	}

	for _, raw := range resp.Asks {
		level, err := raw.Level()
		if err != nil {
			return nil, fmt.Errorf("parse ask level: %w", err)
		}
		book.Asks = append(book.Asks, level)
	}

	sortBook(book)

	return book, nil
}

// sortBook orders both sides best-first: bids by descending price, asks by
// ascending price.
func sortBook(book *types.OrderBook) {
	sort.Slice(book.Bids, func(i, j int) bool {
		return book.Bids[i].Price > book.Bids[j].Price
	})
	sort.Slice(book.Asks, func(i, j int) bool {
		return book.Asks[i].Price < book.Asks[j].Price
	})
}
