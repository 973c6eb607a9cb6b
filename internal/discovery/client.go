package discovery

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/mselser95/polyshark/pkg/types"
)

// MaxBatchSize is the maximum number of markets the Gamma API returns per
// request.
const MaxBatchSize = 100

// Client is an HTTP client for the Polymarket Gamma API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient creates a new Gamma API client.
func NewClient(baseURL string, logger *zap.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		logger: logger,
	}
}

// FetchMarkets fetches a single page of active markets ordered by 24h
// volume, highest first.
func (c *Client) FetchMarkets(ctx context.Context, limit, offset int) ([]types.Market, error) {
	endpoint := fmt.Sprintf("%s/markets", c.baseURL)

	params := url.Values{}
	params.Add("closed", "false")
	params.Add("active", "true")
	params.Add("limit", strconv.Itoa(limit))
	params.Add("offset", strconv.Itoa(offset))
	params.Add("order", "volume24hr")
	params.Add("ascending", "false")

	requestURL := fmt.Sprintf("%s?%s", endpoint, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "polyshark/1.0")

	c.logger.Debug("fetching-markets",
		zap.String("url", requestURL),
		zap.Int("limit", limit),
		zap.Int("offset", offset))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("unexpected status code %d: %s", resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}

	// The Gamma API returns a bare JSON array, not a wrapped object.
	var markets []types.Market
	err = json.Unmarshal(body, &markets)
	if err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	return markets, nil
}

// FetchActiveMarkets fetches up to limit active markets, paginating in
// batches of MaxBatchSize. A limit of 0 fetches everything available.
func (c *Client) FetchActiveMarkets(ctx context.Context, limit int) ([]types.Market, error) {
	var (
		all          []types.Market
		totalFetched int
		fetchAll     = limit == 0
	)

	for page := 0; ; page++ {
		pageLimit := MaxBatchSize
		if !fetchAll {
			remaining := limit - totalFetched
			if remaining <= 0 {
				break
			}
			if remaining < pageLimit {
				pageLimit = remaining
			}
		}

		markets, err := c.FetchMarkets(ctx, pageLimit, page*MaxBatchSize)
		if err != nil {
			return nil, fmt.Errorf("fetch page %d: %w", page, err)
		}

		all = append(all, markets...)
		totalFetched += len(markets)

		// A short page means the API ran out of markets.
		if len(markets) < pageLimit {
			break
		}
	}

	c.logger.Debug("fetched-markets", zap.Int("count", len(all)))

	return all, nil
}

// FetchMarketBySlug fetches a single market by its slug. The Gamma API only
// supports lookup by numeric ID, so this pages through the active list
// until the slug matches.
func (c *Client) FetchMarketBySlug(ctx context.Context, slug string) (*types.Market, error) {
	const maxPages = 10

	for page := 0; page < maxPages; page++ {
		markets, err := c.FetchMarkets(ctx, MaxBatchSize, page*MaxBatchSize)
		if err != nil {
			return nil, fmt.Errorf("fetch markets: %w", err)
		}

		for i := range markets {
			if markets[i].Slug == slug {
				return &markets[i], nil
			}
		}

		if len(markets) < MaxBatchSize {
			break
		}
	}

	return nil, fmt.Errorf("market not found: %s", slug)
}
