package markets

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/mselser95/polyshark/pkg/types"
)

// Defaults applied when the CLOB API does not provide a value.
const (
	DefaultTickSize     = 0.01
	DefaultMinOrderSize = 5.0
)

// TokenMetadata holds per-token trading constraints.
type TokenMetadata struct {
	TickSize     float64
	MinOrderSize float64
	FetchedAt    time.Time
}

// MetadataClient fetches token metadata from the Polymarket CLOB API.
// Transient failures (timeouts, 429s, 5xx) are retried with exponential
// backoff.
type MetadataClient struct {
	baseURL           string
	httpClient        *http.Client
	maxRetries        int
	initialBackoff    time.Duration
	maxBackoff        time.Duration
	backoffMultiplier float64
	logger            *zap.Logger
}

// NewMetadataClient creates a new metadata client.
func NewMetadataClient(baseURL string, logger *zap.Logger) *MetadataClient {
	return &MetadataClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		maxRetries:        3,
		initialBackoff:    250 * time.Millisecond,
		maxBackoff:        5 * time.Second,
		backoffMultiplier: 2.0,
		logger:            logger,
	}
}

// Fetch returns the tick size and minimum order size for a token, falling
// back to defaults for anything the API does not provide. It never fails;
// fetch errors degrade to defaults.
func (c *MetadataClient) Fetch(ctx context.Context, tokenID string) (TokenMetadata, error) {
	timer := prometheus.NewTimer(MetadataFetchDuration)
	defer timer.ObserveDuration()

	tickSize, err := c.FetchTickSize(ctx, tokenID)
	if err != nil || tickSize <= 0 {
		tickSize = DefaultTickSize
	}

	minOrderSize, err := c.FetchMinOrderSize(ctx, tokenID)
	if err != nil || minOrderSize <= 0 {
		minOrderSize = DefaultMinOrderSize
	}

	return TokenMetadata{
		TickSize:     tickSize,
		MinOrderSize: minOrderSize,
		FetchedAt:    time.Now(),
	}, nil
}

// FetchTickSize fetches the minimum tick size for a token.
func (c *MetadataClient) FetchTickSize(ctx context.Context, tokenID string) (float64, error) {
	url := fmt.Sprintf("%s/tick-size?token_id=%s", c.baseURL, tokenID)

	body, err := c.doWithRetry(ctx, url)
	if err != nil {
		MetadataFetchErrorsTotal.Inc()
		return 0, err
	}

	var data types.TickSizeResponse
	err = json.Unmarshal(body, &data)
	if err != nil {
		return 0, fmt.Errorf("unmarshal tick size: %w", err)
	}

	return data.MinimumTickSize, nil
}

// FetchMinOrderSize fetches the minimum order size for a token from the
// book endpoint. Failures degrade to the default rather than erroring; the
// value only floors simulated trade sizes.
func (c *MetadataClient) FetchMinOrderSize(ctx context.Context, tokenID string) (float64, error) {
	url := fmt.Sprintf("%s/book?token_id=%s", c.baseURL, tokenID)

	body, err := c.doWithRetry(ctx, url)
	if err != nil {
		MetadataFetchErrorsTotal.Inc()
		return DefaultMinOrderSize, nil
	}

	var data types.BookResponse
	err = json.Unmarshal(body, &data)
	if err != nil {
		return DefaultMinOrderSize, nil
	}

	if data.MinSize > 0 {
		return data.MinSize, nil
	}

	return DefaultMinOrderSize, nil
}

// doWithRetry issues a GET, retrying transient failures with exponential
// backoff. Returns the response body on success.
func (c *MetadataClient) doWithRetry(ctx context.Context, url string) ([]byte, error) {
	backoff := c.initialBackoff
	var lastErr error

	for attempt := 1; attempt <= c.maxRetries; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}

			backoff = time.Duration(float64(backoff) * c.backoffMultiplier)
			if backoff > c.maxBackoff {
				backoff = c.maxBackoff
			}
		}

		body, retryable, err := c.doOnce(ctx, url)
		if err == nil {
			return body, nil
		}

		lastErr = err
		if !retryable {
			return nil, err
		}

		c.logger.Debug("metadata-fetch-retry",
			zap.String("url", url),
			zap.Int("attempt", attempt),
			zap.Error(err))
	}

	return nil, fmt.Errorf("after %d attempts: %w", c.maxRetries, lastErr)
}

// doOnce performs a single GET. The second return value reports whether the
// failure is worth retrying.
func (c *MetadataClient) doOnce(ctx context.Context, url string) ([]byte, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, false, err
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "polyshark/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		// Timeouts and connection failures are transient
		return nil, true, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, err
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		return body, false, nil
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, true, fmt.Errorf("API error: status %d", resp.StatusCode)
	default:
		return nil, false, fmt.Errorf("API error: status %d", resp.StatusCode)
	}
}
