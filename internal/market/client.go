package market

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var (
	// ErrTimeout marks a single attempt that exceeded its per-attempt
	// deadline. Timeouts are retried; cancellation is not.
	ErrTimeout = errors.New("market request timed out")

	// ErrExhaustedRetries marks a fetch whose final attempt failed. It
	// wraps the last attempt's error.
	ErrExhaustedRetries = errors.New("market retries exhausted")
)

// APIError represents a non-success HTTP status from the market endpoint.
// All statuses are treated as retryable: the source rate-limits with both
// 429 and transient 5xx, and a histogram fetch is idempotent.
type APIError struct {
	StatusCode int
	Body       []byte
}

func (e *APIError) Error() string {
	return fmt.Sprintf("market api error %d: %s", e.StatusCode, http.StatusText(e.StatusCode))
}

// Client fetches order-book histograms from the Steam Community Market.
type Client struct {
	baseURL    string
	currency   int
	httpClient *http.Client
	logger     zerolog.Logger

	maxAttempts    int
	attemptTimeout time.Duration
	backoffUnit    time.Duration
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// NewClient creates a histogram client. Defaults: 3 attempts, 120s per
// attempt, linear backoff of attempt × 1s between attempts.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:        baseURL,
		currency:       1, // USD
		httpClient:     &http.Client{},
		logger:         log.With().Str("component", "market_client").Logger(),
		maxAttempts:    3,
		attemptTimeout: 120 * time.Second,
		backoffUnit:    time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithAttemptTimeout sets the per-attempt timeout.
func WithAttemptTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.attemptTimeout = d
	}
}

// WithRetries sets the attempt count and the backoff unit.
func WithRetries(attempts int, backoffUnit time.Duration) ClientOption {
	return func(c *Client) {
		c.maxAttempts = attempts
		c.backoffUnit = backoffUnit
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithCurrency sets the currency code passed to the endpoint.
func WithCurrency(code int) ClientOption {
	return func(c *Client) {
		c.currency = code
	}
}

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// FetchHistogram retrieves the raw histogram payload for one item listing.
// Up to maxAttempts attempts are made; each is bounded by the per-attempt
// timeout linked to ctx. Failed attempts back off linearly. Cancellation of
// ctx aborts immediately and is never retried. After the final attempt the
// call fails with ErrExhaustedRetries wrapping the last error.
func (c *Client) FetchHistogram(ctx context.Context, itemNameID string) ([]byte, error) {
	var lastErr error

	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if attempt > 1 {
			backoff := time.Duration(attempt-1) * c.backoffUnit
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		body, err := c.fetchOnce(ctx, itemNameID)
		if err == nil {
			return body, nil
		}
		if ctx.Err() != nil {
			// The caller's signal fired, not the attempt deadline.
			return nil, ctx.Err()
		}

		lastErr = err
		c.logger.Warn().
			Err(err).
			Str("item_name_id", itemNameID).
			Int("attempt", attempt).
			Msg("histogram fetch attempt failed")
	}

	return nil, fmt.Errorf("%w after %d attempts: %w", ErrExhaustedRetries, c.maxAttempts, lastErr)
}

func (c *Client) fetchOnce(ctx context.Context, itemNameID string) ([]byte, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.attemptTimeout)
	defer cancel()

	query := url.Values{
		"country":     {"US"},
		"language":    {"english"},
		"currency":    {fmt.Sprint(c.currency)},
		"item_nameid": {itemNameID},
		"two_factor":  {"0"},
		"norender":    {"1"},
	}
	fullURL := c.baseURL + "/market/itemordershistogram?" + query.Encode()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if attemptCtx.Err() == context.DeadlineExceeded && ctx.Err() == nil {
			return nil, fmt.Errorf("%w: %v", ErrTimeout, err)
		}
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: body}
	}

	return body, nil
}
