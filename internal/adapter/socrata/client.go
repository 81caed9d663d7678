// Package socrata fetches the dog-bite dataset from the NYC Open Data
// Socrata export API.
package socrata

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/couchcryptid/dog-bite-report/internal/domain"
)

// Client retrieves raw incident records in a single bounded-retry request.
// The endpoint is rate-limited and occasionally flaky, so transient failures
// are retried with exponential backoff; client errors other than 429 are not.
type Client struct {
	endpoint   string
	limit      int
	maxTries   uint
	httpClient *http.Client
	logger     *slog.Logger

	// OnRetry, when set, is invoked once per retry attempt. Used to feed the
	// fetch-retry counter without coupling this package to the metrics type.
	OnRetry func()
}

// NewClient creates a Socrata export client. The limit must be supplied
// explicitly and set above the table size: the API's default page size is far
// too small to capture the full dataset.
func NewClient(endpoint string, limit int, timeout time.Duration, maxTries uint, logger *slog.Logger) *Client {
	return &Client{
		endpoint: endpoint,
		limit:    limit,
		maxTries: maxTries,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// Fetch issues the export request and returns the full raw record set.
// Record order is whatever the API returns; callers must not rely on it.
// A failure that survives the retry budget is fatal to the run.
func (c *Client) Fetch(ctx context.Context) ([]domain.RawIncident, error) {
	params := url.Values{
		"$limit": {strconv.Itoa(c.limit)},
	}
	fullURL := c.endpoint + "?" + params.Encode()

	expo := backoff.NewExponentialBackOff()
	expo.InitialInterval = 500 * time.Millisecond
	expo.MaxInterval = 10 * time.Second

	records, err := backoff.Retry(ctx, func() ([]domain.RawIncident, error) {
		return c.doRequest(ctx, fullURL)
	},
		backoff.WithBackOff(expo),
		backoff.WithMaxTries(c.maxTries),
		backoff.WithNotify(func(err error, next time.Duration) {
			c.logger.Warn("fetch failed, retrying", "error", err, "next_attempt_in", next)
			if c.OnRetry != nil {
				c.OnRetry()
			}
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("fetch incidents: %w", err)
	}
	return records, nil
}

func (c *Client) doRequest(ctx context.Context, fullURL string) ([]domain.RawIncident, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("socrata request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		apiErr := fmt.Errorf("socrata API error: status %d: %s", resp.StatusCode, body)
		// 4xx responses won't heal on retry, except 429 rate limiting.
		if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return nil, backoff.Permanent(apiErr)
		}
		return nil, apiErr
	}

	var records []domain.RawIncident
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return nil, backoff.Permanent(fmt.Errorf("decode response: %w", err))
	}
	return records, nil
}
