package analyzers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"

	"mercator-hq/vesta/pkg/telemetry/tracing"
)

// maxResponseBytes bounds how much of a provider response is read.
const maxResponseBytes = 10 << 20

// ProviderConfig configures the remote provider behind one analyzer.
// An empty Endpoint leaves the analyzer unconfigured.
type ProviderConfig struct {
	// Name identifies the provider in logs and reports.
	Name string

	// Endpoint is the provider base URL.
	Endpoint string

	// APIKey is sent as a bearer token when set.
	APIKey string

	// Timeout bounds each HTTP attempt.
	// Default: 10 seconds
	Timeout time.Duration

	// MaxRetries is the number of retries after the first attempt for
	// transient failures (network errors, 5xx, 429).
	// Default: 2
	MaxRetries int
}

// Configured reports whether a real provider is available.
func (c ProviderConfig) Configured() bool {
	return strings.TrimSpace(c.Endpoint) != ""
}

// Client is a JSON-over-HTTP client shared by configured analyzers.
type Client struct {
	config ProviderConfig
	http   *http.Client
	logger *slog.Logger
}

// NewClient creates a provider client with connection pooling.
func NewClient(config ProviderConfig) *Client {
	if config.Timeout == 0 {
		config.Timeout = 10 * time.Second
	}
	if config.MaxRetries < 0 {
		config.MaxRetries = 0
	}

	transport := &http.Transport{
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     90 * time.Second,
		ForceAttemptHTTP2:   true,
	}

	return &Client{
		config: config,
		http: &http.Client{
			Transport: transport,
			Timeout:   config.Timeout,
		},
		logger: slog.Default().With("component", "analyzers.client", "provider", config.Name),
	}
}

// PostJSON sends in as JSON to path and decodes the response into out.
// Transient failures are retried with exponential backoff while ctx allows.
func (c *Client) PostJSON(ctx context.Context, path string, in, out interface{}) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	url := strings.TrimRight(c.config.Endpoint, "/") + "/" + strings.TrimLeft(path, "/")

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 250 * time.Millisecond
	policy.MaxInterval = 2 * time.Second

	attempt := 0
	_, err = backoff.Retry(ctx, func() (struct{}, error) {
		attempt++
		return struct{}{}, c.do(ctx, url, body, out, attempt)
	},
		backoff.WithBackOff(policy),
		backoff.WithMaxTries(uint(c.config.MaxRetries+1)),
	)
	return err
}

// do performs one attempt. Non-retryable failures are wrapped with
// backoff.Permanent.
func (c *Client) do(ctx context.Context, url string, body []byte, out interface{}, attempt int) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	tracing.Inject(ctx, req.Header)
	if c.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}

	c.logger.Debug("sending request to provider", "url", url, "attempt", attempt)

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil || errors.Is(err, context.DeadlineExceeded) {
			return backoff.Permanent(&TimeoutError{Provider: c.config.Name, Timeout: c.config.Timeout})
		}
		c.logger.Warn("request failed, will retry", "attempt", attempt, "error", err)
		return &ProviderError{Provider: c.config.Name, Message: "request failed", Cause: err}
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return &ParseError{Provider: c.config.Name, Cause: fmt.Errorf("failed to read response: %w", err)}
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		if out == nil || len(payload) == 0 {
			return nil
		}
		if err := json.Unmarshal(payload, out); err != nil {
			return backoff.Permanent(&ParseError{
				Provider:    c.config.Name,
				RawResponse: string(payload),
				Cause:       fmt.Errorf("failed to unmarshal response: %w", err),
			})
		}
		return nil

	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return backoff.Permanent(&AuthError{Provider: c.config.Name, Message: string(payload)})

	case resp.StatusCode == http.StatusTooManyRequests:
		return &RateLimitError{
			Provider:   c.config.Name,
			RetryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
			Message:    string(payload),
		}

	case resp.StatusCode >= 500:
		c.logger.Warn("request returned error status, will retry", "status", resp.StatusCode, "attempt", attempt)
		return &ProviderError{Provider: c.config.Name, StatusCode: resp.StatusCode, Message: string(payload)}

	default:
		return backoff.Permanent(&ProviderError{Provider: c.config.Name, StatusCode: resp.StatusCode, Message: string(payload)})
	}
}

// parseRetryAfter parses a Retry-After header given in seconds.
func parseRetryAfter(value string) time.Duration {
	if value == "" {
		return 0
	}
	seconds, err := strconv.Atoi(value)
	if err != nil || seconds < 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}
