// Package connectivity reports whether the device can reach the remote store.
package connectivity

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// Checker reports current connectivity.
type Checker interface {
	Online(ctx context.Context) bool
}

// Static is a fixed connectivity state.
type Static bool

// Online returns the fixed state.
func (s Static) Online(context.Context) bool { return bool(s) }

// Func adapts a function to a Checker.
type Func func(ctx context.Context) bool

// Online calls f.
func (f Func) Online(ctx context.Context) bool { return f(ctx) }

// DefaultProbeTimeout bounds a single probe.
const DefaultProbeTimeout = 3 * time.Second

// HTTPProbe checks connectivity with a HEAD request. Any response below 500
// counts as online.
type HTTPProbe struct {
	url     string
	timeout time.Duration
	client  *http.Client
	logger  *slog.Logger
}

// NewHTTPProbe creates a probe for url.
func NewHTTPProbe(url string, timeout time.Duration) *HTTPProbe {
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}
	return &HTTPProbe{
		url:     url,
		timeout: timeout,
		client:  &http.Client{Timeout: timeout},
		logger:  slog.Default().With("component", "connectivity"),
	}
}

// Online probes the configured URL.
func (p *HTTPProbe) Online(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, p.url, nil)
	if err != nil {
		p.logger.Error("invalid probe request", "url", p.url, "error", err)
		return false
	}

	resp, err := p.client.Do(req)
	if err != nil {
		p.logger.Debug("probe failed", "url", p.url, "error", err)
		return false
	}
	resp.Body.Close()

	return resp.StatusCode < http.StatusInternalServerError
}
