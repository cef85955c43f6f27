package anchor

import (
	"context"
	"fmt"
	"time"

	"mercator-hq/vesta/pkg/analyzers"
)

// HTTPAnchor submits hashes to a remote timestamping endpoint.
type HTTPAnchor struct {
	name   string
	client *analyzers.Client
}

type anchorResponse struct {
	TransactionID string    `json:"transaction_id"`
	AnchoredAt    time.Time `json:"anchored_at"`
}

// NewHTTPAnchor creates an anchor posting to cfg.Endpoint + "/anchor".
func NewHTTPAnchor(cfg analyzers.ProviderConfig) (*HTTPAnchor, error) {
	if !cfg.Configured() {
		return nil, fmt.Errorf("anchor endpoint is required")
	}
	if cfg.Name == "" {
		cfg.Name = "http"
	}
	return &HTTPAnchor{name: cfg.Name, client: analyzers.NewClient(cfg)}, nil
}

// Name returns the anchor identifier.
func (a *HTTPAnchor) Name() string { return a.name }

// Anchor submits the request and returns the endpoint's receipt.
func (a *HTTPAnchor) Anchor(ctx context.Context, req Request) (*Receipt, error) {
	if !validHash(req.FileHash) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidHash, req.FileHash)
	}

	var resp anchorResponse
	if err := a.client.PostJSON(ctx, "/anchor", req, &resp); err != nil {
		return nil, err
	}
	if resp.TransactionID == "" {
		return nil, &analyzers.ParseError{Provider: a.name, Cause: fmt.Errorf("response missing transaction_id")}
	}
	if resp.AnchoredAt.IsZero() {
		resp.AnchoredAt = time.Now()
	}

	return &Receipt{
		TransactionID: resp.TransactionID,
		Anchor:        a.name,
		ReportID:      req.ReportID,
		FileHash:      req.FileHash,
		AnchoredAt:    resp.AnchoredAt.UTC(),
	}, nil
}
