package syncer

import (
	"fmt"
	"time"
)

// Config contains configuration for the sync orchestrator.
type Config struct {
	// MaxRetries parks an item once its retry count reaches this value.
	// Parked items are reported as skipped.
	// Default: 5
	MaxRetries int

	// BackoffBase is the delay after the first failure. Each further failure
	// doubles it.
	// Default: 30 seconds
	BackoffBase time.Duration

	// BackoffMax caps the retry delay.
	// Default: 30 minutes
	BackoffMax time.Duration

	// OpTimeout bounds each queue call.
	// Default: 10 seconds
	OpTimeout time.Duration

	// UpsertTimeout bounds the remote write including its retries.
	// Default: 10 seconds
	UpsertTimeout time.Duration

	// AnchorTimeout bounds the anchor call.
	// Default: 10 seconds
	AnchorTimeout time.Duration

	// MemoMIMEType is the audio type passed to the transcriber for voice memos.
	// Default: "audio/mp4"
	MemoMIMEType string
}

// DefaultConfig returns the default orchestrator configuration.
func DefaultConfig() *Config {
	return &Config{
		MaxRetries:    5,
		BackoffBase:   30 * time.Second,
		BackoffMax:    30 * time.Minute,
		OpTimeout:     10 * time.Second,
		UpsertTimeout: 10 * time.Second,
		AnchorTimeout: 10 * time.Second,
		MemoMIMEType:  "audio/mp4",
	}
}

// applyDefaults fills unset fields.
func (c *Config) applyDefaults() {
	d := DefaultConfig()
	if c.MaxRetries == 0 {
		c.MaxRetries = d.MaxRetries
	}
	if c.BackoffBase == 0 {
		c.BackoffBase = d.BackoffBase
	}
	if c.BackoffMax == 0 {
		c.BackoffMax = d.BackoffMax
	}
	if c.OpTimeout == 0 {
		c.OpTimeout = d.OpTimeout
	}
	if c.UpsertTimeout == 0 {
		c.UpsertTimeout = d.UpsertTimeout
	}
	if c.AnchorTimeout == 0 {
		c.AnchorTimeout = d.AnchorTimeout
	}
	if c.MemoMIMEType == "" {
		c.MemoMIMEType = d.MemoMIMEType
	}
}

// validate checks the configuration after defaults are applied.
func (c *Config) validate() error {
	if c.MaxRetries < 0 {
		return fmt.Errorf("max_retries must be non-negative, got %d", c.MaxRetries)
	}
	if c.BackoffBase < 0 || c.BackoffMax < c.BackoffBase {
		return fmt.Errorf("backoff must satisfy 0 <= base <= max, got %s/%s", c.BackoffBase, c.BackoffMax)
	}
	return nil
}

// RetryDelay returns the wait before the next attempt of an item that has
// failed retryCount times: min(base * 2^(retryCount-1), max).
func (c *Config) RetryDelay(retryCount int) time.Duration {
	if retryCount < 1 {
		return 0
	}
	delay := c.BackoffBase
	for i := 1; i < retryCount; i++ {
		if delay >= c.BackoffMax/2 {
			return c.BackoffMax
		}
		delay *= 2
	}
	if delay > c.BackoffMax {
		return c.BackoffMax
	}
	return delay
}
