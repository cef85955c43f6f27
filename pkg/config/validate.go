package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/robfig/cron/v3"
)

// FieldError represents a validation error for a specific configuration field.
type FieldError struct {
	// Field is the dotted path to the configuration field (e.g., "queue.sqlite.path").
	Field string

	// Message is a human-readable error message.
	Message string
}

// Error returns the error message for this field error.
func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError represents one or more validation errors in a configuration.
// It implements the error interface and provides access to all field errors.
type ValidationError struct {
	// Errors contains all validation errors found in the configuration.
	Errors []FieldError
}

// Error returns a formatted string containing all validation errors.
func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("configuration validation failed with %d errors:\n", len(e.Errors)))
	for _, err := range e.Errors {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// Validate validates the entire configuration and returns a ValidationError
// if any validation rules fail. It returns nil if the configuration is valid.
// All validation errors are collected and returned together.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateQueue(&cfg.Queue)...)
	errs = append(errs, validateRemote(&cfg.Remote)...)
	errs = append(errs, validateAnalyzers(&cfg.Analyzers)...)
	errs = append(errs, validatePipeline(&cfg.Pipeline)...)
	errs = append(errs, validateSync(&cfg.Sync)...)
	errs = append(errs, validateAnchor(&cfg.Anchor)...)
	errs = append(errs, validateLedger(&cfg.Ledger)...)
	errs = append(errs, validateInbox(&cfg.Inbox)...)
	errs = append(errs, validateServer(&cfg.Server)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}

	return nil
}

func validateQueue(cfg *QueueConfig) []FieldError {
	var errs []FieldError

	switch cfg.Backend {
	case "sqlite":
		if cfg.SQLite.Path == "" {
			errs = append(errs, FieldError{
				Field:   "queue.sqlite.path",
				Message: "path is required for sqlite backend",
			})
		}
	case "memory":
	default:
		errs = append(errs, FieldError{
			Field:   "queue.backend",
			Message: fmt.Sprintf("invalid backend %q (must be sqlite or memory)", cfg.Backend),
		})
	}

	if cfg.OpTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "queue.op_timeout",
			Message: "timeout must be positive",
		})
	}

	return errs
}

func validateRemote(cfg *RemoteConfig) []FieldError {
	var errs []FieldError

	switch cfg.Backend {
	case "sqlite":
		if cfg.SQLite.Path == "" {
			errs = append(errs, FieldError{
				Field:   "remote.sqlite.path",
				Message: "path is required for sqlite backend",
			})
		}
		if cfg.SQLite.MaxOpenConns < 1 {
			errs = append(errs, FieldError{
				Field:   "remote.sqlite.max_open_conns",
				Message: "must be at least 1",
			})
		}
		if cfg.SQLite.MaxIdleConns < 0 || cfg.SQLite.MaxIdleConns > cfg.SQLite.MaxOpenConns {
			errs = append(errs, FieldError{
				Field:   "remote.sqlite.max_idle_conns",
				Message: "must be between 0 and max_open_conns",
			})
		}
	case "memory":
	default:
		errs = append(errs, FieldError{
			Field:   "remote.backend",
			Message: fmt.Sprintf("invalid backend %q (must be sqlite or memory)", cfg.Backend),
		})
	}

	switch cfg.Connectivity.Mode {
	case "static":
	case "http":
		errs = append(errs, validateURL("remote.connectivity.probe_url", cfg.Connectivity.ProbeURL, true)...)
	default:
		errs = append(errs, FieldError{
			Field:   "remote.connectivity.mode",
			Message: fmt.Sprintf("invalid mode %q (must be static or http)", cfg.Connectivity.Mode),
		})
	}
	if cfg.Connectivity.Timeout < 0 {
		errs = append(errs, FieldError{
			Field:   "remote.connectivity.timeout",
			Message: "timeout must be positive",
		})
	}

	return errs
}

func validateAnalyzers(cfg *AnalyzersConfig) []FieldError {
	var errs []FieldError

	if cfg.Timeout < 0 {
		errs = append(errs, FieldError{
			Field:   "analyzers.timeout",
			Message: "timeout must be positive",
		})
	}

	providers := []struct {
		name string
		cfg  ProviderConfig
	}{
		{"manipulation", cfg.Manipulation},
		{"transcription", cfg.Transcription},
		{"content", cfg.Content},
	}
	for _, p := range providers {
		prefix := "analyzers." + p.name
		errs = append(errs, validateURL(prefix+".endpoint", p.cfg.Endpoint, false)...)
		if p.cfg.Timeout < 0 {
			errs = append(errs, FieldError{
				Field:   prefix + ".timeout",
				Message: "timeout must be positive",
			})
		}
		if p.cfg.MaxRetries < 0 {
			errs = append(errs, FieldError{
				Field:   prefix + ".max_retries",
				Message: "max retries must be non-negative",
			})
		}
		if p.cfg.MaxRetries > 10 {
			errs = append(errs, FieldError{
				Field:   prefix + ".max_retries",
				Message: "max retries exceeds reasonable limit (10)",
			})
		}
	}

	return errs
}

func validatePipeline(cfg *PipelineConfig) []FieldError {
	var errs []FieldError

	w := cfg.Weights
	if w.Deepfake < 0 || w.Credibility < 0 || w.Metadata < 0 {
		errs = append(errs, FieldError{
			Field:   "pipeline.weights",
			Message: "weights must be non-negative",
		})
	}
	if sum := w.Deepfake + w.Credibility + w.Metadata; sum != 100 {
		errs = append(errs, FieldError{
			Field:   "pipeline.weights",
			Message: fmt.Sprintf("weights must sum to 100, got %d", sum),
		})
	}

	return errs
}

func validateSync(cfg *SyncConfig) []FieldError {
	var errs []FieldError

	if cfg.MaxRetries < 0 {
		errs = append(errs, FieldError{
			Field:   "sync.max_retries",
			Message: "max retries must be non-negative",
		})
	}
	if cfg.BackoffBase < 0 {
		errs = append(errs, FieldError{
			Field:   "sync.backoff_base",
			Message: "backoff base must be non-negative",
		})
	}
	if cfg.BackoffMax < cfg.BackoffBase {
		errs = append(errs, FieldError{
			Field:   "sync.backoff_max",
			Message: "backoff max must not be less than backoff base",
		})
	}
	if cfg.UpsertTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "sync.upsert_timeout",
			Message: "timeout must be positive",
		})
	}
	if _, err := cron.ParseStandard(cfg.Schedule); err != nil {
		errs = append(errs, FieldError{
			Field:   "sync.schedule",
			Message: fmt.Sprintf("invalid cron expression: %v", err),
		})
	}

	return errs
}

func validateAnchor(cfg *AnchorConfig) []FieldError {
	var errs []FieldError

	switch cfg.Mode {
	case "none":
	case "journal":
		if cfg.JournalPath == "" {
			errs = append(errs, FieldError{
				Field:   "anchor.journal_path",
				Message: "journal path is required in journal mode",
			})
		}
	case "http":
		errs = append(errs, validateURL("anchor.endpoint", cfg.Endpoint, true)...)
	default:
		errs = append(errs, FieldError{
			Field:   "anchor.mode",
			Message: fmt.Sprintf("invalid mode %q (must be none, journal, or http)", cfg.Mode),
		})
	}
	if cfg.Timeout < 0 {
		errs = append(errs, FieldError{
			Field:   "anchor.timeout",
			Message: "timeout must be positive",
		})
	}

	return errs
}

func validateLedger(cfg *LedgerConfig) []FieldError {
	var errs []FieldError

	seen := make(map[string]bool, len(cfg.Organizations))
	for i, org := range cfg.Organizations {
		prefix := fmt.Sprintf("ledger.organizations[%d]", i)
		if org.ID == "" {
			errs = append(errs, FieldError{
				Field:   prefix + ".id",
				Message: "id is required",
			})
		} else if seen[org.ID] {
			errs = append(errs, FieldError{
				Field:   prefix + ".id",
				Message: fmt.Sprintf("duplicate organization %q", org.ID),
			})
		}
		seen[org.ID] = true

		if org.Name == "" {
			errs = append(errs, FieldError{
				Field:   prefix + ".name",
				Message: "name is required",
			})
		}
		if org.CredibilityRating < 1 || org.CredibilityRating > 5 {
			errs = append(errs, FieldError{
				Field:   prefix + ".credibility_rating",
				Message: fmt.Sprintf("rating must be between 1 and 5, got %d", org.CredibilityRating),
			})
		}
	}

	return errs
}

func validateInbox(cfg *InboxConfig) []FieldError {
	var errs []FieldError

	if !cfg.Enabled {
		return errs
	}
	if cfg.Path == "" {
		errs = append(errs, FieldError{
			Field:   "inbox.path",
			Message: "path is required when the inbox is enabled",
		})
	}
	if cfg.Debounce < 0 {
		errs = append(errs, FieldError{
			Field:   "inbox.debounce",
			Message: "debounce must be non-negative",
		})
	}

	return errs
}

func validateServer(cfg *ServerConfig) []FieldError {
	var errs []FieldError

	if cfg.ListenAddress == "" {
		errs = append(errs, FieldError{
			Field:   "server.listen_address",
			Message: "listen address is required",
		})
	}
	if cfg.ReadTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "server.read_timeout",
			Message: "read timeout must be positive",
		})
	}
	if cfg.WriteTimeout < 0 {
		errs = append(errs, FieldError{
			Field:   "server.write_timeout",
			Message: "write timeout must be positive",
		})
	}

	names := make(map[string]bool, len(cfg.APIKeys))
	for i, k := range cfg.APIKeys {
		prefix := fmt.Sprintf("server.api_keys[%d]", i)
		if k.Name == "" {
			errs = append(errs, FieldError{
				Field:   prefix + ".name",
				Message: "name is required",
			})
		} else if names[k.Name] {
			errs = append(errs, FieldError{
				Field:   prefix + ".name",
				Message: fmt.Sprintf("duplicate api key name %q", k.Name),
			})
		}
		names[k.Name] = true

		if len(k.Key) < MinAPIKeyLength {
			errs = append(errs, FieldError{
				Field:   prefix + ".key",
				Message: fmt.Sprintf("key must be at least %d characters", MinAPIKeyLength),
			})
		}
	}

	return errs
}

func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(cfg.Logging.Level)] {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: fmt.Sprintf("invalid level %q (must be debug, info, warn, or error)", cfg.Logging.Level),
		})
	}

	validFormats := map[string]bool{"json": true, "text": true, "console": true}
	if !validFormats[strings.ToLower(cfg.Logging.Format)] {
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: fmt.Sprintf("invalid format %q (must be json, text, or console)", cfg.Logging.Format),
		})
	}

	for i, p := range cfg.Logging.RedactPatterns {
		if p.Pattern == "" {
			errs = append(errs, FieldError{
				Field:   fmt.Sprintf("telemetry.logging.redact_patterns[%d].pattern", i),
				Message: "pattern is required",
			})
		}
	}

	if cfg.Metrics.Enabled && !strings.HasPrefix(cfg.Metrics.Path, "/") {
		errs = append(errs, FieldError{
			Field:   "telemetry.metrics.path",
			Message: "path must start with /",
		})
	}

	if cfg.Tracing.Enabled {
		validSamplers := map[string]bool{"always": true, "never": true, "ratio": true}
		if !validSamplers[cfg.Tracing.Sampler] {
			errs = append(errs, FieldError{
				Field:   "telemetry.tracing.sampler",
				Message: fmt.Sprintf("invalid sampler %q (must be always, never, or ratio)", cfg.Tracing.Sampler),
			})
		}
		if cfg.Tracing.SampleRatio < 0 || cfg.Tracing.SampleRatio > 1 {
			errs = append(errs, FieldError{
				Field:   "telemetry.tracing.sample_ratio",
				Message: "sample ratio must be between 0.0 and 1.0",
			})
		}
		if cfg.Tracing.Endpoint == "" {
			errs = append(errs, FieldError{
				Field:   "telemetry.tracing.endpoint",
				Message: "endpoint is required when tracing is enabled",
			})
		}
	}

	if cfg.Health.Enabled {
		for field, path := range map[string]string{
			"telemetry.health.liveness_path":  cfg.Health.LivenessPath,
			"telemetry.health.readiness_path": cfg.Health.ReadinessPath,
			"telemetry.health.version_path":   cfg.Health.VersionPath,
		} {
			if !strings.HasPrefix(path, "/") {
				errs = append(errs, FieldError{
					Field:   field,
					Message: "path must start with /",
				})
			}
		}
	}

	return errs
}

// validateURL checks that raw is an absolute http(s) URL. An empty value is
// an error only when required is set.
func validateURL(field, raw string, required bool) []FieldError {
	if raw == "" {
		if required {
			return []FieldError{{Field: field, Message: "URL is required"}}
		}
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return []FieldError{{Field: field, Message: fmt.Sprintf("invalid URL format: %v", err)}}
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return []FieldError{{Field: field, Message: "URL scheme must be http or https"}}
	}
	if u.Host == "" {
		return []FieldError{{Field: field, Message: "URL host is required"}}
	}
	return nil
}
