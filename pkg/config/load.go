package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvPrefix is the prefix of every environment variable override.
const EnvPrefix = "VESTA_"

// LoadConfig loads configuration from a YAML file at the specified path.
// Keys missing from the file keep their default values. An empty path
// returns the defaults. The result is validated before it is returned.
// Environment variables are not consulted; use LoadConfigWithEnvOverrides
// for that.
func LoadConfig(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read configuration file %q: %w", path, err)
		}

		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("failed to parse configuration file %q: %w", path, err)
		}
	}

	ApplyDefaults(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// LoadConfigWithEnvOverrides loads configuration from a YAML file and applies
// environment variable overrides. Environment variables follow the naming
// convention VESTA_SECTION_FIELD (e.g., VESTA_QUEUE_SQLITE_PATH).
// Environment variables always take precedence over file-based configuration.
//
// The loading sequence is:
// 1. Start from defaults
// 2. Decode YAML from file
// 3. Apply environment variable overrides
// 4. Validate final configuration
func LoadConfigWithEnvOverrides(path string) (*Config, error) {
	cfg, err := LoadConfig(path)
	if err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed after environment overrides: %w", err)
	}

	return cfg, nil
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Values that fail to parse are ignored.
func applyEnvOverrides(cfg *Config) {
	// Queue overrides
	envString("QUEUE_BACKEND", &cfg.Queue.Backend)
	envString("QUEUE_SQLITE_PATH", &cfg.Queue.SQLite.Path)
	envDuration("QUEUE_OP_TIMEOUT", &cfg.Queue.OpTimeout)

	// Remote overrides
	envString("REMOTE_BACKEND", &cfg.Remote.Backend)
	envString("REMOTE_SQLITE_PATH", &cfg.Remote.SQLite.Path)
	envString("REMOTE_CONNECTIVITY_MODE", &cfg.Remote.Connectivity.Mode)
	envString("REMOTE_CONNECTIVITY_PROBE_URL", &cfg.Remote.Connectivity.ProbeURL)
	envBool("REMOTE_CONNECTIVITY_OFFLINE", &cfg.Remote.Connectivity.Offline)

	// Analyzer overrides
	envDuration("ANALYZERS_TIMEOUT", &cfg.Analyzers.Timeout)
	applyProviderEnvOverrides("MANIPULATION", &cfg.Analyzers.Manipulation)
	applyProviderEnvOverrides("TRANSCRIPTION", &cfg.Analyzers.Transcription)
	applyProviderEnvOverrides("CONTENT", &cfg.Analyzers.Content)

	// Sync overrides
	envInt("SYNC_MAX_RETRIES", &cfg.Sync.MaxRetries)
	envDuration("SYNC_BACKOFF_BASE", &cfg.Sync.BackoffBase)
	envDuration("SYNC_BACKOFF_MAX", &cfg.Sync.BackoffMax)
	envString("SYNC_SCHEDULE", &cfg.Sync.Schedule)

	// Anchor overrides
	envString("ANCHOR_MODE", &cfg.Anchor.Mode)
	envString("ANCHOR_JOURNAL_PATH", &cfg.Anchor.JournalPath)
	envString("ANCHOR_ENDPOINT", &cfg.Anchor.Endpoint)
	envString("ANCHOR_API_KEY", &cfg.Anchor.APIKey)

	// Inbox overrides
	envBool("INBOX_ENABLED", &cfg.Inbox.Enabled)
	envString("INBOX_PATH", &cfg.Inbox.Path)

	// Server overrides
	envString("SERVER_LISTEN_ADDRESS", &cfg.Server.ListenAddress)
	if key := os.Getenv(EnvPrefix + "SERVER_API_KEY"); key != "" {
		cfg.Server.APIKeys = append(cfg.Server.APIKeys, APIKeyConfig{Name: "env", Key: key})
	}

	// Telemetry overrides
	envString("TELEMETRY_LOGGING_LEVEL", &cfg.Telemetry.Logging.Level)
	envString("TELEMETRY_LOGGING_FORMAT", &cfg.Telemetry.Logging.Format)
	envBool("TELEMETRY_METRICS_ENABLED", &cfg.Telemetry.Metrics.Enabled)
	envString("TELEMETRY_METRICS_PATH", &cfg.Telemetry.Metrics.Path)
	envBool("TELEMETRY_TRACING_ENABLED", &cfg.Telemetry.Tracing.Enabled)
	envString("TELEMETRY_TRACING_ENDPOINT", &cfg.Telemetry.Tracing.Endpoint)
	envFloat("TELEMETRY_TRACING_SAMPLE_RATIO", &cfg.Telemetry.Tracing.SampleRatio)
}

// applyProviderEnvOverrides applies VESTA_ANALYZERS_<KIND>_* overrides.
func applyProviderEnvOverrides(kind string, p *ProviderConfig) {
	prefix := "ANALYZERS_" + kind + "_"
	envString(prefix+"NAME", &p.Name)
	envString(prefix+"ENDPOINT", &p.Endpoint)
	envString(prefix+"API_KEY", &p.APIKey)
	envDuration(prefix+"TIMEOUT", &p.Timeout)
	envInt(prefix+"MAX_RETRIES", &p.MaxRetries)
}

func envString(key string, dst *string) {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		*dst = val
	}
}

func envInt(key string, dst *int) {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			*dst = i
		}
	}
}

func envBool(key string, dst *bool) {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			*dst = b
		}
	}
}

func envFloat(key string, dst *float64) {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			*dst = f
		}
	}
}

func envDuration(key string, dst *time.Duration) {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			*dst = d
		}
	}
}
