package config

import (
	"strings"
	"testing"
	"time"
)

// fieldErrors validates cfg and returns the failing field paths.
func fieldErrors(t *testing.T, cfg *Config) []string {
	t.Helper()
	err := Validate(cfg)
	if err == nil {
		return nil
	}
	validationErr, ok := err.(ValidationError)
	if !ok {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	fields := make([]string, 0, len(validationErr.Errors))
	for _, fe := range validationErr.Errors {
		fields = append(fields, fe.Field)
	}
	return fields
}

func contains(fields []string, want string) bool {
	for _, f := range fields {
		if f == want {
			return true
		}
	}
	return false
}

func TestValidate_ValidConfig(t *testing.T) {
	if err := Validate(Default()); err != nil {
		t.Errorf("expected default config to pass validation, got error: %v", err)
	}
}

func TestValidate_MultipleErrors(t *testing.T) {
	err := Validate(&Config{})
	if err == nil {
		t.Fatal("expected validation to fail")
	}

	validationErr, ok := err.(ValidationError)
	if !ok {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	if len(validationErr.Errors) < 2 {
		t.Errorf("expected multiple errors, got %d", len(validationErr.Errors))
	}
	if !strings.Contains(validationErr.Error(), "validation failed with") {
		t.Errorf("error message should mention multiple errors: %s", validationErr.Error())
	}
}

func TestValidate_Fields(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Config)
		wantField string
	}{
		{
			name:      "unknown queue backend",
			mutate:    func(c *Config) { c.Queue.Backend = "redis" },
			wantField: "queue.backend",
		},
		{
			name:      "sqlite queue without path",
			mutate:    func(c *Config) { c.Queue.SQLite.Path = "" },
			wantField: "queue.sqlite.path",
		},
		{
			name:      "idle conns above open conns",
			mutate:    func(c *Config) { c.Remote.SQLite.MaxIdleConns = 20 },
			wantField: "remote.sqlite.max_idle_conns",
		},
		{
			name:      "http connectivity without probe",
			mutate:    func(c *Config) { c.Remote.Connectivity.Mode = "http" },
			wantField: "remote.connectivity.probe_url",
		},
		{
			name:      "bad provider endpoint scheme",
			mutate:    func(c *Config) { c.Analyzers.Transcription.Endpoint = "ftp://asr.example.org" },
			wantField: "analyzers.transcription.endpoint",
		},
		{
			name:      "excessive provider retries",
			mutate:    func(c *Config) { c.Analyzers.Content.MaxRetries = 11 },
			wantField: "analyzers.content.max_retries",
		},
		{
			name:      "negative weight",
			mutate:    func(c *Config) { c.Pipeline.Weights = WeightsConfig{Deepfake: -10, Credibility: 90, Metadata: 20} },
			wantField: "pipeline.weights",
		},
		{
			name:      "backoff max below base",
			mutate:    func(c *Config) { c.Sync.BackoffMax = time.Second },
			wantField: "sync.backoff_max",
		},
		{
			name:      "bad cron schedule",
			mutate:    func(c *Config) { c.Sync.Schedule = "every now and then" },
			wantField: "sync.schedule",
		},
		{
			name:      "http anchor without endpoint",
			mutate:    func(c *Config) { c.Anchor.Mode = "http" },
			wantField: "anchor.endpoint",
		},
		{
			name:      "unknown anchor mode",
			mutate:    func(c *Config) { c.Anchor.Mode = "chain" },
			wantField: "anchor.mode",
		},
		{
			name: "organization rating out of range",
			mutate: func(c *Config) {
				c.Ledger.Organizations = []OrganizationConfig{{ID: "org-1", Name: "One", CredibilityRating: 6}}
			},
			wantField: "ledger.organizations[0].credibility_rating",
		},
		{
			name: "duplicate organization",
			mutate: func(c *Config) {
				c.Ledger.Organizations = []OrganizationConfig{
					{ID: "org-1", Name: "One", CredibilityRating: 3},
					{ID: "org-1", Name: "Again", CredibilityRating: 3},
				}
			},
			wantField: "ledger.organizations[1].id",
		},
		{
			name: "enabled inbox without path",
			mutate: func(c *Config) {
				c.Inbox.Enabled = true
				c.Inbox.Path = ""
			},
			wantField: "inbox.path",
		},
		{
			name:      "empty listen address",
			mutate:    func(c *Config) { c.Server.ListenAddress = "" },
			wantField: "server.listen_address",
		},
		{
			name:      "invalid log level",
			mutate:    func(c *Config) { c.Telemetry.Logging.Level = "verbose" },
			wantField: "telemetry.logging.level",
		},
		{
			name:      "tracing without endpoint",
			mutate:    func(c *Config) { c.Telemetry.Tracing.Enabled = true },
			wantField: "telemetry.tracing.endpoint",
		},
		{
			name: "tracing ratio out of range",
			mutate: func(c *Config) {
				c.Telemetry.Tracing.Enabled = true
				c.Telemetry.Tracing.Endpoint = "localhost:4317"
				c.Telemetry.Tracing.SampleRatio = 1.5
			},
			wantField: "telemetry.tracing.sample_ratio",
		},
		{
			name:      "relative health path",
			mutate:    func(c *Config) { c.Telemetry.Health.ReadinessPath = "ready" },
			wantField: "telemetry.health.readiness_path",
		},
		{
			name: "short api key",
			mutate: func(c *Config) {
				c.Server.APIKeys = []APIKeyConfig{{Name: "ops", Key: "short"}}
			},
			wantField: "server.api_keys[0].key",
		},
		{
			name: "duplicate api key name",
			mutate: func(c *Config) {
				c.Server.APIKeys = []APIKeyConfig{
					{Name: "ops", Key: "0123456789abcdef"},
					{Name: "ops", Key: "fedcba9876543210"},
				}
			},
			wantField: "server.api_keys[1].name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			fields := fieldErrors(t, cfg)
			if !contains(fields, tt.wantField) {
				t.Errorf("expected error on %s, got %v", tt.wantField, fields)
			}
		})
	}
}

func TestValidate_MemoryBackendsNeedNoPath(t *testing.T) {
	cfg := Default()
	cfg.Queue.Backend = "memory"
	cfg.Queue.SQLite.Path = ""
	cfg.Remote.Backend = "memory"
	cfg.Remote.SQLite.Path = ""

	if err := Validate(cfg); err != nil {
		t.Errorf("memory backends should validate without paths: %v", err)
	}
}

func TestValidationError_Error(t *testing.T) {
	single := ValidationError{Errors: []FieldError{{Field: "queue.backend", Message: "bad"}}}
	if got := single.Error(); got != "configuration validation failed: queue.backend: bad" {
		t.Errorf("unexpected single error message %q", got)
	}

	empty := ValidationError{}
	if got := empty.Error(); got != "configuration validation failed" {
		t.Errorf("unexpected empty error message %q", got)
	}
}
