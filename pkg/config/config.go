package config

import "time"

// Config is the root configuration structure for Vesta.
// It contains all configuration sections for the queue, remote store,
// analyzers, sync orchestration, anchoring, co-signing and telemetry.
type Config struct {
	// Queue contains the local evidence queue configuration.
	Queue QueueConfig `yaml:"queue"`

	// Remote contains the remote report store and connectivity configuration.
	Remote RemoteConfig `yaml:"remote"`

	// Analyzers contains the verification analyzer providers.
	Analyzers AnalyzersConfig `yaml:"analyzers"`

	// Pipeline contains trust scoring configuration.
	Pipeline PipelineConfig `yaml:"pipeline"`

	// Sync contains sync orchestrator configuration.
	Sync SyncConfig `yaml:"sync"`

	// Anchor contains report anchoring configuration.
	Anchor AnchorConfig `yaml:"anchor"`

	// Ledger contains the organizations allowed to co-sign reports.
	Ledger LedgerConfig `yaml:"ledger"`

	// Inbox contains the watched capture directory configuration.
	Inbox InboxConfig `yaml:"inbox"`

	// Server contains the HTTP listener used by "vesta serve".
	Server ServerConfig `yaml:"server"`

	// Telemetry contains logging, metrics, tracing and health configuration.
	Telemetry TelemetryConfig `yaml:"telemetry"`
}

// QueueConfig contains configuration for the on-device evidence queue.
type QueueConfig struct {
	// Backend is the queue backend.
	// Options: "sqlite", "memory"
	// Default: "sqlite"
	Backend string `yaml:"backend"`

	// SQLite contains SQLite-specific configuration.
	SQLite QueueSQLiteConfig `yaml:"sqlite"`

	// OpTimeout bounds every queue read and write.
	// Default: 10s
	OpTimeout time.Duration `yaml:"op_timeout"`
}

// QueueSQLiteConfig contains SQLite configuration for the queue.
type QueueSQLiteConfig struct {
	// Path is the database file path.
	// Default: "data/queue.db"
	Path string `yaml:"path"`

	// BusyTimeout is how long a writer waits on a locked database.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`
}

// RemoteConfig contains configuration for the remote report store.
type RemoteConfig struct {
	// Backend is the report store backend.
	// Options: "sqlite", "memory"
	// Default: "sqlite"
	Backend string `yaml:"backend"`

	// SQLite contains SQLite-specific configuration.
	SQLite RemoteSQLiteConfig `yaml:"sqlite"`

	// Connectivity controls how the orchestrator decides it is online.
	Connectivity ConnectivityConfig `yaml:"connectivity"`
}

// RemoteSQLiteConfig contains SQLite configuration for the report store.
type RemoteSQLiteConfig struct {
	// Path is the database file path.
	// Default: "data/reports.db"
	Path string `yaml:"path"`

	// MaxOpenConns is the maximum number of open connections.
	// Default: 10
	MaxOpenConns int `yaml:"max_open_conns"`

	// MaxIdleConns is the maximum number of idle connections.
	// Default: 5
	MaxIdleConns int `yaml:"max_idle_conns"`

	// WALMode enables Write-Ahead Logging.
	// Default: true
	WALMode bool `yaml:"wal_mode"`

	// BusyTimeout is how long a writer waits on a locked database.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout"`
}

// ConnectivityConfig contains connectivity detection configuration.
type ConnectivityConfig struct {
	// Mode selects the checker.
	// Options: "static", "http"
	// Default: "static"
	Mode string `yaml:"mode"`

	// ProbeURL is probed with a HEAD request in "http" mode.
	ProbeURL string `yaml:"probe_url"`

	// Timeout bounds each probe.
	// Default: 3s
	Timeout time.Duration `yaml:"timeout"`

	// Offline forces the static checker to report offline.
	// Default: false
	Offline bool `yaml:"offline"`
}

// AnalyzersConfig contains configuration for the verification analyzers.
// An analyzer without an endpoint runs its local implementation.
type AnalyzersConfig struct {
	// Timeout bounds each analyzer call in the pipeline.
	// Default: 10s
	Timeout time.Duration `yaml:"timeout"`

	// Manipulation configures the deepfake detector.
	Manipulation ProviderConfig `yaml:"manipulation"`

	// Transcription configures the speech-to-text provider.
	Transcription ProviderConfig `yaml:"transcription"`

	// Content configures the content analysis provider.
	Content ProviderConfig `yaml:"content"`
}

// ProviderConfig contains configuration for a remote analyzer provider.
type ProviderConfig struct {
	// Name identifies the provider in reports and logs.
	Name string `yaml:"name"`

	// Endpoint is the provider base URL. Empty selects the local analyzer.
	Endpoint string `yaml:"endpoint"`

	// APIKey is the bearer token sent to the provider.
	// Can be loaded from environment variable.
	APIKey string `yaml:"api_key"`

	// Timeout is the per-request timeout.
	// Default: 10s
	Timeout time.Duration `yaml:"timeout"`

	// MaxRetries is the number of retries on transient failures.
	// Default: 2
	MaxRetries int `yaml:"max_retries"`
}

// Configured reports whether the provider has a remote endpoint.
func (p ProviderConfig) Configured() bool {
	return p.Endpoint != ""
}

// PipelineConfig contains trust scoring configuration.
type PipelineConfig struct {
	// Weights are the integer percentage weights of the trust score
	// components. They must sum to 100.
	Weights WeightsConfig `yaml:"weights"`
}

// WeightsConfig holds the trust score weights.
type WeightsConfig struct {
	// Default: 40
	Deepfake int `yaml:"deepfake"`

	// Default: 40
	Credibility int `yaml:"credibility"`

	// Default: 20
	Metadata int `yaml:"metadata"`
}

// SyncConfig contains sync orchestrator configuration.
type SyncConfig struct {
	// MaxRetries parks an item after this many failed attempts.
	// Default: 5
	MaxRetries int `yaml:"max_retries"`

	// BackoffBase is the retry delay after the first failure.
	// Default: 30s
	BackoffBase time.Duration `yaml:"backoff_base"`

	// BackoffMax caps the retry delay.
	// Default: 30m
	BackoffMax time.Duration `yaml:"backoff_max"`

	// UpsertTimeout bounds each remote write including retries.
	// Default: 10s
	UpsertTimeout time.Duration `yaml:"upsert_timeout"`

	// Schedule is the cron expression used by "vesta serve" to start syncs.
	// Default: "@every 5m"
	Schedule string `yaml:"schedule"`

	// MemoMIMEType is the audio type of recorded voice memos.
	// Default: "audio/mp4"
	MemoMIMEType string `yaml:"memo_mime_type"`
}

// AnchorConfig contains report anchoring configuration.
type AnchorConfig struct {
	// Mode selects the anchor backend.
	// Options: "none", "journal", "http"
	// Default: "journal"
	Mode string `yaml:"mode"`

	// JournalPath is the receipt journal file used in "journal" mode.
	// Default: "data/anchors.jsonl"
	JournalPath string `yaml:"journal_path"`

	// Endpoint is the anchoring service URL used in "http" mode.
	Endpoint string `yaml:"endpoint"`

	// APIKey is the bearer token for the anchoring service.
	APIKey string `yaml:"api_key"`

	// Timeout bounds each anchor call.
	// Default: 10s
	Timeout time.Duration `yaml:"timeout"`
}

// LedgerConfig contains co-signature ledger configuration.
type LedgerConfig struct {
	// Organizations lists the verifying organizations.
	Organizations []OrganizationConfig `yaml:"organizations"`
}

// OrganizationConfig describes a verifying organization.
type OrganizationConfig struct {
	ID                string `yaml:"id"`
	Name              string `yaml:"name"`
	VerifierName      string `yaml:"verifier_name"`
	VerifierRole      string `yaml:"verifier_role"`
	CredibilityRating int    `yaml:"credibility_rating"`
}

// InboxConfig contains configuration for the watched capture directory.
type InboxConfig struct {
	// Enabled starts the inbox watcher in "vesta serve".
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Path is the watched directory.
	// Default: "inbox"
	Path string `yaml:"path"`

	// Debounce is the quiet period after the last write before a file is
	// captured.
	// Default: 500ms
	Debounce time.Duration `yaml:"debounce"`

	// ProcessedDir receives captured files. Empty uses "processed" inside Path.
	// Default: "inbox/processed"
	ProcessedDir string `yaml:"processed_dir"`
}

// ServerConfig contains the HTTP listener configuration.
type ServerConfig struct {
	// ListenAddress is the address for metrics and health endpoints.
	// Default: "127.0.0.1:9090"
	ListenAddress string `yaml:"listen_address"`

	// ReadTimeout is the maximum duration for reading a request.
	// Default: 10s
	ReadTimeout time.Duration `yaml:"read_timeout"`

	// WriteTimeout is the maximum duration for writing a response.
	// Default: 10s
	WriteTimeout time.Duration `yaml:"write_timeout"`

	// APIKeys guard POST /sync. With no keys the endpoint is open, which is
	// only reasonable on a loopback listener.
	APIKeys []APIKeyConfig `yaml:"api_keys"`
}

// APIKeyConfig is one operator key accepted by the node's HTTP endpoints.
type APIKeyConfig struct {
	// Name identifies the operator in logs.
	Name string `yaml:"name"`

	// Key is the secret presented as "Authorization: Bearer <key>" or in
	// the X-API-Key header.
	Key string `yaml:"key"`

	// Disabled rejects the key without removing it.
	Disabled bool `yaml:"disabled"`
}

// TelemetryConfig contains observability configuration.
type TelemetryConfig struct {
	// Logging contains logging configuration.
	Logging LoggingConfig `yaml:"logging"`

	// Metrics contains metrics collection configuration.
	Metrics MetricsConfig `yaml:"metrics"`

	// Tracing contains distributed tracing configuration.
	Tracing TracingConfig `yaml:"tracing"`

	// Health contains health check configuration.
	Health HealthConfig `yaml:"health"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	// Level is the minimum log level to emit.
	// Options: "debug", "info", "warn", "error"
	// Default: "info"
	Level string `yaml:"level"`

	// Format controls the log output format.
	// Options: "json", "text", "console"
	// Default: "text"
	Format string `yaml:"format"`

	// AddSource includes file and line number in log entries.
	// Default: false
	AddSource bool `yaml:"add_source"`

	// RedactPII enables redaction of API keys, emails and coordinates.
	// Default: true
	RedactPII bool `yaml:"redact_pii"`

	// RedactPatterns contains custom redaction patterns.
	RedactPatterns []RedactPattern `yaml:"redact_patterns"`
}

// RedactPattern defines a custom redaction pattern.
type RedactPattern struct {
	// Name is a descriptive name for the pattern.
	Name string `yaml:"name"`

	// Pattern is the regular expression to match.
	Pattern string `yaml:"pattern"`

	// Replacement is the string to replace matches with.
	Replacement string `yaml:"replacement"`
}

// MetricsConfig contains metrics collection configuration.
type MetricsConfig struct {
	// Enabled controls whether metrics collection is active.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// Path is the HTTP path for the Prometheus metrics endpoint.
	// Default: "/metrics"
	Path string `yaml:"path"`

	// Namespace is the metric name prefix.
	// Default: "vesta"
	Namespace string `yaml:"namespace"`

	// AnalyzerDurationBuckets defines histogram buckets for analyzer calls (seconds).
	// Default: [0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10]
	AnalyzerDurationBuckets []float64 `yaml:"analyzer_duration_buckets"`

	// SyncDurationBuckets defines histogram buckets for item and batch syncs (seconds).
	// Default: [0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 300]
	SyncDurationBuckets []float64 `yaml:"sync_duration_buckets"`
}

// TracingConfig contains distributed tracing configuration.
type TracingConfig struct {
	// Enabled controls whether distributed tracing is active.
	// Default: false
	Enabled bool `yaml:"enabled"`

	// Sampler determines the sampling strategy.
	// Options: "always", "never", "ratio"
	// Default: "ratio"
	Sampler string `yaml:"sampler"`

	// SampleRatio is the fraction of traces to sample (0.0 to 1.0).
	// Only used when Sampler is "ratio".
	// Default: 0.1
	SampleRatio float64 `yaml:"sample_ratio"`

	// Endpoint is the OTLP gRPC collector endpoint.
	// Example: "localhost:4317"
	Endpoint string `yaml:"endpoint"`

	// ServiceName is the service name in traces.
	// Default: "vesta"
	ServiceName string `yaml:"service_name"`

	// OTLP contains OTLP exporter specific configuration.
	OTLP OTLPConfig `yaml:"otlp"`
}

// OTLPConfig contains OTLP exporter configuration.
type OTLPConfig struct {
	// Insecure disables TLS for the OTLP connection.
	// Default: false
	Insecure bool `yaml:"insecure"`

	// Timeout is the timeout for OTLP exports.
	// Default: 10s
	Timeout time.Duration `yaml:"timeout"`
}

// HealthConfig contains health check endpoint configuration.
type HealthConfig struct {
	// Enabled controls whether health check endpoints are served.
	// Default: true
	Enabled bool `yaml:"enabled"`

	// LivenessPath is the path for the liveness probe endpoint.
	// Default: "/health"
	LivenessPath string `yaml:"liveness_path"`

	// ReadinessPath is the path for the readiness probe endpoint.
	// Default: "/ready"
	ReadinessPath string `yaml:"readiness_path"`

	// VersionPath is the path for the version information endpoint.
	// Default: "/version"
	VersionPath string `yaml:"version_path"`

	// CheckTimeout is the timeout for individual component health checks.
	// Default: 5s
	CheckTimeout time.Duration `yaml:"check_timeout"`
}
