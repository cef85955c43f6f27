package config

import "time"

// Default configuration values.
const (
	// Queue defaults
	DefaultQueueBackend     = "sqlite"
	DefaultQueueSQLitePath  = "data/queue.db"
	DefaultQueueBusyTimeout = 5 * time.Second
	DefaultQueueOpTimeout   = 10 * time.Second

	// Remote store defaults
	DefaultRemoteBackend      = "sqlite"
	DefaultRemoteSQLitePath   = "data/reports.db"
	DefaultRemoteMaxOpenConns = 10
	DefaultRemoteMaxIdleConns = 5
	DefaultRemoteWALMode      = true
	DefaultRemoteBusyTimeout  = 5 * time.Second

	// Connectivity defaults
	DefaultConnectivityMode    = "static"
	DefaultConnectivityTimeout = 3 * time.Second

	// Analyzer defaults
	DefaultAnalyzerTimeout    = 10 * time.Second
	DefaultProviderTimeout    = 10 * time.Second
	DefaultProviderMaxRetries = 2

	// Trust score weights
	DefaultDeepfakeWeight    = 40
	DefaultCredibilityWeight = 40
	DefaultMetadataWeight    = 20

	// Sync defaults
	DefaultSyncMaxRetries    = 5
	DefaultSyncBackoffBase   = 30 * time.Second
	DefaultSyncBackoffMax    = 30 * time.Minute
	DefaultSyncUpsertTimeout = 10 * time.Second
	DefaultSyncSchedule      = "@every 5m"
	DefaultMemoMIMEType      = "audio/mp4"

	// Anchor defaults
	DefaultAnchorMode        = "journal"
	DefaultAnchorJournalPath = "data/anchors.jsonl"
	DefaultAnchorTimeout     = 10 * time.Second

	// Inbox defaults
	DefaultInboxPath         = "inbox"
	DefaultInboxDebounce     = 500 * time.Millisecond
	DefaultInboxProcessedDir = "inbox/processed"

	// Server defaults
	DefaultListenAddress = "127.0.0.1:9090"
	DefaultReadTimeout   = 10 * time.Second
	DefaultWriteTimeout  = 10 * time.Second
	MinAPIKeyLength      = 16

	// Telemetry defaults
	DefaultLogLevel            = "info"
	DefaultLogFormat           = "text"
	DefaultRedactPII           = true
	DefaultMetricsEnabled      = true
	DefaultMetricsPath         = "/metrics"
	DefaultMetricsNamespace    = "vesta"
	DefaultTracingSampler      = "ratio"
	DefaultTracingSampleRatio  = 0.1
	DefaultTracingServiceName  = "vesta"
	DefaultOTLPTimeout         = 10 * time.Second
	DefaultHealthEnabled       = true
	DefaultHealthLivenessPath  = "/health"
	DefaultHealthReadinessPath = "/ready"
	DefaultHealthVersionPath   = "/version"
	DefaultHealthCheckTimeout  = 5 * time.Second
)

// Default histogram buckets.
var (
	DefaultAnalyzerDurationBuckets = []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}
	DefaultSyncDurationBuckets     = []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 300}
)

// Default returns a configuration with every default applied, including the
// boolean defaults that ApplyDefaults cannot distinguish from an explicit
// false. LoadConfig decodes YAML on top of it so that keys absent from the
// file keep their defaults.
func Default() *Config {
	cfg := &Config{}
	cfg.Remote.SQLite.WALMode = DefaultRemoteWALMode
	cfg.Telemetry.Logging.RedactPII = DefaultRedactPII
	cfg.Telemetry.Metrics.Enabled = DefaultMetricsEnabled
	cfg.Telemetry.Health.Enabled = DefaultHealthEnabled
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills in default values for any unset configuration fields.
// Boolean fields are left untouched; use Default for a fully populated
// configuration.
func ApplyDefaults(cfg *Config) {
	applyQueueDefaults(&cfg.Queue)
	applyRemoteDefaults(&cfg.Remote)
	applyAnalyzerDefaults(&cfg.Analyzers)
	applyPipelineDefaults(&cfg.Pipeline)
	applySyncDefaults(&cfg.Sync)
	applyAnchorDefaults(&cfg.Anchor)
	applyInboxDefaults(&cfg.Inbox)
	applyServerDefaults(&cfg.Server)
	applyTelemetryDefaults(&cfg.Telemetry)
}

func applyQueueDefaults(cfg *QueueConfig) {
	if cfg.Backend == "" {
		cfg.Backend = DefaultQueueBackend
	}
	if cfg.SQLite.Path == "" {
		cfg.SQLite.Path = DefaultQueueSQLitePath
	}
	if cfg.SQLite.BusyTimeout == 0 {
		cfg.SQLite.BusyTimeout = DefaultQueueBusyTimeout
	}
	if cfg.OpTimeout == 0 {
		cfg.OpTimeout = DefaultQueueOpTimeout
	}
}

func applyRemoteDefaults(cfg *RemoteConfig) {
	if cfg.Backend == "" {
		cfg.Backend = DefaultRemoteBackend
	}
	if cfg.SQLite.Path == "" {
		cfg.SQLite.Path = DefaultRemoteSQLitePath
	}
	if cfg.SQLite.MaxOpenConns == 0 {
		cfg.SQLite.MaxOpenConns = DefaultRemoteMaxOpenConns
	}
	if cfg.SQLite.MaxIdleConns == 0 {
		cfg.SQLite.MaxIdleConns = DefaultRemoteMaxIdleConns
	}
	if cfg.SQLite.BusyTimeout == 0 {
		cfg.SQLite.BusyTimeout = DefaultRemoteBusyTimeout
	}
	if cfg.Connectivity.Mode == "" {
		cfg.Connectivity.Mode = DefaultConnectivityMode
	}
	if cfg.Connectivity.Timeout == 0 {
		cfg.Connectivity.Timeout = DefaultConnectivityTimeout
	}
}

func applyAnalyzerDefaults(cfg *AnalyzersConfig) {
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultAnalyzerTimeout
	}
	for _, p := range []*ProviderConfig{&cfg.Manipulation, &cfg.Transcription, &cfg.Content} {
		if p.Timeout == 0 {
			p.Timeout = DefaultProviderTimeout
		}
		if p.MaxRetries == 0 {
			p.MaxRetries = DefaultProviderMaxRetries
		}
	}
}

func applyPipelineDefaults(cfg *PipelineConfig) {
	w := &cfg.Weights
	// Weights default only as a group.
	if w.Deepfake == 0 && w.Credibility == 0 && w.Metadata == 0 {
		w.Deepfake = DefaultDeepfakeWeight
		w.Credibility = DefaultCredibilityWeight
		w.Metadata = DefaultMetadataWeight
	}
}

func applySyncDefaults(cfg *SyncConfig) {
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = DefaultSyncMaxRetries
	}
	if cfg.BackoffBase == 0 {
		cfg.BackoffBase = DefaultSyncBackoffBase
	}
	if cfg.BackoffMax == 0 {
		cfg.BackoffMax = DefaultSyncBackoffMax
	}
	if cfg.UpsertTimeout == 0 {
		cfg.UpsertTimeout = DefaultSyncUpsertTimeout
	}
	if cfg.Schedule == "" {
		cfg.Schedule = DefaultSyncSchedule
	}
	if cfg.MemoMIMEType == "" {
		cfg.MemoMIMEType = DefaultMemoMIMEType
	}
}

func applyAnchorDefaults(cfg *AnchorConfig) {
	if cfg.Mode == "" {
		cfg.Mode = DefaultAnchorMode
	}
	if cfg.JournalPath == "" {
		cfg.JournalPath = DefaultAnchorJournalPath
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultAnchorTimeout
	}
}

func applyInboxDefaults(cfg *InboxConfig) {
	if cfg.Path == "" {
		cfg.Path = DefaultInboxPath
	}
	if cfg.Debounce == 0 {
		cfg.Debounce = DefaultInboxDebounce
	}
	if cfg.ProcessedDir == "" {
		cfg.ProcessedDir = DefaultInboxProcessedDir
	}
}

func applyServerDefaults(cfg *ServerConfig) {
	if cfg.ListenAddress == "" {
		cfg.ListenAddress = DefaultListenAddress
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = DefaultReadTimeout
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = DefaultWriteTimeout
	}
}

func applyTelemetryDefaults(cfg *TelemetryConfig) {
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = DefaultLogLevel
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = DefaultLogFormat
	}

	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = DefaultMetricsPath
	}
	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = DefaultMetricsNamespace
	}
	if len(cfg.Metrics.AnalyzerDurationBuckets) == 0 {
		cfg.Metrics.AnalyzerDurationBuckets = append([]float64(nil), DefaultAnalyzerDurationBuckets...)
	}
	if len(cfg.Metrics.SyncDurationBuckets) == 0 {
		cfg.Metrics.SyncDurationBuckets = append([]float64(nil), DefaultSyncDurationBuckets...)
	}

	if cfg.Tracing.Sampler == "" {
		cfg.Tracing.Sampler = DefaultTracingSampler
	}
	if cfg.Tracing.SampleRatio == 0 {
		cfg.Tracing.SampleRatio = DefaultTracingSampleRatio
	}
	if cfg.Tracing.ServiceName == "" {
		cfg.Tracing.ServiceName = DefaultTracingServiceName
	}
	if cfg.Tracing.OTLP.Timeout == 0 {
		cfg.Tracing.OTLP.Timeout = DefaultOTLPTimeout
	}

	if cfg.Health.LivenessPath == "" {
		cfg.Health.LivenessPath = DefaultHealthLivenessPath
	}
	if cfg.Health.ReadinessPath == "" {
		cfg.Health.ReadinessPath = DefaultHealthReadinessPath
	}
	if cfg.Health.VersionPath == "" {
		cfg.Health.VersionPath = DefaultHealthVersionPath
	}
	if cfg.Health.CheckTimeout == 0 {
		cfg.Health.CheckTimeout = DefaultHealthCheckTimeout
	}
}
