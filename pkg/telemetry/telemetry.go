package telemetry

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"mercator-hq/vesta/pkg/config"
	"mercator-hq/vesta/pkg/telemetry/health"
	"mercator-hq/vesta/pkg/telemetry/logging"
	"mercator-hq/vesta/pkg/telemetry/metrics"
	"mercator-hq/vesta/pkg/telemetry/tracing"
)

// Telemetry bundles the logger, metrics collector, tracer and health checker
// of one node.
type Telemetry struct {
	logger  *slog.Logger
	metrics *metrics.Collector
	tracer  *tracing.Tracer
	health  *health.Checker
	cfg     *config.TelemetryConfig
	version health.VersionInfo
}

// New initializes every telemetry component from cfg and installs the
// logger as the slog default. Metrics returns nil when metrics are disabled.
func New(cfg *config.TelemetryConfig, version health.VersionInfo) (*Telemetry, error) {
	logger, err := logging.Setup(logging.FromConfig(cfg.Logging))
	if err != nil {
		return nil, fmt.Errorf("failed to set up logging: %w", err)
	}

	tracer, err := tracing.New(&cfg.Tracing, version.Version)
	if err != nil {
		return nil, fmt.Errorf("failed to set up tracing: %w", err)
	}

	t := &Telemetry{
		logger:  logger,
		tracer:  tracer,
		health:  health.New(cfg.Health.CheckTimeout),
		cfg:     cfg,
		version: version,
	}
	if cfg.Metrics.Enabled {
		t.metrics = metrics.NewCollector(&cfg.Metrics, nil)
	}
	return t, nil
}

// Logger returns the configured logger.
func (t *Telemetry) Logger() *slog.Logger { return t.logger }

// Metrics returns the metrics collector, or nil when metrics are disabled.
func (t *Telemetry) Metrics() *metrics.Collector { return t.metrics }

// Tracer returns the tracer.
func (t *Telemetry) Tracer() *tracing.Tracer { return t.tracer }

// Health returns the health checker.
func (t *Telemetry) Health() *health.Checker { return t.health }

// Mount registers the metrics and health endpoints on mux.
func (t *Telemetry) Mount(mux *http.ServeMux) {
	if t.metrics != nil {
		mux.Handle(t.cfg.Metrics.Path, t.metrics.Handler())
	}
	health.Register(mux, t.health, t.cfg.Health, t.version)
}

// Shutdown flushes pending spans.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	return t.tracer.Shutdown(ctx)
}
