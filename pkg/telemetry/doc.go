// Package telemetry wires the observability stack of a vesta node.
//
// # Components
//
//   - logging: slog handler with context fields and redaction of keys,
//     emails and coordinates
//   - metrics: Prometheus analyzer, sync and queue metrics
//   - tracing: OpenTelemetry spans exported over OTLP/gRPC
//   - health: liveness, readiness and version endpoints
//
// # Usage
//
//	tel, err := telemetry.New(&cfg.Telemetry, health.VersionInfo{Version: version})
//	if err != nil {
//		return err
//	}
//	defer tel.Shutdown(context.Background())
//
//	mux := http.NewServeMux()
//	tel.Mount(mux)
//
// Location data captured with evidence is treated as PII: when redaction
// is on, latitude and longitude never reach the log output.
package telemetry
