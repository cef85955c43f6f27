// Package tracing configures OpenTelemetry for Vesta.
//
// New installs a TracerProvider exporting over OTLP/gRPC and the W3C
// propagators. Instrumented packages obtain tracers with otel.Tracer, so
// they need no reference to this package's Tracer:
//
//	sync.batch
//	└── sync.item
//	    └── pipeline.analyze
//	        ├── analyzer.local-metadata
//	        ├── analyzer.sentinel
//	        └── analyzer.local-keywords
//
// Outgoing provider requests carry the trace context through Inject.
//
//	t, err := tracing.New(&cfg.Telemetry.Tracing, version)
//	if err != nil {
//		return err
//	}
//	defer t.Shutdown(context.Background())
package tracing
