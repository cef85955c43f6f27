// Package metrics provides Prometheus metrics for Vesta.
//
// A single Collector owns a registry and the metric families below. It is
// passed as the Recorder of both the verification pipeline and the sync
// orchestrator.
//
//   - vesta_analyzer_calls_total{analyzer,outcome}
//   - vesta_analyzer_duration_seconds{analyzer}
//   - vesta_reports_total{status}, vesta_trust_score
//   - vesta_sync_items_total{outcome}, vesta_sync_item_duration_seconds
//   - vesta_sync_batches_total, vesta_sync_batch_duration_seconds
//   - vesta_sync_last_batch_items{result}, vesta_sync_last_batch_timestamp_seconds
//   - vesta_queue_items{status}, vesta_captures_total{kind,source}
//
// # Usage
//
//	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)
//	p, _ := pipeline.New(set, pipeline.DefaultConfig(), pipeline.WithRecorder(collector))
//	http.Handle(cfg.Telemetry.Metrics.Path, collector.Handler())
//
// When MetricsConfig.Enabled is false every Record method is a no-op and the
// endpoint serves an empty registry.
package metrics
