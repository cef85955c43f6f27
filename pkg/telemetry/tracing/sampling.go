package tracing

import (
	"fmt"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

const (
	// SamplerAlways samples all traces
	SamplerAlways = "always"

	// SamplerNever samples no traces
	SamplerNever = "never"

	// SamplerRatio samples sync batches always and other roots by ratio.
	SamplerRatio = "ratio"
)

// createSampler creates the root sampler for strategy.
//
//	telemetry:
//	  tracing:
//	    sampler: ratio
//	    sample_ratio: 0.1
//
// With "ratio", a sync.batch root is always recorded: batches run a few
// times an hour and each one is the whole record of what happened to the
// queue. The ratio applies to every other root, such as health probes.
// Children follow their parent, so a batch decides for all item and
// analyzer spans below it.
func createSampler(strategy string, ratio float64) (sdktrace.Sampler, error) {
	switch strategy {
	case SamplerAlways:
		return sdktrace.ParentBased(sdktrace.AlwaysSample()), nil
	case SamplerNever:
		return sdktrace.NeverSample(), nil
	case SamplerRatio:
		if ratio < 0.0 || ratio > 1.0 {
			return nil, fmt.Errorf("sample ratio must be between 0.0 and 1.0, got %f", ratio)
		}
		return sdktrace.ParentBased(batchSampler{fallback: sdktrace.TraceIDRatioBased(ratio)}), nil
	default:
		return nil, fmt.Errorf("unknown sampler strategy: %s (valid: always, never, ratio)", strategy)
	}
}

// batchSampler records every sync batch root and defers to fallback for
// the rest.
type batchSampler struct {
	fallback sdktrace.Sampler
}

func (s batchSampler) ShouldSample(p sdktrace.SamplingParameters) sdktrace.SamplingResult {
	if p.Name == SpanSyncBatch {
		return sdktrace.SamplingResult{
			Decision:   sdktrace.RecordAndSample,
			Tracestate: trace.SpanContextFromContext(p.ParentContext).TraceState(),
		}
	}
	return s.fallback.ShouldSample(p)
}

func (s batchSampler) Description() string {
	return fmt.Sprintf("SyncBatches{fallback:%s}", s.fallback.Description())
}
