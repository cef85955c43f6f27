package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"mercator-hq/vesta/pkg/analyzers"
	"mercator-hq/vesta/pkg/evidence"
	"mercator-hq/vesta/pkg/telemetry/logging"
	"mercator-hq/vesta/pkg/telemetry/tracing"
)

// Analyzer outcomes reported to the Recorder.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

// Recorder receives pipeline measurements. A nil Recorder disables recording.
type Recorder interface {
	RecordAnalyzer(analyzer, outcome string, duration time.Duration)
	RecordTrustScore(score int, status string)
}

// Config configures a Pipeline.
type Config struct {
	// Weights of the trust score components.
	// Default: 40/40/20
	Weights Weights

	// AnalyzerTimeout bounds each analyzer call.
	// Default: 10 seconds
	AnalyzerTimeout time.Duration
}

// DefaultConfig returns the default pipeline configuration.
func DefaultConfig() Config {
	return Config{
		Weights:         DefaultWeights(),
		AnalyzerTimeout: analyzers.DefaultTimeout,
	}
}

// Option customizes a Pipeline.
type Option func(*Pipeline)

// WithTracer sets the tracer used for pipeline spans.
func WithTracer(tracer trace.Tracer) Option {
	return func(p *Pipeline) { p.tracer = tracer }
}

// WithRecorder sets the metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(p *Pipeline) { p.recorder = r }
}

// WithClock overrides the report timestamp source.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// Pipeline runs the applicable analyzers over one evidence item and combines
// their outputs into a verification report.
type Pipeline struct {
	analyzers *analyzers.Set
	weights   Weights
	timeout   time.Duration
	tracer    trace.Tracer
	recorder  Recorder
	logger    *slog.Logger
	now       func() time.Time
}

// New creates a pipeline over the given analyzers.
func New(set *analyzers.Set, cfg Config, opts ...Option) (*Pipeline, error) {
	if set == nil || set.Metadata == nil || set.Manipulation == nil || set.Transcriber == nil || set.Content == nil {
		return nil, errors.New("pipeline requires all four analyzers")
	}
	if cfg.Weights == (Weights{}) {
		cfg.Weights = DefaultWeights()
	}
	if err := cfg.Weights.Validate(); err != nil {
		return nil, err
	}
	if cfg.AnalyzerTimeout <= 0 {
		cfg.AnalyzerTimeout = analyzers.DefaultTimeout
	}

	p := &Pipeline{
		analyzers: set,
		weights:   cfg.Weights,
		timeout:   cfg.AnalyzerTimeout,
		tracer:    otel.Tracer("vesta/pipeline"),
		logger:    slog.Default().With("component", "pipeline"),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Analyze verifies a single item. Only a metadata extraction failure is
// returned as an error; other analyzer failures are recorded on the report.
func (p *Pipeline) Analyze(ctx context.Context, item *evidence.EvidenceItem) (*evidence.VerificationReport, error) {
	if item == nil {
		return nil, errors.New("nil evidence item")
	}
	kind := item.Kind()

	ctx, span := p.tracer.Start(ctx, tracing.SpanPipelineAnalyze,
		trace.WithAttributes(tracing.ItemAttributes(item.ID, kind.String(), item.RetryCount)...))
	defer span.End()

	start := time.Now()

	meta, err := invoke(ctx, p, p.analyzers.Metadata, item)
	if err != nil {
		tracing.SetError(span, err, "metadata extraction failed")
		return nil, fmt.Errorf("metadata extraction failed for item %s: %w", item.ID, err)
	}

	var (
		wg            sync.WaitGroup
		deepfake      *evidence.DeepfakeAnalysis
		transcription *evidence.Transcription
		deepfakeErr   error
		transcribeErr error
	)
	media := analyzers.MediaFromItem(item)

	if kind.Visual() {
		wg.Add(1)
		go func() {
			defer wg.Done()
			deepfake, deepfakeErr = invoke(ctx, p, p.analyzers.Manipulation, media)
		}()
	}
	if kind.Audible() {
		wg.Add(1)
		go func() {
			defer wg.Done()
			transcription, transcribeErr = invoke(ctx, p, p.analyzers.Transcriber, media)
		}()
	}
	wg.Wait()

	var failures []string
	if deepfakeErr != nil {
		failures = append(failures, p.analyzers.Manipulation.Name())
	}
	if transcribeErr != nil {
		failures = append(failures, p.analyzers.Transcriber.Name())
	}

	var content *evidence.ContentAnalysis
	if in, ok := contentInput(item, meta, transcription); ok {
		var contentErr error
		content, contentErr = invoke(ctx, p, p.analyzers.Content, in)
		if contentErr != nil {
			failures = append(failures, p.analyzers.Content.Name())
		}
	}

	score := TrustScore(p.weights, ComponentsFor(meta, deepfake, content))
	status := evidence.VerificationVerified
	if deepfake != nil && deepfake.FlaggedForReview {
		status = evidence.VerificationFlagged
	}

	now := p.now().UTC()
	report := &evidence.VerificationReport{
		ID:                 uuid.New().String(),
		FileID:             item.ID,
		DeepfakeAnalysis:   deepfake,
		Metadata:           *meta,
		Transcription:      transcription,
		AIAnalysis:         content,
		CoSignatures:       []evidence.CoSignature{},
		OverallTrustScore:  score,
		VerificationStatus: status,
		AnalyzerFailures:   failures,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	tracing.SetReportAttributes(span, report.ID, score, string(status), len(failures))
	if p.recorder != nil {
		p.recorder.RecordTrustScore(score, string(status))
	}

	p.logger.InfoContext(logging.WithReportID(ctx, report.ID), "item verified",
		"item_id", item.ID,
		"kind", kind.String(),
		"trust_score", score,
		"status", status,
		"analyzer_failures", failures,
		"duration", time.Since(start),
	)
	return report, nil
}

// invoke runs one analyzer under the per-analyzer timeout. Failures are
// wrapped as AnalyzerUnavailableError.
func invoke[In, Out any](ctx context.Context, p *Pipeline, a analyzers.Analyzer[In, Out], in In) (Out, error) {
	name := a.Name()
	ctx, span := p.tracer.Start(ctx, tracing.SpanAnalyzerPrefix+name,
		trace.WithAttributes(tracing.AnalyzerAttributes(name, a.Capability().String())...))
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	start := time.Now()
	out, err := a.Analyze(ctx, in)
	elapsed := time.Since(start)

	outcome := OutcomeSuccess
	if err != nil {
		outcome = OutcomeFailure
		err = evidence.NewAnalyzerUnavailableError(name, err)
		tracing.SetError(span, err, "analyzer unavailable")
		p.logger.WarnContext(ctx, "analyzer unavailable",
			"analyzer", name,
			"duration", elapsed,
			"error", err,
		)
	}
	if p.recorder != nil {
		p.recorder.RecordAnalyzer(name, outcome, elapsed)
	}
	return out, err
}

// contentInput picks the text to analyze: the transcription when it has
// text, then the description, then the body of a text submission, then the
// file name.
func contentInput(item *evidence.EvidenceItem, meta *evidence.ExtractedMetadata, tr *evidence.Transcription) (analyzers.ContentInput, bool) {
	in := analyzers.ContentInput{
		HasLocation:  meta.Location != nil,
		HasTimestamp: meta.Timestamp != nil,
	}

	switch {
	case tr != nil && strings.TrimSpace(tr.Text) != "":
		in.Text, in.Source = tr.Text, analyzers.SourceTranscription
	case strings.TrimSpace(item.Metadata.Description) != "":
		in.Text, in.Source = item.Metadata.Description, analyzers.SourceDescription
	case item.Kind() == evidence.KindText && utf8.Valid(item.Payload) && strings.TrimSpace(string(item.Payload)) != "":
		in.Text, in.Source = string(item.Payload), analyzers.SourceBody
	case strings.TrimSpace(item.Metadata.FileName) != "":
		in.Text, in.Source = item.Metadata.FileName, analyzers.SourceFileName
	default:
		return in, false
	}
	return in, true
}
