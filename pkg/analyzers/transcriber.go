package analyzers

import (
	"context"
	"encoding/base64"
	"log/slog"
	"strings"
	"time"

	"mercator-hq/vesta/pkg/evidence"
)

// NewTranscriber returns a provider-backed transcriber when cfg has an
// endpoint, and the local mock otherwise.
func NewTranscriber(cfg ProviderConfig) Transcriber {
	if cfg.Configured() {
		if cfg.Name == "" {
			cfg.Name = NameTranscriber
		}
		return &RemoteTranscriber{
			client: NewClient(cfg),
			name:   cfg.Name,
			logger: slog.Default().With("component", "analyzers.transcriber"),
		}
	}
	return MockTranscriber{}
}

// RemoteTranscriber calls a speech-to-text provider.
type RemoteTranscriber struct {
	client *Client
	name   string
	logger *slog.Logger
}

type transcribeRequest struct {
	Audio    string `json:"audio"` // base64
	MIMEType string `json:"mime_type"`
}

type transcribeResponse struct {
	Text       string  `json:"text"`
	Language   string  `json:"language"`
	Confidence float64 `json:"confidence"`
	Segments   []struct {
		StartMS int64  `json:"start_ms"`
		EndMS   int64  `json:"end_ms"`
		Text    string `json:"text"`
	} `json:"segments"`
}

// Name returns the analyzer name.
func (t *RemoteTranscriber) Name() string { return NameTranscriber }

// Capability returns Configured.
func (t *RemoteTranscriber) Capability() Capability { return Configured }

// Analyze transcribes the audio track of media.
func (t *RemoteTranscriber) Analyze(ctx context.Context, media Media) (*evidence.Transcription, error) {
	req := transcribeRequest{
		Audio:    base64.StdEncoding.EncodeToString(media.Data),
		MIMEType: media.MIMEType,
	}

	var resp transcribeResponse
	if err := t.client.PostJSON(ctx, "/transcribe", req, &resp); err != nil {
		return nil, err
	}

	result := &evidence.Transcription{
		Text:       strings.TrimSpace(resp.Text),
		Language:   resp.Language,
		Confidence: clampUnit(resp.Confidence),
		Provider:   t.name,
	}
	if result.Language == "" {
		result.Language = "und"
	}
	for _, s := range resp.Segments {
		result.Segments = append(result.Segments, evidence.TranscriptSegment{
			Start: time.Duration(s.StartMS) * time.Millisecond,
			End:   time.Duration(s.EndMS) * time.Millisecond,
			Text:  s.Text,
		})
	}

	t.logger.Debug("transcription complete",
		"language", result.Language,
		"segments", len(result.Segments),
	)
	return result, nil
}

// MockTranscriber returns an empty transcription. Content analysis then
// falls back to the item's description.
type MockTranscriber struct{}

// Name returns the analyzer name.
func (MockTranscriber) Name() string { return NameTranscriber }

// Capability returns Unconfigured.
func (MockTranscriber) Capability() Capability { return Unconfigured }

// Analyze returns an empty, undetermined-language transcription.
func (MockTranscriber) Analyze(ctx context.Context, media Media) (*evidence.Transcription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &evidence.Transcription{Language: "und", Provider: "mock"}, nil
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
