package analyzers

import (
	"context"
	"time"

	"mercator-hq/vesta/pkg/evidence"
)

// Analyzer names as recorded in reports and metrics.
const (
	NameMetadata     = "metadata"
	NameManipulation = "manipulation"
	NameTranscriber  = "transcriber"
	NameContent      = "content"
)

// DefaultTimeout bounds a single analyzer call.
const DefaultTimeout = 10 * time.Second

// Capability records whether an analyzer is backed by a real provider.
// It is fixed when the analyzer is constructed.
type Capability int

const (
	// Unconfigured analyzers return deterministic local results.
	Unconfigured Capability = iota
	// Configured analyzers call a real provider.
	Configured
)

func (c Capability) String() string {
	if c == Configured {
		return "configured"
	}
	return "unconfigured"
}

// Analyzer is the contract shared by every analyzer kind.
type Analyzer[In, Out any] interface {
	Name() string
	Capability() Capability
	Analyze(ctx context.Context, in In) (Out, error)
}

// Media is the input to the manipulation detector and the transcriber.
type Media struct {
	Data     []byte
	MIMEType string
	Kind     evidence.MediaKind
	FileName string
}

// MediaFromItem builds analyzer input from a queued item.
func MediaFromItem(item *evidence.EvidenceItem) Media {
	return Media{
		Data:     item.Payload,
		MIMEType: item.Metadata.FileType,
		Kind:     item.Kind(),
		FileName: item.Metadata.FileName,
	}
}

// TextSource records where content analysis text came from.
type TextSource string

const (
	SourceTranscription TextSource = "transcription"
	SourceDescription   TextSource = "description"
	SourceBody          TextSource = "body"
	SourceFileName      TextSource = "filename"
)

// ContentInput is the input to the content analyzer.
type ContentInput struct {
	Text         string
	Source       TextSource
	HasLocation  bool
	HasTimestamp bool
}

type (
	MetadataExtractor    = Analyzer[*evidence.EvidenceItem, *evidence.ExtractedMetadata]
	ManipulationDetector = Analyzer[Media, *evidence.DeepfakeAnalysis]
	Transcriber          = Analyzer[Media, *evidence.Transcription]
	ContentAnalyzer      = Analyzer[ContentInput, *evidence.ContentAnalysis]
)

// Config configures the analyzer set.
type Config struct {
	Manipulation  ProviderConfig
	Transcription ProviderConfig
	Content       ProviderConfig
}

// Set groups the four analyzers used by the verification pipeline.
type Set struct {
	Metadata     MetadataExtractor
	Manipulation ManipulationDetector
	Transcriber  Transcriber
	Content      ContentAnalyzer
}

// NewSet constructs every analyzer from cfg. Each provider section with an
// endpoint yields a configured analyzer; the rest run locally.
func NewSet(cfg Config) *Set {
	return &Set{
		Metadata:     NewMetadataExtractor(),
		Manipulation: NewManipulationDetector(cfg.Manipulation),
		Transcriber:  NewTranscriber(cfg.Transcription),
		Content:      NewContentAnalyzer(cfg.Content),
	}
}
