package evidence

import (
	"context"
	"io"
	"time"
)

// ItemStatus is the lifecycle state of a queued evidence item.
type ItemStatus string

const (
	// StatusPending means the item is captured and waiting for a sync cycle.
	StatusPending ItemStatus = "pending"
	// StatusSyncing means a sync cycle has claimed the item.
	StatusSyncing ItemStatus = "syncing"
	// StatusSynced means the verification report was persisted remotely. Terminal.
	StatusSynced ItemStatus = "synced"
	// StatusFailed means the last sync attempt failed; the item stays queued.
	StatusFailed ItemStatus = "failed"
)

// MemoStatus is the lifecycle state of a queued voice memo.
type MemoStatus string

const (
	MemoPending   MemoStatus = "pending"
	MemoProcessed MemoStatus = "processed"
	MemoFailed    MemoStatus = "failed"
)

// LocationSource records how a capture location was obtained.
type LocationSource string

const (
	LocationGPS     LocationSource = "gps"
	LocationNetwork LocationSource = "network"
	LocationManual  LocationSource = "manual"
)

// Location is a capture location with its provenance.
type Location struct {
	Latitude  float64        `json:"latitude"`
	Longitude float64        `json:"longitude"`
	Accuracy  float64        `json:"accuracy,omitempty"` // meters
	Source    LocationSource `json:"source"`
}

// ItemMetadata is the capture-time metadata supplied with a payload.
type ItemMetadata struct {
	FileName    string     `json:"file_name"`
	FileType    string     `json:"file_type"` // MIME type
	FileSize    int64      `json:"file_size"`
	Timestamp   *time.Time `json:"timestamp,omitempty"`
	Location    *Location  `json:"location,omitempty"`
	Description string     `json:"description,omitempty"`
	Device      string     `json:"device,omitempty"`
}

// EvidenceItem is a captured media submission awaiting or undergoing verification.
// The queue owns the payload until the item is synced.
type EvidenceItem struct {
	ID       string       `json:"id"`
	Payload  []byte       `json:"-"`
	Metadata ItemMetadata `json:"metadata"`
	Status   ItemStatus   `json:"status"`

	// RetryCount is incremented on every failed attempt and never decremented.
	RetryCount int `json:"retry_count"`

	// LastError is the message of the most recent failed attempt.
	LastError string `json:"last_error,omitempty"`

	// NextAttemptAt gates retries of failed items. Zero means eligible now.
	NextAttemptAt time.Time `json:"next_attempt_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Kind returns the media kind of the item derived from its MIME type.
func (i *EvidenceItem) Kind() MediaKind {
	return KindFromMIME(i.Metadata.FileType)
}

// Label returns a short human-readable name for progress reporting.
func (i *EvidenceItem) Label() string {
	if i.Metadata.FileName != "" {
		return i.Metadata.FileName
	}
	return i.ID
}

// VoiceMemo is a recorded audio note attached to a conversation thread.
type VoiceMemo struct {
	ID            string     `json:"id"`
	Audio         []byte     `json:"-"`
	ThreadID      string     `json:"thread_id"`
	Transcription string     `json:"transcription,omitempty"`
	AIEnhanced    string     `json:"ai_enhanced,omitempty"`
	Status        MemoStatus `json:"status"`
	Timestamp     time.Time  `json:"timestamp"`
	RetryCount    int        `json:"retry_count"`
	NextAttemptAt time.Time  `json:"next_attempt_at,omitempty"`
}

// RiskLevel classifies manipulation confidence.
type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

// ExtractedMetadata is the output of local metadata extraction.
type ExtractedMetadata struct {
	Device     string     `json:"device,omitempty"`
	Resolution string     `json:"resolution,omitempty"`
	Width      int        `json:"width,omitempty"`
	Height     int        `json:"height,omitempty"`
	Timestamp  *time.Time `json:"timestamp,omitempty"`
	Location   *Location  `json:"location,omitempty"`
	FileType   string     `json:"file_type"`
	FileSize   int64      `json:"file_size"`
	FileHash   string     `json:"file_hash"`
}

// DeepfakeAnalysis is the output of the manipulation detector.
type DeepfakeAnalysis struct {
	// Confidence is the likelihood (0-100) that the media was manipulated.
	Confidence       int       `json:"confidence"`
	RiskLevel        RiskLevel `json:"risk_level"`
	FlaggedForReview bool      `json:"flagged_for_review"`
	Indicators       []string  `json:"indicators,omitempty"`
	Provider         string    `json:"provider"`
}

// TranscriptSegment is a timed span of a transcription.
type TranscriptSegment struct {
	Start time.Duration `json:"start"`
	End   time.Duration `json:"end"`
	Text  string        `json:"text"`
}

// Transcription is the output of the transcriber.
type Transcription struct {
	Text       string              `json:"text"`
	Language   string              `json:"language"`
	Segments   []TranscriptSegment `json:"segments,omitempty"`
	Confidence float64             `json:"confidence"`
	Provider   string              `json:"provider"`
}

// Sentiment is the overall tone detected by the content analyzer.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
	SentimentUrgent   Sentiment = "urgent"
)

// EventTag is one of the twelve closed event categories.
type EventTag string

const (
	TagViolence             EventTag = "violence"
	TagProtest              EventTag = "protest"
	TagNaturalDisaster      EventTag = "natural_disaster"
	TagFire                 EventTag = "fire"
	TagFlood                EventTag = "flood"
	TagMedicalEmergency     EventTag = "medical_emergency"
	TagAccident             EventTag = "accident"
	TagInfrastructureDamage EventTag = "infrastructure_damage"
	TagDisplacement         EventTag = "displacement"
	TagPoliceActivity       EventTag = "police_activity"
	TagHumanRights          EventTag = "human_rights_violation"
	TagOther                EventTag = "other"
)

// EventTags lists every event category in a stable order.
var EventTags = []EventTag{
	TagViolence, TagProtest, TagNaturalDisaster, TagFire, TagFlood, TagMedicalEmergency,
	TagAccident, TagInfrastructureDamage, TagDisplacement, TagPoliceActivity, TagHumanRights, TagOther,
}

// ContentAnalysis is the output of the content analyzer.
type ContentAnalysis struct {
	Summary          string     `json:"summary"`
	KeyFacts         []string   `json:"key_facts"`
	EventTags        []EventTag `json:"event_tags"`
	Sentiment        Sentiment  `json:"sentiment"`
	UrgencyLevel     int        `json:"urgency_level"`     // 1-10
	CredibilityScore int        `json:"credibility_score"` // 0-100
	ContextualFlags  []string   `json:"contextual_flags,omitempty"`
	Provider         string     `json:"provider"`
}

// VerificationStatus is the verdict carried by a report.
type VerificationStatus string

const (
	VerificationPending  VerificationStatus = "pending"
	VerificationVerified VerificationStatus = "verified"
	VerificationDisputed VerificationStatus = "disputed"
	VerificationFlagged  VerificationStatus = "flagged"
)

// CoSignature is a third-party endorsement of a report.
type CoSignature struct {
	ID                string    `json:"id"`
	OrganizationID    string    `json:"organization_id"`
	OrganizationName  string    `json:"organization_name"`
	VerifierName      string    `json:"verifier_name"`
	VerifierRole      string    `json:"verifier_role"`
	VerificationDate  time.Time `json:"verification_date"`
	VerificationHash  string    `json:"verification_hash"`
	CredibilityRating int       `json:"credibility_rating"` // 1-5
	Notes             string    `json:"notes,omitempty"`
}

// Organization is a directory entry for an endorsing organization.
type Organization struct {
	ID                string `json:"id" yaml:"id"`
	Name              string `json:"name" yaml:"name"`
	VerifierName      string `json:"verifier_name" yaml:"verifier_name"`
	VerifierRole      string `json:"verifier_role" yaml:"verifier_role"`
	CredibilityRating int    `json:"credibility_rating" yaml:"credibility_rating"`
}

// VerificationReport is the trust-scored outcome of running the verification
// pipeline over exactly one evidence item.
type VerificationReport struct {
	ID     string `json:"id"`
	FileID string `json:"file_id"`

	DeepfakeAnalysis *DeepfakeAnalysis `json:"deepfake_analysis,omitempty"`
	Metadata         ExtractedMetadata `json:"metadata"`
	Transcription    *Transcription    `json:"transcription,omitempty"`
	AIAnalysis       *ContentAnalysis  `json:"ai_analysis,omitempty"`

	// CoSignatures is append-only.
	CoSignatures []CoSignature `json:"co_signatures"`

	// OverallTrustScore is always within [0,100].
	OverallTrustScore  int                `json:"overall_trust_score"`
	VerificationStatus VerificationStatus `json:"verification_status"`

	// AnalyzerFailures names analyzers that were applicable but unavailable.
	AnalyzerFailures []string `json:"analyzer_failures,omitempty"`

	// AnchorTransactionID is the proof-of-existence receipt, set after persistence.
	AnchorTransactionID string `json:"anchor_transaction_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Queue is the durable on-device store for captured items and voice memos.
// Implementations must be safe for concurrent use by the capture and sync paths.
type Queue interface {
	// Enqueue persists a new pending item and returns its ID. The write is
	// durable before Enqueue returns. An empty payload is rejected with
	// ErrEmptyPayload.
	Enqueue(ctx context.Context, payload []byte, metadata ItemMetadata) (string, error)

	// Get returns a single item. Returns NotFoundError for unknown IDs.
	Get(ctx context.Context, id string) (*EvidenceItem, error)

	// List returns items in createdAt ascending order. With no statuses, all
	// items are returned.
	List(ctx context.Context, statuses ...ItemStatus) ([]*EvidenceItem, error)

	// Transition moves an item to a new status. Disallowed transitions return
	// InvalidStateError and leave the record unchanged.
	Transition(ctx context.Context, id string, to ItemStatus) error

	// Fail moves a syncing item to failed, increments its retry count and
	// records the failure and the earliest next attempt.
	Fail(ctx context.Context, id string, cause string, nextAttempt time.Time) error

	// Remove deletes a synced item.
	Remove(ctx context.Context, id string) error

	EnqueueMemo(ctx context.Context, audio []byte, threadID string) (string, error)
	ListMemos(ctx context.Context, statuses ...MemoStatus) ([]*VoiceMemo, error)
	CompleteMemo(ctx context.Context, id, transcription, enhanced string) error

	// FailMemo marks a memo failed, increments its retry count and records
	// the earliest next attempt.
	FailMemo(ctx context.Context, id string, nextAttempt time.Time) error

	Close() error
}

// Ack acknowledges a persisted report.
type Ack struct {
	ReportID string    `json:"report_id"`
	FileID   string    `json:"file_id"`
	Created  bool      `json:"created"` // false when the report already existed
	StoredAt time.Time `json:"stored_at"`
}

// ReportQuery filters reports in a store.
type ReportQuery struct {
	Status   VerificationStatus
	MinScore *int
	Since    *time.Time
	Limit    int
	Offset   int
}

// ReportStore is the remote, append-only store for verification reports.
type ReportStore interface {
	// Upsert stores a report. A report is created at most once per FileID;
	// repeated calls for the same FileID return the existing report's ack.
	Upsert(ctx context.Context, report *VerificationReport) (*Ack, error)

	// Get returns a report by ID or NotFoundError.
	Get(ctx context.Context, id string) (*VerificationReport, error)

	// GetByFileID returns the report for an item or NotFoundError.
	GetByFileID(ctx context.Context, fileID string) (*VerificationReport, error)

	// Endorse atomically applies fn to the stored report and persists the result.
	Endorse(ctx context.Context, id string, fn func(*VerificationReport) error) (*VerificationReport, error)

	// SetAnchor records the proof-of-existence transaction for a report.
	SetAnchor(ctx context.Context, id string, transactionID string) error

	List(ctx context.Context, query *ReportQuery) ([]*VerificationReport, error)

	// ListStream streams matching reports. Both channels are closed when the
	// query completes or fails.
	ListStream(ctx context.Context, query *ReportQuery) (<-chan *VerificationReport, <-chan error, error)

	Count(ctx context.Context) (int64, error)
	Close() error
}

// Exporter writes reports in a specific format.
type Exporter interface {
	Export(ctx context.Context, reports []*VerificationReport, w io.Writer) error
	ExportStream(ctx context.Context, reports <-chan *VerificationReport, w io.Writer) error
}
