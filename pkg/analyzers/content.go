package analyzers

import (
	"context"
	"log/slog"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"mercator-hq/vesta/pkg/evidence"
)

const (
	maxKeyFacts      = 3
	minFactWords     = 4
	maxSummaryLength = 200
	urgencyFlagLevel = 7
)

// tagKeywords maps each event category to the words that indicate it.
// TagOther has no keywords; it is assigned when nothing matches.
var tagKeywords = map[evidence.EventTag][]string{
	evidence.TagViolence:             {"shooting", "shot", "gunfire", "stabbing", "attack", "assault", "beating", "explosion", "bomb"},
	evidence.TagProtest:              {"protest", "march", "rally", "demonstration", "crowd", "chanting", "strike"},
	evidence.TagNaturalDisaster:      {"earthquake", "hurricane", "tornado", "landslide", "tsunami", "cyclone", "storm"},
	evidence.TagFire:                 {"fire", "smoke", "burning", "flames", "wildfire", "blaze"},
	evidence.TagFlood:                {"flood", "flooding", "water rising", "submerged", "overflow"},
	evidence.TagMedicalEmergency:     {"injured", "wounded", "bleeding", "unconscious", "ambulance", "hospital", "casualties"},
	evidence.TagAccident:             {"crash", "collision", "accident", "derailed", "overturned"},
	evidence.TagInfrastructureDamage: {"collapsed", "bridge", "power outage", "road blocked", "destroyed", "rubble"},
	evidence.TagDisplacement:         {"evacuated", "evacuation", "refugees", "displaced", "fleeing", "shelter"},
	evidence.TagPoliceActivity:       {"police", "arrest", "detained", "tear gas", "checkpoint", "soldiers", "military"},
	evidence.TagHumanRights:          {"torture", "abuse", "censorship", "disappeared", "executed", "discrimination"},
}

var urgencyKeywords = []string{
	"urgent", "emergency", "help", "sos", "trapped", "immediately", "dying", "critical", "danger", "now",
}

var (
	positiveWords = []string{"safe", "rescued", "helped", "calm", "relief", "recovered", "thank"}
	negativeWords = []string{"dead", "killed", "destroyed", "injured", "afraid", "panic", "lost", "missing"}
)

var sentenceSplit = regexp.MustCompile(`[.!?\n]+`)

// NewContentAnalyzer returns a provider-backed analyzer when cfg has an
// endpoint, and the local keyword analyzer otherwise.
func NewContentAnalyzer(cfg ProviderConfig) ContentAnalyzer {
	if cfg.Configured() {
		if cfg.Name == "" {
			cfg.Name = NameContent
		}
		return &RemoteContentAnalyzer{
			client: NewClient(cfg),
			name:   cfg.Name,
			logger: slog.Default().With("component", "analyzers.content"),
		}
	}
	return &KeywordContentAnalyzer{}
}

// KeywordContentAnalyzer performs rule-based content analysis.
// It is deterministic: the same input always yields the same result.
type KeywordContentAnalyzer struct{}

// Name returns the analyzer name.
func (a *KeywordContentAnalyzer) Name() string { return NameContent }

// Capability returns Unconfigured.
func (a *KeywordContentAnalyzer) Capability() Capability { return Unconfigured }

// Analyze produces a summary, key facts, event tags, sentiment, urgency and
// credibility from keyword matching.
func (a *KeywordContentAnalyzer) Analyze(ctx context.Context, in ContentInput) (*evidence.ContentAnalysis, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	text := strings.TrimSpace(in.Text)
	lower := strings.ToLower(text)
	sentences := splitSentences(text)
	facts := KeyFacts(sentences)

	result := &evidence.ContentAnalysis{
		KeyFacts:  facts,
		EventTags: DetectEventTags(lower),
		Provider:  "local",
	}

	if len(sentences) > 0 {
		result.Summary = TruncateString(sentences[0], maxSummaryLength)
	}

	result.UrgencyLevel = urgencyLevel(lower, result.EventTags)
	result.Sentiment = sentiment(lower, result.UrgencyLevel)
	result.CredibilityScore = credibility(in, len(facts), countWords(text))
	result.ContextualFlags = ContextualFlags(result.UrgencyLevel, result.EventTags)

	return result, nil
}

// DetectEventTags returns the matching categories in their declared order,
// or [other] when none match.
func DetectEventTags(lower string) []evidence.EventTag {
	var tags []evidence.EventTag
	for _, tag := range evidence.EventTags {
		for _, keyword := range tagKeywords[tag] {
			if containsWord(lower, keyword) {
				tags = append(tags, tag)
				break
			}
		}
	}
	if len(tags) == 0 {
		tags = []evidence.EventTag{evidence.TagOther}
	}
	return tags
}

// KeyFacts returns up to three sentences of at least four words, longest
// first, ties kept in their original order.
func KeyFacts(sentences []string) []string {
	candidates := make([]string, 0, len(sentences))
	for _, s := range sentences {
		if countWords(s) >= minFactWords {
			candidates = append(candidates, s)
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return countWords(candidates[i]) > countWords(candidates[j])
	})
	if len(candidates) > maxKeyFacts {
		candidates = candidates[:maxKeyFacts]
	}
	return candidates
}

// ContextualFlags returns follow-up flags for reports with urgency above 7.
func ContextualFlags(urgency int, tags []evidence.EventTag) []string {
	if urgency <= urgencyFlagLevel {
		return nil
	}
	flags := []string{"high_urgency"}
	for _, tag := range tags {
		switch tag {
		case evidence.TagMedicalEmergency:
			flags = append(flags, "medical_response_needed")
		case evidence.TagViolence, evidence.TagHumanRights:
			flags = append(flags, "safety_risk")
		case evidence.TagFire, evidence.TagFlood, evidence.TagNaturalDisaster:
			flags = append(flags, "rescue_services_needed")
		}
	}
	return flags
}

func urgencyLevel(lower string, tags []evidence.EventTag) int {
	level := 3
	for _, tag := range tags {
		if tag != evidence.TagOther {
			level++
		}
	}
	for _, keyword := range urgencyKeywords {
		if containsWord(lower, keyword) {
			level += 3
			break
		}
	}
	if strings.Count(lower, "!") >= 2 {
		level++
	}
	return clampRange(level, 1, 10)
}

func sentiment(lower string, urgency int) evidence.Sentiment {
	if urgency > urgencyFlagLevel {
		return evidence.SentimentUrgent
	}
	positive, negative := 0, 0
	for _, w := range positiveWords {
		if containsWord(lower, w) {
			positive++
		}
	}
	for _, w := range negativeWords {
		if containsWord(lower, w) {
			negative++
		}
	}
	switch {
	case negative > positive:
		return evidence.SentimentNegative
	case positive > negative:
		return evidence.SentimentPositive
	default:
		return evidence.SentimentNeutral
	}
}

func credibility(in ContentInput, facts, words int) int {
	score := 50
	switch in.Source {
	case SourceTranscription:
		score += 15
	case SourceDescription:
		score += 10
	}
	score += 5 * facts
	if in.HasLocation {
		score += 10
	}
	if in.HasTimestamp {
		score += 5
	}
	if words < minFactWords {
		score -= 10
	}
	return clampRange(score, 0, 100)
}

// RemoteContentAnalyzer calls a content-analysis provider.
type RemoteContentAnalyzer struct {
	client *Client
	name   string
	logger *slog.Logger
}

type contentRequest struct {
	Text   string `json:"text"`
	Source string `json:"source"`
}

type contentResponse struct {
	Summary          string   `json:"summary"`
	KeyFacts         []string `json:"key_facts"`
	EventTags        []string `json:"event_tags"`
	Sentiment        string   `json:"sentiment"`
	UrgencyLevel     int      `json:"urgency_level"`
	CredibilityScore int      `json:"credibility_score"`
	ContextualFlags  []string `json:"contextual_flags"`
}

// Name returns the analyzer name.
func (a *RemoteContentAnalyzer) Name() string { return NameContent }

// Capability returns Configured.
func (a *RemoteContentAnalyzer) Capability() Capability { return Configured }

// Analyze submits the text for analysis and normalizes the response into the
// closed tag set and the documented ranges.
func (a *RemoteContentAnalyzer) Analyze(ctx context.Context, in ContentInput) (*evidence.ContentAnalysis, error) {
	var resp contentResponse
	if err := a.client.PostJSON(ctx, "/analyze", contentRequest{Text: in.Text, Source: string(in.Source)}, &resp); err != nil {
		return nil, err
	}

	result := &evidence.ContentAnalysis{
		Summary:          TruncateString(strings.TrimSpace(resp.Summary), maxSummaryLength),
		KeyFacts:         resp.KeyFacts,
		EventTags:        normalizeTags(resp.EventTags),
		Sentiment:        normalizeSentiment(resp.Sentiment),
		UrgencyLevel:     clampRange(resp.UrgencyLevel, 1, 10),
		CredibilityScore: evidence.ClampScore(resp.CredibilityScore),
		ContextualFlags:  resp.ContextualFlags,
		Provider:         a.name,
	}
	if len(result.KeyFacts) > maxKeyFacts {
		result.KeyFacts = result.KeyFacts[:maxKeyFacts]
	}
	if result.UrgencyLevel > urgencyFlagLevel && len(result.ContextualFlags) == 0 {
		result.ContextualFlags = ContextualFlags(result.UrgencyLevel, result.EventTags)
	}

	a.logger.Debug("content analysis complete",
		"event_tags", result.EventTags,
		"urgency", result.UrgencyLevel,
	)
	return result, nil
}

func normalizeTags(raw []string) []evidence.EventTag {
	known := make(map[evidence.EventTag]bool, len(evidence.EventTags))
	for _, tag := range evidence.EventTags {
		known[tag] = true
	}
	var tags []evidence.EventTag
	seen := make(map[evidence.EventTag]bool)
	for _, r := range raw {
		tag := evidence.EventTag(strings.ToLower(strings.TrimSpace(r)))
		if known[tag] && !seen[tag] {
			tags = append(tags, tag)
			seen[tag] = true
		}
	}
	if len(tags) == 0 {
		tags = []evidence.EventTag{evidence.TagOther}
	}
	return tags
}

func normalizeSentiment(raw string) evidence.Sentiment {
	switch s := evidence.Sentiment(strings.ToLower(raw)); s {
	case evidence.SentimentPositive, evidence.SentimentNegative, evidence.SentimentUrgent:
		return s
	default:
		return evidence.SentimentNeutral
	}
}

func splitSentences(text string) []string {
	parts := sentenceSplit.Split(text, -1)
	sentences := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			sentences = append(sentences, p)
		}
	}
	return sentences
}

// containsWord reports whether phrase occurs in lower on word boundaries.
func containsWord(lower, phrase string) bool {
	for start := 0; ; {
		i := strings.Index(lower[start:], phrase)
		if i < 0 {
			return false
		}
		i += start
		end := i + len(phrase)
		if (i == 0 || !isWordByte(lower[i-1])) && (end == len(lower) || !isWordByte(lower[end])) {
			return true
		}
		start = i + 1
	}
}

func isWordByte(b byte) bool {
	return b == '_' || ('a' <= b && b <= 'z') || ('0' <= b && b <= '9')
}

func countWords(text string) int {
	return len(strings.Fields(text))
}

func clampRange(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// TruncateString truncates s to at most maxLen bytes, appending "..." when
// cut. The cut never splits a multi-byte character.
func TruncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	suffix := "..."
	if maxLen <= len(suffix) {
		suffix = ""
	}
	cut := maxLen - len(suffix)
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + suffix
}
