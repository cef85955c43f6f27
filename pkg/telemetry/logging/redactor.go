package logging

import (
	"log/slog"
	"regexp"
	"strings"

	"mercator-hq/vesta/pkg/config"
)

// Redactor removes credentials and personal data from log attributes.
type Redactor struct {
	patterns []*redactPattern
}

type redactPattern struct {
	name        string
	regex       *regexp.Regexp
	replacement string
}

// Built-in pattern names.
const (
	PatternAPIKey      = "api_key"
	PatternBearerToken = "bearer_token"
	PatternEmail       = "email"
	PatternCoordinates = "coordinates"
	PatternPassword    = "password"
)

// defaultPatterns are applied in order before any custom pattern.
var defaultPatterns = []struct {
	name        string
	regex       string
	replacement string
}{
	{PatternBearerToken, `Bearer\s+[a-zA-Z0-9\-._~+/]+=*`, "Bearer ***"},
	{PatternAPIKey, `(?i)(api[-_]?key[=:]\s*)[a-zA-Z0-9\-_]+`, "${1}***"},
	{PatternEmail, `[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`, "***@***"},
	// Decimal latitude/longitude pairs with at least three fractional digits.
	{PatternCoordinates, `-?\d{1,2}\.\d{3,}\s*,\s*-?\d{1,3}\.\d{3,}`, "[coordinates]"},
	{PatternPassword, `(?i)(password|passwd|pwd)[=:]\s*\S+`, "$1=***"},
}

// sensitiveKeys are attribute keys whose values are always replaced.
var sensitiveKeys = []string{
	"password", "passwd", "secret", "token", "api_key", "apikey",
	"authorization", "private_key",
}

// locationKeys are attribute keys carrying capture coordinates.
var locationKeys = map[string]bool{
	"latitude": true, "longitude": true, "lat": true, "lon": true, "lng": true,
	"location": true, "coordinates": true,
}

// NewRedactor creates a Redactor with the built-in patterns followed by the
// custom patterns. Custom patterns that fail to compile are skipped.
func NewRedactor(customPatterns []config.RedactPattern) *Redactor {
	r := &Redactor{}
	for _, p := range defaultPatterns {
		r.patterns = append(r.patterns, &redactPattern{
			name:        p.name,
			regex:       regexp.MustCompile(p.regex),
			replacement: p.replacement,
		})
	}
	for _, p := range customPatterns {
		regex, err := regexp.Compile(p.Pattern)
		if err != nil {
			continue
		}
		r.patterns = append(r.patterns, &redactPattern{
			name:        p.Name,
			regex:       regex,
			replacement: p.Replacement,
		})
	}
	return r
}

// RedactString applies every pattern to value.
func (r *Redactor) RedactString(value string) string {
	if value == "" {
		return value
	}
	for _, p := range r.patterns {
		value = p.regex.ReplaceAllString(value, p.replacement)
	}
	return value
}

// RedactAttr redacts a single attribute. Sensitive keys lose their value,
// location keys are masked and string values are pattern-scrubbed. Groups
// are redacted recursively.
func (r *Redactor) RedactAttr(a slog.Attr) slog.Attr {
	a.Value = a.Value.Resolve()

	if a.Value.Kind() == slog.KindGroup {
		group := a.Value.Group()
		redacted := make([]slog.Attr, len(group))
		for i, ga := range group {
			redacted[i] = r.RedactAttr(ga)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(redacted...)}
	}

	key := strings.ToLower(a.Key)
	if isSensitiveKey(key) {
		if a.Value.Kind() == slog.KindString {
			return slog.String(a.Key, RedactAPIKey(a.Value.String()))
		}
		return slog.String(a.Key, "***")
	}
	if locationKeys[key] {
		return slog.String(a.Key, "[redacted]")
	}

	switch a.Value.Kind() {
	case slog.KindString:
		return slog.String(a.Key, r.RedactString(a.Value.String()))
	case slog.KindAny:
		if err, ok := a.Value.Any().(error); ok {
			return slog.String(a.Key, r.RedactString(err.Error()))
		}
	}
	return a
}

func isSensitiveKey(key string) bool {
	for _, s := range sensitiveKeys {
		if strings.Contains(key, s) {
			return true
		}
	}
	return false
}

// RedactAPIKey redacts an API key, keeping only a prefix.
func RedactAPIKey(apiKey string) string {
	if apiKey == "" {
		return ""
	}
	if len(apiKey) <= 4 {
		return "***"
	}
	return apiKey[:4] + "***"
}
