package query

import (
	"fmt"
	"strings"
	"time"

	"mercator-hq/vesta/pkg/evidence"
)

const (
	// DefaultLimit is the number of reports returned when no limit is set.
	DefaultLimit = 100

	// MaxLimit is the maximum number of reports a single query may return.
	MaxLimit = 10000
)

var validStatuses = map[evidence.VerificationStatus]bool{
	evidence.VerificationPending:  true,
	evidence.VerificationVerified: true,
	evidence.VerificationDisputed: true,
	evidence.VerificationFlagged:  true,
}

// Validate validates a report query and returns a QueryError if any
// parameter is out of range.
func Validate(q *evidence.ReportQuery) error {
	if q.Limit < 0 {
		return evidence.NewQueryError(q, fmt.Errorf("limit must be >= 0, got %d", q.Limit))
	}
	if q.Limit > MaxLimit {
		return evidence.NewQueryError(q, fmt.Errorf("limit must be <= %d, got %d", MaxLimit, q.Limit))
	}

	if q.Offset < 0 {
		return evidence.NewQueryError(q, fmt.Errorf("offset must be >= 0, got %d", q.Offset))
	}

	if q.MinScore != nil && (*q.MinScore < 0 || *q.MinScore > 100) {
		return evidence.NewQueryError(q, fmt.Errorf("min_score must be between 0 and 100, got %d", *q.MinScore))
	}

	if q.Status != "" && !validStatuses[q.Status] {
		return evidence.NewQueryError(q, fmt.Errorf("invalid status: %s (must be 'pending', 'verified', 'disputed', or 'flagged')", q.Status))
	}

	if q.Since != nil && q.Since.After(time.Now().Add(time.Minute)) {
		return evidence.NewQueryError(q, fmt.Errorf("since is in the future: %s", q.Since.Format(time.RFC3339)))
	}

	return nil
}

// ApplyDefaults applies default values to a query.
func ApplyDefaults(q *evidence.ReportQuery) {
	if q.Limit == 0 {
		q.Limit = DefaultLimit
	}
}

// ParseStatus parses a verification status as typed on the command line.
// The empty string means any status.
func ParseStatus(s string) (evidence.VerificationStatus, error) {
	status := evidence.VerificationStatus(strings.ToLower(strings.TrimSpace(s)))
	if status == "" || validStatuses[status] {
		return status, nil
	}
	return "", fmt.Errorf("%w: unknown status %q", evidence.ErrInvalidQuery, s)
}

// ParseSince accepts an RFC 3339 timestamp or a duration such as "24h",
// which is taken relative to now.
func ParseSince(s string, now time.Time) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	if d, err := time.ParseDuration(s); err == nil {
		t := now.Add(-d)
		return &t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, fmt.Errorf("%w: since must be RFC 3339 or a duration, got %q", evidence.ErrInvalidQuery, s)
	}
	return &t, nil
}
