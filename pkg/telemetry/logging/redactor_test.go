package logging

import (
	"log/slog"
	"testing"

	"mercator-hq/vesta/pkg/config"
)

func TestRedactor_RedactString(t *testing.T) {
	r := NewRedactor(nil)

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"bearer token", "Authorization: Bearer eyJhbGciOi.abc", "Authorization: Bearer ***"},
		{"api key assignment", "api_key=abc123XYZ", "api_key=***"},
		{"email", "contact jane.doe@example.org", "contact ***@***"},
		{"coordinates", "pin 51.507351,-0.127758 saved", "pin [coordinates] saved"},
		{"password", "password: hunter2", "password=***"},
		{"short decimals kept", "score 4.5, 3.2", "score 4.5, 3.2"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.RedactString(tt.input); got != tt.want {
				t.Errorf("RedactString(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestRedactor_CustomPatterns(t *testing.T) {
	r := NewRedactor([]config.RedactPattern{
		{Name: "case", Pattern: `CASE-\d+`, Replacement: "CASE-*"},
		{Name: "broken", Pattern: `([`, Replacement: "x"},
	})

	if got := r.RedactString("see CASE-1234"); got != "see CASE-*" {
		t.Errorf("custom pattern not applied: %q", got)
	}
}

func TestRedactor_RedactAttr(t *testing.T) {
	r := NewRedactor(nil)

	tests := []struct {
		name string
		attr slog.Attr
		want string
	}{
		{"sensitive string", slog.String("APIKey", "abcdefgh"), "abcd***"},
		{"sensitive short", slog.String("token", "abc"), "***"},
		{"sensitive non-string", slog.Int("secret_pin", 1234), "***"},
		{"location float", slog.Float64("longitude", -74.006), "[redacted]"},
		{"plain", slog.String("file_id", "f-1"), "f-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.RedactAttr(tt.attr)
			if got.Value.String() != tt.want {
				t.Errorf("RedactAttr(%v) = %q, want %q", tt.attr, got.Value.String(), tt.want)
			}
		})
	}
}

func TestRedactor_RedactAttrGroup(t *testing.T) {
	r := NewRedactor(nil)

	got := r.RedactAttr(slog.Group("provider", slog.String("name", "sentinel"), slog.String("api_key", "abcdefgh")))
	group := got.Value.Group()
	if len(group) != 2 {
		t.Fatalf("expected 2 attrs, got %d", len(group))
	}
	if group[0].Value.String() != "sentinel" {
		t.Errorf("name = %q", group[0].Value.String())
	}
	if group[1].Value.String() != "abcd***" {
		t.Errorf("api_key = %q", group[1].Value.String())
	}
}

func TestRedactAPIKey(t *testing.T) {
	tests := map[string]string{
		"":           "",
		"abc":        "***",
		"sk-1234567": "sk-1***",
	}
	for in, want := range tests {
		if got := RedactAPIKey(in); got != want {
			t.Errorf("RedactAPIKey(%q) = %q, want %q", in, got, want)
		}
	}
}
