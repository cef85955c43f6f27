package main

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"mercator-hq/vesta/pkg/config"
	"mercator-hq/vesta/pkg/evidence"
)

func TestOpenQueue(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.QueueConfig
		wantErr string
	}{
		{name: "memory", cfg: config.QueueConfig{Backend: "memory"}},
		{
			name: "sqlite",
			cfg: config.QueueConfig{
				Backend: "sqlite",
				SQLite:  config.QueueSQLiteConfig{Path: filepath.Join(t.TempDir(), "queue.db")},
			},
		},
		{name: "unsupported", cfg: config.QueueConfig{Backend: "postgres"}, wantErr: "unsupported queue backend"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := openQueue(tt.cfg)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("openQueue() error = %v, want %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("openQueue() error = %v", err)
			}
			if err := q.Close(); err != nil {
				t.Errorf("Close() error = %v", err)
			}
		})
	}
}

func TestOpenStore(t *testing.T) {
	s, err := openStore(config.RemoteConfig{Backend: "memory"})
	if err != nil {
		t.Fatalf("openStore(memory) error = %v", err)
	}
	s.Close()

	if _, err := openStore(config.RemoteConfig{Backend: "s3"}); err == nil {
		t.Error("openStore(s3) succeeded, want error")
	}
}

func TestAppAnchor(t *testing.T) {
	t.Run("none", func(t *testing.T) {
		cfg := config.Default()
		cfg.Anchor.Mode = "none"
		a := newApp(cfg)
		defer a.Close()

		anc, err := a.Anchor()
		if err != nil {
			t.Fatalf("Anchor() error = %v", err)
		}
		if anc != nil {
			t.Errorf("Anchor() = %T, want nil", anc)
		}
	})

	t.Run("journal", func(t *testing.T) {
		cfg := config.Default()
		cfg.Anchor.Mode = "journal"
		cfg.Anchor.JournalPath = filepath.Join(t.TempDir(), "anchors.jsonl")
		a := newApp(cfg)

		first, err := a.Anchor()
		if err != nil {
			t.Fatalf("Anchor() error = %v", err)
		}
		second, _ := a.Anchor()
		if first != second {
			t.Error("Anchor() opened the journal twice")
		}
		if err := a.Close(); err != nil {
			t.Errorf("Close() error = %v", err)
		}
	})

	t.Run("unsupported", func(t *testing.T) {
		cfg := config.Default()
		cfg.Anchor.Mode = "ipfs"
		if _, err := newApp(cfg).Anchor(); err == nil {
			t.Error("Anchor() succeeded, want error")
		}
	})
}

func TestDirectory(t *testing.T) {
	org := config.OrganizationConfig{ID: "ngo-1", Name: "Field Monitors", CredibilityRating: 4}

	dir, err := directory(config.LedgerConfig{Organizations: []config.OrganizationConfig{org}})
	if err != nil {
		t.Fatalf("directory() error = %v", err)
	}
	if got := len(dir.List()); got != 1 {
		t.Errorf("List() len = %d, want 1", got)
	}

	_, err = directory(config.LedgerConfig{Organizations: []config.OrganizationConfig{org, org}})
	if err == nil {
		t.Error("directory() accepted duplicate organizations")
	}
}

func TestRedactSecrets(t *testing.T) {
	cfg := config.Default()
	cfg.Analyzers.Manipulation.APIKey = "secret-1"
	cfg.Anchor.APIKey = "secret-2"

	out := redactSecrets(cfg)

	if out.Analyzers.Manipulation.APIKey != redacted {
		t.Errorf("manipulation key = %q, want redacted", out.Analyzers.Manipulation.APIKey)
	}
	if out.Analyzers.Content.APIKey != "" {
		t.Errorf("empty key became %q", out.Analyzers.Content.APIKey)
	}
	if out.Anchor.APIKey != redacted {
		t.Errorf("anchor key = %q, want redacted", out.Anchor.APIKey)
	}
	if cfg.Analyzers.Manipulation.APIKey != "secret-1" || cfg.Anchor.APIKey != "secret-2" {
		t.Error("redactSecrets modified its input")
	}
}

func TestSyncHandlerRejectsGet(t *testing.T) {
	rec := httptest.NewRecorder()
	syncHandler(nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sync", nil))

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusMethodNotAllowed)
	}
	if got := rec.Header().Get("Allow"); got != http.MethodPost {
		t.Errorf("Allow = %q, want POST", got)
	}
}

func TestCommandsRegistered(t *testing.T) {
	for _, path := range [][]string{
		{"capture"},
		{"memo", "add"},
		{"queue", "list"},
		{"sync"},
		{"serve"},
		{"report", "show"},
		{"report", "list"},
		{"report", "export"},
		{"cosign"},
		{"cosign", "list"},
		{"cosign", "orgs"},
		{"config", "validate"},
		{"config", "show"},
		{"version"},
	} {
		cmd, _, err := rootCmd.Find(path)
		if err != nil {
			t.Errorf("Find(%v) error = %v", path, err)
			continue
		}
		if cmd.Name() != path[len(path)-1] {
			t.Errorf("Find(%v) = %q", path, cmd.Name())
		}
	}
}

func TestGuard(t *testing.T) {
	orig := cfg
	t.Cleanup(func() { cfg = orig })

	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})

	cfg = config.Default()
	rec := httptest.NewRecorder()
	guard(ok).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/sync", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("no keys: status = %d, want 200", rec.Code)
	}

	cfg = config.Default()
	cfg.Server.APIKeys = []config.APIKeyConfig{{Name: "ops", Key: "0123456789abcdef"}}
	h := guard(ok)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/sync", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("missing key: status = %d, want 401", rec.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/sync", nil)
	req.Header.Set("Authorization", "Bearer 0123456789abcdef")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("valid key: status = %d, want 200", rec.Code)
	}
}

func TestRunCaptureRejectsEmptyFile(t *testing.T) {
	orig := cfg
	t.Cleanup(func() { cfg = orig })
	cfg = config.Default()
	cfg.Queue.Backend = "memory"

	path := filepath.Join(t.TempDir(), "empty.jpg")
	if err := os.WriteFile(path, nil, 0o600); err != nil {
		t.Fatal(err)
	}

	err := runCapture(captureCmd, []string{path})
	if !errors.Is(err, evidence.ErrEmptyPayload) {
		t.Fatalf("runCapture() error = %v, want ErrEmptyPayload", err)
	}
	if !strings.Contains(err.Error(), "empty.jpg") {
		t.Errorf("error %q should name the file", err)
	}
}
