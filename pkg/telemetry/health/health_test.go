package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"mercator-hq/vesta/pkg/config"
	"mercator-hq/vesta/pkg/connectivity"
)

type fakePinger struct{ err error }

func (f fakePinger) Ping(context.Context) error { return f.err }

func TestNew(t *testing.T) {
	tests := []struct {
		name            string
		timeout         time.Duration
		expectedTimeout time.Duration
	}{
		{name: "default timeout", timeout: 0, expectedTimeout: 5 * time.Second},
		{name: "custom timeout", timeout: 10 * time.Second, expectedTimeout: 10 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := New(tt.timeout)
			if checker.checkTimeout != tt.expectedTimeout {
				t.Errorf("expected timeout %v, got %v", tt.expectedTimeout, checker.checkTimeout)
			}
			if len(checker.ListChecks()) != 0 {
				t.Errorf("expected no checks, got %v", checker.ListChecks())
			}
		})
	}
}

func TestCheckReadiness(t *testing.T) {
	failing := errors.New("disk I/O error")

	tests := []struct {
		name       string
		queueErr   error
		remoteErr  error
		online     bool
		wantStatus string
		wantReady  bool
	}{
		{name: "all healthy", online: true, wantStatus: StatusReady, wantReady: true},
		{name: "offline degrades", online: false, wantStatus: StatusDegraded, wantReady: true},
		{name: "remote failure degrades", remoteErr: failing, online: true, wantStatus: StatusDegraded, wantReady: true},
		{name: "queue failure is unhealthy", queueErr: failing, online: true, wantStatus: StatusUnhealthy, wantReady: false},
		{name: "queue failure dominates", queueErr: failing, remoteErr: failing, online: false, wantStatus: StatusUnhealthy, wantReady: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checker := New(time.Second)
			checker.RegisterCritical("queue", PingCheck("queue", fakePinger{err: tt.queueErr}))
			checker.RegisterCheck("remote", PingCheck("remote", fakePinger{err: tt.remoteErr}))
			checker.RegisterCheck("connectivity", ConnectivityCheck(connectivity.Static(tt.online)))

			status := checker.CheckReadiness(context.Background())
			if status.Status != tt.wantStatus {
				t.Errorf("status = %q, want %q", status.Status, tt.wantStatus)
			}
			if status.Ready() != tt.wantReady {
				t.Errorf("Ready() = %v, want %v", status.Ready(), tt.wantReady)
			}
			if len(status.Checks) != 3 {
				t.Fatalf("expected 3 check results, got %d", len(status.Checks))
			}
			if !status.Checks["queue"].Critical {
				t.Error("queue check should be critical")
			}
			if status.Checks["remote"].Critical {
				t.Error("remote check should not be critical")
			}
		})
	}
}

func TestCheckReadinessNoChecks(t *testing.T) {
	status := New(time.Second).CheckReadiness(context.Background())
	if status.Status != StatusReady {
		t.Errorf("status = %q, want %q", status.Status, StatusReady)
	}
}

func TestCheckTimeout(t *testing.T) {
	checker := New(20 * time.Millisecond)
	checker.RegisterCritical("slow", func(ctx context.Context) error {
		time.Sleep(500 * time.Millisecond)
		return nil
	})

	status := checker.CheckReadiness(context.Background())
	result := status.Checks["slow"]
	if result.Status != StatusUnhealthy {
		t.Errorf("status = %q, want %q", result.Status, StatusUnhealthy)
	}
	if result.Message != ErrCheckTimeout.Error() {
		t.Errorf("message = %q, want %q", result.Message, ErrCheckTimeout.Error())
	}
}

func TestPingCheckWrapsError(t *testing.T) {
	cause := errors.New("database is locked")
	err := PingCheck("queue", fakePinger{err: cause})(context.Background())
	if !errors.Is(err, cause) {
		t.Fatalf("expected wrapped cause, got %v", err)
	}
	if err.Error() != "queue: database is locked" {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestUnregisterCheck(t *testing.T) {
	checker := New(time.Second)
	checker.RegisterCheck("b", func(context.Context) error { return nil })
	checker.RegisterCheck("a", func(context.Context) error { return nil })

	names := checker.ListChecks()
	if len(names) != 2 || names[0] != "a" || names[1] != "b" {
		t.Fatalf("ListChecks() = %v", names)
	}

	checker.UnregisterCheck("a")
	if names := checker.ListChecks(); len(names) != 1 || names[0] != "b" {
		t.Errorf("ListChecks() after unregister = %v", names)
	}
}

func TestHandlers(t *testing.T) {
	checker := New(time.Second)
	checker.RegisterCritical("queue", PingCheck("queue", fakePinger{}))
	checker.RegisterCheck("connectivity", ConnectivityCheck(connectivity.Static(false)))

	cfg := config.Default().Telemetry.Health
	mux := http.NewServeMux()
	Register(mux, checker, cfg, VersionInfo{Version: "1.2.3", Commit: "abc123"})

	tests := []struct {
		name       string
		method     string
		path       string
		wantCode   int
		wantStatus string
	}{
		{name: "liveness", method: http.MethodGet, path: cfg.LivenessPath, wantCode: http.StatusOK, wantStatus: StatusOK},
		{name: "readiness degraded still 200", method: http.MethodGet, path: cfg.ReadinessPath, wantCode: http.StatusOK, wantStatus: StatusDegraded},
		{name: "post rejected", method: http.MethodPost, path: cfg.LivenessPath, wantCode: http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))

			if rec.Code != tt.wantCode {
				t.Fatalf("code = %d, want %d", rec.Code, tt.wantCode)
			}
			if tt.wantStatus == "" {
				return
			}
			var status HealthStatus
			if err := json.NewDecoder(rec.Body).Decode(&status); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if status.Status != tt.wantStatus {
				t.Errorf("status = %q, want %q", status.Status, tt.wantStatus)
			}
		})
	}
}

func TestReadinessHandlerUnhealthy(t *testing.T) {
	checker := New(time.Second)
	checker.RegisterCritical("queue", PingCheck("queue", fakePinger{err: errors.New("closed")}))

	rec := httptest.NewRecorder()
	checker.ReadinessHandler()(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("code = %d, want %d", rec.Code, http.StatusServiceUnavailable)
	}
}

func TestVersionHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	VersionHandler(VersionInfo{Version: "1.2.3", Commit: "abc123"})(rec, httptest.NewRequest(http.MethodGet, "/version", nil))

	var info VersionInfo
	if err := json.NewDecoder(rec.Body).Decode(&info); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if info.Version != "1.2.3" || info.Commit != "abc123" {
		t.Errorf("unexpected version info %+v", info)
	}
	if info.GoVersion == "" {
		t.Error("expected go version to be filled in")
	}
}

func TestRegisterDisabled(t *testing.T) {
	cfg := config.Default().Telemetry.Health
	cfg.Enabled = false

	mux := http.NewServeMux()
	Register(mux, New(time.Second), cfg, VersionInfo{})

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, cfg.LivenessPath, nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("code = %d, want %d", rec.Code, http.StatusNotFound)
	}
}
