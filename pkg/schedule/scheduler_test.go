package schedule

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"mercator-hq/vesta/pkg/evidence"
	"mercator-hq/vesta/pkg/syncer"
)

type fakeRunner struct {
	calls  atomic.Int32
	result *syncer.BatchResult
	err    error
}

func (f *fakeRunner) Start(ctx context.Context, progress syncer.ProgressFunc) (*syncer.BatchResult, error) {
	f.calls.Add(1)
	return f.result, f.err
}

func TestNew(t *testing.T) {
	tests := []struct {
		name      string
		spec      string
		wantError bool
	}{
		{name: "every descriptor", spec: "@every 5m"},
		{name: "standard expression", spec: "*/15 * * * *"},
		{name: "empty schedule", spec: ""},
		{name: "invalid schedule", spec: "every five minutes", wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(&fakeRunner{}, tt.spec)
			if (err != nil) != tt.wantError {
				t.Errorf("New() error = %v, wantError %v", err, tt.wantError)
			}
		})
	}
}

func TestStartAndStop(t *testing.T) {
	s, err := New(&fakeRunner{result: &syncer.BatchResult{}}, "@every 1h")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if !s.IsRunning() {
		t.Fatal("expected scheduler to be running")
	}
	if err := s.Start(ctx); err == nil {
		t.Error("expected error starting twice")
	}

	next := s.NextRun()
	if next == nil {
		t.Fatal("expected next run time")
	}
	if d := time.Until(*next); d <= 0 || d > time.Hour {
		t.Errorf("next run in %v, want within an hour", d)
	}

	s.Stop()
	if s.IsRunning() {
		t.Error("expected scheduler to be stopped")
	}
}

func TestStartEmptySchedule(t *testing.T) {
	s, err := New(&fakeRunner{}, "")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := s.Start(context.Background()); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	if s.IsRunning() {
		t.Error("scheduler with empty schedule should not run")
	}
	if s.NextRun() != nil {
		t.Error("expected no next run")
	}
}

func TestStopOnContextCancel(t *testing.T) {
	s, err := New(&fakeRunner{}, "@every 1h")
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	if err := s.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	cancel()

	deadline := time.Now().Add(2 * time.Second)
	for s.IsRunning() && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if s.IsRunning() {
		t.Error("scheduler still running after context cancel")
	}
}

func TestRunOnceCallsHook(t *testing.T) {
	tests := []struct {
		name   string
		result *syncer.BatchResult
		err    error
	}{
		{name: "completed batch", result: &syncer.BatchResult{Total: 2, Completed: 2}},
		{name: "empty queue", result: &syncer.BatchResult{}},
		{name: "sync in progress", err: &evidence.SyncInProgressError{StartedAt: time.Now()}},
		{name: "list failure", err: errors.New("queue closed")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &fakeRunner{result: tt.result, err: tt.err}

			var gotErr error
			var hooked bool
			s, err := New(runner, "@every 1h", WithAfterRun(func(ctx context.Context, result *syncer.BatchResult, err error) {
				hooked = true
				gotErr = err
			}))
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}

			s.RunOnce(context.Background())

			if runner.calls.Load() != 1 {
				t.Errorf("runner called %d times, want 1", runner.calls.Load())
			}
			if !hooked {
				t.Fatal("after-run hook not called")
			}
			if !errors.Is(gotErr, tt.err) {
				t.Errorf("hook error = %v, want %v", gotErr, tt.err)
			}
		})
	}
}
