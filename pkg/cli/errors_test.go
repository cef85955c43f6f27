package cli

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"mercator-hq/vesta/pkg/evidence"
)

func TestConfigError(t *testing.T) {
	tests := []struct {
		err  *ConfigError
		want string
	}{
		{NewConfigError("sync.schedule", "invalid cron"), "config error in sync.schedule: invalid cron"},
		{NewConfigError("", "file not found"), "config error: file not found"},
	}

	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("Error() = %q, want %q", got, tt.want)
		}
	}
}

func TestCommandErrorUnwrap(t *testing.T) {
	cause := evidence.NewNotFoundError("report", "r-1")
	err := NewCommandError("report show", cause)

	if !errors.Is(err, evidence.ErrNotFound) {
		t.Error("expected CommandError to unwrap to ErrNotFound")
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "nil", err: nil, want: ExitOK},
		{name: "config", err: fmt.Errorf("load: %w", NewConfigError("", "bad")), want: ExitConfig},
		{name: "sync busy", err: NewCommandError("sync", &evidence.SyncInProgressError{StartedAt: time.Now()}), want: ExitSyncBusy},
		{name: "not found", err: NewCommandError("cosign", evidence.NewNotFoundError("report", "x")), want: ExitNotFound},
		{name: "partial", err: &PartialError{Failed: 2, Total: 5}, want: ExitPartialRun},
		{name: "other", err: errors.New("boom"), want: ExitFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCode(tt.err); got != tt.want {
				t.Errorf("ExitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}
