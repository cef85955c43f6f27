package schedule

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"mercator-hq/vesta/pkg/evidence"
	"mercator-hq/vesta/pkg/syncer"
)

// Runner runs one sync batch. *syncer.Orchestrator satisfies it.
type Runner interface {
	Start(ctx context.Context, progress syncer.ProgressFunc) (*syncer.BatchResult, error)
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithAfterRun registers a hook called after every scheduled batch,
// including batches that were rejected or failed.
func WithAfterRun(fn func(ctx context.Context, result *syncer.BatchResult, err error)) Option {
	return func(s *Scheduler) { s.afterRun = fn }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scheduler) { s.logger = logger }
}

// Scheduler triggers sync batches on a cron schedule.
type Scheduler struct {
	runner   Runner
	spec     string
	cron     *cron.Cron
	afterRun func(ctx context.Context, result *syncer.BatchResult, err error)
	logger   *slog.Logger

	mu      sync.Mutex
	running bool
}

// New creates a scheduler for the given cron expression. Standard five-field
// expressions and descriptors such as "@every 5m" are accepted. An empty
// expression yields a scheduler that never runs.
func New(runner Runner, spec string, opts ...Option) (*Scheduler, error) {
	if spec != "" {
		if _, err := cron.ParseStandard(spec); err != nil {
			return nil, fmt.Errorf("invalid sync schedule %q: %w", spec, err)
		}
	}

	s := &Scheduler{
		runner: runner,
		spec:   spec,
		cron:   cron.New(),
		logger: slog.Default().With("component", "schedule"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Start registers the sync job and starts the cron loop. The scheduler
// stops when ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return errors.New("scheduler already running")
	}
	if s.spec == "" {
		s.logger.Info("sync schedule not configured, skipping scheduler")
		return nil
	}

	if _, err := s.cron.AddFunc(s.spec, func() { s.RunOnce(ctx) }); err != nil {
		return fmt.Errorf("failed to schedule sync: %w", err)
	}

	s.cron.Start()
	s.running = true
	s.logger.Info("sync scheduler started", "schedule", s.spec)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

// RunOnce runs a single batch immediately. A batch already in progress is
// not an error here; the tick is skipped.
func (s *Scheduler) RunOnce(ctx context.Context) {
	result, err := s.runner.Start(ctx, nil)
	switch {
	case errors.Is(err, evidence.ErrSyncInProgress):
		s.logger.Debug("sync already running, skipping scheduled batch")
	case err != nil:
		s.logger.Error("scheduled sync failed", "error", err)
	case result.Total > 0:
		s.logger.Info("scheduled sync completed",
			"completed", result.Completed,
			"failed", result.Failed,
			"skipped", result.Skipped,
			"remaining", result.Remaining,
		)
	default:
		s.logger.Debug("scheduled sync completed, queue empty")
	}

	if s.afterRun != nil {
		s.afterRun(ctx, result, err)
	}
}

// Stop stops the cron loop and waits for a running batch to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	<-s.cron.Stop().Done()
	s.running = false
	s.logger.Info("sync scheduler stopped")
}

// IsRunning returns true if the scheduler is running.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.running
}

// NextRun returns the next scheduled sync time, or nil if nothing is scheduled.
func (s *Scheduler) NextRun() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.cron.Entries()
	if len(entries) == 0 {
		return nil
	}

	next := entries[0].Next
	return &next
}
