package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"mercator-hq/vesta/pkg/analyzers"
	"mercator-hq/vesta/pkg/anchor"
	"mercator-hq/vesta/pkg/config"
	"mercator-hq/vesta/pkg/connectivity"
	"mercator-hq/vesta/pkg/evidence"
	"mercator-hq/vesta/pkg/evidence/queue"
	"mercator-hq/vesta/pkg/evidence/storage"
	"mercator-hq/vesta/pkg/ledger"
	"mercator-hq/vesta/pkg/pipeline"
	"mercator-hq/vesta/pkg/syncer"
)

// app holds the components built from one configuration. Fields are opened
// lazily so that a command touching only the queue never opens the remote
// store.
type app struct {
	cfg *config.Config

	queue   evidence.Queue
	store   evidence.ReportStore
	anchor  anchor.Anchor
	closers []io.Closer
}

func newApp(cfg *config.Config) *app {
	return &app{cfg: cfg}
}

// Close releases everything the app opened, in reverse order.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// Queue opens the local evidence queue.
func (a *app) Queue() (evidence.Queue, error) {
	if a.queue != nil {
		return a.queue, nil
	}
	q, err := openQueue(a.cfg.Queue)
	if err != nil {
		return nil, err
	}
	a.queue = q
	a.closers = append(a.closers, q)
	return q, nil
}

// Store opens the remote report store.
func (a *app) Store() (evidence.ReportStore, error) {
	if a.store != nil {
		return a.store, nil
	}
	s, err := openStore(a.cfg.Remote)
	if err != nil {
		return nil, err
	}
	a.store = s
	a.closers = append(a.closers, s)
	return s, nil
}

// Anchor opens the configured anchor backend. It returns nil in "none" mode.
func (a *app) Anchor() (anchor.Anchor, error) {
	if a.anchor != nil || a.cfg.Anchor.Mode == "none" {
		return a.anchor, nil
	}
	switch a.cfg.Anchor.Mode {
	case "journal":
		j, err := anchor.OpenJournal(a.cfg.Anchor.JournalPath)
		if err != nil {
			return nil, err
		}
		a.anchor = j
		a.closers = append(a.closers, j)
	case "http":
		h, err := anchor.NewHTTPAnchor(analyzers.ProviderConfig{
			Name:     "http",
			Endpoint: a.cfg.Anchor.Endpoint,
			APIKey:   a.cfg.Anchor.APIKey,
			Timeout:  a.cfg.Anchor.Timeout,
		})
		if err != nil {
			return nil, err
		}
		a.anchor = h
	default:
		return nil, fmt.Errorf("unsupported anchor mode: %s", a.cfg.Anchor.Mode)
	}
	return a.anchor, nil
}

// Connectivity builds the online check.
func (a *app) Connectivity() connectivity.Checker {
	c := a.cfg.Remote.Connectivity
	if c.Mode == "http" {
		return connectivity.NewHTTPProbe(c.ProbeURL, c.Timeout)
	}
	return connectivity.Static(!c.Offline)
}

// Analyzers builds the analyzer set.
func (a *app) Analyzers() *analyzers.Set {
	return analyzers.NewSet(analyzers.Config{
		Manipulation:  providerConfig(a.cfg.Analyzers.Manipulation),
		Transcription: providerConfig(a.cfg.Analyzers.Transcription),
		Content:       providerConfig(a.cfg.Analyzers.Content),
	})
}

// recorder receives pipeline and sync metrics.
type recorder interface {
	pipeline.Recorder
	syncer.Recorder
}

// Orchestrator wires the pipeline and the sync orchestrator. rec may be nil.
func (a *app) Orchestrator(rec recorder) (*syncer.Orchestrator, error) {
	q, err := a.Queue()
	if err != nil {
		return nil, err
	}
	store, err := a.Store()
	if err != nil {
		return nil, err
	}
	anc, err := a.Anchor()
	if err != nil {
		return nil, err
	}

	set := a.Analyzers()
	var opts []pipeline.Option
	if rec != nil {
		opts = append(opts, pipeline.WithRecorder(rec))
	}
	p, err := pipeline.New(set, pipeline.Config{
		Weights: pipeline.Weights{
			Deepfake:    a.cfg.Pipeline.Weights.Deepfake,
			Credibility: a.cfg.Pipeline.Weights.Credibility,
			Metadata:    a.cfg.Pipeline.Weights.Metadata,
		},
		AnalyzerTimeout: a.cfg.Analyzers.Timeout,
	}, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create pipeline: %w", err)
	}

	deps := syncer.Deps{
		Queue:        q,
		Verifier:     p,
		Store:        store,
		Connectivity: a.Connectivity(),
		Transcriber:  set.Transcriber,
		Content:      set.Content,
	}
	if anc != nil {
		deps.Anchor = anc
	}
	if rec != nil {
		deps.Recorder = rec
	}

	return syncer.New(deps, &syncer.Config{
		MaxRetries:    a.cfg.Sync.MaxRetries,
		BackoffBase:   a.cfg.Sync.BackoffBase,
		BackoffMax:    a.cfg.Sync.BackoffMax,
		OpTimeout:     a.cfg.Queue.OpTimeout,
		UpsertTimeout: a.cfg.Sync.UpsertTimeout,
		AnchorTimeout: a.cfg.Anchor.Timeout,
		MemoMIMEType:  a.cfg.Sync.MemoMIMEType,
	})
}

// Ledger builds the co-signature ledger over the remote store.
func (a *app) Ledger() (*ledger.Ledger, error) {
	store, err := a.Store()
	if err != nil {
		return nil, err
	}
	dir, err := directory(a.cfg.Ledger)
	if err != nil {
		return nil, err
	}
	return ledger.New(store, dir), nil
}

func openQueue(cfg config.QueueConfig) (evidence.Queue, error) {
	switch cfg.Backend {
	case "sqlite":
		q, err := queue.Open(&queue.SQLiteConfig{
			Path:        cfg.SQLite.Path,
			BusyTimeout: cfg.SQLite.BusyTimeout,
			OpTimeout:   cfg.OpTimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to open queue: %w", err)
		}
		return q, nil
	case "memory":
		slog.Warn("using in-memory queue, captures are lost on exit")
		return queue.NewMemoryQueue(), nil
	default:
		return nil, fmt.Errorf("unsupported queue backend: %s (supported: sqlite, memory)", cfg.Backend)
	}
}

func openStore(cfg config.RemoteConfig) (evidence.ReportStore, error) {
	switch cfg.Backend {
	case "sqlite":
		s, err := storage.NewSQLiteStorage(&storage.SQLiteConfig{
			Path:         cfg.SQLite.Path,
			MaxOpenConns: cfg.SQLite.MaxOpenConns,
			MaxIdleConns: cfg.SQLite.MaxIdleConns,
			WALMode:      cfg.SQLite.WALMode,
			BusyTimeout:  cfg.SQLite.BusyTimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to open report store: %w", err)
		}
		return s, nil
	case "memory":
		return storage.NewMemoryStorage(), nil
	default:
		return nil, fmt.Errorf("unsupported remote backend: %s (supported: sqlite, memory)", cfg.Backend)
	}
}

func providerConfig(p config.ProviderConfig) analyzers.ProviderConfig {
	return analyzers.ProviderConfig{
		Name:       p.Name,
		Endpoint:   p.Endpoint,
		APIKey:     p.APIKey,
		Timeout:    p.Timeout,
		MaxRetries: p.MaxRetries,
	}
}

func directory(cfg config.LedgerConfig) (*ledger.StaticDirectory, error) {
	orgs := make([]evidence.Organization, 0, len(cfg.Organizations))
	for _, o := range cfg.Organizations {
		orgs = append(orgs, evidence.Organization{
			ID:                o.ID,
			Name:              o.Name,
			VerifierName:      o.VerifierName,
			VerifierRole:      o.VerifierRole,
			CredibilityRating: o.CredibilityRating,
		})
	}
	return ledger.NewStaticDirectory(orgs)
}
