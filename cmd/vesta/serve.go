package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"mercator-hq/vesta/pkg/cli"
	"mercator-hq/vesta/pkg/evidence"
	"mercator-hq/vesta/pkg/inbox"
	"mercator-hq/vesta/pkg/schedule"
	"mercator-hq/vesta/pkg/security/auth"
	"mercator-hq/vesta/pkg/syncer"
	"mercator-hq/vesta/pkg/telemetry"
	"mercator-hq/vesta/pkg/telemetry/health"
	"mercator-hq/vesta/pkg/telemetry/metrics"
	"mercator-hq/vesta/pkg/telemetry/tracing"
)

const shutdownTimeout = 15 * time.Second

var serveFlags struct {
	listenAddress string
	syncOnStart   bool
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the node: scheduled sync, inbox capture and health endpoints",
	Long: `Run vesta as a long-lived node.

The node syncs the queue on the configured schedule, captures files dropped
into the inbox directory when the inbox is enabled, and serves metrics,
health, readiness and version endpoints. POST /sync triggers a batch.

Examples:
  vesta serve
  vesta serve --listen 0.0.0.0:9090
  vesta serve --sync-on-start=false`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVarP(&serveFlags.listenAddress, "listen", "l", "", "override listen address")
	serveCmd.Flags().BoolVar(&serveFlags.syncOnStart, "sync-on-start", true, "run one sync batch at startup")
}

func runServe(cmd *cobra.Command, args []string) error {
	if serveFlags.listenAddress != "" {
		cfg.Server.ListenAddress = serveFlags.listenAddress
	}

	tel, err := telemetry.New(&cfg.Telemetry, versionInfo())
	if err != nil {
		return cli.NewConfigError("telemetry", err.Error())
	}

	ctx, cancel := cli.SetupSignalHandler()
	defer cancel()

	a := newApp(cfg)
	defer a.Close()

	q, err := a.Queue()
	if err != nil {
		return cli.NewCommandError("serve", err)
	}
	store, err := a.Store()
	if err != nil {
		return cli.NewCommandError("serve", err)
	}

	collector := tel.Metrics()
	var rec recorder
	if collector != nil {
		rec = collector
	}

	orchestrator, err := a.Orchestrator(rec)
	if err != nil {
		return cli.NewCommandError("serve", err)
	}

	registerChecks(tel.Health(), q, store, a)

	refreshDepth := func(ctx context.Context) {
		if collector == nil {
			return
		}
		items, err := q.List(ctx)
		if err != nil {
			slog.Warn("failed to read queue depth", "error", err)
			return
		}
		collector.UpdateQueueDepth(items)
	}
	refreshDepth(ctx)

	scheduler, err := schedule.New(orchestrator, cfg.Sync.Schedule,
		schedule.WithAfterRun(func(ctx context.Context, _ *syncer.BatchResult, _ error) {
			refreshDepth(ctx)
		}),
	)
	if err != nil {
		return cli.NewConfigError("sync.schedule", err.Error())
	}
	if err := scheduler.Start(ctx); err != nil {
		return cli.NewCommandError("serve", err)
	}
	defer scheduler.Stop()

	if cfg.Inbox.Enabled {
		watcher, err := newInboxWatcher(q, collector, refreshDepth)
		if err != nil {
			return cli.NewCommandError("serve", err)
		}
		defer watcher.Stop()
		go func() {
			if err := watcher.Watch(ctx); err != nil {
				slog.Error("inbox watcher exited", "error", err)
			}
		}()
	}

	if serveFlags.syncOnStart {
		go scheduler.RunOnce(ctx)
	}

	mux := http.NewServeMux()
	tel.Mount(mux)
	mux.Handle("/sync", guard(syncHandler(orchestrator)))

	srv := &http.Server{
		Addr:         cfg.Server.ListenAddress,
		Handler:      tracing.HTTPMiddleware(mux),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errChan := make(chan error, 1)
	go func() {
		slog.Info("starting HTTP server", "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	fmt.Printf("✓ Listening on %s\n", srv.Addr)
	if next := scheduler.NextRun(); next != nil {
		fmt.Printf("✓ Next scheduled sync: %s\n", next.Format(time.RFC3339))
	}
	fmt.Println("\nPress Ctrl+C to stop")

	select {
	case err := <-errChan:
		return cli.NewCommandError("serve", err)
	case <-ctx.Done():
	}

	fmt.Println("\nShutting down gracefully...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()

	var errs []error
	if err := srv.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("server shutdown: %w", err))
	}
	if err := tel.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("telemetry shutdown: %w", err))
	}
	if err := errors.Join(errs...); err != nil {
		slog.Error("shutdown failed", "error", err)
		return cli.NewCommandError("serve", err)
	}

	fmt.Println("✓ Stopped")
	return nil
}

// registerChecks wires the queue as a critical check and the remote side as
// non-critical ones, so an offline node reports degraded rather than down.
func registerChecks(checker *health.Checker, q evidence.Queue, store evidence.ReportStore, a *app) {
	if p, ok := q.(health.Pinger); ok {
		checker.RegisterCritical("queue", health.PingCheck("queue", p))
	}
	if p, ok := store.(health.Pinger); ok {
		checker.RegisterCheck("remote", health.PingCheck("remote", p))
	}
	checker.RegisterCheck("connectivity", health.ConnectivityCheck(a.Connectivity()))
}

func newInboxWatcher(q evidence.Queue, collector *metrics.Collector, refreshDepth func(context.Context)) (*inbox.Watcher, error) {
	device, _ := os.Hostname()

	var opts []inbox.Option
	if collector != nil {
		opts = append(opts, inbox.WithCaptureFunc(func(_ string, md evidence.ItemMetadata) {
			collector.RecordCapture(evidence.KindFromMIME(md.FileType), "inbox")
			refreshDepth(context.Background())
		}))
	}

	return inbox.New(inbox.Config{
		Path:         cfg.Inbox.Path,
		ProcessedDir: cfg.Inbox.ProcessedDir,
		Debounce:     cfg.Inbox.Debounce,
		Device:       device,
	}, q, opts...)
}

// guard requires an operator key when server.api_keys is set.
func guard(next http.Handler) http.Handler {
	if len(cfg.Server.APIKeys) == 0 {
		slog.Warn("no server api keys configured, POST /sync is unauthenticated")
		return next
	}
	keys := make([]auth.Key, 0, len(cfg.Server.APIKeys))
	for _, k := range cfg.Server.APIKeys {
		keys = append(keys, auth.Key{Name: k.Name, Secret: k.Key, Enabled: !k.Disabled})
	}
	return auth.NewMiddleware(auth.NewKeyValidator(keys), nil).Handle(next)
}

// syncHandler runs one batch per POST and answers with the batch result.
func syncHandler(orchestrator *syncer.Orchestrator) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		if op, ok := auth.OperatorFromContext(r.Context()); ok {
			slog.InfoContext(r.Context(), "sync requested", "operator", op.Name)
		}
		result, err := orchestrator.Start(r.Context(), nil)
		switch {
		case errors.Is(err, evidence.ErrSyncInProgress):
			http.Error(w, err.Error(), http.StatusConflict)
			return
		case err != nil:
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(result); err != nil {
			slog.Warn("failed to write sync result", "error", err)
		}
	})
}
