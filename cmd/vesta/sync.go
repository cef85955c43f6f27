package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"mercator-hq/vesta/pkg/cli"
	"mercator-hq/vesta/pkg/syncer"
)

var syncFlags struct {
	quiet bool
	json  bool
}

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Verify and upload queued evidence",
	Long: `Run one sync batch: every eligible queued item is verified, stored
remotely, anchored and removed from the device. Items that fail are kept
and retried after a backoff delay. Pending voice memos are transcribed.

The command exits with status 3 when another sync is already running and
with status 5 when some items failed.

Examples:
  vesta sync
  vesta sync --json`,
	Args: cobra.NoArgs,
	RunE: runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)

	syncCmd.Flags().BoolVarP(&syncFlags.quiet, "quiet", "q", false, "do not print progress")
	syncCmd.Flags().BoolVar(&syncFlags.json, "json", false, "print the batch result as JSON")
}

func runSync(cmd *cobra.Command, args []string) error {
	ctx, cancel := cli.SetupSignalHandler()
	defer cancel()

	a := newApp(cfg)
	defer a.Close()

	orchestrator, err := a.Orchestrator(nil)
	if err != nil {
		return cli.NewCommandError("sync", err)
	}

	var progress syncer.ProgressFunc
	reporter := cli.NewProgressReporter(os.Stderr)
	if !syncFlags.quiet && !syncFlags.json {
		progress = cli.SyncProgress(reporter)
	}

	result, err := orchestrator.Start(ctx, progress)
	if err != nil {
		return cli.NewCommandError("sync", err)
	}
	if progress != nil && result.Total > 0 {
		reporter.Finish()
	}

	out := cmd.OutOrStdout()
	if syncFlags.json {
		if err := cli.NewFormatter(cli.FormatJSON).FormatTo(out, result); err != nil {
			return err
		}
	} else {
		printBatch(cmd, result)
	}

	if result.Failed > 0 {
		return &cli.PartialError{Failed: result.Failed, Total: result.Total}
	}
	return nil
}

func printBatch(cmd *cobra.Command, result *syncer.BatchResult) {
	out := cmd.OutOrStdout()
	if result.Total == 0 && result.MemosProcessed == 0 && result.MemosFailed == 0 && result.MemosSkipped == 0 {
		fmt.Fprintln(out, "Nothing to sync.")
		return
	}

	fmt.Fprintf(out, "Synced %d of %d items in %s\n", result.Completed, result.Total, result.Duration.Round(time.Millisecond))
	if result.Failed > 0 {
		fmt.Fprintf(out, "  Failed:    %d (will retry)\n", result.Failed)
	}
	if result.Skipped > 0 {
		fmt.Fprintf(out, "  Skipped:   %d (backing off or parked)\n", result.Skipped)
	}
	if result.Remaining > 0 {
		fmt.Fprintf(out, "  Remaining: %d (went offline)\n", result.Remaining)
	}
	if result.MemosProcessed > 0 || result.MemosFailed > 0 || result.MemosSkipped > 0 {
		fmt.Fprintf(out, "  Memos:     %d transcribed, %d failed, %d skipped\n",
			result.MemosProcessed, result.MemosFailed, result.MemosSkipped)
	}
	for _, e := range result.Errors {
		fmt.Fprintf(out, "  ✗ %s\n", e)
	}
}
