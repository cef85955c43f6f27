/*
Package cli provides command-line helpers for the vesta command.

Output Formatting:

Commands render results as text, JSON or CSV. Values implementing Table
are rendered as aligned columns or CSV rows:

	formatter := cli.NewFormatter(cli.FormatCSV)
	if err := formatter.FormatTo(os.Stdout, itemsTable(items)); err != nil {
		return err
	}

Progress Reporting:

A sync batch reports progress through the orchestrator callback:

	progress := cli.NewProgressReporter(os.Stderr)
	result, err := orchestrator.Start(ctx, cli.SyncProgress(progress))
	progress.Finish()

Exit Codes:

ExitCode maps command errors to process exit codes, so scripts can tell a
configuration error from a sync that is already running.
*/
package cli
