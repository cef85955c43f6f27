package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"mercator-hq/vesta/pkg/cli"
	"mercator-hq/vesta/pkg/evidence"
)

var queueFlags struct {
	status string
	format string
}

var queueCmd = &cobra.Command{
	Use:   "queue",
	Short: "Inspect the local evidence queue",
}

var queueListCmd = &cobra.Command{
	Use:   "list",
	Short: "List queued evidence items",
	Long: `List items in the local evidence queue, oldest first.

Examples:
  # Everything still on the device
  vesta queue list

  # Items waiting for a retry
  vesta queue list --status failed

  # Machine readable
  vesta queue list --format json`,
	Args: cobra.NoArgs,
	RunE: runQueueList,
}

func init() {
	rootCmd.AddCommand(queueCmd)
	queueCmd.AddCommand(queueListCmd)

	queueListCmd.Flags().StringVar(&queueFlags.status, "status", "", "filter by status: pending, syncing, synced, failed")
	queueListCmd.Flags().StringVar(&queueFlags.format, "format", "text", "output format: text, json, csv")
}

// itemTable renders queue items as rows.
type itemTable []*evidence.EvidenceItem

func (t itemTable) Header() []string {
	return []string{"ID", "STATUS", "KIND", "FILE", "SIZE", "RETRIES", "NEXT ATTEMPT", "CREATED"}
}

func (t itemTable) Rows() [][]string {
	rows := make([][]string, 0, len(t))
	for _, item := range t {
		next := "-"
		if !item.NextAttemptAt.IsZero() {
			next = item.NextAttemptAt.Format(time.RFC3339)
		}
		rows = append(rows, []string{
			item.ID,
			string(item.Status),
			item.Kind().String(),
			item.Label(),
			strconv.FormatInt(item.Metadata.FileSize, 10),
			strconv.Itoa(item.RetryCount),
			next,
			item.CreatedAt.Format(time.RFC3339),
		})
	}
	return rows
}

func runQueueList(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(queueFlags.format)
	if err != nil {
		return err
	}

	var statuses []evidence.ItemStatus
	if queueFlags.status != "" {
		status := evidence.ItemStatus(queueFlags.status)
		switch status {
		case evidence.StatusPending, evidence.StatusSyncing, evidence.StatusSynced, evidence.StatusFailed:
			statuses = append(statuses, status)
		default:
			return fmt.Errorf("unknown status %q", queueFlags.status)
		}
	}

	a := newApp(cfg)
	defer a.Close()

	q, err := a.Queue()
	if err != nil {
		return cli.NewCommandError("queue list", err)
	}
	items, err := q.List(cmd.Context(), statuses...)
	if err != nil {
		return cli.NewCommandError("queue list", err)
	}

	if format == cli.FormatText && len(items) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "Queue is empty.")
		return nil
	}
	if format == cli.FormatJSON {
		return cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), map[string]interface{}{
			"total": len(items),
			"items": items,
		})
	}
	return cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), itemTable(items))
}
