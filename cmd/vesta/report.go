package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"mercator-hq/vesta/pkg/cli"
	"mercator-hq/vesta/pkg/evidence"
	"mercator-hq/vesta/pkg/evidence/export"
	"mercator-hq/vesta/pkg/evidence/query"
)

var reportFlags struct {
	byFile   bool
	status   string
	minScore int
	since    string
	limit    int
	offset   int
	output   string

	showFormat   string
	listFormat   string
	exportFormat string
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Query verification reports",
	Long: `Query and export verification reports in the remote store.

Subcommands:
  show    - Show a single report
  list    - List reports with filters
  export  - Export reports as JSON or CSV`,
}

var reportShowCmd = &cobra.Command{
	Use:   "show ID",
	Short: "Show a verification report",
	Long: `Show a verification report by report ID, or by queue item ID with --by-file.

Examples:
  vesta report show 6f1c2d3e-...
  vesta report show --by-file 0b9a8c7d-... --format json`,
	Args: cobra.ExactArgs(1),
	RunE: runReportShow,
}

var reportListCmd = &cobra.Command{
	Use:   "list",
	Short: "List verification reports",
	Long: `List verification reports, newest first.

Examples:
  # Reports flagged for review in the last day
  vesta report list --status flagged --since 24h

  # High-trust reports
  vesta report list --min-score 80`,
	Args: cobra.NoArgs,
	RunE: runReportList,
}

var reportExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export verification reports",
	Long: `Export verification reports for archiving or sharing with partners.
Reports are streamed from the store, so large exports do not load every
report into memory.

Examples:
  vesta report export --format json -o reports.json
  vesta report export --status verified --format csv -o verified.csv`,
	Args: cobra.NoArgs,
	RunE: runReportExport,
}

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.AddCommand(reportShowCmd, reportListCmd, reportExportCmd)

	reportShowCmd.Flags().BoolVar(&reportFlags.byFile, "by-file", false, "look up by queue item ID")
	reportShowCmd.Flags().StringVar(&reportFlags.showFormat, "format", "text", "output format: text, json")

	for _, c := range []*cobra.Command{reportListCmd, reportExportCmd} {
		c.Flags().StringVar(&reportFlags.status, "status", "", "filter by status: pending, verified, disputed, flagged")
		c.Flags().IntVar(&reportFlags.minScore, "min-score", -1, "minimum trust score")
		c.Flags().StringVar(&reportFlags.since, "since", "", "only reports created since (RFC 3339 or duration, e.g. 24h)")
		c.Flags().IntVar(&reportFlags.limit, "limit", query.DefaultLimit, "max results")
		c.Flags().IntVar(&reportFlags.offset, "offset", 0, "pagination offset")
	}
	reportListCmd.Flags().StringVar(&reportFlags.listFormat, "format", "text", "output format: text, json, csv")
	reportExportCmd.Flags().StringVar(&reportFlags.exportFormat, "format", "json", "export format: json, csv")
	reportExportCmd.Flags().StringVarP(&reportFlags.output, "output", "o", "", "output file (default: stdout)")
}

func buildReportQuery() (*evidence.ReportQuery, error) {
	status, err := query.ParseStatus(reportFlags.status)
	if err != nil {
		return nil, err
	}
	since, err := query.ParseSince(reportFlags.since, time.Now())
	if err != nil {
		return nil, err
	}

	q := &evidence.ReportQuery{
		Status: status,
		Since:  since,
		Limit:  reportFlags.limit,
		Offset: reportFlags.offset,
	}
	if reportFlags.minScore >= 0 {
		score := reportFlags.minScore
		q.MinScore = &score
	}

	query.ApplyDefaults(q)
	if err := query.Validate(q); err != nil {
		return nil, err
	}
	return q, nil
}

func runReportShow(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(reportFlags.showFormat)
	if err != nil {
		return err
	}

	a := newApp(cfg)
	defer a.Close()

	store, err := a.Store()
	if err != nil {
		return cli.NewCommandError("report show", err)
	}

	var report *evidence.VerificationReport
	if reportFlags.byFile {
		report, err = store.GetByFileID(cmd.Context(), args[0])
	} else {
		report, err = store.Get(cmd.Context(), args[0])
	}
	if err != nil {
		return cli.NewCommandError("report show", err)
	}

	if format == cli.FormatJSON {
		return cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), report)
	}
	printReport(cmd.OutOrStdout(), report)
	return nil
}

// reportTable renders reports as rows.
type reportTable []*evidence.VerificationReport

func (t reportTable) Header() []string {
	return []string{"ID", "FILE ID", "STATUS", "SCORE", "COSIGNED", "ANCHORED", "CREATED"}
}

func (t reportTable) Rows() [][]string {
	rows := make([][]string, 0, len(t))
	for _, r := range t {
		anchored := "no"
		if r.AnchorTransactionID != "" {
			anchored = "yes"
		}
		rows = append(rows, []string{
			r.ID,
			r.FileID,
			string(r.VerificationStatus),
			strconv.Itoa(r.OverallTrustScore),
			strconv.Itoa(len(r.CoSignatures)),
			anchored,
			r.CreatedAt.Format(time.RFC3339),
		})
	}
	return rows
}

func runReportList(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(reportFlags.listFormat)
	if err != nil {
		return err
	}
	q, err := buildReportQuery()
	if err != nil {
		return err
	}

	a := newApp(cfg)
	defer a.Close()

	store, err := a.Store()
	if err != nil {
		return cli.NewCommandError("report list", err)
	}
	reports, err := store.List(cmd.Context(), q)
	if err != nil {
		return cli.NewCommandError("report list", err)
	}

	out := cmd.OutOrStdout()
	switch {
	case format == cli.FormatJSON:
		return cli.NewFormatter(format).FormatTo(out, map[string]interface{}{
			"total_reports": len(reports),
			"reports":       reports,
		})
	case format == cli.FormatText && len(reports) == 0:
		fmt.Fprintln(out, "No reports found.")
		return nil
	default:
		return cli.NewFormatter(format).FormatTo(out, reportTable(reports))
	}
}

func runReportExport(cmd *cobra.Command, args []string) error {
	var exporter evidence.Exporter
	switch strings.ToLower(reportFlags.exportFormat) {
	case "json":
		exporter = export.NewJSONExporter(true)
	case "csv":
		exporter = export.NewCSVExporter(true)
	default:
		return fmt.Errorf("unsupported export format: %s (supported: json, csv)", reportFlags.exportFormat)
	}

	q, err := buildReportQuery()
	if err != nil {
		return err
	}

	a := newApp(cfg)
	defer a.Close()

	store, err := a.Store()
	if err != nil {
		return cli.NewCommandError("report export", err)
	}

	var out io.Writer = cmd.OutOrStdout()
	if reportFlags.output != "" {
		f, err := os.Create(reportFlags.output)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	ctx := cmd.Context()
	reports, errs, err := store.ListStream(ctx, q)
	if err != nil {
		return cli.NewCommandError("report export", err)
	}
	if err := exporter.ExportStream(ctx, reports, out); err != nil {
		return cli.NewCommandError("report export", err)
	}
	if err := <-errs; err != nil {
		return cli.NewCommandError("report export", err)
	}

	if reportFlags.output != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "✓ Exported reports to %s\n", reportFlags.output)
	}
	return nil
}

func printReport(out io.Writer, r *evidence.VerificationReport) {
	fmt.Fprintf(out, "Report ID:    %s\n", r.ID)
	fmt.Fprintf(out, "File ID:      %s\n", r.FileID)
	fmt.Fprintf(out, "Status:       %s\n", r.VerificationStatus)
	fmt.Fprintf(out, "Trust Score:  %d/100\n", r.OverallTrustScore)
	fmt.Fprintf(out, "Created:      %s\n", r.CreatedAt.Format(time.RFC3339))
	if r.AnchorTransactionID != "" {
		fmt.Fprintf(out, "Anchor:       %s\n", r.AnchorTransactionID)
	}
	if len(r.AnalyzerFailures) > 0 {
		fmt.Fprintf(out, "Unavailable:  %s\n", strings.Join(r.AnalyzerFailures, ", "))
	}

	m := r.Metadata
	fmt.Fprintln(out)
	fmt.Fprintf(out, "File:         %s, %d bytes\n", m.FileType, m.FileSize)
	fmt.Fprintf(out, "SHA-256:      %s\n", m.FileHash)
	if m.Resolution != "" {
		fmt.Fprintf(out, "Resolution:   %s\n", m.Resolution)
	}
	if m.Timestamp != nil {
		fmt.Fprintf(out, "Captured:     %s\n", m.Timestamp.Format(time.RFC3339))
	}
	if m.Location != nil {
		fmt.Fprintf(out, "Location:     %.5f, %.5f (%s)\n", m.Location.Latitude, m.Location.Longitude, m.Location.Source)
	}

	if d := r.DeepfakeAnalysis; d != nil {
		fmt.Fprintln(out)
		fmt.Fprintf(out, "Manipulation: %d%% (%s risk, %s)\n", d.Confidence, d.RiskLevel, d.Provider)
		if d.FlaggedForReview {
			fmt.Fprintln(out, "              flagged for review")
		}
	}
	if t := r.Transcription; t != nil {
		fmt.Fprintln(out)
		fmt.Fprintf(out, "Transcript (%s): %s\n", t.Language, t.Text)
	}
	if c := r.AIAnalysis; c != nil {
		fmt.Fprintln(out)
		fmt.Fprintf(out, "Summary:      %s\n", c.Summary)
		fmt.Fprintf(out, "Credibility:  %d/100, urgency %d/10, %s\n", c.CredibilityScore, c.UrgencyLevel, c.Sentiment)
		if len(c.EventTags) > 0 {
			tags := make([]string, len(c.EventTags))
			for i, tag := range c.EventTags {
				tags[i] = string(tag)
			}
			fmt.Fprintf(out, "Events:       %s\n", strings.Join(tags, ", "))
		}
	}

	if len(r.CoSignatures) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, "Co-signatures:")
		for _, sig := range r.CoSignatures {
			fmt.Fprintf(out, "  ✓ %s (%s, %s) on %s\n",
				sig.OrganizationName, sig.VerifierName, sig.VerifierRole, sig.VerificationDate.Format("2006-01-02"))
		}
	}
}
