package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"mercator-hq/vesta/pkg/cli"
	"mercator-hq/vesta/pkg/evidence"
	"mercator-hq/vesta/pkg/ledger"
)

var cosignFlags struct {
	org    string
	notes  string
	format string
}

var cosignCmd = &cobra.Command{
	Use:   "cosign REPORT_ID",
	Short: "Endorse a report on behalf of a partner organization",
	Long: `Append a co-signature from a configured partner organization to a report.
The endorsement raises the report's trust score and marks it verified.
Each organization can endorse a report once.

Organizations are configured under ledger.organizations.

Examples:
  vesta cosign 6f1c2d3e-... --org hrw --notes "cross-checked with satellite imagery"
  vesta cosign list 6f1c2d3e-...
  vesta cosign orgs`,
	Args: cobra.ExactArgs(1),
	RunE: runCosign,
}

var cosignListCmd = &cobra.Command{
	Use:   "list REPORT_ID",
	Short: "List the co-signatures of a report",
	Args:  cobra.ExactArgs(1),
	RunE:  runCosignList,
}

var cosignOrgsCmd = &cobra.Command{
	Use:   "orgs",
	Short: "List the configured partner organizations",
	Args:  cobra.NoArgs,
	RunE:  runCosignOrgs,
}

func init() {
	rootCmd.AddCommand(cosignCmd)
	cosignCmd.AddCommand(cosignListCmd, cosignOrgsCmd)

	cosignCmd.Flags().StringVar(&cosignFlags.org, "org", "", "endorsing organization ID")
	cosignCmd.Flags().StringVar(&cosignFlags.notes, "notes", "", "verifier notes")
	_ = cosignCmd.MarkFlagRequired("org")

	cosignListCmd.Flags().StringVar(&cosignFlags.format, "format", "text", "output format: text, json, csv")
}

func runCosign(cmd *cobra.Command, args []string) error {
	a := newApp(cfg)
	defer a.Close()

	l, err := a.Ledger()
	if err != nil {
		return cli.NewCommandError("cosign", err)
	}

	sig, err := l.RequestCoSignature(cmd.Context(), args[0], cosignFlags.org, cosignFlags.notes)
	if err != nil {
		return cli.NewCommandError("cosign", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✓ Report %s co-signed by %s\n", args[0], sig.OrganizationName)
	fmt.Fprintf(cmd.OutOrStdout(), "  Verification hash: %s\n", sig.VerificationHash)
	return nil
}

// signatureTable renders co-signatures as rows.
type signatureTable []evidence.CoSignature

func (t signatureTable) Header() []string {
	return []string{"ORGANIZATION", "VERIFIER", "ROLE", "RATING", "DATE", "HASH"}
}

func (t signatureTable) Rows() [][]string {
	rows := make([][]string, 0, len(t))
	for _, sig := range t {
		rows = append(rows, []string{
			sig.OrganizationName,
			sig.VerifierName,
			sig.VerifierRole,
			strconv.Itoa(sig.CredibilityRating),
			sig.VerificationDate.Format(time.RFC3339),
			sig.VerificationHash,
		})
	}
	return rows
}

func runCosignList(cmd *cobra.Command, args []string) error {
	format, err := cli.ParseFormat(cosignFlags.format)
	if err != nil {
		return err
	}

	a := newApp(cfg)
	defer a.Close()

	l, err := a.Ledger()
	if err != nil {
		return cli.NewCommandError("cosign list", err)
	}
	sigs, err := l.List(cmd.Context(), args[0])
	if err != nil {
		return cli.NewCommandError("cosign list", err)
	}

	if format == cli.FormatJSON {
		return cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), sigs)
	}
	if format == cli.FormatText && len(sigs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No co-signatures.")
		return nil
	}
	return cli.NewFormatter(format).FormatTo(cmd.OutOrStdout(), signatureTable(sigs))
}

func runCosignOrgs(cmd *cobra.Command, args []string) error {
	dir, err := directory(cfg.Ledger)
	if err != nil {
		return cli.NewConfigError("ledger.organizations", err.Error())
	}

	orgs := dir.List()
	if len(orgs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No organizations configured.")
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Co-signatures add %d points to a report's trust score.\n\n", ledger.ScoreBoost)
	for _, org := range orgs {
		fmt.Fprintf(cmd.OutOrStdout(), "%-12s %s (%s, %s) rating %d/5\n",
			org.ID, org.Name, org.VerifierName, org.VerifierRole, org.CredibilityRating)
	}
	return nil
}
