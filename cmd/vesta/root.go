package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"mercator-hq/vesta/pkg/cli"
	"mercator-hq/vesta/pkg/config"
	"mercator-hq/vesta/pkg/telemetry/logging"
)

var (
	// Global flags
	cfgFile string
	verbose bool

	// cfg is loaded once in PersistentPreRunE.
	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "vesta",
	Short: "Vesta - offline evidence capture and verification",
	Long: `Vesta captures evidence on devices that are often offline, verifies it
when connectivity returns and keeps a tamper-evident record of every report.

  - Durable on-device queue for photos, audio, video and statements
  - Verification pipeline with metadata, manipulation and content analysis
  - Trust scoring with renormalized weights when analyzers are unavailable
  - Proof-of-existence anchoring and partner co-signatures`,
	Version:           Version,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadConfig,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.ExitCode(err))
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "vesta.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// loadConfig loads the configuration file, applies VESTA_* overrides and
// installs the process logger. A missing default config file falls back to
// built-in defaults; a missing explicit one is an error.
func loadConfig(cmd *cobra.Command, args []string) error {
	path := cfgFile
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) && !cmd.Flags().Changed("config") {
		path = ""
	}

	loaded, err := config.LoadConfigWithEnvOverrides(path)
	if err != nil {
		return cli.NewConfigError("", err.Error())
	}
	if verbose {
		loaded.Telemetry.Logging.Level = "debug"
	}

	if _, err := logging.Setup(logging.FromConfig(loaded.Telemetry.Logging)); err != nil {
		return cli.NewConfigError("telemetry.logging", err.Error())
	}

	cfg = loaded
	return nil
}
