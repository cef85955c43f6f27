package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"mercator-hq/vesta/pkg/config"
)

const redacted = "[REDACTED]"

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect the effective configuration",
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the configuration file and environment overrides",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Loading already validated cfg.
		fmt.Printf("✓ Configuration valid (queue: %s, remote: %s, anchor: %s)\n",
			cfg.Queue.Backend, cfg.Remote.Backend, cfg.Anchor.Mode)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration as YAML with secrets redacted",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		enc := yaml.NewEncoder(os.Stdout)
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(redactSecrets(cfg))
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configValidateCmd)
	configCmd.AddCommand(configShowCmd)
}

// redactSecrets returns a copy of c with API keys masked.
func redactSecrets(c *config.Config) *config.Config {
	out := *c
	for _, p := range []*config.ProviderConfig{
		&out.Analyzers.Manipulation,
		&out.Analyzers.Transcription,
		&out.Analyzers.Content,
	} {
		if p.APIKey != "" {
			p.APIKey = redacted
		}
	}
	if out.Anchor.APIKey != "" {
		out.Anchor.APIKey = redacted
	}
	return &out
}
