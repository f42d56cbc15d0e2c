package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/masahif/webingest/internal/config"
)

func newConfigCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Display the effective configuration in YAML format",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.DefaultConfig()
			if err := opts.v.Unmarshal(cfg); err != nil {
				return fmt.Errorf("failed to unmarshal config: %w", err)
			}
			return showCurrentConfig(cmd, cfg)
		},
	}
}

func showCurrentConfig(cmd *cobra.Command, cfg *config.Config) error {
	// Validate configuration before showing it
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: Configuration validation failed: %v\n", err)
		fmt.Fprintf(cmd.ErrOrStderr(), "Displaying configuration anyway...\n\n")
	}

	yamlData, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal configuration to YAML: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "# Current webingest configuration\n")
	fmt.Fprintf(out, "# Generated at: %s\n", time.Now().Format(time.RFC3339))
	fmt.Fprintf(out, "# Configuration file search paths: ./webingest.yml\n")
	fmt.Fprintf(out, "# Environment variables prefix: WI_\n\n")

	fmt.Fprint(out, string(yamlData))

	fmt.Fprintf(out, "\n# Configuration source priority:\n")
	fmt.Fprintf(out, "# 1. Command-line arguments (highest priority)\n")
	fmt.Fprintf(out, "# 2. Environment variables (WI_ prefix)\n")
	fmt.Fprintf(out, "# 3. Configuration file (webingest.yml)\n")
	fmt.Fprintf(out, "# 4. Default values (lowest priority)\n")
	return nil
}
