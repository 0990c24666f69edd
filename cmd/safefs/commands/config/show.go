package config

import (
	"github.com/spf13/cobra"

	"github.com/marmos91/safefs/internal/cli/output"
	"github.com/marmos91/safefs/pkg/config"
)

var showOutput string

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Display the effective configuration",
	Long: `Display the configuration safefs would run with: the file, environment
overrides (SAFEFS_*) and defaults merged.

By default outputs YAML format. Use --output to change format.

Examples:
  # Show default config as YAML
  safefs config show

  # Show as JSON
  safefs config show --output json

  # Show the effect of an override
  SAFEFS_RETRY_AFTER=2s safefs config show`,
	RunE: runConfigShow,
}

func init() {
	showCmd.Flags().StringVarP(&showOutput, "output", "o", "yaml", "Output format (yaml|json)")
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")

	cfg, err := config.MustLoad(configPath)
	if err != nil {
		return err
	}

	format, err := output.ParseFormat(showOutput)
	if err != nil {
		return err
	}

	switch format {
	case output.FormatJSON:
		return output.PrintJSON(cmd.OutOrStdout(), cfg)
	default:
		return output.PrintYAML(cmd.OutOrStdout(), cfg)
	}
}
