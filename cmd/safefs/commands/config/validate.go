package config

import (
	"fmt"
	"os/exec"

	shellquote "github.com/Hellseher/go-shellquote"
	"github.com/spf13/cobra"

	"github.com/marmos91/safefs/internal/cli/output"
	"github.com/marmos91/safefs/pkg/config"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	Long: `Validate the safefs configuration file.

Checks for syntax errors and invalid values, then warns about settings that
are valid but probably not what was meant.

Examples:
  # Validate default config
  safefs config validate

  # Validate specific config file
  safefs config validate --config /etc/safefs/config.yaml`,
	RunE: runConfigValidate,
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")

	cfg, err := config.MustLoad(configPath)
	if err != nil {
		return err
	}

	displayPath := configPath
	if displayPath == "" {
		displayPath = config.GetDefaultConfigPath()
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "Configuration file: %s\n", displayPath)
	_, _ = fmt.Fprintln(out, "Validation: OK")

	if warnings := Warnings(cfg); len(warnings) > 0 {
		_, _ = fmt.Fprintln(out, "\nWarnings:")
		for _, w := range warnings {
			_, _ = fmt.Fprintf(out, "  - %s\n", w)
		}
	}

	_, _ = fmt.Fprintln(out, "\nConfiguration summary:")
	return output.SimpleTable(out, [][2]string{
		{"Log level", cfg.Logging.Level},
		{"Path mapping", fmt.Sprintf("%t (%d rules)", cfg.PathMapping.Enabled, len(cfg.PathMapping.Rules))},
		{"Retry", fmt.Sprintf("every %s for %s (%d retries)", cfg.Retry.After, cfg.Retry.For, cfg.RetryPolicy().MaxRetries())},
		{"Copy block size", cfg.Copy.BlockSize.String()},
		{"Metrics", fmt.Sprintf("%t (port %d)", cfg.Metrics.Enabled, cfg.Metrics.Port)},
	})
}

// Warnings lists settings that pass validation but look like mistakes.
func Warnings(cfg *config.Config) []string {
	var warnings []string

	if cfg.PathMapping.Enabled && len(cfg.PathMapping.Rules) == 0 {
		warnings = append(warnings, "path_mapping is enabled but has no rules")
	}
	if !cfg.PathMapping.Enabled && len(cfg.PathMapping.Rules) > 0 {
		warnings = append(warnings, "path_mapping has rules but is disabled")
	}
	if cfg.Retry.For > 0 && cfg.Retry.For < cfg.Retry.After {
		warnings = append(warnings, fmt.Sprintf("retry.for (%s) is shorter than retry.after (%s): locked files are never retried", cfg.Retry.For, cfg.Retry.After))
	}
	if cfg.Retry.RestartCommand != "" {
		if words, err := shellquote.Split(cfg.Retry.RestartCommand); err == nil && len(words) > 0 {
			if _, err := exec.LookPath(words[0]); err != nil {
				warnings = append(warnings, fmt.Sprintf("retry.restart_command: %s not found in PATH", words[0]))
			}
		}
	}
	return warnings
}
