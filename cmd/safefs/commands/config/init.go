package config

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/safefs/pkg/config"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default configuration file",
	Long: `Write a commented configuration file holding every default.

By default, the configuration file is created at $XDG_CONFIG_HOME/safefs/config.yaml.
Use --config to specify a custom path.

Examples:
  # Initialize with default location
  safefs config init

  # Initialize with custom path
  safefs config init --config /etc/safefs/config.yaml

  # Force overwrite existing config
  safefs config init --force`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Force overwrite existing config file")
}

func runInit(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")

	var configPath string
	var err error

	if configFile != "" {
		err = config.InitConfigToPath(configFile, initForce)
		configPath = configFile
	} else {
		configPath, err = config.InitConfig(initForce)
	}

	if err != nil {
		return fmt.Errorf("failed to initialize config: %w", err)
	}

	out := cmd.OutOrStdout()
	_, _ = fmt.Fprintf(out, "Configuration file created at: %s\n", configPath)
	_, _ = fmt.Fprintln(out, "\nNext steps:")
	_, _ = fmt.Fprintln(out, "  1. Add path_mapping rules for your virtual prefixes")
	_, _ = fmt.Fprintln(out, "  2. Set retry.restart_command if a worker pool holds files open")
	_, _ = fmt.Fprintf(out, "  3. Check the result with: safefs config validate --config %s\n", configPath)
	return nil
}
