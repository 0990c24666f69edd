// Package commands implements the safefs command line.
package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/marmos91/safefs/cmd/safefs/commands/config"
)

const skipSetupAnnotation = config.SkipSetupAnnotation

var (
	// Version information injected at build time.
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"

	// Global flags.
	cfgFile   string
	logLevel  string
	logFormat string
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "safefs",
	Short: "safefs - filesystem operations that survive locked files",
	Long: `safefs lists, walks, copies, moves and deletes files on behalf of a media
library. Paths may use virtual prefixes such as %APPDATA%, which are expanded
through the path_mapping rules of the configuration.

Deletes and moves that hit a file held open by another process are retried
in the background until the retry budget runs out.

Use "safefs [command] --help" for more information about a command.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

// Execute adds all child commands to the root command and runs it.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return ExecuteContext(context.Background())
}

// ExecuteContext runs the root command with ctx and releases telemetry
// afterwards, whether or not the command failed.
func ExecuteContext(ctx context.Context) error {
	defer teardown(ctx)
	return rootCmd.ExecuteContext(ctx)
}

// GetRootCmd returns the root command for testing purposes.
func GetRootCmd() *cobra.Command {
	return rootCmd
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $XDG_CONFIG_HOME/safefs/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override logging.level (DEBUG, INFO, WARN, ERROR)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "override logging.format (text, json)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(expandCmd)
	rootCmd.AddCommand(collapseCmd)
	rootCmd.AddCommand(lsCmd)
	rootCmd.AddCommand(walkCmd)
	rootCmd.AddCommand(rmCmd)
	rootCmd.AddCommand(mvCmd)
	rootCmd.AddCommand(cpCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(config.Cmd)
	rootCmd.AddCommand(completionCmd)

	// Hide the default completion command (we provide our own)
	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// GetConfigFile returns the config file path from the global flag.
func GetConfigFile() string {
	return cfgFile
}
