// Package config implements configuration management subcommands.
package config

import (
	"github.com/spf13/cobra"
)

// SkipSetupAnnotation marks commands that must run without the usual
// configuration loading, because they manage the file themselves.
const SkipSetupAnnotation = "safefs/skip-setup"

// Cmd is the config subcommand.
var Cmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration management",
	Long: `Manage the safefs configuration file.

Subcommands:
  init      Write a commented default configuration file
  show      Display the effective configuration
  validate  Validate the configuration file
  schema    Generate JSON schema for IDE/validation`,
	Annotations: map[string]string{SkipSetupAnnotation: "true"},
}

func init() {
	Cmd.AddCommand(initCmd)
	Cmd.AddCommand(showCmd)
	Cmd.AddCommand(validateCmd)
	Cmd.AddCommand(schemaCmd)
}
