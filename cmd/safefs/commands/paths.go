package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var expandCmd = &cobra.Command{
	Use:   "expand <path>...",
	Short: "Expand virtual path prefixes",
	Long: `Print the real path each argument stands for under the configured
path_mapping rules. Paths without a known prefix are printed unchanged.

Examples:
  safefs expand '%APPDATA%\movies\a.avi'`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m := cfg.Mapper()
		for _, p := range args {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), m.Expand(p))
		}
		return nil
	},
}

var collapseCmd = &cobra.Command{
	Use:   "collapse <path>...",
	Short: "Collapse real paths into their virtual spelling",
	Long: `Print each argument with a mapped directory replaced by its virtual
prefix. Paths outside every mapped directory are printed unchanged.

Examples:
  safefs collapse /mnt/u3/appdata/movies/a.avi`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m := cfg.Mapper()
		for _, p := range args {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), m.Collapse(p))
		}
		return nil
	},
}
