package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/marmos91/safefs/internal/cli/prompt"
	"github.com/marmos91/safefs/pkg/retry"
)

var (
	rmForce bool
	rmRetry retryFlags
)

var rmCmd = &cobra.Command{
	Use:   "rm <path>...",
	Short: "Delete files or directory trees, retrying while they are in use",
	Long: `Delete each path, a file or a whole directory tree. A path that does not
exist counts as deleted.

When a file is held open by another process the delete is retried every
--retry-after until --retry-for runs out, and the path is hidden from ls,
walk and watch meanwhile. The first time a path turns out to be locked the
retry.restart_command hook runs.

Examples:
  safefs rm /media/movies/old.avi
  safefs rm '%APPDATA%\cache' --force --retry-after 2s --retry-for 20s`,
	Args: cobra.MinimumNArgs(1),
	RunE: runRm,
}

func init() {
	rmCmd.Flags().BoolVarP(&rmForce, "force", "f", false, "Skip confirmation prompt")
	rmRetry.register(rmCmd)
}

func runRm(cmd *cobra.Command, args []string) error {
	label := fmt.Sprintf("Delete %s", args[0])
	if len(args) > 1 {
		label = fmt.Sprintf("Delete %d paths", len(args))
	}
	confirmed, err := prompt.ConfirmWithForce(label, rmForce)
	if err != nil {
		return err
	}
	if !confirmed {
		return nil
	}

	printer, err := newPrinter(cmd, "plain")
	if err != nil {
		return err
	}

	outcomes, err := runChains(cmd, &rmRetry, func(ctx context.Context, mgr *retry.Manager) error {
		for _, p := range args {
			if err := mgr.Delete(ctx, p); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	return report(printer, outcomes, "deleted")
}
