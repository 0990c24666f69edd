package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/marmos91/safefs/internal/logger"
	"github.com/marmos91/safefs/pkg/retry"
)

var mvRetry retryFlags

var mvCmd = &cobra.Command{
	Use:   "mv <src> <dst>",
	Short: "Move a file, retrying while it is in use",
	Long: `Move src to dst. When dst is an existing directory src is moved into it.
Moves across filesystems fall back to copy and delete.

A failed attempt removes whatever partial copy it left at the destination,
as long as the source is still in place. Attempts that fail because the
source is held open by another process are retried every --retry-after
until --retry-for runs out.

Examples:
  safefs mv /downloads/a.avi /media/movies/
  safefs mv '%APPDATA%\a.avi' /media/a.avi --retry-for 0s`,
	Args: cobra.ExactArgs(2),
	RunE: runMv,
}

func init() {
	mvRetry.register(mvCmd)
}

func runMv(cmd *cobra.Command, args []string) error {
	printer, err := newPrinter(cmd, "plain")
	if err != nil {
		return err
	}

	src, dst := args[0], args[1]
	outcomes, err := runChains(cmd, &mvRetry, func(ctx context.Context, mgr *retry.Manager) error {
		return mgr.Migrate(ctx, src, dst, func() {
			logger.Debug("migrate callback", logger.Path(src), logger.Dest(dst))
		})
	})
	if err != nil {
		return err
	}
	return report(printer, outcomes, "moved")
}
