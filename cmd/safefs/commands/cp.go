package commands

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/marmos91/safefs/internal/bytesize"
	"github.com/marmos91/safefs/internal/cli/output"
	"github.com/marmos91/safefs/internal/logger"
	"github.com/marmos91/safefs/pkg/config"
	"github.com/marmos91/safefs/pkg/fileutil"
	"github.com/marmos91/safefs/pkg/metrics"
)

var (
	cpBlockSize string
	cpNoSync    bool
	cpQuiet     bool
)

var cpCmd = &cobra.Command{
	Use:   "cp <src> <dst>",
	Short: "Copy a file block by block with progress",
	Long: `Copy src to dst one block at a time, reporting progress on stderr. When
dst is an existing directory the file is copied into it. An existing
destination file is truncated.

Ctrl+C stops the copy and removes the partial destination.

Examples:
  safefs cp /media/a.avi /backup/
  safefs cp '%APPDATA%\a.avi' /tmp/a.avi --block-size 1MiB --no-sync`,
	Args: cobra.ExactArgs(2),
	RunE: runCp,
}

func init() {
	cpCmd.Flags().StringVar(&cpBlockSize, "block-size", "", "copy block size, e.g. 64KiB (default: copy.block_size)")
	cpCmd.Flags().BoolVar(&cpNoSync, "no-sync", false, "do not open the destination for synchronous writes")
	cpCmd.Flags().BoolVarP(&cpQuiet, "quiet", "q", false, "do not report progress")
}

func runCp(cmd *cobra.Command, args []string) error {
	opts := []fileutil.Option{fileutil.WithMetrics(metrics.NewFileMetrics())}
	if cpBlockSize != "" {
		size, err := bytesize.Parse(cpBlockSize)
		if err != nil {
			return err
		}
		if size < config.MinBlockSize {
			return errors.New("--block-size must be at least 512 bytes")
		}
		opts = append(opts, fileutil.WithBlockSize(size.Int()))
	}
	if cpNoSync {
		opts = append(opts, fileutil.WithSyncWrites(false))
	}
	fsys := newFS(opts...)

	src, dst := args[0], args[1]
	if !fsys.IsFile(src) {
		return errors.New(src + " is not a file")
	}
	if fsys.IsDir(dst) {
		dst = filepath.Join(dst, filepath.Base(fsys.Expand(src)))
	}

	var total int64
	if fi, err := fsys.Stat(src); err == nil {
		total = fi.Size()
	}

	errOut := cmd.ErrOrStderr()
	interactive := false
	if f, ok := errOut.(*os.File); ok {
		interactive = output.IsTerminal(f)
	}
	var progress *output.Progress
	if !cpQuiet {
		progress = output.NewProgress(errOut, filepath.Base(fsys.Expand(src)), total, interactive)
	}

	ctx, stop := signalContext(cmd)
	defer stop()

	var copyErr error
	for p, err := range fsys.CopyWithProgress(ctx, src, dst) {
		if err != nil {
			copyErr = err
			break
		}
		if progress != nil {
			progress.Update(p.Copied)
		}
	}
	if progress != nil {
		progress.Done(copyErr)
	}

	if copyErr != nil {
		if rmErr := fsys.Remove(dst); rmErr != nil && fsys.Exists(dst) {
			logger.Warn("could not remove partial copy", logger.Dest(dst), logger.Err(rmErr))
		}
		return copyErr
	}
	return nil
}
