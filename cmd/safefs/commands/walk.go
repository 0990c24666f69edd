package commands

import (
	"github.com/spf13/cobra"

	"github.com/marmos91/safefs/internal/cli/output"
	"github.com/marmos91/safefs/internal/logger"
	"github.com/marmos91/safefs/pkg/fileutil"
)

var (
	walkOutput string
	walkCount  bool
)

var walkCmd = &cobra.Command{
	Use:   "walk <dir>...",
	Short: "Print every file below one or more directories",
	Long: `Walk each directory depth-first and print the regular files found.

Symlinked directories are followed once; bundles, hidden entries, junk files,
the incomplete-downloads directory and entries being deleted are skipped.
Several roots share one cycle guard, so a tree reachable from two roots is
printed once.

Plain output streams paths as they are found.

Examples:
  safefs walk /media/movies
  safefs walk '%APPDATA%' /media --count
  safefs walk /media -o json`,
	Args: cobra.MinimumNArgs(1),
	RunE: runWalk,
}

func init() {
	walkCmd.Flags().StringVarP(&walkOutput, "output", "o", "plain", "Output format (plain|table|json|yaml)")
	walkCmd.Flags().BoolVar(&walkCount, "count", false, "Only print the number of files")
}

func runWalk(cmd *cobra.Command, args []string) error {
	printer, err := newPrinter(cmd, walkOutput)
	if err != nil {
		return err
	}

	ctx, stop := signalContext(cmd)
	defer stop()

	fsys := newFS()
	seen := fileutil.NewVisitedSet()

	paths := walkResult{}
	count := 0
	for _, root := range args {
		for p := range fsys.WalkFilesFrom(root, seen) {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			count++
			switch {
			case walkCount:
			case printer.Format() == output.FormatPlain:
				printer.Println(p)
			default:
				paths = append(paths, p)
			}
		}
	}
	logger.Debug("walk finished", logger.KeyEntries, count)

	if walkCount {
		printer.Println(count)
		return nil
	}
	if printer.Format() == output.FormatPlain {
		return nil
	}
	return printer.Print(paths)
}

type walkResult []string

func (w walkResult) Headers() []string { return []string{"Path"} }

func (w walkResult) Rows() [][]string {
	rows := make([][]string, len(w))
	for i, p := range w {
		rows[i] = []string{p}
	}
	return rows
}
