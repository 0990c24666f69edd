package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/marmos91/safefs/internal/bytesize"
	"github.com/marmos91/safefs/internal/cli/timeutil"
	"github.com/marmos91/safefs/pkg/fileutil"
)

var lsOutput string

var lsCmd = &cobra.Command{
	Use:   "ls <dir>",
	Short: "List the files and directories of a directory",
	Long: `List the immediate children of a directory, directories first.

Hidden entries, junk files (walk.skip_names) and entries with a delete in
progress are left out.

Examples:
  safefs ls /media/movies
  safefs ls '%APPDATA%' -o json`,
	Args: cobra.ExactArgs(1),
	RunE: runLs,
}

func init() {
	lsCmd.Flags().StringVarP(&lsOutput, "output", "o", "table", "Output format (table|json|yaml|plain)")
}

// entry is one row of ls output.
type entry struct {
	Path     string    `json:"path" yaml:"path"`
	Type     string    `json:"type" yaml:"type"`
	Size     int64     `json:"size" yaml:"size"`
	Modified time.Time `json:"modified" yaml:"modified"`
}

type entryList []entry

func (l entryList) Headers() []string {
	return []string{"Type", "Size", "Modified", "Path"}
}

func (l entryList) Rows() [][]string {
	now := time.Now()
	rows := make([][]string, 0, len(l))
	for _, e := range l {
		size := "-"
		if e.Type == "file" {
			size = bytesize.ByteSize(e.Size).HumanString()
		}
		rows = append(rows, []string{e.Type, size, timeutil.FormatModTime(e.Modified, now), e.Path})
	}
	return rows
}

func (l entryList) Lines() []string {
	lines := make([]string, len(l))
	for i, e := range l {
		lines[i] = e.Path
	}
	return lines
}

func runLs(cmd *cobra.Command, args []string) error {
	printer, err := newPrinter(cmd, lsOutput)
	if err != nil {
		return err
	}

	fsys := newFS()
	files, dirs, ok := fsys.ListChildren(args[0])
	if !ok {
		return fmt.Errorf("%s is being deleted", args[0])
	}

	list := make(entryList, 0, len(files)+len(dirs))
	list = appendEntries(list, fsys, dirs, "dir")
	list = appendEntries(list, fsys, files, "file")
	return printer.Print(list)
}

func appendEntries(list entryList, fsys *fileutil.FS, paths []string, kind string) entryList {
	for _, p := range paths {
		e := entry{Path: p, Type: kind}
		if fi, err := fsys.Stat(p); err == nil {
			e.Size = fi.Size()
		}
		if mtime, err := fsys.Mtime(p); err == nil {
			e.Modified = mtime
		}
		list = append(list, e)
	}
	return list
}
