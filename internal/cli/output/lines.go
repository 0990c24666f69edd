package output

import (
	"bufio"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// LineRenderer is implemented by results that print as one item per line.
type LineRenderer interface {
	Lines() []string
}

// Lines is a LineRenderer over a plain slice.
type Lines []string

// Lines implements LineRenderer.
func (l Lines) Lines() []string { return l }

// PrintLines writes each line followed by a newline.
func PrintLines(w io.Writer, lines []string) error {
	bw := bufio.NewWriter(w)
	for _, line := range lines {
		if _, err := bw.WriteString(line); err != nil {
			return err
		}
		if err := bw.WriteByte('\n'); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func tabRows(rows [][]string) []string {
	lines := make([]string, len(rows))
	for i, row := range rows {
		lines[i] = strings.Join(row, "\t")
	}
	return lines
}

// IsTerminal reports whether f is an interactive terminal.
func IsTerminal(f *os.File) bool {
	return f != nil && term.IsTerminal(int(f.Fd()))
}
