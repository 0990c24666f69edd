package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableData(t *testing.T) {
	table := NewTableData("Type", "Size", "Path")
	assert.Equal(t, []string{"Type", "Size", "Path"}, table.Headers())
	assert.Empty(t, table.Rows())

	table.AddRow("file", "4 B", "a.avi")
	table.AddRow("dir", "-", "shows")
	assert.Equal(t, [][]string{{"file", "4 B", "a.avi"}, {"dir", "-", "shows"}}, table.Rows())
}

func TestPrintTable(t *testing.T) {
	table := NewTableData("Type", "Path")
	table.AddRow("file", "/media/a very long file name that must not wrap.avi")

	var buf bytes.Buffer
	require.NoError(t, PrintTable(&buf, table))

	out := buf.String()
	assert.Contains(t, out, "TYPE")
	assert.Contains(t, out, "PATH")
	assert.Contains(t, out, "/media/a very long file name that must not wrap.avi")
	assert.Len(t, strings.Split(strings.TrimRight(out, "\n"), "\n"), 2)
}

func TestSimpleTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, SimpleTable(&buf, [][2]string{
		{"Retry", "every 10s for 1m0s (6 retries)"},
		{"Block size", "32KiB"},
	}))

	out := buf.String()
	assert.Contains(t, out, "Retry")
	assert.Contains(t, out, "every 10s for 1m0s (6 retries)")
	assert.Contains(t, out, "32KiB")
}
