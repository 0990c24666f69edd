package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fileRow struct {
	Path string `json:"path" yaml:"path"`
	Size int    `json:"size" yaml:"size"`
}

func TestPrintJSON(t *testing.T) {
	t.Run("Indented", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, PrintJSON(&buf, fileRow{Path: "/media/a.avi", Size: 42}))
		assert.Contains(t, buf.String(), `"path": "/media/a.avi"`)
		assert.Contains(t, buf.String(), `"size": 42`)
	})

	t.Run("Compact", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, PrintJSONCompact(&buf, fileRow{Path: "/media/a.avi", Size: 42}))
		assert.Equal(t, `{"path":"/media/a.avi","size":42}`+"\n", buf.String())
	})

	t.Run("CompactStreamsOneLinePerValue", func(t *testing.T) {
		var buf bytes.Buffer
		for _, p := range []string{"/a", "/b"} {
			require.NoError(t, PrintJSONCompact(&buf, fileRow{Path: p}))
		}
		assert.Len(t, strings.Split(strings.TrimSpace(buf.String()), "\n"), 2)
	})
}

func TestPrintYAML(t *testing.T) {
	var buf bytes.Buffer
	rows := []fileRow{{Path: "a.avi", Size: 1}, {Path: "b.mkv", Size: 2}}
	require.NoError(t, PrintYAML(&buf, rows))

	out := buf.String()
	assert.Contains(t, out, "- path: a.avi\n  size: 1")
	assert.Contains(t, out, "- path: b.mkv")
}
