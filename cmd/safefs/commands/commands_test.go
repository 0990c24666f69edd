package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// resetFlags restores every flag to its default, since cobra keeps values
// between executions of the same command tree.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("SAFEFS_LOGGING_OUTPUT", "discard")

	resetFlags(rootCmd)
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := ExecuteContext(context.Background())
	return buf.String(), err
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func mediaTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.avi"), "aaaa")
	writeFile(t, filepath.Join(root, "thumbs.db"), "junk")
	writeFile(t, filepath.Join(root, ".hidden"), "h")
	writeFile(t, filepath.Join(root, "shows", "b.mkv"), "bb")
	writeFile(t, filepath.Join(root, "Incomplete Downloads", "c.avi"), "c")
	return root
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version", "--short")
	require.NoError(t, err)
	assert.Equal(t, "dev\n", out)
}

func TestCompletion(t *testing.T) {
	assert.Equal(t, []string{"bash", "fish", "powershell", "zsh"}, shellNames())

	out, err := execute(t, "completion", "zsh")
	require.NoError(t, err)
	assert.Contains(t, out, "#compdef safefs")

	_, err = execute(t, "completion", "tcsh")
	assert.Error(t, err)
}

func TestExpandCollapse(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "appdata")
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, cfgPath, "path_mapping:\n  enabled: true\n  rules:\n    - prefix: \"%APPDATA%\"\n      dir: "+dir+"\n")

	out, err := execute(t, "--config", cfgPath, "expand", `%APPDATA%\movies`, "/other")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "movies")+"\n/other\n", out)

	out, err = execute(t, "--config", cfgPath, "collapse", filepath.Join(dir, "movies"))
	require.NoError(t, err)
	assert.Equal(t, `%APPDATA%\movies`+"\n", out)
}

func TestLs(t *testing.T) {
	root := mediaTree(t)

	out, err := execute(t, "ls", root, "-o", "plain")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Equal(t, normalizeCase([]string{
		filepath.Join(root, "Incomplete Downloads"),
		filepath.Join(root, "shows"),
		filepath.Join(root, "a.avi"),
	}), normalizeCase(lines), "directories first, junk and hidden entries left out")

	out, err = execute(t, "ls", root, "-o", "json")
	require.NoError(t, err)
	var entries []entry
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	require.Len(t, entries, 3)
	assert.Equal(t, "file", entries[2].Type)
	assert.EqualValues(t, 4, entries[2].Size)
}

// normalizeCase lowers every line; entry names are case-normalized only on
// case-insensitive platforms.
func normalizeCase(lines []string) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = strings.ToLower(l)
	}
	return out
}

func TestWalk(t *testing.T) {
	root := mediaTree(t)

	out, err := execute(t, "walk", root)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		filepath.Join(root, "a.avi"),
		filepath.Join(root, "shows", "b.mkv"),
	}, strings.Split(strings.TrimSpace(out), "\n"))

	out, err = execute(t, "walk", root, root, "--count")
	require.NoError(t, err)
	assert.Equal(t, "2\n", out, "roots share one cycle guard")

	_, err = execute(t, "walk", root, "-o", "xml")
	assert.Error(t, err)
}

func TestRm(t *testing.T) {
	root := mediaTree(t)
	target := filepath.Join(root, "a.avi")

	out, err := execute(t, "rm", "--force", target, filepath.Join(root, "missing.avi"))
	require.NoError(t, err)
	assert.Contains(t, out, "deleted "+target)
	assert.NoFileExists(t, target)

	out, err = execute(t, "rm", "-f", filepath.Join(root, "shows"))
	require.NoError(t, err)
	assert.Contains(t, out, "deleted")
	assert.NoDirExists(t, filepath.Join(root, "shows"))

	_, err = execute(t, "rm", "-f", "--retry-after", "0s", target)
	assert.ErrorContains(t, err, "--retry-after")
}

func TestMv(t *testing.T) {
	root := mediaTree(t)
	dest := filepath.Join(root, "shows")

	out, err := execute(t, "mv", filepath.Join(root, "a.avi"), dest)
	require.NoError(t, err)
	assert.Contains(t, out, "moved")
	assert.FileExists(t, filepath.Join(dest, "a.avi"))
	assert.NoFileExists(t, filepath.Join(root, "a.avi"))

	_, err = execute(t, "mv", filepath.Join(root, "gone.avi"), dest, "--retry-for", "0s")
	assert.ErrorContains(t, err, "did not complete")
}

func TestCp(t *testing.T) {
	root := mediaTree(t)
	src := filepath.Join(root, "a.avi")
	dst := filepath.Join(t.TempDir(), "copy.avi")

	_, err := execute(t, "cp", "--quiet", "--no-sync", "--block-size", "512", src, dst)
	require.NoError(t, err)
	data, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "aaaa", string(data))

	into := t.TempDir()
	out, err := execute(t, "cp", src, into)
	require.NoError(t, err)
	assert.Contains(t, out, "a.avi: 4 B in ")
	assert.FileExists(t, filepath.Join(into, "a.avi"))

	_, err = execute(t, "cp", filepath.Join(root, "missing.avi"), dst)
	assert.ErrorContains(t, err, "is not a file")

	_, err = execute(t, "cp", "--block-size", "100", src, dst)
	assert.ErrorContains(t, err, "at least 512")
}

func TestConfigCommands(t *testing.T) {
	path := filepath.Join(t.TempDir(), "safefs.yaml")

	out, err := execute(t, "config", "init", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Configuration file created at: "+path)
	assert.FileExists(t, path)

	_, err = execute(t, "config", "init", "--config", path)
	assert.ErrorContains(t, err, "already exists")

	out, err = execute(t, "config", "validate", "--config", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Validation: OK")
	assert.Contains(t, out, "every 10s for 1m0s (6 retries)")

	out, err = execute(t, "config", "show", "--config", path, "-o", "json")
	require.NoError(t, err)
	var shown map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &shown))
	assert.Contains(t, shown, "retry")

	_, err = execute(t, "config", "validate", "--config", filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "configuration file not found")

	out, err = execute(t, "config", "schema")
	require.NoError(t, err)
	assert.Contains(t, out, `"title": "safefs configuration"`)
}
