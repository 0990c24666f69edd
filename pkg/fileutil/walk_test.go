package fileutil_test

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/safefs/pkg/fileutil"
	"github.com/marmos91/safefs/pkg/fileutil/fileutiltest"
	"github.com/marmos91/safefs/pkg/pathmap"
	"github.com/marmos91/safefs/pkg/tracker"
)

func TestListChildren(t *testing.T) {
	t.Run("PartitionsFilesAndDirectories", func(t *testing.T) {
		f, mem := memFS()
		for _, p := range []string{"/media/a.avi", "/media/b.mkv", "/media/c.mp4", "/media/.hidden", "/media/Thumbs.DB"} {
			writeFile(t, mem, p, 1)
		}
		require.NoError(t, mem.MkdirAll("/media/shows", 0o755))
		require.NoError(t, mem.MkdirAll("/media/movies", 0o755))
		require.NoError(t, mem.MkdirAll("/media/.cache", 0o755))

		files, dirs, ok := f.ListChildren("/media")
		require.True(t, ok)
		assert.Equal(t, []string{"/media/a.avi", "/media/b.mkv", "/media/c.mp4"}, files)
		assert.Equal(t, []string{"/media/movies", "/media/shows"}, dirs)
	})

	t.Run("TrackedDirectoryIsNotListed", func(t *testing.T) {
		tr := tracker.New()
		f, mem := memFS(fileutil.WithTracker(tr))
		writeFile(t, mem, "/media/a.avi", 1)
		tr.Add("/MEDIA")

		files, dirs, ok := f.ListChildren("/media")
		assert.False(t, ok)
		assert.Nil(t, files)
		assert.Nil(t, dirs)
	})

	t.Run("TrackedChildIsOmitted", func(t *testing.T) {
		tr := tracker.New()
		f, mem := memFS(fileutil.WithTracker(tr))
		writeFile(t, mem, "/media/a.avi", 1)
		writeFile(t, mem, "/media/b.avi", 1)
		tr.Add("/media/a.avi")

		files, _, ok := f.ListChildren("/media")
		require.True(t, ok)
		assert.Equal(t, []string{"/media/b.avi"}, files)
	})

	t.Run("ListingErrorGivesEmptyResult", func(t *testing.T) {
		faulty := fileutiltest.New(nil)
		require.NoError(t, faulty.MkdirAll("/locked", 0o755))
		faulty.FailOpen("/locked", os.ErrPermission)
		f := fileutil.New(fileutil.WithFs(faulty))

		files, dirs, ok := f.ListChildren("/locked")
		assert.True(t, ok)
		assert.Empty(t, files)
		assert.Empty(t, dirs)
		assert.NotNil(t, files)

		files, dirs, ok = f.ListChildren("/missing")
		assert.True(t, ok)
		assert.Empty(t, files)
		assert.Empty(t, dirs)
	})

	t.Run("VirtualDirectoryYieldsVirtualChildren", func(t *testing.T) {
		f, mem := memFS(fileutil.WithMapper(pathmap.New(true, pathmap.Rule{Prefix: "%APPDATA%", Dir: "/u3/appdata"})))
		writeFile(t, mem, "/u3/appdata/clip.avi", 1)

		files, _, ok := f.ListChildren("%APPDATA%")
		require.True(t, ok)
		assert.Equal(t, []string{filepath.Join("%APPDATA%", "clip.avi")}, files)
	})
}

func buildTree(t *testing.T, mem afero.Fs) {
	t.Helper()
	for _, p := range []string{
		"/media/a.avi",
		"/media/.hidden.avi",
		"/media/THUMBS.db",
		"/media/shows/s01/e01.avi",
		"/media/shows/s01/e02.avi",
		"/media/shows/.git/config",
		"/media/Incomplete Downloads/partial.avi",
		"/media/sub/incomplete downloads/partial.avi",
		"/media/sub/done.avi",
		"/media/Player.app/Contents/binary",
		"/media/deleting/old.avi",
	} {
		writeFile(t, mem, p, 1)
	}
}

func TestWalkFiles(t *testing.T) {
	tr := tracker.New()
	metrics := newRecordingMetrics()
	f, mem := memFS(
		fileutil.WithTracker(tr),
		fileutil.WithBundleFunc(fileutil.ExtensionBundle(".app")),
		fileutil.WithMetrics(metrics),
	)
	buildTree(t, mem)
	tr.Add("/media/deleting")

	got := slices.Collect(f.WalkFiles("/media"))

	assert.Equal(t, []string{
		"/media/a.avi",
		"/media/shows/s01/e01.avi",
		"/media/shows/s01/e02.avi",
		"/media/sub/done.avi",
	}, got)

	assert.Equal(t, 4, metrics.events[fileutil.WalkEventFile])
	assert.Equal(t, 1, metrics.events[fileutil.WalkEventBundle])
	assert.Equal(t, 1, metrics.events[fileutil.WalkEventTracked])
	assert.Equal(t, 5, metrics.events[fileutil.WalkEventSkipped])
}

func TestWalkFilesIsRestartable(t *testing.T) {
	f, mem := memFS()
	buildTree(t, mem)

	seq := f.WalkFiles("/media")
	first := slices.Collect(seq)
	second := slices.Collect(seq)
	assert.NotEmpty(t, first)
	assert.Equal(t, first, second)
}

func TestWalkFilesFromSharesVisitedSet(t *testing.T) {
	f, mem := memFS()
	buildTree(t, mem)

	visited := fileutil.NewVisitedSet()
	first := slices.Collect(f.WalkFilesFrom("/media/shows", visited))
	assert.Len(t, first, 2)
	assert.True(t, visited.Contains("/media/shows/s01"))

	assert.Empty(t, slices.Collect(f.WalkFilesFrom("/media/shows", visited)))

	// The parent walk still reaches everything outside the visited subtree.
	rest := slices.Collect(f.WalkFilesFrom("/media", visited))
	assert.NotContains(t, rest, "/media/shows/s01/e01.avi")
	assert.Contains(t, rest, "/media/a.avi")
}

func TestWalkFilesStopsWhenCallerBreaks(t *testing.T) {
	f, mem := memFS()
	buildTree(t, mem)

	var got []string
	for p := range f.WalkFiles("/media") {
		got = append(got, p)
		if len(got) == 2 {
			break
		}
	}
	assert.Len(t, got, 2)
}

func TestWalkFilesSkipsUnreadableSubtree(t *testing.T) {
	faulty := fileutiltest.New(nil)
	buildTree(t, faulty)
	faulty.FailOpen("/media/shows/s01", errors.New("i/o error"))
	f := fileutil.New(fileutil.WithFs(faulty))

	got := slices.Collect(f.WalkFiles("/media"))
	assert.Contains(t, got, "/media/a.avi")
	assert.Contains(t, got, "/media/sub/done.avi")
	assert.NotContains(t, got, "/media/shows/s01/e01.avi")

	assert.Empty(t, slices.Collect(f.WalkFiles("/does/not/exist")))
}

func TestWalkFilesTopLevelBundleOrTracked(t *testing.T) {
	tr := tracker.New()
	f, mem := memFS(fileutil.WithTracker(tr), fileutil.WithBundleFunc(fileutil.ExtensionBundle("app")))
	buildTree(t, mem)

	assert.Empty(t, slices.Collect(f.WalkFiles("/media/Player.app")))

	tr.Add("/media/shows")
	assert.Empty(t, slices.Collect(f.WalkFiles("/media/shows")))
}

func TestWalkFilesCustomSkipNames(t *testing.T) {
	f, mem := memFS(fileutil.WithSkipNames("desktop.ini"), fileutil.WithIncompleteDir(""))
	buildTree(t, mem)
	writeFile(t, mem, "/media/Desktop.INI", 1)

	got := slices.Collect(f.WalkFiles("/media"))
	assert.NotContains(t, got, "/media/desktop.ini")
	assert.NotContains(t, got, "/media/Desktop.INI")
	assert.Contains(t, got, "/media/THUMBS.db")
	assert.Contains(t, got, "/media/Incomplete Downloads/partial.avi")
}

func TestWalkFilesSymlinkCycle(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "a"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "b"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "a", "one.avi"), []byte("1"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "b", "two.avi"), []byte("2"), 0o644))

	if err := os.Symlink(root, filepath.Join(root, "a", "loop")); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}
	require.NoError(t, os.Symlink(filepath.Join(root, "b"), filepath.Join(root, "link")))

	metrics := newRecordingMetrics()
	f := fileutil.New(fileutil.WithMetrics(metrics))

	got := slices.Collect(f.WalkFiles(root))
	assert.ElementsMatch(t, []string{
		filepath.Join(root, "a", "one.avi"),
		filepath.Join(root, "b", "two.avi"),
	}, got)
	assert.Equal(t, 2, metrics.events[fileutil.WalkEventCycle])
}

func TestIgnored(t *testing.T) {
	mem := afero.NewMemMapFs()
	writeFile(t, mem, "/media/a.avi", 1)
	writeFile(t, mem, "/media/.hidden", 1)
	writeFile(t, mem, "/media/Thumbs.db", 1)
	writeFile(t, mem, "/media/Incomplete Downloads/part.avi", 1)
	writeFile(t, mem, "/media/Movie.bundle/inner", 1)
	writeFile(t, mem, "/media/busy.avi", 1)

	fs := fileutil.New(fileutil.WithFs(mem), fileutil.WithBundleFunc(fileutil.ExtensionBundle(".bundle")))
	fs.Tracker().Add("/media/busy.avi")

	assert.False(t, fs.Ignored("/media/a.avi"))
	assert.False(t, fs.Ignored("/media/missing.avi"))
	assert.True(t, fs.Ignored("/media/.hidden"))
	assert.True(t, fs.Ignored("/media/Thumbs.db"))
	assert.True(t, fs.Ignored("/media/Incomplete Downloads"))
	assert.True(t, fs.Ignored("/media/Movie.bundle"))
	assert.True(t, fs.Ignored("/media/busy.avi"))
}
