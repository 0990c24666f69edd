package watch_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/safefs/pkg/fileutil"
	"github.com/marmos91/safefs/pkg/watch"
)

const waitFor = 5 * time.Second

type recorder struct {
	mu     sync.Mutex
	events []watch.Event
}

func (r *recorder) emit(ev watch.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) snapshot() []watch.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]watch.Event(nil), r.events...)
}

func (r *recorder) has(op watch.Op, path string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ev := range r.events {
		if ev.Op == op && ev.Path == path {
			return true
		}
	}
	return false
}

func (r *recorder) count(op watch.Op, path string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, ev := range r.events {
		if ev.Op == op && ev.Path == path {
			n++
		}
	}
	return n
}

type countingMetrics struct {
	mu      sync.Mutex
	initial int
	live    int
	dirs    int
}

func (m *countingMetrics) RecordEvent(_ watch.Op, initial bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if initial {
		m.initial++
	} else {
		m.live++
	}
}

func (m *countingMetrics) SetWatchedDirs(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dirs = n
}

func write(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("data"), 0o644))
}

// start runs a watcher on root until the test ends and waits for the
// initial walk to report want files.
func start(t *testing.T, fsys *fileutil.FS, root string, want int, opts ...watch.Option) (*watch.Watcher, *recorder) {
	t.Helper()
	w := watch.New(fsys, root, opts...)
	rec := &recorder{}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx, rec.emit) }()

	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(waitFor):
			t.Error("watcher did not stop")
		}
	})

	require.Eventually(t, func() bool { return len(w.Files()) == want }, waitFor, 10*time.Millisecond)
	return w, rec
}

func TestInitialWalk(t *testing.T) {
	root := t.TempDir()
	write(t, filepath.Join(root, "a.avi"))
	write(t, filepath.Join(root, "shows", "b.mkv"))
	write(t, filepath.Join(root, ".hidden"))
	write(t, filepath.Join(root, "Incomplete Downloads", "c.avi"))

	metrics := &countingMetrics{}
	w, rec := start(t, fileutil.New(), root, 2, watch.WithMetrics(metrics))

	assert.Equal(t, []string{filepath.Join(root, "a.avi"), filepath.Join(root, "shows", "b.mkv")}, w.Files())
	assert.True(t, rec.has(watch.OpAdded, filepath.Join(root, "a.avi")))
	for _, ev := range rec.snapshot() {
		assert.True(t, ev.Initial, ev.String())
	}

	metrics.mu.Lock()
	defer metrics.mu.Unlock()
	assert.Equal(t, 2, metrics.initial)
	assert.Equal(t, 2, metrics.dirs, "root and shows are watched")
}

func TestLiveEvents(t *testing.T) {
	root := t.TempDir()
	existing := filepath.Join(root, "a.avi")
	write(t, existing)

	_, rec := start(t, fileutil.New(), root, 1)

	t.Run("FileCreated", func(t *testing.T) {
		p := filepath.Join(root, "new.avi")
		write(t, p)
		require.Eventually(t, func() bool { return rec.has(watch.OpAdded, p) }, waitFor, 10*time.Millisecond)
	})

	t.Run("FileChanged", func(t *testing.T) {
		require.NoError(t, os.WriteFile(existing, []byte("more data"), 0o644))
		require.Eventually(t, func() bool { return rec.has(watch.OpChanged, existing) }, waitFor, 10*time.Millisecond)
	})

	t.Run("DirectoryCreated", func(t *testing.T) {
		p := filepath.Join(root, "season", "e01.avi")
		write(t, p)
		require.Eventually(t, func() bool { return rec.has(watch.OpAdded, p) }, waitFor, 10*time.Millisecond)

		later := filepath.Join(root, "season", "e02.avi")
		write(t, later)
		require.Eventually(t, func() bool { return rec.has(watch.OpAdded, later) }, waitFor, 10*time.Millisecond)
		assert.Equal(t, 1, rec.count(watch.OpAdded, p))
	})

	t.Run("FileRemoved", func(t *testing.T) {
		require.NoError(t, os.Remove(existing))
		require.Eventually(t, func() bool { return rec.has(watch.OpRemoved, existing) }, waitFor, 10*time.Millisecond)
	})

	t.Run("DirectoryRemoved", func(t *testing.T) {
		require.NoError(t, os.RemoveAll(filepath.Join(root, "season")))
		require.Eventually(t, func() bool {
			return rec.has(watch.OpRemoved, filepath.Join(root, "season", "e01.avi")) &&
				rec.has(watch.OpRemoved, filepath.Join(root, "season", "e02.avi"))
		}, waitFor, 10*time.Millisecond)
	})

	t.Run("IgnoredNamesStayHidden", func(t *testing.T) {
		hidden := filepath.Join(root, ".partial")
		write(t, hidden)
		marker := filepath.Join(root, "marker.avi")
		write(t, marker)
		require.Eventually(t, func() bool { return rec.has(watch.OpAdded, marker) }, waitFor, 10*time.Millisecond)
		assert.False(t, rec.has(watch.OpAdded, hidden))
	})
}

func TestTrackedFilesAreNotReported(t *testing.T) {
	root := t.TempDir()
	busy := filepath.Join(root, "busy.avi")
	write(t, busy)
	write(t, filepath.Join(root, "a.avi"))

	fsys := fileutil.New()
	fsys.Tracker().Add(busy)

	w, _ := start(t, fsys, root, 1)
	assert.Equal(t, []string{filepath.Join(root, "a.avi")}, w.Files())
}

func TestRunRequiresOSFilesystem(t *testing.T) {
	fsys := fileutil.New(fileutil.WithFs(afero.NewMemMapFs()))
	err := watch.New(fsys, "/media").Run(context.Background(), nil)
	assert.ErrorIs(t, err, watch.ErrUnsupportedFs)
}

func TestRunRequiresDirectory(t *testing.T) {
	err := watch.New(fileutil.New(), filepath.Join(t.TempDir(), "missing")).Run(context.Background(), nil)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
