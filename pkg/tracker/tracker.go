// Package tracker records paths whose deletion is still in progress.
//
// A delete that fails because another process holds the file open is retried
// later. Until that chain finishes, directory scanners consult the tracker so
// they do not report (or re-import) a file that is about to disappear.
package tracker

import (
	"path/filepath"
	"sync"

	"github.com/marmos91/safefs/internal/pathcase"
)

// DeleteTracker is a set of absolute, case-folded paths.
//
// The zero value is ready to use. A nil tracker is empty and ignores Add
// and Discard. All methods are safe for concurrent use; the retry chain
// writes while walkers read from other goroutines.
type DeleteTracker struct {
	mu    sync.RWMutex
	paths map[string]struct{}
}

// New returns an empty tracker.
func New() *DeleteTracker {
	return &DeleteTracker{paths: make(map[string]struct{})}
}

// Key returns the form under which path is stored: absolute, cleaned and
// case-folded. It does not consult any virtual path mapping.
func Key(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	return pathcase.Fold(path)
}

// Add marks path as being deleted.
func (t *DeleteTracker) Add(path string) {
	if t == nil {
		return
	}
	key := Key(path)

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.paths == nil {
		t.paths = make(map[string]struct{})
	}
	t.paths[key] = struct{}{}
}

// Discard removes path. Discarding an absent path is a no-op.
func (t *DeleteTracker) Discard(path string) {
	if t == nil {
		return
	}
	key := Key(path)

	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.paths, key)
}

// Contains reports whether path is currently being deleted.
func (t *DeleteTracker) Contains(path string) bool {
	if t == nil {
		return false
	}
	key := Key(path)

	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.paths[key]
	return ok
}

// Len returns the number of tracked paths.
func (t *DeleteTracker) Len() int {
	if t == nil {
		return 0
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.paths)
}

// Snapshot returns the tracked keys in no particular order.
func (t *DeleteTracker) Snapshot() []string {
	if t == nil {
		return nil
	}
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]string, 0, len(t.paths))
	for k := range t.paths {
		out = append(out, k)
	}
	return out
}
