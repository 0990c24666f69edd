// Package watch keeps a live view of the media files below a directory.
//
// A Watcher first reports every file the deep walk finds, then follows
// fsnotify events and reports files as they appear, change and disappear.
// The same filters as fileutil.FS.WalkFiles apply, including the delete
// tracker, so a file whose deletion is being retried never shows up.
package watch

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/afero"

	"github.com/marmos91/safefs/internal/logger"
	"github.com/marmos91/safefs/internal/pathcase"
	"github.com/marmos91/safefs/internal/telemetry"
	"github.com/marmos91/safefs/pkg/fileutil"
)

// ErrUnsupportedFs is returned by Run when the FS is not backed by the OS
// filesystem, which fsnotify requires.
var ErrUnsupportedFs = errors.New("watch: filesystem does not support notifications")

// Op is the kind of change an Event reports.
type Op string

const (
	OpAdded   Op = "added"
	OpChanged Op = "changed"
	OpRemoved Op = "removed"
)

// Event is one change to the set of watched files. Path uses the same
// spelling as the paths WalkFiles yields for the watched root.
type Event struct {
	Op      Op
	Path    string
	Initial bool // reported by the initial walk
}

func (e Event) String() string {
	return fmt.Sprintf("%s %s", e.Op, e.Path)
}

// Metrics records watcher activity. A nil Metrics disables collection.
type Metrics interface {
	RecordEvent(op Op, initial bool)
	SetWatchedDirs(n int)
}

// Watcher reports the files below one root directory.
type Watcher struct {
	fs      *fileutil.FS
	root    string
	metrics Metrics

	mu    sync.Mutex
	known map[string]struct{} // visible file paths
	dirs  map[string]string   // watched real dir -> visible dir
	reals map[string]struct{} // resolved dirs, cycle guard
	fsw   *fsnotify.Watcher
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithMetrics sets the metrics sink.
func WithMetrics(m Metrics) Option {
	return func(w *Watcher) {
		w.metrics = m
	}
}

// New creates a Watcher for root. Nothing happens until Run.
func New(fsys *fileutil.FS, root string, opts ...Option) *Watcher {
	w := &Watcher{
		fs:    fsys,
		root:  root,
		known: make(map[string]struct{}),
		dirs:  make(map[string]string),
		reals: make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Files returns the currently known files, sorted.
func (w *Watcher) Files() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	files := make([]string, 0, len(w.known))
	for p := range w.known {
		files = append(files, p)
	}
	slices.Sort(files)
	return files
}

// Run watches until ctx is cancelled, calling emit for every change. emit
// runs on the Run goroutine and must not block for long.
//
// Run returns nil when ctx is cancelled and an error if the watch cannot
// be set up.
func (w *Watcher) Run(ctx context.Context, emit func(Event)) error {
	if _, ok := w.fs.Afero().(*afero.OsFs); !ok {
		return ErrUnsupportedFs
	}
	if !w.fs.IsDir(w.root) {
		return fmt.Errorf("watch %s: %w", w.root, fs.ErrNotExist)
	}

	ctx, span := telemetry.StartFileSpan(ctx, telemetry.SpanWatch, w.root)
	defer span.End()

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer func() { _ = fsw.Close() }()

	w.mu.Lock()
	w.fsw = fsw
	w.mu.Unlock()

	w.addTree(w.root)
	for p := range w.fs.WalkFiles(w.root) {
		w.added(p, true, emit)
	}
	initial := len(w.Files())
	span.SetAttributes(telemetry.Entries(initial))
	logger.InfoCtx(ctx, "watching directory", logger.Dir(w.root), logger.KeyEntries, initial)

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			w.handle(ev, emit)

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			logger.WarnCtx(ctx, "watcher error", logger.Err(err))
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event, emit func(Event)) {
	visible, ok := w.visiblePath(ev.Name)
	if !ok {
		return
	}

	switch {
	case ev.Has(fsnotify.Create):
		if w.fs.Ignored(visible) {
			return
		}
		if w.fs.IsDir(visible) {
			w.addTree(visible)
			for p := range w.fs.WalkFiles(visible) {
				w.added(p, false, emit)
			}
			return
		}
		if w.fs.IsFile(visible) {
			w.added(visible, false, emit)
		}

	case ev.Has(fsnotify.Write):
		w.mu.Lock()
		_, known := w.known[visible]
		w.mu.Unlock()
		if known {
			w.emit(Event{Op: OpChanged, Path: visible}, emit)
		}

	case ev.Has(fsnotify.Remove), ev.Has(fsnotify.Rename):
		w.removed(ev.Name, visible, emit)
	}
}

// visiblePath maps an event path below a watched directory to the spelling
// WalkFiles uses.
func (w *Watcher) visiblePath(name string) (string, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	dir, ok := w.dirs[filepath.Dir(name)]
	if !ok {
		return "", false
	}
	return filepath.Join(dir, pathcase.Normcase(filepath.Base(name))), true
}

// addTree watches dir and every directory below it that the walker would
// enter.
func (w *Watcher) addTree(dir string) {
	watchPath := w.watchPath(dir)
	resolved, err := filepath.EvalSymlinks(watchPath)
	if err != nil {
		resolved = watchPath
	}

	w.mu.Lock()
	if _, seen := w.reals[resolved]; seen {
		w.mu.Unlock()
		return
	}
	w.reals[resolved] = struct{}{}
	w.mu.Unlock()

	if err := w.fsw.Add(watchPath); err != nil {
		logger.Debug("cannot watch directory", logger.Dir(dir), logger.Err(err))
		return
	}

	w.mu.Lock()
	w.dirs[watchPath] = dir
	n := len(w.dirs)
	w.mu.Unlock()
	if w.metrics != nil {
		w.metrics.SetWatchedDirs(n)
	}

	_, subdirs, ok := w.fs.ListChildren(dir)
	if !ok {
		return
	}
	for _, sub := range subdirs {
		if !w.fs.Ignored(sub) {
			w.addTree(sub)
		}
	}
}

func (w *Watcher) watchPath(dir string) string {
	p := w.fs.Expand(dir)
	if abs, err := filepath.Abs(p); err == nil {
		p = abs
	}
	return pathcase.Normcase(p)
}

func (w *Watcher) added(path string, initial bool, emit func(Event)) {
	w.mu.Lock()
	_, known := w.known[path]
	w.known[path] = struct{}{}
	w.mu.Unlock()
	if !known {
		w.emit(Event{Op: OpAdded, Path: path, Initial: initial}, emit)
	}
}

// removed handles a file or a whole watched directory going away.
func (w *Watcher) removed(name, visible string, emit func(Event)) {
	var gone []string

	w.mu.Lock()
	if _, ok := w.known[visible]; ok {
		delete(w.known, visible)
		gone = append(gone, visible)
	}
	if _, ok := w.dirs[name]; ok {
		prefix := visible + string(filepath.Separator)
		for p := range w.known {
			if strings.HasPrefix(p, prefix) {
				delete(w.known, p)
				gone = append(gone, p)
			}
		}
		for watched := range w.dirs {
			if watched == name || strings.HasPrefix(watched, name+string(filepath.Separator)) {
				delete(w.dirs, watched)
				_ = w.fsw.Remove(watched)
			}
		}
		w.reals = make(map[string]struct{}, len(w.dirs))
		for watched := range w.dirs {
			if resolved, err := filepath.EvalSymlinks(watched); err == nil {
				w.reals[resolved] = struct{}{}
			} else {
				w.reals[watched] = struct{}{}
			}
		}
	}
	n := len(w.dirs)
	w.mu.Unlock()

	if w.metrics != nil {
		w.metrics.SetWatchedDirs(n)
	}
	slices.Sort(gone)
	for _, p := range gone {
		w.emit(Event{Op: OpRemoved, Path: p}, emit)
	}
}

func (w *Watcher) emit(ev Event, emit func(Event)) {
	logger.Debug("watch event", "op", string(ev.Op), logger.Path(ev.Path))
	if w.metrics != nil {
		w.metrics.RecordEvent(ev.Op, ev.Initial)
	}
	if emit != nil {
		emit(ev)
	}
}
