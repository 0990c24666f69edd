// Package fileutil wraps filesystem primitives so they cope with virtual path
// prefixes, files held open by other processes and messy directory trees.
//
// Every wrapper runs its path arguments through a pathmap.Mapper before
// touching the filesystem, and functions that return paths collapse them back
// so callers keep seeing their own spelling. Directory listing and walking
// consult a tracker.DeleteTracker to hide entries whose deletion is still
// being retried.
package fileutil

import (
	"path/filepath"
	"time"

	"github.com/spf13/afero"

	"github.com/marmos91/safefs/internal/pathcase"
	"github.com/marmos91/safefs/pkg/pathmap"
	"github.com/marmos91/safefs/pkg/tracker"
)

const (
	// DefaultBlockSize is the block size used by CopyWithProgress.
	DefaultBlockSize = 32 << 10

	// DefaultIncompleteDir is skipped by WalkFiles in every directory.
	DefaultIncompleteDir = "Incomplete Downloads"
)

// DefaultSkipNames lists file names that are never media, compared
// case-insensitively. thumbs.db is the Windows thumbnail cache.
var DefaultSkipNames = []string{"thumbs.db"}

// Metrics records walker and copier activity.
// A nil Metrics disables collection.
type Metrics interface {
	// RecordWalkEvent counts one walker decision.
	RecordWalkEvent(event WalkEvent)

	// ObserveCopy records a finished CopyWithProgress run.
	ObserveCopy(bytes int64, duration time.Duration, result CopyResult)
}

// WalkEvent classifies what the walker did with a directory entry.
type WalkEvent string

const (
	WalkEventFile    WalkEvent = "file"    // regular file yielded
	WalkEventSkipped WalkEvent = "skipped" // hidden, junk or incomplete-downloads entry
	WalkEventTracked WalkEvent = "tracked" // entry is mid-deletion
	WalkEventBundle  WalkEvent = "bundle"  // opaque bundle directory
	WalkEventCycle   WalkEvent = "cycle"   // directory already visited
	WalkEventError   WalkEvent = "error"   // listing or stat failed
)

// CopyResult is the outcome of a CopyWithProgress run.
type CopyResult string

const (
	CopyResultOK        CopyResult = "ok"
	CopyResultCancelled CopyResult = "cancelled"
	CopyResultError     CopyResult = "error"
)

// FS is the entry point for all wrapped operations.
//
// An FS is safe for concurrent use as long as the backing afero.Fs is.
type FS struct {
	fs       afero.Fs
	mapper   *pathmap.Mapper
	tracker  *tracker.DeleteTracker
	isBundle BundleFunc
	metrics  Metrics

	skipNames     map[string]struct{} // folded
	incompleteDir string              // folded

	blockSize  int
	syncWrites bool

	// Chosen once in New from the capabilities of the backing filesystem.
	realpath func(string) (string, error)
	sameFile func(a, b string) (bool, error)
	access   func(path string, mode AccessMode) bool
}

// Option configures an FS.
type Option func(*FS)

// WithFs sets the backing filesystem. The default is the OS filesystem.
func WithFs(fsys afero.Fs) Option {
	return func(f *FS) {
		if fsys != nil {
			f.fs = fsys
		}
	}
}

// WithMapper sets the virtual path mapper.
func WithMapper(m *pathmap.Mapper) Option {
	return func(f *FS) {
		if m != nil {
			f.mapper = m
		}
	}
}

// WithTracker sets the delete tracker shared with the retry manager.
func WithTracker(t *tracker.DeleteTracker) Option {
	return func(f *FS) {
		if t != nil {
			f.tracker = t
		}
	}
}

// WithBundleFunc sets the predicate identifying opaque bundle directories.
func WithBundleFunc(fn BundleFunc) Option {
	return func(f *FS) {
		if fn != nil {
			f.isBundle = fn
		}
	}
}

// WithSkipNames replaces the list of junk file names.
func WithSkipNames(names ...string) Option {
	return func(f *FS) {
		f.skipNames = foldSet(names)
	}
}

// WithIncompleteDir sets the directory name the walker never enters.
// An empty name disables the check.
func WithIncompleteDir(name string) Option {
	return func(f *FS) {
		f.incompleteDir = pathcase.Fold(name)
	}
}

// WithBlockSize sets the CopyWithProgress block size.
func WithBlockSize(n int) Option {
	return func(f *FS) {
		if n > 0 {
			f.blockSize = n
		}
	}
}

// WithSyncWrites controls whether copies open the destination with O_SYNC.
func WithSyncWrites(enabled bool) Option {
	return func(f *FS) {
		f.syncWrites = enabled
	}
}

// WithMetrics sets the metrics sink. nil disables collection.
func WithMetrics(m Metrics) Option {
	return func(f *FS) {
		f.metrics = m
	}
}

// New creates an FS. Without options it works on the OS filesystem with no
// path mapping and a private tracker.
func New(opts ...Option) *FS {
	f := &FS{
		fs:            afero.NewOsFs(),
		mapper:        pathmap.Identity(),
		tracker:       tracker.New(),
		isBundle:      DefaultBundleFunc(),
		skipNames:     foldSet(DefaultSkipNames),
		incompleteDir: pathcase.Fold(DefaultIncompleteDir),
		blockSize:     DefaultBlockSize,
		syncWrites:    true,
	}
	for _, opt := range opts {
		opt(f)
	}

	if _, ok := f.fs.(*afero.OsFs); ok {
		f.realpath = filepath.EvalSymlinks
		f.sameFile = f.osSameFile
		f.access = osAccess
	} else {
		f.realpath = cleanAbs
		f.sameFile = f.pathSameFile
		f.access = f.statAccess
	}
	return f
}

// Afero returns the backing filesystem.
func (f *FS) Afero() afero.Fs { return f.fs }

// Mapper returns the path mapper.
func (f *FS) Mapper() *pathmap.Mapper { return f.mapper }

// Tracker returns the delete tracker.
func (f *FS) Tracker() *tracker.DeleteTracker { return f.tracker }

// Expand maps a caller-visible path to a real path.
func (f *FS) Expand(path string) string { return f.mapper.Expand(path) }

// Collapse maps a real path back to its caller-visible spelling.
func (f *FS) Collapse(path string) string { return f.mapper.Collapse(path) }

func (f *FS) recordWalk(event WalkEvent) {
	if f.metrics != nil {
		f.metrics.RecordWalkEvent(event)
	}
}

func foldSet(names []string) map[string]struct{} {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		if n != "" {
			set[pathcase.Fold(n)] = struct{}{}
		}
	}
	return set
}

func cleanAbs(path string) (string, error) {
	return filepath.Abs(path)
}
