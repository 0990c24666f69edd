package fileutil

import (
	"iter"
	"path/filepath"
	"strings"

	"github.com/marmos91/safefs/internal/logger"
	"github.com/marmos91/safefs/internal/pathcase"
)

// VisitedSet holds the resolved real paths of directories already entered
// by a walk. It is not safe for concurrent use.
type VisitedSet map[string]struct{}

// NewVisitedSet returns an empty VisitedSet.
func NewVisitedSet() VisitedSet {
	return make(VisitedSet)
}

// Contains reports whether the resolved directory realPath was visited.
func (v VisitedSet) Contains(realPath string) bool {
	_, ok := v[pathcase.Normcase(realPath)]
	return ok
}

func (v VisitedSet) add(realPath string) bool {
	key := pathcase.Normcase(realPath)
	if _, ok := v[key]; ok {
		return false
	}
	v[key] = struct{}{}
	return true
}

// ListChildren returns the immediate files and directories of dir. Child
// paths are dir joined with the case-normalized entry name, so a virtual dir
// yields virtual children.
//
// Hidden entries, junk names and entries being deleted are left out, as are
// entries that cannot be stat'ed. If the directory cannot be listed both
// slices are empty. If dir itself is being deleted, ok is false and the
// caller must not treat the result as an empty directory.
func (f *FS) ListChildren(dir string) (files, dirs []string, ok bool) {
	expanded := f.expandAbs(dir)
	if f.tracker.Contains(expanded) {
		logger.Debug("directory is being deleted, not listing", logger.Dir(expanded))
		return nil, nil, false
	}

	files, dirs = []string{}, []string{}
	names, err := f.readDirNames(expanded)
	if err != nil {
		logger.Debug("error listing directory", logger.Dir(expanded), logger.Err(err))
		return files, dirs, true
	}

	for _, name := range names {
		if f.isJunk(name) {
			continue
		}
		norm := pathcase.Normcase(name)
		expandedChild := filepath.Join(expanded, norm)
		if f.tracker.Contains(expandedChild) {
			continue
		}
		fi, err := f.fs.Stat(expandedChild)
		if err != nil {
			continue
		}
		if fi.IsDir() {
			dirs = append(dirs, filepath.Join(dir, norm))
		} else {
			files = append(files, filepath.Join(dir, norm))
		}
	}
	return files, dirs, true
}

// WalkFiles returns a lazy depth-first sequence of the regular files below
// dir. Each range over the sequence starts a fresh traversal.
//
// Symlinked directories are followed, but a directory whose resolved path
// was already entered is skipped, so cycles terminate. Bundles, hidden
// entries, junk names, the incomplete-downloads directory and entries being
// deleted are skipped. Errors listing a directory or stat'ing an entry are
// logged at debug level and the affected subtree contributes nothing.
func (f *FS) WalkFiles(dir string) iter.Seq[string] {
	return f.WalkFilesFrom(dir, nil)
}

// WalkFilesFrom is WalkFiles with an explicitly threaded visited set, so
// several walks can share one cycle guard. A nil set gives each range its
// own.
func (f *FS) WalkFilesFrom(dir string, visited VisitedSet) iter.Seq[string] {
	return func(yield func(string) bool) {
		v := visited
		if v == nil {
			v = NewVisitedSet()
		}
		f.walk(dir, v, yield)
	}
}

// walk reports false once yield asked to stop.
func (f *FS) walk(dir string, visited VisitedSet, yield func(string) bool) bool {
	expanded := f.expandAbs(dir)

	realDir, err := f.realpath(expanded)
	if err != nil {
		realDir = expanded
	}
	if !visited.add(realDir) {
		logger.Debug("directory already walked through a symlink, skipping",
			logger.Dir(expanded), logger.RealPath(realDir))
		f.recordWalk(WalkEventCycle)
		return true
	}

	if f.tracker.Contains(expanded) {
		f.recordWalk(WalkEventTracked)
		return true
	}
	if f.isBundle(expanded) {
		f.recordWalk(WalkEventBundle)
		return true
	}

	names, err := f.readDirNames(expanded)
	if err != nil {
		logger.Debug("error walking directory, continuing", logger.Dir(expanded), logger.Err(err))
		f.recordWalk(WalkEventError)
		return true
	}

	for _, name := range names {
		if f.isJunk(name) || f.isIncompleteDir(name) {
			f.recordWalk(WalkEventSkipped)
			continue
		}

		norm := pathcase.Normcase(name)
		expandedChild := filepath.Join(expanded, norm)
		if f.tracker.Contains(expandedChild) {
			f.recordWalk(WalkEventTracked)
			continue
		}

		fi, err := f.fs.Stat(expandedChild)
		if err != nil {
			logger.Debug("error walking directory, continuing", logger.Path(expandedChild), logger.Err(err))
			f.recordWalk(WalkEventError)
			continue
		}

		child := filepath.Join(dir, norm)
		switch {
		case fi.IsDir():
			if f.isBundle(expandedChild) {
				f.recordWalk(WalkEventBundle)
				continue
			}
			if !f.walk(child, visited, yield) {
				return false
			}
		case fi.Mode().IsRegular():
			f.recordWalk(WalkEventFile)
			if !yield(child) {
				return false
			}
		}
	}
	return true
}

func (f *FS) expandAbs(path string) string {
	p := f.Expand(path)
	if abs, err := filepath.Abs(p); err == nil {
		p = abs
	}
	return pathcase.Normcase(p)
}

// isJunk reports whether a directory entry is never of interest: dotfiles
// and the configured skip names.
func (f *FS) isJunk(name string) bool {
	if strings.HasPrefix(name, ".") {
		return true
	}
	_, skip := f.skipNames[pathcase.Fold(name)]
	return skip
}

func (f *FS) isIncompleteDir(name string) bool {
	return f.incompleteDir != "" && pathcase.Fold(name) == f.incompleteDir
}

// Ignored reports whether the walker would leave path out on its own
// account: a hidden or junk name, the incomplete-downloads directory, an
// entry being deleted, or a bundle directory. Ancestors are not checked.
func (f *FS) Ignored(path string) bool {
	expanded := f.expandAbs(path)
	name := filepath.Base(expanded)
	if f.isJunk(name) || f.isIncompleteDir(name) {
		return true
	}
	if f.tracker.Contains(expanded) {
		return true
	}
	if fi, err := f.fs.Stat(expanded); err == nil && fi.IsDir() {
		return f.isBundle(expanded)
	}
	return false
}
