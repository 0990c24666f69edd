// Package fileutiltest provides filesystem doubles for exercising the
// lock-contention and error paths of fileutil and retry.
package fileutiltest

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/afero"

	"github.com/marmos91/safefs/pkg/fileutil"
)

// FaultyFs wraps an afero.Fs and injects failures per path.
//
// Locked paths make Remove, RemoveAll and Rename fail with an error wrapping
// fileutil.ErrLockInUse, as if another process held them open. RemoveAll and
// Rename also fail when any locked path lies below the target. Arbitrary
// errors can be injected for the same calls with FailMutations, and for Open
// with FailOpen to simulate unreadable directories. CrossDevice makes a
// Rename fail with fileutil.ErrCrossDevice so Move takes its copy path.
type FaultyFs struct {
	afero.Fs

	mu       sync.Mutex
	locked   map[string]struct{}
	openErrs map[string]error
	mutErrs  map[string]error
	xdev     map[string]struct{}
	removes  int
	renames  int
	lockHits int
}

// New wraps fsys. A nil fsys gets a fresh in-memory filesystem.
func New(fsys afero.Fs) *FaultyFs {
	if fsys == nil {
		fsys = afero.NewMemMapFs()
	}
	return &FaultyFs{
		Fs:       fsys,
		locked:   make(map[string]struct{}),
		openErrs: make(map[string]error),
		mutErrs:  make(map[string]error),
		xdev:     make(map[string]struct{}),
	}
}

// Lock marks path as held open by another process.
func (f *FaultyFs) Lock(path string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.locked[filepath.Clean(path)] = struct{}{}
}

// Unlock releases path.
func (f *FaultyFs) Unlock(path string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.locked, filepath.Clean(path))
}

// FailOpen makes every Open and OpenFile of path return err.
func (f *FaultyFs) FailOpen(path string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.openErrs[filepath.Clean(path)] = err
}

// FailMutations makes Remove, RemoveAll and Rename of path return err.
func (f *FaultyFs) FailMutations(path string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mutErrs[filepath.Clean(path)] = err
}

// CrossDevice makes every Rename of path fail as if its destination were
// on another device, ahead of any lock, so that a locked source is copied
// and then fails to be removed.
func (f *FaultyFs) CrossDevice(path string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.xdev[filepath.Clean(path)] = struct{}{}
}

// Removes returns how many Remove and RemoveAll calls were made.
func (f *FaultyFs) Removes() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.removes
}

// Renames returns how many Rename calls were made.
func (f *FaultyFs) Renames() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.renames
}

// LockHits returns how many calls failed because of a lock.
func (f *FaultyFs) LockHits() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lockHits
}

// lockedAt reports whether path, or something below it when tree is set,
// is locked. Callers hold f.mu.
func (f *FaultyFs) lockedAt(path string, tree bool) bool {
	path = filepath.Clean(path)
	if _, ok := f.locked[path]; ok {
		return true
	}
	if !tree {
		return false
	}
	prefix := path + string(filepath.Separator)
	for p := range f.locked {
		if strings.HasPrefix(p, prefix) {
			return true
		}
	}
	return false
}

// mutationErr returns the error a mutating call on path must fail with, or
// nil. Callers hold f.mu.
func (f *FaultyFs) mutationErr(op, path string, tree bool) error {
	if err, ok := f.mutErrs[filepath.Clean(path)]; ok {
		return &os.PathError{Op: op, Path: path, Err: err}
	}
	if f.lockedAt(path, tree) {
		f.lockHits++
		return &os.PathError{Op: op, Path: path, Err: fileutil.ErrLockInUse}
	}
	return nil
}

func (f *FaultyFs) Remove(name string) error {
	f.mu.Lock()
	f.removes++
	err := f.mutationErr("remove", name, false)
	f.mu.Unlock()
	if err != nil {
		return err
	}
	return f.Fs.Remove(name)
}

func (f *FaultyFs) RemoveAll(path string) error {
	f.mu.Lock()
	f.removes++
	err := f.mutationErr("removeall", path, true)
	f.mu.Unlock()
	if err != nil {
		return err
	}
	return f.Fs.RemoveAll(path)
}

func (f *FaultyFs) Rename(oldname, newname string) error {
	f.mu.Lock()
	f.renames++
	var err error
	if _, ok := f.xdev[filepath.Clean(oldname)]; ok {
		err = &os.LinkError{Op: "rename", Old: oldname, New: newname, Err: fileutil.ErrCrossDevice}
	} else {
		err = f.mutationErr("rename", oldname, true)
	}
	f.mu.Unlock()
	if err != nil {
		return err
	}
	return f.Fs.Rename(oldname, newname)
}

func (f *FaultyFs) Open(name string) (afero.File, error) {
	if err := f.openErr(name); err != nil {
		return nil, err
	}
	return f.Fs.Open(name)
}

func (f *FaultyFs) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	if err := f.openErr(name); err != nil {
		return nil, err
	}
	return f.Fs.OpenFile(name, flag, perm)
}

func (f *FaultyFs) openErr(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.openErrs[filepath.Clean(name)]; ok {
		return &os.PathError{Op: "open", Path: name, Err: err}
	}
	return nil
}
