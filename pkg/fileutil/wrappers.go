package fileutil

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/afero"

	"github.com/marmos91/safefs/internal/logger"
	"github.com/marmos91/safefs/internal/pathcase"
	"github.com/marmos91/safefs/pkg/bufpool"
)

// ErrNotDir is returned by Rmdir when the target is not a directory.
var ErrNotDir = errors.New("not a directory")

// Exists reports whether path names an existing entry. An empty path is
// never considered to exist.
func (f *FS) Exists(path string) bool {
	if path == "" {
		logger.Debug("special case used in Exists: empty path")
		return false
	}
	_, err := f.fs.Stat(f.Expand(path))
	return err == nil
}

// IsFile reports whether path is a regular file.
func (f *FS) IsFile(path string) bool {
	if path == "" {
		return false
	}
	fi, err := f.fs.Stat(f.Expand(path))
	return err == nil && fi.Mode().IsRegular()
}

// IsDir reports whether path is a directory.
func (f *FS) IsDir(path string) bool {
	if path == "" {
		return false
	}
	fi, err := f.fs.Stat(f.Expand(path))
	return err == nil && fi.IsDir()
}

// IsAbs reports whether path is absolute once expanded.
func (f *FS) IsAbs(path string) bool {
	return filepath.IsAbs(f.Expand(path))
}

// Stat returns the file info of path, following symlinks.
func (f *FS) Stat(path string) (os.FileInfo, error) {
	return f.fs.Stat(f.Expand(path))
}

// Mtime returns the modification time of path. Times before the Unix epoch
// are clamped to the epoch.
func (f *FS) Mtime(path string) (time.Time, error) {
	fi, err := f.fs.Stat(f.Expand(path))
	if err != nil {
		return time.Time{}, err
	}
	return clampEpoch(fi.ModTime()), nil
}

// Ctime returns the platform's "ctime" of path: the inode change time on
// Unix, the creation time on Windows. Filesystems that do not expose it
// report the modification time. Times before the Unix epoch are clamped.
func (f *FS) Ctime(path string) (time.Time, error) {
	fi, err := f.fs.Stat(f.Expand(path))
	if err != nil {
		return time.Time{}, err
	}
	t, ok := ctimeOf(fi)
	if !ok {
		t = fi.ModTime()
	}
	return clampEpoch(t), nil
}

func clampEpoch(t time.Time) time.Time {
	if t.Unix() < 0 {
		return time.Unix(0, 0)
	}
	return t
}

// Remove deletes a file or an empty directory.
func (f *FS) Remove(path string) error {
	if err := ValidatePath("remove", path); err != nil {
		return err
	}
	return f.fs.Remove(f.Expand(path))
}

// RemoveAll deletes path and everything below it.
func (f *FS) RemoveAll(path string) error {
	if err := ValidatePath("removeall", path); err != nil {
		return err
	}
	return f.fs.RemoveAll(f.Expand(path))
}

// Rmdir deletes an empty directory.
func (f *FS) Rmdir(path string) error {
	if err := ValidatePath("rmdir", path); err != nil {
		return err
	}
	target := f.Expand(path)
	fi, err := f.fs.Stat(target)
	if err != nil {
		return err
	}
	if !fi.IsDir() {
		return &os.PathError{Op: "rmdir", Path: target, Err: ErrNotDir}
	}
	return f.fs.Remove(target)
}

// Makedirs creates path and any missing parents.
func (f *FS) Makedirs(path string, perm os.FileMode) error {
	if err := ValidatePath("makedirs", path); err != nil {
		return err
	}
	return f.fs.MkdirAll(f.Expand(path), perm)
}

// Rename renames src to dst.
func (f *FS) Rename(src, dst string) error {
	if err := ValidatePath("rename", src); err != nil {
		return err
	}
	if err := ValidatePath("rename", dst); err != nil {
		return err
	}
	return f.fs.Rename(f.Expand(src), f.Expand(dst))
}

// Move moves src to dst. If dst is an existing directory, src is moved
// inside it, and an entry of the same name already there is an error.
// Moving a directory into itself fails with ErrMoveIntoSelf.
//
// Only a rename across devices falls back to copying the tree and removing
// the source. Symlinks are copied as links. If that fallback wrote to the
// destination but could not finish, the error is a *PartialMoveError and the
// copy is left for the caller to clean up. A directory that was copied but
// could not be removed is not partial: the copy stays and a plain error is
// returned.
func (f *FS) Move(src, dst string) error {
	if err := ValidatePath("move", src); err != nil {
		return err
	}
	if err := ValidatePath("move", dst); err != nil {
		return err
	}

	realSrc, realDst := f.Expand(src), f.Expand(dst)
	if fi, err := f.fs.Stat(realDst); err == nil && fi.IsDir() {
		realDst = filepath.Join(realDst, filepath.Base(realSrc))
		if _, err := f.lstat(realDst); err == nil {
			return &os.LinkError{Op: "move", Old: realSrc, New: realDst, Err: fs.ErrExist}
		}
	}
	srcInfo, err := f.lstat(realSrc)
	srcDir := err == nil && srcInfo.IsDir()
	if srcDir && f.within(realDst, realSrc) {
		return &os.LinkError{Op: "move", Old: realSrc, New: realDst, Err: ErrMoveIntoSelf}
	}

	renameErr := f.fs.Rename(realSrc, realDst)
	if renameErr == nil || !IsCrossDevice(renameErr) {
		return renameErr
	}

	logger.Debug("rename crosses devices, moving by copy",
		logger.Path(realSrc), logger.Dest(realDst), logger.Err(renameErr))

	_, statErr := f.lstat(realDst)
	created := errors.Is(statErr, fs.ErrNotExist)

	if err := f.copyTree(realSrc, realDst); err != nil {
		var wrote *dstWriteError
		_, after := f.lstat(realDst)
		if (created && after == nil) || errors.As(err, &wrote) {
			return &PartialMoveError{Dest: realDst, Created: created, Err: err}
		}
		return err
	}
	if err := f.fs.RemoveAll(realSrc); err != nil {
		// Part of a tree may already be gone, so the copy is all that is left.
		if srcDir {
			return err
		}
		return &PartialMoveError{Dest: realDst, Created: created, Err: err}
	}
	return nil
}

// dstWriteError marks a copy failure after the destination file was
// truncated.
type dstWriteError struct{ err error }

func (e *dstWriteError) Error() string { return e.err.Error() }
func (e *dstWriteError) Unwrap() error { return e.err }

// within reports whether path is dir or lies below it.
func (f *FS) within(path, dir string) bool {
	p, d := f.expandAbs(path), f.expandAbs(dir)
	return p == d || strings.HasPrefix(p, d+string(filepath.Separator))
}

// lstat does not follow a final symlink when the filesystem supports it.
func (f *FS) lstat(path string) (os.FileInfo, error) {
	if l, ok := f.fs.(afero.Lstater); ok {
		fi, _, err := l.LstatIfPossible(path)
		return fi, err
	}
	return f.fs.Stat(path)
}

// copyTree copies a file, symlink or directory tree between real paths.
func (f *FS) copyTree(src, dst string) error {
	fi, err := f.lstat(src)
	if err != nil {
		return err
	}

	switch {
	case fi.Mode()&os.ModeSymlink != 0:
		return f.copySymlink(src, dst)
	case !fi.IsDir():
		return f.copyFile(src, dst, fi.Mode().Perm())
	}

	if err := f.fs.MkdirAll(dst, fi.Mode().Perm()); err != nil {
		return err
	}
	names, err := f.readDirNames(src)
	if err != nil {
		return err
	}
	for _, name := range names {
		if err := f.copyTree(filepath.Join(src, name), filepath.Join(dst, name)); err != nil {
			return err
		}
	}
	return nil
}

func (f *FS) copySymlink(src, dst string) error {
	link, ok := f.fs.(afero.Symlinker)
	if !ok {
		return &os.LinkError{Op: "symlink", Old: src, New: dst, Err: afero.ErrNoSymlink}
	}
	target, err := link.ReadlinkIfPossible(src)
	if err != nil {
		return err
	}
	return link.SymlinkIfPossible(target, dst)
}

func (f *FS) copyFile(src, dst string, perm os.FileMode) error {
	in, err := f.fs.Open(src)
	if err != nil {
		return err
	}
	defer func() { _ = in.Close() }()

	out, err := f.fs.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return err
	}

	buf := bufpool.Get(f.blockSize)
	defer bufpool.Put(buf)

	if _, err := io.CopyBuffer(out, in, buf); err != nil {
		_ = out.Close()
		return &dstWriteError{err}
	}
	if err := out.Close(); err != nil {
		return &dstWriteError{err}
	}
	return nil
}

// ReadDirNames returns the names in directory path, sorted.
func (f *FS) ReadDirNames(path string) ([]string, error) {
	if err := ValidatePath("readdir", path); err != nil {
		return nil, err
	}
	return f.readDirNames(f.Expand(path))
}

func (f *FS) readDirNames(dirPath string) ([]string, error) {
	dir, err := f.fs.Open(dirPath)
	if err != nil {
		return nil, err
	}
	defer func() { _ = dir.Close() }()

	names, err := dir.Readdirnames(-1)
	if err != nil {
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}

// Open opens path for reading.
func (f *FS) Open(path string) (afero.File, error) {
	if err := ValidatePath("open", path); err != nil {
		return nil, err
	}
	return f.fs.Open(f.Expand(path))
}

// OpenFile opens path with the given flags and permissions.
func (f *FS) OpenFile(path string, flag int, perm os.FileMode) (afero.File, error) {
	if err := ValidatePath("open", path); err != nil {
		return nil, err
	}
	return f.fs.OpenFile(f.Expand(path), flag, perm)
}

// Access reports whether the calling process may access path with mode.
func (f *FS) Access(path string, mode AccessMode) bool {
	if path == "" {
		return false
	}
	return f.access(f.Expand(path), mode)
}

// Abs returns an absolute form of path. The result is collapsed again so
// virtual paths keep their prefix.
func (f *FS) Abs(path string) (string, error) {
	abs, err := filepath.Abs(f.Expand(path))
	if err != nil {
		return "", err
	}
	return f.Collapse(abs), nil
}

// SameFile reports whether a and b refer to the same file. On the OS
// filesystem the comparison uses device and inode identity; elsewhere it
// falls back to comparing case-normalized absolute paths.
func (f *FS) SameFile(a, b string) (bool, error) {
	return f.sameFile(f.Expand(a), f.Expand(b))
}

func (f *FS) osSameFile(a, b string) (bool, error) {
	fa, err := f.fs.Stat(a)
	if err != nil {
		return false, err
	}
	fb, err := f.fs.Stat(b)
	if err != nil {
		return false, err
	}
	return os.SameFile(fa, fb), nil
}

func (f *FS) pathSameFile(a, b string) (bool, error) {
	absA, err := filepath.Abs(a)
	if err != nil {
		return false, err
	}
	absB, err := filepath.Abs(b)
	if err != nil {
		return false, err
	}
	return pathcase.Normcase(absA) == pathcase.Normcase(absB), nil
}
