package fileutil

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidPath is returned when a caller passes an empty path or one
	// containing a NUL byte. It signals a programming error, not an
	// environmental condition, and is never retried.
	ErrInvalidPath = errors.New("invalid path")

	// ErrLockInUse can be returned (or wrapped) by non-OS filesystems to
	// signal that another process holds the file open. IsLockInUse treats it
	// like the platform's own sharing-violation errors.
	ErrLockInUse = errors.New("file in use by another process")

	// ErrCrossDevice can be returned (or wrapped) by a Rename of a non-OS
	// filesystem to make Move fall back to copy and remove, as it does for
	// the platform's own cross-device errors.
	ErrCrossDevice = errors.New("cross-device rename")

	// ErrMoveIntoSelf is returned by Move for a directory whose destination
	// lies inside it.
	ErrMoveIntoSelf = errors.New("cannot move a directory into itself")
)

// PartialMoveError is returned by Move when the copy fallback wrote to Dest
// but the move could not be completed, so a copy of the source may be left
// at Dest while the source is still in place.
//
// Created is set when Dest did not exist before the copy. A false Created
// means an existing regular file was truncated and overwritten.
type PartialMoveError struct {
	Dest    string
	Created bool
	Err     error
}

func (e *PartialMoveError) Error() string {
	return fmt.Sprintf("move to %s left a partial copy: %v", e.Dest, e.Err)
}

func (e *PartialMoveError) Unwrap() error {
	return e.Err
}

// PathError records a usage error together with the operation and path.
type PathError struct {
	Op   string
	Path string
	Err  error
}

func (e *PathError) Error() string {
	return fmt.Sprintf("%s %q: %v", e.Op, e.Path, e.Err)
}

func (e *PathError) Unwrap() error {
	return e.Err
}

// IsUsageError reports whether err was caused by invalid arguments.
func IsUsageError(err error) bool {
	return errors.Is(err, ErrInvalidPath)
}

// ValidatePath rejects paths no platform primitive could accept.
func ValidatePath(op, path string) error {
	if path == "" {
		return &PathError{Op: op, Path: path, Err: fmt.Errorf("%w: empty", ErrInvalidPath)}
	}
	if strings.IndexByte(path, 0) >= 0 {
		return &PathError{Op: op, Path: path, Err: fmt.Errorf("%w: contains NUL byte", ErrInvalidPath)}
	}
	return nil
}

// IsLockInUse reports whether err means the target is held open by another
// process. On Windows that is a sharing or lock violation; on Unix-like
// systems EBUSY and ETXTBSY. nil and every other error are not lock errors.
func IsLockInUse(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrLockInUse) {
		return true
	}
	return isPlatformLockError(err)
}

// IsCrossDevice reports whether err is a rename failure caused by source
// and destination living on different devices or volumes.
func IsCrossDevice(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrCrossDevice) || isPlatformCrossDevice(err)
}
