//go:build !windows

package fileutil

import (
	"errors"

	"golang.org/x/sys/unix"
)

func isPlatformLockError(err error) bool {
	return errors.Is(err, unix.EBUSY) || errors.Is(err, unix.ETXTBSY)
}

func isPlatformCrossDevice(err error) bool {
	return errors.Is(err, unix.EXDEV)
}
