//go:build windows

package fileutil

import (
	"errors"

	"golang.org/x/sys/windows"
)

func isPlatformLockError(err error) bool {
	return errors.Is(err, windows.ERROR_SHARING_VIOLATION) || errors.Is(err, windows.ERROR_LOCK_VIOLATION)
}

func isPlatformCrossDevice(err error) bool {
	return errors.Is(err, windows.ERROR_NOT_SAME_DEVICE)
}
