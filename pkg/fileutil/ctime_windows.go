//go:build windows

package fileutil

import (
	"os"
	"syscall"
	"time"
)

func ctimeOf(fi os.FileInfo) (time.Time, bool) {
	attr, ok := fi.Sys().(*syscall.Win32FileAttributeData)
	if !ok {
		return time.Time{}, false
	}
	return time.Unix(0, attr.CreationTime.Nanoseconds()), true
}
