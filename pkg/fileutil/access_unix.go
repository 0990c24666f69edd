//go:build !windows

package fileutil

import "golang.org/x/sys/unix"

func osAccess(path string, mode AccessMode) bool {
	return unix.Access(path, uint32(mode)) == nil
}
