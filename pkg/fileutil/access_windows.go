//go:build windows

package fileutil

import "os"

// Windows has no access(2); the read-only attribute is reflected in the
// permission bits returned by os.Stat.
func osAccess(path string, mode AccessMode) bool {
	fi, err := os.Stat(path)
	if err != nil {
		return false
	}
	return permAllows(fi, mode&^AccessExecute)
}
