package fileutil

import "os"

// AccessMode is a bit set of the checks performed by Access. The values
// match access(2).
type AccessMode uint32

const (
	AccessExists  AccessMode = 0
	AccessExecute AccessMode = 1
	AccessWrite   AccessMode = 2
	AccessRead    AccessMode = 4
)

// statAccess approximates access(2) from permission bits for filesystems
// that have no notion of a calling user.
func (f *FS) statAccess(path string, mode AccessMode) bool {
	fi, err := f.fs.Stat(path)
	if err != nil {
		return false
	}
	return permAllows(fi, mode)
}

func permAllows(fi os.FileInfo, mode AccessMode) bool {
	perm := fi.Mode().Perm()
	if mode&AccessRead != 0 && perm&0o444 == 0 {
		return false
	}
	if mode&AccessWrite != 0 && perm&0o222 == 0 {
		return false
	}
	if mode&AccessExecute != 0 && perm&0o111 == 0 {
		return false
	}
	return true
}
