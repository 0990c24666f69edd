//go:build !windows

package pathcase

// Normcase returns p unchanged: the filesystem is case-sensitive.
func Normcase(p string) string {
	return p
}
