//go:build windows

package pathcase

import "strings"

// Normcase lowercases p and converts forward slashes to backslashes, matching
// how the Windows file APIs compare names.
func Normcase(p string) string {
	return strings.ReplaceAll(Fold(p), "/", `\`)
}
