package fileutil

import (
	"path/filepath"
	"strings"
)

// BundleFunc reports whether the directory at path is a self-contained
// bundle that the walker must treat as a single opaque unit.
type BundleFunc func(path string) bool

// ExtensionBundle returns a BundleFunc matching directory names by
// extension, case-insensitively. Extensions may be given with or without the
// leading dot.
func ExtensionBundle(exts ...string) BundleFunc {
	set := make(map[string]struct{}, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		set[ext] = struct{}{}
	}
	if len(set) == 0 {
		return NoBundles
	}
	return func(path string) bool {
		_, ok := set[strings.ToLower(filepath.Ext(strings.TrimRight(path, `/\`)))]
		return ok
	}
}

// NoBundles never reports a bundle.
func NoBundles(string) bool { return false }

// DefaultBundleFunc returns the bundle predicate for the current platform.
func DefaultBundleFunc() BundleFunc {
	return ExtensionBundle(DefaultBundleExtensions...)
}
