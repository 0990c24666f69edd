//go:build !darwin

package fileutil

// DefaultBundleExtensions is empty: no directory is opaque on this platform.
var DefaultBundleExtensions []string
