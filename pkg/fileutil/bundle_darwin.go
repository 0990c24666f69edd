//go:build darwin

package fileutil

// DefaultBundleExtensions are the directory extensions Finder presents as a
// single file.
var DefaultBundleExtensions = []string{
	".app",
	".bundle",
	".framework",
	".kext",
	".plugin",
	".rtfd",
	".photoslibrary",
	".fcpbundle",
	".imovielibrary",
	".tvlibrary",
	".dvdmedia",
}
