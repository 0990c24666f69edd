package fileutil

import "strings"

// FileSet answers "is this path one of a known set" ignoring case. Paths are
// stored lowercased and compared verbatim otherwise: no expansion and no
// separator cleanup.
//
// A FileSet is not safe for concurrent use.
type FileSet struct {
	paths map[string]struct{}
}

// NewFileSet returns a FileSet holding the given paths.
func NewFileSet(paths ...string) *FileSet {
	s := &FileSet{paths: make(map[string]struct{}, len(paths))}
	for _, p := range paths {
		s.Add(p)
	}
	return s
}

// Add inserts path.
func (s *FileSet) Add(path string) {
	if s.paths == nil {
		s.paths = make(map[string]struct{})
	}
	s.paths[strings.ToLower(path)] = struct{}{}
}

// Contains reports whether path, or a case variant of it, was added.
func (s *FileSet) Contains(path string) bool {
	_, ok := s.paths[strings.ToLower(path)]
	return ok
}

// Len returns the number of distinct paths.
func (s *FileSet) Len() int {
	return len(s.paths)
}
