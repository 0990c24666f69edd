// Package pathmap redirects logical paths under a virtual prefix to a
// physical directory and back.
//
// A Mapper holds zero or more rules. Expand turns a caller-visible path such
// as `%APPDATA%\movies\a.avi` into a real path below the rule's directory;
// Collapse performs the inverse so that paths handed back to callers keep the
// virtual spelling. When the mapper is disabled, or no rule matches, both
// functions return their input unchanged.
package pathmap

import (
	"path/filepath"
	"sort"
	"strings"
)

// VirtualSeparator joins a virtual prefix and the rest of a collapsed path.
const VirtualSeparator = `\`

// Rule maps a virtual prefix onto a real directory.
type Rule struct {
	// Prefix is the virtual token callers use, e.g. "%APPDATA%".
	Prefix string `mapstructure:"prefix" yaml:"prefix" json:"prefix"`

	// Dir is the physical directory the prefix stands for.
	Dir string `mapstructure:"dir" yaml:"dir" json:"dir"`
}

// Mapper expands and collapses virtual paths. The zero value and a nil
// *Mapper are valid and behave as the identity mapping.
//
// A Mapper is immutable after construction and safe for concurrent use.
type Mapper struct {
	enabled  bool
	byPrefix []Rule // longest prefix first
	byDir    []Rule // longest dir first
}

// New creates a Mapper. Rules with an empty prefix or directory are ignored.
func New(enabled bool, rules ...Rule) *Mapper {
	m := &Mapper{enabled: enabled}
	for _, r := range rules {
		if r.Prefix == "" || r.Dir == "" {
			continue
		}
		m.byPrefix = append(m.byPrefix, r)
	}
	m.byDir = append([]Rule(nil), m.byPrefix...)

	sort.SliceStable(m.byPrefix, func(i, j int) bool {
		return len(m.byPrefix[i].Prefix) > len(m.byPrefix[j].Prefix)
	})
	sort.SliceStable(m.byDir, func(i, j int) bool {
		return len(m.byDir[i].Dir) > len(m.byDir[j].Dir)
	})
	return m
}

// Identity returns a Mapper that never rewrites paths.
func Identity() *Mapper {
	return &Mapper{}
}

// Enabled reports whether the mapper rewrites paths at all.
func (m *Mapper) Enabled() bool {
	return m != nil && m.enabled && len(m.byPrefix) > 0
}

// Rules returns a copy of the configured rules, longest prefix first.
func (m *Mapper) Rules() []Rule {
	if m == nil {
		return nil
	}
	return append([]Rule(nil), m.byPrefix...)
}

// Expand rewrites a virtual path into a real path.
//
// The matching prefix is stripped together with any run of leading `/` or
// `\`; what remains is joined onto the rule's directory. A path consisting of
// the prefix alone expands to the directory itself.
func (m *Mapper) Expand(p string) string {
	if p == "" || !m.Enabled() {
		return p
	}
	for _, r := range m.byPrefix {
		if !strings.HasPrefix(p, r.Prefix) {
			continue
		}
		rest := trimSeparators(p[len(r.Prefix):])
		if rest == "" {
			return r.Dir
		}
		return filepath.Join(r.Dir, rest)
	}
	return p
}

// Collapse rewrites a real path below a rule directory back into its virtual
// spelling: the prefix, a backslash, then the remainder of the path.
//
// The directory must match on a path component boundary, so with a rule for
// "/data" the path "/database/x" is left alone.
func (m *Mapper) Collapse(p string) string {
	if p == "" || !m.Enabled() {
		return p
	}
	for _, r := range m.byDir {
		rest, ok := cutDir(p, r.Dir)
		if !ok {
			continue
		}
		rest = trimSeparators(rest)
		if rest == "" {
			return r.Prefix
		}
		return r.Prefix + VirtualSeparator + rest
	}
	return p
}

// IsVirtual reports whether p starts with one of the configured prefixes.
func (m *Mapper) IsVirtual(p string) bool {
	if !m.Enabled() {
		return false
	}
	for _, r := range m.byPrefix {
		if strings.HasPrefix(p, r.Prefix) {
			return true
		}
	}
	return false
}

func cutDir(p, dir string) (string, bool) {
	if !strings.HasPrefix(p, dir) {
		return "", false
	}
	rest := p[len(dir):]
	if rest == "" || isSeparator(rest[0]) || isSeparator(dir[len(dir)-1]) {
		return rest, true
	}
	return "", false
}

func trimSeparators(s string) string {
	return strings.TrimLeft(s, `/\`)
}

func isSeparator(c byte) bool {
	return c == '/' || c == '\\'
}
