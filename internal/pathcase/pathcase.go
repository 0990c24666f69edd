// Package pathcase normalizes path spelling for case-insensitive comparison.
//
// Two helpers exist because callers need two different things. Fold gives a
// comparison key and is always lowercase, on every platform. Normcase gives a
// path that is still usable with the platform APIs, so it only changes case
// where the platform itself ignores case.
package pathcase

import (
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Fold returns a lowercase, NFC-normalized form of p suitable as a map key.
// Composed and decomposed spellings of the same name (as produced by HFS+)
// fold to the same key.
func Fold(p string) string {
	if p == "" {
		return p
	}
	return cases.Lower(language.Und).String(norm.NFC.String(p))
}

// Equal reports whether a and b name the same path ignoring case.
func Equal(a, b string) bool {
	return Fold(a) == Fold(b)
}
