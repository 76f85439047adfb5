// Package pattern implements the fnmatch-compatible glob engine the
// expansion operators (${var#pat}, ${var%pat}, case/[[ =~ ]]-style
// matching) are built on: literal runes, `?`, `*`, bracket expressions
// with ranges, named classes, and negation, backslash escapes, and the
// extended-glob group forms `?(...)`, `*(...)`, `+(...)`, `@(...)`,
// and `!(...)`.
//
// No compiled intermediate form is exposed — Match takes the pattern
// as a plain string and parses it fresh on every call. The testable
// properties that matter here (idempotence, the trim-concatenation
// identity) are about the exported operators in pkg/expand, not about
// reusing a compiled pattern object across calls, and no third-party
// glob library in reach exposes the byte-offset / longest-match span
// primitives the trim operators need — so this package, unlike most
// of the rest of this core, is grounded on hand-rolled fnmatch logic
// rather than an imported matcher.
package pattern

import "unicode/utf8"

// Options controls how Match interprets a pattern.
type Options struct {
	// ExtGlob enables the `?(...)`, `*(...)`, `+(...)`, `@(...)`, and
	// `!(...)` group forms. When false, a leading `?`, `*`, `+`, `@`,
	// or `!` immediately followed by `(` is parsed as two ordinary
	// pattern elements (the quantifier character, then a literal `(`),
	// matching bash's behavior with extglob unset.
	ExtGlob bool
	// CaseFold makes literal and bracket-expression matching
	// case-insensitive, for `nocasematch`.
	CaseFold bool
}

// Match reports whether s matches pat in its entirety (fnmatch's
// default whole-string anchoring). Callers that need a match span
// rather than a whole-string boolean — substring search anchored at
// either end, or anywhere — use Find in find.go, which is built on top
// of Match and the Trim functions below.
func Match(pat, s string, opts Options) (bool, error) {
	nodes, err := parsePattern(newCursor(pat), opts)
	if err != nil {
		return false, err
	}
	sc := newCursor(s)
	end := sc.len()
	return matchFrom(nodes, 0, sc, 0, func(si int) bool { return si == end }, opts), nil
}

// Len reports s's length in whichever index space Match and the Trim
// functions use internally for s: bytes for an all-ASCII string, runes
// otherwise. Callers slicing a Trim result should always go through
// Slice rather than native Go slicing, since a plain byte index is
// wrong for a non-ASCII string under the wide cursor.
func Len(s string) int { return newCursor(s).len() }

// Slice returns s[i:j] in the same index space Len, Match, and the
// Trim functions use.
func Slice(s string, i, j int) string { return newCursor(s).slice(i, j) }

// cursor abstracts over a byte-indexed view of an all-ASCII string and
// a rune-indexed view of a string containing multibyte characters, so
// the matching algorithm in glob.go is written once and runs over
// either representation. isASCII decides which one newCursor builds.
type cursor interface {
	len() int
	at(i int) rune
	slice(i, j int) string
}

func newCursor(s string) cursor {
	if isASCII(s) {
		return byteCursor(s)
	}
	return wideCursor([]rune(s))
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

type byteCursor string

func (c byteCursor) len() int                  { return len(c) }
func (c byteCursor) at(i int) rune             { return rune(c[i]) }
func (c byteCursor) slice(i, j int) string     { return string(c[i:j]) }

type wideCursor []rune

func (c wideCursor) len() int              { return len(c) }
func (c wideCursor) at(i int) rune         { return c[i] }
func (c wideCursor) slice(i, j int) string { return string(c[i:j]) }
