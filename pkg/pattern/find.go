package pattern

import "strings"

// Mode selects how Find anchors its search of s for pat.
type Mode int

const (
	// Any searches for pat anywhere in s.
	Any Mode = iota
	// AnchoredBegin requires pat to match starting at s's first
	// character.
	AnchoredBegin
	// AnchoredEnd requires pat to match ending at s's last character.
	AnchoredEnd
)

// FindResult is the span of a match, in the same index space Len,
// Slice, and Match use (bytes for an all-ASCII string, runes
// otherwise).
type FindResult struct {
	Matched    bool
	Start, End int
}

// Find is the pattern engine's public match operation: it looks for
// pat in s under mode, always preferring the longest substring
// satisfying pat at whichever anchor the mode selects. AnchoredBegin
// and AnchoredEnd delegate to the Trim functions, which already
// implement the shrink-from-the-end longest search anchored at one
// end; Any runs the implicit-*-wrapping fast rejection before falling
// back to positional search, and is equivalent to FindFrom(pat, s, 0,
// opts).
func Find(pat, s string, mode Mode, opts Options) (FindResult, error) {
	switch mode {
	case AnchoredBegin:
		idx, err := TrimLongestPrefix(pat, s, opts)
		if err != nil || idx < 0 {
			return FindResult{}, err
		}
		return FindResult{Matched: true, Start: 0, End: idx}, nil
	case AnchoredEnd:
		idx, err := TrimLongestSuffix(pat, s, opts)
		if err != nil || idx < 0 {
			return FindResult{}, err
		}
		return FindResult{Matched: true, Start: idx, End: Len(s)}, nil
	default:
		return FindFrom(pat, s, 0, opts)
	}
}

// FindFrom searches s for the longest unanchored match of pat starting
// at or after offset from — the resumption primitive a global
// substitution scan (`${var//pat/rep}`) needs to find each successive
// non-overlapping occurrence without rescanning from the start of s
// every time. Called with from == 0, it performs the same
// implicit-*-wrapping fast rejection Find's Any mode describes: a
// failed whole-string match against the wrapped pattern skips
// positional search entirely.
func FindFrom(pat, s string, from int, opts Options) (FindResult, error) {
	nodes, err := parsePattern(newCursor(pat), opts)
	if err != nil {
		return FindResult{}, err
	}
	if from == 0 {
		ok, err := Match(wrapUnanchored(pat), s, opts)
		if err != nil {
			return FindResult{}, err
		}
		if !ok {
			return FindResult{}, nil
		}
	}
	c := newCursor(s)
	n := c.len()
	ml := minLen(nodes)
	for start := from; start <= n; start++ {
		for end := n; end >= start+ml; end-- {
			ok, err := Match(pat, c.slice(start, end), opts)
			if err != nil {
				return FindResult{}, err
			}
			if ok {
				return FindResult{Matched: true, Start: start, End: end}, nil
			}
		}
	}
	return FindResult{}, nil
}

// wrapUnanchored adds a leading `*` to pat unless it already starts
// with one, and a trailing `*` unless it already ends with one, each
// end decided on its own, so a single whole-string Match call can
// reject a non-matching s before positional search pays for trying
// every start position. A leading `*(` is the extended-glob
// zero-or-more group prefix, not a wildcard, so it still gets its own
// leading star. A trailing `*` preceded by an odd number of
// backslashes is itself an escaped, literal `*` rather than a
// wildcard, so wrapping still appends its own star in that case.
func wrapUnanchored(pat string) string {
	var b strings.Builder
	if !strings.HasPrefix(pat, "*") || strings.HasPrefix(pat, "*(") {
		b.WriteByte('*')
	}
	b.WriteString(pat)
	if !strings.HasSuffix(pat, "*") || trailingStarIsEscaped(pat) {
		b.WriteByte('*')
	}
	return b.String()
}

func trailingStarIsEscaped(pat string) bool {
	if !strings.HasSuffix(pat, "*") {
		return false
	}
	n := 0
	for i := len(pat) - 2; i >= 0 && pat[i] == '\\'; i-- {
		n++
	}
	return n%2 == 1
}

// minLen is the fewest characters nodes can ever consume, used to
// prune end positions in FindFrom's shrink loop that are too short to
// possibly match pat.
func minLen(nodes []node) int {
	total := 0
	for _, n := range nodes {
		switch v := n.(type) {
		case litNode, anyNode, classNode:
			total++
		case groupNode:
			total += groupMinLen(v)
		}
	}
	return total
}

func groupMinLen(g groupNode) int {
	switch g.kind {
	case '+', '@':
		m := -1
		for _, alt := range g.alts {
			if l := minLen(alt); m < 0 || l < m {
				m = l
			}
		}
		if m < 0 {
			return 0
		}
		return m
	default: // '?', '*', '!' can all match zero characters
		return 0
	}
}
