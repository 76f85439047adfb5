package pattern

// TrimLongestPrefix returns the length, in the cursor's own index
// space (bytes for an all-ASCII string, runes otherwise — callers
// that need a byte offset for a non-ASCII string should re-derive it
// from the returned candidate string's byte length), of the longest
// prefix of s matching pat anchored at the start, or -1 if no prefix
// matches. This implements the `##` operator's "shrink from the end"
// search: try the whole string first, then successively shorter
// prefixes, stopping at the first (and therefore longest) match.
func TrimLongestPrefix(pat, s string, opts Options) (int, error) {
	return searchPrefix(pat, s, opts, true)
}

// TrimShortestPrefix implements the `#` operator: the shortest
// matching prefix, searched growing from zero.
func TrimShortestPrefix(pat, s string, opts Options) (int, error) {
	return searchPrefix(pat, s, opts, false)
}

// TrimLongestSuffix implements the `%%` operator: the longest matching
// suffix, searched shrinking from the start of the candidate suffix.
func TrimLongestSuffix(pat, s string, opts Options) (int, error) {
	return searchSuffix(pat, s, opts, true)
}

// TrimShortestSuffix implements the `%` operator: the shortest
// matching suffix, searched growing from the end.
func TrimShortestSuffix(pat, s string, opts Options) (int, error) {
	return searchSuffix(pat, s, opts, false)
}

func searchPrefix(pat, s string, opts Options, longest bool) (int, error) {
	c := newCursor(s)
	n := c.len()
	if longest {
		for k := n; k >= 0; k-- {
			ok, err := Match(pat, c.slice(0, k), opts)
			if err != nil {
				return -1, err
			}
			if ok {
				return k, nil
			}
		}
		return -1, nil
	}
	for k := 0; k <= n; k++ {
		ok, err := Match(pat, c.slice(0, k), opts)
		if err != nil {
			return -1, err
		}
		if ok {
			return k, nil
		}
	}
	return -1, nil
}

func searchSuffix(pat, s string, opts Options, longest bool) (int, error) {
	c := newCursor(s)
	n := c.len()
	if longest {
		for k := 0; k <= n; k++ {
			ok, err := Match(pat, c.slice(k, n), opts)
			if err != nil {
				return -1, err
			}
			if ok {
				return k, nil
			}
		}
		return -1, nil
	}
	for k := n; k >= 0; k-- {
		ok, err := Match(pat, c.slice(k, n), opts)
		if err != nil {
			return -1, err
		}
		if ok {
			return k, nil
		}
	}
	return -1, nil
}
