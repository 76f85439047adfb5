package expand

import "github.com/cpsource/shvars/pkg/pattern"

// RemoveKind selects which of the four substring-removal operators
// Remove performs.
type RemoveKind int

const (
	// ShortestPrefix implements `${var#pat}`.
	ShortestPrefix RemoveKind = iota
	// LongestPrefix implements `${var##pat}`.
	LongestPrefix
	// ShortestSuffix implements `${var%pat}`.
	ShortestSuffix
	// LongestSuffix implements `${var%%pat}`.
	LongestSuffix
)

// Remove applies one of the four substring-removal operators to v. For
// an elementwise Value (an array, or unquoted positional parameters),
// it runs independently over every element.
func Remove(kind RemoveKind, v Value, pat string, opts pattern.Options) (Value, error) {
	if v.IsElementwise() {
		elems := v.Elements()
		out := make([]string, len(elems))
		for i, e := range elems {
			r, err := removeOne(kind, e, pat, opts)
			if err != nil {
				return Value{}, err
			}
			out[i] = r
		}
		return v.WithElements(out), nil
	}
	r, err := removeOne(kind, v.Scalar(), pat, opts)
	if err != nil {
		return Value{}, err
	}
	return v.WithScalar(r), nil
}

func removeOne(kind RemoveKind, s, pat string, opts pattern.Options) (string, error) {
	n := pattern.Len(s)
	switch kind {
	case ShortestPrefix:
		idx, err := pattern.TrimShortestPrefix(pat, s, opts)
		if err != nil || idx < 0 {
			return s, err
		}
		return pattern.Slice(s, idx, n), nil
	case LongestPrefix:
		idx, err := pattern.TrimLongestPrefix(pat, s, opts)
		if err != nil || idx < 0 {
			return s, err
		}
		return pattern.Slice(s, idx, n), nil
	case ShortestSuffix:
		idx, err := pattern.TrimShortestSuffix(pat, s, opts)
		if err != nil || idx < 0 {
			return s, err
		}
		return pattern.Slice(s, 0, idx), nil
	case LongestSuffix:
		idx, err := pattern.TrimLongestSuffix(pat, s, opts)
		if err != nil || idx < 0 {
			return s, err
		}
		return pattern.Slice(s, 0, idx), nil
	default:
		return s, nil
	}
}
