package expand

import (
	"strings"

	"github.com/cpsource/shvars/pkg/pattern"
)

// SubstMode selects which of the four substitution operators
// Substitute performs.
type SubstMode int

const (
	// First implements `${var/pat/rep}`: only the leftmost occurrence
	// is replaced.
	First SubstMode = iota
	// All implements `${var//pat/rep}`: every non-overlapping
	// occurrence is replaced.
	All
	// AnchoredBegin implements `${var/#pat/rep}`: pat must match at
	// the start of the value.
	AnchoredBegin
	// AnchoredEnd implements `${var/%pat/rep}`: pat must match at the
	// end of the value.
	AnchoredEnd
)

// Substitute applies one of the four substitution operators to v. An
// unescaped `&` in rep is replaced by the text pat matched, unless
// backrefCompat is false, in which case `&` has no special meaning —
// a BASH_COMPAT-gated behavior difference. With backrefCompat true,
// `\&` yields a literal `&` and `\\` a literal backslash; with it
// false, rep is inserted verbatim, backslashes included. A match of
// zero length never
// stalls the `All` scan: it advances past one code point before
// searching for the next occurrence.
func Substitute(mode SubstMode, v Value, pat, rep string, quoted, backrefCompat bool) (Value, error) {
	_ = quoted // reserved for callers that need word-splitting context; substitution itself is quote-agnostic
	if v.IsElementwise() {
		elems := v.Elements()
		out := make([]string, len(elems))
		for i, e := range elems {
			r, err := substituteOne(mode, e, pat, rep, backrefCompat)
			if err != nil {
				return Value{}, err
			}
			out[i] = r
		}
		return v.WithElements(out), nil
	}
	r, err := substituteOne(mode, v.Scalar(), pat, rep, backrefCompat)
	if err != nil {
		return Value{}, err
	}
	return v.WithScalar(r), nil
}

func substituteOne(mode SubstMode, s, pat, rep string, backrefCompat bool) (string, error) {
	opts := pattern.Options{}
	switch mode {
	case AnchoredBegin:
		res, err := pattern.Find(pat, s, pattern.AnchoredBegin, opts)
		if err != nil || !res.Matched {
			return s, err
		}
		n := pattern.Len(s)
		matched := pattern.Slice(s, res.Start, res.End)
		return applyReplacement(rep, matched, backrefCompat) + pattern.Slice(s, res.End, n), nil
	case AnchoredEnd:
		res, err := pattern.Find(pat, s, pattern.AnchoredEnd, opts)
		if err != nil || !res.Matched {
			return s, err
		}
		matched := pattern.Slice(s, res.Start, res.End)
		return pattern.Slice(s, 0, res.Start) + applyReplacement(rep, matched, backrefCompat), nil
	case First:
		res, err := pattern.Find(pat, s, pattern.Any, opts)
		if err != nil || !res.Matched {
			return s, err
		}
		n := pattern.Len(s)
		matched := pattern.Slice(s, res.Start, res.End)
		return pattern.Slice(s, 0, res.Start) + applyReplacement(rep, matched, backrefCompat) + pattern.Slice(s, res.End, n), nil
	case All:
		return substituteAll(pat, rep, s, opts, backrefCompat)
	default:
		return s, nil
	}
}

func substituteAll(pat, rep, s string, opts pattern.Options, backrefCompat bool) (string, error) {
	n := pattern.Len(s)
	var out strings.Builder
	pos := 0
	for pos <= n {
		res, err := pattern.FindFrom(pat, s, pos, opts)
		if err != nil {
			return "", err
		}
		if !res.Matched {
			out.WriteString(pattern.Slice(s, pos, n))
			break
		}
		out.WriteString(pattern.Slice(s, pos, res.Start))
		matched := pattern.Slice(s, res.Start, res.End)
		out.WriteString(applyReplacement(rep, matched, backrefCompat))
		if res.End == res.Start {
			if res.Start < n {
				out.WriteString(pattern.Slice(s, res.Start, res.Start+1))
			}
			pos = res.Start + 1
		} else {
			pos = res.End
		}
	}
	return out.String(), nil
}

// applyReplacement expands `&` in rep to matched, honoring `\&` as a
// literal ampersand and `\\` as a literal backslash, unless
// backrefCompat disables `&` expansion entirely (the older
// BASH_COMPAT behavior).
func applyReplacement(rep, matched string, backrefCompat bool) string {
	if !backrefCompat {
		return rep
	}
	var b strings.Builder
	for i := 0; i < len(rep); i++ {
		if rep[i] == '\\' && i+1 < len(rep) && (rep[i+1] == '&' || rep[i+1] == '\\') {
			b.WriteByte(rep[i+1])
			i++
			continue
		}
		if rep[i] == '&' {
			b.WriteString(matched)
			continue
		}
		b.WriteByte(rep[i])
	}
	return b.String()
}
