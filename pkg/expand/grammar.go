package expand

import (
	"fmt"
	"strings"
)

// OperatorKind identifies which removal or substitution form an
// Operator parsed from.
type OperatorKind int

const (
	OpRemoveShortestPrefix OperatorKind = iota
	OpRemoveLongestPrefix
	OpRemoveShortestSuffix
	OpRemoveLongestSuffix
	OpSubstituteFirst
	OpSubstituteAll
	OpSubstituteAnchoredBegin
	OpSubstituteAnchoredEnd
)

// Operator is a parsed `${var<op>}` expansion operator: which kind it
// is, the pattern operand, and — for a substitution kind only — the
// replacement operand.
type Operator struct {
	Kind        OperatorKind
	Pattern     string
	Replacement string
	HasReplacement bool
}

// IsRemoval reports whether this operator is one of the four
// substring-removal forms.
func (op Operator) IsRemoval() bool {
	return op.Kind <= OpRemoveLongestSuffix
}

// ParseOperator parses the text following a variable name (and any
// subscript) inside a `${...}` expansion into an Operator, covering
// `#`, `##`, `%`, `%%`, `/`, `//`, `/#`, and `/%`. The grammar is
// greedy on the doubled forms: `##pat` is always the longest-prefix
// removal operator, never the shortest-prefix operator applied to a
// pattern that happens to start with `#`.
func ParseOperator(spec string) (Operator, error) {
	switch {
	case strings.HasPrefix(spec, "##"):
		return Operator{Kind: OpRemoveLongestPrefix, Pattern: spec[2:]}, nil
	case strings.HasPrefix(spec, "#"):
		return Operator{Kind: OpRemoveShortestPrefix, Pattern: spec[1:]}, nil
	case strings.HasPrefix(spec, "%%"):
		return Operator{Kind: OpRemoveLongestSuffix, Pattern: spec[2:]}, nil
	case strings.HasPrefix(spec, "%"):
		return Operator{Kind: OpRemoveShortestSuffix, Pattern: spec[1:]}, nil
	case strings.HasPrefix(spec, "//"):
		pat, rep, hasRep := splitPatRep(spec[2:])
		return Operator{Kind: OpSubstituteAll, Pattern: pat, Replacement: rep, HasReplacement: hasRep}, nil
	case strings.HasPrefix(spec, "/#"):
		pat, rep, hasRep := splitPatRep(spec[2:])
		return Operator{Kind: OpSubstituteAnchoredBegin, Pattern: pat, Replacement: rep, HasReplacement: hasRep}, nil
	case strings.HasPrefix(spec, "/%"):
		pat, rep, hasRep := splitPatRep(spec[2:])
		return Operator{Kind: OpSubstituteAnchoredEnd, Pattern: pat, Replacement: rep, HasReplacement: hasRep}, nil
	case strings.HasPrefix(spec, "/"):
		pat, rep, hasRep := splitPatRep(spec[1:])
		return Operator{Kind: OpSubstituteFirst, Pattern: pat, Replacement: rep, HasReplacement: hasRep}, nil
	default:
		return Operator{}, fmt.Errorf("expand: %q is not a recognized removal or substitution operator", spec)
	}
}

// splitPatRep splits a substitution operator's operand text at the
// first unescaped `/`, returning the pattern and replacement. If no
// unescaped `/` is present, the whole text is the pattern and there is
// no replacement operand, matching `${var/pat}` (replace with nothing).
func splitPatRep(s string) (pat, rep string, hasRep bool) {
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' {
			i++
			continue
		}
		if s[i] == '/' {
			return s[:i], s[i+1:], true
		}
	}
	return s, "", false
}

// RemoveKindFor maps a removal Operator's Kind to the RemoveKind
// Remove expects.
func RemoveKindFor(k OperatorKind) RemoveKind {
	switch k {
	case OpRemoveShortestPrefix:
		return ShortestPrefix
	case OpRemoveLongestPrefix:
		return LongestPrefix
	case OpRemoveShortestSuffix:
		return ShortestSuffix
	case OpRemoveLongestSuffix:
		return LongestSuffix
	default:
		return ShortestPrefix
	}
}

// SubstModeFor maps a substitution Operator's Kind to the SubstMode
// Substitute expects.
func SubstModeFor(k OperatorKind) SubstMode {
	switch k {
	case OpSubstituteFirst:
		return First
	case OpSubstituteAll:
		return All
	case OpSubstituteAnchoredBegin:
		return AnchoredBegin
	case OpSubstituteAnchoredEnd:
		return AnchoredEnd
	default:
		return First
	}
}
