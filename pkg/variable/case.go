package variable

import "unicode"

// toUpperASCIIAware and toLowerASCIIAware run unicode.ToUpper/ToLower
// per-rune rather than strings.ToUpper/ToLower directly so a future
// locale-aware casing hook has a single seam to attach to; today they
// are equivalent to the strings package functions.
func toUpperASCIIAware(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		out = append(out, unicode.ToUpper(r))
	}
	return string(out)
}

func toLowerASCIIAware(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		out = append(out, unicode.ToLower(r))
	}
	return string(out)
}

// capcase implements bash's `declare -c`/capcase attribute: the first
// character of the value is uppercased, the rest are left alone. Bash
// applies this per-word for `${var^}`-style one-shot operators but for
// the sticky capcase attribute it capitalizes only the first character
// of the whole assigned value.
func capcase(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(s)
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}
