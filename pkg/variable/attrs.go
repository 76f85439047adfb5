package variable

import "strings"

// Attrs is the attribute bitset carried by every Variable.
//
// Exported, readonly, integer, lowercase, uppercase, capcase, array,
// assoc, function, nameref, tempvar, propagate, local, invisible,
// imported, regenerate, noassign, nounset, and nofree are packed into
// a single bitset rather than as nineteen separate bool fields, so
// copying and
// comparing a Variable's attribute set is one machine word.
type Attrs uint32

const (
	Exported Attrs = 1 << iota
	Readonly
	Integer
	Lower
	Upper
	Capcase
	Array
	Assoc
	Function
	Nameref
	Tempvar
	Propagate
	Local
	Invisible
	Imported
	Regenerate
	NoAssign
	NoUnset
	NoFree
)

// attrLetters mirrors the order bash prints `declare -p` flags in:
// a A f i l n r t u x, trimmed to the ones this core models.
var attrLetters = []struct {
	bit    Attrs
	letter byte
}{
	{Array, 'a'},
	{Assoc, 'A'},
	{Function, 'f'},
	{Integer, 'i'},
	{Lower, 'l'},
	{Nameref, 'n'},
	{Readonly, 'r'},
	{Tempvar, 't'},
	{Upper, 'u'},
	{Exported, 'x'},
}

// Has reports whether all bits in want are set in a.
func (a Attrs) Has(want Attrs) bool { return a&want == want }

// Any reports whether any bit in want is set in a.
func (a Attrs) Any(want Attrs) bool { return a&want != 0 }

// Set returns a with the given bits set.
func (a Attrs) Set(bits Attrs) Attrs { return a | bits }

// Clear returns a with the given bits cleared.
func (a Attrs) Clear(bits Attrs) Attrs { return a &^ bits }

// String renders the attribute set using bash's `declare -p` letters,
// e.g. "ax" for an exported indexed array. Unknown/internal bits
// (Propagate, Local, Invisible, Imported, Regenerate, NoAssign,
// NoUnset, NoFree) have no letter and are omitted, matching bash's
// own declare output which never surfaces its internal-only flags.
func (a Attrs) String() string {
	var b strings.Builder
	for _, al := range attrLetters {
		if a.Has(al.bit) {
			b.WriteByte(al.letter)
		}
	}
	return b.String()
}

// ParseAttrs parses a `declare -aAfilnrtux`-style flag string into an
// Attrs bitset. Unrecognized letters are ignored rather than rejected,
// matching bash's tolerance for combined flag strings built up by
// callers that may pass through letters this core does not model
// (e.g. `-p`, `-g`).
func ParseAttrs(flags string) Attrs {
	var a Attrs
	for i := 0; i < len(flags); i++ {
		for _, al := range attrLetters {
			if flags[i] == al.letter {
				a |= al.bit
			}
		}
	}
	return a
}
