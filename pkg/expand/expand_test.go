package expand

import (
	"testing"

	"github.com/cpsource/shvars/pkg/pattern"
	"github.com/stretchr/testify/require"
)

func TestRemoveShortestAndLongestPrefix(t *testing.T) {
	v := NewScalar("/usr/local/bin/")
	got, err := Remove(ShortestPrefix, v, "*/", pattern.Options{})
	require.NoError(t, err)
	require.Equal(t, "usr/local/bin/", got.Scalar())

	got, err = Remove(LongestPrefix, v, "*/", pattern.Options{})
	require.NoError(t, err)
	require.Equal(t, "", got.Scalar())
}

func TestRemoveShortestAndLongestSuffix(t *testing.T) {
	v := NewScalar("/usr/local/bin/")
	got, err := Remove(ShortestSuffix, v, "/*", pattern.Options{})
	require.NoError(t, err)
	require.Equal(t, "/usr/local/bin", got.Scalar())

	got, err = Remove(LongestSuffix, v, "/*", pattern.Options{})
	require.NoError(t, err)
	require.Equal(t, "", got.Scalar())
}

func TestRemoveNoMatchReturnsValueUnchanged(t *testing.T) {
	v := NewScalar("hello")
	got, err := Remove(ShortestPrefix, v, "zzz", pattern.Options{})
	require.NoError(t, err)
	require.Equal(t, "hello", got.Scalar())
}

func TestSubstituteFirstReplacesLeftmostOccurrence(t *testing.T) {
	v := NewScalar("a.b.c")
	got, err := Substitute(First, v, ".", "-", false, true)
	require.NoError(t, err)
	require.Equal(t, "a-b.c", got.Scalar())
}

func TestSubstituteAllReplacesEveryOccurrence(t *testing.T) {
	v := NewScalar("a.b.c")
	got, err := Substitute(All, v, ".", "-", false, true)
	require.NoError(t, err)
	require.Equal(t, "a-b-c", got.Scalar())
}

func TestSubstituteAnchoredBeginAndEnd(t *testing.T) {
	v := NewScalar("foobarfoo")
	got, err := Substitute(AnchoredBegin, v, "foo", "X", false, true)
	require.NoError(t, err)
	require.Equal(t, "Xbarfoo", got.Scalar())

	got, err = Substitute(AnchoredEnd, v, "foo", "X", false, true)
	require.NoError(t, err)
	require.Equal(t, "foobarX", got.Scalar())
}

func TestSubstituteBackrefExpandsMatchedText(t *testing.T) {
	v := NewScalar("hello")
	got, err := Substitute(First, v, "ell", "[&]", false, true)
	require.NoError(t, err)
	require.Equal(t, "h[ell]o", got.Scalar())
}

func TestSubstituteEscapedBackrefIsLiteral(t *testing.T) {
	v := NewScalar("hello")
	got, err := Substitute(First, v, "ell", `\&`, false, true)
	require.NoError(t, err)
	require.Equal(t, "h&o", got.Scalar())
}

func TestSubstituteBackrefCompatDisabledTreatsAmpersandLiterally(t *testing.T) {
	v := NewScalar("hello")
	got, err := Substitute(First, v, "ell", "[&]", false, false)
	require.NoError(t, err)
	require.Equal(t, "h[&]o", got.Scalar())
}

func TestSubstituteAllZeroLengthMatchAdvancesByOneCodepoint(t *testing.T) {
	v := NewScalar("abc")
	got, err := Substitute(All, v, "x*y", "-", false, true)
	// "x*y" never matches any substring of "abc" at all, so this should
	// be a no-op; exercised here mainly to confirm it terminates rather
	// than looping.
	require.NoError(t, err)
	require.Equal(t, "abc", got.Scalar())

	got, err = Substitute(All, v, "", "-", false, true)
	require.NoError(t, err)
	require.Equal(t, "-a-b-c-", got.Scalar(), "an empty pattern matches a zero-length string before every character and once at the end")
}

func TestRemoveAppliesElementwiseOverIndexedArray(t *testing.T) {
	v := NewIndexedArray([]string{"foo.txt", "bar.txt", "baz"})
	got, err := Remove(ShortestSuffix, v, ".*", pattern.Options{})
	require.NoError(t, err)
	require.Equal(t, []string{"foo", "bar", "baz"}, got.Elements())
}

func TestSubstituteAppliesElementwiseOverUnquotedPositionals(t *testing.T) {
	v := NewPositional([]string{"one", "two", "three"}, false)
	got, err := Substitute(All, v, "o", "0", false, true)
	require.NoError(t, err)
	require.Equal(t, []string{"0ne", "tw0", "three"}, got.Elements())
}

func TestQuotedPositionalsJoinIntoSingleField(t *testing.T) {
	v := NewPositional([]string{"one", "two"}, true)
	require.False(t, v.IsElementwise())
	require.Equal(t, "one two", v.Scalar())
}

func TestParseOperatorDoubledFormsAreGreedy(t *testing.T) {
	op, err := ParseOperator("##*/")
	require.NoError(t, err)
	require.Equal(t, OpRemoveLongestPrefix, op.Kind)
	require.Equal(t, "*/", op.Pattern)

	op, err = ParseOperator("#*/")
	require.NoError(t, err)
	require.Equal(t, OpRemoveShortestPrefix, op.Kind)
}

func TestParseOperatorSubstitutionForms(t *testing.T) {
	op, err := ParseOperator("//foo/bar")
	require.NoError(t, err)
	require.Equal(t, OpSubstituteAll, op.Kind)
	require.Equal(t, "foo", op.Pattern)
	require.Equal(t, "bar", op.Replacement)

	op, err = ParseOperator("/#pre/X")
	require.NoError(t, err)
	require.Equal(t, OpSubstituteAnchoredBegin, op.Kind)

	op, err = ParseOperator("/%suf/X")
	require.NoError(t, err)
	require.Equal(t, OpSubstituteAnchoredEnd, op.Kind)
}

func TestParseOperatorWithoutReplacementDeletes(t *testing.T) {
	op, err := ParseOperator("/pat")
	require.NoError(t, err)
	require.False(t, op.HasReplacement)
	require.Equal(t, "pat", op.Pattern)
}

func TestParseOperatorRejectsUnrecognizedForm(t *testing.T) {
	_, err := ParseOperator("?notanoperator")
	require.Error(t, err)
}
