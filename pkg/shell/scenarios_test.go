package shell

import (
	"testing"

	"github.com/cpsource/shvars/pkg/expand"
	"github.com/cpsource/shvars/pkg/pattern"
	"github.com/cpsource/shvars/pkg/scope"
	"github.com/cpsource/shvars/pkg/variable"
	"github.com/stretchr/testify/require"
)

// Scenario 1: var=abcXYZabc, pattern a*, operator %% -> empty string.
func TestScenario_LongestSuffixTrim(t *testing.T) {
	v, err := expand.Remove(expand.LongestSuffix, expand.NewScalar("abcXYZabc"), "a*", pattern.Options{})
	require.NoError(t, err)
	require.Equal(t, "", v.Scalar())
}

// Scenario 2: var=foo/bar/baz, pattern */, operator # -> bar/baz.
func TestScenario_ShortestPrefixTrim(t *testing.T) {
	v, err := expand.Remove(expand.ShortestPrefix, expand.NewScalar("foo/bar/baz"), "*/", pattern.Options{})
	require.NoError(t, err)
	require.Equal(t, "bar/baz", v.Scalar())
}

// Scenario 3: var=hello, pattern l, replacement [&], operator // -> he[l][l]o.
func TestScenario_GlobalSubstitutionWithBackreference(t *testing.T) {
	v, err := expand.Substitute(expand.All, expand.NewScalar("hello"), "l", "[&]", false, true)
	require.NoError(t, err)
	require.Equal(t, "he[l][l]o", v.Scalar())
}

// Scenario 4: var=abcdef, pattern def, replacement XYZ, operator /% -> abcXYZ.
func TestScenario_AnchoredSubstitutionAtEnd(t *testing.T) {
	v, err := expand.Substitute(expand.AnchoredEnd, expand.NewScalar("abcdef"), "def", "XYZ", false, true)
	require.NoError(t, err)
	require.Equal(t, "abcXYZ", v.Scalar())
}

// Scenario 5: var=world, pattern empty, replacement hello_, operator /# -> hello_world.
func TestScenario_EmptyPatternBeginAnchorPrepends(t *testing.T) {
	v, err := expand.Substitute(expand.AnchoredBegin, expand.NewScalar("world"), "", "hello_", false, true)
	require.NoError(t, err)
	require.Equal(t, "hello_world", v.Scalar())
}

// Scenario 6: declare -n a=b; declare -n b=a; echo ${a} -- resolver
// detects the cycle, and a read through it comes back empty rather
// than hanging or panicking.
func TestScenario_NamerefCycle(t *testing.T) {
	in := New(nil, nil)

	a := variable.NewNameref("a", "b")
	b := variable.NewNameref("b", "a")
	in.Stack.Global().Set("a", a)
	in.Stack.Global().Set("b", b)

	_, _, _, err := in.GetVarAndType("a")
	require.Error(t, err)
}

// Scenario 7: x=1; f() { x=2 readonly y=3; }; f; echo $x $y -- in posix
// mode, the tempenv preceding a special builtin persists into the
// caller's scope after f returns; outside posix mode it does not.
func TestScenario_PosixSpecialBuiltinPropagation(t *testing.T) {
	in := New(nil, nil)
	require.NoError(t, in.BindGlobal("x", "1", variable.SetOptions{}))

	frame := in.PushScope("f", nil)
	_ = frame

	tmp := in.Stack.PushTempScope()
	tmp.Set("x", "2")
	tmp.Set("y", "3")

	in.Stack.PopTempScope(true) // true: preceding a special builtin, in posix mode
	in.PopScope()

	val, _, _, err := in.GetVarAndType("x")
	require.NoError(t, err)
	require.Equal(t, "2", val)

	val, _, _, err = in.GetVarAndType("y")
	require.NoError(t, err)
	require.Equal(t, "3", val)
}

// The non-posix counterpart to the scenario above: a tempenv entry
// that does not precede a special builtin is discarded on pop, and
// the caller's binding of x is left untouched.
func TestScenario_NonPosixTempAssignmentDoesNotPropagate(t *testing.T) {
	in := New(nil, nil)
	require.NoError(t, in.BindGlobal("x", "1", variable.SetOptions{}))

	frame := in.PushScope("f", nil)
	_ = frame

	tmp := in.Stack.PushTempScope()
	tmp.Set("x", "2")

	in.Stack.PopTempScope(false)
	in.PopScope()

	val, _, _, err := in.GetVarAndType("x")
	require.NoError(t, err)
	require.Equal(t, "1", val)
}

func TestQuoteAndExpandStringForPatRoundTrip(t *testing.T) {
	raw := `a*b?c[d]e\f`
	quoted := QuoteStringForGlobbing(raw)
	require.Equal(t, raw, ExpandStringForPat(quoted))

	ok, err := pattern.Match(quoted, raw, pattern.Options{})
	require.NoError(t, err)
	require.True(t, ok, "a quoted pattern must match the literal string it was built from")
}

func TestBindAndUnbindThroughInterpreter(t *testing.T) {
	in := New(nil, nil)
	require.NoError(t, in.Bind("GREETING", "hi", variable.SetOptions{}))

	val, kind, _, err := in.GetVarAndType("GREETING")
	require.NoError(t, err)
	require.Equal(t, "hi", val)
	require.Equal(t, variable.KindScalar, kind)

	require.NoError(t, in.Unbind("GREETING", scope.UnsetAny))
	val, kind, _, err = in.GetVarAndType("GREETING")
	require.NoError(t, err)
	require.Equal(t, "", val)
	require.Equal(t, variable.Unset, kind)
}

func TestDollarZeroPushPop(t *testing.T) {
	in := New(nil, nil)
	in.dollarZero[0] = "shvars"
	require.Equal(t, "shvars", in.DollarZero())

	in.PushDollarZero("sourced.sh")
	require.Equal(t, "sourced.sh", in.DollarZero())

	in.PopDollarZero()
	require.Equal(t, "shvars", in.DollarZero())
}

func TestFunctionDefinitionAndLookup(t *testing.T) {
	in := New(nil, nil)
	body := staticBody("echo hi")
	require.NoError(t, in.DefineFunction("greet", body))

	got, ok := in.LookupFunction("greet")
	require.True(t, ok)
	require.Equal(t, "echo hi", got.Source())
}

func TestPositionalParameterAccessors(t *testing.T) {
	in := New(nil, nil)
	in.SetPositionals([]string{"one", "two"})
	require.Equal(t, []string{"one", "two"}, in.Positionals())
}

// staticBody is a minimal variable.FunctionBody for exercising
// DefineFunction/LookupFunction without a real parsed command tree.
type staticBody string

func (s staticBody) Source() string { return string(s) }
