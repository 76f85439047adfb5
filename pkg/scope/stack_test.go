package scope

import (
	"testing"

	"github.com/cpsource/shvars/pkg/variable"
	"github.com/stretchr/testify/require"
)

func TestBindGlobalCreatesThenLookupFinds(t *testing.T) {
	s := New(nil)
	require.NoError(t, s.Bind("x", "1", variable.SetOptions{}))
	v, ok := s.Lookup("x")
	require.True(t, ok)
	got, _ := v.Get()
	require.Equal(t, "1", got)
}

func TestPlainAssignmentWritesToNearestExistingBinding(t *testing.T) {
	s := New(nil)
	require.NoError(t, s.Bind("x", "1", variable.SetOptions{}))
	s.PushFunctionFrame("f", nil)
	require.NoError(t, s.Bind("x", "2", variable.SetOptions{}))

	v, _ := s.LookupGlobal("x")
	got, _ := v.Get()
	require.Equal(t, "2", got, "plain assignment inside a function must write through to the existing global binding")

	s.PopFunctionFrame()
}

func TestMakeLocalShadowsWithoutInherit(t *testing.T) {
	s := New(nil)
	require.NoError(t, s.Bind("x", "1", variable.SetOptions{}))
	s.PushFunctionFrame("f", nil)

	local, err := s.MakeLocal("x", false)
	require.NoError(t, err)
	got, _ := local.Get()
	require.Equal(t, "", got)

	v, ok := s.Lookup("x")
	require.True(t, ok)
	require.Same(t, local, v)

	s.PopFunctionFrame()
	v, _ = s.Lookup("x")
	got, _ = v.Get()
	require.Equal(t, "1", got, "global binding must be restored once the local frame pops")
}

func TestMakeLocalInheritCopiesShadowedValue(t *testing.T) {
	s := New(nil)
	require.NoError(t, s.Bind("x", "seed", variable.SetOptions{}))
	s.PushFunctionFrame("f", nil)

	local, err := s.MakeLocal("x", true)
	require.NoError(t, err)
	got, _ := local.Get()
	require.Equal(t, "seed", got)
}

func TestMakeLocalRefusesOverReadonlyGlobal(t *testing.T) {
	s := New(nil)
	require.NoError(t, s.Bind("x", "1", variable.SetOptions{}))
	gv, _ := s.LookupGlobal("x")
	gv.Attrs = gv.Attrs.Set(variable.Readonly)

	s.PushFunctionFrame("f", nil)
	_, err := s.MakeLocal("x", false)
	require.Error(t, err)
}

func TestMakeLocalPermitsShadowingReadonlyLocalFromCaller(t *testing.T) {
	s := New(nil)
	s.PushFunctionFrame("outer", nil)
	outerLocal, err := s.MakeLocal("x", false)
	require.NoError(t, err)
	outerLocal.Attrs = outerLocal.Attrs.Set(variable.Readonly)

	s.PushFunctionFrame("inner", nil)
	_, err = s.MakeLocal("x", false)
	require.NoError(t, err, "a readonly local belonging to a caller must still be shadowable")

	s.PopFunctionFrame()
	s.PopFunctionFrame()
}

func TestPopTempScopeMergeLandsTempvarInGlobal(t *testing.T) {
	s := New(nil)
	s.PushFunctionFrame("f", nil)
	te := s.PushTempScope()
	te.Set("x", "2")

	v, ok := s.Lookup("x")
	require.True(t, ok)
	got, _ := v.Get()
	require.Equal(t, "2", got)

	s.PopTempScope(true)
	_, ok = s.LookupGlobal("x")
	require.True(t, ok, "a merged tempvar should land in the global frame when nothing else binds the name")

	s.PopFunctionFrame()
}

func TestPopTempScopeDiscardLeavesNoTrace(t *testing.T) {
	s := New(nil)
	require.NoError(t, s.Bind("x", "1", variable.SetOptions{}))
	te := s.PushTempScope()
	te.Set("x", "2")

	v, _ := s.Lookup("x")
	got, _ := v.Get()
	require.Equal(t, "2", got, "a temp-env entry must shadow the real binding while active")

	s.PopTempScope(false)
	v, _ = s.Lookup("x")
	got, _ = v.Get()
	require.Equal(t, "1", got, "a discarded temp scope must leave the prior binding untouched")
}

func TestPosixSpecialBuiltinPropagationScenario(t *testing.T) {
	// x=1; f() { x=2 readonly y=3; }; f — in posix mode, after f
	// returns, x is 2 and y is 3; in non-posix mode, x is 1 and y is
	// unset, because both the preceding tempvar and the special
	// builtin's own assignment live in the same temp-scope window and
	// are merged or discarded together.
	run := func(posix bool) (string, bool) {
		s := New(nil)
		require.NoError(t, s.Bind("x", "1", variable.SetOptions{}))

		s.PushFunctionFrame("f", nil)
		te := s.PushTempScope()
		te.Set("x", "2")
		require.NoError(t, s.BindInCurrentEnvironment("y", "3", variable.SetOptions{}))
		s.PopTempScope(posix)
		s.PopFunctionFrame()

		xv, _ := s.Lookup("x")
		x, _ := xv.Get()
		_, yOK := s.Lookup("y")
		return x, yOK
	}

	x, yOK := run(true)
	require.Equal(t, "2", x)
	require.True(t, yOK)

	x, yOK = run(false)
	require.Equal(t, "1", x)
	require.False(t, yOK)
}

func TestUnsetDispatchesByKind(t *testing.T) {
	s := New(nil)
	require.NoError(t, s.Bind("x", "1", variable.SetOptions{}))
	nv := variable.NewNameref("ref", "x")
	s.Global().Set("ref", nv)

	require.NoError(t, s.Unset("ref", UnsetFunction))
	_, ok := s.Lookup("ref")
	require.True(t, ok, "unset -f must not remove a nameref binding")

	require.NoError(t, s.Unset("ref", UnsetNameref))
	_, ok = s.Lookup("ref")
	require.False(t, ok)
}
