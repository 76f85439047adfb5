package dynvar

import (
	mrand "math/rand"
	"testing"
	"time"

	"github.com/cpsource/shvars/pkg/scope"
	"github.com/cpsource/shvars/pkg/variable"
	"github.com/stretchr/testify/require"
)

func newTestStack(ctx *Context) *scope.Stack {
	s := scope.New(nil)
	r := NewRegistry()
	RegisterDefaults(r, ctx)
	r.InstallInto(s.Global())
	return s
}

func TestSecondsReflectsElapsedTime(t *testing.T) {
	ctx := &Context{SecondsBase: time.Now().Add(-5 * time.Second)}
	s := newTestStack(ctx)

	v, ok := s.Lookup("SECONDS")
	require.True(t, ok)
	got, err := v.Get()
	require.NoError(t, err)
	require.Equal(t, "5", got)
}

func TestSecondsAssignmentRebasesElapsedCount(t *testing.T) {
	ctx := &Context{SecondsBase: time.Now()}
	s := newTestStack(ctx)

	require.NoError(t, s.Bind("SECONDS", "100", variable.SetOptions{}))
	v, _ := s.Lookup("SECONDS")
	got, _ := v.Get()
	require.Equal(t, "100", got)
}

func TestRandomReseedIsReproducible(t *testing.T) {
	ctx1 := &Context{Rand: mrand.New(mrand.NewSource(1))}
	s1 := newTestStack(ctx1)
	require.NoError(t, s1.Bind("RANDOM", "42", variable.SetOptions{}))
	v1, _ := s1.Lookup("RANDOM")
	first1, _ := v1.Get()
	second1, _ := v1.Get()

	ctx2 := &Context{Rand: mrand.New(mrand.NewSource(1))}
	s2 := newTestStack(ctx2)
	require.NoError(t, s2.Bind("RANDOM", "42", variable.SetOptions{}))
	v2, _ := s2.Lookup("RANDOM")
	first2, _ := v2.Get()
	second2, _ := v2.Get()

	require.Equal(t, first1, first2)
	require.Equal(t, second1, second2)
}

func TestRandomReseedsOnSubshellForkAtFirstRead(t *testing.T) {
	// Two identically-seeded contexts draw the same sequence until one
	// forks; after the fork, its first read reseeds from OS entropy
	// rather than continuing the parent's sequence.
	baseline := &Context{Rand: mrand.New(mrand.NewSource(1))}
	sBaseline := newTestStack(baseline)
	vBaseline, _ := sBaseline.Lookup("RANDOM")
	_, _ = vBaseline.Get()
	wantNoFork, _ := vBaseline.Get()

	forked := &Context{Rand: mrand.New(mrand.NewSource(1))}
	sForked := newTestStack(forked)
	vForked, _ := sForked.Lookup("RANDOM")
	_, _ = vForked.Get()
	forked.Subshell++
	gotAfterFork, err := vForked.Get()

	require.NoError(t, err)
	require.NotEqual(t, wantNoFork, gotAfterFork, "a subshell fork should reseed RANDOM instead of continuing the parent's sequence")
}

func TestRandomReseedHappensOnceImmediatelyAfterFork(t *testing.T) {
	ctx := &Context{Rand: mrand.New(mrand.NewSource(1)), Subshell: 1}
	s := newTestStack(ctx)
	ctx.Subshell++
	v, _ := s.Lookup("RANDOM")

	first, err := v.Get()
	require.NoError(t, err)
	require.NotEqual(t, "", first)

	// A second read with no further fork must not reseed again: it
	// should not simply repeat the first value either (reroll-on-repeat
	// still applies), so just confirm it succeeds without error.
	_, err = v.Get()
	require.NoError(t, err)
}

func TestBashpidReadsFromContext(t *testing.T) {
	ctx := &Context{Pid: 4242}
	s := newTestStack(ctx)
	v, _ := s.Lookup("BASHPID")
	got, _ := v.Get()
	require.Equal(t, "4242", got)
}

func TestFuncnameTracksCallStack(t *testing.T) {
	stack := []CallFrame{{FuncName: "outer", Source: "script.sh", Line: 10}, {FuncName: "inner", Source: "script.sh", Line: 20}}
	ctx := &Context{CallStack: func() []CallFrame { return stack }}
	s := newTestStack(ctx)

	v, _ := s.Lookup("FUNCNAME")
	_, err := v.Get()
	require.NoError(t, err)
	require.Equal(t, []string{"outer", "inner"}, v.Elements())

	v, _ = s.Lookup("BASH_LINENO")
	_, _ = v.Get()
	require.Equal(t, []string{"10", "20"}, v.Elements())
}

func TestInstallIntoSkipsAlreadyBoundNames(t *testing.T) {
	s := scope.New(nil)
	require.NoError(t, s.Bind("RANDOM", "seeded-by-script", variable.SetOptions{}))

	r := NewRegistry()
	RegisterDefaults(r, &Context{})
	r.InstallInto(s.Global())

	v, _ := s.Lookup("RANDOM")
	got, _ := v.Get()
	require.Equal(t, "seeded-by-script", got)
}
