package scope

import (
	"errors"
	"testing"

	"github.com/cpsource/shvars/pkg/variable"
	"github.com/stretchr/testify/require"
)

func TestResolveForReadFollowsChainToConcreteBinding(t *testing.T) {
	s := New(nil)
	require.NoError(t, s.Bind("real", "hello", variable.SetOptions{}))
	s.Global().Set("ref1", variable.NewNameref("ref1", "ref2"))
	s.Global().Set("ref2", variable.NewNameref("ref2", "real"))

	start, _ := s.Lookup("ref1")
	resolved, err := s.Resolver().ResolveForRead(start)
	require.NoError(t, err)
	got, _ := resolved.Get()
	require.Equal(t, "hello", got)
}

func TestResolveForReadUnboundTargetYieldsEmptyNotError(t *testing.T) {
	s := New(nil)
	s.Global().Set("ref", variable.NewNameref("ref", "nope"))
	start, _ := s.Lookup("ref")

	resolved, err := s.Resolver().ResolveForRead(start)
	require.NoError(t, err)
	got, _ := resolved.Get()
	require.Equal(t, "", got)
}

func TestResolveForReadDetectsCycle(t *testing.T) {
	s := New(nil)
	s.Global().Set("a", variable.NewNameref("a", "b"))
	s.Global().Set("b", variable.NewNameref("b", "a"))
	start, _ := s.Lookup("a")

	_, err := s.Resolver().ResolveForRead(start)
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrNamerefLoop))
}

func TestResolveForCreationStopsAtLastResolvableLink(t *testing.T) {
	s := New(nil)
	s.Global().Set("ref1", variable.NewNameref("ref1", "ref2"))
	start, _ := s.Lookup("ref1")

	resolved, sub, err := s.Resolver().ResolveForCreation(start)
	require.NoError(t, err)
	require.Nil(t, sub)
	require.Equal(t, "ref2", resolved.Name)
}

func TestResolveForCreationReturnsSubscriptForm(t *testing.T) {
	s := New(nil)
	s.Global().Set("ref", variable.NewNameref("ref", "arr[2]"))
	start, _ := s.Lookup("ref")

	resolved, sub, err := s.Resolver().ResolveForCreation(start)
	require.NoError(t, err)
	require.Nil(t, resolved)
	require.Equal(t, "arr", sub.Name)
	require.Equal(t, "2", sub.Subscript)
}

func TestBindThroughNamerefRedirectsToTarget(t *testing.T) {
	s := New(nil)
	require.NoError(t, s.Bind("real", "old", variable.SetOptions{}))
	s.Global().Set("ref", variable.NewNameref("ref", "real"))

	require.NoError(t, s.Bind("ref", "new", variable.SetOptions{}))
	v, _ := s.LookupGlobal("real")
	got, _ := v.Get()
	require.Equal(t, "new", got)
}

func TestBindThroughCircularNamerefFallsBackToGlobal(t *testing.T) {
	s := New(nil)
	s.Global().Set("a", variable.NewNameref("a", "b"))
	s.Global().Set("b", variable.NewNameref("b", "a"))

	err := s.Bind("a", "5", variable.SetOptions{})
	require.NoError(t, err, "cycle recovery must fall back to a global bind rather than propagate the loop error")

	v, ok := s.LookupGlobal("a")
	require.True(t, ok)
	got, _ := v.Get()
	require.Equal(t, "5", got)
}
