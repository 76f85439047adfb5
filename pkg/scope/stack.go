package scope

import (
	"fmt"

	"github.com/cpsource/shvars/pkg/errs"
	"github.com/cpsource/shvars/pkg/variable"
	"go.uber.org/zap"
)

// TempEnv is the transient hash table of Variables created from inline
// NAME=VALUE pairs preceding a simple command. Its entries are visible to Lookup while
// active, without being linked into the frame chain, and are either
// merged into the enclosing frame or discarded when the command
// finishes, per Stack.PopTempScope.
type TempEnv struct {
	frame *Frame
}

// Set inserts or overwrites a tempvar entry.
func (t *TempEnv) Set(name, value string) *variable.Variable {
	v := variable.NewScalar(name, value)
	v.Attrs = v.Attrs.Set(variable.Tempvar).Set(variable.Propagate)
	t.frame.Set(name, v)
	return v
}

// Names returns the names bound in this temporary environment.
func (t *TempEnv) Names() []string { return t.frame.Names() }

// Get looks up a name directly in this temporary environment.
func (t *TempEnv) Get(name string) (*variable.Variable, bool) { return t.frame.Get(name) }

// Bind exposes TempEnv as a valid bind target for a special builtin
// executing in the current execution environment while a temporary
// environment is active. A special builtin's own assignments, made
// while a preceding
// temp-assignment window is open, land in that same window rather
// than going straight to an outer frame, so that PopTempScope's
// merge-or-discard decision governs both uniformly.
func (t *TempEnv) Bind(name, value string, opts variable.SetOptions) error {
	if v, ok := t.frame.Get(name); ok {
		return v.Set(value, opts)
	}
	v := t.Set(name, "")
	return v.Set(value, opts)
}

// Stack is the ordered chain of variable contexts: the global frame at
// the bottom, zero or more function-local frames above it, and an
// optional one-shot temporary environment consulted ahead of the frame
// chain.
type Stack struct {
	top    *Frame
	global *Frame
	depth  int

	positionals [][]string

	tempEnv       *TempEnv
	searchTempEnv bool

	resolver *Resolver
	logger   *zap.Logger
}

// New creates a Stack with just the global frame. A nil logger is
// replaced with a no-op logger.
func New(logger *zap.Logger) *Stack {
	if logger == nil {
		logger = zap.NewNop()
	}
	g := newFrame("", 0, 0)
	s := &Stack{top: g, global: g, positionals: [][]string{nil}, logger: logger}
	s.resolver = NewResolver(s, logger)
	return s
}

// Global returns the bottom frame of the chain.
func (s *Stack) Global() *Frame { return s.global }

// Top returns the innermost frame currently in effect.
func (s *Stack) Top() *Frame { return s.top }

// Depth reports how many function frames are currently pushed (0 at
// global scope).
func (s *Stack) Depth() int { return s.depth }

// PushFunctionFrame pushes a new function-local frame on entry to a
// shell function call, and pushes its positional parameters onto a
// stack of slices kept in lockstep with the frames.
func (s *Stack) PushFunctionFrame(name string, args []string) *Frame {
	s.depth++
	f := newFrame(name, s.depth, FunctionEnvironment)
	f.Up = s.top
	s.top.Down = f
	s.top = f
	s.positionals = append(s.positionals, args)
	return f
}

// PopFunctionFrame tears down the innermost function frame on return.
// Entries marked both Tempvar and Propagate are rebound into the enclosing
// frame, preserving their attributes (minus Tempvar, if the rebind
// lands in the global frame); every other entry is simply disposed.
func (s *Stack) PopFunctionFrame() {
	f := s.top
	if f == s.global {
		return
	}
	for _, name := range f.Names() {
		v, _ := f.Get(name)
		if v.Attrs.Has(variable.Tempvar) && v.Attrs.Has(variable.Propagate) {
			s.rebindIntoEnclosing(f.Up, name, v)
		}
		v.Dispose()
	}
	s.top = f.Up
	s.top.Down = nil
	if len(s.positionals) > 1 {
		s.positionals = s.positionals[:len(s.positionals)-1]
	}
	s.depth--
}

// rebindIntoEnclosing writes v's current value into whichever frame
// already has a binding for name starting the search at enclosing, or
// into the global frame if none exists, stripping Tempvar when the
// landing frame is global.
func (s *Stack) rebindIntoEnclosing(enclosing *Frame, name string, v *variable.Variable) {
	for f := enclosing; f != nil; f = f.Up {
		if existing, ok := f.Get(name); ok {
			val, _ := v.Get()
			_ = existing.Set(val, variable.SetOptions{Force: true})
			return
		}
	}
	val, _ := v.Get()
	nv := variable.NewScalar(name, val)
	nv.Attrs = v.Attrs.Clear(variable.Tempvar).Clear(variable.Local)
	s.global.Set(name, nv)
}

// PushTempScope opens a temporary-assignment window ahead of a simple
// command, returning the TempEnv that Lookup will consult first while
// it is active.
func (s *Stack) PushTempScope() *TempEnv {
	s.tempEnv = &TempEnv{frame: newFrame("", s.depth, TemporaryAssignmentScope)}
	s.searchTempEnv = true
	return s.tempEnv
}

// PopTempScope closes the temporary-assignment window. When merge is
// true (posix mode, or the command was a special builtin whose
// assignments persist in the current execution environment), every
// entry is rebound into the enclosing frame chain; otherwise the
// whole window, and anything a special builtin wrote into it, is
// discarded.
func (s *Stack) PopTempScope(merge bool) {
	te := s.tempEnv
	s.tempEnv = nil
	s.searchTempEnv = false
	if te == nil {
		return
	}
	if !merge {
		return
	}
	for _, name := range te.frame.Names() {
		v, _ := te.frame.Get(name)
		s.rebindIntoEnclosing(s.top, name, v)
	}
}

// BindInCurrentEnvironment routes a special builtin's own NAME=VALUE
// argument assignment through the active temporary environment, if
// one is open, so that PopTempScope's merge/discard decision governs
// it along with any preceding tempvars; with no temp scope active, it
// falls through to an ordinary Bind.
func (s *Stack) BindInCurrentEnvironment(name, value string, opts variable.SetOptions) error {
	if s.tempEnv != nil {
		return s.tempEnv.Bind(name, value, opts)
	}
	return s.Bind(name, value, opts)
}

// Lookup searches the temporary environment (if active), then the
// frame chain from innermost to global, for a visible binding of name.
// Invisible bindings are skipped, not treated as a match, so an outer
// visible binding of the same name (rare, but not excluded) can still
// be found.
func (s *Stack) Lookup(name string) (*variable.Variable, bool) {
	if s.searchTempEnv && s.tempEnv != nil {
		if v, ok := s.tempEnv.frame.Get(name); ok {
			return v, true
		}
	}
	for f := s.top; f != nil; f = f.Up {
		if v, ok := f.Get(name); ok {
			if v.IsInvisible() {
				continue
			}
			return v, true
		}
	}
	return nil, false
}

// LookupGlobal looks up name directly in the global frame, bypassing
// the temp environment and any function-local shadowing.
func (s *Stack) LookupGlobal(name string) (*variable.Variable, bool) {
	return s.global.Get(name)
}

// findBindTarget searches the frame chain for an existing binding of
// name, including invisible ones — an explicit assignment is always
// an assignment-for-creation site, so invisible entries are valid
// write targets.
func (s *Stack) findBindTarget(name string) (*Frame, *variable.Variable, bool) {
	for f := s.top; f != nil; f = f.Up {
		if v, ok := f.Get(name); ok {
			return f, v, true
		}
	}
	return nil, nil, false
}

// Bind performs a plain `NAME=VALUE` assignment: it writes to the
// nearest existing binding across the frame chain, or creates the
// variable in the global frame if none exists. If the resolved target
// is a nameref, the write is redirected through the resolver to the
// nameref's ultimate target; on a circular or too-deep chain, Bind
// logs a warning and retries as a direct global bind of the original
// name.
func (s *Stack) Bind(name, value string, opts variable.SetOptions) error {
	_, v, found := s.findBindTarget(name)
	if !found {
		return s.BindGlobal(name, value, opts)
	}
	if !v.Attrs.Has(variable.Nameref) {
		return v.Set(value, opts)
	}
	resolved, _, err := s.resolver.ResolveForCreation(v)
	if err != nil {
		s.logger.Warn("nameref bind fell back to global scope", zap.String("name", name), zap.Error(err))
		return s.BindGlobal(name, value, opts)
	}
	if resolved == nil {
		return fmt.Errorf("%w: %s resolves to an array subscript, not a scalar bind target", errs.ErrIncompatibleType, name)
	}
	if resolved.Name == "" || resolved.Kind() == variable.Unset {
		return s.BindGlobal(resolved.Name, value, opts)
	}
	return resolved.Set(value, opts)
}

// BindGlobal writes directly into the global frame, creating the
// variable there if it does not already exist. A nameref bound in the
// global frame is still redirected through the resolver, so that
// BindGlobal can serve as Bind's own cycle-recovery fallback without
// reintroducing the cycle.
func (s *Stack) BindGlobal(name, value string, opts variable.SetOptions) error {
	v, ok := s.global.Get(name)
	if !ok {
		v = variable.NewScalar(name, "")
		s.global.Set(name, v)
	}
	if !v.Attrs.Has(variable.Nameref) {
		return v.Set(value, opts)
	}
	resolved, _, err := s.resolver.ResolveForCreation(v)
	if err != nil || resolved == nil {
		nv := variable.NewScalar(name, "")
		s.global.Set(name, nv)
		return nv.Set(value, opts)
	}
	return resolved.Set(value, opts)
}

// MakeLocal implements the `local` builtin's scoping rule: it creates
// a new binding in the innermost (current function) frame, refusing
// only when the name is already bound readonly in the global frame —
// a readonly local belonging to an enclosing caller may still be
// shadowed. When inherit is true, the new
// binding copies the value and attributes (other than Nameref) of
// whichever binding it shadows.
func (s *Stack) MakeLocal(name string, inherit bool) (*variable.Variable, error) {
	if gv, ok := s.global.Get(name); ok && gv.Attrs.Has(variable.Readonly) {
		return nil, fmt.Errorf("%w: %s", errs.ErrReadOnly, name)
	}

	var nv *variable.Variable
	if inherit {
		if _, shadowed, ok := s.findBindTarget(name); ok {
			nv = shadowed.Clone()
			nv.Attrs = nv.Attrs.Clear(variable.Nameref)
		}
	}
	if nv == nil {
		nv = variable.NewScalar(name, "")
	}
	nv.Attrs = nv.Attrs.Set(variable.Local)
	s.top.Set(name, nv)
	return nv, nil
}

// Unset removes a binding by name, dispatching on kind: UnsetAny
// removes whatever is bound regardless of payload; UnsetFunction only removes a
// function-kind binding; UnsetNameref only removes a nameref-attributed
// binding. Unsetting a name with no binding anywhere is a no-op.
// Unsetting a readonly binding fails with ErrReadOnly.
func (s *Stack) Unset(name string, kind UnsetKind) error {
	f, v, found := s.findBindTarget(name)
	if !found {
		return nil
	}
	switch kind {
	case UnsetFunction:
		if v.Kind() != variable.KindFunction {
			return nil
		}
	case UnsetNameref:
		if !v.Attrs.Has(variable.Nameref) {
			return nil
		}
	}
	if v.Attrs.Has(variable.Readonly) {
		return fmt.Errorf("%w: %s", errs.ErrReadOnly, name)
	}
	v.Dispose()
	f.Delete(name)
	return nil
}

// UnsetKind disambiguates which of `unset -v`, `unset -f`, or
// `unset -n` a call to Stack.Unset implements.
type UnsetKind int

const (
	UnsetAny UnsetKind = iota
	UnsetFunction
	UnsetNameref
)

// TempEnvActive returns the currently open temporary environment, or
// nil if none is open. Used by the environment projector, which needs
// to include tempvar entries ahead of frame-chain bindings the same
// way Lookup does.
func (s *Stack) TempEnvActive() *TempEnv {
	if s.searchTempEnv {
		return s.tempEnv
	}
	return nil
}

// Resolver returns the nameref resolver bound to this stack, for
// callers (the expansion driver) that need ResolveForRead directly.
func (s *Stack) Resolver() *Resolver { return s.resolver }

// Positionals returns the positional-parameter slice currently in
// effect (the innermost pushed set).
func (s *Stack) Positionals() []string {
	return s.positionals[len(s.positionals)-1]
}

// SetPositionals replaces the positional-parameter slice currently in
// effect, for `set -- ...`.
func (s *Stack) SetPositionals(args []string) {
	s.positionals[len(s.positionals)-1] = args
}
