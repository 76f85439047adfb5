// Package scope implements the scope stack: the ordered chain of
// variable contexts (global, function-local frames, and one-shot
// temporary-assignment frames) that lookup and binding traverse, plus
// the nameref resolver that follows indirection chains across frames.
package scope

import "github.com/cpsource/shvars/pkg/variable"

// FrameFlags records the per-frame booleans a variable context
// carries: whether this frame is a function's environment, a
// builtin's one-shot environment, a temporary-assignment scope, and
// whether it has accumulated any local or tempvar entries (set by
// Frame.Set; PopFunctionFrame walks the table without consulting
// them).
type FrameFlags uint8

const (
	FunctionEnvironment FrameFlags = 1 << iota
	BuiltinEnvironment
	TemporaryAssignmentScope
	HasLocal
	HasTempvar
)

// Frame is one level of the variable-context stack: a hash table from
// name to *variable.Variable, linked to its shallower (up) and deeper
// (down) neighbors. The global frame is the unique bottom of the
// chain — its Up is nil.
type Frame struct {
	Name  string // enclosing function's name, "" for the global frame
	Depth int
	Flags FrameFlags

	Up   *Frame
	Down *Frame

	vars map[string]*variable.Variable
}

// newFrame allocates an empty Frame at the given depth.
func newFrame(name string, depth int, flags FrameFlags) *Frame {
	return &Frame{
		Name:  name,
		Depth: depth,
		Flags: flags,
		vars:  make(map[string]*variable.Variable),
	}
}

// Get returns the Variable bound to name directly in this frame (no
// traversal to other frames), and whether it was found.
func (f *Frame) Get(name string) (*variable.Variable, bool) {
	v, ok := f.vars[name]
	return v, ok
}

// Set binds name to v directly in this frame, overwriting any prior
// binding.
func (f *Frame) Set(name string, v *variable.Variable) {
	v.Depth = f.Depth
	f.vars[name] = v
	if v.Attrs.Has(variable.Local) {
		f.Flags |= HasLocal
	}
	if v.Attrs.Has(variable.Tempvar) {
		f.Flags |= HasTempvar
	}
}

// Delete removes name's binding from this frame, if present.
func (f *Frame) Delete(name string) {
	delete(f.vars, name)
}

// Names returns the frame's variable names, unordered (the same
// randomized order Go's map iteration gives — callers that need a
// stable order should sort it themselves; scope enumeration order for
// e.g. `compgen -v` is an external collaborator's concern, not this
// core's).
func (f *Frame) Names() []string {
	out := make([]string, 0, len(f.vars))
	for n := range f.vars {
		out = append(out, n)
	}
	return out
}

// Len reports the number of bindings directly in this frame.
func (f *Frame) Len() int { return len(f.vars) }
