// Package dynvar implements dynamic-variable dispatch: a registry of
// well-known shell variable names (SECONDS, RANDOM, LINENO, BASHPID,
// and the rest of the set bash treats specially) whose reads and
// writes run a Getter/Setter hook instead of the plain value-store
// path. Dispatch is by field presence on *variable.Variable, not by
// subclassing — the same pattern the value store itself uses for
// arithmetic-on-assignment and case folding.
package dynvar

import (
	"sort"

	"github.com/cpsource/shvars/pkg/scope"
	"github.com/cpsource/shvars/pkg/variable"
)

// Install constructs the dynamic Variable for one well-known name,
// including its Getter/Setter hooks.
type Install func() *variable.Variable

// Registry holds the Install constructors for every well-known
// dynamic name this core supports.
type Registry struct {
	installs map[string]Install
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{installs: map[string]Install{}}
}

// Register adds or replaces the Install constructor for name.
func (r *Registry) Register(name string, install Install) {
	r.installs[name] = install
}

// InstallInto creates a dynamic Variable in the given frame (normally
// the global frame) for every registered name the frame does not
// already bind, wiring its Getter/Setter hooks. Names already bound
// are left untouched, so InstallInto is safe to call more than once,
// and safe to call after a script has already assigned one of these
// names a plain value of its own before the shell had a chance to
// install the dynamic form.
func (r *Registry) InstallInto(frame *scope.Frame) {
	for name, install := range r.installs {
		if _, ok := frame.Get(name); ok {
			continue
		}
		frame.Set(name, install())
	}
}

// Names returns the registered dynamic-variable names, sorted.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.installs))
	for name := range r.installs {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
