// Package hooks implements the special-variable hook registry: the
// side effects that assigning certain well-known names (IFS, PATH,
// HISTSIZE, BASH_XTRACEFD, and the rest of the set bash treats
// specially on assignment) triggers beyond the plain value-store
// write. History, mail checking, getopts, and the line editor are
// external collaborators this core does not own, so each hook records
// what it would tell them to do onto an Effects value rather than
// calling them directly — the same boundary pkg/dynvar draws around
// its own external-state readers.
package hooks

// Callback is invoked after a special variable's value has already
// been written to the value store, with the new value and a place to
// record side effects.
type Callback func(eff *Effects, value string) error

// Registry holds the Callback for every well-known special-variable
// name this core recognizes.
type Registry struct {
	callbacks map[string]Callback
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{callbacks: map[string]Callback{}}
}

// Register adds or replaces the callback for name.
func (r *Registry) Register(name string, cb Callback) {
	r.callbacks[name] = cb
}

// Invoke runs name's callback, if one is registered, recording its
// side effects onto eff. Names with no registered callback are a
// silent no-op — most variable names have no special-assignment
// behavior at all.
func (r *Registry) Invoke(name, value string, eff *Effects) error {
	cb, ok := r.callbacks[name]
	if !ok {
		return nil
	}
	return cb(eff, value)
}

// Has reports whether name has a registered callback.
func (r *Registry) Has(name string) bool {
	_, ok := r.callbacks[name]
	return ok
}
