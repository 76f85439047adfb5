// Package environ projects the scope stack's exported variables into
// a flat []string environment (the form os/exec.Cmd.Env expects), and
// imports one back.
package environ

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cpsource/shvars/pkg/scope"
	"github.com/cpsource/shvars/pkg/variable"
	"go.uber.org/zap"
)

// funcPrefix, arrayPrefix, and assocPrefix are the name prefixes this
// core uses to smuggle function bodies and array payloads through a
// flat environment, mirroring bash's real BASH_FUNC_name%%= convention
// for functions and extending the same idea to arrays and associative
// arrays, which bash itself does not export at all but which makes
// this core's export/import round trip testable.
const (
	funcPrefix  = "BASH_FUNC_"
	funcSuffix  = "%%"
	arrayPrefix = "BASH_ARRAY_"
	assocPrefix = "BASH_ASSOC_"
)

// textFunctionBody is the FunctionBody implementation Import
// reconstructs a function's payload as, since this core's value store
// does not itself parse shell source.
type textFunctionBody string

func (t textFunctionBody) Source() string { return string(t) }

// fastPathNames are read and written often enough (on every directory
// change or command) that the projector keeps them in a small side
// table alongside the normal frame-walk path.
var fastPathNames = map[string]bool{"PWD": true, "OLDPWD": true, "_": true}

// Projector builds and caches the exported-environment snapshot for a
// scope stack. Parsing a snapshot back is the package-level Import.
type Projector struct {
	logger *zap.Logger

	dirty bool
	cache []string

	fastPath map[string]string
	invalid  InvalidEnv
}

// NewProjector creates a Projector. A nil logger is replaced with a
// no-op logger.
func NewProjector(logger *zap.Logger) *Projector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Projector{logger: logger, dirty: true, fastPath: map[string]string{}}
}

// MarkDirty invalidates the cached snapshot, forcing the next Export
// to recompute it. Callers that mutate an exported variable's value
// or attributes are responsible for calling this; the projector has
// no way to observe value-store mutations on its own.
func (p *Projector) MarkDirty() { p.dirty = true }

// SetFastPath records a fast-path name's value (PWD, OLDPWD, or _) in
// the side table. It also marks the cache dirty, so the next Export
// re-walks the whole scope stack; the cached vector is not patched in
// place.
func (p *Projector) SetFastPath(name, value string) {
	if !fastPathNames[name] {
		return
	}
	p.fastPath[name] = value
	p.dirty = true
}

// FastPath returns a fast-path name's last recorded value.
func (p *Projector) FastPath(name string) (string, bool) {
	v, ok := p.fastPath[name]
	return v, ok
}

// SetInvalidEnv records the invalid-environment table an Import
// produced, so Export re-emits its raw entries verbatim and shadows
// any temp-env or scope binding sharing the same literal name —
// invalid_env takes precedence over temp_env on export, since an
// invalid name is unreachable by name and so can never be reassigned
// to override it. Marks the cache dirty.
func (p *Projector) SetInvalidEnv(inv InvalidEnv) {
	p.invalid = inv
	p.dirty = true
}

// Export renders the scope stack's currently visible exported
// bindings as a flat []string of "NAME=VALUE" entries, suitable for
// os/exec.Cmd.Env. The invalid-environment table set by
// SetInvalidEnv is re-emitted first, verbatim, and shadows any
// ordinary binding of the same literal name. Shadowed bindings (a
// function-local export hiding a global one of the same name)
// contribute only their innermost value, matching the single visible
// binding a child process would actually inherit. Function-kind
// exported variables are synthesized as `BASH_FUNC_name%%=() { body }`;
// exported arrays and associative arrays are synthesized under the
// BASH_ARRAY_/BASH_ASSOC_ prefixes. The result is cached until
// MarkDirty is called.
func (p *Projector) Export(stack *scope.Stack) []string {
	if !p.dirty && p.cache != nil {
		return p.cache
	}

	seen := map[string]bool{}
	var out []string

	for _, raw := range p.invalid.Raw {
		out = append(out, raw)
		if name, _, ok := strings.Cut(raw, "="); ok {
			seen[name] = true
		}
	}

	collect := func(name string, v *variable.Variable) {
		if seen[name] || v.IsInvisible() || !v.Attrs.Has(variable.Exported) {
			return
		}
		seen[name] = true
		entries, err := projectOne(v)
		if err != nil {
			p.logger.Warn("skipped variable during export", zap.String("name", name), zap.Error(err))
			return
		}
		out = append(out, entries...)
	}

	if te := stack.TempEnvActive(); te != nil {
		for _, name := range te.Names() {
			v, _ := te.Get(name)
			collect(name, v)
		}
	}
	for f := stack.Top(); f != nil; f = f.Up {
		for _, name := range f.Names() {
			v, _ := f.Get(name)
			collect(name, v)
		}
	}

	for name, value := range p.fastPath {
		if !seen[name] {
			out = append(out, name+"="+value)
		}
	}

	sort.Strings(out)
	p.cache = out
	p.dirty = false
	return out
}

func projectOne(v *variable.Variable) ([]string, error) {
	switch v.Kind() {
	case variable.KindFunction:
		fn, _ := v.Function()
		body := ""
		if fn != nil {
			body = fn.Source()
		}
		return []string{fmt.Sprintf("%s%s%s=() { %s\n}", funcPrefix, v.Name, funcSuffix, body)}, nil
	case variable.KindIndexedArray:
		var b strings.Builder
		for i, ix := range v.Indices() {
			if i > 0 {
				b.WriteByte(' ')
			}
			fmt.Fprintf(&b, "[%d]=%q", ix, v.Elements()[i])
		}
		return []string{arrayPrefix + v.Name + "=(" + b.String() + ")"}, nil
	case variable.KindAssocArray:
		var b strings.Builder
		keys := v.Keys()
		for i, k := range keys {
			if i > 0 {
				b.WriteByte(' ')
			}
			val, _ := v.GetAtKey(k)
			fmt.Fprintf(&b, "[%s]=%q", k, val)
		}
		return []string{assocPrefix + v.Name + "=(" + b.String() + ")"}, nil
	default:
		s, err := v.ExportString()
		if err != nil {
			return nil, err
		}
		return []string{s}, nil
	}
}
