// Package shell wires the value store, scope stack, nameref resolver,
// dynamic-variable dispatch, environment projector, pattern engine,
// expansion operators, and special-variable hooks together behind the
// collaborator interface a parser/executor calls into: GetVarAndType,
// QuoteStringForGlobbing, ExpandStringForPat, bind/unbind, scope
// push/pop, function definition, and positional-parameter access.
package shell

import (
	"strings"

	"github.com/cpsource/shvars/pkg/dynvar"
	"github.com/cpsource/shvars/pkg/environ"
	"github.com/cpsource/shvars/pkg/hooks"
	"github.com/cpsource/shvars/pkg/pattern"
	"github.com/cpsource/shvars/pkg/scope"
	"github.com/cpsource/shvars/pkg/variable"
	"go.uber.org/zap"
)

// Interpreter is the single owned object a parser/executor holds to
// reach the variable core. Nothing here is a package-level global;
// every piece of state lives on this struct, constructed once at
// shell startup and threaded through the caller's execution context.
type Interpreter struct {
	Stack     *scope.Stack
	DynVars   *dynvar.Registry
	Hooks     *hooks.Registry
	Effects   *hooks.Effects
	Projector *environ.Projector
	Arith     variable.ArithmeticEvaluator

	logger *zap.Logger

	dollarZero []string
}

// New creates an Interpreter with a fresh global scope, the default
// dynamic-variable set installed into it, and the default
// special-variable hook table registered. A nil logger is replaced
// with a no-op logger and shared across the scope stack, resolver,
// and projector.
func New(logger *zap.Logger, dynCtx *dynvar.Context) *Interpreter {
	if logger == nil {
		logger = zap.NewNop()
	}
	stack := scope.New(logger)

	dv := dynvar.NewRegistry()
	if dynCtx == nil {
		dynCtx = &dynvar.Context{}
	}
	dynvar.RegisterDefaults(dv, dynCtx)
	dv.InstallInto(stack.Global())

	hk := hooks.NewRegistry()
	hooks.RegisterDefaults(hk)

	return &Interpreter{
		Stack:      stack,
		DynVars:    dv,
		Hooks:      hk,
		Effects:    hooks.NewEffects(),
		Projector:  environ.NewProjector(logger),
		logger:     logger,
		dollarZero: []string{""},
	}
}

// GetVarAndType resolves name (following any nameref chain) and
// returns its scalar-collapsed value, its Kind, and its attribute
// bitset. An unbound name returns ("", variable.Unset, 0, nil) — not
// an error — since reading an unset variable is an ordinary event in
// shell evaluation, not a failure.
func (in *Interpreter) GetVarAndType(name string) (string, variable.Kind, variable.Attrs, error) {
	v, ok := in.Stack.Lookup(name)
	if !ok {
		return "", variable.Unset, 0, nil
	}
	if v.Attrs.Has(variable.Nameref) {
		resolved, err := in.Stack.Resolver().ResolveForRead(v)
		if err != nil {
			return "", variable.Unset, 0, err
		}
		v = resolved
	}
	val, err := v.Get()
	if err != nil {
		return "", variable.Unset, 0, err
	}
	return val, v.Kind(), v.Attrs, nil
}

// globSpecial is every byte the pattern engine treats as a
// metacharacter outside of a bracket expression: the quantifiers, the
// group delimiters, and backslash itself.
const globSpecial = `*?[]()+@!\`

// QuoteStringForGlobbing backslash-escapes every pattern metacharacter
// in s, producing a pattern that matches s literally regardless of
// what it contains. Used when a quoted portion of a word must be
// protected from pattern interpretation before being handed to
// pattern.Match, e.g. a quoted literal `*` inside a `case` pattern
// operand.
func QuoteStringForGlobbing(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if strings.IndexByte(globSpecial, s[i]) >= 0 {
			b.WriteByte('\\')
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// ExpandStringForPat reverses QuoteStringForGlobbing: given text that
// was escaped to protect it from pattern interpretation, it returns
// the original unescaped text. Called on the quoted portions of a
// word once the whole word has been assembled into the final pattern
// operand and is ready to be matched.
func ExpandStringForPat(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			i++
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

// Bind performs a plain NAME=VALUE assignment through the scope
// stack, following nameref indirection the way Stack.Bind does.
func (in *Interpreter) Bind(name, value string, opts variable.SetOptions) error {
	if err := in.Stack.Bind(name, value, opts); err != nil {
		return err
	}
	in.afterAssign(name, value)
	return nil
}

// BindGlobal performs a plain NAME=VALUE assignment directly in the
// global frame, bypassing function-local shadowing.
func (in *Interpreter) BindGlobal(name, value string, opts variable.SetOptions) error {
	if err := in.Stack.BindGlobal(name, value, opts); err != nil {
		return err
	}
	in.afterAssign(name, value)
	return nil
}

// Unbind removes a binding, dispatching by kind (variable/function/
// nameref-only), and invalidates the exported-environment cache.
func (in *Interpreter) Unbind(name string, kind scope.UnsetKind) error {
	if err := in.Stack.Unset(name, kind); err != nil {
		return err
	}
	in.Projector.MarkDirty()
	return nil
}

// afterAssign runs name's special-variable hook, if any, and marks
// the exported-environment cache dirty so the next Export recomputes
// it — an assignment may have changed a variable's Exported visibility
// or value.
func (in *Interpreter) afterAssign(name, value string) {
	_ = in.Hooks.Invoke(name, value, in.Effects)
	in.Projector.MarkDirty()
	if name == "PWD" || name == "OLDPWD" || name == "_" {
		in.Projector.SetFastPath(name, value)
	}
}

// PushScope pushes a new function-local frame and its positional
// parameters, for entry into a shell function call.
func (in *Interpreter) PushScope(name string, args []string) *scope.Frame {
	return in.Stack.PushFunctionFrame(name, args)
}

// PopScope tears down the innermost function-local frame, propagating
// any tempvar-and-propagate entries into the enclosing scope.
func (in *Interpreter) PopScope() {
	in.Stack.PopFunctionFrame()
	in.Projector.MarkDirty()
}

// PushDollarZero records a new value for $0 on entry to a sourced
// script or function that temporarily overrides it, e.g. during a
// `source` of a file with its own reported name.
func (in *Interpreter) PushDollarZero(name string) {
	in.dollarZero = append(in.dollarZero, name)
}

// PopDollarZero restores the previous $0 value. Popping past the
// initial entry is a no-op, since there is always at least one value.
func (in *Interpreter) PopDollarZero() {
	if len(in.dollarZero) > 1 {
		in.dollarZero = in.dollarZero[:len(in.dollarZero)-1]
	}
}

// DollarZero returns the current value of $0.
func (in *Interpreter) DollarZero() string {
	return in.dollarZero[len(in.dollarZero)-1]
}

// DefineFunction binds name to a function body in the global frame.
func (in *Interpreter) DefineFunction(name string, body variable.FunctionBody) error {
	v := variable.NewFunction(name, body)
	in.Stack.Global().Set(name, v)
	in.Projector.MarkDirty()
	return nil
}

// LookupFunction returns the function body bound to name, and whether
// one exists. Function lookup only ever consults the global frame:
// shell functions are never function-local.
func (in *Interpreter) LookupFunction(name string) (variable.FunctionBody, bool) {
	v, ok := in.Stack.Global().Get(name)
	if !ok {
		return nil, false
	}
	return v.Function()
}

// Positionals returns the positional-parameter slice in effect in the
// current scope.
func (in *Interpreter) Positionals() []string {
	return in.Stack.Positionals()
}

// SetPositionals replaces the positional-parameter slice in effect in
// the current scope, for `set -- ...`.
func (in *Interpreter) SetPositionals(args []string) {
	in.Stack.SetPositionals(args)
}

// ExportEnviron renders the currently visible exported bindings as a
// flat []string suitable for os/exec.Cmd.Env.
func (in *Interpreter) ExportEnviron() []string {
	return in.Projector.Export(in.Stack)
}

// MatchPattern reports whether s matches pat under opts, the single
// entry point the executor calls for `case` arms and `[[ name =~
// pat ]]`-style glob matching (extended regular expressions are a
// separate, out-of-scope collaborator).
func (in *Interpreter) MatchPattern(pat, s string, opts pattern.Options) (bool, error) {
	return pattern.Match(pat, s, opts)
}
