// Package variable implements the value store: the representation of
// a shell variable's payload (scalar, indexed array, associative
// array, nameref target, function body) and its attribute bitset.
//
// This is the leaf of the component stack: the scope stack (pkg/scope)
// holds tables of *Variable, but this package knows nothing about
// scopes, namerefs-as-indirection-chains, or dynamic dispatch; it only
// knows how to hold and mutate one variable's payload safely.
package variable

import (
	"fmt"
	"sort"

	"github.com/cpsource/shvars/pkg/errs"
)

// Kind identifies which payload variant a Variable currently holds.
// At most one is active per variable: payload variants are mutually
// exclusive.
type Kind int

const (
	Unset Kind = iota
	KindScalar
	KindIndexedArray
	KindAssocArray
	KindFunction
	KindNamerefPayload
)

func (k Kind) String() string {
	switch k {
	case Unset:
		return "unset"
	case KindScalar:
		return "scalar"
	case KindIndexedArray:
		return "indexed array"
	case KindAssocArray:
		return "associative array"
	case KindFunction:
		return "function"
	case KindNamerefPayload:
		return "nameref"
	default:
		return "invalid"
	}
}

// FunctionBody is the opaque command tree a Function-kind Variable
// carries. The parser/executor, an external collaborator, supplies the
// concrete representation; this core only stores and returns the
// pointer.
type FunctionBody interface {
	// Source returns the function body rendered as shell source text,
	// used by the environment projector to synthesize BASH_FUNC_ entries
	// and by Variable.Describe for declare -f-style output.
	Source() string
}

// ArithmeticEvaluator evaluates a shell arithmetic expression and
// returns its value as a base-10 string. Arithmetic expansion is an
// external collaborator; integer-attributed assignment calls back into
// whichever evaluator the embedding shell supplies.
type ArithmeticEvaluator func(expr string) (string, error)

// Variable is a named binding carrying a payload variant, an
// attribute bitset, a scope depth, optional dynamic getter/setter
// hooks, and a cached export string.
type Variable struct {
	Name  string
	Attrs Attrs
	Depth int

	kind     Kind
	scalar   string
	indexed  map[int]string
	assoc    map[string]string
	fn       FunctionBody
	nameref  string // target name, optionally "name[subscript]"

	// Getter, when non-nil, is invoked on every read to recompute the
	// effective value in place. Setter, when non-nil, is invoked
	// instead of the default store.
	Getter func(v *Variable) error
	Setter func(v *Variable, value string, arrayIndex int, assocKey string) error

	exportCache    string
	exportCacheSet bool
}

// NewScalar creates a new scalar Variable with the given initial
// value. Integer-attributed scalars should be constructed via
// NewScalar, then setting the Integer bit on Attrs, then Set, so that the
// arithmetic evaluation path in Set runs on the real assignment value
// rather than the constructor's.
func NewScalar(name, value string) *Variable {
	return &Variable{Name: name, kind: KindScalar, scalar: value}
}

// NewIndexedArray creates a new, empty indexed-array Variable.
func NewIndexedArray(name string) *Variable {
	return &Variable{Name: name, kind: KindIndexedArray, indexed: map[int]string{}, Attrs: Array}
}

// NewAssocArray creates a new, empty associative-array Variable.
func NewAssocArray(name string) *Variable {
	return &Variable{Name: name, kind: KindAssocArray, assoc: map[string]string{}, Attrs: Assoc}
}

// NewFunction creates a new Variable holding a function body.
func NewFunction(name string, body FunctionBody) *Variable {
	return &Variable{Name: name, kind: KindFunction, fn: body, Attrs: Function}
}

// NewNameref creates a new Variable whose payload is a nameref target.
// A nameref-attributed Variable always carries a NamerefTarget
// payload; there is no constructor path that produces the reverse.
func NewNameref(name, target string) *Variable {
	return &Variable{Name: name, kind: KindNamerefPayload, nameref: target, Attrs: Nameref}
}

// Kind reports the variable's active payload variant.
func (v *Variable) Kind() Kind { return v.kind }

// IsInvisible reports whether the variable behaves as Unset to
// ordinary lookups: a variable with Invisible set behaves as Unset to
// lookups unless an assignment-for-creation mode is requested.
func (v *Variable) IsInvisible() bool { return v.Attrs.Has(Invisible) }

// NamerefTarget returns the raw target string of a nameref payload,
// and whether the variable actually holds one.
func (v *Variable) NamerefTarget() (string, bool) {
	if v.kind != KindNamerefPayload {
		return "", false
	}
	return v.nameref, true
}

// SetNamerefTarget overwrites a nameref payload's target in place.
// Calling this on a non-nameref variable is a bug in the caller: the
// nameref attribute and payload must always agree. It returns
// ErrIncompatibleType rather than panicking, since this core never
// panics on caller misuse.
func (v *Variable) SetNamerefTarget(target string) error {
	if v.kind != KindNamerefPayload && v.kind != Unset {
		return fmt.Errorf("%w: %s is not a nameref", errs.ErrIncompatibleType, v.Name)
	}
	v.kind = KindNamerefPayload
	v.nameref = target
	v.Attrs = v.Attrs.Set(Nameref)
	v.invalidateExportCache()
	return nil
}

// Function returns the function body, and whether the variable
// actually holds one.
func (v *Variable) Function() (FunctionBody, bool) {
	if v.kind != KindFunction {
		return nil, false
	}
	return v.fn, true
}

// Get returns the scalar value of the variable, running the dynamic
// getter first if one is registered. Reading a non-scalar as a scalar
// returns its "collapsed" form: arrays yield their first positional
// element (index 0, or the empty string if unset), matching bash's
// `$arr` (no subscript) behavior, which is index [0] unquoted.
func (v *Variable) Get() (string, error) {
	if v.Getter != nil {
		if err := v.Getter(v); err != nil {
			return "", err
		}
	}
	switch v.kind {
	case Unset:
		return "", nil
	case KindScalar:
		return v.scalar, nil
	case KindIndexedArray:
		return v.indexed[0], nil
	case KindAssocArray:
		return v.assoc["0"], nil
	case KindNamerefPayload:
		return v.nameref, nil
	case KindFunction:
		return "", fmt.Errorf("%w: cannot read function %s as scalar", errs.ErrIncompatibleType, v.Name)
	default:
		return "", nil
	}
}

// SetOptions controls the behavior of Set.
type SetOptions struct {
	// Force permits writing to a readonly variable.
	Force bool
	// Append concatenates onto the existing scalar value instead of
	// replacing it (the `+=` operator).
	Append bool
	// Arith evaluates the right-hand side as arithmetic before storing,
	// when the variable carries the Integer attribute. If Arith is nil
	// and Integer is set, Set falls back to storing the literal text
	// rather than failing.
	Arith ArithmeticEvaluator
}

// Set stores a scalar value into the variable, applying the readonly
// guard, then Setter dispatch, then integer evaluation, then
// case-folding attributes. A Setter hook, if registered, runs instead
// of the default store.
//
// Arrays and associative arrays accept a scalar assignment without
// complaint: the value is routed to index 0 rather than rejected with
// an error.
func (v *Variable) Set(value string, opts SetOptions) error {
	if v.Attrs.Has(Readonly) && !opts.Force {
		return fmt.Errorf("%w: %s", errs.ErrReadOnly, v.Name)
	}
	if v.Attrs.Has(NoAssign) {
		return fmt.Errorf("%w: %s", errs.ErrNoAssign, v.Name)
	}

	if v.Setter != nil {
		return v.Setter(v, value, -1, "")
	}

	if v.Attrs.Has(Integer) {
		evaluated, err := evaluateInteger(value, opts.Arith)
		if err != nil {
			return err
		}
		value = evaluated
	}
	value = applyCase(v.Attrs, value)

	switch v.kind {
	case KindIndexedArray:
		if v.indexed == nil {
			v.indexed = map[int]string{}
		}
		if opts.Append {
			v.indexed[0] += value
		} else {
			v.indexed[0] = value
		}
	case KindAssocArray:
		if v.assoc == nil {
			v.assoc = map[string]string{}
		}
		if opts.Append {
			v.assoc["0"] += value
		} else {
			v.assoc["0"] = value
		}
	default:
		v.kind = KindScalar
		if opts.Append {
			v.scalar += value
		} else {
			v.scalar = value
		}
	}
	v.invalidateExportCache()
	return nil
}

// Refresh stores value directly into the variable's scalar slot,
// bypassing the readonly guard, Setter dispatch, integer evaluation,
// and case folding. It exists for Getter hooks: a Getter computes a
// fresh value on every read and needs somewhere to cache it that Get
// will then return, without re-entering its own Setter or another
// dynamic variable's.
func (v *Variable) Refresh(value string) {
	v.kind = KindScalar
	v.scalar = value
	v.invalidateExportCache()
}

// evaluateInteger evaluates value as arithmetic via eval, falling back
// to the literal value when no evaluator is supplied.
func evaluateInteger(value string, eval ArithmeticEvaluator) (string, error) {
	if eval == nil {
		return value, nil
	}
	result, err := eval(value)
	if err != nil {
		return "", fmt.Errorf("%w: %v", errs.ErrArithmeticError, err)
	}
	return result, nil
}

// applyCase applies whichever of Upper/Lower/Capcase is set. Only one
// should be active at a time; if more than one bit happens to be set,
// Upper wins, then Lower, then Capcase — an arbitrary but stable
// tie-break for what is otherwise a caller bug rather than a defined
// state.
func applyCase(a Attrs, s string) string {
	switch {
	case a.Has(Upper):
		return toUpperASCIIAware(s)
	case a.Has(Lower):
		return toLowerASCIIAware(s)
	case a.Has(Capcase):
		return capcase(s)
	default:
		return s
	}
}

// ConvertToArray converts an unset or scalar variable into an empty
// indexed array, preserving index-0 from any prior scalar value the
// way bash preserves `x=(${x})`-equivalent state when `declare -a`
// promotes an existing scalar. Converting a readonly variable without
// force fails with ErrReadOnly; converting an associative array fails
// with ErrIncompatibleType, since that conversion has no defined
// meaning and must go through explicit unset first.
func (v *Variable) ConvertToArray(force bool) error {
	if v.Attrs.Has(Readonly) && !force {
		return fmt.Errorf("%w: %s", errs.ErrReadOnly, v.Name)
	}
	if v.kind == KindAssocArray {
		return fmt.Errorf("%w: cannot convert associative array %s to indexed array", errs.ErrIncompatibleType, v.Name)
	}
	if v.kind == KindIndexedArray {
		return nil
	}
	prior := v.scalar
	v.indexed = map[int]string{}
	if v.kind == KindScalar && prior != "" {
		v.indexed[0] = prior
	}
	v.kind = KindIndexedArray
	v.scalar = ""
	v.Attrs = v.Attrs.Set(Array).Clear(Assoc)
	v.invalidateExportCache()
	return nil
}

// ConvertToAssoc converts an unset or scalar variable into an empty
// associative array. See ConvertToArray for the symmetric indexed-array
// case; the same readonly/cross-kind rules apply.
func (v *Variable) ConvertToAssoc(force bool) error {
	if v.Attrs.Has(Readonly) && !force {
		return fmt.Errorf("%w: %s", errs.ErrReadOnly, v.Name)
	}
	if v.kind == KindIndexedArray {
		return fmt.Errorf("%w: cannot convert indexed array %s to associative array", errs.ErrIncompatibleType, v.Name)
	}
	if v.kind == KindAssocArray {
		return nil
	}
	prior := v.scalar
	v.assoc = map[string]string{}
	if v.kind == KindScalar && prior != "" {
		v.assoc["0"] = prior
	}
	v.kind = KindAssocArray
	v.scalar = ""
	v.Attrs = v.Attrs.Set(Assoc).Clear(Array)
	v.invalidateExportCache()
	return nil
}

// SetAt stores a value at an integer index of an indexed array. On an
// associative array it returns ErrIncompatibleType; string keys go
// through SetAtKey. Calling SetAt on a scalar variable implicitly
// promotes it to an array, matching bash's `x[2]=v` auto-vivification
// when x was previously unset or a plain scalar with no uses yet.
func (v *Variable) SetAt(index int, value string) error {
	if v.Attrs.Has(Readonly) {
		return fmt.Errorf("%w: %s", errs.ErrReadOnly, v.Name)
	}
	if v.kind == KindAssocArray {
		return fmt.Errorf("%w: use SetAtKey for associative array %s", errs.ErrIncompatibleType, v.Name)
	}
	if v.kind != KindIndexedArray {
		if err := v.ConvertToArray(false); err != nil {
			return err
		}
	}
	v.indexed[index] = applyCase(v.Attrs, value)
	v.invalidateExportCache()
	return nil
}

// SetAtKey stores a value at a string key of an associative array,
// auto-vivifying an unset variable into one, matching SetAt's
// auto-vivification rule for the associative case.
func (v *Variable) SetAtKey(key, value string) error {
	if v.Attrs.Has(Readonly) {
		return fmt.Errorf("%w: %s", errs.ErrReadOnly, v.Name)
	}
	if v.kind == KindIndexedArray {
		return fmt.Errorf("%w: use SetAt for indexed array %s", errs.ErrIncompatibleType, v.Name)
	}
	if v.kind != KindAssocArray {
		if err := v.ConvertToAssoc(false); err != nil {
			return err
		}
	}
	v.assoc[key] = applyCase(v.Attrs, value)
	v.invalidateExportCache()
	return nil
}

// GetAt reads an indexed-array element. A missing index returns ""
// and ok=false, matching a sparse array's gap semantics: indexed
// arrays iterate in ascending index order including gaps.
func (v *Variable) GetAt(index int) (string, bool) {
	if v.kind != KindIndexedArray {
		return "", false
	}
	s, ok := v.indexed[index]
	return s, ok
}

// GetAtKey reads an associative-array element by key.
func (v *Variable) GetAtKey(key string) (string, bool) {
	if v.kind != KindAssocArray {
		return "", false
	}
	s, ok := v.assoc[key]
	return s, ok
}

// DeleteAt removes an indexed-array element, leaving a gap.
func (v *Variable) DeleteAt(index int) {
	if v.kind == KindIndexedArray {
		delete(v.indexed, index)
		v.invalidateExportCache()
	}
}

// DeleteAtKey removes an associative-array element.
func (v *Variable) DeleteAtKey(key string) {
	if v.kind == KindAssocArray {
		delete(v.assoc, key)
		v.invalidateExportCache()
	}
}

// Indices returns the sorted integer indices of an indexed array,
// ascending, including the gaps' absence (i.e., only indices actually
// present).
func (v *Variable) Indices() []int {
	if v.kind != KindIndexedArray {
		return nil
	}
	out := make([]int, 0, len(v.indexed))
	for i := range v.indexed {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}

// Keys returns the keys of an associative array in Go's randomized
// map-iteration order, then sorted for deterministic test output —
// callers that need bash's unspecified iteration order should iterate
// v.assoc directly instead. Associative-array iteration order is
// intentionally left undefined, so this helper's sorted output is a
// convenience, not a compatibility requirement.
func (v *Variable) Keys() []string {
	if v.kind != KindAssocArray {
		return nil
	}
	out := make([]string, 0, len(v.assoc))
	for k := range v.assoc {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Elements returns the array's values, for an indexed array, in
// ascending-index order (gaps skipped), or for an associative array,
// in Keys() order. Used by the expand package for elementwise operator
// application.
func (v *Variable) Elements() []string {
	switch v.kind {
	case KindIndexedArray:
		idx := v.Indices()
		out := make([]string, len(idx))
		for i, ix := range idx {
			out[i] = v.indexed[ix]
		}
		return out
	case KindAssocArray:
		keys := v.Keys()
		out := make([]string, len(keys))
		for i, k := range keys {
			out[i] = v.assoc[k]
		}
		return out
	default:
		s, _ := v.Get()
		return []string{s}
	}
}

// Clone returns a deep copy of the variable, detached from any
// Getter/Setter hooks (those are identity-bound to the original
// registration, e.g. a dynamic variable's slot; a clone is a plain
// value-store snapshot with no dynamic behavior of its own).
func (v *Variable) Clone() *Variable {
	c := &Variable{
		Name:  v.Name,
		Attrs: v.Attrs,
		Depth: v.Depth,
		kind:  v.kind,
	}
	switch v.kind {
	case KindScalar:
		c.scalar = v.scalar
	case KindIndexedArray:
		c.indexed = make(map[int]string, len(v.indexed))
		for k, val := range v.indexed {
			c.indexed[k] = val
		}
	case KindAssocArray:
		c.assoc = make(map[string]string, len(v.assoc))
		for k, val := range v.assoc {
			c.assoc[k] = val
		}
	case KindFunction:
		c.fn = v.fn
	case KindNamerefPayload:
		c.nameref = v.nameref
	}
	return c
}

// Dispose clears the variable's payload. Callers that track pooled
// Variable objects (this core does not pool them, but the method is
// here for symmetry with the rest of the lifecycle) can reuse the
// struct after Dispose.
func (v *Variable) Dispose() {
	v.kind = Unset
	v.scalar = ""
	v.indexed = nil
	v.assoc = nil
	v.fn = nil
	v.nameref = ""
	v.Getter = nil
	v.Setter = nil
	v.invalidateExportCache()
}

func (v *Variable) invalidateExportCache() {
	v.exportCacheSet = false
	v.exportCache = ""
}

// ExportString returns the variable's cached `NAME=VALUE` export
// serialization, computing and caching it on first call after the
// value last changed. This is the per-variable half of the
// environment projector's caching scheme (pkg/environ does the
// whole-snapshot half).
func (v *Variable) ExportString() (string, error) {
	if v.exportCacheSet {
		return v.exportCache, nil
	}
	s, err := v.Get()
	if err != nil {
		return "", err
	}
	out := v.Name + "=" + s
	v.exportCache = out
	v.exportCacheSet = true
	return out, nil
}

// Describe renders the variable as a `declare`-style reparsable
// string, e.g. `declare -x name="value"`, `declare -a arr=([0]="a"
// [1]="b")`, `declare -A assoc=([k]="v")`, `declare -n ref="target"`.
// Exercises the export round-trip without a real `declare` builtin.
func (v *Variable) Describe() (string, error) {
	attrStr := v.Attrs.String()
	flags := "--"
	if attrStr != "" {
		flags = "-" + attrStr
	}
	switch v.kind {
	case KindScalar, Unset:
		val, err := v.Get()
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("declare %s %s=%q", flags, v.Name, val), nil
	case KindIndexedArray:
		var b []byte
		b = append(b, fmt.Sprintf("declare %s %s=(", flags, v.Name)...)
		for i, ix := range v.Indices() {
			if i > 0 {
				b = append(b, ' ')
			}
			b = append(b, fmt.Sprintf("[%d]=%q", ix, v.indexed[ix])...)
		}
		b = append(b, ')')
		return string(b), nil
	case KindAssocArray:
		var b []byte
		b = append(b, fmt.Sprintf("declare %s %s=(", flags, v.Name)...)
		for i, k := range v.Keys() {
			if i > 0 {
				b = append(b, ' ')
			}
			b = append(b, fmt.Sprintf("[%s]=%q", k, v.assoc[k])...)
		}
		b = append(b, ')')
		return string(b), nil
	case KindNamerefPayload:
		return fmt.Sprintf("declare %s %s=%q", flags, v.Name, v.nameref), nil
	case KindFunction:
		if v.fn == nil {
			return fmt.Sprintf("%s ()\n{\n    :\n}", v.Name), nil
		}
		return fmt.Sprintf("%s ()\n{\n%s\n}", v.Name, v.fn.Source()), nil
	default:
		return "", fmt.Errorf("%w: unknown kind for %s", errs.ErrIncompatibleType, v.Name)
	}
}
