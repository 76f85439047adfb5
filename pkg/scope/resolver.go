package scope

import (
	"fmt"
	"strings"

	"github.com/cpsource/shvars/pkg/errs"
	"github.com/cpsource/shvars/pkg/variable"
	"go.uber.org/zap"
)

// NamerefMax bounds how many hops the resolver will follow through a
// chain of nameref indirections before giving up.
const NamerefMax = 8

// ErrNamerefLoop is the max-loop sentinel: returned when a nameref
// chain revisits a variable it has already followed, or exceeds
// NamerefMax hops without resolving to a concrete binding. It wraps
// errs.ErrCircularNameref, so errors.Is reports the public error kind,
// while staying a distinct sentinel that scope.Stack.Bind checks for
// its retry-as-global-bind recovery without re-parsing an error
// string.
var ErrNamerefLoop = fmt.Errorf("%w: nameref: circular or too-deep chain", errs.ErrCircularNameref)

// SubscriptTarget is the array-subscript form a nameref resolves to
// when its target string contains a subscript, e.g. `declare -n
// ref=arr[2]`. ResolveForCreation returns this instead of a concrete
// *variable.Variable when it encounters one: if the target contains a
// subscript name[expr], resolution stops and returns the
// array-subscript form to the caller.
type SubscriptTarget struct {
	Name      string
	Subscript string
}

// splitSubscript splits a nameref target of the form "name[expr]"
// into its name and subscript. ok is false for a plain "name" target.
func splitSubscript(target string) (name, subscript string, ok bool) {
	i := strings.IndexByte(target, '[')
	if i < 0 || !strings.HasSuffix(target, "]") {
		return target, "", false
	}
	return target[:i], target[i+1 : len(target)-1], true
}

// Resolver follows nameref indirection chains across the scope stack,
// with bounded depth and cycle detection.
type Resolver struct {
	stack  *Stack
	logger *zap.Logger
}

// NewResolver creates a Resolver bound to the given stack. A nil
// logger is replaced with a no-op logger, matching the rest of this
// core's ambient-logging convention: the resolver is handed a logger,
// it does not reach for a global.
func NewResolver(stack *Stack, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{stack: stack, logger: logger}
}

// ResolveForRead walks a nameref chain through to a concrete
// non-nameref binding, for value reads. If the chain
// resolves to a name with no existing binding anywhere in the stack,
// ResolveForRead returns a fresh, unbound *variable.Variable carrying
// that name, matching bash's read-through-to-empty-string behavior
// for a nameref pointing at an as-yet-unset target.
func (r *Resolver) ResolveForRead(start *variable.Variable) (*variable.Variable, error) {
	current := start
	visited := map[*variable.Variable]bool{}

	for hop := 0; hop < NamerefMax; hop++ {
		target, isNameref := current.NamerefTarget()
		if !isNameref {
			return current, nil
		}
		if target == "" {
			return nil, errs.ErrInvalidNameref
		}
		if name, _, hasSub := splitSubscript(target); hasSub {
			// Reading through a subscripted nameref resolves the base
			// array variable; the subscript itself is applied by the
			// caller, the expansion driver.
			target = name
		}

		visited[current] = true

		next, found := r.stack.Lookup(target)
		if !found {
			return &variable.Variable{Name: target}, nil
		}
		if visited[next] {
			r.logger.Warn("nameref resolution detected a cycle",
				zap.String("start", start.Name), zap.String("target", target))
			return nil, ErrNamerefLoop
		}
		current = next
	}

	r.logger.Warn("nameref resolution exceeded max depth",
		zap.String("start", start.Name), zap.Int("max_depth", NamerefMax))
	return nil, ErrNamerefLoop
}

// ResolveForCreation walks a nameref chain to the last resolvable
// link, for creation sites (`declare -n`, assignment-target
// resolution). It returns either a concrete variable (the
// target name had no nameref attribute, or does not yet exist), or a
// *SubscriptTarget when the final link's target string carries a
// subscript.
func (r *Resolver) ResolveForCreation(start *variable.Variable) (*variable.Variable, *SubscriptTarget, error) {
	current := start
	visited := map[*variable.Variable]bool{}

	for hop := 0; hop < NamerefMax; hop++ {
		target, isNameref := current.NamerefTarget()
		if !isNameref {
			return current, nil, nil
		}
		if target == "" {
			return nil, nil, errs.ErrInvalidNameref
		}
		if name, subscript, hasSub := splitSubscript(target); hasSub {
			return nil, &SubscriptTarget{Name: name, Subscript: subscript}, nil
		}

		visited[current] = true

		next, found := r.stack.Lookup(target)
		if !found {
			return &variable.Variable{Name: target}, nil, nil
		}
		if visited[next] {
			r.logger.Warn("nameref resolution detected a cycle",
				zap.String("start", start.Name), zap.String("target", target))
			return nil, nil, ErrNamerefLoop
		}
		current = next
	}

	r.logger.Warn("nameref resolution exceeded max depth",
		zap.String("start", start.Name), zap.Int("max_depth", NamerefMax))
	return nil, nil, ErrNamerefLoop
}
