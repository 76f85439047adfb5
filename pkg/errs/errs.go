// Package errs defines the error kinds produced by the shvars variable
// and parameter-expansion core.
//
// Every operation that can fail returns a plain Go error wrapping one
// of the sentinels below via fmt.Errorf("%w: ..."), never a panic and
// never a long-jump. Callers distinguish kinds with errors.Is, the same
// way the rest of the Go ecosystem does, rather than through a type
// switch on unexported error structs.
package errs

import "errors"

// Sentinel error kinds: name does not match identifier syntax, nameref
// chains that are malformed or exceed the bounded depth, writes
// rejected by readonly/noassign attributes, type mismatches between
// scalar and array payloads, arithmetic evaluation failures on
// integer-attributed assignment, and the two configuration-range
// errors (BASH_COMPAT, BASH_XTRACEFD).
var (
	ErrInvalidIdentifier = errors.New("invalid identifier")
	ErrInvalidNameref    = errors.New("invalid nameref target")
	ErrCircularNameref   = errors.New("circular nameref chain")
	ErrReadOnly          = errors.New("readonly variable")
	ErrNoAssign          = errors.New("assignment not permitted")
	ErrIncompatibleType  = errors.New("incompatible variable type")
	ErrArithmeticError   = errors.New("arithmetic evaluation failed")
	ErrCompatRange       = errors.New("compatibility level out of range")
	ErrFdInvalid         = errors.New("invalid file descriptor")
)
