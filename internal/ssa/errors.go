package ssa

import "github.com/pkg/errors"

// Error taxonomy. MalformedInput, UnresolvedUse, TypeMeetFailure and
// CapacityExhaustion are typed failures returned at the function-compile
// boundary. StructuralInvariant is not a returned error: it is raised via
// panic(StructuralInvariant{...}) because it denotes a configuration the
// core itself should never be able to produce on well-formed input, and
// is never meant to be caught and ignored inside the core.
var (
	ErrMalformedInput    = errors.New("malformed input")
	ErrUnresolvedUse     = errors.New("unresolved use: no reaching definition")
	ErrTypeMeetFailure   = errors.New("type meet failure")
	ErrCapacityExhausted = errors.New("capacity exhausted")
)

// StructuralInvariant is panicked when an inspector or mutator finds an
// impossible configuration (e.g. an empty Sequence). It is deliberately
// not a normal `error` so it cannot be silently swallowed by a caller
// that only checks returned errors.
type StructuralInvariant struct {
	Where string
	Why   string
}

func (s StructuralInvariant) Error() string {
	return "structural invariant violated in " + s.Where + ": " + s.Why
}

func panicInvariant(where, why string) {
	panic(StructuralInvariant{Where: where, Why: why})
}

// UnresolvedUseError carries the variable name for an unresolved-use
// failure.
type UnresolvedUseError struct {
	Variable string
}

func (e *UnresolvedUseError) Error() string {
	return "unresolved use of variable " + e.Variable
}

func (e *UnresolvedUseError) Unwrap() error { return ErrUnresolvedUse }

// TypeMeetError carries both contributing types and the site for a
// type-meet failure.
type TypeMeetError struct {
	Variable string
	Site     string
	Left     string
	Right    string
}

func (e *TypeMeetError) Error() string {
	return "type meet failure for " + e.Variable + " at " + e.Site + ": " + e.Left + " ∧ " + e.Right + " = void"
}

func (e *TypeMeetError) Unwrap() error { return ErrTypeMeetFailure }
