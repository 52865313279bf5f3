// Package ssa implements the SSA construction core: structured control
// flow, def-timelines, the two-phase def-resolution engine, the
// def-propagator and the lowering to static form.
package ssa

import (
	"github.com/pkg/errors"

	"njit/internal/ssa/types"
)

// DefID identifies one definition of a Variable, dense and zero-based
// within that variable's own numbering.
type DefID uint32

// VarID identifies a Variable within its owning Function, stable across
// the whole compile of that function.
type VarID uint32

// Variable is a named, monotonically-versioned storage location. A
// Variable is owned by exactly one Function and is created on first
// reference from that function and destroyed with it.
type Variable struct {
	id      VarID
	name    string
	typ     types.Type
	nextDef DefID
	fn      *Function

	// sentinelTimeline caches this variable's one uninitialised-sentinel
	// use-timeline, lazily created on first need and reused for every
	// subsequent unresolved path of v.
	sentinelTimeline *UseTimeline
}

func newVariable(fn *Function, id VarID, name string, t types.Type) *Variable {
	return &Variable{id: id, name: name, typ: t, fn: fn}
}

func (v *Variable) ID() VarID          { return v.id }
func (v *Variable) Name() string       { return v.name }
func (v *Variable) Type() types.Type   { return v.typ }
func (v *Variable) NumDefs() DefID     { return v.nextDef }
func (v *Variable) Function() *Function { return v.fn }

// CreateDefID hands out a fresh definition id and advances the counter.
// It is the only way a new def-id for v comes into existence.
func (v *Variable) CreateDefID() (DefID, error) {
	if v.nextDef == ^DefID(0) {
		return 0, errors.Wrapf(ErrCapacityExhausted, "variable %q exhausted its def-id counter", v.name)
	}
	id := v.nextDef
	v.nextDef++
	return id, nil
}

// SetType requires t to be non-void; callers that want to widen an
// existing type under an observation use SetType(types.Meet(cur, observed))
// and must surface types.Meet returning void as a TypeMeetFailure
// themselves (SetType only enforces the non-void postcondition).
func (v *Variable) SetType(t types.Type) error {
	if t.IsVoid() {
		return errors.Wrapf(ErrTypeMeetFailure, "variable %q: refusing to widen to void", v.name)
	}
	v.typ = t
	return nil
}

// Constant is a (type, payload) pair. Constants are value-equal by their
// contents and never participate in SSA def-id numbering.
type Constant struct {
	Type    types.Type
	Payload interface{}
}

func (c Constant) Equal(o Constant) bool {
	return c.Type.Equal(o.Type) && c.Payload == o.Payload
}
