package ssa

import (
	"github.com/pkg/errors"

	"njit/internal/ssa/types"
)

// Core-side half of the builder surface: the external parser hands in a
// structured tree in post-order through these primitives. They stay
// inside package ssa because constructing a Component or wiring a local
// def requires the same unexported invariants resolve.go and
// structure.go already enforce; the user-facing stateful builder
// (constant caching) lives one layer up in internal/ssa/build.

// NewBlock creates an empty structured-tree leaf.
func NewBlock() *Component { return newBlock() }

// NewSequence nests children in order.
func NewSequence(children ...*Component) *Component { return newSequence(children...) }

// NewFork nests a condition block and its case bodies.
func NewFork(cond *Component, cases ...*Component) *Component { return newFork(cond, cases...) }

// NewLoop nests a loop's four named subcomponents. All four are always
// present - an empty update block is legal - and the update's successor
// is unconditionally the condition, never the loop's exit.
func NewLoop(start, cond, body, update *Component) *Component {
	return newLoop(start, cond, body, update)
}

// checkAppendable enforces the two malformed-input conditions the
// builder owns: a block already holding a terminator may never receive
// another instruction, and an opcode's arity must agree with its fixed
// metadata.
func checkAppendable(block *Component, op Opcode, nOperands int) error {
	if block.Kind != CompBlock {
		panicInvariant("checkAppendable", "instructions only append to blocks")
	}
	if n := len(block.Instructions); n > 0 && block.Instructions[n-1].IsTerminator() {
		return errors.Wrapf(ErrMalformedInput, "block already terminated by %s, cannot append %s",
			block.Instructions[n-1].Op.Pretty(), op.Pretty())
	}
	if !op.CheckArity(nOperands) {
		return errors.Wrapf(ErrMalformedInput, "opcode %s expects %d operand(s), got %d",
			op.Pretty(), op.FixedOperandCount(), nOperands)
	}
	return nil
}

// AppendLocalDef appends a new has-def instruction for v to block,
// minting v's next def-id and wiring up its local UseTimeline in
// the same step, so the structured tree is never observed with a
// has-def instruction that lacks a matching timeline. t is the type
// this particular definition is observed with (the external parser's
// job, not the core's, to determine); it may differ from v's current
// type until a later φ meets them.
func AppendLocalDef(block *Component, op Opcode, v *Variable, t types.Type, operands []Operand, callTarget string) (*Instruction, error) {
	if !op.HasDef() {
		return nil, errors.Wrapf(ErrMalformedInput, "opcode %s does not produce a definition", op.Pretty())
	}
	if err := checkAppendable(block, op, len(operands)); err != nil {
		return nil, err
	}
	id, err := v.CreateDefID()
	if err != nil {
		return nil, err
	}
	appendLocalDef(block, v, id, t)
	instr := &Instruction{
		Op:         op,
		Def:        &Def{Var: v, ID: id, Type: t},
		Operands:   operands,
		Block:      block,
		CallTarget: callTarget,
	}
	block.Instructions = append(block.Instructions, instr)
	if err := v.SetType(types.Meet(v.Type(), t)); err != nil {
		return nil, err
	}
	return instr, nil
}

// AppendInstruction appends a no-def instruction (a terminator, a store,
// a check) to block.
func AppendInstruction(block *Component, op Opcode, operands []Operand, callTarget string) (*Instruction, error) {
	if op.HasDef() {
		return nil, errors.Wrapf(ErrMalformedInput, "opcode %s produces a definition, use AppendLocalDef", op.Pretty())
	}
	if err := checkAppendable(block, op, len(operands)); err != nil {
		return nil, err
	}
	instr := &Instruction{Op: op, Operands: operands, Block: block, CallTarget: callTarget}
	block.Instructions = append(block.Instructions, instr)
	return instr, nil
}
