// Package build is the SSA core's one external input surface: an
// external parser (here, internal/frontend/lower) drives a
// FunctionBuilder to create variables, create blocks, append
// instructions, nest sequences/forks/loops, and finalise one function
// at a time. The builder canonicalizes repeated (type, payload)
// constant literals within a function, so the same literal never
// produces two constant nodes.
package build

import (
	"njit/internal/ssa"
	"njit/internal/ssa/static"
	"njit/internal/ssa/types"
)

type constKey struct {
	typ     types.Type
	payload interface{}
}

// FunctionBuilder accumulates one function's structured tree before
// handing it to Finish, which flattens, resolves and lowers it in one
// step.
type FunctionBuilder struct {
	fn        *ssa.Function
	constants map[constKey]ssa.Constant
}

// NewFunctionBuilder starts a new function named name, identified by the
// opaque, caller-assigned processed id.
func NewFunctionBuilder(name string, id ssa.ProcessedID) *FunctionBuilder {
	return &FunctionBuilder{
		fn:        ssa.NewFunction(name, id),
		constants: make(map[constKey]ssa.Constant),
	}
}

// Variable creates a variable owned by the function under construction,
// in first-reference order.
func (b *FunctionBuilder) Variable(name string, t types.Type) *ssa.Variable {
	return b.fn.NewVariable(name, t)
}

// Arg declares one of the function's formal parameters: a variable whose
// first definition comes from extract_argument, appended by the caller
// the same way any other local def would be.
func (b *FunctionBuilder) Arg(name string, t types.Type) *ssa.Variable {
	v := b.fn.NewVariable(name, t)
	b.fn.Args = append(b.fn.Args, v)
	return v
}

// Constant returns the canonical Constant for (t, payload) within this
// function, minting and caching one on first sight.
func (b *FunctionBuilder) Constant(t types.Type, payload interface{}) ssa.Constant {
	key := constKey{t, payload}
	if c, ok := b.constants[key]; ok {
		return c
	}
	c := ssa.Constant{Type: t, Payload: payload}
	b.constants[key] = c
	return c
}

// Block creates a new, empty structured-tree leaf.
func (b *FunctionBuilder) Block() *ssa.Component { return ssa.NewBlock() }

// Sequence nests children in order.
func (b *FunctionBuilder) Sequence(children ...*ssa.Component) *ssa.Component {
	return ssa.NewSequence(children...)
}

// Fork nests a condition block and its case bodies.
func (b *FunctionBuilder) Fork(cond *ssa.Component, cases ...*ssa.Component) *ssa.Component {
	return ssa.NewFork(cond, cases...)
}

// Loop nests a loop's four named subcomponents.
func (b *FunctionBuilder) Loop(start, cond, body, update *ssa.Component) *ssa.Component {
	return ssa.NewLoop(start, cond, body, update)
}

// Def appends a has-def instruction for v to block.
func (b *FunctionBuilder) Def(block *ssa.Component, op ssa.Opcode, v *ssa.Variable, t types.Type, operands []ssa.Operand) (*ssa.Instruction, error) {
	return ssa.AppendLocalDef(block, op, v, t, operands, "")
}

// Call appends a has-def call instruction, recording its opaque target.
func (b *FunctionBuilder) Call(block *ssa.Component, v *ssa.Variable, t types.Type, target string, operands []ssa.Operand) (*ssa.Instruction, error) {
	return ssa.AppendLocalDef(block, ssa.OpCall, v, t, operands, target)
}

// Append appends a no-def instruction (terminator, store_argument,
// error_check) to block.
func (b *FunctionBuilder) Append(block *ssa.Component, op ssa.Opcode, operands []ssa.Operand) (*ssa.Instruction, error) {
	return ssa.AppendInstruction(block, op, operands, "")
}

// Finish attaches body as the function's root, runs the one mandatory
// identity transform (RecursiveFlatten), resolves every use, and lowers
// the result to its immutable static form. The whole tree - every
// block, every local definition - must already be in place before this
// is called; there is no partial/incremental variant.
func (b *FunctionBuilder) Finish(body *ssa.Component) (*static.Function, error) {
	b.fn.SetBody(body)
	ssa.RecursiveFlatten(b.fn.Body)
	if err := ssa.Resolve(b.fn); err != nil {
		return nil, err
	}
	return ssa.Lower(b.fn), nil
}
