// Package lower bridges the textual front end into the SSA core: it
// walks a parsed syntax.Program and drives internal/ssa/build's
// FunctionBuilder to construct, resolve and lower each function,
// entirely outside the core's package boundary (internal/ssa/... never
// imports this or internal/frontend/syntax).
package lower

import (
	"fmt"

	"github.com/pkg/errors"

	"njit/internal/frontend/syntax"
	"njit/internal/ssa"
	"njit/internal/ssa/build"
	"njit/internal/ssa/static"
	"njit/internal/ssa/types"
)

var opcodeByName = map[string]ssa.Opcode{
	"assign":           ssa.OpAssign,
	"phi":              ssa.OpPhi,
	"call":             ssa.OpCall,
	"return":           ssa.OpReturn,
	"branch":           ssa.OpBranch,
	"cond_branch":      ssa.OpCondBranch,
	"add":              ssa.OpAdd,
	"sub":              ssa.OpSub,
	"mul":              ssa.OpMul,
	"div":              ssa.OpDiv,
	"mod":              ssa.OpMod,
	"rem":              ssa.OpRem,
	"neg":              ssa.OpNeg,
	"eq":               ssa.OpEq,
	"ne":               ssa.OpNe,
	"lt":               ssa.OpLt,
	"le":               ssa.OpLe,
	"gt":               ssa.OpGt,
	"ge":               ssa.OpGe,
	"band":             ssa.OpBAnd,
	"bor":              ssa.OpBOr,
	"bxor":             ssa.OpBXor,
	"bnot":             ssa.OpBNot,
	"bshiftl":          ssa.OpBShiftL,
	"bashiftr":         ssa.OpBAShiftR,
	"blshiftr":         ssa.OpBLShiftR,
	"magic_end":        ssa.OpMagicEnd,
	"extract_argument": ssa.OpExtractArgument,
	"store_argument":   ssa.OpStoreArgument,
	"error_check":      ssa.OpErrorCheck,
}

var typeByName = map[string]types.Type{
	"bool":   types.Primitive(types.Bool),
	"char8":  types.Primitive(types.Char8),
	"char16": types.Primitive(types.Char16),
	"i8":     types.Primitive(types.Int8),
	"i16":    types.Primitive(types.Int16),
	"i32":    types.Primitive(types.Int32),
	"i64":    types.Primitive(types.Int64),
	"u8":     types.Primitive(types.Uint8),
	"u16":    types.Primitive(types.Uint16),
	"u32":    types.Primitive(types.Uint32),
	"u64":    types.Primitive(types.Uint64),
	"f32":    types.Primitive(types.Float32),
	"f64":    types.Primitive(types.Float64),
	"any":    types.Primitive(types.Any),
}

// Lower builds, resolves and lowers every function in prog, returning
// one static.Function per source function in declaration order.
func Lower(prog *syntax.Program) ([]*static.Function, error) {
	out := make([]*static.Function, 0, len(prog.Functions))
	for i, fn := range prog.Functions {
		sf, err := LowerFunction(fn, ssa.ProcessedID(i+1))
		if err != nil {
			return nil, errors.Wrapf(err, "function %q", fn.Name)
		}
		out = append(out, sf)
	}
	return out, nil
}

// LowerFunction builds, resolves and lowers a single parsed function,
// identified by the caller-assigned id. Exported separately from Lower
// so a compile session (internal/session) can drive one goroutine per
// function instead of the sequential loop Lower runs.
func LowerFunction(fn *syntax.Function, id ssa.ProcessedID) (*static.Function, error) {
	return lowerFunction(fn, id)
}

// funcCtx tracks the one piece of state the textual notation needs that
// the builder API itself does not: a bare name's binding to the
// ssa.Variable it was first declared with.
type funcCtx struct {
	b    *build.FunctionBuilder
	vars map[string]*ssa.Variable
}

func (c *funcCtx) variable(name string, t types.Type) *ssa.Variable {
	if v, ok := c.vars[name]; ok {
		return v
	}
	v := c.b.Variable(name, t)
	c.vars[name] = v
	return v
}

func lowerFunction(fn *syntax.Function, id ssa.ProcessedID) (*static.Function, error) {
	b := build.NewFunctionBuilder(fn.Name, id)
	ctx := &funcCtx{b: b, vars: make(map[string]*ssa.Variable)}

	args := make([]*ssa.Variable, 0, len(fn.Params))
	for _, p := range fn.Params {
		t, ok := typeByName[p.Type]
		if !ok {
			return nil, fmt.Errorf("unknown type %q for parameter %q", p.Type, p.Name)
		}
		v := ctx.b.Arg(p.Name, t)
		ctx.vars[p.Name] = v
		args = append(args, v)
	}

	root, err := ctx.component(fn.Body)
	if err != nil {
		return nil, err
	}
	if len(args) > 0 {
		// Each parameter's first definition is an extract_argument in an
		// entry block placed ahead of the body.
		entry := ctx.b.Block()
		for i, v := range args {
			idx := ctx.b.Constant(types.Primitive(types.Uint32), int64(i))
			if _, err := ctx.b.Def(entry, ssa.OpExtractArgument, v, v.Type(), []ssa.Operand{ssa.ConstOperand(idx)}); err != nil {
				return nil, err
			}
		}
		root = ctx.b.Sequence(entry, root)
	}
	return ctx.b.Finish(root)
}

func (c *funcCtx) component(comp *syntax.Component) (*ssa.Component, error) {
	switch {
	case comp.Block != nil:
		return c.block(comp.Block)
	case comp.Sequence != nil:
		children := make([]*ssa.Component, 0, len(comp.Sequence.Components))
		for _, ch := range comp.Sequence.Components {
			cc, err := c.component(ch)
			if err != nil {
				return nil, err
			}
			children = append(children, cc)
		}
		return c.b.Sequence(children...), nil
	case comp.Fork != nil:
		cond, err := c.block(comp.Fork.Cond)
		if err != nil {
			return nil, err
		}
		cases := make([]*ssa.Component, 0, len(comp.Fork.Cases))
		for _, cs := range comp.Fork.Cases {
			cc, err := c.component(cs.Body)
			if err != nil {
				return nil, err
			}
			cases = append(cases, cc)
		}
		return c.b.Fork(cond, cases...), nil
	case comp.Loop != nil:
		start, err := c.block(comp.Loop.Start)
		if err != nil {
			return nil, err
		}
		cond, err := c.block(comp.Loop.Cond)
		if err != nil {
			return nil, err
		}
		body, err := c.block(comp.Loop.Body)
		if err != nil {
			return nil, err
		}
		update, err := c.block(comp.Loop.Update)
		if err != nil {
			return nil, err
		}
		return c.b.Loop(start, cond, body, update), nil
	}
	return nil, fmt.Errorf("empty component in parsed tree")
}

func (c *funcCtx) block(blk *syntax.Block) (*ssa.Component, error) {
	block := c.b.Block()
	for _, st := range blk.Stmts {
		if err := c.statement(block, st); err != nil {
			return nil, err
		}
	}
	return block, nil
}

func (c *funcCtx) statement(block *ssa.Component, st *syntax.Statement) error {
	op, ok := opcodeByName[st.Op]
	if !ok {
		return fmt.Errorf("unknown opcode %q", st.Op)
	}

	operands := make([]ssa.Operand, 0, len(st.Operands))
	for _, o := range st.Operands {
		operand, err := c.operand(o)
		if err != nil {
			return err
		}
		operands = append(operands, operand)
	}

	if st.Def != nil {
		t, ok := typeByName[st.Def.Type]
		if !ok {
			return fmt.Errorf("unknown type %q", st.Def.Type)
		}
		v := c.variable(st.Def.Name, t)
		if op == ssa.OpCall {
			_, err := c.b.Call(block, v, t, st.Target, operands)
			return err
		}
		_, err := c.b.Def(block, op, v, t, operands)
		return err
	}

	_, err := c.b.Append(block, op, operands)
	return err
}

func (c *funcCtx) operand(o *syntax.Operand) (ssa.Operand, error) {
	if o.Const != nil {
		t := types.Primitive(types.Int32)
		hasType := o.Const.Type != ""
		if hasType {
			tt, ok := typeByName[o.Const.Type]
			if !ok {
				return ssa.Operand{}, fmt.Errorf("unknown type %q", o.Const.Type)
			}
			t = tt
		}

		var payload interface{}
		switch {
		case o.Const.Float != nil:
			payload = *o.Const.Float
			if !hasType {
				t = types.Primitive(types.Float64)
			}
		case o.Const.Int != nil:
			payload = *o.Const.Int
		}
		return ssa.ConstOperand(c.b.Constant(t, payload)), nil
	}

	v, ok := c.vars[o.Var]
	if !ok {
		return ssa.Operand{}, fmt.Errorf("use of undeclared variable %q", o.Var)
	}
	return ssa.UseOperand(v), nil
}
