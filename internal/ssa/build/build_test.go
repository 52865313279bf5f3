package build

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"njit/internal/ssa"
	"njit/internal/ssa/types"
)

func TestBuilderStraightLineFunction(t *testing.T) {
	b := NewFunctionBuilder("add_one", 1)
	x := b.Arg("x", types.Primitive(types.Int32))
	entry := b.Block()

	one := b.Constant(types.Primitive(types.Int32), int64(1))
	argIdx := b.Constant(types.Primitive(types.Uint32), int64(0))
	_, err := b.Def(entry, ssa.OpExtractArgument, x, types.Primitive(types.Int32), []ssa.Operand{ssa.ConstOperand(argIdx)})
	require.NoError(t, err)

	y := b.Variable("y", types.Primitive(types.Int32))
	_, err = b.Def(entry, ssa.OpAdd, y, types.Primitive(types.Int32),
		[]ssa.Operand{ssa.UseOperand(x), ssa.ConstOperand(one)})
	require.NoError(t, err)

	_, err = b.Append(entry, ssa.OpReturn, []ssa.Operand{ssa.UseOperand(y)})
	require.NoError(t, err)

	sf, err := b.Finish(entry)
	require.NoError(t, err)
	require.Len(t, sf.Blocks, 1)
	instrs := sf.Blocks[0].Instructions
	require.Len(t, instrs, 3)
	assert.Equal(t, ssa.OpReturn.Pretty(), instrs[2].Op)
}

func TestBuilderForkJoin(t *testing.T) {
	b := NewFunctionBuilder("abs", 1)
	cond := b.Block()
	thenB := b.Block()
	elseB := b.Block()
	after := b.Block()

	x := b.Arg("x", types.Primitive(types.Int32))
	zero := b.Constant(types.Primitive(types.Int32), int64(0))
	argIdx := b.Constant(types.Primitive(types.Uint32), int64(0))
	_, err := b.Def(cond, ssa.OpExtractArgument, x, types.Primitive(types.Int32), []ssa.Operand{ssa.ConstOperand(argIdx)})
	require.NoError(t, err)
	cmp := b.Variable("cmp", types.Primitive(types.Bool))
	_, err = b.Def(cond, ssa.OpLt, cmp, types.Primitive(types.Bool),
		[]ssa.Operand{ssa.UseOperand(x), ssa.ConstOperand(zero)})
	require.NoError(t, err)
	_, err = b.Append(cond, ssa.OpCondBranch, []ssa.Operand{ssa.UseOperand(cmp)})
	require.NoError(t, err)

	result := b.Variable("result", types.Primitive(types.Int32))
	_, err = b.Def(thenB, ssa.OpNeg, result, types.Primitive(types.Int32), []ssa.Operand{ssa.UseOperand(x)})
	require.NoError(t, err)
	_, err = b.Def(elseB, ssa.OpAssign, result, types.Primitive(types.Int32), []ssa.Operand{ssa.UseOperand(x)})
	require.NoError(t, err)
	_, err = b.Append(after, ssa.OpReturn, []ssa.Operand{ssa.UseOperand(result)})
	require.NoError(t, err)

	fork := b.Fork(cond, thenB, elseB)
	body := b.Sequence(fork, after)

	sf, err := b.Finish(body)
	require.NoError(t, err)

	var sawPhi bool
	for _, blk := range sf.Blocks {
		for _, instr := range blk.Instructions {
			if instr.Op == ssa.OpPhi.Pretty() {
				sawPhi = true
			}
		}
	}
	assert.True(t, sawPhi)
}

func TestBuilderRejectsArityMismatch(t *testing.T) {
	b := NewFunctionBuilder("bad", 1)
	blk := b.Block()
	x := b.Variable("x", types.Primitive(types.Int32))
	_, err := b.Def(blk, ssa.OpAdd, x, types.Primitive(types.Int32), []ssa.Operand{ssa.UseOperand(x)})
	require.Error(t, err)
	assert.ErrorIs(t, err, ssa.ErrMalformedInput)
}

func TestBuilderRejectsDoubleTerminator(t *testing.T) {
	b := NewFunctionBuilder("bad", 1)
	blk := b.Block()
	x := b.Variable("x", types.Primitive(types.Int32))
	_, err := b.Def(blk, ssa.OpAssign, x, types.Primitive(types.Int32), []ssa.Operand{ssa.UseOperand(x)})
	require.NoError(t, err)
	_, err = b.Append(blk, ssa.OpReturn, []ssa.Operand{ssa.UseOperand(x)})
	require.NoError(t, err)
	_, err = b.Append(blk, ssa.OpReturn, []ssa.Operand{ssa.UseOperand(x)})
	require.Error(t, err)
	assert.ErrorIs(t, err, ssa.ErrMalformedInput)
}
