package ssa

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"njit/internal/ssa/static"
	"njit/internal/ssa/types"
)

func TestLowerStraightLineInjectsNoTerminatorWhenOneAlreadyPresent(t *testing.T) {
	fn := NewFunction("f", 1)
	b := newBlock()
	fn.SetBody(b)

	v := fn.NewVariable("x", types.Primitive(types.Int32))
	defIn(t, fn, b, v, types.Primitive(types.Int32), OpAssign)
	useIn(b, OpReturn, UseOperand(v))

	require.NoError(t, Resolve(fn))
	sf := Lower(fn)

	require.Len(t, sf.Blocks, 1)
	instrs := sf.Blocks[0].Instructions
	require.Len(t, instrs, 2)
	assert.Equal(t, OpReturn.Pretty(), instrs[1].Op)
	assert.Empty(t, instrs[1].Targets)
}

func TestLowerInjectsReturnForFallThroughBlock(t *testing.T) {
	fn := NewFunction("f", 1)
	b := newBlock()
	fn.SetBody(b)

	v := fn.NewVariable("x", types.Primitive(types.Int32))
	defIn(t, fn, b, v, types.Primitive(types.Int32), OpAssign)

	require.NoError(t, Resolve(fn))
	sf := Lower(fn)

	instrs := sf.Blocks[0].Instructions
	last := instrs[len(instrs)-1]
	assert.Equal(t, OpReturn.Pretty(), last.Op)
	assert.Empty(t, last.Targets)
}

func TestLowerInjectsBranchForSingleSuccessorFallThrough(t *testing.T) {
	fn := NewFunction("f", 1)
	first := newBlock()
	second := newBlock()
	body := newSequence(first, second)
	fn.SetBody(body)

	v := fn.NewVariable("x", types.Primitive(types.Int32))
	defIn(t, fn, first, v, types.Primitive(types.Int32), OpAssign)
	useIn(second, OpReturn, UseOperand(v))

	require.NoError(t, Resolve(fn))
	sf := Lower(fn)

	firstInstrs := sf.Blocks[0].Instructions
	last := firstInstrs[len(firstInstrs)-1]
	assert.Equal(t, OpBranch.Pretty(), last.Op)
	require.Len(t, last.Targets, 1)
	assert.Equal(t, sf.Blocks[1].ID, last.Targets[0])
}

func TestLowerOrdersPhiOperandsByAscendingBlockID(t *testing.T) {
	fn := NewFunction("f", 1)
	entry := newBlock()
	thenB := newBlock()
	elseB := newBlock()
	after := newBlock()
	fork := newFork(entry, thenB, elseB)
	body := newSequence(fork, after)
	fn.SetBody(body)

	v := fn.NewVariable("x", types.Primitive(types.Int32))
	defIn(t, fn, thenB, v, types.Primitive(types.Int32), OpAssign)
	defIn(t, fn, elseB, v, types.Primitive(types.Int32), OpAssign)
	useIn(after, OpReturn, UseOperand(v))

	require.NoError(t, Resolve(fn))
	sf := Lower(fn)

	var phiBlock *static.Block
	for i := range sf.Blocks {
		for _, instr := range sf.Blocks[i].Instructions {
			if instr.Op == OpPhi.Pretty() {
				phiBlock = &sf.Blocks[i]
			}
		}
	}
	require.NotNil(t, phiBlock)
	phi := phiBlock.Instructions[0]
	require.Len(t, phi.Operands, 2)

	// thenB is visited before elseB in entry-preorder (newFork's Cases
	// order), so it gets the lower static BlockID and its def the lower
	// static DefID; the phi's operands must be ordered to match.
	assert.Equal(t, static.DefID(0), phi.Operands[0].Def)
	assert.Equal(t, static.DefID(1), phi.Operands[1].Def)
}

func TestLowerDefIDsDenseAndUsesInRange(t *testing.T) {
	// Fork inside a loop body: the richest join shape - two structural
	// phis under one variable, one of them patched across the back edge.
	fn := NewFunction("f", 1)
	start := newBlock()
	cond := newBlock()
	fcond := newBlock()
	armA := newBlock()
	armB := newBlock()
	update := newBlock()
	fork := newFork(fcond, armA, armB)
	loop := newLoop(start, cond, fork, update)
	fn.SetBody(loop)

	v := fn.NewVariable("v", types.Primitive(types.Int32))
	defIn(t, fn, start, v, types.Primitive(types.Int32), OpAssign)
	useIn(cond, OpLt, UseOperand(v), ConstOperand(Constant{Type: types.Primitive(types.Int32), Payload: int64(10)}))
	defIn(t, fn, armA, v, types.Primitive(types.Int32), OpAssign)

	require.NoError(t, Resolve(fn))
	sf := Lower(fn)

	// Every def-id assigned under a variable is {0..num_defs-1}, no
	// duplicates; every use operand stays in range.
	seen := make(map[static.VarID]map[static.DefID]bool)
	for _, blk := range sf.Blocks {
		for _, instr := range blk.Instructions {
			if instr.Def != nil {
				m := seen[instr.Def.Var]
				if m == nil {
					m = make(map[static.DefID]bool)
					seen[instr.Def.Var] = m
				}
				assert.False(t, m[instr.Def.ID], "duplicate def id %d", instr.Def.ID)
				m[instr.Def.ID] = true
			}
			for _, op := range instr.Operands {
				if op.IsConst {
					continue
				}
				assert.Less(t, uint32(op.Def), sf.Variables[op.Var].NumDefs)
			}
		}
	}
	for varID, defs := range seen {
		for id := range defs {
			assert.Less(t, uint32(id), sf.Variables[varID].NumDefs)
		}
	}
}

func TestLowerMarksSentinelOperand(t *testing.T) {
	fn := NewFunction("f", 1)
	entry := newBlock()
	thenB := newBlock()
	elseB := newBlock()
	after := newBlock()
	fork := newFork(entry, thenB, elseB)
	body := newSequence(fork, after)
	fn.SetBody(body)

	// v is defined on the then-branch only; the else-branch and entry
	// never define it, so the join fabricates a sentinel for the missing
	// path rather than failing outright.
	v := fn.NewVariable("v", types.Primitive(types.Int32))
	defIn(t, fn, thenB, v, types.Primitive(types.Int32), OpAssign)
	useIn(after, OpReturn, UseOperand(v))

	require.NoError(t, Resolve(fn))
	sf := Lower(fn)

	var phi *static.Instruction
	for i := range sf.Blocks {
		for j := range sf.Blocks[i].Instructions {
			if sf.Blocks[i].Instructions[j].Op == OpPhi.Pretty() {
				phi = &sf.Blocks[i].Instructions[j]
			}
		}
	}
	require.NotNil(t, phi)
	require.Len(t, phi.Operands, 2)

	sentinelCount := 0
	for _, op := range phi.Operands {
		if op.Sentinel {
			sentinelCount++
		}
	}
	assert.Equal(t, 1, sentinelCount)
	assert.Contains(t, static.Print(sf), "v.uninit")
}
