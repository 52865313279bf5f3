package ssa

import (
	"fmt"
	"sort"

	"njit/internal/ssa/static"
)

// Static lowering: a single top-down walk of an already-resolved
// structured tree. It assigns every block a dense, entry-preorder
// BlockId, renumbers every variable's def-ids densely in the order they
// are encountered walking blocks in that same order, reorders each phi's
// operands by its contributing predecessors' final BlockId ascending
// (keeping the output stable across runs for identical input trees) and
// injects an explicit terminator into any block that fell off the end
// of a structural construct without one, since a flat block array has
// no structure left to imply where control goes next.
//
// Lower assumes RecursiveFlatten(fn.Body) and Resolve(fn) have already
// run to completion; it performs no resolution itself.
func Lower(fn *Function) *static.Function {
	blocks := collectBlocks(fn.Body)
	blockID := make(map[*Component]static.BlockID, len(blocks))
	for i, b := range blocks {
		blockID[b] = static.BlockID(i)
	}

	remap := newDefRemap()
	for _, b := range blocks {
		for _, instr := range b.Instructions {
			if instr.Def != nil {
				remap.assign(instr.Def.Var, instr.Def.ID)
			}
		}
	}
	// A sentinel def-id is never the Def of any instruction - nothing
	// defines it - but it is still referenced as a phi operand, so it
	// still needs a static slot of its own.
	for _, v := range fn.Variables() {
		if v.sentinelTimeline != nil {
			remap.assign(v, v.sentinelTimeline.Def)
		}
	}

	vars := fn.Variables()
	staticVars := make([]static.Variable, len(vars))
	for i, v := range vars {
		staticVars[i] = static.Variable{
			Name:    v.Name(),
			Type:    v.Type(),
			NumDefs: uint32(remap.count(v)),
		}
	}

	staticBlocks := make([]static.Block, len(blocks))
	for i, b := range blocks {
		staticBlocks[i] = lowerBlock(b, blockID, remap)
	}

	return &static.Function{
		Name:      fn.Name,
		ID:        uint64(fn.ID),
		Variables: staticVars,
		Blocks:    staticBlocks,
	}
}

// collectBlocks walks c in the same entry-preorder every structural
// algorithm in this package uses (see resolver.walk in resolve.go),
// preallocated via BlockCount so it never reallocates mid-walk.
func collectBlocks(c *Component) []*Component {
	out := make([]*Component, 0, BlockCount(c))
	var walk func(c *Component)
	walk = func(c *Component) {
		switch c.Kind {
		case CompBlock:
			out = append(out, c)
		case CompSequence:
			for _, ch := range c.Children {
				walk(ch)
			}
		case CompFork:
			walk(c.Cond)
			for _, cs := range c.Cases {
				walk(cs)
			}
		case CompLoop:
			walk(c.Start)
			walk(c.Cond)
			walk(c.Body)
			walk(c.Update)
		case CompFunction:
			walk(c.Fn.Body)
		default:
			panicInvariant("collectBlocks", "unknown component kind")
		}
	}
	walk(c)
	return out
}

// defRemap renumbers each variable's dynamic, creation-order DefIDs into
// dense, zero-based static ids in first-encountered order during the
// lowering walk.
type defRemap struct {
	perVar map[VarID]map[DefID]static.DefID
}

func newDefRemap() *defRemap {
	return &defRemap{perVar: make(map[VarID]map[DefID]static.DefID)}
}

func (r *defRemap) assign(v *Variable, dyn DefID) static.DefID {
	m, ok := r.perVar[v.ID()]
	if !ok {
		m = make(map[DefID]static.DefID)
		r.perVar[v.ID()] = m
	}
	if id, ok := m[dyn]; ok {
		return id
	}
	id := static.DefID(len(m))
	m[dyn] = id
	return id
}

func (r *defRemap) get(v *Variable, dyn DefID) static.DefID {
	if m, ok := r.perVar[v.ID()]; ok {
		if id, ok := m[dyn]; ok {
			return id
		}
	}
	panicInvariant("defRemap.get", "use of "+v.Name()+" was never assigned a static def-id during lowering")
	return 0
}

func (r *defRemap) count(v *Variable) int {
	return len(r.perVar[v.ID()])
}

func lowerBlock(block *Component, blockID map[*Component]static.BlockID, remap *defRemap) static.Block {
	id := blockID[block]
	out := static.Block{ID: id, Name: fmt.Sprintf("BLOCK%d", id)}

	for _, instr := range block.Instructions {
		out.Instructions = append(out.Instructions, lowerInstruction(instr, blockID, remap))
	}

	last := -1
	if n := len(block.Instructions); n > 0 && block.Instructions[n-1].IsTerminator() {
		last = n - 1
	}

	succs := Successors(block)
	targets := make([]static.BlockID, len(succs))
	for i, s := range succs {
		targets[i] = blockID[s]
	}

	if last >= 0 {
		out.Instructions[last].Targets = targets
		return out
	}

	switch len(targets) {
	case 0:
		out.Instructions = append(out.Instructions, static.Instruction{Op: OpReturn.Pretty()})
	case 1:
		out.Instructions = append(out.Instructions, static.Instruction{Op: OpBranch.Pretty(), Targets: targets})
	default:
		// Several successors and no terminator (an unterminated fork or
		// loop condition): inject a cond_branch over all of them. It
		// carries no condition operand.
		out.Instructions = append(out.Instructions, static.Instruction{Op: OpCondBranch.Pretty(), Targets: targets})
	}
	return out
}

func lowerInstruction(instr *Instruction, blockID map[*Component]static.BlockID, remap *defRemap) static.Instruction {
	operands := instr.Operands
	if instr.Op == OpPhi {
		operands = append([]Operand(nil), operands...)
		sort.SliceStable(operands, func(i, j int) bool {
			return blockID[operands[i].SourceBlock] < blockID[operands[j].SourceBlock]
		})
	}

	out := static.Instruction{
		Op:         instr.Op.Pretty(),
		CallTarget: instr.CallTarget,
	}
	if instr.Def != nil {
		out.Def = &static.Def{
			Var:  static.VarID(instr.Def.Var.ID()),
			ID:   remap.get(instr.Def.Var, instr.Def.ID),
			Type: instr.Def.Type,
		}
	}
	for _, op := range operands {
		out.Operands = append(out.Operands, lowerOperand(op, remap))
	}
	return out
}

func lowerOperand(op Operand, remap *defRemap) static.Operand {
	if op.IsConst {
		return static.Operand{
			IsConst: true,
			Const:   static.Const{Type: op.Const.Type, Payload: op.Const.Payload},
		}
	}
	sentinel := op.Var.sentinelTimeline != nil && op.Var.sentinelTimeline.Def == op.Def
	return static.Operand{
		Var:      static.VarID(op.Var.ID()),
		Def:      remap.get(op.Var, op.Def),
		Sentinel: sentinel,
	}
}
