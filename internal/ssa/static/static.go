// Package static holds the immutable, lowered form of a resolved
// function: dense variables and blocks, renumbered def-ids, explicit
// terminators, deterministic φ-operand order. It is the only form the
// rest of a compile session (code generator, printer, interpreter)
// should ever need to look at; nothing here still points back into the
// mutable ssa package's Component tree.
package static

import (
	"fmt"
	"strings"

	"njit/internal/ssa/types"
)

// BlockID is a function-local, dense, entry-preorder block identifier.
type BlockID uint32

// VarID mirrors ssa.VarID: dense, first-observation order within a function.
type VarID uint32

// DefID is a per-variable, dense, zero-based definition id, renumbered in
// final instruction-visitation order (may differ from the dynamic core's
// creation-order DefID, e.g. when a φ inserted early in the tree was
// created later in wall-clock time than a local def it dominates).
type DefID uint32

// Variable is one function-local variable's static summary.
type Variable struct {
	Name    string
	Type    types.Type
	NumDefs uint32
}

// Operand is a constant or a renumbered (variable, def) use. Sentinel
// marks a use that never observed a real definition on any control path;
// each variable carries its own uninitialised-sentinel def-id.
type Operand struct {
	IsConst bool
	Const   Const

	Var      VarID
	Def      DefID
	Sentinel bool
}

// Const is a (type, payload) literal, carried through from the dynamic core.
type Const struct {
	Type    types.Type
	Payload interface{}
}

// Def is the single definition an instruction produces, if any.
type Def struct {
	Var  VarID
	ID   DefID
	Type types.Type
}

// Instruction is one static, ordered entry in a Block. Targets is
// populated only on terminators, with the jump target(s) implied by the
// dynamic core's structural successors; it is the one piece of
// information the structured tree carried implicitly that a flat,
// structure-free block array needs spelled out explicitly.
type Instruction struct {
	Op         string // Opcode.Pretty() from the dynamic core
	Def        *Def
	Operands   []Operand
	CallTarget string
	Targets    []BlockID
}

// Block is a dense, id-addressed basic block: straight-line code with an
// explicit terminator as its last instruction. Name is a derived
// display label (BLOCK<id>), never used for identity.
type Block struct {
	ID           BlockID
	Name         string
	Instructions []Instruction
}

// Function is the immutable lowered form of one resolved ssa.Function.
type Function struct {
	Name      string
	ID        uint64
	Variables []Variable
	Blocks    []Block
}

// Print renders fn deterministically: blocks in id order, `name.defid`
// use syntax, constants via the type lattice's printer.
func Print(fn *Function) string {
	var b strings.Builder
	fmt.Fprintf(&b, "function %s {\n", fn.Name)
	for i, v := range fn.Variables {
		fmt.Fprintf(&b, "  var %d: %s %s (%d defs)\n", i, v.Name, v.Type.String(), v.NumDefs)
	}
	for _, blk := range fn.Blocks {
		fmt.Fprintf(&b, "  %s:\n", blk.Name)
		for _, instr := range blk.Instructions {
			b.WriteString("    ")
			if instr.Def != nil {
				fmt.Fprintf(&b, "%s.%d = ", fn.Variables[instr.Def.Var].Name, instr.Def.ID)
			}
			b.WriteString(instr.Op)
			if len(instr.Operands) > 0 {
				b.WriteString(" ")
				parts := make([]string, len(instr.Operands))
				for i, op := range instr.Operands {
					parts[i] = printOperand(fn, op)
				}
				b.WriteString(strings.Join(parts, ", "))
			}
			if instr.CallTarget != "" {
				fmt.Fprintf(&b, " -> %s", instr.CallTarget)
			}
			if len(instr.Targets) > 0 {
				targets := make([]string, len(instr.Targets))
				for i, t := range instr.Targets {
					targets[i] = fn.Blocks[t].Name
				}
				fmt.Fprintf(&b, " [%s]", strings.Join(targets, ", "))
			}
			b.WriteString("\n")
		}
	}
	b.WriteString("}\n")
	return b.String()
}

func printOperand(fn *Function, op Operand) string {
	if op.IsConst {
		return fmt.Sprintf("%v:%s", op.Const.Payload, op.Const.Type.String())
	}
	if op.Sentinel {
		return fmt.Sprintf("%s.uninit", fn.Variables[op.Var].Name)
	}
	return fmt.Sprintf("%s.%d", fn.Variables[op.Var].Name, op.Def)
}
