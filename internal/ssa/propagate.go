package ssa

import "njit/internal/ssa/types"

// Def propagation. When the resolver commits a block's outgoing
// timeline for a variable, a join downstream of that block may already
// hold a phi with a pending operand waiting on exactly this commitment:
// the operand was created while the block was still mid-resolution (a
// loop back-edge led the descent into it a second time), so no def-id
// existed to give it at phi-insertion time.
//
// broadcastResolved performs a structural forward traversal: starting
// at the committed block's successors, it forwards across blocks that
// do not carry a timeline for v, and stops along any
// path at the first block that does - a local definition or a committed
// incoming join shadows everything behind it. At each stopping block
// whose incoming is a join, the phi's operands still pending on `from`
// are patched in place with the committed def-id.
func (r *resolver) broadcastResolved(from *Component, v *Variable, fresh *UseTimeline) error {
	visited := make(map[*Component]bool)
	var err error
	var walk func(c *Component)
	walk = func(c *Component) {
		if err != nil || visited[c] {
			return
		}
		visited[c] = true
		dt, ok := c.Timelines[v.ID()]
		if !ok || !dt.HasOutgoingTimeline() {
			for _, s := range Successors(c) {
				walk(s)
			}
			return
		}
		if dt.Incoming != nil && dt.Incoming.Phi != nil {
			err = r.patchPending(dt.Incoming, from, v, fresh)
		}
	}
	for _, s := range Successors(from) {
		walk(s)
	}
	return err
}

// patchPending rewrites every operand of join's phi still pending on
// `from` to the committed def, folding the committed type into the phi's
// meet the same way join does for an immediately-known contribution.
func (r *resolver) patchPending(join *UseTimeline, from *Component, v *Variable, fresh *UseTimeline) error {
	instr := join.Phi
	for i := range instr.Operands {
		op := &instr.Operands[i]
		if op.pendingOn != from {
			continue
		}
		op.Def = fresh.Def
		op.pendingOn = nil

		if fresh.Sentinel {
			continue
		}
		if instr.Def.Type.IsVoid() {
			instr.Def.Type = fresh.Type
			join.Type = fresh.Type
			continue
		}
		m := types.Meet(instr.Def.Type, fresh.Type)
		if m.IsVoid() {
			return &TypeMeetError{
				Variable: v.Name(),
				Site:     "phi patched across a loop back-edge",
				Left:     instr.Def.Type.String(),
				Right:    fresh.Type.String(),
			}
		}
		instr.Def.Type = m
		join.Type = m
		if err := v.SetType(types.Meet(v.Type(), m)); err != nil {
			return err
		}
	}
	return nil
}
