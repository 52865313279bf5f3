package ssa

import "njit/internal/ssa/types"

// UseRef pins one operand slot so the resolution engine can write its
// resolved (Var, DefID) back in place once the owning timeline is known.
type UseRef struct {
	Instr *Instruction
	Index int
}

// UseTimeline is the ordered list of uses that observe one specific
// definition within one block: either a local definition, or (when it
// represents a join) the synthesized definition of a φ.
type UseTimeline struct {
	Def      DefID
	Sentinel bool // true iff this is a variable's uninitialised-sentinel timeline

	// Type is the type this definition was observed with: the operand
	// type for a local def, the meet of its sources for a φ. Zero value
	// (Sentinel) carries no type and never participates in a meet.
	Type types.Type

	// Sources records, for a join timeline, which predecessor
	// def-timelines were joined to produce it (nil for a plain local
	// definition's timeline). Populated at phi-insertion time.
	Sources []*DefTimeline

	// Phi points back at the phi instruction that produced this join
	// timeline (nil for a local definition's timeline). The
	// def-propagator follows it to patch pending operands in place.
	Phi *Instruction

	Uses []UseRef
}

func (ut *UseTimeline) recordUse(ref UseRef) {
	ut.Uses = append(ut.Uses, ref)
}

// DefTimeline is the per-(block,variable) record: an optional incoming
// join timeline plus the ordered list of local definition timelines.
type DefTimeline struct {
	Block *Component
	Var   *Variable

	Incoming *UseTimeline   // populated only by the resolver (invariant #2)
	Local    []*UseTimeline // ordered as the defs appear in the block
}

// HasOutgoingTimeline reports whether this block already has something
// to feed a successor for Var: either a resolved incoming join, or at
// least one local definition.
func (dt *DefTimeline) HasOutgoingTimeline() bool {
	return dt.Incoming != nil || len(dt.Local) > 0
}

// Outgoing returns the timeline a successor block should observe leaving
// this block: the most recent local definition if any, else Incoming.
func (dt *DefTimeline) Outgoing() *UseTimeline {
	if n := len(dt.Local); n > 0 {
		return dt.Local[n-1]
	}
	return dt.Incoming
}

// openTimeline attaches (creates if absent) the (block, v) timeline slot.
func openTimeline(block *Component, v *Variable) *DefTimeline {
	if block.Kind != CompBlock {
		panicInvariant("openTimeline", "timelines only attach to blocks")
	}
	dt, ok := block.Timelines[v.ID()]
	if !ok {
		dt = &DefTimeline{Block: block, Var: v}
		block.Timelines[v.ID()] = dt
	}
	return dt
}

// appendLocalDef creates a new, empty local use-timeline for a freshly
// defined def-id and makes it the block's new outgoing timeline.
func appendLocalDef(block *Component, v *Variable, def DefID, t types.Type) *UseTimeline {
	dt := openTimeline(block, v)
	ut := &UseTimeline{Def: def, Type: t}
	dt.Local = append(dt.Local, ut)
	return ut
}
