package ssa

import (
	"fmt"

	"njit/internal/ssa/types"
)

// Def resolution. A descending phase walks from a use's block outward to
// its structural predecessors, and an ascending phase joins what the
// descent finds, synthesizing a φ wherever a block has more than one
// structural predecessor. The two phases are fused into one recursive
// function: the whole structured tree is built before any use is
// resolved (every local definition already has its DefTimeline, see
// Resolve below), so an explicit frame stack reduces to ordinary
// call-stack recursion plus one guard for loop back-edges.

// pathResult is what one structural predecessor contributes to a join.
type pathResult struct {
	timeline *UseTimeline
	hard     bool       // true: this path traces to nothing, no reaching def anywhere
	selfRef  *Component // non-nil: this path cycles back to the block currently being resolved
}

// resolving guards against infinite recursion around a loop back-edge:
// while (block, v) is being resolved, a recursive call that reaches the
// same (block, v) again (only possible by walking condition -> body ->
// update -> condition without v being defined anywhere in that cycle)
// is answered with a self-reference instead of recursing forever.
type resolveKey struct {
	block *Component
	v     VarID
}

type resolver struct {
	resolving map[resolveKey]bool

	// deferred records the (block, v) keys that some join's phi operand
	// is waiting on: the block was mid-resolution when a back-edge led a
	// descent into it again, so the operand could not be given a def yet.
	// When the block's own resolveIncoming commits, the def-propagator
	// (propagate.go) broadcasts the committed timeline forward and
	// patches those operands.
	deferred map[resolveKey]bool
}

func newResolver() *resolver {
	return &resolver{
		resolving: make(map[resolveKey]bool),
		deferred:  make(map[resolveKey]bool),
	}
}

// Resolve runs def-resolution over every use in fn's already-built body.
// It must be called once, after the whole structured tree and every
// local definition has been appended; the builder never interleaves
// resolution with construction.
func Resolve(fn *Function) error {
	r := newResolver()
	return r.walk(fn.Body)
}

func (r *resolver) walk(c *Component) error {
	switch c.Kind {
	case CompBlock:
		return r.resolveBlock(c)
	case CompSequence:
		for _, ch := range c.Children {
			if err := r.walk(ch); err != nil {
				return err
			}
		}
		return nil
	case CompFork:
		if err := r.walk(c.Cond); err != nil {
			return err
		}
		for _, cs := range c.Cases {
			if err := r.walk(cs); err != nil {
				return err
			}
		}
		return nil
	case CompLoop:
		for _, sub := range []*Component{c.Start, c.Cond, c.Body, c.Update} {
			if err := r.walk(sub); err != nil {
				return err
			}
		}
		return nil
	case CompFunction:
		return r.walk(c.Fn.Body)
	}
	panicInvariant("resolver.walk", "unknown component kind")
	return nil
}

// resolveBlock resolves every use operand of every instruction in block,
// in program order, tracking the nearest preceding local definition per
// variable as it goes (invariant: a use observes the nearest local def
// earlier in the same block, else the block's incoming join).
func (r *resolver) resolveBlock(block *Component) error {
	current := make(map[VarID]*UseTimeline)
	localConsumed := make(map[VarID]int)

	for _, instr := range block.Instructions {
		for i := range instr.Operands {
			op := &instr.Operands[i]
			if op.IsConst || op.Resolved {
				continue
			}
			v := op.Var
			outgoing, ok := current[v.ID()]
			if !ok {
				dt := openTimeline(block, v)
				if dt.Incoming == nil {
					res, err := r.resolveIncoming(block, v)
					if err != nil {
						return err
					}
					// A top-level call can never legitimately come back
					// self-referential: any cycle must bottom out in a
					// join (>=2 predecessors) before reaching here.
					if res.hard || res.timeline == nil {
						return &UnresolvedUseError{Variable: v.Name()}
					}
					dt.Incoming = res.timeline
				}
				outgoing = dt.Incoming
				current[v.ID()] = outgoing
			}
			outgoing.recordUse(UseRef{Instr: instr, Index: i})
			op.Def = outgoing.Def
			op.Resolved = true
		}
		if instr.Def != nil && instr.Op != OpPhi {
			// A resolver-inserted phi also carries a def, but its timeline
			// is the block's Incoming join, never a Local entry; only
			// builder-appended defs consume Local slots here.
			v := instr.Def.Var
			dt := openTimeline(block, v)
			idx := localConsumed[v.ID()]
			if idx >= len(dt.Local) {
				panicInvariant("resolveBlock", "more has-def instructions than local timelines built for "+v.Name())
			}
			current[v.ID()] = dt.Local[idx]
			localConsumed[v.ID()] = idx + 1
		}
	}
	return nil
}

// resolveIncoming computes what a use of v reaching block (with no local
// definition preceding it in block itself) resolves to, expressed as the
// same three-way pathResult a join sees from one of its predecessors:
// a concrete timeline, a hard dead end, or a self-reference that must be
// forwarded (through any number of single-predecessor blocks) up to the
// join that will eventually materialise the φ it refers to.
func (r *resolver) resolveIncoming(block *Component, v *Variable) (pathResult, error) {
	key := resolveKey{block, v.ID()}
	preds := Predecessors(block)
	if len(preds) == 0 {
		return pathResult{hard: true}, nil
	}

	r.resolving[key] = true
	defer delete(r.resolving, key)

	results := make([]pathResult, len(preds))
	for i, p := range preds {
		pdt := openTimeline(p, v)
		if pdt.HasOutgoingTimeline() {
			results[i] = pathResult{timeline: pdt.Outgoing()}
			continue
		}
		pkey := resolveKey{p, v.ID()}
		if r.resolving[pkey] {
			results[i] = pathResult{selfRef: p}
			continue
		}
		sub, err := r.resolveIncoming(p, v)
		if err != nil {
			return pathResult{}, err
		}
		if sub.timeline != nil {
			pdt.Incoming = sub.timeline
		}
		results[i] = sub
	}

	var res pathResult
	if len(preds) == 1 {
		res = results[0]
	} else {
		joined, err := r.join(block, v, preds, results)
		if err != nil {
			return pathResult{}, err
		}
		res = joined
	}

	if r.deferred[key] {
		delete(r.deferred, key)
		// A join registered a pending operand against this block, which
		// means the phi it created flowed back here through the cycle -
		// so this resolution cannot have dead-ended.
		if res.timeline == nil {
			panicInvariant("resolveIncoming", "pending phi operand on a block that resolved to nothing for "+v.Name())
		}
		if err := r.broadcastResolved(block, v, res.timeline); err != nil {
			return pathResult{}, err
		}
	}
	return res, nil
}

// join materialises a φ at block over the predecessor contributions in
// results, fabricating sentinels for paths along which no definition
// reaches (a partially-initialised variable). A self-reference aimed at
// block itself becomes the new φ's own def-id (a loop-carried variable
// never redefined inside the loop); a self-reference aimed at a
// different, still-in-flight block becomes a pending operand that the
// def-propagator patches once that block commits (a back-edge into an
// enclosing join, e.g. a fork inside a loop body).
func (r *resolver) join(block *Component, v *Variable, preds []*Component, results []pathResult) (pathResult, error) {
	// A self-reference to this very block contributes no value of its
	// own: it only resolves once another predecessor does. A join fed
	// exclusively by hard dead ends and its own cycle is just as
	// unresolved as a single hard path would be. A self-reference to a
	// DIFFERENT in-flight block is kept live: the value it defers to is
	// computed by an enclosing resolution that has not committed yet.
	live := false
	for _, res := range results {
		if !res.hard && res.selfRef != block {
			live = true
			break
		}
	}
	if !live {
		return pathResult{hard: true}, nil
	}

	def, err := v.CreateDefID()
	if err != nil {
		return pathResult{}, err
	}
	phi := &UseTimeline{Def: def}

	instr := &Instruction{
		Op:    OpPhi,
		Def:   &Def{Var: v, ID: def},
		Block: block,
	}
	phi.Phi = instr

	var meet types.Type
	haveMeet := false
	for i, res := range results {
		op := Operand{Var: v, Resolved: true, SourceBlock: preds[i]}
		switch {
		case res.hard:
			sentinel, serr := sentinelFor(v)
			if serr != nil {
				return pathResult{}, serr
			}
			op.Def = sentinel.Def
		case res.selfRef == block:
			op.Def = def
		case res.selfRef != nil:
			// The value along this path is whatever res.selfRef commits
			// to; leave the operand pending for the def-propagator.
			op.pendingOn = res.selfRef
			r.deferred[resolveKey{res.selfRef, v.ID()}] = true
		default:
			op.Def = res.timeline.Def
			t := res.timeline.Type
			if t.IsVoid() {
				// A join timeline still waiting on a deferred back-edge
				// operand has no committed type yet; the def-propagator
				// folds it in when it patches. Local defs always carry a
				// real type, so this never masks a genuine meet failure.
				break
			}
			if !haveMeet {
				meet, haveMeet = t, true
			} else {
				m := types.Meet(meet, t)
				if m.IsVoid() {
					return pathResult{}, &TypeMeetError{
						Variable: v.Name(),
						Site:     fmt.Sprintf("phi at block merging predecessor %p", preds[i]),
						Left:     meet.String(),
						Right:    t.String(),
					}
				}
				meet = m
			}
		}
		phi.Sources = append(phi.Sources, openTimeline(preds[i], v))
		instr.Operands = append(instr.Operands, op)
	}
	if haveMeet {
		instr.Def.Type = meet
		phi.Type = meet
		if err := v.SetType(types.Meet(v.Type(), meet)); err != nil {
			return pathResult{}, err
		}
	}

	block.Instructions = append([]*Instruction{instr}, block.Instructions...)
	return pathResult{timeline: phi}, nil
}

// sentinelFor returns v's single uninitialised-sentinel timeline
// (distinct per variable, so two uninitialised variables never alias),
// creating it - and a def-id reserved just for it, so it never aliases a
// real definition's id - on first need.
func sentinelFor(v *Variable) (*UseTimeline, error) {
	if v.sentinelTimeline == nil {
		id, err := v.CreateDefID()
		if err != nil {
			return nil, err
		}
		v.sentinelTimeline = &UseTimeline{Def: id, Sentinel: true}
	}
	return v.sentinelTimeline, nil
}
