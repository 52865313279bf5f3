package ssa

// CompKind is the tag of the structured-component sum type, a closed
// set pattern-matched exhaustively by every structural algorithm.
type CompKind uint8

const (
	CompBlock CompKind = iota
	CompSequence
	CompFork
	CompLoop
	CompFunction
)

// Component is every node of the structured control-flow tree: Block,
// Sequence, Fork, Loop or Function, selected by Kind. Parent is a
// non-owning back-pointer (nil only for the Function root); ownership
// flows strictly downward from Function through its body.
type Component struct {
	Kind   CompKind
	Parent *Component

	// populated iff Kind == CompBlock
	Instructions []*Instruction
	Timelines    map[VarID]*DefTimeline

	// populated iff Kind == CompSequence
	Children []*Component
	// seqCacheIdx/seqCacheChild are a one-slot last-returned-handle
	// cache: indexOf reuses it when re-queried for the same child, and
	// any structural mutation (splice) invalidates it.
	seqCacheIdx   int
	seqCacheChild *Component

	// populated iff Kind == CompFork
	Cond  *Component // always Kind == CompBlock
	Cases []*Component

	// populated iff Kind == CompLoop
	Start  *Component
	Update *Component
	Body   *Component
	// Cond reused from the Fork field above for Loop's condition block.

	// populated iff Kind == CompFunction
	Fn *Function
}

func newBlock() *Component {
	return &Component{Kind: CompBlock, Timelines: make(map[VarID]*DefTimeline)}
}

func newSequence(children ...*Component) *Component {
	s := &Component{Kind: CompSequence, Children: children, seqCacheIdx: -1}
	for _, c := range children {
		c.Parent = s
	}
	return s
}

func newFork(cond *Component, cases ...*Component) *Component {
	if cond.Kind != CompBlock {
		panicInvariant("newFork", "condition subcomponent must be a block")
	}
	f := &Component{Kind: CompFork, Cond: cond, Cases: cases}
	cond.Parent = f
	for _, c := range cases {
		c.Parent = f
	}
	return f
}

func newLoop(start, cond, body, update *Component) *Component {
	if cond.Kind != CompBlock {
		panicInvariant("newLoop", "loop condition subcomponent must be a block")
	}
	l := &Component{Kind: CompLoop, Start: start, Cond: cond, Body: body, Update: update}
	start.Parent, cond.Parent, body.Parent, update.Parent = l, l, l, l
	return l
}

// --- structural inspectors, exhaustive switches on Kind/role ---

// Entry returns the first block reached on structured entry into c.
func Entry(c *Component) *Component {
	switch c.Kind {
	case CompBlock:
		return c
	case CompSequence:
		if len(c.Children) == 0 {
			panicInvariant("Entry", "sequence of size zero")
		}
		return Entry(c.Children[0])
	case CompFork:
		return Entry(c.Cond)
	case CompLoop:
		return Entry(c.Start)
	case CompFunction:
		return Entry(c.Fn.Body)
	}
	panicInvariant("Entry", "unknown component kind")
	return nil
}

// indexOf finds sub's position among seq's children, consulting and then
// refreshing the one-slot cache.
func (seq *Component) indexOf(sub *Component) int {
	if seq.seqCacheChild == sub && seq.seqCacheIdx >= 0 && seq.seqCacheIdx < len(seq.Children) {
		return seq.seqCacheIdx
	}
	for i, ch := range seq.Children {
		if ch == sub {
			seq.seqCacheIdx, seq.seqCacheChild = i, sub
			return i
		}
	}
	panicInvariant("indexOf", "subcomponent not found in its own parent sequence")
	return -1
}

// Predecessors returns the set of blocks that may structurally precede
// sub's entry, per variant of sub's parent.
func Predecessors(sub *Component) []*Component {
	p := sub.Parent
	if p == nil {
		return nil
	}
	switch p.Kind {
	case CompFork:
		if sub == p.Cond {
			return Predecessors(p)
		}
		return Leaves(p.Cond)
	case CompLoop:
		switch sub {
		case p.Start:
			return Predecessors(p)
		case p.Cond:
			return union(Leaves(p.Start), Leaves(p.Update))
		case p.Body:
			return Leaves(p.Cond)
		case p.Update:
			return Leaves(p.Body)
		}
		panicInvariant("Predecessors", "subcomponent not a named loop slot")
	case CompSequence:
		idx := p.indexOf(sub)
		if idx == 0 {
			return Predecessors(p)
		}
		return Leaves(p.Children[idx-1])
	case CompFunction:
		return nil
	}
	panicInvariant("Predecessors", "unknown parent kind")
	return nil
}

// Successors returns the set of blocks structurally reachable from sub's
// leaves, dual to Predecessors.
func Successors(sub *Component) []*Component {
	p := sub.Parent
	if p == nil {
		return nil
	}
	switch p.Kind {
	case CompFork:
		if sub == p.Cond {
			var out []*Component
			for _, cs := range p.Cases {
				out = append(out, Entry(cs))
			}
			return out
		}
		return Successors(p)
	case CompLoop:
		switch sub {
		case p.Start:
			return []*Component{Entry(p.Cond)}
		case p.Cond:
			return append([]*Component{Entry(p.Body)}, Successors(p)...)
		case p.Body:
			return []*Component{Entry(p.Update)}
		case p.Update:
			return []*Component{Entry(p.Cond)}
		}
		panicInvariant("Successors", "subcomponent not a named loop slot")
	case CompSequence:
		idx := p.indexOf(sub)
		if idx == len(p.Children)-1 {
			return Successors(p)
		}
		return []*Component{Entry(p.Children[idx+1])}
	case CompFunction:
		return nil
	}
	panicInvariant("Successors", "unknown parent kind")
	return nil
}

// Leaves returns the set of last-reached blocks within c.
func Leaves(c *Component) []*Component {
	switch c.Kind {
	case CompBlock:
		return []*Component{c}
	case CompSequence:
		if len(c.Children) == 0 {
			panicInvariant("Leaves", "sequence of size zero")
		}
		return Leaves(c.Children[len(c.Children)-1])
	case CompFork:
		var out []*Component
		for _, cs := range c.Cases {
			out = append(out, Leaves(cs)...)
		}
		return out
	case CompLoop:
		return Leaves(c.Cond)
	case CompFunction:
		return Leaves(c.Fn.Body)
	}
	panicInvariant("Leaves", "unknown component kind")
	return nil
}

// IsLeaf reports whether sub is the last-reached subcomponent within its
// parent: fork -> sub != condition; loop -> sub == condition;
// sequence -> sub == last.
func IsLeaf(sub *Component) bool {
	p := sub.Parent
	if p == nil {
		return true
	}
	switch p.Kind {
	case CompFork:
		return sub != p.Cond
	case CompLoop:
		return sub == p.Cond
	case CompSequence:
		return p.indexOf(sub) == len(p.Children)-1
	}
	panicInvariant("IsLeaf", "parent kind does not admit a leaf query")
	return false
}

// BlockCount counts blocks in c without flattening it first; the
// lowering pass uses it to preallocate the dense block table.
func BlockCount(c *Component) int {
	switch c.Kind {
	case CompBlock:
		return 1
	case CompSequence:
		n := 0
		for _, ch := range c.Children {
			n += BlockCount(ch)
		}
		return n
	case CompFork:
		n := BlockCount(c.Cond)
		for _, cs := range c.Cases {
			n += BlockCount(cs)
		}
		return n
	case CompLoop:
		return BlockCount(c.Start) + BlockCount(c.Cond) + BlockCount(c.Body) + BlockCount(c.Update)
	case CompFunction:
		return BlockCount(c.Fn.Body)
	}
	panicInvariant("BlockCount", "unknown component kind")
	return 0
}

// Flatten splices any directly-nested Sequence children of seq in place,
// preserving order. It is a no-op on non-sequences.
func Flatten(seq *Component) {
	if seq.Kind != CompSequence {
		return
	}
	var out []*Component
	changed := false
	for _, ch := range seq.Children {
		if ch.Kind == CompSequence {
			changed = true
			for _, grand := range ch.Children {
				grand.Parent = seq
				out = append(out, grand)
			}
		} else {
			out = append(out, ch)
		}
	}
	if changed {
		seq.Children = out
		seq.seqCacheIdx, seq.seqCacheChild = -1, nil
	}
}

// RecursiveFlatten post-orders c and flattens every enclosed sequence. It
// is an identity transformation on the semantics of c and is run once,
// before resolution.
func RecursiveFlatten(c *Component) {
	switch c.Kind {
	case CompBlock:
		return
	case CompSequence:
		for _, ch := range c.Children {
			RecursiveFlatten(ch)
		}
		Flatten(c)
	case CompFork:
		RecursiveFlatten(c.Cond)
		for _, cs := range c.Cases {
			RecursiveFlatten(cs)
		}
	case CompLoop:
		RecursiveFlatten(c.Start)
		RecursiveFlatten(c.Cond)
		RecursiveFlatten(c.Body)
		RecursiveFlatten(c.Update)
	case CompFunction:
		RecursiveFlatten(c.Fn.Body)
	}
}

func union(sets ...[]*Component) []*Component {
	seen := make(map[*Component]bool)
	var out []*Component
	for _, s := range sets {
		for _, c := range s {
			if !seen[c] {
				seen[c] = true
				out = append(out, c)
			}
		}
	}
	return out
}
