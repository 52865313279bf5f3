package ssa

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mixedTree builds seq[ block, fork(cond, case1, case2), loop(start,
// cond, body, update), block ] - one of every component kind, every
// adjacency the per-variant predecessor/successor tables cover.
func mixedTree(fn *Function) (body *Component, blocks []*Component) {
	first := newBlock()
	fcond := newBlock()
	case1 := newBlock()
	case2 := newBlock()
	fork := newFork(fcond, case1, case2)
	ls := newBlock()
	lc := newBlock()
	lb := newBlock()
	lu := newBlock()
	loop := newLoop(ls, lc, lb, lu)
	last := newBlock()
	body = newSequence(first, fork, loop, last)
	fn.SetBody(body)
	return body, []*Component{first, fcond, case1, case2, ls, lc, lb, lu, last}
}

func contains(set []*Component, c *Component) bool {
	for _, s := range set {
		if s == c {
			return true
		}
	}
	return false
}

func TestPredecessorSuccessorDuality(t *testing.T) {
	fn := NewFunction("f", 1)
	_, blocks := mixedTree(fn)

	for _, b := range blocks {
		for _, p := range Predecessors(b) {
			assert.True(t, contains(Successors(p), Entry(b)),
				"pred %p of %p not dual", p, b)
		}
		for _, s := range Successors(b) {
			assert.True(t, contains(Predecessors(s), b),
				"succ %p of %p not dual", s, b)
		}
	}
}

func TestEntryAndLeaves(t *testing.T) {
	fn := NewFunction("f", 1)
	body, blocks := mixedTree(fn)

	assert.Same(t, blocks[0], Entry(body))
	// The sequence's leaves are the leaves of its last element.
	leaves := Leaves(body)
	require.Len(t, leaves, 1)
	assert.Same(t, blocks[8], leaves[0])

	// A fork's leaves are the union of its case leaves; a loop's are its
	// condition's.
	fork := body.Children[1]
	assert.ElementsMatch(t, []*Component{blocks[2], blocks[3]}, Leaves(fork))
	loop := body.Children[2]
	assert.ElementsMatch(t, []*Component{blocks[5]}, Leaves(loop))
}

func TestIsLeafPerVariant(t *testing.T) {
	fn := NewFunction("f", 1)
	body, blocks := mixedTree(fn)

	fork := body.Children[1]
	assert.False(t, IsLeaf(fork.Cond))
	assert.True(t, IsLeaf(blocks[2]))
	assert.True(t, IsLeaf(blocks[3]))

	loop := body.Children[2]
	assert.True(t, IsLeaf(loop.Cond))
	assert.False(t, IsLeaf(loop.Start))
	assert.False(t, IsLeaf(loop.Body))
	assert.False(t, IsLeaf(loop.Update))

	assert.False(t, IsLeaf(body.Children[0]))
	assert.True(t, IsLeaf(body.Children[3]))
}

func TestBlockCountCountsWithoutFlattening(t *testing.T) {
	fn := NewFunction("f", 1)
	body, blocks := mixedTree(fn)
	assert.Equal(t, len(blocks), BlockCount(body))
	assert.Equal(t, len(blocks), len(collectBlocks(body)))
}

func TestFlattenSplicesNestedSequencesInPlace(t *testing.T) {
	a := newBlock()
	b := newBlock()
	c := newBlock()
	inner := newSequence(b, c)
	outer := newSequence(a, inner)

	Flatten(outer)
	require.Len(t, outer.Children, 3)
	assert.Same(t, a, outer.Children[0])
	assert.Same(t, b, outer.Children[1])
	assert.Same(t, c, outer.Children[2])
	for _, ch := range outer.Children {
		assert.Same(t, outer, ch.Parent)
	}
}

func TestRecursiveFlattenIsIdempotent(t *testing.T) {
	shape := func() *Component {
		a := newBlock()
		b := newBlock()
		c := newBlock()
		d := newBlock()
		deep := newSequence(c, d)
		mid := newSequence(b, deep)
		fcond := newBlock()
		caseSeq := newSequence(newBlock(), newSequence(newBlock()))
		fork := newFork(fcond, caseSeq)
		return newSequence(a, mid, fork)
	}

	once := shape()
	RecursiveFlatten(once)
	twice := shape()
	RecursiveFlatten(twice)
	RecursiveFlatten(twice)

	var kinds func(c *Component) []CompKind
	kinds = func(c *Component) []CompKind {
		out := []CompKind{c.Kind}
		switch c.Kind {
		case CompSequence:
			for _, ch := range c.Children {
				out = append(out, kinds(ch)...)
			}
		case CompFork:
			out = append(out, kinds(c.Cond)...)
			for _, cs := range c.Cases {
				out = append(out, kinds(cs)...)
			}
		case CompLoop:
			out = append(out, kinds(c.Start)...)
			out = append(out, kinds(c.Cond)...)
			out = append(out, kinds(c.Body)...)
			out = append(out, kinds(c.Update)...)
		}
		return out
	}
	assert.Equal(t, kinds(once), kinds(twice))
	// The top-level sequence is fully spliced: a, b, c, d, fork.
	require.Len(t, once.Children, 5)
	assert.Equal(t, CompFork, once.Children[4].Kind)
}

func TestSequenceIndexCacheSurvivesLookupAndInvalidatesOnSplice(t *testing.T) {
	a := newBlock()
	b := newBlock()
	seq := newSequence(a, b)

	assert.Equal(t, 1, seq.indexOf(b))
	// Cached handle path.
	assert.Equal(t, 1, seq.indexOf(b))

	// Splicing a nested sequence in front shifts positions and must
	// invalidate the one-slot cache.
	c := newBlock()
	seq.Children = append([]*Component{newSequence(c)}, seq.Children...)
	Flatten(seq)
	assert.Equal(t, 2, seq.indexOf(b))
}
