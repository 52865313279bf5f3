// Package types implements the fixed type lattice shared by the SSA core.
//
// Types form a DAG rooted at Any; void is the absorbing failure element
// returned by Meet when two types have no common ancestor. Pointer types
// are generated on demand (one node per pointee kind) and meet under a
// stricter rule than the rest of the DAG: two pointer types only meet if
// they point at the same kind, never widening to a common ancestor.
package types

import "fmt"

// Kind identifies a node in the type DAG. Pointer types are represented
// by the single Kind Ptr plus a non-nil Elem on the Type value, never by
// a dedicated Kind constant per pointee.
type Kind uint8

const (
	Void Kind = iota
	Any
	Bool
	Char8
	Char16
	Int8
	Int16
	Int32
	Int64
	Uint8
	Uint16
	Uint32
	Uint64
	Float32
	Float64
	Ptr // Type.Elem holds the pointee; Kind alone is never sufficient for Ptr.
)

// Type is a value in the lattice: either a primitive Kind, or a pointer
// to some other Type (Kind == Ptr, Elem != nil).
type Type struct {
	Kind Kind
	Elem *Type // non-nil iff Kind == Ptr
}

func Primitive(k Kind) Type {
	if k == Ptr {
		panic("types: Primitive called with Ptr; use PointerTo")
	}
	return Type{Kind: k}
}

func PointerTo(elem Type) Type {
	e := elem
	return Type{Kind: Ptr, Elem: &e}
}

func (t Type) IsVoid() bool { return t.Kind == Void }

func (t Type) Equal(o Type) bool {
	if t.Kind != o.Kind {
		return false
	}
	if t.Kind == Ptr {
		return t.Elem.Equal(*o.Elem)
	}
	return true
}

type entry struct {
	parent    Kind
	hasParent bool
	size      int
	integral  bool
	pretty    string
}

// table fixes the DAG shape. Any is the root (no parent); numeric kinds
// widen toward the floating kinds the way implicit numeric promotion
// does in the source language, so meet(Int32, Float64) yields Float64
// rather than an abstract "numeric" ancestor.
var table = map[Kind]entry{
	Any:     {pretty: "any"},
	Bool:    {parent: Any, hasParent: true, size: 1, pretty: "bool"},
	Char8:   {parent: Any, hasParent: true, size: 1, pretty: "char8"},
	Char16:  {parent: Any, hasParent: true, size: 2, pretty: "char16"},
	Float64: {parent: Any, hasParent: true, size: 8, pretty: "f64"},
	Float32: {parent: Float64, hasParent: true, size: 4, pretty: "f32"},
	Uint64:  {parent: Float64, hasParent: true, size: 8, integral: true, pretty: "u64"},
	Uint32:  {parent: Uint64, hasParent: true, size: 4, integral: true, pretty: "u32"},
	Uint16:  {parent: Uint32, hasParent: true, size: 2, integral: true, pretty: "u16"},
	Uint8:   {parent: Uint16, hasParent: true, size: 1, integral: true, pretty: "u8"},
	Int64:   {parent: Float64, hasParent: true, size: 8, integral: true, pretty: "i64"},
	Int32:   {parent: Int64, hasParent: true, size: 4, integral: true, pretty: "i32"},
	Int16:   {parent: Int32, hasParent: true, size: 2, integral: true, pretty: "i16"},
	Int8:    {parent: Int16, hasParent: true, size: 1, integral: true, pretty: "i8"},
}

func depth(k Kind) int {
	d := 0
	for {
		e, ok := table[k]
		if !ok || !e.hasParent {
			return d
		}
		k = e.parent
		d++
	}
}

// Meet computes the lowest common ancestor of a and b. It is commutative,
// associative and idempotent; Void is the absorbing failure element.
func Meet(a, b Type) Type {
	if a.IsVoid() || b.IsVoid() {
		return Type{Kind: Void}
	}
	if a.Kind == Ptr || b.Kind == Ptr {
		if a.Kind != Ptr || b.Kind != Ptr {
			return Type{Kind: Void}
		}
		if a.Elem.Equal(*b.Elem) {
			return a
		}
		return Type{Kind: Void}
	}
	if a.Kind == b.Kind {
		return a
	}
	da, db := depth(a.Kind), depth(b.Kind)
	ka, kb := a.Kind, b.Kind
	for ka != kb {
		if da > db {
			ka, da = table[ka].parent, da-1
		} else if db > da {
			kb, db = table[kb].parent, db-1
		} else {
			ka, kb = table[ka].parent, table[kb].parent
			da, db = da-1, db-1
		}
	}
	return Type{Kind: ka}
}

// IsIntegral reports whether t is one of the signed/unsigned integer widths.
func (t Type) IsIntegral() bool {
	if t.Kind == Ptr {
		return false
	}
	return table[t.Kind].integral
}

// SizeBytes returns the storage size of t, or 0 for Any/Void/pointer
// (pointer size is a code generator concern, not a lattice concern).
func (t Type) SizeBytes() int {
	if t.Kind == Ptr {
		return 0
	}
	return table[t.Kind].size
}

func (t Type) String() string {
	if t.Kind == Ptr {
		return fmt.Sprintf("ptr<%s>", t.Elem.String())
	}
	if t.Kind == Void {
		return "void"
	}
	e, ok := table[t.Kind]
	if !ok {
		return "?"
	}
	return e.pretty
}
