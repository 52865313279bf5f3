package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMeetIdempotentAndCommutative(t *testing.T) {
	i32 := Primitive(Int32)
	f64 := Primitive(Float64)

	assert.True(t, Meet(i32, i32).Equal(i32))
	assert.True(t, Meet(i32, f64).Equal(Meet(f64, i32)))
}

func TestMeetWidensIntToFloat(t *testing.T) {
	got := Meet(Primitive(Int32), Primitive(Float64))
	assert.Equal(t, "f64", got.String())
}

func TestMeetIncomparablePointersFails(t *testing.T) {
	p1 := PointerTo(Primitive(Int32))
	p2 := PointerTo(Primitive(Bool))
	assert.True(t, Meet(p1, p2).IsVoid())
}

func TestMeetSamePointerKind(t *testing.T) {
	p1 := PointerTo(Primitive(Int32))
	p2 := PointerTo(Primitive(Int32))
	got := Meet(p1, p2)
	assert.False(t, got.IsVoid())
	assert.Equal(t, "ptr<i32>", got.String())
}

func TestMeetVoidAbsorbs(t *testing.T) {
	void := Type{Kind: Void}
	assert.True(t, Meet(void, Primitive(Bool)).IsVoid())
	assert.True(t, Meet(Primitive(Bool), void).IsVoid())
}

func TestMeetPointerVsNonPointerFails(t *testing.T) {
	assert.True(t, Meet(PointerTo(Primitive(Int32)), Primitive(Int32)).IsVoid())
}
