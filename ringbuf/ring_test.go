package ringbuf

import (
	"testing"

	"gotest.tools/v3/assert"

	"lanewire/seq"
)

func TestInsertGetRoundtrip(t *testing.T) {
	r := New[string](4)
	r.Insert(seq.PacketSeq(7), "seven")

	v, ok := r.Get(seq.PacketSeq(7))
	assert.Assert(t, ok)
	assert.Equal(t, v, "seven")
}

func TestGetMissingSlotIsEmpty(t *testing.T) {
	r := New[string](4)
	_, ok := r.Get(seq.PacketSeq(1))
	assert.Assert(t, !ok)
}

func TestOverwriteForgetsPriorOccupant(t *testing.T) {
	r := New[int](4)
	r.Insert(seq.PacketSeq(0), 100)
	r.Insert(seq.PacketSeq(4), 200) // same slot (0 mod 4 == 4 mod 4)

	_, ok := r.Get(seq.PacketSeq(0))
	assert.Assert(t, !ok, "original occupant should have been overwritten")

	v, ok := r.Get(seq.PacketSeq(4))
	assert.Assert(t, ok)
	assert.Equal(t, v, 200)
}

func TestRemove(t *testing.T) {
	r := New[int](4)
	r.Insert(seq.PacketSeq(2), 42)

	v, ok := r.Remove(seq.PacketSeq(2))
	assert.Assert(t, ok)
	assert.Equal(t, v, 42)

	_, ok = r.Get(seq.PacketSeq(2))
	assert.Assert(t, !ok)
}

func TestRemoveStaleSeqIsNoop(t *testing.T) {
	r := New[int](4)
	r.Insert(seq.PacketSeq(0), 1)
	r.Insert(seq.PacketSeq(4), 2) // overwrites slot 0's occupant

	_, ok := r.Remove(seq.PacketSeq(0))
	assert.Assert(t, !ok)

	v, ok := r.Get(seq.PacketSeq(4))
	assert.Assert(t, ok)
	assert.Equal(t, v, 2)
}

func TestLen(t *testing.T) {
	r := New[int](16)
	assert.Equal(t, r.Len(), 16)
}

func TestWraparoundSlot(t *testing.T) {
	r := New[int](256)
	r.Insert(seq.PacketSeq(65535), 9)
	v, ok := r.Get(seq.PacketSeq(65535))
	assert.Assert(t, ok)
	assert.Equal(t, v, 9)
}
