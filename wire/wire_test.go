package wire

import (
	"testing"

	"gotest.tools/v3/assert"

	"lanewire/ack"
	"lanewire/frag"
	"lanewire/seq"
)

func TestVarintRoundtripSmall(t *testing.T) {
	for _, v := range []uint64{0, 1, 127, 128, 300, 16384} {
		buf := AppendVarint(nil, v)
		got, rest, err := DecodeVarint(buf)
		assert.NilError(t, err)
		assert.Equal(t, got, v)
		assert.Equal(t, len(rest), 0)
	}
}

func TestVarintLeavesTrailingBytes(t *testing.T) {
	buf := AppendVarint(nil, 42)
	buf = append(buf, 0xAA, 0xBB)
	got, rest, err := DecodeVarint(buf)
	assert.NilError(t, err)
	assert.Equal(t, got, uint64(42))
	assert.DeepEqual(t, rest, []byte{0xAA, 0xBB})
}

func TestDecodeVarintTruncated(t *testing.T) {
	_, _, err := DecodeVarint([]byte{0x80})
	assert.Assert(t, err != nil)
}

func TestPacketHeaderRoundtrip(t *testing.T) {
	var a ack.Header
	a.Ack(seq.PacketSeq(10))
	a.Ack(seq.PacketSeq(9))

	h := PacketHeader{Seq: seq.PacketSeq(7), Ack: a}
	buf := EncodeHeader(nil, h)
	assert.Equal(t, len(buf), HeaderSize)

	got, rest, err := DecodeHeader(buf)
	assert.NilError(t, err)
	assert.Equal(t, len(rest), 0)
	assert.Equal(t, got.Seq, seq.PacketSeq(7))
	assert.DeepEqual(t, got.Ack.Seqs(), a.Seqs())
}

func TestDecodeHeaderTooShort(t *testing.T) {
	_, _, err := DecodeHeader([]byte{1, 2, 3})
	assert.Assert(t, err != nil)
}

func TestFragmentRoundtrip(t *testing.T) {
	h := FragmentHeader{LaneIndex: 3, MsgSeq: seq.MessageSeq(99), Position: frag.Position{Index: 5, IsLast: true}}
	payload := []byte("hello fragment")

	buf := EncodeFragment(nil, h, payload)
	gotHdr, gotPayload, rest, err := DecodeFragment(buf)
	assert.NilError(t, err)
	assert.Equal(t, len(rest), 0)
	assert.Equal(t, gotHdr, h)
	assert.DeepEqual(t, gotPayload, payload)
}

func TestMultipleFragmentsParsedGreedily(t *testing.T) {
	h1 := FragmentHeader{LaneIndex: 0, MsgSeq: seq.MessageSeq(1), Position: frag.Position{Index: 0, IsLast: false}}
	h2 := FragmentHeader{LaneIndex: 0, MsgSeq: seq.MessageSeq(1), Position: frag.Position{Index: 1, IsLast: true}}

	var buf []byte
	buf = EncodeFragment(buf, h1, []byte("ab"))
	buf = EncodeFragment(buf, h2, []byte("c"))

	gotHdr1, p1, rest, err := DecodeFragment(buf)
	assert.NilError(t, err)
	assert.Equal(t, gotHdr1, h1)
	assert.DeepEqual(t, p1, []byte("ab"))

	gotHdr2, p2, rest, err := DecodeFragment(rest)
	assert.NilError(t, err)
	assert.Equal(t, gotHdr2, h2)
	assert.DeepEqual(t, p2, []byte("c"))
	assert.Equal(t, len(rest), 0)
}

func TestDecodeFragmentTruncatedPayload(t *testing.T) {
	h := FragmentHeader{LaneIndex: 0, MsgSeq: seq.MessageSeq(0), Position: frag.Position{Index: 0, IsLast: true}}
	buf := EncodeFragment(nil, h, []byte("hello"))
	buf = buf[:len(buf)-2] // truncate payload

	_, _, _, err := DecodeFragment(buf)
	assert.Assert(t, err != nil)
}
