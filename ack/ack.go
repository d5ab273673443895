// Package ack tracks which packet sequences a session has seen and encodes
// that knowledge into the compact header piggybacked on every outbound
// packet.
package ack

import (
	"encoding/binary"

	"lanewire/seq"
)

// WireSize is the encoded size of a Header: a u16 last-seen sequence
// followed by a u32 bitset.
const WireSize = 2 + 4

// Window is how many sequences older than Last the bitset can still track.
const Window = 32

// Header is the pair (last received packet seq, 32-bit history bitset).
// Bit i set means "seq Last-(i+1) was received". A zero-value Header means
// "nothing received yet".
type Header struct {
	Last seq.PacketSeq
	Bits uint32

	hasLast bool
}

// New returns an empty Header representing no packets received yet.
func New() Header {
	return Header{}
}

// Ack records that s was received.
func (h *Header) Ack(s seq.PacketSeq) {
	if !h.hasLast {
		h.Last = s
		h.Bits = 0
		h.hasLast = true
		return
	}

	switch {
	case h.Last.Less(s):
		shift := uint32(s.Diff(h.Last))
		if shift >= 32 {
			h.Bits = 0
		} else {
			h.Bits <<= shift
			h.Bits |= 1 << (shift - 1)
		}
		h.Last = s
	case s == h.Last:
		// no-op
	default:
		back := uint32(h.Last.Diff(s))
		if back <= Window {
			h.Bits |= 1 << (back - 1)
		}
		// else: too old, drop
	}
}

// Seqs returns every sequence this header claims to have received, newest
// first (Last, then each set bit in order of increasing distance from Last).
func (h Header) Seqs() []seq.PacketSeq {
	if !h.hasLast {
		return nil
	}
	out := make([]seq.PacketSeq, 0, Window+1)
	out = append(out, h.Last)
	for i := uint32(0); i < Window; i++ {
		if h.Bits&(1<<i) != 0 {
			out = append(out, h.Last.Sub(uint16(i+1)))
		}
	}
	return out
}

// Encode appends the wire representation of h to dst and returns the result.
func (h Header) Encode(dst []byte) []byte {
	var buf [WireSize]byte
	binary.LittleEndian.PutUint16(buf[0:2], uint16(h.Last))
	binary.LittleEndian.PutUint32(buf[2:6], h.Bits)
	return append(dst, buf[:]...)
}

// Decode reads a Header from the front of b, returning the header and the
// remaining bytes. b must have at least WireSize bytes.
func Decode(b []byte) (Header, []byte, bool) {
	if len(b) < WireSize {
		return Header{}, b, false
	}
	last := binary.LittleEndian.Uint16(b[0:2])
	bits := binary.LittleEndian.Uint32(b[2:6])
	return Header{Last: seq.PacketSeq(last), Bits: bits, hasLast: true}, b[WireSize:], true
}
