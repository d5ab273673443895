// Package seq implements wrap-aware 16-bit sequence numbers.
//
// Both packet sequences and message sequences are thin wrappers around the
// same wrapping-arithmetic primitive; the distinct types keep the two from
// being mixed up at compile time.
package seq

// Num is a 16-bit counter that wraps modulo 2^16. Addition, subtraction and
// comparison all account for the wraparound.
type Num uint16

// Add returns n+d, wrapping modulo 2^16.
func (n Num) Add(d uint16) Num {
	return Num(uint16(n) + d)
}

// Sub returns n-d, wrapping modulo 2^16.
func (n Num) Sub(d uint16) Num {
	return Num(uint16(n) - d)
}

// Diff returns n-other as a signed distance, wrapping modulo 2^16. The
// result is in [-2^15, 2^15).
func (n Num) Diff(other Num) int32 {
	return int32(int16(uint16(n) - uint16(other)))
}

// Less reports whether n is wrap-aware less than other: n < other iff
// (other - n) mod 2^16 lies in (0, 2^15).
func (n Num) Less(other Num) bool {
	d := uint16(other) - uint16(n)
	return d != 0 && d < 1<<15
}

// LessEq reports n == other || n.Less(other).
func (n Num) LessEq(other Num) bool {
	return n == other || n.Less(other)
}

// PacketSeq identifies an outbound or inbound packet. Assigned per packet
// emitted by a session.
type PacketSeq Num

// Add returns p+d.
func (p PacketSeq) Add(d uint16) PacketSeq { return PacketSeq(Num(p).Add(d)) }

// Sub returns p-d.
func (p PacketSeq) Sub(d uint16) PacketSeq { return PacketSeq(Num(p).Sub(d)) }

// Diff returns p-other as a signed distance.
func (p PacketSeq) Diff(other PacketSeq) int32 { return Num(p).Diff(Num(other)) }

// Less reports wrap-aware p < other.
func (p PacketSeq) Less(other PacketSeq) bool { return Num(p).Less(Num(other)) }

// MessageSeq identifies a message within one send lane. Assigned per
// message pushed onto that lane.
type MessageSeq Num

// Add returns m+d.
func (m MessageSeq) Add(d uint16) MessageSeq { return MessageSeq(Num(m).Add(d)) }

// Sub returns m-d.
func (m MessageSeq) Sub(d uint16) MessageSeq { return MessageSeq(Num(m).Sub(d)) }

// Diff returns m-other as a signed distance.
func (m MessageSeq) Diff(other MessageSeq) int32 { return Num(m).Diff(Num(other)) }

// Less reports wrap-aware m < other.
func (m MessageSeq) Less(other MessageSeq) bool { return Num(m).Less(Num(other)) }
