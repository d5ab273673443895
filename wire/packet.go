package wire

import (
	"encoding/binary"
	"errors"
	"fmt"

	"lanewire/ack"
	"lanewire/frag"
	"lanewire/seq"
)

// HeaderSize is the fixed encoded size of a PacketHeader: PacketSeq(u16) +
// AckHeader(6 bytes).
const HeaderSize = 2 + ack.WireSize

// ErrShortPacket is returned when a buffer is too small to hold a
// PacketHeader.
var ErrShortPacket = errors.New("wire: packet too short for header")

// PacketHeader is the fixed-size prefix of every packet: the sender's own
// packet-seq and the ack header summarizing what the sender has received.
type PacketHeader struct {
	Seq seq.PacketSeq
	Ack ack.Header
}

// EncodeHeader appends h's wire form to dst.
func EncodeHeader(dst []byte, h PacketHeader) []byte {
	var seqBuf [2]byte
	binary.LittleEndian.PutUint16(seqBuf[:], uint16(h.Seq))
	dst = append(dst, seqBuf[:]...)
	return h.Ack.Encode(dst)
}

// DecodeHeader parses a PacketHeader from the front of b, returning the
// remaining bytes.
func DecodeHeader(b []byte) (PacketHeader, []byte, error) {
	if len(b) < HeaderSize {
		return PacketHeader{}, nil, ErrShortPacket
	}
	s := seq.PacketSeq(binary.LittleEndian.Uint16(b))
	ackHdr, rest, ok := ack.Decode(b[2:])
	if !ok {
		return PacketHeader{}, nil, ErrShortPacket
	}
	return PacketHeader{Seq: s, Ack: ackHdr}, rest, nil
}

// FragmentHeader identifies which message and fragment position a Fragment
// payload belongs to.
type FragmentHeader struct {
	LaneIndex int
	MsgSeq    seq.MessageSeq
	Position  frag.Position
}

// EncodeFragment appends a full on-wire Fragment (header + varint length +
// payload) to dst.
func EncodeFragment(dst []byte, h FragmentHeader, payload []byte) []byte {
	dst = AppendVarint(dst, uint64(h.LaneIndex))
	var msgSeqBuf [2]byte
	binary.LittleEndian.PutUint16(msgSeqBuf[:], uint16(h.MsgSeq))
	dst = append(dst, msgSeqBuf[:]...)
	dst = append(dst, h.Position.Encode())
	dst = AppendVarint(dst, uint64(len(payload)))
	dst = append(dst, payload...)
	return dst
}

// DecodeFragmentError reports a malformed fragment encountered while
// parsing; this is non-fatal to the session. The malformed fragment's
// length is unknown, so the packet reader stops parsing that packet there;
// fragments decoded before it are kept.
type DecodeFragmentError struct {
	Reason string
}

func (e *DecodeFragmentError) Error() string {
	return fmt.Sprintf("wire: malformed fragment: %s", e.Reason)
}

// DecodeFragment parses one (header, payload) pair from the front of b,
// returning the remaining bytes.
func DecodeFragment(b []byte) (FragmentHeader, []byte, []byte, error) {
	laneIndex, rest, err := DecodeVarint(b)
	if err != nil {
		return FragmentHeader{}, nil, nil, &DecodeFragmentError{Reason: "lane index: " + err.Error()}
	}
	if len(rest) < 3 {
		return FragmentHeader{}, nil, nil, &DecodeFragmentError{Reason: "truncated message-seq/position"}
	}
	msgSeq := seq.MessageSeq(binary.LittleEndian.Uint16(rest))
	pos := frag.DecodePosition(rest[2])
	rest = rest[3:]

	payloadLen, rest, err := DecodeVarint(rest)
	if err != nil {
		return FragmentHeader{}, nil, nil, &DecodeFragmentError{Reason: "payload length: " + err.Error()}
	}
	if uint64(len(rest)) < payloadLen {
		return FragmentHeader{}, nil, nil, &DecodeFragmentError{Reason: "truncated payload"}
	}
	payload := rest[:payloadLen]
	rest = rest[payloadLen:]

	return FragmentHeader{LaneIndex: int(laneIndex), MsgSeq: msgSeq, Position: pos}, payload, rest, nil
}
