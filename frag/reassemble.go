package frag

import (
	"fmt"
	"time"

	"lanewire/seq"
)

// ReassembleError is the non-fatal error taxonomy for Reassembler.Reassemble,
// None of these disconnect the session.
type ReassembleError struct {
	Kind     ReassembleErrorKind
	Index    uint8
	Previous uint8
	MaxSeen  uint8
	Len      int
	Expected int
	Needed   int
	Left     int
}

// ReassembleErrorKind enumerates the ways a fragment can fail to reassemble.
type ReassembleErrorKind int

const (
	// ErrAlreadyReceivedFrag: bit already set for this index.
	ErrAlreadyReceivedFrag ReassembleErrorKind = iota
	// ErrAlreadyReceivedLastFrag: two fragments both marked last.
	ErrAlreadyReceivedLastFrag
	// ErrInvalidLastFrag: the last-marked fragment has a lower index than a
	// prior non-last fragment.
	ErrInvalidLastFrag
	// ErrInvalidPayloadLength: a non-last fragment's payload isn't exactly
	// maxFragLen bytes.
	ErrInvalidPayloadLength
	// ErrNotEnoughMemory: admitting this fragment would exceed mem_left.
	ErrNotEnoughMemory
)

func (e *ReassembleError) Error() string {
	switch e.Kind {
	case ErrAlreadyReceivedFrag:
		return fmt.Sprintf("fragment %d already received", e.Index)
	case ErrAlreadyReceivedLastFrag:
		return fmt.Sprintf("fragment %d marked last, but %d was already the last fragment", e.Index, e.Previous)
	case ErrInvalidLastFrag:
		return fmt.Sprintf("fragment %d marked last, but index %d was already seen", e.Index, e.MaxSeen)
	case ErrInvalidPayloadLength:
		return fmt.Sprintf("fragment %d has payload length %d, expected %d", e.Index, e.Len, e.Expected)
	case ErrNotEnoughMemory:
		return fmt.Sprintf("reassembly needs %d more bytes, only %d left in budget", e.Needed, e.Left)
	default:
		return "reassemble error"
	}
}

type buffer struct {
	lastFragIndex  int // -1 means unknown
	maxFragIndex   uint8
	numFragsRecv   int
	recvFrags      [2]uint64 // 128-bit bitset, one bit per fragment index
	payload        []byte
	maxFragLen     int
	createdAt      time.Time
}

func (b *buffer) bitSet(i uint8) bool {
	word, bit := i/64, i%64
	return b.recvFrags[word]&(1<<bit) != 0
}

func (b *buffer) setBit(i uint8) {
	word, bit := i/64, i%64
	b.recvFrags[word] |= 1 << bit
}

// Reassembler holds in-progress reassembly buffers for one logical stream of
// messages (in practice: one receive lane). Safe for use by a single
// goroutine only, matching the rest of the core's single-threaded model.
type Reassembler struct {
	maxFragLen int
	bufs       map[seq.MessageSeq]*buffer
	bytesUsed  int
}

// NewReassembler constructs a Reassembler for fragments of at most
// maxFragLen bytes each.
func NewReassembler(maxFragLen int) *Reassembler {
	return &Reassembler{
		maxFragLen: maxFragLen,
		bufs:       make(map[seq.MessageSeq]*buffer),
	}
}

// BytesUsed returns the live byte count across all in-progress reassembly
// buffers, for the session's memory accounting.
func (r *Reassembler) BytesUsed() int {
	return r.bytesUsed
}

// Reassemble admits one fragment. It returns (msg, nil) once the message
// identified by msgSeq is complete, (nil, nil) if more fragments are still
// needed, or (nil, err) for a non-fatal reassembly error. memLeft bounds how
// many additional bytes this call may allocate.
func (r *Reassembler) Reassemble(now time.Time, msgSeq seq.MessageSeq, pos Position, payload []byte, memLeft int) ([]byte, error) {
	if len(payload) > r.maxFragLen {
		return nil, &ReassembleError{Kind: ErrInvalidPayloadLength, Index: pos.Index, Len: len(payload), Expected: r.maxFragLen}
	}

	b, ok := r.bufs[msgSeq]
	if !ok {
		b = &buffer{lastFragIndex: -1, maxFragLen: r.maxFragLen, createdAt: now}
		r.bufs[msgSeq] = b
	}

	if b.bitSet(pos.Index) {
		return nil, &ReassembleError{Kind: ErrAlreadyReceivedFrag, Index: pos.Index}
	}

	if pos.IsLast {
		if b.lastFragIndex >= 0 {
			return nil, &ReassembleError{Kind: ErrAlreadyReceivedLastFrag, Index: pos.Index, Previous: uint8(b.lastFragIndex)}
		}
		if pos.Index < b.maxFragIndex {
			return nil, &ReassembleError{Kind: ErrInvalidLastFrag, Index: pos.Index, MaxSeen: b.maxFragIndex}
		}
	} else if len(payload) != r.maxFragLen {
		return nil, &ReassembleError{Kind: ErrInvalidPayloadLength, Index: pos.Index, Len: len(payload), Expected: r.maxFragLen}
	}

	// Growth threshold deliberately uses >= rather than >: a fragment whose
	// end lands exactly on the current buffer length still triggers a
	// reallocation here, matching the later source drafts' behaviour.
	end := int(pos.Index)*r.maxFragLen + len(payload)
	if end >= len(b.payload) {
		needed := end - len(b.payload)
		if needed > memLeft {
			return nil, &ReassembleError{Kind: ErrNotEnoughMemory, Needed: needed, Left: memLeft}
		}
		grown := make([]byte, end)
		copy(grown, b.payload)
		b.payload = grown
		r.bytesUsed += needed
	}
	copy(b.payload[int(pos.Index)*r.maxFragLen:end], payload)

	b.setBit(pos.Index)
	b.numFragsRecv++
	if pos.Index > b.maxFragIndex || b.numFragsRecv == 1 {
		b.maxFragIndex = pos.Index
	}
	if pos.IsLast {
		b.lastFragIndex = int(pos.Index)
		if end < len(b.payload) {
			b.payload = b.payload[:end]
		}
	}

	if b.lastFragIndex >= 0 && b.numFragsRecv == b.lastFragIndex+1 {
		delete(r.bufs, msgSeq)
		r.bytesUsed -= len(b.payload)
		return b.payload, nil
	}
	return nil, nil
}

// Evict drops the reassembly buffer for msgSeq, e.g. under memory pressure
// or on connection teardown. Returns false if there was nothing to evict.
func (r *Reassembler) Evict(msgSeq seq.MessageSeq) bool {
	b, ok := r.bufs[msgSeq]
	if !ok {
		return false
	}
	r.bytesUsed -= len(b.payload)
	delete(r.bufs, msgSeq)
	return true
}

// Pending returns the number of in-progress reassembly buffers.
func (r *Reassembler) Pending() int {
	return len(r.bufs)
}
