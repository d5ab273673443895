package lane

import "lanewire/seq"

// RecvLane implements the per-kind delivery state machine:
// deciding which reassembled messages to surface to the user, and in what
// order, for one receive lane.
type RecvLane struct {
	kind       Kind
	pendingSeq seq.MessageSeq

	// ReliableUnordered
	receivedSet map[seq.MessageSeq]struct{}

	// ReliableOrdered
	holdBuffer map[seq.MessageSeq][]byte
}

// NewRecvLane constructs a RecvLane of the given kind.
func NewRecvLane(kind Kind) *RecvLane {
	return &RecvLane{
		kind:        kind,
		receivedSet: make(map[seq.MessageSeq]struct{}),
		holdBuffer:  make(map[seq.MessageSeq][]byte),
	}
}

// PendingSeq returns the lane's current pending_seq (next seq expected or
// awaited), for tests of property 3's monotonicity.
func (l *RecvLane) PendingSeq() seq.MessageSeq {
	return l.pendingSeq
}

// Deliver admits one fully reassembled message and returns the (possibly
// empty, possibly multi-element) set of payloads to surface to the user, in
// delivery order, per the state machine for l.kind.
func (l *RecvLane) Deliver(msgSeq seq.MessageSeq, payload []byte) [][]byte {
	switch l.kind {
	case UnreliableUnordered:
		return [][]byte{payload}

	case UnreliableSequenced:
		if !l.unreliableSequencedAccepts(msgSeq) {
			return nil
		}
		l.pendingSeq = msgSeq.Add(1)
		return [][]byte{payload}

	case ReliableUnordered:
		if msgSeq.Less(l.pendingSeq) {
			return nil
		}
		l.receivedSet[msgSeq] = struct{}{}
		out := [][]byte{payload}
		for {
			if _, ok := l.receivedSet[l.pendingSeq]; !ok {
				break
			}
			delete(l.receivedSet, l.pendingSeq)
			l.pendingSeq = l.pendingSeq.Add(1)
		}
		return out

	case ReliableOrdered:
		if msgSeq.Less(l.pendingSeq) {
			return nil
		}
		l.holdBuffer[msgSeq] = payload
		var out [][]byte
		for {
			p, ok := l.holdBuffer[l.pendingSeq]
			if !ok {
				break
			}
			delete(l.holdBuffer, l.pendingSeq)
			out = append(out, p)
			l.pendingSeq = l.pendingSeq.Add(1)
		}
		return out

	default:
		return nil
	}
}

// unreliableSequencedAccepts applies the UnreliableSequenced accept rule:
// deliver iff msg_seq >= pending_seq. Before any message has been delivered,
// pending_seq is 0 and every seq is accepted (0 >= 0 holds for the first
// message, and wrap-aware comparison handles every later one correctly).
func (l *RecvLane) unreliableSequencedAccepts(msgSeq seq.MessageSeq) bool {
	return msgSeq == l.pendingSeq || l.pendingSeq.Less(msgSeq)
}
