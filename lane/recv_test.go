package lane

import (
	"testing"

	"gotest.tools/v3/assert"

	"lanewire/seq"
)

func TestUnreliableUnorderedDeliversEverything(t *testing.T) {
	l := NewRecvLane(UnreliableUnordered)
	out := l.Deliver(seq.MessageSeq(5), []byte("a"))
	assert.Equal(t, len(out), 1)
	out = l.Deliver(seq.MessageSeq(2), []byte("b")) // even "out of order" vs a prior seq
	assert.Equal(t, len(out), 1)
}

func TestUnreliableSequencedDropsOlder(t *testing.T) {
	l := NewRecvLane(UnreliableSequenced)
	out := l.Deliver(seq.MessageSeq(5), []byte("five"))
	assert.Equal(t, len(out), 1)
	assert.Equal(t, l.PendingSeq(), seq.MessageSeq(6))

	out = l.Deliver(seq.MessageSeq(3), []byte("three"))
	assert.Equal(t, len(out), 0, "older message must be dropped")

	out = l.Deliver(seq.MessageSeq(7), []byte("seven"))
	assert.Equal(t, len(out), 1)
	assert.Equal(t, l.PendingSeq(), seq.MessageSeq(8))
}

// property 5: for unreliable-sequenced, if m_i delivered before m_j then
// seq(m_i) < seq(m_j).
func TestUnreliableSequencedDeliveryOrderMatchesSeqOrder(t *testing.T) {
	l := NewRecvLane(UnreliableSequenced)
	var delivered []seq.MessageSeq
	for _, s := range []seq.MessageSeq{0, 1, 4, 2, 5} {
		out := l.Deliver(s, []byte{byte(s)})
		if len(out) > 0 {
			delivered = append(delivered, s)
		}
	}
	for i := 1; i < len(delivered); i++ {
		assert.Assert(t, delivered[i-1].Less(delivered[i]))
	}
}

func TestReliableUnorderedBuffersAndAdvances(t *testing.T) {
	l := NewRecvLane(ReliableUnordered)

	out := l.Deliver(seq.MessageSeq(1), []byte("one"))
	assert.Equal(t, len(out), 1, "out-of-order arrivals still deliver immediately")
	assert.Equal(t, l.PendingSeq(), seq.MessageSeq(0))

	out = l.Deliver(seq.MessageSeq(0), []byte("zero"))
	assert.Equal(t, len(out), 1)
	assert.Equal(t, l.PendingSeq(), seq.MessageSeq(2), "pending_seq should skip past the now-contiguous run")
}

func TestReliableUnorderedDropsBelowPendingSeq(t *testing.T) {
	l := NewRecvLane(ReliableUnordered)
	l.Deliver(seq.MessageSeq(0), []byte("zero"))
	assert.Equal(t, l.PendingSeq(), seq.MessageSeq(1))

	out := l.Deliver(seq.MessageSeq(0), []byte("dup"))
	assert.Equal(t, len(out), 0)
}

// property 4: reliable-ordered delivery has strictly increasing msg_seq, no
// gaps.
func TestReliableOrderedDeliversGapFreeInOrder(t *testing.T) {
	l := NewRecvLane(ReliableOrdered)

	out := l.Deliver(seq.MessageSeq(2), []byte("two"))
	assert.Equal(t, len(out), 0, "must hold until the gap at 0,1 fills")

	out = l.Deliver(seq.MessageSeq(0), []byte("zero"))
	assert.DeepEqual(t, out, [][]byte{[]byte("zero")})

	out = l.Deliver(seq.MessageSeq(1), []byte("one"))
	assert.DeepEqual(t, out, [][]byte{[]byte("one"), []byte("two")})

	assert.Equal(t, l.PendingSeq(), seq.MessageSeq(3))
}

func TestReliableOrderedDropsBelowPendingSeq(t *testing.T) {
	l := NewRecvLane(ReliableOrdered)
	l.Deliver(seq.MessageSeq(0), []byte("zero"))
	out := l.Deliver(seq.MessageSeq(0), []byte("dup"))
	assert.Equal(t, len(out), 0)
}

// property 3: pending_seq never decreases, across the three kinds that track
// it (UnreliableUnordered keeps no pending_seq).
func TestPendingSeqMonotoneAcrossKinds(t *testing.T) {
	for _, kind := range []Kind{UnreliableSequenced, ReliableUnordered, ReliableOrdered} {
		l := NewRecvLane(kind)
		prev := l.PendingSeq()
		for _, s := range []seq.MessageSeq{3, 1, 0, 2, 5, 4} {
			l.Deliver(s, []byte{byte(s)})
			cur := l.PendingSeq()
			assert.Assert(t, !cur.Less(prev), "kind=%v pending_seq regressed from %d to %d", kind, prev, cur)
			prev = cur
		}
	}
}
