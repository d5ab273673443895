package session

import (
	"testing"
	"time"

	"gotest.tools/v3/assert"

	"lanewire/lane"
)

func twoSessions(t *testing.T, kind lane.Kind, now time.Time) (*Session, *Session) {
	cfg := DefaultConfig()
	cfg.SendLanes = []lane.Kind{kind}
	cfg.RecvLanes = []lane.Kind{kind}

	a, err := New(cfg, now, 64, 512, nil)
	assert.NilError(t, err)
	b, err := New(cfg, now, 64, 512, nil)
	assert.NilError(t, err)
	return a, b
}

// S1: single-fragment round-trip.
func TestSingleFragmentRoundTrip(t *testing.T) {
	now := time.Unix(0, 0)
	sender, receiver := twoSessions(t, lane.ReliableOrdered, now)

	key, err := sender.Push(now, 0, []byte("hi"))
	assert.NilError(t, err)
	assert.Equal(t, key.MsgSeq, key.MsgSeq) // sanity: msg seq assigned

	packets := sender.Flush(now)
	assert.Equal(t, len(packets), 1)

	acks, msgs, errs := receiver.Recv(now, packets[0])
	assert.Equal(t, len(errs), 0)
	assert.Equal(t, len(acks), 0)
	assert.Equal(t, len(msgs), 1)
	assert.Equal(t, msgs[0].Lane, 0)
	assert.DeepEqual(t, msgs[0].Payload, []byte("hi"))

	ackPackets := receiver.Flush(now)
	assert.Equal(t, len(ackPackets), 1)

	acks, msgs, errs = sender.Recv(now, ackPackets[0])
	assert.Equal(t, len(errs), 0)
	assert.Equal(t, len(msgs), 0)
	assert.Equal(t, len(acks), 1)
	assert.Equal(t, acks[0], key)
}

// S4: unreliable drop — the sender never retransmits a dropped packet.
func TestUnreliableDropNeverRetransmitted(t *testing.T) {
	now := time.Unix(0, 0)
	cfg := DefaultConfig()
	cfg.SendLanes = []lane.Kind{lane.UnreliableUnordered}
	cfg.RecvLanes = []lane.Kind{lane.UnreliableUnordered}

	// MTU tight enough that only one single-byte-payload fragment fits per
	// packet, so two pushes force two separate packets (per the literal
	// drop scenario this models).
	const tightMTU = 14
	sender, err := New(cfg, now, tightMTU, tightMTU, nil)
	assert.NilError(t, err)
	receiver, err := New(cfg, now, tightMTU, tightMTU, nil)
	assert.NilError(t, err)

	_, err = sender.Push(now, 0, []byte("A"))
	assert.NilError(t, err)
	_, err = sender.Push(now, 0, []byte("B"))
	assert.NilError(t, err)

	packets := sender.Flush(now)
	assert.Equal(t, len(packets), 2)

	// drop packets[0], deliver only packets[1]
	_, msgs, _ := receiver.Recv(now, packets[1])
	assert.Equal(t, len(msgs), 1)
	assert.DeepEqual(t, msgs[0].Payload, []byte("B"))

	later := now.Add(10 * time.Second)
	morePackets := sender.Flush(later)
	for _, p := range morePackets {
		_, msgs, _ := receiver.Recv(later, p)
		for _, m := range msgs {
			assert.Assert(t, string(m.Payload) != "A", "unreliable fragment must never be retransmitted")
		}
	}
}

func TestNewRejectsMtuBelowMinimum(t *testing.T) {
	cfg := DefaultConfig()
	_, err := New(cfg, time.Unix(0, 0), 4, 512, nil)
	assert.ErrorType(t, err, func(err error) bool {
		_, ok := err.(*MtuTooSmallError)
		return ok
	})
}

func TestNewRejectsInitialMtuBelowMinMtu(t *testing.T) {
	cfg := DefaultConfig()
	_, err := New(cfg, time.Unix(0, 0), 100, 50, nil)
	assert.ErrorType(t, err, func(err error) bool {
		_, ok := err.(*MtuTooSmallError)
		return ok
	})
}

func TestSetMtuRejectsBelowMinimum(t *testing.T) {
	cfg := DefaultConfig()
	s, err := New(cfg, time.Unix(0, 0), 64, 512, nil)
	assert.NilError(t, err)

	err = s.SetMTU(10)
	assert.ErrorType(t, err, func(err error) bool {
		_, ok := err.(*MtuTooSmallError)
		return ok
	})
}

func TestMemoryCapTriggersFatalDisconnect(t *testing.T) {
	now := time.Unix(0, 0)
	cfg := DefaultConfig()
	cfg.SendLanes = []lane.Kind{lane.ReliableOrdered}
	cfg.MaxMemoryUsage = 4 // tiny budget

	s, err := New(cfg, now, 64, 512, nil)
	assert.NilError(t, err)

	_, _ = s.Push(now, 0, []byte("this payload is definitely bigger than four bytes"))
	assert.Assert(t, s.Disconnected() != nil)
}

func TestMultiFragmentReliableOrderedDeliversOnce(t *testing.T) {
	// S2-ish at the session layer: multi-fragment message across a small
	// MTU still reassembles to exactly one delivered message.
	now := time.Unix(0, 0)
	cfg := DefaultConfig()
	cfg.SendLanes = []lane.Kind{lane.ReliableOrdered}
	cfg.RecvLanes = []lane.Kind{lane.ReliableOrdered}
	cfg.MaxFragLen = 2

	sender, err := New(cfg, now, 64, 512, nil)
	assert.NilError(t, err)
	receiver, err := New(cfg, now, 64, 512, nil)
	assert.NilError(t, err)

	_, err = sender.Push(now, 0, []byte("hello"))
	assert.NilError(t, err)

	packets := sender.Flush(now)
	assert.Assert(t, len(packets) >= 1)

	var allMsgs []RecvMessage
	for _, p := range packets {
		_, msgs, _ := receiver.Recv(now, p)
		allMsgs = append(allMsgs, msgs...)
	}
	assert.Equal(t, len(allMsgs), 1)
	assert.DeepEqual(t, allMsgs[0].Payload, []byte("hello"))
}
