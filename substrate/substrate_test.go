package substrate

import (
	"testing"

	"gotest.tools/v3/assert"
)

func TestMemSubstrateDeliverAndRecv(t *testing.T) {
	m := NewMemSubstrate(64, 1200)
	m.Deliver([]byte("hello"))

	b, ok := m.RecvPacket()
	assert.Assert(t, ok)
	assert.DeepEqual(t, b, []byte("hello"))

	_, ok = m.RecvPacket()
	assert.Assert(t, !ok)
}

func TestMemSubstrateSendAndOutbound(t *testing.T) {
	m := NewMemSubstrate(64, 1200)
	m.SendPacket([]byte("a"))
	m.SendPacket([]byte("b"))

	out := m.Outbound()
	assert.Equal(t, len(out), 2)
	assert.Equal(t, len(m.Outbound()), 0, "outbound should drain")
}

func TestMemSubstrateMTUBounds(t *testing.T) {
	m := NewMemSubstrate(64, 1200)
	assert.Equal(t, m.MinMTU(), 64)
	assert.Equal(t, m.CurrentMTU(), 1200)
	m.SetMTU(900)
	assert.Equal(t, m.CurrentMTU(), 900)
}

func TestMemSubstrateDisconnect(t *testing.T) {
	m := NewMemSubstrate(64, 1200)
	m.Disconnect(DisconnectReason{Reason: "peer gone"})
	assert.Assert(t, m.Disconnected != nil)
	assert.Equal(t, m.Disconnected.Reason, "peer gone")
}

func TestConditionerDropsAllAtLossRateOne(t *testing.T) {
	inner := NewMemSubstrate(64, 1200)
	c := NewConditioner(inner, 1.0, 0, 1)

	for i := 0; i < 10; i++ {
		c.SendPacket([]byte("x"))
	}
	assert.Equal(t, len(inner.Outbound()), 0)
}

func TestConditionerPassesAllAtLossRateZero(t *testing.T) {
	inner := NewMemSubstrate(64, 1200)
	c := NewConditioner(inner, 0.0, 0, 1)

	for i := 0; i < 10; i++ {
		c.SendPacket([]byte("x"))
	}
	assert.Equal(t, len(inner.Outbound()), 10)
}

func TestConditionerDelaysUntilTick(t *testing.T) {
	inner := NewMemSubstrate(64, 1200)
	c := NewConditioner(inner, 0.0, 2, 1)

	c.SendPacket([]byte("x"))
	assert.Equal(t, len(inner.Outbound()), 0)

	c.Tick()
	assert.Equal(t, len(inner.Outbound()), 0)

	c.Tick()
	assert.Equal(t, len(inner.Outbound()), 1)
}
