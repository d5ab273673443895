package substrate

import "math/rand"

// Conditioner wraps a Substrate and forwards a filtered, delayed stream of
// packets — artificial loss/delay for tests only, kept outside the session
// core per the design note on test-only network conditioners.
type Conditioner struct {
	inner Substrate
	rng   *rand.Rand

	lossRate float64 // fraction of sent packets silently dropped, [0,1]

	// pending holds packets in flight, each with the number of Tick calls
	// left before it is forwarded to the wrapped substrate.
	pending []delayedPacket
	delayTicks int
}

type delayedPacket struct {
	readyAt int
	data    []byte
}

// NewConditioner wraps inner with the given loss rate and fixed delay (in
// Tick counts). seed makes loss decisions reproducible across test runs.
func NewConditioner(inner Substrate, lossRate float64, delayTicks int, seed int64) *Conditioner {
	return &Conditioner{inner: inner, rng: rand.New(rand.NewSource(seed)), lossRate: lossRate, delayTicks: delayTicks}
}

// RecvPacket implements Substrate, passing through the wrapped substrate's
// inbound queue unmodified (conditioning applies to outbound only, matching
// how it's used to simulate an unreliable path for this end's sends).
func (c *Conditioner) RecvPacket() ([]byte, bool) {
	return c.inner.RecvPacket()
}

// SendPacket probabilistically drops b, or holds it for delayTicks calls to
// Tick before forwarding it to the wrapped substrate.
func (c *Conditioner) SendPacket(b []byte) {
	if c.rng.Float64() < c.lossRate {
		return
	}
	if c.delayTicks <= 0 {
		c.inner.SendPacket(b)
		return
	}
	c.pending = append(c.pending, delayedPacket{readyAt: c.delayTicks, data: b})
}

// Tick advances the conditioner's clock by one and flushes any packets
// whose delay has elapsed.
func (c *Conditioner) Tick() {
	remaining := c.pending[:0]
	for _, p := range c.pending {
		p.readyAt--
		if p.readyAt <= 0 {
			c.inner.SendPacket(p.data)
		} else {
			remaining = append(remaining, p)
		}
	}
	c.pending = remaining
}

// CurrentMTU implements Substrate.
func (c *Conditioner) CurrentMTU() int { return c.inner.CurrentMTU() }

// MinMTU implements Substrate.
func (c *Conditioner) MinMTU() int { return c.inner.MinMTU() }

// Disconnect implements Substrate.
func (c *Conditioner) Disconnect(reason DisconnectReason) { c.inner.Disconnect(reason) }
