package substrate

// MemSubstrate is an in-memory Substrate for tests: packets are pushed onto
// an inbound queue by the test and popped off an outbound queue for
// inspection, with no real socket involved.
type MemSubstrate struct {
	inbound    [][]byte
	outbound   [][]byte
	mtu        int
	minMTU     int
	Disconnected *DisconnectReason
}

// NewMemSubstrate returns a MemSubstrate with the given MTU bounds.
func NewMemSubstrate(minMTU, mtu int) *MemSubstrate {
	return &MemSubstrate{mtu: mtu, minMTU: minMTU}
}

// Deliver queues b as an inbound packet, to be returned by a future
// RecvPacket call.
func (m *MemSubstrate) Deliver(b []byte) {
	m.inbound = append(m.inbound, b)
}

// RecvPacket implements Substrate.
func (m *MemSubstrate) RecvPacket() ([]byte, bool) {
	if len(m.inbound) == 0 {
		return nil, false
	}
	b := m.inbound[0]
	m.inbound = m.inbound[1:]
	return b, true
}

// SendPacket implements Substrate.
func (m *MemSubstrate) SendPacket(b []byte) {
	m.outbound = append(m.outbound, b)
}

// Outbound drains and returns every packet sent since the last call.
func (m *MemSubstrate) Outbound() [][]byte {
	out := m.outbound
	m.outbound = nil
	return out
}

// CurrentMTU implements Substrate.
func (m *MemSubstrate) CurrentMTU() int { return m.mtu }

// MinMTU implements Substrate.
func (m *MemSubstrate) MinMTU() int { return m.minMTU }

// SetMTU changes the simulated path MTU, e.g. to exercise set_mtu behavior.
func (m *MemSubstrate) SetMTU(mtu int) { m.mtu = mtu }

// Disconnect implements Substrate.
func (m *MemSubstrate) Disconnect(reason DisconnectReason) {
	m.Disconnected = &reason
}
