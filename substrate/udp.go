package substrate

import (
	"net"
	"sync"
)

// UDPSubstrate adapts a connected net.PacketConn-style UDP socket to the
// Substrate interface, modeled on the listen/read-loop idiom this codebase
// already used for its raw socket handling.
type UDPSubstrate struct {
	conn   *net.UDPConn
	peer   *net.UDPAddr
	mtu    int
	minMTU int

	mu      sync.Mutex
	inbound [][]byte

	disconnect func(DisconnectReason)
}

// NewUDPSubstrate wraps conn for communication with exactly one peer
// address, with the given MTU bounds.
func NewUDPSubstrate(conn *net.UDPConn, peer *net.UDPAddr, minMTU, mtu int, onDisconnect func(DisconnectReason)) *UDPSubstrate {
	return &UDPSubstrate{conn: conn, peer: peer, minMTU: minMTU, mtu: mtu, disconnect: onDisconnect}
}

// Push is called by the socket read loop for every datagram received from
// this substrate's peer; it queues the packet for the next RecvPacket call.
func (u *UDPSubstrate) Push(b []byte) {
	cp := make([]byte, len(b))
	copy(cp, b)
	u.mu.Lock()
	u.inbound = append(u.inbound, cp)
	u.mu.Unlock()
}

// RecvPacket implements Substrate.
func (u *UDPSubstrate) RecvPacket() ([]byte, bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if len(u.inbound) == 0 {
		return nil, false
	}
	b := u.inbound[0]
	u.inbound = u.inbound[1:]
	return b, true
}

// SendPacket implements Substrate.
func (u *UDPSubstrate) SendPacket(b []byte) {
	_, _ = u.conn.WriteToUDP(b, u.peer)
}

// CurrentMTU implements Substrate.
func (u *UDPSubstrate) CurrentMTU() int { return u.mtu }

// MinMTU implements Substrate.
func (u *UDPSubstrate) MinMTU() int { return u.minMTU }

// SetMTU updates the path MTU, e.g. on an ICMP fragmentation-needed signal.
func (u *UDPSubstrate) SetMTU(mtu int) { u.mtu = mtu }

// Disconnect implements Substrate.
func (u *UDPSubstrate) Disconnect(reason DisconnectReason) {
	if u.disconnect != nil {
		u.disconnect(reason)
	}
}
