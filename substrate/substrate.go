// Package substrate defines the IO boundary the session core consumes: a
// tiny capability set — receive, send, MTU bounds, disconnect — kept
// deliberately ignorant of sockets, addresses or TLS.
package substrate

// DisconnectReason explains why a substrate tore a connection down.
type DisconnectReason struct {
	Reason string
}

// Substrate is the capability set the session core is built against. Real
// transports (UDPSubstrate) and test doubles (MemSubstrate) both satisfy it.
type Substrate interface {
	// RecvPacket returns the next inbound packet, or (nil, false) if none is
	// queued this tick.
	RecvPacket() ([]byte, bool)
	// SendPacket enqueues bytes for transmission.
	SendPacket(b []byte)
	// CurrentMTU returns the current path MTU budget for one packet.
	CurrentMTU() int
	// MinMTU returns the floor the session must never be configured under.
	MinMTU() int
	// Disconnect tears the connection down for the given reason.
	Disconnect(reason DisconnectReason)
}
