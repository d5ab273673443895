package session

import "fmt"

// MtuTooSmallError is returned by New or SetMTU when an MTU would leave no
// room for even a one-byte fragment after header overhead.
type MtuTooSmallError struct {
	MTU    int
	MinMTU int
}

func (e *MtuTooSmallError) Error() string {
	return fmt.Sprintf("mtu %d below minimum %d", e.MTU, e.MinMTU)
}

// InvalidLaneIndexError is a non-fatal receive error: a fragment named a
// lane index outside the configured recv-lane table.
type InvalidLaneIndexError struct {
	LaneIndex int
}

func (e *InvalidLaneIndexError) Error() string {
	return fmt.Sprintf("recv: invalid lane index %d", e.LaneIndex)
}

// DisconnectKind classifies who or what caused a fatal disconnect.
type DisconnectKind int

const (
	ByUser DisconnectKind = iota
	ByPeer
	ByError
)

func (k DisconnectKind) String() string {
	switch k {
	case ByUser:
		return "by_user"
	case ByPeer:
		return "by_peer"
	default:
		return "by_error"
	}
}

// DisconnectReason is the structured reason carried by a fatal disconnect
// is exceeded.
type DisconnectReason struct {
	Kind  DisconnectKind
	Cause error
}

func (r DisconnectReason) Error() string {
	return fmt.Sprintf("disconnect (%s): %v", r.Kind, r.Cause)
}

// OutOfMemoryError is the fatal cause when memory_used() exceeds
// max_memory_usage after an operation.
type OutOfMemoryError struct {
	Used int
	Max  int
}

func (e *OutOfMemoryError) Error() string {
	return fmt.Sprintf("memory used %d exceeds max %d", e.Used, e.Max)
}

// SubstrateLostError wraps a substrate-reported connection loss as a fatal
// cause.
type SubstrateLostError struct {
	Reason string
}

func (e *SubstrateLostError) Error() string {
	return fmt.Sprintf("substrate reported connection loss: %s", e.Reason)
}

// DecodeHeaderError is a fatal-to-the-packet (not the session) receive
// error: the packet is discarded but the session survives.
type DecodeHeaderError struct {
	Cause error
}

func (e *DecodeHeaderError) Error() string {
	return fmt.Sprintf("recv: malformed packet header: %v", e.Cause)
}
