// Package session implements the session façade gluing together the
// fragmenter, ack engine, token buckets, RTT estimator and per-lane state
// machines into the flush/recv/push API a substrate drives.
package session

import "lanewire/lane"

// Config configures one Session's lanes and resource budgets.
type Config struct {
	SendLanes []lane.Kind
	RecvLanes []lane.Kind

	MaxMemoryUsage int

	SendBytesPerSec     int
	LaneSendBytesPerSec []int

	DefaultPacketCapacity int

	// PacketLostThresholdFactor scales the PTO into the stats package's
	// loss-estimate window.
	PacketLostThresholdFactor float64

	// ResendFactor scales rtt.PTO() into a reliable fragment's next
	// eligible retransmit time. Defaults to 1.0 if zero.
	ResendFactor float64

	// FlushedPacketRingSize is the capacity of the seq-indexed ring used
	// for flushed-packet bookkeeping. Defaults to 1024 if zero.
	FlushedPacketRingSize int

	// MaxFragLen bounds how many payload bytes each fragment may carry,
	// independent of the current MTU. Messages are split at MaxFragLen when
	// pushed and are not re-split at flush time: the packet writer skips a
	// fragment that does not fit in the packet under the current MTU, so a
	// fragment whose encoding exceeds the MTU minus the header is never sent.
	MaxFragLen int
}

// DefaultConfig returns a Config with reasonable defaults used when a YAML
// config omits a field.
func DefaultConfig() Config {
	return Config{
		MaxMemoryUsage:            16 << 20,
		SendBytesPerSec:           1 << 20,
		DefaultPacketCapacity:     1200,
		PacketLostThresholdFactor: 1.0,
		ResendFactor:              1.0,
		FlushedPacketRingSize:     1024,
		MaxFragLen:                1024,
	}
}
