// Package stats implements sampling & stats: a periodic ring of
// snapshots over a Session's counters and RTT estimate, with a derived
// packet-loss estimate, plus a prometheus.Collector adapter for export.
package stats

import (
	"time"

	"lanewire/session"
)

// Snapshot is one point-in-time sample of a session's counters.
type Snapshot struct {
	At time.Time

	SRTT time.Duration
	PTO  time.Duration

	BytesSent    int
	BytesRecv    int
	MessagesSent int
	MessagesRecv int
	PacketsSent  int
	PacketsRecv  int
	AcksRecv     int

	// DeltaPacketsSent/DeltaAcksRecv are this snapshot's counters minus the
	// previous snapshot's (zero for the first snapshot). The loss estimate
	// does not use them.
	DeltaPacketsSent int
	DeltaAcksRecv    int

	// LossEstimate is in [0, 1]; see Sampler.Take.
	LossEstimate float64
}

// Sampler takes periodic Snapshots of a Session and keeps the last N of
// them. Sampling never affects delivery: it only reads a Session's counters.
type Sampler struct {
	sess     *session.Session
	history  []Snapshot
	capacity int

	lossThresholdFactor float64
}

// NewSampler returns a Sampler over sess, retaining up to capacity
// snapshots. lossThresholdFactor scales the RTT-derived PTO into the
// "snapshots ago" lost-packet threshold window.
func NewSampler(sess *session.Session, capacity int, lossThresholdFactor float64) *Sampler {
	if lossThresholdFactor <= 0 {
		lossThresholdFactor = 1.0
	}
	return &Sampler{sess: sess, capacity: capacity, lossThresholdFactor: lossThresholdFactor}
}

// Take records a new snapshot of sess's current Stats(), computing deltas
// against the previous snapshot and a loss estimate:
//
//	loss = 1 - min(1, acks_since_window_start / packets_sent_before_window_lost_threshold)
//
// where window_lost_threshold is ceil(pto * lossThresholdFactor /
// samplingRate) snapshots ago (at least one), samplingRate being the
// interval between snapshots.
func (s *Sampler) Take(now time.Time, samplingRate time.Duration) Snapshot {
	st := s.sess.Stats()
	snap := Snapshot{
		At:           now,
		SRTT:         st.SRTT,
		PTO:          st.PTO,
		BytesSent:    st.BytesSent,
		BytesRecv:    st.BytesRecv,
		MessagesSent: st.MessagesSent,
		MessagesRecv: st.MessagesRecv,
		PacketsSent:  st.PacketsSent,
		PacketsRecv:  st.PacketsRecv,
		AcksRecv:     st.AcksRecv,
	}

	if len(s.history) > 0 {
		prev := s.history[len(s.history)-1]
		snap.DeltaPacketsSent = snap.PacketsSent - prev.PacketsSent
		snap.DeltaAcksRecv = snap.AcksRecv - prev.AcksRecv
	}

	windowAgo := 1
	if samplingRate > 0 {
		thresholdWindow := time.Duration(float64(st.PTO) * s.lossThresholdFactor)
		windowAgo = int((thresholdWindow + samplingRate - 1) / samplingRate)
		if windowAgo < 1 {
			windowAgo = 1
		}
	}
	windowStart := len(s.history) - windowAgo
	var acksSinceWindowStart, packetsSentBeforeWindow int
	if windowStart >= 0 && windowStart < len(s.history) {
		acksSinceWindowStart = snap.AcksRecv - s.history[windowStart].AcksRecv
		packetsSentBeforeWindow = s.history[windowStart].PacketsSent
	} else {
		acksSinceWindowStart = snap.AcksRecv
		packetsSentBeforeWindow = 0
	}

	if packetsSentBeforeWindow <= 0 {
		snap.LossEstimate = 0
	} else {
		ratio := float64(acksSinceWindowStart) / float64(packetsSentBeforeWindow)
		if ratio > 1 {
			ratio = 1
		}
		loss := 1 - ratio
		if loss < 0 {
			loss = 0
		}
		if loss > 1 {
			loss = 1
		}
		snap.LossEstimate = loss
	}

	s.history = append(s.history, snap)
	if len(s.history) > s.capacity {
		s.history = s.history[len(s.history)-s.capacity:]
	}
	return snap
}

// Latest returns the most recent snapshot, or the zero Snapshot if none has
// been taken yet.
func (s *Sampler) Latest() Snapshot {
	if len(s.history) == 0 {
		return Snapshot{}
	}
	return s.history[len(s.history)-1]
}

// History returns every retained snapshot, oldest first.
func (s *Sampler) History() []Snapshot {
	return s.history
}
