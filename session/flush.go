package session

import (
	"sort"
	"time"

	"lanewire/lane"
	"lanewire/limit"
	"lanewire/seq"
	"lanewire/wire"
)

type fragCandidate struct {
	laneIdx   int
	msgSeq    seq.MessageSeq
	fragIndex uint8
	sentAt    time.Time
	frag      *lane.SentFragment
}

// Flush implements the packet writer / flusher: it reaps acked-out
// messages, collects every fragment eligible for (re)transmission, and packs
// as many MTU- and budget-bounded packets as the candidates and the token
// buckets allow.
func (s *Session) Flush(now time.Time) [][]byte {
	for _, l := range s.sendLanes {
		l.ReapEmpty()
	}

	candidates := s.collectCandidates(now)
	consumed := make([]bool, len(candidates))

	var packets [][]byte
	for {
		if s.sessionBucket.Remaining() < wire.HeaderSize || s.mtu < wire.HeaderSize {
			break
		}

		frags, used, advanced := s.packOne(now, candidates, consumed)
		if len(frags) == 0 && !s.keepAliveDue(now) {
			s.log.Debug("flush: nothing to send and no keep-alive due")
			break
		}

		hdr := wire.PacketHeader{Seq: s.nextPacketSeq, Ack: s.acks}
		buf := wire.EncodeHeader(nil, hdr)
		buf = append(buf, used...)

		rec := flushedPacket{FlushedAt: now, Frags: frags}
		s.flushed.Insert(s.nextPacketSeq, rec)
		s.nextPacketSeq = s.nextPacketSeq.Add(1)
		s.packetsSent++
		s.bytesSent += len(buf)
		s.lastPacketSentAt = now

		packets = append(packets, buf)

		if !advanced {
			// No candidate fit at all and we only emitted a keep-alive;
			// further attempts this flush would be identical, so stop.
			break
		}
	}
	return packets
}

// collectCandidates gathers every sent-fragment slot eligible for
// (re)transmission, sorted oldest-sent-first so reliable retransmits don't
// starve behind newer traffic. Ties on send time are broken by lane index,
// then message-seq (push order), then fragment index from last to first.
func (s *Session) collectCandidates(now time.Time) []fragCandidate {
	var out []fragCandidate
	for li, l := range s.sendLanes {
		for msgSeq, m := range l.Messages() {
			for idx, f := range m.Frags {
				if f != nil && !now.Before(f.NextFlushAt) {
					out = append(out, fragCandidate{laneIdx: li, msgSeq: msgSeq, fragIndex: uint8(idx), sentAt: f.SentAt, frag: f})
				}
			}
		}
	}
	sort.SliceStable(out, func(a, b int) bool {
		ca, cb := out[a], out[b]
		if !ca.sentAt.Equal(cb.sentAt) {
			return ca.sentAt.Before(cb.sentAt)
		}
		if ca.laneIdx != cb.laneIdx {
			return ca.laneIdx < cb.laneIdx
		}
		if ca.msgSeq != cb.msgSeq {
			return ca.msgSeq.Less(cb.msgSeq)
		}
		return ca.fragIndex > cb.fragIndex
	})
	return out
}

// packOne packs fragments into a single packet's body, respecting the MTU
// and the session/lane composite budgets, and applies the post-emit
// lifecycle (clear unreliable slots, reschedule reliable ones). consumed
// tracks which candidates have already been placed into some packet this
// Flush call (or given up on for budget reasons); it is shared across every
// packOne call in the same Flush so a candidate that doesn't fit this
// packet can still be tried against the next one's fresh MTU budget.
//
// A candidate that doesn't fit in what's left of the current packet is
// skipped, not treated as a stopping point: candidates are sorted
// oldest-first but vary in size (e.g. a message's shorter final fragment),
// so a big fragment failing to fit must not block a later, smaller
// candidate from still going out in this same packet.
func (s *Session) packOne(now time.Time, candidates []fragCandidate, consumed []bool) ([]fragPath, []byte, bool) {
	mtuLeft := s.mtu - wire.HeaderSize
	if !s.sessionBucket.TryConsumeIfAffordable(wire.HeaderSize) {
		return nil, nil, false
	}

	var frags []fragPath
	var buf []byte
	advanced := false

	for i := range candidates {
		if consumed[i] {
			continue
		}
		c := candidates[i]
		enc := wire.EncodeFragment(nil, wire.FragmentHeader{LaneIndex: c.laneIdx, MsgSeq: c.msgSeq, Position: c.frag.Position}, c.frag.Payload)

		if len(enc) > mtuLeft {
			continue
		}

		laneBucket := s.laneBuckets[c.laneIdx]
		composite := limit.MinOf(s.sessionBucket, laneBucket)
		if err := composite.TryConsume(len(enc)); err != nil {
			consumed[i] = true
			advanced = true
			continue
		}

		buf = append(buf, enc...)
		mtuLeft -= len(enc)
		frags = append(frags, fragPath{laneIdx: c.laneIdx, msgSeq: c.msgSeq, fragIndex: c.fragIndex})
		consumed[i] = true

		sendLane := s.sendLanes[c.laneIdx]
		if sendLane.Kind.Reliability() == lane.Unreliable {
			sendLane.AckFragment(c.msgSeq, c.fragIndex)
		} else {
			c.frag.NextFlushAt = now.Add(scaleDuration(s.rtt.PTO(), s.cfg.resendFactor()))
		}

		advanced = true
	}
	return frags, buf, advanced
}

func scaleDuration(d time.Duration, f float64) time.Duration {
	return time.Duration(float64(d) * f)
}

func (c Config) resendFactor() float64 {
	if c.ResendFactor == 0 {
		return 1.0
	}
	return c.ResendFactor
}

// keepAliveDue reports whether it's been more than one PTO since the last
// packet was sent.
func (s *Session) keepAliveDue(now time.Time) bool {
	if s.lastPacketSentAt.IsZero() {
		return true
	}
	return now.Sub(s.lastPacketSentAt) > s.rtt.PTO()
}
