package session

import (
	"time"

	"go.uber.org/zap"

	"lanewire/lane"
	"lanewire/wire"
)

// Recv implements the packet reader / dispatcher: parses the header,
// feeds received acks back into the send-side lanes and RTT estimator, then
// dispatches fragments into the reassembler and recv-lane state machines.
// Non-fatal errors (malformed fragments, unknown lane index, reassembly
// errors) are collected and returned alongside whatever acks/messages were
// still recoverable from the rest of the packet.
func (s *Session) Recv(now time.Time, packet []byte) ([]lane.MessageKey, []RecvMessage, []error) {
	hdr, rest, err := wire.DecodeHeader(packet)
	if err != nil {
		s.log.Debug("recv: malformed packet header", zap.Error(err))
		return nil, nil, []error{&DecodeHeaderError{Cause: err}}
	}
	s.packetsRecv++
	s.bytesRecv += len(packet)

	s.acks.Ack(hdr.Seq)

	var acks []lane.MessageKey
	var errs []error

	for _, ackedSeq := range hdr.Ack.Seqs() {
		rec, ok := s.flushed.Remove(ackedSeq)
		if !ok {
			continue
		}
		s.acksRecv++
		s.rtt.Sample(now.Sub(rec.FlushedAt))
		for _, path := range rec.Frags {
			if path.laneIdx < 0 || path.laneIdx >= len(s.sendLanes) {
				continue
			}
			key, fullyAcked, found := s.sendLanes[path.laneIdx].AckFragment(path.msgSeq, path.fragIndex)
			if found && fullyAcked {
				acks = append(acks, key)
			}
		}
	}

	var msgs []RecvMessage
	for len(rest) > 0 {
		fragHdr, payload, remaining, err := wire.DecodeFragment(rest)
		if err != nil {
			s.log.Debug("recv: malformed fragment, discarding rest of packet", zap.Error(err))
			errs = append(errs, err)
			break
		}
		rest = remaining

		if fragHdr.LaneIndex < 0 || fragHdr.LaneIndex >= len(s.recvLanes) {
			s.log.Debug("recv: fragment names unknown lane", zap.Int("lane", fragHdr.LaneIndex))
			errs = append(errs, &InvalidLaneIndexError{LaneIndex: fragHdr.LaneIndex})
			continue
		}

		memLeft := s.cfg.MaxMemoryUsage - s.MemoryUsed()
		full, err := s.reassemblers[fragHdr.LaneIndex].Reassemble(now, fragHdr.MsgSeq, fragHdr.Position, payload, memLeft)
		if err != nil {
			s.log.Debug("recv: reassembly failed", zap.Int("lane", fragHdr.LaneIndex), zap.Error(err))
			errs = append(errs, err)
			continue
		}
		if full == nil {
			continue
		}

		for _, delivered := range s.recvLanes[fragHdr.LaneIndex].Deliver(fragHdr.MsgSeq, full) {
			s.messagesRecv++
			msgs = append(msgs, RecvMessage{Lane: fragHdr.LaneIndex, Payload: delivered})
		}
	}

	s.enforceMemoryCap()
	return acks, msgs, errs
}
