package session

import (
	"time"

	"go.uber.org/zap"

	"lanewire/ack"
	"lanewire/frag"
	"lanewire/lane"
	"lanewire/limit"
	"lanewire/ringbuf"
	"lanewire/rtt"
	"lanewire/seq"
)

// headerFragmentOverhead is the minimum per-fragment wire cost (lane index
// varint, 2-byte message seq, 1-byte position, 1-byte length varint) used to
// validate that an MTU leaves room for at least one byte of payload.
const headerFragmentOverhead = 1 + 2 + 1 + 1

type fragPath struct {
	laneIdx   int
	msgSeq    seq.MessageSeq
	fragIndex uint8
}

type flushedPacket struct {
	FlushedAt time.Time
	Frags     []fragPath
}

// RecvMessage is one fully reassembled, lane-delivered message surfaced by
// Recv.
type RecvMessage struct {
	Lane    int
	Payload []byte
}

// Stats is the read-only snapshot returned by Session.Stats.
type Stats struct {
	SRTT         time.Duration
	PTO          time.Duration
	BytesSent    int
	BytesRecv    int
	MessagesSent int
	MessagesRecv int
	PacketsSent  int
	PacketsRecv  int
	AcksRecv     int
}

// Session owns every piece of per-connection protocol state behind the
// push/flush/recv/stats façade. A Session is single-threaded: it must
// never be called from two goroutines concurrently.
type Session struct {
	cfg Config
	log *zap.Logger

	sendLanes    []*lane.SendLane
	recvLanes    []*lane.RecvLane
	reassemblers []*frag.Reassembler

	acks          ack.Header
	sessionBucket *limit.Bucket
	laneBuckets   []*limit.Bucket
	flushed       *ringbuf.Ring[flushedPacket]
	nextPacketSeq seq.PacketSeq
	rtt           *rtt.Estimator

	mtu    int
	minMTU int

	lastPacketSentAt time.Time

	bytesSent    int
	bytesRecv    int
	messagesSent int
	messagesRecv int
	packetsSent  int
	packetsRecv  int
	acksRecv     int

	disconnectReason *DisconnectReason
}

// New constructs a Session: min_mtu must leave room for the packet
// header plus at least one fragment carrying one payload byte, and
// initial_mtu must be no smaller than min_mtu. logger may be nil, in which
// case the session logs nothing (zap.NewNop()), matching library code that
// defaults to silence and leaves console logging to the cmd/ binaries.
func New(cfg Config, now time.Time, minMTU, initialMTU int, logger *zap.Logger) (*Session, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.DefaultPacketCapacity == 0 {
		cfg.DefaultPacketCapacity = DefaultConfig().DefaultPacketCapacity
	}
	if cfg.MaxFragLen == 0 {
		cfg.MaxFragLen = DefaultConfig().MaxFragLen
	}
	if cfg.FlushedPacketRingSize == 0 {
		cfg.FlushedPacketRingSize = DefaultConfig().FlushedPacketRingSize
	}

	requiredMin := 8 /* PacketHeader: seq+ack */ + headerFragmentOverhead + 1
	if minMTU < requiredMin {
		return nil, &MtuTooSmallError{MTU: minMTU, MinMTU: requiredMin}
	}
	if initialMTU < minMTU {
		return nil, &MtuTooSmallError{MTU: initialMTU, MinMTU: minMTU}
	}

	s := &Session{
		cfg:           cfg,
		log:           logger,
		acks:          ack.New(),
		sessionBucket: limit.New(cfg.SendBytesPerSec),
		flushed:       ringbuf.New[flushedPacket](cfg.FlushedPacketRingSize),
		rtt:           rtt.New(),
		mtu:           initialMTU,
		minMTU:        minMTU,
	}

	for i, k := range cfg.SendLanes {
		s.sendLanes = append(s.sendLanes, lane.NewSendLane(i, k, cfg.MaxFragLen))
		capacity := cfg.SendBytesPerSec
		if i < len(cfg.LaneSendBytesPerSec) {
			capacity = cfg.LaneSendBytesPerSec[i]
		}
		s.laneBuckets = append(s.laneBuckets, limit.New(capacity))
	}
	for _, k := range cfg.RecvLanes {
		s.recvLanes = append(s.recvLanes, lane.NewRecvLane(k))
		s.reassemblers = append(s.reassemblers, frag.NewReassembler(cfg.MaxFragLen))
	}

	return s, nil
}

// SetMTU updates the session's path MTU.
func (s *Session) SetMTU(mtu int) error {
	if mtu < s.minMTU {
		return &MtuTooSmallError{MTU: mtu, MinMTU: s.minMTU}
	}
	s.mtu = mtu
	return nil
}

// RefillBytes refills the session and per-lane token buckets proportional to
// elapsed time.
func (s *Session) RefillBytes(elapsed time.Duration) {
	f := elapsed.Seconds()
	s.sessionBucket.RefillExact(int(float64(s.cfg.SendBytesPerSec) * f))
	for i, b := range s.laneBuckets {
		rate := s.cfg.SendBytesPerSec
		if i < len(s.cfg.LaneSendBytesPerSec) {
			rate = s.cfg.LaneSendBytesPerSec[i]
		}
		b.RefillExact(int(float64(rate) * f))
	}
}

// Push pushes msg onto the named send lane, then enforces the memory cap.
func (s *Session) Push(now time.Time, laneIdx int, msg []byte) (lane.MessageKey, error) {
	if laneIdx < 0 || laneIdx >= len(s.sendLanes) {
		s.log.Debug("push: invalid lane index", zap.Int("lane", laneIdx))
		return lane.MessageKey{}, &InvalidLaneIndexError{LaneIndex: laneIdx}
	}
	key, err := s.sendLanes[laneIdx].Push(now, msg)
	if err != nil {
		s.log.Debug("push failed", zap.Int("lane", laneIdx), zap.Error(err))
		s.noteFatalIfTerminal(err)
		return lane.MessageKey{}, err
	}
	s.messagesSent++
	s.enforceMemoryCap()
	return key, nil
}

// Stats returns a read-only snapshot of the session's counters and RTT
// estimate.
func (s *Session) Stats() Stats {
	return Stats{
		SRTT:         s.rtt.SRTT(),
		PTO:          s.rtt.PTO(),
		BytesSent:    s.bytesSent,
		BytesRecv:    s.bytesRecv,
		MessagesSent: s.messagesSent,
		MessagesRecv: s.messagesRecv,
		PacketsSent:  s.packetsSent,
		PacketsRecv:  s.packetsRecv,
		AcksRecv:     s.acksRecv,
	}
}

// MemoryUsed sums the live byte count across every sent-message buffer and
// reassembly buffer.
func (s *Session) MemoryUsed() int {
	n := 0
	for _, l := range s.sendLanes {
		n += l.BytesUsed()
	}
	for _, r := range s.reassemblers {
		n += r.BytesUsed()
	}
	return n
}

// Disconnected returns the session's fatal-disconnect reason, or nil if the
// session is still healthy.
func (s *Session) Disconnected() *DisconnectReason {
	return s.disconnectReason
}

func (s *Session) enforceMemoryCap() {
	if s.disconnectReason != nil {
		return
	}
	used := s.MemoryUsed()
	if used > s.cfg.MaxMemoryUsage {
		cause := &OutOfMemoryError{Used: used, Max: s.cfg.MaxMemoryUsage}
		s.disconnectReason = &DisconnectReason{Kind: ByError, Cause: cause}
		s.log.Error("fatal disconnect: memory cap exceeded",
			zap.Int("used", used), zap.Int("max", s.cfg.MaxMemoryUsage))
	}
}

func (s *Session) noteFatalIfTerminal(err error) {
	switch err.(type) {
	case *lane.TooManyMessagesError, *frag.TooBigError:
		s.disconnectReason = &DisconnectReason{Kind: ByError, Cause: err}
		s.log.Error("fatal disconnect", zap.Error(err))
	}
}
