package lane

import (
	"fmt"
	"time"

	"lanewire/frag"
	"lanewire/seq"
)

// TooManyMessagesError is the fatal send error raised when push would
// collide with an unacked sent-message slot: the lane has too large a
// backlog of unacked messages for its message-seq space.
type TooManyMessagesError struct {
	Lane    int
	MsgSeq  seq.MessageSeq
}

func (e *TooManyMessagesError) Error() string {
	return fmt.Sprintf("lane %d: message slot %d still occupied, too many unacked messages", e.Lane, e.MsgSeq)
}

// SentFragment is one outstanding fragment of a sent message awaiting ack or
// retransmission.
type SentFragment struct {
	Position     frag.Position
	Payload      []byte
	SentAt       time.Time
	NextFlushAt  time.Time
}

// SentMessage holds every fragment slot of one pushed message. A slot is nil
// once its fragment has been acked.
type SentMessage struct {
	Frags []*SentFragment
}

// Empty reports whether every fragment slot has been acked (emptied).
func (m *SentMessage) Empty() bool {
	for _, f := range m.Frags {
		if f != nil {
			return false
		}
	}
	return true
}

// MessageKey identifies a pushed message: the lane it was pushed on and its
// message-seq within that lane.
type MessageKey struct {
	Lane   int
	MsgSeq seq.MessageSeq
}

// SendLane is the per-lane send-side state: a table of in-flight sent
// messages keyed by message-seq, plus the next seq to assign.
type SendLane struct {
	Index           int
	Kind            Kind
	MaxFragLen      int
	sentMessages    map[seq.MessageSeq]*SentMessage
	nextMessageSeq  seq.MessageSeq
}

// NewSendLane constructs a SendLane for the given lane index and kind.
func NewSendLane(index int, kind Kind, maxFragLen int) *SendLane {
	return &SendLane{
		Index:        index,
		Kind:         kind,
		MaxFragLen:   maxFragLen,
		sentMessages: make(map[seq.MessageSeq]*SentMessage),
	}
}

// Push splits msg into fragments and records them under a freshly assigned
// message-seq. Returns TooManyMessagesError if the next
// slot is still occupied (unacked backlog too large), or frag.TooBigError if
// msg needs more than frag.MaxFragments fragments.
func (l *SendLane) Push(now time.Time, msg []byte) (MessageKey, error) {
	msgSeq := l.nextMessageSeq
	if _, occupied := l.sentMessages[msgSeq]; occupied {
		return MessageKey{}, &TooManyMessagesError{Lane: l.Index, MsgSeq: msgSeq}
	}

	frags, err := frag.Split(l.MaxFragLen, msg)
	if err != nil {
		return MessageKey{}, err
	}

	sm := &SentMessage{Frags: make([]*SentFragment, len(frags))}
	for i, f := range frags {
		sm.Frags[i] = &SentFragment{Position: f.Position, Payload: f.Payload, SentAt: now, NextFlushAt: now}
	}
	// frags came back reversed (last-first); store by actual index so later
	// lookups by fragment index are O(1).
	ordered := make([]*SentFragment, len(frags))
	for _, sf := range sm.Frags {
		ordered[sf.Position.Index] = sf
	}
	sm.Frags = ordered

	l.sentMessages[msgSeq] = sm
	l.nextMessageSeq = l.nextMessageSeq.Add(1)
	return MessageKey{Lane: l.Index, MsgSeq: msgSeq}, nil
}

// ReapEmpty drops every sent-message entry whose fragment slots are all
// empty, per C10 step 1.
func (l *SendLane) ReapEmpty() {
	for k, m := range l.sentMessages {
		if m.Empty() {
			delete(l.sentMessages, k)
		}
	}
}

// Message returns the sent-message entry for msgSeq, if any.
func (l *SendLane) Message(msgSeq seq.MessageSeq) (*SentMessage, bool) {
	m, ok := l.sentMessages[msgSeq]
	return m, ok
}

// Messages returns the live sent-message table, keyed by message-seq. The
// caller must treat it as read-only.
func (l *SendLane) Messages() map[seq.MessageSeq]*SentMessage {
	return l.sentMessages
}

// AckFragment clears the fragment slot at (msgSeq, fragIndex). Returns the
// owning MessageKey and true if this emptied the whole message (an
// application-visible ack), false otherwise. Returns ok=false if the slot
// was already empty or the message is unknown.
func (l *SendLane) AckFragment(msgSeq seq.MessageSeq, fragIndex uint8) (key MessageKey, fullyAcked bool, ok bool) {
	m, exists := l.sentMessages[msgSeq]
	if !exists || int(fragIndex) >= len(m.Frags) || m.Frags[fragIndex] == nil {
		return MessageKey{}, false, false
	}
	m.Frags[fragIndex] = nil
	key = MessageKey{Lane: l.Index, MsgSeq: msgSeq}
	return key, m.Empty(), true
}

// BytesUsed sums the live payload bytes held across all in-flight sent
// messages, for C14's memory accounting.
func (l *SendLane) BytesUsed() int {
	n := 0
	for _, m := range l.sentMessages {
		for _, f := range m.Frags {
			if f != nil {
				n += len(f.Payload)
			}
		}
	}
	return n
}

// Pending returns the number of in-flight sent messages.
func (l *SendLane) Pending() int {
	return len(l.sentMessages)
}
