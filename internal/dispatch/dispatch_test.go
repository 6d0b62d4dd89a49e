package dispatch

import (
	"encoding/json"
	"io"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/duellab/pdserver/internal/persistence"
	"github.com/duellab/pdserver/internal/wire"
)

// fakeSender is an in-memory session.Sender that records every frame
// delivered to it, for assertions without a real transport connection.
type fakeSender struct {
	id      string
	sent    []wire.Outbound
	done    chan struct{}
}

func newFakeSender(id string) *fakeSender {
	return &fakeSender{id: id, done: make(chan struct{})}
}

func (f *fakeSender) ID() string             { return f.id }
func (f *fakeSender) Send(msg wire.Outbound) { f.sent = append(f.sent, msg) }
func (f *fakeSender) Done() <-chan struct{}  { return f.done }

func (f *fakeSender) lastType() string {
	if len(f.sent) == 0 {
		return ""
	}
	return f.sent[len(f.sent)-1].WireType()
}

func testLoop(t *testing.T) *Loop {
	t.Helper()
	logger := log.NewWithOptions(io.Discard, log.Options{})
	return New(logger, persistence.NewMemoryStore())
}

// envelope builds a decoded wire.Envelope carrying payload's fields
// plus the given type discriminator, as if it had arrived over the
// wire as one JSON object.
func envelope(t *testing.T, typ string, payload any) wire.Envelope {
	t.Helper()
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		t.Fatalf("unmarshal payload fields: %v", err)
	}
	typJSON, err := json.Marshal(typ)
	if err != nil {
		t.Fatalf("marshal type: %v", err)
	}
	fields["type"] = typJSON

	full, err := json.Marshal(fields)
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}
	env, err := wire.DecodeEnvelope(full)
	if err != nil {
		t.Fatalf("DecodeEnvelope: %v", err)
	}
	return env
}

func register(t *testing.T, l *Loop, clientID string) *fakeSender {
	t.Helper()
	sender := newFakeSender(clientID)
	l.Connected(clientID, sender)
	l.Message(clientID, envelope(t, wire.TypeRegister, wire.RegisterMsg{}))
	return sender
}

func TestMessageRejectsActionsBeforeRegister(t *testing.T) {
	l := testLoop(t)
	sender := newFakeSender("c1")
	l.Connected("c1", sender)

	l.Message("c1", envelope(t, wire.TypeJoinQueue, wire.JoinQueueMsg{}))

	if len(sender.sent) != 1 {
		t.Fatalf("sent %d frames, want exactly one NOT_REGISTERED error", len(sender.sent))
	}
	errFrame, ok := sender.sent[0].(wire.ErrorFrame)
	if !ok || errFrame.Code != wire.ErrNotRegistered {
		t.Errorf("frame = %#v, want a NOT_REGISTERED ErrorFrame", sender.sent[0])
	}
}

func TestRegisterThenJoinQueueAcknowledged(t *testing.T) {
	l := testLoop(t)
	sender := register(t, l, "c1")
	if sender.lastType() != "REGISTERED" {
		t.Fatalf("REGISTER response = %s, want REGISTERED", sender.lastType())
	}

	l.Message("c1", envelope(t, wire.TypeJoinQueue, wire.JoinQueueMsg{}))
	if sender.lastType() != "QUEUE_STATUS" {
		t.Errorf("JOIN_QUEUE response = %s, want QUEUE_STATUS", sender.lastType())
	}
}

func TestJoinQueuePairsTwoWaitingPlayers(t *testing.T) {
	l := testLoop(t)
	s1 := register(t, l, "c1")
	s2 := register(t, l, "c2")

	l.Message("c1", envelope(t, wire.TypeJoinQueue, wire.JoinQueueMsg{}))
	if s1.lastType() != "QUEUE_STATUS" {
		t.Fatalf("c1 JOIN_QUEUE (alone) = %s, want QUEUE_STATUS", s1.lastType())
	}

	l.Message("c2", envelope(t, wire.TypeJoinQueue, wire.JoinQueueMsg{}))
	if s1.lastType() != "MATCH_FOUND" {
		t.Errorf("c1 final message = %s, want MATCH_FOUND once paired", s1.lastType())
	}
	if s2.lastType() != "MATCH_FOUND" {
		t.Errorf("c2 final message = %s, want MATCH_FOUND once paired", s2.lastType())
	}
}

func TestUnknownMessageTypeIsDroppedSilently(t *testing.T) {
	l := testLoop(t)
	sender := register(t, l, "c1")
	before := len(sender.sent)

	raw := []byte(`{"type":"SOMETHING_MADE_UP"}`)
	env, err := wire.DecodeEnvelope(raw)
	if err != nil {
		t.Fatalf("DecodeEnvelope: %v", err)
	}
	l.Message("c1", env)

	if len(sender.sent) != before {
		t.Errorf("unknown message type produced %d new frames, want 0 (dropped silently, just logged)", len(sender.sent)-before)
	}
}

func TestPingReceivesPong(t *testing.T) {
	l := testLoop(t)
	sender := register(t, l, "c1")
	l.Message("c1", envelope(t, wire.TypePing, wire.PingMsg{}))
	if sender.lastType() != "PONG" {
		t.Errorf("PING response = %s, want PONG", sender.lastType())
	}
}

func TestLeaveQueueWithoutJoiningErrors(t *testing.T) {
	l := testLoop(t)
	sender := register(t, l, "c1")
	l.Message("c1", envelope(t, wire.TypeLeaveQueue, wire.LeaveQueueMsg{}))
	errFrame, ok := sender.sent[len(sender.sent)-1].(wire.ErrorFrame)
	if !ok || errFrame.Code != wire.ErrNotInQueue {
		t.Errorf("LEAVE_QUEUE without joining = %#v, want NOT_IN_QUEUE error", sender.sent[len(sender.sent)-1])
	}
}

func TestDisconnectedDropsQueueMembership(t *testing.T) {
	l := testLoop(t)
	register(t, l, "c1")
	l.Message("c1", envelope(t, wire.TypeJoinQueue, wire.JoinQueueMsg{}))

	l.Disconnected("c1")

	if _, _, ok := l.queue.Position("c1"); ok {
		t.Errorf("c1 still in queue after Disconnected")
	}
}

func TestStatsReflectsLiveConnectionsAndQueue(t *testing.T) {
	l := testLoop(t)
	register(t, l, "c1")
	register(t, l, "c2")
	l.Message("c1", envelope(t, wire.TypeJoinQueue, wire.JoinQueueMsg{}))

	stats := l.Stats()
	if stats.Connections != 2 {
		t.Errorf("Connections = %d, want 2", stats.Connections)
	}
	if stats.QueueLen != 1 {
		t.Errorf("QueueLen = %d, want 1 (c2 hasn't joined yet)", stats.QueueLen)
	}
}
