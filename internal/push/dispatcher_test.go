package push

import (
	"errors"
	"sync"
	"testing"
	"time"

	"chatwire/internal/presence"
	"chatwire/pkg/domain"
)

type recordConn struct {
	mu     sync.Mutex
	events []string
	fail   bool
}

func (r *recordConn) Send(event string, payload any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail {
		return errors.New("boom")
	}
	r.events = append(r.events, event)
	return nil
}

func (r *recordConn) Close() {}

func (r *recordConn) received() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	copy(out, r.events)
	return out
}

func TestDeliverNewMessageOnlyWhenConnected(t *testing.T) {
	reg := presence.NewRegistry()
	d := NewDispatcher(reg)

	msg := domain.Message{ID: "m1", SenderID: "u1", ReceiverID: "u2", Text: "hi", CreatedAt: time.Now()}

	// Receiver offline: nothing happens, nothing panics.
	d.DeliverNewMessage(msg)

	receiver := &recordConn{}
	reg.Register("u2", receiver)
	d.DeliverNewMessage(msg)

	got := receiver.received()
	if len(got) != 1 || got[0] != EventNewMessage {
		t.Fatalf("expected one newMessage event, got %v", got)
	}
}

func TestDeliverNewMessageSwallowsSendFailure(t *testing.T) {
	reg := presence.NewRegistry()
	d := NewDispatcher(reg)
	reg.Register("u2", &recordConn{fail: true})

	// Must not panic or surface the error.
	d.DeliverNewMessage(domain.Message{ID: "m1", ReceiverID: "u2"})
}

func TestDeliverReactionUpdateReachesBothParticipants(t *testing.T) {
	reg := presence.NewRegistry()
	d := NewDispatcher(reg)

	sender := &recordConn{}
	receiver := &recordConn{}
	bystander := &recordConn{}
	reg.Register("u1", sender)
	reg.Register("u2", receiver)
	reg.Register("u3", bystander)

	d.DeliverReactionUpdate(domain.ReactionUpdate{MessageID: "m1"}, "u1", "u2")

	if got := sender.received(); len(got) != 1 || got[0] != EventMessageReaction {
		t.Fatalf("sender expected reaction event, got %v", got)
	}
	if got := receiver.received(); len(got) != 1 || got[0] != EventMessageReaction {
		t.Fatalf("receiver expected reaction event, got %v", got)
	}
	if got := bystander.received(); len(got) != 0 {
		t.Fatalf("bystander must not receive participant events, got %v", got)
	}
}

func TestBroadcastPresenceReachesEveryConnection(t *testing.T) {
	reg := presence.NewRegistry()
	d := NewDispatcher(reg)

	a := &recordConn{}
	b := &recordConn{}
	reg.Register("u1", a)
	reg.Register("u2", b)

	d.BroadcastPresence()

	for name, c := range map[string]*recordConn{"a": a, "b": b} {
		if got := c.received(); len(got) != 1 || got[0] != EventOnlineUsers {
			t.Fatalf("conn %s expected onlineUsers event, got %v", name, got)
		}
	}
}
