package presence

import (
	"sync"
	"testing"
)

type fakeConn struct {
	mu     sync.Mutex
	closed bool
}

func (f *fakeConn) Send(event string, payload any) error { return nil }

func (f *fakeConn) Close() {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
}

func (f *fakeConn) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func TestRegisterLookupUnregister(t *testing.T) {
	r := NewRegistry()
	c := &fakeConn{}

	r.Register("u1", c)
	if got, ok := r.Lookup("u1"); !ok || got != Conn(c) {
		t.Fatalf("expected lookup to return the registered connection")
	}
	if online := r.Online(); len(online) != 1 || online[0] != "u1" {
		t.Fatalf("unexpected online set: %v", online)
	}

	if !r.Unregister("u1", c) {
		t.Fatalf("expected unregister of current connection to succeed")
	}
	if _, ok := r.Lookup("u1"); ok {
		t.Fatalf("expected user to be absent after unregister")
	}
}

func TestReplacementClosesDisplacedConnection(t *testing.T) {
	r := NewRegistry()
	first := &fakeConn{}
	second := &fakeConn{}

	r.Register("u1", first)
	r.Register("u1", second)

	if !first.isClosed() {
		t.Fatalf("expected displaced connection to be closed")
	}
	if got, _ := r.Lookup("u1"); got != Conn(second) {
		t.Fatalf("expected second connection to be on record")
	}
}

func TestStaleDisconnectDoesNotEvictReplacement(t *testing.T) {
	r := NewRegistry()
	first := &fakeConn{}
	second := &fakeConn{}

	// Rapid reconnect: second registration lands before the first
	// connection's disconnect event arrives.
	r.Register("u1", first)
	r.Register("u1", second)

	if r.Unregister("u1", first) {
		t.Fatalf("stale unregister must be rejected")
	}
	if _, ok := r.Lookup("u1"); !ok {
		t.Fatalf("user must still be present after stale disconnect")
	}
	if online := r.Online(); len(online) != 1 || online[0] != "u1" {
		t.Fatalf("unexpected online set after stale disconnect: %v", online)
	}
}

func TestCloseAll(t *testing.T) {
	r := NewRegistry()
	a := &fakeConn{}
	b := &fakeConn{}
	r.Register("u1", a)
	r.Register("u2", b)

	r.CloseAll()

	if !a.isClosed() || !b.isClosed() {
		t.Fatalf("expected all connections closed")
	}
	if online := r.Online(); len(online) != 0 {
		t.Fatalf("expected empty registry, got %v", online)
	}
}
