package presence

import (
	"sort"
	"sync"
)

// Conn is the live connection handle registered for one user.
type Conn interface {
	Send(event string, payload any) error
	Close()
}

// Registry maps user IDs to their single live connection. It is rebuilt
// empty on every process start; nothing here is persisted.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]Conn
}

// NewRegistry initializes an empty registry.
func NewRegistry() *Registry {
	return &Registry{conns: make(map[string]Conn)}
}

// Register installs or replaces the connection for userID. A displaced
// connection is closed so the older client observes the takeover.
func (r *Registry) Register(userID string, c Conn) {
	r.mu.Lock()
	prev := r.conns[userID]
	r.conns[userID] = c
	r.mu.Unlock()
	if prev != nil && prev != c {
		prev.Close()
	}
}

// Unregister removes the mapping only when c is still the connection on
// record. A stale disconnect from an already-replaced connection must not
// evict the live newer one.
func (r *Registry) Unregister(userID string, c Conn) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.conns[userID] != c {
		return false
	}
	delete(r.conns, userID)
	return true
}

// Lookup returns the connection for userID, if any. No side effects.
func (r *Registry) Lookup(userID string) (Conn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.conns[userID]
	return c, ok
}

// Online returns the sorted set of currently registered user IDs.
func (r *Registry) Online() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.conns))
	for id := range r.conns {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Conns snapshots every live connection, for broadcasts.
func (r *Registry) Conns() []Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Conn, 0, len(r.conns))
	for _, c := range r.conns {
		out = append(out, c)
	}
	return out
}

// CloseAll closes every connection and empties the registry. Used on
// shutdown.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	conns := make([]Conn, 0, len(r.conns))
	for _, c := range r.conns {
		conns = append(conns, c)
	}
	r.conns = make(map[string]Conn)
	r.mu.Unlock()
	for _, c := range conns {
		c.Close()
	}
}
