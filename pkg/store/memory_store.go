package store

import (
	"sync"

	"chatwire/pkg/domain"
)

// MemoryStore keeps users and messages in-process. It mirrors GormStore
// semantics and backs the tests.
type MemoryStore struct {
	mu       sync.RWMutex
	users    map[string]domain.User
	email    map[string]string // email -> user ID
	messages map[string]domain.Message
	order    []string // message IDs in insertion order
}

// NewMemoryStore initializes an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:    make(map[string]domain.User),
		email:    make(map[string]string),
		messages: make(map[string]domain.Message),
	}
}

// SaveUser registers or updates a user.
func (m *MemoryStore) SaveUser(u domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if prev, ok := m.users[u.ID]; ok && prev.Email != u.Email {
		delete(m.email, prev.Email)
	}
	m.users[u.ID] = u
	m.email[u.Email] = u.ID
	return nil
}

// HasUserEmail checks if email exists.
func (m *MemoryStore) HasUserEmail(email string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.email[email]
	return ok, nil
}

// GetUserByEmail looks up a user by email.
func (m *MemoryStore) GetUserByEmail(email string) (domain.User, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if id, ok := m.email[email]; ok {
		u, exists := m.users[id]
		return u, exists, nil
	}
	return domain.User{}, false, nil
}

// GetUserByID returns a user by ID.
func (m *MemoryStore) GetUserByID(id string) (domain.User, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	return u, ok, nil
}

// ListUsersExcept returns all users other than id.
func (m *MemoryStore) ListUsersExcept(id string) ([]domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.User, 0, len(m.users))
	for _, u := range m.users {
		if u.ID != id {
			res = append(res, u)
		}
	}
	return res, nil
}

// CreateMessage records a message in insertion order.
func (m *MemoryStore) CreateMessage(msg domain.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if msg.Reactions == nil {
		msg.Reactions = []domain.Reaction{}
	}
	if _, exists := m.messages[msg.ID]; !exists {
		m.order = append(m.order, msg.ID)
	}
	m.messages[msg.ID] = msg
	return nil
}

// GetMessage retrieves one message.
func (m *MemoryStore) GetMessage(id string) (domain.Message, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	msg, ok := m.messages[id]
	return msg, ok, nil
}

// FetchConversation returns pair history in insertion order and flips the
// unseen peer->viewer messages under the same lock.
func (m *MemoryStore) FetchConversation(viewerID, peerID string) ([]domain.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	res := make([]domain.Message, 0)
	for _, id := range m.order {
		msg := m.messages[id]
		between := (msg.SenderID == viewerID && msg.ReceiverID == peerID) ||
			(msg.SenderID == peerID && msg.ReceiverID == viewerID)
		if !between {
			continue
		}
		if msg.SenderID == peerID && msg.ReceiverID == viewerID && !msg.Seen {
			msg.Seen = true
			m.messages[id] = msg
		}
		res = append(res, msg)
	}
	return res, nil
}

// MarkMessageSeen flips one unseen message addressed to receiverID.
func (m *MemoryStore) MarkMessageSeen(messageID, receiverID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg, ok := m.messages[messageID]
	if !ok || msg.ReceiverID != receiverID || msg.Seen {
		return false, nil
	}
	msg.Seen = true
	m.messages[messageID] = msg
	return true, nil
}

// CountUnseen groups unseen messages for receiverID by sender.
func (m *MemoryStore) CountUnseen(receiverID string) (map[string]int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	counts := make(map[string]int)
	for _, msg := range m.messages {
		if msg.ReceiverID == receiverID && !msg.Seen {
			counts[msg.SenderID]++
		}
	}
	return counts, nil
}

// ToggleReaction flips the (userID, emoji) entry on one message.
func (m *MemoryStore) ToggleReaction(messageID, userID, emoji string) ([]domain.Reaction, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg, ok := m.messages[messageID]
	if !ok {
		return nil, false, nil
	}
	msg.Reactions = domain.ToggleReaction(msg.Reactions, userID, emoji)
	m.messages[messageID] = msg
	return msg.Reactions, true, nil
}
