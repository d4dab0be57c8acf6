package store

import "chatwire/pkg/domain"

// Store defines persistence operations for users and messages.
type Store interface {
	// users
	SaveUser(domain.User) error
	HasUserEmail(email string) (bool, error)
	GetUserByEmail(email string) (domain.User, bool, error)
	GetUserByID(id string) (domain.User, bool, error)
	ListUsersExcept(id string) ([]domain.User, error)

	// messages
	CreateMessage(domain.Message) error
	GetMessage(id string) (domain.Message, bool, error)

	// FetchConversation returns the full history between viewer and peer in
	// creation order. Unseen messages from peer to viewer are flipped to seen
	// in the same transaction, so returned rows already reflect the flip.
	FetchConversation(viewerID, peerID string) ([]domain.Message, error)

	// MarkMessageSeen flips one message to seen. It reports false when the
	// message does not exist, is not addressed to receiverID, or is already
	// seen; in all of those cases nothing changes.
	MarkMessageSeen(messageID, receiverID string) (bool, error)

	// CountUnseen returns, per sender, the number of unseen messages
	// addressed to receiverID. Computed from the rows on every call.
	CountUnseen(receiverID string) (map[string]int, error)

	// ToggleReaction applies set-toggle semantics for (userID, emoji) on one
	// message atomically and returns the updated list. The bool reports
	// whether the message exists.
	ToggleReaction(messageID, userID, emoji string) ([]domain.Reaction, bool, error)
}

// SessionStore issues and validates bearer session tokens.
type SessionStore interface {
	NewSession(userID string) (string, error)
	GetUserIDByToken(token string) (string, bool, error)
	DeleteSession(token string) error
}
