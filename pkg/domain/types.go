package domain

import "time"

// User is a registered account. PasswordHash never leaves the server.
type User struct {
	ID           string    `json:"id"`
	FullName     string    `json:"fullName"`
	Email        string    `json:"email"`
	Bio          string    `json:"bio"`
	ProfilePic   string    `json:"profilePic,omitempty"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Reaction is one emoji attached to a message by one user.
// A message holds at most one reaction per (user, emoji) pair.
type Reaction struct {
	Emoji  string `json:"emoji"`
	UserID string `json:"userId"`
}

// Message is a direct message between two users. At least one of Text and
// Image is set. Seen flips true exactly once, by the receiver.
type Message struct {
	ID         string     `json:"id"`
	SenderID   string     `json:"senderId"`
	ReceiverID string     `json:"receiverId"`
	Text       string     `json:"text,omitempty"`
	Image      string     `json:"image,omitempty"`
	Seen       bool       `json:"seen"`
	Reactions  []Reaction `json:"reactions"`
	CreatedAt  time.Time  `json:"createdAt"`
}

// HasReaction reports whether the message carries a reaction from userID
// with the given emoji.
func (m Message) HasReaction(userID, emoji string) bool {
	for _, r := range m.Reactions {
		if r.UserID == userID && r.Emoji == emoji {
			return true
		}
	}
	return false
}

// IsParticipant reports whether userID is the sender or the receiver.
func (m Message) IsParticipant(userID string) bool {
	return m.SenderID == userID || m.ReceiverID == userID
}

// ToggleReaction flips the (userID, emoji) reaction in the list: present
// entries are removed, absent ones appended at the end. Order of the
// remaining reactions is preserved.
func ToggleReaction(reactions []Reaction, userID, emoji string) []Reaction {
	out := make([]Reaction, 0, len(reactions)+1)
	removed := false
	for _, r := range reactions {
		if r.UserID == userID && r.Emoji == emoji {
			removed = true
			continue
		}
		out = append(out, r)
	}
	if !removed {
		out = append(out, Reaction{Emoji: emoji, UserID: userID})
	}
	return out
}

// ReactionUpdate is pushed to both participants when a reaction toggles.
type ReactionUpdate struct {
	MessageID string     `json:"messageId"`
	Reactions []Reaction `json:"reactions"`
}
