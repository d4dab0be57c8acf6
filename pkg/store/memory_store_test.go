package store

import (
	"testing"
	"time"

	"chatwire/pkg/domain"
)

func seedPair(t *testing.T) *MemoryStore {
	t.Helper()
	s := NewMemoryStore()
	base := time.Now().UTC()
	msgs := []domain.Message{
		{ID: "m1", SenderID: "u1", ReceiverID: "u2", Text: "hi", CreatedAt: base},
		{ID: "m2", SenderID: "u2", ReceiverID: "u1", Text: "hey", CreatedAt: base.Add(time.Second)},
		{ID: "m3", SenderID: "u1", ReceiverID: "u2", Text: "how are you", CreatedAt: base.Add(2 * time.Second)},
	}
	for _, m := range msgs {
		if err := s.CreateMessage(m); err != nil {
			t.Fatalf("create message %s: %v", m.ID, err)
		}
	}
	return s
}

func TestFetchConversationFlipsSeen(t *testing.T) {
	s := seedPair(t)

	counts, err := s.CountUnseen("u2")
	if err != nil {
		t.Fatalf("count unseen: %v", err)
	}
	if counts["u1"] != 2 {
		t.Fatalf("expected 2 unseen from u1, got %d", counts["u1"])
	}

	history, err := s.FetchConversation("u2", "u1")
	if err != nil {
		t.Fatalf("fetch conversation: %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(history))
	}
	for _, m := range history {
		if m.SenderID == "u1" && !m.Seen {
			t.Fatalf("message %s from u1 should be seen after fetch", m.ID)
		}
	}
	// m2 is from u2's own hand; fetching as u2 must not touch it.
	m2, _, _ := s.GetMessage("m2")
	if m2.Seen {
		t.Fatalf("viewer's own message must stay unseen for its receiver")
	}

	counts, err = s.CountUnseen("u2")
	if err != nil {
		t.Fatalf("count unseen after fetch: %v", err)
	}
	if counts["u1"] != 0 {
		t.Fatalf("expected 0 unseen from u1 after fetch, got %d", counts["u1"])
	}
}

func TestMarkMessageSeenGuards(t *testing.T) {
	s := seedPair(t)

	ok, err := s.MarkMessageSeen("m1", "u2")
	if err != nil || !ok {
		t.Fatalf("expected receiver mark to succeed, ok=%v err=%v", ok, err)
	}
	// Already seen: no-op failure.
	ok, err = s.MarkMessageSeen("m1", "u2")
	if err != nil || ok {
		t.Fatalf("expected repeat mark to report failure, ok=%v err=%v", ok, err)
	}
	// Sender cannot mark own outgoing message.
	ok, err = s.MarkMessageSeen("m3", "u1")
	if err != nil || ok {
		t.Fatalf("expected non-receiver mark to report failure, ok=%v err=%v", ok, err)
	}
	// Unknown message.
	ok, err = s.MarkMessageSeen("nope", "u2")
	if err != nil || ok {
		t.Fatalf("expected unknown message mark to report failure, ok=%v err=%v", ok, err)
	}
}

func TestToggleReactionInvolution(t *testing.T) {
	s := seedPair(t)

	reactions, found, err := s.ToggleReaction("m1", "u2", "👍")
	if err != nil || !found {
		t.Fatalf("toggle on: found=%v err=%v", found, err)
	}
	if len(reactions) != 1 || reactions[0].Emoji != "👍" || reactions[0].UserID != "u2" {
		t.Fatalf("unexpected reactions after toggle on: %+v", reactions)
	}

	// Distinct emoji from the same user coexists.
	reactions, _, err = s.ToggleReaction("m1", "u2", "🎉")
	if err != nil {
		t.Fatalf("toggle second emoji: %v", err)
	}
	if len(reactions) != 2 {
		t.Fatalf("expected 2 reactions, got %d", len(reactions))
	}

	// Toggling the first emoji again removes only that entry.
	reactions, _, err = s.ToggleReaction("m1", "u2", "👍")
	if err != nil {
		t.Fatalf("toggle off: %v", err)
	}
	if len(reactions) != 1 || reactions[0].Emoji != "🎉" {
		t.Fatalf("unexpected reactions after toggle off: %+v", reactions)
	}

	if _, found, _ := s.ToggleReaction("missing", "u2", "👍"); found {
		t.Fatalf("expected toggle on unknown message to report not found")
	}
}

func TestSaveUserEmailIndex(t *testing.T) {
	s := NewMemoryStore()
	u := domain.User{ID: "u1", Email: "a@example.com", FullName: "A"}
	if err := s.SaveUser(u); err != nil {
		t.Fatalf("save user: %v", err)
	}
	u.Email = "b@example.com"
	if err := s.SaveUser(u); err != nil {
		t.Fatalf("update user: %v", err)
	}
	if ok, _ := s.HasUserEmail("a@example.com"); ok {
		t.Fatalf("old email should be released after update")
	}
	if ok, _ := s.HasUserEmail("b@example.com"); !ok {
		t.Fatalf("new email should be indexed")
	}
}
