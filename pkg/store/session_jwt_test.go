package store

import (
	"testing"
	"time"
)

func TestJWTSessionRoundTrip(t *testing.T) {
	s, err := NewJWTSessionStore("test-secret", time.Hour, NewMemoryTokenRevoker())
	if err != nil {
		t.Fatalf("new session store: %v", err)
	}
	token, err := s.NewSession("user-1")
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	uid, ok, err := s.GetUserIDByToken(token)
	if err != nil {
		t.Fatalf("get user by token: %v", err)
	}
	if !ok || uid != "user-1" {
		t.Fatalf("expected user-1, got %q ok=%v", uid, ok)
	}
}

func TestJWTSessionRejectsGarbageAndWrongSecret(t *testing.T) {
	s, err := NewJWTSessionStore("test-secret", time.Hour, nil)
	if err != nil {
		t.Fatalf("new session store: %v", err)
	}
	if _, ok, _ := s.GetUserIDByToken("not-a-jwt"); ok {
		t.Fatalf("expected garbage token to be rejected")
	}

	other, err := NewJWTSessionStore("other-secret", time.Hour, nil)
	if err != nil {
		t.Fatalf("new session store: %v", err)
	}
	token, err := other.NewSession("user-1")
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	if _, ok, _ := s.GetUserIDByToken(token); ok {
		t.Fatalf("expected token signed with another secret to be rejected")
	}
}

func TestDeleteSessionRevokesToken(t *testing.T) {
	s, err := NewJWTSessionStore("test-secret", time.Hour, NewMemoryTokenRevoker())
	if err != nil {
		t.Fatalf("new session store: %v", err)
	}
	token, err := s.NewSession("user-1")
	if err != nil {
		t.Fatalf("new session: %v", err)
	}
	if err := s.DeleteSession(token); err != nil {
		t.Fatalf("delete session: %v", err)
	}
	if _, ok, err := s.GetUserIDByToken(token); err != nil || ok {
		t.Fatalf("expected revoked token to be rejected, ok=%v err=%v", ok, err)
	}
}
