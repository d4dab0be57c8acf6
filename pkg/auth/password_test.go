package auth

import "testing"

func TestHashPasswordAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("s3cretPW")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	if hash == "" {
		t.Fatalf("expected non-empty hash")
	}
	if !CheckPassword("s3cretPW", hash) {
		t.Fatalf("expected bcrypt password check to pass")
	}
	if CheckPassword("wrong", hash) {
		t.Fatalf("expected bcrypt password check to fail")
	}
}

func TestHashPasswordSalted(t *testing.T) {
	a, err := HashPassword("SamePassword1")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	b, err := HashPassword("SamePassword1")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	if a == b {
		t.Fatalf("expected salted hashes to differ")
	}
}

func TestValidatePassword(t *testing.T) {
	if err := ValidatePassword("Str0ngPassword"); err != nil {
		t.Fatalf("expected valid password, got: %v", err)
	}
	if err := ValidatePassword("Sh0rt"); err == nil {
		t.Fatalf("expected short password to fail")
	}
	if err := ValidatePassword("alllowercase123"); err == nil {
		t.Fatalf("expected missing uppercase to fail")
	}
	if err := ValidatePassword("ALLUPPERCASE123"); err == nil {
		t.Fatalf("expected missing lowercase to fail")
	}
	if err := ValidatePassword("NoDigitsHere"); err == nil {
		t.Fatalf("expected missing digits to fail")
	}
}
