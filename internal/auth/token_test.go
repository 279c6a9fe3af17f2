package auth

import (
	"testing"
	"time"
)

func TestSignAndVerifyRoundTrip(t *testing.T) {
	token, _, err := signToken("user-1", "user1@example.com", "secret", time.Minute)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	sub, err := VerifyToken(token, "secret")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if sub != "user-1" {
		t.Fatalf("expected subject user-1 got %s", sub)
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	token, _, err := signToken("user-1", "user1@example.com", "secret", time.Minute)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := VerifyToken(token, "other-secret"); err == nil {
		t.Fatal("expected verification failure with wrong secret")
	}
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	token, _, err := signToken("user-1", "user1@example.com", "secret", -time.Minute)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := VerifyToken(token, "secret"); err == nil {
		t.Fatal("expected verification failure for expired token")
	}
}

func TestVerifyRejectsGarbage(t *testing.T) {
	if _, err := VerifyToken("not-a-token", "secret"); err == nil {
		t.Fatal("expected verification failure for malformed token")
	}
}
