package auth

import (
	"errors"
	"testing"
	"time"
)

func TestVerifierRoundTrip(t *testing.T) {
	v := NewVerifier("test-secret")

	token, err := v.Sign(Identity{UserID: "8a1f0c8e-0000-4000-8000-000000000001", Email: "p@example.com"}, time.Minute)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	identity, err := v.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if identity.UserID != "8a1f0c8e-0000-4000-8000-000000000001" || identity.Email != "p@example.com" {
		t.Fatalf("unexpected identity: %+v", identity)
	}
}

func TestVerifierRejectsForeignSecret(t *testing.T) {
	token, err := NewVerifier("other-secret").Sign(Identity{UserID: "u1"}, time.Minute)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	if _, err := NewVerifier("test-secret").Verify(token); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestVerifierRejectsExpiredToken(t *testing.T) {
	v := NewVerifier("test-secret")
	v.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	token, err := v.Sign(Identity{UserID: "u1"}, time.Minute)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	v.now = time.Now
	if _, err := v.Verify(token); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for expired token, got %v", err)
	}
}

func TestDisabledVerifierRejectsEverything(t *testing.T) {
	v := NewVerifier("")
	if v.Enabled() {
		t.Fatalf("empty secret must disable verifier")
	}
	if _, err := v.Verify("anything"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}
