package token

import (
	"errors"
	"testing"
	"time"
)

func TestIssueThenInspect(t *testing.T) {
	s, err := NewSigner([]byte("secret"), time.Hour)
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}
	raw, err := s.Issue(7, "alice", "admin")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	c, err := Inspect(raw)
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	if c.UserID != 7 || c.Username != "alice" || !c.IsAdmin() {
		t.Fatalf("unexpected claims %+v", c)
	}
	if rem := c.Remaining(time.Now()); rem <= 55*time.Minute || rem > time.Hour {
		t.Fatalf("unexpected remaining lifetime %v", rem)
	}
}

func TestInspectIgnoresSignature(t *testing.T) {
	s, _ := NewSigner([]byte("server-secret"), time.Hour)
	raw, _ := s.Issue(1, "bob", "inspector")

	if _, err := Inspect(raw); err != nil {
		t.Fatalf("inspect must not need the secret: %v", err)
	}

	other, _ := NewSigner([]byte("another"), time.Hour)
	if _, err := other.Verify(raw); err == nil {
		t.Fatalf("verify with wrong secret must fail")
	}
}

func TestInspectRejectsGarbage(t *testing.T) {
	for _, raw := range []string{"", "   ", "not.a.jwt", "a.b"} {
		if _, err := Inspect(raw); !errors.Is(err, ErrMalformed) {
			t.Fatalf("Inspect(%q): expected ErrMalformed, got %v", raw, err)
		}
	}
}

func TestVerifyRejectsExpired(t *testing.T) {
	s, _ := NewSigner([]byte("secret"), time.Minute)
	issued := time.Now().Add(-2 * time.Minute)
	s.now = func() time.Time { return issued }
	raw, err := s.Issue(1, "bob", "inspector")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	s.now = time.Now
	if _, err := s.Verify(raw); err == nil {
		t.Fatalf("expected expired token to fail verification")
	}

	c, err := Inspect(raw)
	if err != nil {
		t.Fatalf("inspect expired: %v", err)
	}
	if c.Remaining(time.Now()) != 0 {
		t.Fatalf("expired token must report zero remaining")
	}
}

func TestExpiryMissing(t *testing.T) {
	var c *Claims
	if _, err := c.Expiry(); !errors.Is(err, ErrNoExpiry) {
		t.Fatalf("expected ErrNoExpiry, got %v", err)
	}
}
