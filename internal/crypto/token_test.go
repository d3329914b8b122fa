package crypto

import (
	"encoding/hex"
	"testing"
)

func TestNewVerificationToken(t *testing.T) {
	token, err := NewVerificationToken()
	if err != nil {
		t.Fatalf("token error: %v", err)
	}
	if len(token) != 40 {
		t.Fatalf("expected 40 hex chars, got %d", len(token))
	}
	if _, err := hex.DecodeString(token); err != nil {
		t.Fatalf("token is not hex: %v", err)
	}
}

func TestVerificationTokensAreUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		token, err := NewVerificationToken()
		if err != nil {
			t.Fatalf("token error: %v", err)
		}
		if seen[token] {
			t.Fatalf("duplicate token after %d draws", i)
		}
		seen[token] = true
	}
}
