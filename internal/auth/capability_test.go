package auth

import (
	"testing"

	"golang.org/x/crypto/bcrypt"
)

func TestStaticKey(t *testing.T) {
	gate := NewStaticKey("hunter2")
	if !gate.Allow("hunter2") {
		t.Fatalf("expected the right key to pass")
	}
	if !gate.Allow("  hunter2  ") {
		t.Fatalf("expected surrounding whitespace to be ignored")
	}
	if gate.Allow("hunter3") || gate.Allow("") {
		t.Fatalf("expected wrong keys to fail")
	}
}

func TestStaticKeyEmptySecretDeniesAll(t *testing.T) {
	gate := NewStaticKey("   ")
	if gate.Allow("") || gate.Allow("anything") {
		t.Fatalf("an unconfigured gate must deny everything")
	}
}

func TestHashedKey(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	gate := NewHashedKey(string(hash))
	if !gate.Allow("hunter2") {
		t.Fatalf("expected the right key to pass")
	}
	if gate.Allow("hunter3") {
		t.Fatalf("expected the wrong key to fail")
	}

	empty := NewHashedKey("")
	if empty.Allow("hunter2") {
		t.Fatalf("an empty hash must deny everything")
	}
}
