package crypto

import (
	"errors"
	"strings"
	"testing"
)

func TestHashAndCompare(t *testing.T) {
	hash, err := HashPassword("secret1")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if string(hash) == "secret1" {
		t.Fatalf("hash must not equal plaintext")
	}
	if err := ComparePassword(hash, "secret1"); err != nil {
		t.Fatalf("expected match, got %v", err)
	}
	if err := ComparePassword(hash, "secret2"); !errors.Is(err, ErrMismatch) {
		t.Fatalf("expected ErrMismatch, got %v", err)
	}
}

func TestHashesAreSalted(t *testing.T) {
	a, err := HashPassword("same-password")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	b, err := HashPassword("same-password")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if string(a) == string(b) {
		t.Fatalf("expected distinct salted hashes")
	}
}

func TestHashRejectsOverlongPassword(t *testing.T) {
	if _, err := HashPassword(strings.Repeat("x", MaxPasswordBytes+1)); err == nil {
		t.Fatalf("expected error for password longer than %d bytes", MaxPasswordBytes)
	}
}

func TestCompareOverlongPasswordIsMismatch(t *testing.T) {
	hash, err := HashPassword("secret1")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if err := ComparePassword(hash, strings.Repeat("a", MaxPasswordBytes+1)); !errors.Is(err, ErrMismatch) {
		t.Fatalf("expected ErrMismatch, got %v", err)
	}
}
