package main

import (
	"encoding/hex"
	"testing"
)

func TestSessionTokenGenerator(t *testing.T) {
	generate := sessionTokenGenerator("test-secret")

	first := generate()
	second := generate()

	if first == second {
		t.Fatal("expected consecutive tokens to differ")
	}

	for _, token := range []string{first, second} {
		raw, err := hex.DecodeString(token)
		if err != nil {
			t.Fatalf("expected hex encoded token, got %q: %v", token, err)
		}
		if len(raw) != 32 {
			t.Fatalf("expected 32 byte digest, got %d bytes", len(raw))
		}
	}
}
