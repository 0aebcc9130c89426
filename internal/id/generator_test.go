package id

import (
	"strings"
	"testing"
)

func TestInstance_UniqueForSamePrint(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		id := Instance("7c93d4e9-1fd8-4a10-8b1b-4b2b4e5f1a11")
		if seen[id] {
			t.Fatalf("duplicate instance id after %d draws: %s", i, id)
		}
		seen[id] = true
	}
}

func TestInstance_KeepsOriginalPrefix(t *testing.T) {
	id := Instance("abc")
	if !strings.HasPrefix(id, "abc-") {
		t.Errorf("expected prefix %q, got %q", "abc-", id)
	}
}

func TestInstance_EmptyOriginalGetsFallback(t *testing.T) {
	a := Instance("")
	b := Instance("")
	if !strings.HasPrefix(a, "anon-") {
		t.Errorf("expected anon- prefix, got %q", a)
	}
	if a == b {
		t.Errorf("fallback ids should differ: %q", a)
	}
}
