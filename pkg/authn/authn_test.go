package authn

import "testing"

func TestParseBearerToken(t *testing.T) {
	tok, ok := ParseBearerToken("Bearer abc123")
	if !ok || tok != "abc123" {
		t.Fatalf("expected parsed token, got ok=%v token=%q", ok, tok)
	}

	if _, ok := ParseBearerToken("abc123"); ok {
		t.Fatal("expected parse failure without Bearer prefix")
	}
	if _, ok := ParseBearerToken("Bearer   "); ok {
		t.Fatal("expected parse failure for empty token")
	}
}

func TestHashTokenDeterministic(t *testing.T) {
	a := HashToken("token-1")
	b := HashToken("token-1")
	c := HashToken("token-2")
	if a != b {
		t.Fatalf("expected deterministic hash")
	}
	if a == c {
		t.Fatalf("expected different hashes for different tokens")
	}
}
