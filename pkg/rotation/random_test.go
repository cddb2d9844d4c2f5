package rotation

import (
	"strings"
	"testing"
)

func TestPasswordDefaults(t *testing.T) {
	pw, err := Password(0, "")
	if err != nil {
		t.Fatalf("Password failed: %v", err)
	}
	if len(pw) != DefaultPasswordLength {
		t.Errorf("expected length %d, got %d", DefaultPasswordLength, len(pw))
	}
	for _, c := range pw {
		if !strings.ContainsRune(DefaultPasswordCharset, c) {
			t.Errorf("character %q outside default charset", c)
		}
	}
}

func TestPasswordCustomCharset(t *testing.T) {
	pw, err := Password(64, "ab")
	if err != nil {
		t.Fatalf("Password failed: %v", err)
	}
	if len(pw) != 64 {
		t.Errorf("expected length 64, got %d", len(pw))
	}
	for _, c := range pw {
		if c != 'a' && c != 'b' {
			t.Errorf("unexpected character %q", c)
		}
	}
}

func TestPasswordsDiffer(t *testing.T) {
	a, err := Password(32, "")
	if err != nil {
		t.Fatal(err)
	}
	b, err := Password(32, "")
	if err != nil {
		t.Fatal(err)
	}
	if a == b {
		t.Error("two generated passwords are identical")
	}
}

func TestTokenLengthAndAlphabet(t *testing.T) {
	tok, err := Token(0)
	if err != nil {
		t.Fatalf("Token failed: %v", err)
	}
	// 32 bytes of entropy base64url-encode to 43 characters.
	if len(tok) < 32 {
		t.Errorf("token too short: %d chars", len(tok))
	}
	if strings.ContainsAny(tok, "+/=") {
		t.Errorf("token is not url-safe: %q", tok)
	}
}

func TestAPIKeyShape(t *testing.T) {
	key, err := APIKey("web-production", 0)
	if err != nil {
		t.Fatalf("APIKey failed: %v", err)
	}
	if !strings.HasPrefix(key, "web-production_") {
		t.Errorf("missing prefix: %q", key)
	}
	if len(key) <= len("web-production_")+31 {
		t.Errorf("token part too short: %q", key)
	}
}
