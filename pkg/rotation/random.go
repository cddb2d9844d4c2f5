package rotation

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"math/big"
)

const (
	// DefaultPasswordLength is the generated password length.
	DefaultPasswordLength = 32
	// DefaultPasswordCharset is the generated password alphabet.
	DefaultPasswordCharset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%^&*"
	// DefaultTokenBytes yields a 43-character url-safe token.
	DefaultTokenBytes = 32
)

// Password generates a cryptographically strong password of the given
// length drawn from charset. Zero or negative length and an empty charset
// fall back to the defaults.
func Password(length int, charset string) (string, error) {
	if length <= 0 {
		length = DefaultPasswordLength
	}
	if charset == "" {
		charset = DefaultPasswordCharset
	}

	max := big.NewInt(int64(len(charset)))
	out := make([]byte, length)
	for i := range out {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate password: %w", err)
		}
		out[i] = charset[n.Int64()]
	}
	return string(out), nil
}

// Token generates a url-safe random token from n bytes of entropy. Zero or
// negative n falls back to DefaultTokenBytes.
func Token(n int) (string, error) {
	if n <= 0 {
		n = DefaultTokenBytes
	}

	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// APIKey generates a key of the form <prefix>_<url-safe token>.
func APIKey(prefix string, tokenBytes int) (string, error) {
	token, err := Token(tokenBytes)
	if err != nil {
		return "", err
	}
	return prefix + "_" + token, nil
}
