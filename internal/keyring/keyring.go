package keyring

import (
	"errors"
	"fmt"
	"strings"

	zkeyring "github.com/zalando/go-keyring"

	"github.com/cloudya/vaultops/internal/logging"
	"github.com/cloudya/vaultops/internal/secure"
)

// service namespaces our entries in the OS keyring.
const service = "vaultops"

// ErrNoToken is returned when no token has been cached for an address.
var ErrNoToken = errors.New("no cached token")

// TokenCache stores Vault tokens in the operating system keyring so a login
// survives across invocations without writing the token to disk.
type TokenCache struct {
	logger *logging.Logger
}

// NewTokenCache builds a token cache backed by the OS keyring.
func NewTokenCache(logger *logging.Logger) *TokenCache {
	return &TokenCache{logger: logger}
}

// Store saves a token for a Vault address, replacing any previous entry.
func (c *TokenCache) Store(address, token string) error {
	if err := zkeyring.Set(service, keyFor(address), token); err != nil {
		return fmt.Errorf("failed to store token in keyring: %w", err)
	}
	c.logger.Debug("Cached token for %s in system keyring", address)
	return nil
}

// Lookup returns the cached token for a Vault address, sealed in a locked
// buffer. The caller owns the buffer and should Destroy it after use.
func (c *TokenCache) Lookup(address string) (*secure.Buffer, error) {
	token, err := zkeyring.Get(service, keyFor(address))
	if errors.Is(err, zkeyring.ErrNotFound) {
		return nil, ErrNoToken
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read token from keyring: %w", err)
	}
	return secure.NewBufferFromString(token), nil
}

// Delete removes the cached token for a Vault address. Deleting an absent
// entry is not an error.
func (c *TokenCache) Delete(address string) error {
	err := zkeyring.Delete(service, keyFor(address))
	if errors.Is(err, zkeyring.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to delete token from keyring: %w", err)
	}
	return nil
}

// keyFor normalizes a Vault address into a stable keyring entry name.
func keyFor(address string) string {
	address = strings.TrimSuffix(address, "/")
	return "vault-token:" + address
}
