package keyring

import (
	"testing"

	zkeyring "github.com/zalando/go-keyring"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloudya/vaultops/internal/logging"
)

func newTestCache(t *testing.T) *TokenCache {
	t.Helper()
	zkeyring.MockInit()
	return NewTokenCache(logging.New(false, true))
}

func TestStoreAndLookup(t *testing.T) {
	cache := newTestCache(t)

	require.NoError(t, cache.Store("https://vault.internal:8200", "hvs.token-a"))

	buf, err := cache.Lookup("https://vault.internal:8200")
	require.NoError(t, err)
	defer buf.Destroy()

	token, err := buf.String()
	require.NoError(t, err)
	assert.Equal(t, "hvs.token-a", token)
}

func TestLookupNormalizesTrailingSlash(t *testing.T) {
	cache := newTestCache(t)

	require.NoError(t, cache.Store("https://vault.internal:8200/", "hvs.token-b"))

	buf, err := cache.Lookup("https://vault.internal:8200")
	require.NoError(t, err)
	defer buf.Destroy()

	token, err := buf.String()
	require.NoError(t, err)
	assert.Equal(t, "hvs.token-b", token)
}

func TestLookupMissing(t *testing.T) {
	cache := newTestCache(t)

	_, err := cache.Lookup("https://other.internal:8200")
	assert.ErrorIs(t, err, ErrNoToken)
}

func TestDeleteIsIdempotent(t *testing.T) {
	cache := newTestCache(t)

	require.NoError(t, cache.Store("https://vault.internal:8200", "hvs.token-c"))
	require.NoError(t, cache.Delete("https://vault.internal:8200"))
	assert.NoError(t, cache.Delete("https://vault.internal:8200"))

	_, err := cache.Lookup("https://vault.internal:8200")
	assert.ErrorIs(t, err, ErrNoToken)
}
