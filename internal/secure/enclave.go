package secure

import (
	"sync"

	"github.com/awnumar/memguard"
)

// Buffer holds sensitive material, such as a Vault token or a decoded backup
// payload, encrypted at rest in memory. The enclave is mlocked where the
// platform allows it so the plaintext cannot be swapped to disk.
type Buffer struct {
	enclave *memguard.Enclave

	mu        sync.RWMutex
	destroyed bool
}

// NewBuffer seals data into a protected buffer. The caller keeps ownership of
// the input slice and should zero it after this returns.
func NewBuffer(data []byte) *Buffer {
	return &Buffer{enclave: memguard.NewEnclave(data)}
}

// NewBufferFromString seals a string value, typically a token read from the
// environment or the system keyring.
func NewBufferFromString(value string) *Buffer {
	return NewBuffer([]byte(value))
}

// With decrypts the buffer and passes the plaintext to fn. The plaintext is
// wiped as soon as fn returns, so fn must not retain the slice.
func (b *Buffer) With(fn func(data []byte) error) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.destroyed {
		return fn(nil)
	}

	locked, err := b.enclave.Open()
	if err != nil {
		return err
	}
	defer locked.Destroy()
	return fn(locked.Bytes())
}

// String decrypts the buffer and returns the plaintext as a string. Prefer
// With when the value only needs to be used transiently.
func (b *Buffer) String() (string, error) {
	var out string
	err := b.With(func(data []byte) error {
		out = string(data)
		return nil
	})
	return out, err
}

// Destroy drops the enclave and prevents further use. Idempotent; after
// Destroy, With sees an empty payload.
func (b *Buffer) Destroy() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.destroyed {
		return
	}
	b.enclave = nil
	b.destroyed = true
}

// Purge wipes all memguard state. Call from main on exit.
func Purge() {
	memguard.Purge()
}
