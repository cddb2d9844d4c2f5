// Package secure provides memory-safe handling of sensitive data.
//
// It wraps the memguard library so tokens and backup payloads are:
//
//   - Encrypted at rest in memory (XSalsa20Poly1305)
//   - Protected from swapping via mlock
//   - Wiped as soon as the plaintext is no longer needed
//
// Typical use:
//
//	buf := secure.NewBufferFromString(token)
//	defer buf.Destroy()
//	err := buf.With(func(data []byte) error {
//	    return client.Authenticate(string(data))
//	})
//
// Call secure.Purge in main on exit to wipe all remaining enclaves.
package secure
