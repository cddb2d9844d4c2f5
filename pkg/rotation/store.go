package rotation

import (
	"context"
	"errors"
	"fmt"
)

// SecretRecord is a flat mapping of field name to field value, matching the
// schemaless shape of a KV v2 secret version.
type SecretRecord map[string]string

// Clone returns an independent copy of the record.
func (r SecretRecord) Clone() SecretRecord {
	out := make(SecretRecord, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Store is the key-value secret store a Manager rotates against.
//
// Read returns ErrNotFound (possibly wrapped) when no record exists at the
// path, and a StoreUnavailableError for transport or auth failures. Write is
// a full overwrite of the record at the path.
type Store interface {
	Read(ctx context.Context, path string) (SecretRecord, error)
	Write(ctx context.Context, path string, record SecretRecord) error
}

// ErrNotFound indicates that no record exists at the requested path.
var ErrNotFound = errors.New("secret not found")

// StoreUnavailableError indicates a transport or auth failure while reading
// from the store.
type StoreUnavailableError struct {
	Path string
	Err  error
}

func (e *StoreUnavailableError) Error() string {
	return fmt.Sprintf("secret store unavailable reading %s: %v", e.Path, e.Err)
}

func (e *StoreUnavailableError) Unwrap() error {
	return e.Err
}

// WriteStage identifies which of the two rotation writes failed.
type WriteStage string

const (
	// StageBackup is the snapshot write preceding the live update.
	StageBackup WriteStage = "backup"
	// StageUpdate is the overwrite of the live path.
	StageUpdate WriteStage = "update"
)

// WriteFailedError indicates a failed store write during rotation. When
// Stage is StageUpdate the backup at BackupPath was already written and the
// live path is unchanged; replaying Apply with the same Plan is safe.
type WriteFailedError struct {
	Stage      WriteStage
	Path       string
	BackupPath string
	Err        error
}

func (e *WriteFailedError) Error() string {
	if e.Stage == StageUpdate {
		return fmt.Sprintf("update write to %s failed (backup retained at %s): %v", e.Path, e.BackupPath, e.Err)
	}
	return fmt.Sprintf("backup write to %s failed, live secret untouched: %v", e.BackupPath, e.Err)
}

func (e *WriteFailedError) Unwrap() error {
	return e.Err
}
