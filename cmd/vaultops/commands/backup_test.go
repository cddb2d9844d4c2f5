package commands

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloudya/vaultops/pkg/rotation"
)

// fakeTree is an in-memory secretTree for export tests.
type fakeTree struct {
	lists   map[string][]string
	records map[string]rotation.SecretRecord
}

func (f *fakeTree) Read(ctx context.Context, path string) (rotation.SecretRecord, error) {
	rec, ok := f.records[path]
	if !ok {
		return nil, rotation.ErrNotFound
	}
	return rec, nil
}

func (f *fakeTree) List(ctx context.Context, path string) ([]string, error) {
	return f.lists[path], nil
}

func TestCollectApplications(t *testing.T) {
	t.Parallel()

	tree := &fakeTree{
		lists: map[string][]string{
			"applications":        {"web/", "worker/"},
			"applications/web":    {"production", "production/", "staging"},
			"applications/worker": {"production"},
		},
		records: map[string]rotation.SecretRecord{
			"applications/web/production":    {"api_key": "k1"},
			"applications/web/staging":       {"api_key": "k2"},
			"applications/worker/production": {"queue_password": "p1"},
		},
	}

	records, err := collectApplications(context.Background(), tree)
	require.NoError(t, err)

	require.Len(t, records, 3)
	assert.Equal(t, "k1", records["applications/web/production"]["api_key"])
	assert.Equal(t, "k2", records["applications/web/staging"]["api_key"])
	assert.Equal(t, "p1", records["applications/worker/production"]["queue_password"])
}

func TestCollectApplicationsSkipsBackupSubtrees(t *testing.T) {
	t.Parallel()

	tree := &fakeTree{
		lists: map[string][]string{
			"applications":     {"web/"},
			"applications/web": {"production", "production/"},
		},
		records: map[string]rotation.SecretRecord{
			"applications/web/production": {"api_key": "k1"},
		},
	}

	records, err := collectApplications(context.Background(), tree)
	require.NoError(t, err)

	require.Len(t, records, 1)
	assert.Contains(t, records, "applications/web/production")
}

func TestRecordFromBackupFileSingleEnvironment(t *testing.T) {
	t.Parallel()

	doc := backupDocument{
		App:         "web",
		Environment: "production",
		TakenAt:     time.Now(),
		Secrets:     rotation.SecretRecord{"api_key": "k1"},
	}

	record, err := recordFromBackupFile(doc, "web", "production")
	require.NoError(t, err)
	assert.Equal(t, "k1", record["api_key"])
}

func TestRecordFromBackupFileWrongEnvironment(t *testing.T) {
	t.Parallel()

	doc := backupDocument{
		App:         "web",
		Environment: "staging",
		Secrets:     rotation.SecretRecord{"api_key": "k1"},
	}

	_, err := recordFromBackupFile(doc, "web", "production")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "web/staging")
}

func TestRecordFromBackupFileArchive(t *testing.T) {
	t.Parallel()

	doc := backupDocument{
		TakenAt: time.Now(),
		Records: map[string]rotation.SecretRecord{
			"applications/web/production":    {"api_key": "k1"},
			"applications/worker/production": {"queue_password": "p1"},
		},
	}

	record, err := recordFromBackupFile(doc, "worker", "production")
	require.NoError(t, err)
	assert.Equal(t, "p1", record["queue_password"])
}

func TestRecordFromBackupFileArchiveMissingEnvironment(t *testing.T) {
	t.Parallel()

	doc := backupDocument{
		Records: map[string]rotation.SecretRecord{
			"applications/web/production": {"api_key": "k1"},
		},
	}

	_, err := recordFromBackupFile(doc, "web", "staging")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no record for web/staging")
}
