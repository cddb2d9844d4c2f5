package commands

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cloudya/vaultops/internal/config"
)

func setupTestConfig() *config.Config {
	cfg := testConfig()
	cfg.Definition = &config.Definition{
		Vault: config.VaultConfig{Mount: "secret"},
	}
	return cfg
}

func TestBuildInitialRecord(t *testing.T) {
	t.Parallel()

	cfg := setupTestConfig()
	record, err := buildInitialRecord(cfg, setupOptions{
		app:         "web",
		environment: "production",
		dbHost:      "db.internal",
		dbPort:      5432,
	})
	require.NoError(t, err)

	for _, field := range []string{"database_url", "api_key", "encryption_key", "jwt_secret", "session_secret"} {
		assert.Contains(t, record, field)
		assert.NotEmpty(t, record[field])
	}

	assert.True(t, strings.HasPrefix(record["database_url"], "postgresql://web:"))
	assert.Contains(t, record["database_url"], "@db.internal:5432/web")
	assert.True(t, strings.HasPrefix(record["api_key"], "web-production_"))
}

func TestBuildInitialRecordDatabaseOverrides(t *testing.T) {
	t.Parallel()

	cfg := setupTestConfig()
	record, err := buildInitialRecord(cfg, setupOptions{
		app:         "web",
		environment: "staging",
		dbHost:      "pg.internal",
		dbPort:      5433,
		dbName:      "webdb",
		dbUser:      "svc_web",
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(record["database_url"], "postgresql://svc_web:"))
	assert.Contains(t, record["database_url"], "@pg.internal:5433/webdb")
}

func TestBuildInitialRecordExtraFields(t *testing.T) {
	t.Parallel()

	cfg := setupTestConfig()
	record, err := buildInitialRecord(cfg, setupOptions{
		app:         "worker",
		environment: "production",
		dbHost:      "localhost",
		dbPort:      5432,
		extraFields: []string{"queue_password"},
	})
	require.NoError(t, err)

	assert.Contains(t, record, "queue_password")
	assert.NotEmpty(t, record["queue_password"])
}

func TestAppPolicy(t *testing.T) {
	t.Parallel()

	rules := appPolicy("secret", "web", "production")

	assert.Contains(t, rules, `path "secret/data/applications/web/production"`)
	assert.Contains(t, rules, `path "secret/metadata/applications/web/production"`)
	assert.Contains(t, rules, `"read"`)
	assert.NotContains(t, rules, `"create"`)
	assert.NotContains(t, rules, `"update"`)
}
