package commands

import (
	"context"
	"errors"
	"fmt"
	"path"
	"sort"

	"github.com/cloudya/vaultops/internal/config"
	"github.com/cloudya/vaultops/internal/consulsd"
	"github.com/cloudya/vaultops/internal/keyring"
	"github.com/cloudya/vaultops/internal/nomadjob"
	"github.com/cloudya/vaultops/internal/promquery"
	"github.com/cloudya/vaultops/internal/vaultkv"
	"github.com/cloudya/vaultops/pkg/rotation"
)

// cmdContext is the root context for command execution.
func cmdContext() context.Context {
	return context.Background()
}

// secretPath maps an application and environment onto its KV v2 location.
func secretPath(app, environment string) string {
	return path.Join("applications", app, environment)
}

// newVaultClient loads the configuration and builds a Vault client. When no
// token is configured, the system keyring cache from a previous login is
// consulted.
func newVaultClient(cfg *config.Config) (*vaultkv.Client, error) {
	if err := cfg.Load(); err != nil {
		return nil, err
	}

	client, err := vaultkv.New(cfg.Definition.Vault, cfg.Logger)
	if err != nil {
		return nil, err
	}

	if client.Token() == "" {
		cache := keyring.NewTokenCache(cfg.Logger)
		buf, err := cache.Lookup(cfg.Definition.Vault.Address)
		switch {
		case err == nil:
			defer buf.Destroy()
			token, err := buf.String()
			if err != nil {
				return nil, err
			}
			client.SetToken(token)
			cfg.Logger.Debug("Using cached token from system keyring")
		case !errors.Is(err, keyring.ErrNoToken):
			cfg.Logger.Warn("Keyring lookup failed: %v", err)
		}
	}
	return client, nil
}

func newConsulClient(cfg *config.Config) (*consulsd.Client, error) {
	if err := cfg.Load(); err != nil {
		return nil, err
	}
	return consulsd.New(cfg.Definition.Consul, cfg.Logger)
}

func newNomadClient(cfg *config.Config) (*nomadjob.Client, error) {
	if err := cfg.Load(); err != nil {
		return nil, err
	}
	return nomadjob.New(cfg.Definition.Nomad, cfg.Logger)
}

func newPrometheusClient(cfg *config.Config) (*promquery.Client, error) {
	if err := cfg.Load(); err != nil {
		return nil, err
	}
	return promquery.New(cfg.Definition.Prometheus, cfg.Logger)
}

// newManager builds a rotation manager over a secret store with the
// configured generation tuning.
func newManager(cfg *config.Config, store rotation.Store) *rotation.Manager {
	rc := cfg.Definition.Rotation
	return rotation.NewManager(store, cfg.Logger, rotation.Options{
		PasswordLength:  rc.PasswordLength,
		PasswordCharset: rc.Charset,
		TokenBytes:      rc.TokenBytes,
		APIKeyPrefix:    rc.APIKeyPrefix,
	})
}

// sortedKeys returns a record's field names in stable order for display.
func sortedKeys(record rotation.SecretRecord) []string {
	keys := make([]string, 0, len(record))
	for key := range record {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// printFields lists a record's field names without values.
func printFields(record rotation.SecretRecord) {
	for _, key := range sortedKeys(record) {
		fmt.Printf("  %s\n", key)
	}
}
