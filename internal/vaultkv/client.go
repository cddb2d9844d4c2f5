package vaultkv

import (
	"context"
	"errors"
	"fmt"
	"strings"

	vault "github.com/hashicorp/vault/api"

	"github.com/cloudya/vaultops/internal/config"
	"github.com/cloudya/vaultops/internal/logging"
	"github.com/cloudya/vaultops/pkg/rotation"
)

// Client wraps the Vault API client for the KV v2 operations this tool
// performs. It implements rotation.Store.
type Client struct {
	api    *vault.Client
	mount  string
	logger *logging.Logger
}

// New builds a Vault client from the resolved configuration. The standard
// VAULT_* environment variables are honored by vault.DefaultConfig; explicit
// configuration fields override them.
func New(cfg config.VaultConfig, logger *logging.Logger) (*Client, error) {
	apiCfg := vault.DefaultConfig()
	if cfg.Address != "" {
		apiCfg.Address = cfg.Address
	}
	if cfg.CACert != "" || cfg.TLSSkip {
		tls := &vault.TLSConfig{CACert: cfg.CACert, Insecure: cfg.TLSSkip}
		if err := apiCfg.ConfigureTLS(tls); err != nil {
			return nil, fmt.Errorf("failed to configure TLS: %w", err)
		}
	}

	api, err := vault.NewClient(apiCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create vault client: %w", err)
	}

	if cfg.Token != "" {
		api.SetToken(cfg.Token)
	}
	if cfg.Namespace != "" {
		api.SetNamespace(cfg.Namespace)
	}

	mount := cfg.Mount
	if mount == "" {
		mount = "secret"
	}

	return &Client{api: api, mount: mount, logger: logger}, nil
}

// SetToken replaces the client token, e.g. after an AppRole login.
func (c *Client) SetToken(token string) {
	c.api.SetToken(token)
}

// Token returns the client token currently in use.
func (c *Client) Token() string {
	return c.api.Token()
}

// Read fetches the KV v2 record at path. Returns rotation.ErrNotFound when
// the path holds no record and a StoreUnavailableError for transport or
// auth failures, per the rotation.Store contract.
func (c *Client) Read(ctx context.Context, path string) (rotation.SecretRecord, error) {
	secret, err := c.api.KVv2(c.mount).Get(ctx, path)
	if err != nil {
		if errors.Is(err, vault.ErrSecretNotFound) {
			return nil, fmt.Errorf("%s: %w", path, rotation.ErrNotFound)
		}
		return nil, &rotation.StoreUnavailableError{Path: path, Err: err}
	}
	if secret == nil || secret.Data == nil {
		return nil, fmt.Errorf("%s: %w", path, rotation.ErrNotFound)
	}

	record := make(rotation.SecretRecord, len(secret.Data))
	for k, v := range secret.Data {
		record[k] = stringify(v)
	}
	return record, nil
}

// Write stores the record at path as a new KV v2 version.
func (c *Client) Write(ctx context.Context, path string, record rotation.SecretRecord) error {
	data := make(map[string]interface{}, len(record))
	for k, v := range record {
		data[k] = v
	}
	if _, err := c.api.KVv2(c.mount).Put(ctx, path, data); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	c.logger.Debug("wrote secret at %s/%s", c.mount, path)
	return nil
}

// List returns the child keys under a KV v2 path. Directory entries keep
// their trailing slash, as Vault reports them.
func (c *Client) List(ctx context.Context, path string) ([]string, error) {
	listPath := c.mount + "/metadata/" + strings.Trim(path, "/")
	secret, err := c.api.Logical().ListWithContext(ctx, listPath)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", path, err)
	}
	if secret == nil || secret.Data == nil {
		return nil, nil
	}

	raw, ok := secret.Data["keys"].([]interface{})
	if !ok {
		return nil, nil
	}
	keys := make([]string, 0, len(raw))
	for _, k := range raw {
		keys = append(keys, stringify(k))
	}
	return keys, nil
}

// stringify flattens a KV value to a string. Vault KV is schemaless, so
// numbers and booleans round-trip through their JSON rendering.
func stringify(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}
