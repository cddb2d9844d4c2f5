package vaultkv

import (
	"context"
	"fmt"

	"github.com/cloudya/vaultops/internal/logging"
)

// HealthStatus summarizes the Vault server's health endpoint.
type HealthStatus struct {
	Initialized bool
	Sealed      bool
	Standby     bool
	Version     string
}

// Health queries the Vault health endpoint.
func (c *Client) Health(ctx context.Context) (*HealthStatus, error) {
	resp, err := c.api.Sys().HealthWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("vault health check failed: %w", err)
	}
	return &HealthStatus{
		Initialized: resp.Initialized,
		Sealed:      resp.Sealed,
		Standby:     resp.Standby,
		Version:     resp.Version,
	}, nil
}

// PutPolicy creates or updates a named policy from HCL rules.
func (c *Client) PutPolicy(ctx context.Context, name, rules string) error {
	if err := c.api.Sys().PutPolicyWithContext(ctx, name, rules); err != nil {
		return fmt.Errorf("failed to write policy %s: %w", name, err)
	}
	c.logger.Info("updated policy: %s", name)
	return nil
}

// GetPolicy reads a named policy. Returns an empty string when the policy
// does not exist.
func (c *Client) GetPolicy(ctx context.Context, name string) (string, error) {
	rules, err := c.api.Sys().GetPolicyWithContext(ctx, name)
	if err != nil {
		return "", fmt.Errorf("failed to read policy %s: %w", name, err)
	}
	return rules, nil
}

// AppRoleCredentials are the issued credentials for an AppRole.
type AppRoleCredentials struct {
	RoleID   string
	SecretID string
}

// EnsureAppRole creates or updates an AppRole bound to the given policies
// and issues a fresh secret ID for it.
func (c *Client) EnsureAppRole(ctx context.Context, name string, policies []string) (*AppRoleCredentials, error) {
	rolePath := "auth/approle/role/" + name
	_, err := c.api.Logical().WriteWithContext(ctx, rolePath, map[string]interface{}{
		"token_policies": policies,
		"token_ttl":      "1h",
		"token_max_ttl":  "24h",
		"secret_id_ttl":  "10m",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create approle %s: %w", name, err)
	}

	roleID, err := c.ReadRoleID(ctx, name)
	if err != nil {
		return nil, err
	}

	secretResp, err := c.api.Logical().WriteWithContext(ctx, rolePath+"/secret-id", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to generate secret id for %s: %w", name, err)
	}
	secretID, _ := secretResp.Data["secret_id"].(string)
	if secretID == "" {
		return nil, fmt.Errorf("vault returned no secret id for %s", name)
	}

	c.logger.Info("created approle: %s", name)
	c.logger.Debug("secret id issued for %s: %s", name, logging.Secret(secretID))

	return &AppRoleCredentials{RoleID: roleID, SecretID: secretID}, nil
}

// ReadRoleID reads the role ID of an existing AppRole.
func (c *Client) ReadRoleID(ctx context.Context, name string) (string, error) {
	resp, err := c.api.Logical().ReadWithContext(ctx, "auth/approle/role/"+name+"/role-id")
	if err != nil {
		return "", fmt.Errorf("failed to read role id for %s: %w", name, err)
	}
	if resp == nil || resp.Data == nil {
		return "", fmt.Errorf("approle %s not found", name)
	}
	roleID, _ := resp.Data["role_id"].(string)
	if roleID == "" {
		return "", fmt.Errorf("approle %s has no role id", name)
	}
	return roleID, nil
}

// LoginAppRole exchanges AppRole credentials for a client token and installs
// it on the client.
func (c *Client) LoginAppRole(ctx context.Context, roleID, secretID string) (string, error) {
	resp, err := c.api.Logical().WriteWithContext(ctx, "auth/approle/login", map[string]interface{}{
		"role_id":   roleID,
		"secret_id": secretID,
	})
	if err != nil {
		return "", fmt.Errorf("approle login failed: %w", err)
	}
	if resp == nil || resp.Auth == nil || resp.Auth.ClientToken == "" {
		return "", fmt.Errorf("approle login returned no token")
	}
	c.api.SetToken(resp.Auth.ClientToken)
	return resp.Auth.ClientToken, nil
}

// VerifyToken confirms the current token is valid via a self lookup.
func (c *Client) VerifyToken(ctx context.Context) error {
	if _, err := c.api.Auth().Token().LookupSelfWithContext(ctx); err != nil {
		return fmt.Errorf("token verification failed: %w", err)
	}
	return nil
}
