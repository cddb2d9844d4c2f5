package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cloudya/vaultops/internal/config"
	opserrors "github.com/cloudya/vaultops/internal/errors"
	"github.com/cloudya/vaultops/internal/keyring"
)

// NewLoginCommand creates the login command.
func NewLoginCommand(cfg *config.Config) *cobra.Command {
	var (
		roleID   string
		secretID string
		noCache  bool
		clear    bool
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authenticate to Vault via AppRole and cache the token",
		Long: `Log in to Vault using AppRole credentials and cache the issued token in
the operating system keyring. Later commands pick the cached token up
automatically when no VAULT_TOKEN is set.

Credentials come from --role-id/--secret-id or from the VAULT_ROLE_ID and
VAULT_SECRET_ID environment variables.

Examples:
  vaultops login --role-id 5f6e...-id --secret-id 9a1c...-id
  VAULT_ROLE_ID=... VAULT_SECRET_ID=... vaultops login
  vaultops login --clear`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if clear {
				return runLoginClear(cfg)
			}
			if roleID == "" {
				roleID = os.Getenv("VAULT_ROLE_ID")
			}
			if secretID == "" {
				secretID = os.Getenv("VAULT_SECRET_ID")
			}
			if roleID == "" || secretID == "" {
				return opserrors.UserError{
					Message:    "AppRole credentials are required",
					Suggestion: "Pass --role-id and --secret-id, or export VAULT_ROLE_ID and VAULT_SECRET_ID",
					Details:    "Credentials are issued by 'vaultops setup' or by your Vault administrator",
				}
			}
			return runLogin(cfg, roleID, secretID, noCache)
		},
	}

	cmd.Flags().StringVar(&roleID, "role-id", "", "AppRole role_id")
	cmd.Flags().StringVar(&secretID, "secret-id", "", "AppRole secret_id")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "Do not store the token in the system keyring")
	cmd.Flags().BoolVar(&clear, "clear", false, "Remove the cached token for the configured Vault address")

	return cmd
}

func runLogin(cfg *config.Config, roleID, secretID string, noCache bool) error {
	client, err := newVaultClient(cfg)
	if err != nil {
		return err
	}
	ctx := cmdContext()

	token, err := client.LoginAppRole(ctx, roleID, secretID)
	if err != nil {
		return err
	}
	if err := client.VerifyToken(ctx); err != nil {
		return err
	}
	cfg.Logger.Info("Authenticated to %s", cfg.Definition.Vault.Address)

	if noCache {
		fmt.Println(token)
		return nil
	}

	cache := keyring.NewTokenCache(cfg.Logger)
	if err := cache.Store(cfg.Definition.Vault.Address, token); err != nil {
		cfg.Logger.Warn("Could not cache token: %v", err)
		fmt.Println(token)
		return nil
	}
	cfg.Logger.Info("Token cached in system keyring")
	return nil
}

func runLoginClear(cfg *config.Config) error {
	if err := cfg.Load(); err != nil {
		return err
	}
	cache := keyring.NewTokenCache(cfg.Logger)
	if err := cache.Delete(cfg.Definition.Vault.Address); err != nil {
		return err
	}
	cfg.Logger.Info("Removed cached token for %s", cfg.Definition.Vault.Address)
	return nil
}
