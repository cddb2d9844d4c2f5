package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/cloudya/vaultops/internal/config"
	opserrors "github.com/cloudya/vaultops/internal/errors"
	"github.com/cloudya/vaultops/internal/vaultkv"
	"github.com/cloudya/vaultops/pkg/rotation"
)

// vaultAdmin is the slice of the Vault client that setup needs, kept small
// so tests can fake it.
type vaultAdmin interface {
	PutPolicy(ctx context.Context, name, rules string) error
	EnsureAppRole(ctx context.Context, name string, policies []string) (*vaultkv.AppRoleCredentials, error)
}

// NewSetupCommand creates the setup command.
func NewSetupCommand(cfg *config.Config) *cobra.Command {
	var (
		dbHost       string
		dbPort       int
		dbName       string
		dbUser       string
		skipAppRole  bool
		registerKV   bool
		extraFields  []string
	)

	cmd := &cobra.Command{
		Use:   "setup <app_name> <environment>",
		Short: "Create the initial secrets, policy and AppRole for an application",
		Long: `Provision a new application environment:

  1. Generate an initial secret record (database_url, api_key,
     encryption_key, jwt_secret, session_secret) and write it to
     applications/<app>/<environment>.
  2. Write a least-privilege Vault policy granting the application read
     access to its own secrets.
  3. Create an AppRole bound to that policy and print its credentials.
  4. Optionally publish the environment's metadata to Consul KV.

Existing records are never overwritten; setup fails if secrets already
exist at the target path.

Examples:
  vaultops setup web production --db-host db.internal --db-name web
  vaultops setup worker staging --skip-approle --field queue_password`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := setupOptions{
				app:         args[0],
				environment: args[1],
				dbHost:      dbHost,
				dbPort:      dbPort,
				dbName:      dbName,
				dbUser:      dbUser,
				skipAppRole: skipAppRole,
				registerKV:  registerKV,
				extraFields: extraFields,
			}
			return runSetup(cfg, opts)
		},
	}

	cmd.Flags().StringVar(&dbHost, "db-host", "localhost", "Database host for the generated connection string")
	cmd.Flags().IntVar(&dbPort, "db-port", 5432, "Database port")
	cmd.Flags().StringVar(&dbName, "db-name", "", "Database name (default: app name)")
	cmd.Flags().StringVar(&dbUser, "db-user", "", "Database user (default: app name)")
	cmd.Flags().BoolVar(&skipAppRole, "skip-approle", false, "Skip policy and AppRole creation")
	cmd.Flags().BoolVar(&registerKV, "register-consul", false, "Publish environment metadata to Consul KV")
	cmd.Flags().StringSliceVar(&extraFields, "field", nil, "Additional secret field(s) to generate")

	return cmd
}

type setupOptions struct {
	app, environment       string
	dbHost                 string
	dbPort                 int
	dbName, dbUser         string
	skipAppRole            bool
	registerKV             bool
	extraFields            []string
}

func runSetup(cfg *config.Config, opts setupOptions) error {
	client, err := newVaultClient(cfg)
	if err != nil {
		return err
	}
	ctx := cmdContext()
	path := secretPath(opts.app, opts.environment)

	if _, err := client.Read(ctx, path); err == nil {
		return opserrors.UserError{
			Message:    fmt.Sprintf("Secrets already exist at %s", path),
			Suggestion: fmt.Sprintf("Use 'vaultops rotate %s %s' to replace existing values", opts.app, opts.environment),
		}
	} else if !isNotFound(err) {
		return err
	}

	record, err := buildInitialRecord(cfg, opts)
	if err != nil {
		return err
	}

	if err := client.Write(ctx, path, record); err != nil {
		return err
	}
	cfg.Logger.Info("Wrote %d secret(s) to %s", len(record), path)
	printFields(record)

	if !opts.skipAppRole {
		if err := provisionAccess(cfg, client, opts); err != nil {
			return err
		}
	}

	if opts.registerKV {
		if err := publishMetadata(cfg, opts); err != nil {
			return err
		}
	}
	return nil
}

// buildInitialRecord generates the conventional secret set for a fresh
// environment.
func buildInitialRecord(cfg *config.Config, opts setupOptions) (rotation.SecretRecord, error) {
	rc := cfg.Definition.Rotation
	length := rc.PasswordLength
	if length <= 0 {
		length = rotation.DefaultPasswordLength
	}
	charset := rc.Charset
	if charset == "" {
		charset = rotation.DefaultPasswordCharset
	}
	tokenBytes := rc.TokenBytes
	if tokenBytes <= 0 {
		tokenBytes = rotation.DefaultTokenBytes
	}

	dbName := opts.dbName
	if dbName == "" {
		dbName = opts.app
	}
	dbUser := opts.dbUser
	if dbUser == "" {
		dbUser = opts.app
	}

	dbPassword, err := rotation.Password(length, charset)
	if err != nil {
		return nil, err
	}
	apiKey, err := rotation.APIKey(fmt.Sprintf("%s-%s", opts.app, opts.environment), tokenBytes)
	if err != nil {
		return nil, err
	}

	record := rotation.SecretRecord{
		"database_url": fmt.Sprintf("postgresql://%s:%s@%s:%d/%s",
			dbUser, dbPassword, opts.dbHost, opts.dbPort, dbName),
		"api_key": apiKey,
	}

	for _, field := range append([]string{"encryption_key", "jwt_secret", "session_secret"}, opts.extraFields...) {
		token, err := rotation.Token(tokenBytes)
		if err != nil {
			return nil, err
		}
		record[field] = token
	}
	return record, nil
}

// provisionAccess writes the application policy and issues AppRole
// credentials for it.
func provisionAccess(cfg *config.Config, client vaultAdmin, opts setupOptions) error {
	ctx := cmdContext()
	name := fmt.Sprintf("%s-%s", opts.app, opts.environment)
	mount := cfg.Definition.Vault.Mount

	rules := appPolicy(mount, opts.app, opts.environment)
	if err := client.PutPolicy(ctx, name, rules); err != nil {
		return err
	}
	cfg.Logger.Info("Wrote policy '%s'", name)

	creds, err := client.EnsureAppRole(ctx, name, []string{name})
	if err != nil {
		return err
	}
	cfg.Logger.Info("AppRole '%s' ready", name)
	fmt.Printf("role_id:   %s\n", creds.RoleID)
	fmt.Printf("secret_id: %s\n", creds.SecretID)
	cfg.Logger.Warn("The secret_id above is shown once; store it in your deployment secrets now")
	return nil
}

// appPolicy renders the least-privilege read policy for one environment.
func appPolicy(mount, app, environment string) string {
	return fmt.Sprintf(`path "%s/data/applications/%s/%s" {
  capabilities = ["read"]
}

path "%s/metadata/applications/%s/%s" {
  capabilities = ["read", "list"]
}
`, mount, app, environment, mount, app, environment)
}

// publishMetadata records the environment in Consul KV so deploy tooling can
// discover it.
func publishMetadata(cfg *config.Config, opts setupOptions) error {
	consul, err := newConsulClient(cfg)
	if err != nil {
		return err
	}

	meta, err := json.Marshal(map[string]string{
		"app":         opts.app,
		"environment": opts.environment,
		"secret_path": secretPath(opts.app, opts.environment),
		"created_at":  time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		return err
	}

	key := fmt.Sprintf("vaultops/applications/%s/%s", opts.app, opts.environment)
	if err := consul.PutKV(key, string(meta)); err != nil {
		return err
	}
	cfg.Logger.Info("Published metadata to Consul KV at %s", key)
	return nil
}
