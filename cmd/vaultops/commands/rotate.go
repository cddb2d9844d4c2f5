package commands

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cloudya/vaultops/internal/config"
	opserrors "github.com/cloudya/vaultops/internal/errors"
	"github.com/cloudya/vaultops/internal/validation"
	"github.com/cloudya/vaultops/pkg/rotation"
)

// NewRotateCommand creates the rotate command.
func NewRotateCommand(cfg *config.Config) *cobra.Command {
	var (
		keys   []string
		dryRun bool
		verify bool
	)

	cmd := &cobra.Command{
		Use:   "rotate <app_name> <environment>",
		Short: "Rotate secret values for an application environment",
		Long: `Rotate secret values stored under applications/<app>/<environment>.

Each named field is rotated according to its name: database_url gets a new
embedded password, api_* keys get a fresh prefixed API key, other keys and
secrets get random tokens, and passwords get random passwords. When no
--keys are given, every field in the record is rotated.

The pre-rotation record is snapshotted to a timestamped backup path before
the live record is overwritten, so a failed write never loses data.

Examples:
  # Rotate everything for production
  vaultops rotate web production

  # Rotate only the database credential and JWT secret
  vaultops rotate web production --keys database_url,jwt_secret

  # Show what would change without writing
  vaultops rotate web staging --dry-run`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRotate(cfg, args[0], args[1], keys, dryRun, verify)
		},
	}

	cmd.Flags().StringSliceVar(&keys, "keys", nil, "Comma-separated field names to rotate (default: all)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Plan the rotation without writing")
	cmd.Flags().BoolVar(&verify, "verify", false, "Ping the database behind a rotated connection string")

	return cmd
}

func runRotate(cfg *config.Config, app, environment string, keys []string, dryRun, verify bool) error {
	client, err := newVaultClient(cfg)
	if err != nil {
		return err
	}

	manager := newManager(cfg, client)
	path := secretPath(app, environment)

	plan, err := manager.Plan(cmdContext(), path, keys)
	if err != nil {
		return describeRotationError(err, app, environment)
	}

	if len(plan.RotatedFields) == 0 {
		cfg.Logger.Warn("Nothing to rotate at %s", path)
		return nil
	}

	if dryRun {
		fmt.Printf("Would rotate %d field(s) at %s:\n", len(plan.RotatedFields), path)
		for _, field := range plan.RotatedFields {
			fmt.Printf("  %s\n", field)
		}
		fmt.Printf("Backup would be written to %s\n", plan.BackupPath)
		return nil
	}

	result, err := manager.Apply(cmdContext(), plan)
	if err != nil {
		return describeRotationError(err, app, environment)
	}

	cfg.Logger.Info("Rotated %s: %s", path, strings.Join(result.RotatedFields, ", "))
	cfg.Logger.Info("Backup written to %s", result.BackupPath)

	if verify {
		if connStr, ok := result.NewRecord["database_url"]; ok {
			verifier := validation.NewVerifier(cfg.Logger)
			if err := verifier.VerifyConnectionString(cmdContext(), connStr); err != nil {
				return opserrors.UserError{
					Message:    "Rotation succeeded but the new database credential failed verification",
					Suggestion: fmt.Sprintf("Restore the previous record from %s if the database did not pick up the change", result.BackupPath),
					Err:        err,
				}
			}
			cfg.Logger.Info("Database connection verified")
		}
	}
	return nil
}

// describeRotationError turns rotation errors into actionable messages.
func describeRotationError(err error, app, environment string) error {
	switch {
	case isNotFound(err):
		return opserrors.UserError{
			Message:    fmt.Sprintf("No secrets found for %s/%s", app, environment),
			Suggestion: fmt.Sprintf("Run 'vaultops setup %s %s' to create the environment first", app, environment),
			Err:        err,
		}
	default:
		return err
	}
}

func isNotFound(err error) bool {
	return errors.Is(err, rotation.ErrNotFound)
}
