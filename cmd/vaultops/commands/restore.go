package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cloudya/vaultops/internal/config"
	opserrors "github.com/cloudya/vaultops/internal/errors"
	"github.com/cloudya/vaultops/pkg/rotation"
)

// NewRestoreCommand creates the restore command.
func NewRestoreCommand(cfg *config.Config) *cobra.Command {
	var (
		fromFile    string
		fromBackup  string
		force       bool
		listBackups bool
	)

	cmd := &cobra.Command{
		Use:   "restore <app_name> <environment>",
		Short: "Restore an environment's secrets from a backup",
		Long: `Overwrite the secrets at applications/<app>/<environment> from either a
local backup file (--file) or an in-Vault rotation backup path (--backup).
Backup files may be single-environment exports or --all archives; archives
are restored selectively, picking out the named environment.

Restoring refuses to overwrite an existing record unless --force is given.
Use --list to print the environment's rotation backup timestamps instead
of restoring.

Examples:
  vaultops restore web production --list
  vaultops restore web production --file ./backups/web-production.json
  vaultops restore web production --file ./backups/full.json --force
  vaultops restore web production --backup applications/web/production/backup/2026-08-28T12:00:00Z --force`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if listBackups {
				return runRestoreList(cfg, args[0], args[1])
			}
			if (fromFile == "") == (fromBackup == "") {
				return opserrors.UserError{
					Message:    "Exactly one source is required",
					Suggestion: "Pass either --file <backup.json> or --backup <vault path>, or --list to see rotation backups",
				}
			}
			return runRestore(cfg, args[0], args[1], fromFile, fromBackup, force)
		},
	}

	cmd.Flags().StringVar(&fromFile, "file", "", "Local backup file to restore from")
	cmd.Flags().StringVar(&fromBackup, "backup", "", "In-Vault backup path to restore from")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing record")
	cmd.Flags().BoolVar(&listBackups, "list", false, "List the environment's rotation backups and exit")

	return cmd
}

func runRestoreList(cfg *config.Config, app, environment string) error {
	client, err := newVaultClient(cfg)
	if err != nil {
		return err
	}

	backupRoot := secretPath(app, environment) + "/backup"
	entries, err := client.List(cmdContext(), backupRoot)
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		cfg.Logger.Warn("No rotation backups under %s", backupRoot)
		return nil
	}

	fmt.Printf("Rotation backups for %s/%s:\n", app, environment)
	for _, entry := range entries {
		fmt.Printf("  %s/%s\n", backupRoot, strings.TrimSuffix(entry, "/"))
	}
	return nil
}

func runRestore(cfg *config.Config, app, environment, fromFile, fromBackup string, force bool) error {
	client, err := newVaultClient(cfg)
	if err != nil {
		return err
	}
	ctx := cmdContext()
	path := secretPath(app, environment)

	if !force {
		if _, err := client.Read(ctx, path); err == nil {
			return opserrors.UserError{
				Message:    fmt.Sprintf("Secrets already exist at %s", path),
				Suggestion: "Pass --force to overwrite the current record",
			}
		} else if !isNotFound(err) {
			return err
		}
	}

	var secrets rotation.SecretRecord
	if fromFile != "" {
		data, err := os.ReadFile(fromFile)
		if err != nil {
			return opserrors.UserError{
				Message:    fmt.Sprintf("Cannot read backup file %s", fromFile),
				Suggestion: "Check the path; backups are written by 'vaultops backup'",
				Err:        err,
			}
		}
		var doc backupDocument
		if err := json.Unmarshal(data, &doc); err != nil {
			return opserrors.UserError{
				Message:    fmt.Sprintf("Backup file %s is not valid", fromFile),
				Suggestion: "The file must be a JSON document produced by 'vaultops backup'",
				Err:        err,
			}
		}
		secrets, err = recordFromBackupFile(doc, app, environment)
		if err != nil {
			return err
		}
	} else {
		record, err := client.Read(ctx, fromBackup)
		if err != nil {
			return opserrors.UserError{
				Message:    fmt.Sprintf("No backup found at %s", fromBackup),
				Suggestion: fmt.Sprintf("Run 'vaultops restore %s %s --list' to see valid backup paths", app, environment),
				Err:        err,
			}
		}
		secrets = record
	}

	if len(secrets) == 0 {
		return opserrors.UserError{
			Message:    "Backup contains no secrets",
			Suggestion: "Pick a different backup source",
		}
	}

	if err := client.Write(ctx, path, secrets); err != nil {
		return err
	}
	cfg.Logger.Info("Restored %d secret(s) to %s", len(secrets), path)
	printFields(secrets)
	return nil
}

// recordFromBackupFile extracts the target environment's record from a
// backup document, handling both single-environment exports and --all
// archives.
func recordFromBackupFile(doc backupDocument, app, environment string) (rotation.SecretRecord, error) {
	if doc.Records != nil {
		record, ok := doc.Records[secretPath(app, environment)]
		if !ok {
			return nil, opserrors.UserError{
				Message:    fmt.Sprintf("Archive has no record for %s/%s", app, environment),
				Suggestion: "Check the archive's records for the paths it actually contains",
			}
		}
		return record, nil
	}

	if doc.App != app || doc.Environment != environment {
		return nil, opserrors.UserError{
			Message:    fmt.Sprintf("Backup file is for %s/%s, not %s/%s", doc.App, doc.Environment, app, environment),
			Suggestion: "Restore it to its own environment, or rename the arguments deliberately",
		}
	}
	return doc.Secrets, nil
}
