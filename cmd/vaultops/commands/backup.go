package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/cloudya/vaultops/internal/config"
	opserrors "github.com/cloudya/vaultops/internal/errors"
	"github.com/cloudya/vaultops/internal/secure"
	"github.com/cloudya/vaultops/pkg/rotation"
)

// backupDocument is the on-disk backup file format. Single-environment
// backups carry Secrets; --all archives carry Records keyed by secret path.
type backupDocument struct {
	App         string                           `json:"app,omitempty"`
	Environment string                           `json:"environment,omitempty"`
	Path        string                           `json:"path,omitempty"`
	TakenAt     time.Time                        `json:"taken_at"`
	Secrets     rotation.SecretRecord            `json:"secrets,omitempty"`
	Records     map[string]rotation.SecretRecord `json:"records,omitempty"`
}

// secretTree is the store surface the full-tree export walks.
type secretTree interface {
	Read(ctx context.Context, path string) (rotation.SecretRecord, error)
	List(ctx context.Context, path string) ([]string, error)
}

// NewBackupCommand creates the backup command.
func NewBackupCommand(cfg *config.Config) *cobra.Command {
	var (
		outFile string
		all     bool
	)

	cmd := &cobra.Command{
		Use:   "backup [app_name environment]",
		Short: "Export application secrets to a local backup file",
		Long: `Read the secrets at applications/<app>/<environment> and write them to a
JSON backup file readable only by the current user. With --all, every
application environment under applications/ is exported into one archive
(rotation backups are not included).

The payload is held in locked memory while it is being written.

Examples:
  vaultops backup web production
  vaultops backup web production --out ./backups/web-production.json
  vaultops backup --all --out ./backups/full.json`,
		Args: cobra.RangeArgs(0, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if all {
				if len(args) != 0 {
					return opserrors.UserError{
						Message:    "--all exports everything and takes no arguments",
						Suggestion: "Use 'vaultops backup <app> <environment>' for a single environment",
					}
				}
				return runBackupAll(cfg, outFile)
			}
			if len(args) != 2 {
				return opserrors.UserError{
					Message:    "An application and environment are required",
					Suggestion: "Use 'vaultops backup <app> <environment>', or --all for a full export",
				}
			}
			return runBackup(cfg, args[0], args[1], outFile)
		},
	}

	cmd.Flags().StringVar(&outFile, "out", "", "Backup file path (default: derived from the target and timestamp)")
	cmd.Flags().BoolVar(&all, "all", false, "Export every application environment")

	return cmd
}

func runBackup(cfg *config.Config, app, environment, outFile string) error {
	client, err := newVaultClient(cfg)
	if err != nil {
		return err
	}

	path := secretPath(app, environment)
	record, err := client.Read(cmdContext(), path)
	if err != nil {
		return describeRotationError(err, app, environment)
	}

	doc := backupDocument{
		App:         app,
		Environment: environment,
		Path:        path,
		TakenAt:     time.Now().UTC(),
		Secrets:     record,
	}
	if outFile == "" {
		outFile = fmt.Sprintf("%s-%s-%s.json", app, environment, doc.TakenAt.Format("20060102T150405Z"))
	}

	if err := writeBackupFile(doc, outFile); err != nil {
		return err
	}
	cfg.Logger.Info("Backed up %d secret(s) from %s to %s", len(record), path, outFile)
	return nil
}

func runBackupAll(cfg *config.Config, outFile string) error {
	client, err := newVaultClient(cfg)
	if err != nil {
		return err
	}

	records, err := collectApplications(cmdContext(), client)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return opserrors.UserError{
			Message:    "No application environments found under applications/",
			Suggestion: "Run 'vaultops setup <app> <environment>' to create one first",
		}
	}

	doc := backupDocument{
		TakenAt: time.Now().UTC(),
		Records: records,
	}
	if outFile == "" {
		outFile = fmt.Sprintf("applications-%s.json", doc.TakenAt.Format("20060102T150405Z"))
	}

	if err := writeBackupFile(doc, outFile); err != nil {
		return err
	}
	cfg.Logger.Info("Backed up %d environment(s) to %s", len(records), outFile)
	for _, path := range sortedRecordPaths(records) {
		fmt.Printf("  %s (%d fields)\n", path, len(records[path]))
	}
	return nil
}

// collectApplications walks applications/<app>/<environment> leaves via the
// metadata list API. Rotation backup subtrees (directory entries under an
// environment) are skipped.
func collectApplications(ctx context.Context, store secretTree) (map[string]rotation.SecretRecord, error) {
	apps, err := store.List(ctx, "applications")
	if err != nil {
		return nil, err
	}

	records := make(map[string]rotation.SecretRecord)
	for _, app := range apps {
		if !strings.HasSuffix(app, "/") {
			continue
		}
		app = strings.TrimSuffix(app, "/")

		envs, err := store.List(ctx, "applications/"+app)
		if err != nil {
			return nil, err
		}
		for _, env := range envs {
			if strings.HasSuffix(env, "/") {
				continue
			}
			path := secretPath(app, env)
			record, err := store.Read(ctx, path)
			if err != nil {
				return nil, err
			}
			records[path] = record
		}
	}
	return records, nil
}

// writeBackupFile serializes the document through a locked buffer into a
// user-only file.
func writeBackupFile(doc backupDocument, outFile string) error {
	payload, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}

	buf := secure.NewBuffer(payload)
	defer buf.Destroy()
	for i := range payload {
		payload[i] = 0
	}

	if dir := filepath.Dir(outFile); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return err
		}
	}

	err = buf.With(func(data []byte) error {
		return os.WriteFile(outFile, data, 0o600)
	})
	if err != nil {
		return opserrors.UserError{
			Message:    fmt.Sprintf("Failed to write backup file %s", outFile),
			Suggestion: "Check the target directory exists and is writable",
			Err:        err,
		}
	}
	return nil
}

func sortedRecordPaths(records map[string]rotation.SecretRecord) []string {
	paths := make([]string, 0, len(records))
	for path := range records {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}
