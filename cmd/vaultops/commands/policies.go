package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cloudya/vaultops/internal/config"
	opserrors "github.com/cloudya/vaultops/internal/errors"
)

// NewPoliciesCommand creates the policies command group.
func NewPoliciesCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "policies",
		Short: "Manage Vault policies from local HCL files",
	}

	cmd.AddCommand(newPoliciesSyncCommand(cfg))
	return cmd
}

func newPoliciesSyncCommand(cfg *config.Config) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "sync <directory>",
		Short: "Upload every *.hcl policy in a directory to Vault",
		Long: `Read every *.hcl file in a directory and write each one to Vault as a
policy named after the file. Policies whose content already matches are
skipped.

Example:
  vaultops policies sync ./policies`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPoliciesSync(cfg, args[0], dryRun)
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report changes without writing")
	return cmd
}

func runPoliciesSync(cfg *config.Config, dir string, dryRun bool) error {
	files, err := filepath.Glob(filepath.Join(dir, "*.hcl"))
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return opserrors.UserError{
			Message:    fmt.Sprintf("No *.hcl policy files found in %s", dir),
			Suggestion: "Each policy file becomes a Vault policy named after the file",
		}
	}

	client, err := newVaultClient(cfg)
	if err != nil {
		return err
	}
	ctx := cmdContext()

	var written, skipped int
	for _, file := range files {
		name := strings.TrimSuffix(filepath.Base(file), ".hcl")
		data, err := os.ReadFile(file)
		if err != nil {
			return err
		}
		rules := string(data)

		current, err := client.GetPolicy(ctx, name)
		if err == nil && strings.TrimSpace(current) == strings.TrimSpace(rules) {
			cfg.Logger.Debug("Policy '%s' unchanged", name)
			skipped++
			continue
		}

		if dryRun {
			fmt.Printf("  would write policy '%s' (%s)\n", name, file)
			written++
			continue
		}
		if err := client.PutPolicy(ctx, name, rules); err != nil {
			return err
		}
		cfg.Logger.Info("Wrote policy '%s'", name)
		written++
	}

	cfg.Logger.Info("Policies synced: %d written, %d unchanged", written, skipped)
	return nil
}
