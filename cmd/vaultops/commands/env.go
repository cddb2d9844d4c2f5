package commands

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cloudya/vaultops/internal/config"
	opserrors "github.com/cloudya/vaultops/internal/errors"
	"github.com/cloudya/vaultops/pkg/rotation"
)

// NewEnvCommand creates the env command.
func NewEnvCommand(cfg *config.Config) *cobra.Command {
	var (
		outFile string
		export  bool
	)

	cmd := &cobra.Command{
		Use:   "env <app_name> <environment>",
		Short: "Render an environment's secrets as dotenv lines",
		Long: `Read the secrets at applications/<app>/<environment> and render them in
dotenv format, with field names upper-cased. Useful for docker compose and
local development.

Writing to stdout prints live secret values; prefer --out with a file mode
of 0600 on shared machines.

Examples:
  vaultops env web development --out .env
  eval "$(vaultops env web development --export)"`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEnv(cfg, args[0], args[1], outFile, export)
		},
	}

	cmd.Flags().StringVar(&outFile, "out", "", "Write to a file instead of stdout")
	cmd.Flags().BoolVar(&export, "export", false, "Prefix each line with 'export '")

	return cmd
}

func runEnv(cfg *config.Config, app, environment, outFile string, export bool) error {
	client, err := newVaultClient(cfg)
	if err != nil {
		return err
	}

	record, err := client.Read(cmdContext(), secretPath(app, environment))
	if err != nil {
		return describeRotationError(err, app, environment)
	}

	content := renderDotenv(record, export)

	if outFile == "" {
		fmt.Print(content)
		return nil
	}
	if err := os.WriteFile(outFile, []byte(content), 0o600); err != nil {
		return opserrors.UserError{
			Message:    fmt.Sprintf("Failed to write %s", outFile),
			Suggestion: "Check the target directory exists and is writable",
			Err:        err,
		}
	}
	cfg.Logger.Info("Wrote %d variable(s) to %s", len(record), outFile)
	return nil
}

// renderDotenv formats a record as KEY=value lines in stable order. Values
// are single-quoted so shell metacharacters in generated passwords survive.
func renderDotenv(record rotation.SecretRecord, export bool) string {
	var b strings.Builder
	prefix := ""
	if export {
		prefix = "export "
	}
	for _, key := range sortedKeys(record) {
		value := strings.ReplaceAll(record[key], "'", `'\''`)
		fmt.Fprintf(&b, "%s%s='%s'\n", prefix, strings.ToUpper(key), value)
	}
	return b.String()
}
