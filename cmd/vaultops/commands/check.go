package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cloudya/vaultops/internal/config"
	opserrors "github.com/cloudya/vaultops/internal/errors"
)

// defaultRequiredFields are the secrets every provisioned environment is
// expected to carry.
var defaultRequiredFields = []string{"database_url", "api_key", "jwt_secret"}

// NewCheckCommand creates the check command.
func NewCheckCommand(cfg *config.Config) *cobra.Command {
	var (
		requiredFields []string
		jobID          string
		serviceName    string
		skipAccess     bool
	)

	cmd := &cobra.Command{
		Use:   "check <app_name> <environment>",
		Short: "Verify an environment is ready to deploy",
		Long: `Run pre-deployment checks for an application environment:

  - the secret record exists and carries the required fields
  - the environment's Vault policy and AppRole exist (skip with --skip-access)
  - optionally, the Nomad job is running and stable (--job)
  - optionally, the service has healthy instances in Consul (--service)

Any failed check makes the command exit non-zero.

Examples:
  vaultops check web production
  vaultops check web production --job web --service web --require database_url,api_key`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cfg, args[0], args[1], requiredFields, jobID, serviceName, skipAccess)
		},
	}

	cmd.Flags().StringSliceVar(&requiredFields, "require", nil, "Secret field(s) that must be present (default: database_url,api_key,jwt_secret)")
	cmd.Flags().StringVar(&jobID, "job", "", "Nomad job that must be running")
	cmd.Flags().StringVar(&serviceName, "service", "", "Consul service that must have healthy instances")
	cmd.Flags().BoolVar(&skipAccess, "skip-access", false, "Skip policy and AppRole checks")

	return cmd
}

func runCheck(cfg *config.Config, app, environment string, requiredFields []string, jobID, serviceName string, skipAccess bool) error {
	client, err := newVaultClient(cfg)
	if err != nil {
		return err
	}

	path := secretPath(app, environment)
	record, err := client.Read(cmdContext(), path)
	if err != nil {
		return describeRotationError(err, app, environment)
	}
	fmt.Printf("  ✓ secrets      %s (%d fields)\n", path, len(record))

	if len(requiredFields) == 0 {
		requiredFields = defaultRequiredFields
	}
	var missing []string
	for _, field := range requiredFields {
		if _, ok := record[field]; !ok {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return opserrors.UserError{
			Message:    fmt.Sprintf("Missing required secret field(s): %v", missing),
			Suggestion: fmt.Sprintf("Run 'vaultops setup %s %s' again with --field, or write the fields manually", app, environment),
		}
	}
	fmt.Printf("  ✓ fields       %v\n", requiredFields)

	if !skipAccess {
		name := fmt.Sprintf("%s-%s", app, environment)
		rules, err := client.GetPolicy(cmdContext(), name)
		if err != nil || rules == "" {
			return opserrors.UserError{
				Message:    fmt.Sprintf("Vault policy '%s' is missing", name),
				Suggestion: fmt.Sprintf("Run 'vaultops setup %s %s' or 'vaultops policies sync' to create it", app, environment),
				Err:        err,
			}
		}
		if _, err := client.ReadRoleID(cmdContext(), name); err != nil {
			return opserrors.UserError{
				Message:    fmt.Sprintf("AppRole '%s' is missing", name),
				Suggestion: fmt.Sprintf("Run 'vaultops setup %s %s' to create it, or pass --skip-access", app, environment),
				Err:        err,
			}
		}
		fmt.Printf("  ✓ access       policy and AppRole '%s'\n", name)
	}

	if jobID != "" {
		nomad, err := newNomadClient(cfg)
		if err != nil {
			return err
		}
		status, err := nomad.Status(jobID)
		if err != nil {
			return err
		}
		if status.Status != "running" {
			return opserrors.UserError{
				Message:    fmt.Sprintf("Nomad job '%s' is %s, not running", jobID, status.Status),
				Suggestion: fmt.Sprintf("Inspect it with 'vaultops job status %s'", jobID),
			}
		}
		fmt.Printf("  ✓ job          %s running (stable=%t)\n", jobID, status.Stable)
	}

	if serviceName != "" {
		consul, err := newConsulClient(cfg)
		if err != nil {
			return err
		}
		instances, err := consul.DiscoverService(serviceName)
		if err != nil {
			return err
		}
		if len(instances) == 0 {
			return opserrors.UserError{
				Message:    fmt.Sprintf("Service '%s' has no healthy instances", serviceName),
				Suggestion: "Check the service's health check output in Consul",
			}
		}
		fmt.Printf("  ✓ service      %s (%d healthy)\n", serviceName, len(instances))
	}

	cfg.Logger.Info("%s/%s is ready to deploy", app, environment)
	return nil
}
