package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cloudya/vaultops/internal/config"
	opserrors "github.com/cloudya/vaultops/internal/errors"
)

// serviceCheck probes one backing service.
type serviceCheck struct {
	name  string
	probe func() (string, error)
}

// NewHealthCommand creates the health command.
func NewHealthCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check the health of Vault, Consul, Nomad and Prometheus",
		Long: `Probe every configured backing service and report its status.

The command exits non-zero when half or more of the services fail their
probe, which makes it usable as a coarse cluster gate in CI.

Example:
  vaultops health`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHealth(cfg)
		},
	}
	return cmd
}

func runHealth(cfg *config.Config) error {
	checks := buildChecks(cfg)
	failed := reportChecks(cfg, checks)

	if failed*2 >= len(checks) {
		return opserrors.UserError{
			Message:    fmt.Sprintf("%d of %d services are unhealthy", failed, len(checks)),
			Suggestion: "Check service logs and network reachability before deploying",
		}
	}
	if failed > 0 {
		cfg.Logger.Warn("%d of %d services degraded", failed, len(checks))
	} else {
		cfg.Logger.Info("All %d services healthy", len(checks))
	}
	return nil
}

func buildChecks(cfg *config.Config) []serviceCheck {
	ctx := cmdContext()
	return []serviceCheck{
		{
			name: "vault",
			probe: func() (string, error) {
				client, err := newVaultClient(cfg)
				if err != nil {
					return "", err
				}
				status, err := client.Health(ctx)
				if err != nil {
					return "", err
				}
				if status.Sealed {
					return "", fmt.Errorf("vault is sealed")
				}
				if !status.Initialized {
					return "", fmt.Errorf("vault is not initialized")
				}
				return fmt.Sprintf("v%s", status.Version), nil
			},
		},
		{
			name: "consul",
			probe: func() (string, error) {
				client, err := newConsulClient(cfg)
				if err != nil {
					return "", err
				}
				info, err := client.Agent()
				if err != nil {
					return "", err
				}
				return fmt.Sprintf("v%s dc=%s", info.Version, info.Datacenter), nil
			},
		},
		{
			name: "nomad",
			probe: func() (string, error) {
				client, err := newNomadClient(cfg)
				if err != nil {
					return "", err
				}
				leader, err := client.Leader()
				if err != nil {
					return "", err
				}
				return fmt.Sprintf("leader=%s", leader), nil
			},
		},
		{
			name: "prometheus",
			probe: func() (string, error) {
				client, err := newPrometheusClient(cfg)
				if err != nil {
					return "", err
				}
				if err := client.Ready(ctx); err != nil {
					return "", err
				}
				return "ready", nil
			},
		},
	}
}

// reportChecks runs every probe, prints one line per service and returns the
// failure count.
func reportChecks(cfg *config.Config, checks []serviceCheck) int {
	failed := 0
	for _, check := range checks {
		detail, err := check.probe()
		if err != nil {
			failed++
			fmt.Printf("  ✗ %-11s %v\n", check.name, err)
			continue
		}
		fmt.Printf("  ✓ %-11s %s\n", check.name, detail)
	}
	return failed
}
