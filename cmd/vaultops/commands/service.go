package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cloudya/vaultops/internal/config"
	"github.com/cloudya/vaultops/internal/consulsd"
)

// NewServiceCommand creates the service command group.
func NewServiceCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "service",
		Short: "Register and discover services in Consul",
	}

	cmd.AddCommand(
		newServiceRegisterCommand(cfg),
		newServiceDeregisterCommand(cfg),
		newServiceDiscoverCommand(cfg),
	)
	return cmd
}

func newServiceRegisterCommand(cfg *config.Config) *cobra.Command {
	var (
		id            string
		address       string
		port          int
		tags          []string
		checkURL      string
		checkInterval string
	)

	cmd := &cobra.Command{
		Use:   "register <name>",
		Short: "Register a service with the local Consul agent",
		Long: `Register a service instance in Consul, optionally with an HTTP health
check.

Examples:
  vaultops service register web --address 10.0.1.5 --port 8000 \
      --check-url http://10.0.1.5:8000/health --tag production`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newConsulClient(cfg)
			if err != nil {
				return err
			}

			reg := consulsd.Registration{
				Name:          args[0],
				ID:            id,
				Address:       address,
				Port:          port,
				Tags:          tags,
				CheckURL:      checkURL,
				CheckInterval: checkInterval,
			}
			if err := client.RegisterService(reg); err != nil {
				return err
			}
			cfg.Logger.Info("Registered service '%s'", args[0])
			return nil
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "Service instance ID (default: name)")
	cmd.Flags().StringVar(&address, "address", "", "Service address")
	cmd.Flags().IntVar(&port, "port", 0, "Service port")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "Service tag(s)")
	cmd.Flags().StringVar(&checkURL, "check-url", "", "HTTP health check URL")
	cmd.Flags().StringVar(&checkInterval, "check-interval", "", "Health check interval (default: 10s)")

	return cmd
}

func newServiceDeregisterCommand(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "deregister <id>",
		Short: "Remove a service instance from Consul",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newConsulClient(cfg)
			if err != nil {
				return err
			}
			if err := client.DeregisterService(args[0]); err != nil {
				return err
			}
			cfg.Logger.Info("Deregistered service '%s'", args[0])
			return nil
		},
	}
}

func newServiceDiscoverCommand(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "discover <name>",
		Short: "List healthy instances of a service",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newConsulClient(cfg)
			if err != nil {
				return err
			}
			instances, err := client.DiscoverService(args[0])
			if err != nil {
				return err
			}
			if len(instances) == 0 {
				cfg.Logger.Warn("No healthy instances of '%s'", args[0])
				return nil
			}
			for _, inst := range instances {
				fmt.Printf("  %s  %s:%d  %v\n", inst.ID, inst.Address, inst.Port, inst.Tags)
			}
			return nil
		},
	}
}
