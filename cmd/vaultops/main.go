package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cloudya/vaultops/cmd/vaultops/commands"
	"github.com/cloudya/vaultops/internal/config"
	"github.com/cloudya/vaultops/internal/logging"
	"github.com/cloudya/vaultops/internal/secure"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	defer secure.Purge()
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configFile     string
		noColor        bool
		debug          bool
		nonInteractive bool
	)

	cfg := &config.Config{}

	rootCmd := &cobra.Command{
		Use:   "vaultops",
		Short: "Operate Vault, Consul and Nomad for application environments",
		Long: `vaultops manages application secrets in Vault and wires them into
Consul service discovery and Nomad deployments: rotation, backups,
policies, health checks and a setup progress dashboard.`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logger := logging.New(debug, noColor)

			cfg.Path = configFile
			cfg.Logger = logger
			cfg.NonInteractive = nonInteractive
		},
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "vaultops.yaml", "Config file path")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&nonInteractive, "non-interactive", false, "Non-interactive mode")

	rootCmd.AddCommand(
		commands.NewRotateCommand(cfg),
		commands.NewSetupCommand(cfg),
		commands.NewBackupCommand(cfg),
		commands.NewRestoreCommand(cfg),
		commands.NewHealthCommand(cfg),
		commands.NewCheckCommand(cfg),
		commands.NewJobCommand(cfg),
		commands.NewServiceCommand(cfg),
		commands.NewEnvCommand(cfg),
		commands.NewPoliciesCommand(cfg),
		commands.NewLoginCommand(cfg),
		commands.NewDashboardCommand(cfg),
		commands.NewCompletionCommand(cfg),
	)

	return rootCmd.Execute()
}
