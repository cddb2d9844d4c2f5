package commands

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cloudya/vaultops/internal/config"
	"github.com/cloudya/vaultops/internal/progress"
)

// NewDashboardCommand creates the dashboard command group.
func NewDashboardCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Serve or refresh the setup progress dashboard",
	}

	cmd.AddCommand(
		newDashboardServeCommand(cfg),
		newDashboardUpdateCommand(cfg),
	)
	return cmd
}

func newDashboardServeCommand(cfg *config.Config) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the progress dashboard over HTTP",
		Long: `Serve the setup progress dashboard. Phase indicators and service probes
come from the dashboard section of vaultops.yaml and are re-evaluated on
the configured interval.

Endpoints: /progress.json, /healthz, /metrics (Prometheus) and, when a
static file is configured, / serving the dashboard page.

Example:
  vaultops dashboard serve --addr :8080`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Load(); err != nil {
				return err
			}
			dc := cfg.Definition.Dashboard
			if addr != "" {
				dc.Addr = addr
			}

			tracker := progress.NewTracker(dc, cfg.Logger)
			tracker.Record("dashboard started")
			server := progress.NewServer(tracker, dc, cfg.Logger)
			return server.Run(cmd.Context())
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config, :8080)")
	return cmd
}

func newDashboardUpdateCommand(cfg *config.Config) *cobra.Command {
	var outFile string

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Evaluate progress once and write progress.json",
		Long: `Evaluate every phase indicator and service probe once and write the
snapshot to progress.json in the configured data directory. Useful when
the dashboard page is served by another web server.

Example:
  vaultops dashboard update --out /var/www/dashboard/progress.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Load(); err != nil {
				return err
			}
			dc := cfg.Definition.Dashboard

			if outFile == "" {
				dir := dc.DataDir
				if dir == "" {
					dir = "."
				}
				outFile = filepath.Join(dir, "progress.json")
			}

			tracker := progress.NewTracker(dc, cfg.Logger)
			server := progress.NewServer(tracker, dc, cfg.Logger)
			if err := server.WriteSnapshot(cmd.Context(), outFile); err != nil {
				return err
			}
			cfg.Logger.Info("Wrote %s", outFile)
			return nil
		},
	}

	cmd.Flags().StringVar(&outFile, "out", "", "Snapshot file path (default: <data_dir>/progress.json)")
	return cmd
}
