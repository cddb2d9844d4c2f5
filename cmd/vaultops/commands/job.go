package commands

import (
	"fmt"
	"os"

	nomad "github.com/hashicorp/nomad/api"
	"github.com/spf13/cobra"

	"github.com/cloudya/vaultops/internal/config"
	opserrors "github.com/cloudya/vaultops/internal/errors"
	"github.com/cloudya/vaultops/internal/nomadjob"
)

// NewJobCommand creates the job command group.
func NewJobCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "job",
		Short: "Run and manage Nomad jobs for applications",
	}

	cmd.AddCommand(
		newJobRunCommand(cfg),
		newJobStatusCommand(cfg),
		newJobStopCommand(cfg),
		newJobScaleCommand(cfg),
	)
	return cmd
}

func newJobRunCommand(cfg *config.Config) *cobra.Command {
	var (
		image       string
		port        int
		jobFile     string
		environment string
		noSecrets   bool
	)

	cmd := &cobra.Command{
		Use:   "run <app_name>",
		Short: "Submit an application job to Nomad",
		Long: `Submit a Nomad job for an application. By default a standard service job
is generated from --image and --port; pass --file to submit a JSON job
specification instead (it is schema-validated before submission).

Unless --no-secrets is given, a Vault template stanza is injected into
every task so the application's secrets are rendered to secrets/app.env
and the task restarts when they rotate.

Examples:
  vaultops job run web --image registry.internal/web:1.4.2 --port 8000
  vaultops job run web --file ./web.nomad.json --env production`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app := args[0]
			if jobFile == "" && image == "" {
				return opserrors.UserError{
					Message:    "A job source is required",
					Suggestion: "Pass --image <docker image> or --file <job.json>",
				}
			}
			return runJobRun(cfg, app, environment, image, port, jobFile, noSecrets)
		},
	}

	cmd.Flags().StringVar(&image, "image", "", "Docker image for the generated job")
	cmd.Flags().IntVar(&port, "port", 8000, "Application port for the generated job")
	cmd.Flags().StringVar(&jobFile, "file", "", "JSON job specification to submit instead of generating one")
	cmd.Flags().StringVar(&environment, "env", "production", "Environment whose secrets the job reads")
	cmd.Flags().BoolVar(&noSecrets, "no-secrets", false, "Do not inject the Vault secrets template")

	return cmd
}

func runJobRun(cfg *config.Config, app, environment, image string, port int, jobFile string, noSecrets bool) error {
	client, err := newNomadClient(cfg)
	if err != nil {
		return err
	}

	var job *nomad.Job
	if jobFile != "" {
		data, err := os.ReadFile(jobFile)
		if err != nil {
			return opserrors.UserError{
				Message:    fmt.Sprintf("Cannot read job file %s", jobFile),
				Suggestion: "Job files must be JSON; convert HCL with 'nomad job run -output'",
				Err:        err,
			}
		}
		job, err = nomadjob.ParseJobFile(data)
		if err != nil {
			return opserrors.UserError{
				Message:    fmt.Sprintf("Job file %s failed validation", jobFile),
				Suggestion: "Fix the reported fields; the file must describe a complete Nomad job",
				Err:        err,
			}
		}
	} else {
		job = nomadjob.JobTemplate(app, image, port)
	}

	if !noSecrets {
		mount := cfg.Definition.Vault.Mount
		secretsPath := fmt.Sprintf("%s/data/%s", mount, secretPath(app, environment))
		nomadjob.InjectVaultTemplate(job, secretsPath)
		cfg.Logger.Debug("Injected Vault template for %s", secretsPath)
	}

	evalID, err := client.SubmitJob(job)
	if err != nil {
		return err
	}
	cfg.Logger.Info("Submitted job '%s' (evaluation %s)", app, evalID)
	return nil
}

func newJobStatusCommand(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "status <job_id>",
		Short: "Show the status of a Nomad job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newNomadClient(cfg)
			if err != nil {
				return err
			}
			status, err := client.Status(args[0])
			if err != nil {
				return err
			}
			fmt.Printf("ID:      %s\n", status.ID)
			fmt.Printf("Name:    %s\n", status.Name)
			fmt.Printf("Type:    %s\n", status.Type)
			fmt.Printf("Status:  %s\n", status.Status)
			fmt.Printf("Stable:  %t\n", status.Stable)
			return nil
		},
	}
}

func newJobStopCommand(cfg *config.Config) *cobra.Command {
	var purge bool

	cmd := &cobra.Command{
		Use:   "stop <job_id>",
		Short: "Stop a Nomad job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := newNomadClient(cfg)
			if err != nil {
				return err
			}
			evalID, err := client.StopJob(args[0], purge)
			if err != nil {
				return err
			}
			cfg.Logger.Info("Stopped job '%s' (evaluation %s)", args[0], evalID)
			return nil
		},
	}

	cmd.Flags().BoolVar(&purge, "purge", false, "Purge the job from Nomad's state")
	return cmd
}

func newJobScaleCommand(cfg *config.Config) *cobra.Command {
	var group string

	cmd := &cobra.Command{
		Use:   "scale <job_id> <count>",
		Short: "Scale a job's task group",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var count int
			if _, err := fmt.Sscanf(args[1], "%d", &count); err != nil || count < 0 {
				return opserrors.UserError{
					Message:    fmt.Sprintf("Invalid count '%s'", args[1]),
					Suggestion: "The count must be a non-negative integer",
				}
			}

			client, err := newNomadClient(cfg)
			if err != nil {
				return err
			}

			target := group
			if target == "" {
				target = args[0] + "-group"
			}
			evalID, err := client.ScaleGroup(args[0], target, count)
			if err != nil {
				return err
			}
			cfg.Logger.Info("Scaled %s/%s to %d (evaluation %s)", args[0], target, count, evalID)
			return nil
		},
	}

	cmd.Flags().StringVar(&group, "group", "", "Task group to scale (default: <job_id>-group)")
	return cmd
}
