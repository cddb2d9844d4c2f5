package nomadjob

import (
	"fmt"

	nomad "github.com/hashicorp/nomad/api"

	"github.com/cloudya/vaultops/internal/config"
	opserrors "github.com/cloudya/vaultops/internal/errors"
	"github.com/cloudya/vaultops/internal/logging"
)

// Client wraps the Nomad API client for job lifecycle operations.
type Client struct {
	api    *nomad.Client
	logger *logging.Logger
}

// New builds a Nomad client from the resolved configuration. NOMAD_*
// environment variables are honored by nomad.DefaultConfig; explicit fields
// override them.
func New(cfg config.NomadConfig, logger *logging.Logger) (*Client, error) {
	apiCfg := nomad.DefaultConfig()
	if cfg.Address != "" {
		apiCfg.Address = cfg.Address
	}
	if cfg.Token != "" {
		apiCfg.SecretID = cfg.Token
	}
	if cfg.Region != "" {
		apiCfg.Region = cfg.Region
	}

	api, err := nomad.NewClient(apiCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create nomad client: %w", err)
	}
	return &Client{api: api, logger: logger}, nil
}

// SubmitJob registers a job and returns the evaluation ID.
func (c *Client) SubmitJob(job *nomad.Job) (string, error) {
	resp, _, err := c.api.Jobs().Register(job, nil)
	if err != nil {
		return "", opserrors.ServiceError("nomad", fmt.Sprintf("submitting job %s", jobID(job)), err)
	}
	c.logger.Info("job %s submitted (eval %s)", jobID(job), resp.EvalID)
	return resp.EvalID, nil
}

// JobStatus describes the current state of a job.
type JobStatus struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Type   string `json:"type"`
	Status string `json:"status"`
	Stable bool   `json:"stable"`
}

// Status fetches the current status of a job.
func (c *Client) Status(id string) (*JobStatus, error) {
	job, _, err := c.api.Jobs().Info(id, nil)
	if err != nil {
		return nil, opserrors.ServiceError("nomad", fmt.Sprintf("reading job %s", id), err)
	}

	status := &JobStatus{ID: id}
	if job.Name != nil {
		status.Name = *job.Name
	}
	if job.Type != nil {
		status.Type = *job.Type
	}
	if job.Status != nil {
		status.Status = *job.Status
	}
	if job.Stable != nil {
		status.Stable = *job.Stable
	}
	return status, nil
}

// StopJob deregisters a job, optionally purging it from state.
func (c *Client) StopJob(id string, purge bool) (string, error) {
	evalID, _, err := c.api.Jobs().Deregister(id, purge, nil)
	if err != nil {
		return "", fmt.Errorf("failed to stop job %s: %w", id, err)
	}
	c.logger.Info("job %s stopped", id)
	return evalID, nil
}

// ScaleGroup scales a task group of a job to the given count.
func (c *Client) ScaleGroup(id, group string, count int) (string, error) {
	resp, _, err := c.api.Jobs().Scale(id, group, &count,
		fmt.Sprintf("vaultops scale to %d", count), false, nil, nil)
	if err != nil {
		return "", fmt.Errorf("failed to scale job %s group %s: %w", id, group, err)
	}
	c.logger.Info("job %s group %s scaled to %d", id, group, count)
	return resp.EvalID, nil
}

// Leader returns the address of the current cluster leader, used as the
// Nomad health probe.
func (c *Client) Leader() (string, error) {
	leader, err := c.api.Status().Leader()
	if err != nil {
		return "", fmt.Errorf("nomad leader unreachable: %w", err)
	}
	return leader, nil
}

func jobID(job *nomad.Job) string {
	if job != nil && job.ID != nil {
		return *job.ID
	}
	return "<unnamed>"
}
