package promquery

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	promapi "github.com/prometheus/client_golang/api"
	promv1 "github.com/prometheus/client_golang/api/prometheus/v1"
	"github.com/prometheus/common/model"

	"github.com/cloudya/vaultops/internal/config"
	"github.com/cloudya/vaultops/internal/logging"
)

// readyTimeout bounds the readiness probe, which is used in health checks
// and must not hang on a dead endpoint.
const readyTimeout = 5 * time.Second

// Client wraps the Prometheus HTTP API for instant and range queries plus a
// readiness probe.
type Client struct {
	api     promv1.API
	address string
	httpc   *http.Client
	logger  *logging.Logger
}

// New builds a Prometheus query client from the resolved configuration.
func New(cfg config.PrometheusConfig, logger *logging.Logger) (*Client, error) {
	apiClient, err := promapi.NewClient(promapi.Config{Address: cfg.Address})
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus client: %w", err)
	}
	return &Client{
		api:     promv1.NewAPI(apiClient),
		address: strings.TrimSuffix(cfg.Address, "/"),
		httpc:   &http.Client{Timeout: readyTimeout},
		logger:  logger,
	}, nil
}

// Query evaluates a PromQL expression at ts, or now when ts is zero.
func (c *Client) Query(ctx context.Context, query string, ts time.Time) (model.Value, error) {
	if ts.IsZero() {
		ts = time.Now()
	}
	value, warnings, err := c.api.Query(ctx, query, ts)
	if err != nil {
		return nil, fmt.Errorf("prometheus query failed: %w", err)
	}
	for _, w := range warnings {
		c.logger.Warn("prometheus: %s", w)
	}
	return value, nil
}

// QueryRange evaluates a PromQL expression over [start, end] at the given
// step.
func (c *Client) QueryRange(ctx context.Context, query string, start, end time.Time, step time.Duration) (model.Value, error) {
	value, warnings, err := c.api.QueryRange(ctx, query, promv1.Range{
		Start: start,
		End:   end,
		Step:  step,
	})
	if err != nil {
		return nil, fmt.Errorf("prometheus range query failed: %w", err)
	}
	for _, w := range warnings {
		c.logger.Warn("prometheus: %s", w)
	}
	return value, nil
}

// Ready probes the /-/ready endpoint.
func (c *Client) Ready(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.address+"/-/ready", nil)
	if err != nil {
		return err
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("prometheus unreachable: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("prometheus not ready (status %d)", resp.StatusCode)
	}
	return nil
}
