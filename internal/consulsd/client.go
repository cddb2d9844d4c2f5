package consulsd

import (
	"fmt"

	consul "github.com/hashicorp/consul/api"

	"github.com/cloudya/vaultops/internal/config"
	opserrors "github.com/cloudya/vaultops/internal/errors"
	"github.com/cloudya/vaultops/internal/logging"
)

// DefaultCheckInterval is the health check interval used when a service is
// registered with a check URL but no interval.
const DefaultCheckInterval = "10s"

// Client wraps the Consul API client for service registration, discovery
// and KV access.
type Client struct {
	api    *consul.Client
	logger *logging.Logger
}

// New builds a Consul client from the resolved configuration. CONSUL_HTTP_*
// environment variables are honored by consul.DefaultConfig; explicit fields
// override them.
func New(cfg config.ConsulConfig, logger *logging.Logger) (*Client, error) {
	apiCfg := consul.DefaultConfig()
	if cfg.Address != "" {
		apiCfg.Address = cfg.Address
	}
	if cfg.Token != "" {
		apiCfg.Token = cfg.Token
	}
	if cfg.Datacenter != "" {
		apiCfg.Datacenter = cfg.Datacenter
	}

	api, err := consul.NewClient(apiCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create consul client: %w", err)
	}
	return &Client{api: api, logger: logger}, nil
}

// Registration describes a service to register with the local agent.
type Registration struct {
	Name          string
	ID            string
	Address       string
	Port          int
	Tags          []string
	Meta          map[string]string
	CheckURL      string
	CheckInterval string
}

// RegisterService registers a service with the local Consul agent, with an
// HTTP health check when a check URL is given.
func (c *Client) RegisterService(reg Registration) error {
	asr := &consul.AgentServiceRegistration{
		Name:    reg.Name,
		ID:      reg.ID,
		Address: reg.Address,
		Port:    reg.Port,
		Tags:    reg.Tags,
		Meta:    reg.Meta,
	}
	if reg.CheckURL != "" {
		interval := reg.CheckInterval
		if interval == "" {
			interval = DefaultCheckInterval
		}
		asr.Check = &consul.AgentServiceCheck{
			HTTP:     reg.CheckURL,
			Interval: interval,
		}
	}

	if err := c.api.Agent().ServiceRegister(asr); err != nil {
		return opserrors.ServiceError("consul", "service registration", err)
	}
	c.logger.Info("registered service: %s", reg.Name)
	return nil
}

// DeregisterService removes a service registration from the local agent.
func (c *Client) DeregisterService(id string) error {
	if err := c.api.Agent().ServiceDeregister(id); err != nil {
		return fmt.Errorf("failed to deregister service %s: %w", id, err)
	}
	return nil
}

// Instance is one healthy instance of a discovered service.
type Instance struct {
	ID      string   `json:"id"`
	Address string   `json:"address"`
	Port    int      `json:"port"`
	Tags    []string `json:"tags"`
}

// DiscoverService returns the passing instances of a service.
func (c *Client) DiscoverService(name string) ([]Instance, error) {
	entries, _, err := c.api.Health().Service(name, "", true, nil)
	if err != nil {
		return nil, opserrors.ServiceError("consul", "service discovery", err)
	}

	instances := make([]Instance, 0, len(entries))
	for _, e := range entries {
		instances = append(instances, Instance{
			ID:      e.Service.ID,
			Address: e.Service.Address,
			Port:    e.Service.Port,
			Tags:    e.Service.Tags,
		})
	}
	return instances, nil
}

// GetKV returns the value stored at key, or ("", false, nil) when the key
// does not exist.
func (c *Client) GetKV(key string) (string, bool, error) {
	pair, _, err := c.api.KV().Get(key, nil)
	if err != nil {
		return "", false, fmt.Errorf("failed to get kv %s: %w", key, err)
	}
	if pair == nil {
		return "", false, nil
	}
	return string(pair.Value), true, nil
}

// PutKV stores a value at key.
func (c *Client) PutKV(key, value string) error {
	_, err := c.api.KV().Put(&consul.KVPair{Key: key, Value: []byte(value)}, nil)
	if err != nil {
		return fmt.Errorf("failed to put kv %s: %w", key, err)
	}
	c.logger.Debug("kv value set for %s", key)
	return nil
}

// AgentInfo summarizes the local agent for health reporting.
type AgentInfo struct {
	Version    string
	Datacenter string
	Server     bool
}

// Agent queries the local agent's self endpoint.
func (c *Client) Agent() (*AgentInfo, error) {
	self, err := c.api.Agent().Self()
	if err != nil {
		return nil, fmt.Errorf("consul agent unreachable: %w", err)
	}

	info := &AgentInfo{}
	if cfg, ok := self["Config"]; ok {
		if v, ok := cfg["Version"].(string); ok {
			info.Version = v
		}
		if dc, ok := cfg["Datacenter"].(string); ok {
			info.Datacenter = dc
		}
		if srv, ok := cfg["Server"].(bool); ok {
			info.Server = srv
		}
	}
	return info, nil
}
