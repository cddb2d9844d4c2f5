package config

import (
	"os"

	opserrors "github.com/cloudya/vaultops/internal/errors"
	"github.com/cloudya/vaultops/internal/logging"
	"gopkg.in/yaml.v3"
)

// Config holds the runtime configuration assembled by the root command.
type Config struct {
	Path           string
	Logger         *logging.Logger
	NonInteractive bool
	Definition     *Definition
}

// Definition is the vaultops.yaml structure. Every endpoint section falls
// back to the conventional environment variables of its service, so an empty
// file is a working configuration on a host with VAULT_ADDR etc. exported.
type Definition struct {
	Version    int              `yaml:"version"`
	Vault      VaultConfig      `yaml:"vault"`
	Consul     ConsulConfig     `yaml:"consul"`
	Nomad      NomadConfig      `yaml:"nomad"`
	Prometheus PrometheusConfig `yaml:"prometheus"`
	Rotation   RotationConfig   `yaml:"rotation"`
	Dashboard  DashboardConfig  `yaml:"dashboard"`
}

// VaultConfig configures the Vault KV store client.
type VaultConfig struct {
	Address   string `yaml:"address"`
	Token     string `yaml:"token"` // discouraged, prefer VAULT_TOKEN or the keyring cache
	Namespace string `yaml:"namespace"`
	Mount     string `yaml:"mount"`
	CACert    string `yaml:"ca_cert"`
	TLSSkip   bool   `yaml:"tls_skip"`
}

// ConsulConfig configures the Consul client.
type ConsulConfig struct {
	Address    string `yaml:"address"`
	Token      string `yaml:"token"`
	Datacenter string `yaml:"datacenter"`
}

// NomadConfig configures the Nomad client.
type NomadConfig struct {
	Address string `yaml:"address"`
	Token   string `yaml:"token"`
	Region  string `yaml:"region"`
}

// PrometheusConfig configures the Prometheus query client.
type PrometheusConfig struct {
	Address string `yaml:"address"`
}

// RotationConfig tunes secret value generation.
type RotationConfig struct {
	PasswordLength int    `yaml:"password_length"`
	Charset        string `yaml:"charset"`
	TokenBytes     int    `yaml:"token_bytes"`
	APIKeyPrefix   string `yaml:"api_key_prefix"`
}

// DashboardConfig configures the progress dashboard and updater.
type DashboardConfig struct {
	Addr         string  `yaml:"addr"`
	Status       string  `yaml:"status"`
	DataDir      string  `yaml:"data_dir"`
	StaticFile   string  `yaml:"static_file"`
	IntervalSecs int     `yaml:"interval_seconds"`
	Phases       []Phase `yaml:"phases"`
	Services     []Probe `yaml:"services"`
}

// Phase is a weighted deployment phase tracked by the dashboard.
type Phase struct {
	Name       string      `yaml:"name"`
	Indicators []Indicator `yaml:"indicators"`
}

// Indicator is one completion signal within a phase.
type Indicator struct {
	// Type is one of file, process, url.
	Type    string `yaml:"type"`
	Target  string `yaml:"target"`
	Message string `yaml:"message"`
}

// Probe is a service whose liveness the dashboard reports.
type Probe struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// Load reads and parses the vaultops.yaml file, then applies environment
// variable fallbacks. A missing file is not an error: the environment alone
// can configure every client.
func (c *Config) Load() error {
	def := &Definition{}

	data, err := os.ReadFile(c.Path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, def); err != nil {
			return opserrors.ConfigError{
				Message:    "invalid YAML syntax in configuration file",
				Suggestion: "Check for indentation errors, missing quotes, or invalid characters",
			}
		}
		if def.Version != 0 {
			return opserrors.ConfigError{
				Field:      "version",
				Value:      def.Version,
				Message:    "unsupported configuration version",
				Suggestion: "Set 'version: 0' at the top of your vaultops.yaml file",
			}
		}
	case os.IsNotExist(err):
		// Fall through to environment-only configuration.
	default:
		return opserrors.UserError{
			Message:    "Failed to read configuration file",
			Details:    err.Error(),
			Suggestion: "Check file permissions and path",
			Err:        err,
		}
	}

	applyEnvDefaults(def)
	c.Definition = def
	return nil
}

// applyEnvDefaults fills unset fields from the conventional environment
// variables of each service.
func applyEnvDefaults(def *Definition) {
	fallback(&def.Vault.Address, "VAULT_ADDR", "https://localhost:8200")
	fallback(&def.Vault.Token, "VAULT_TOKEN", "")
	fallback(&def.Vault.Namespace, "VAULT_NAMESPACE", "")
	fallback(&def.Vault.CACert, "VAULT_CACERT", "")
	fallback(&def.Vault.Mount, "", "secret")
	if os.Getenv("VAULT_SKIP_VERIFY") == "true" {
		def.Vault.TLSSkip = true
	}

	fallback(&def.Consul.Address, "CONSUL_HTTP_ADDR", "localhost:8500")
	fallback(&def.Consul.Token, "CONSUL_HTTP_TOKEN", "")

	fallback(&def.Nomad.Address, "NOMAD_ADDR", "https://localhost:4646")
	fallback(&def.Nomad.Token, "NOMAD_TOKEN", "")
	fallback(&def.Nomad.Region, "NOMAD_REGION", "")

	fallback(&def.Prometheus.Address, "PROMETHEUS_URL", "https://localhost:9090")

	if def.Dashboard.Addr == "" {
		def.Dashboard.Addr = ":8080"
	}
	if def.Dashboard.IntervalSecs <= 0 {
		def.Dashboard.IntervalSecs = 10
	}
}

func fallback(field *string, env, def string) {
	if *field != "" {
		return
	}
	if env != "" {
		if v := os.Getenv(env); v != "" {
			*field = v
			return
		}
	}
	*field = def
}
