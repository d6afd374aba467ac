// Package config loads the exporter configuration file.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/R167/homenet_exporter/internal/collector"
)

const (
	// DefaultListenAddr is where the metrics endpoint is served.
	DefaultListenAddr = ":9999"

	// DefaultLogLevel is the default log level.
	DefaultLogLevel = "info"

	// PasswordEnv holds the router admin password.
	PasswordEnv = "NR5103E_PASSWD"
)

// Config is the top-level exporter configuration.
type Config struct {
	// Listen is the address of the /metrics endpoint. Default: :9999
	Listen string `yaml:"listen"`

	// LogLevel is one of debug, info, warn, error. Default: info
	LogLevel string `yaml:"log_level"`

	Latency   collector.LatencyConfig   `yaml:"latency"`
	Router    collector.RouterConfig    `yaml:"router"`
	Speedtest collector.SpeedtestConfig `yaml:"speedtest"`
}

// ApplyDefaults sets default values for zero-valued fields.
func (c *Config) ApplyDefaults() {
	if c.Listen == "" {
		c.Listen = DefaultListenAddr
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	c.Latency.ApplyDefaults()
	c.Router.ApplyDefaults()
	c.Speedtest.ApplyDefaults()
}

// Validate checks the configuration and every probe section.
func (c *Config) Validate() error {
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: unknown log_level %q", c.LogLevel)
	}
	if c.Listen == "" {
		return errors.New("config: listen must not be empty")
	}
	return errors.Join(
		c.Latency.Validate(),
		c.Router.Validate(),
		c.Speedtest.Validate(),
	)
}

// Load reads the YAML file at path, applies defaults and validates the result.
// An empty path yields the default configuration.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("config: parse %s: %w", path, err)
		}
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// RouterPassword returns the router admin password from the environment.
// It is only required while the router probe is enabled.
func (c *Config) RouterPassword() (string, error) {
	if c.Router.Disabled {
		return "", nil
	}
	password, ok := os.LookupEnv(PasswordEnv)
	if !ok || password == "" {
		return "", fmt.Errorf("config: %s must be set while the router probe is enabled", PasswordEnv)
	}
	return password, nil
}
