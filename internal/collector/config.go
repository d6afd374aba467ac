package collector

import (
	"errors"
	"time"

	"github.com/R167/homenet_exporter/internal/client"
)

const (
	// DefaultLatencyInterval is the period between Cloudflare latency measurements.
	DefaultLatencyInterval = 5 * time.Minute

	// DefaultLatencyDelay staggers the first latency run away from the speedtest run.
	DefaultLatencyDelay = time.Minute

	// DefaultRouterInterval is the period between router status polls.
	DefaultRouterInterval = 5 * time.Second

	// DefaultSpeedtestInterval is the period between speedtest CLI runs.
	DefaultSpeedtestInterval = 5 * time.Minute
)

// LatencyConfig configures the Cloudflare latency probe.
type LatencyConfig struct {
	// Disabled turns the probe off.
	Disabled bool `yaml:"disabled"`

	// URL is the zero-byte download endpoint.
	// Default: https://speed.cloudflare.com/__down?bytes=0
	URL string `yaml:"url"`

	// Samples is the number of round trips per measurement. Default: 25
	Samples int `yaml:"samples"`

	// Interval is the period between measurements. Default: 5m
	Interval time.Duration `yaml:"interval"`

	// StartDelay is waited once before the first measurement. Default: 1m.
	// An explicit 0s starts measuring immediately.
	StartDelay *time.Duration `yaml:"start_delay"`
}

// ApplyDefaults sets default values for zero-valued fields.
func (c *LatencyConfig) ApplyDefaults() {
	if c.URL == "" {
		c.URL = client.DefaultLatencyURL
	}
	if c.Samples == 0 {
		c.Samples = client.DefaultLatencySamples
	}
	if c.Interval == 0 {
		c.Interval = DefaultLatencyInterval
	}
	if c.StartDelay == nil {
		delay := DefaultLatencyDelay
		c.StartDelay = &delay
	}
}

// Validate checks that configuration values are within acceptable ranges.
func (c *LatencyConfig) Validate() error {
	if c.Disabled {
		return nil
	}
	if c.Samples <= 0 {
		return errors.New("latency: config: samples must be > 0")
	}
	if c.Interval <= 0 {
		return errors.New("latency: config: interval must be > 0")
	}
	if c.StartDelay != nil && *c.StartDelay < 0 {
		return errors.New("latency: config: start_delay must not be negative")
	}
	return nil
}

// Delay returns the configured start delay, or the default when unset.
func (c *LatencyConfig) Delay() time.Duration {
	if c.StartDelay == nil {
		return DefaultLatencyDelay
	}
	return *c.StartDelay
}

// RouterConfig configures the NR5103E router session probe.
type RouterConfig struct {
	// Disabled turns the probe off. The admin password is only required
	// while the probe is enabled.
	Disabled bool `yaml:"disabled"`

	// Address is the router's management base URL. Default: https://192.168.1.1
	Address string `yaml:"address"`

	// Interval is the period between status polls. Default: 5s
	Interval time.Duration `yaml:"interval"`

	// MaxRelogins is how many times a failed status poll may be retried
	// with a fresh login before the loop stops. Default: 0, any failure
	// stops the loop.
	MaxRelogins int `yaml:"max_relogins"`
}

// ApplyDefaults sets default values for zero-valued fields.
func (c *RouterConfig) ApplyDefaults() {
	if c.Address == "" {
		c.Address = client.DefaultRouterAddress
	}
	if c.Interval == 0 {
		c.Interval = DefaultRouterInterval
	}
}

// Validate checks that configuration values are within acceptable ranges.
func (c *RouterConfig) Validate() error {
	if c.Disabled {
		return nil
	}
	if c.Interval < time.Second {
		return errors.New("router: config: interval must be at least 1s")
	}
	if c.MaxRelogins < 0 {
		return errors.New("router: config: max_relogins must not be negative")
	}
	return nil
}

// SpeedtestConfig configures the speedtest CLI probe.
type SpeedtestConfig struct {
	// Disabled turns the probe off.
	Disabled bool `yaml:"disabled"`

	// Binary is the speedtest executable. Default: speedtest
	Binary string `yaml:"binary"`

	// ServerID pins the test server. Default: 14679
	ServerID string `yaml:"server_id"`

	// Interval is the period between runs. Default: 5m
	Interval time.Duration `yaml:"interval"`
}

// ApplyDefaults sets default values for zero-valued fields.
func (c *SpeedtestConfig) ApplyDefaults() {
	if c.Binary == "" {
		c.Binary = client.DefaultSpeedtestBinary
	}
	if c.ServerID == "" {
		c.ServerID = client.DefaultSpeedtestServer
	}
	if c.Interval == 0 {
		c.Interval = DefaultSpeedtestInterval
	}
}

// Validate checks that configuration values are within acceptable ranges.
func (c *SpeedtestConfig) Validate() error {
	if c.Disabled {
		return nil
	}
	if c.Interval < time.Minute {
		return errors.New("speedtest: config: interval must be at least 1m")
	}
	return nil
}
