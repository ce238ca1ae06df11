package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultUpdateIntervalSeconds = 5
	defaultAPITimeout            = 2 * time.Second
	defaultListen                = ":8050"

	// DisabledInterval is the sentinel that turns off scheduled polling.
	DisabledInterval = -1
)

// Duration wraps time.Duration to support YAML unmarshalling from strings.
type Duration struct {
	time.Duration
}

// UnmarshalYAML parses duration strings like "5s" or "1m".
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	if value == nil {
		return fmt.Errorf("duration value node is nil")
	}
	var raw string
	if err := value.Decode(&raw); err != nil {
		return fmt.Errorf("decode duration: %w", err)
	}
	if raw == "" {
		d.Duration = 0
		return nil
	}
	dur, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("parse duration %q: %w", raw, err)
	}
	d.Duration = dur
	return nil
}

// MarshalYAML renders the duration as a string.
func (d Duration) MarshalYAML() (interface{}, error) {
	return d.Duration.String(), nil
}

// APIConfig describes how to reach the pool controller.
type APIConfig struct {
	BaseURL string   `yaml:"base_url"`
	Timeout Duration `yaml:"timeout,omitempty"`
}

// DashboardConfig configures the web panel.
type DashboardConfig struct {
	Listen string `yaml:"listen"`
}

// LokiConfig configures optional Loki integration for logging.
type LokiConfig struct {
	Enabled bool              `yaml:"enabled"`
	URL     string            `yaml:"url"`
	Labels  map[string]string `yaml:"labels"`
}

// LoggingConfig encapsulates runtime logging options.
type LoggingConfig struct {
	Level  string     `yaml:"level"`
	Format string     `yaml:"format"`
	Loki   LokiConfig `yaml:"loki"`
}

// TelemetryConfig toggles Prometheus metrics.
type TelemetryConfig struct {
	Enabled bool `yaml:"enabled"`
}

// RuleConfig is one highlight rule evaluated against each snapshot.
type RuleConfig struct {
	ID       string `yaml:"id"`
	When     string `yaml:"when"`
	Severity string `yaml:"severity,omitempty"`
	Message  string `yaml:"message"`
}

// Config is the root configuration for the dashboard service.
type Config struct {
	API APIConfig `yaml:"api"`
	// UpdateInterval is the poll period in seconds; -1 disables scheduled
	// polling while still allowing the startup fetch and manual refresh.
	UpdateInterval int             `yaml:"update_interval"`
	StaleAfter     Duration        `yaml:"stale_after,omitempty"`
	Dashboard      DashboardConfig `yaml:"dashboard"`
	Logging        LoggingConfig   `yaml:"logging"`
	Telemetry      TelemetryConfig `yaml:"telemetry"`
	Rules          []RuleConfig    `yaml:"rules,omitempty"`
}

// Load reads the optional configuration file, applies environment overrides
// and validates the result. An empty path yields a pure env/default config.
func Load(path string) (*Config, error) {
	cfg := &Config{UpdateInterval: defaultUpdateIntervalSeconds}
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("unmarshal config: %w", err)
		}
		if cfg.UpdateInterval == 0 {
			cfg.UpdateInterval = defaultUpdateIntervalSeconds
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if base := strings.TrimSpace(os.Getenv("API_BASE_URL")); base != "" {
		c.API.BaseURL = base
	}
	if raw := strings.TrimSpace(os.Getenv("UPDATE_INTERVAL")); raw != "" {
		seconds, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("parse UPDATE_INTERVAL %q: %w", raw, err)
		}
		c.UpdateInterval = seconds
	}
	return nil
}

func (c *Config) validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("api base url is required (api.base_url or API_BASE_URL)")
	}
	if c.UpdateInterval == 0 || c.UpdateInterval < DisabledInterval {
		return fmt.Errorf("update_interval must be positive seconds or %d to disable", DisabledInterval)
	}
	return nil
}

// PollingDisabled reports whether scheduled polling is turned off.
func (c *Config) PollingDisabled() bool {
	return c == nil || c.UpdateInterval == DisabledInterval
}

// PollInterval returns the poll period as a duration. When polling is
// disabled the default period is returned; callers gate on PollingDisabled.
func (c *Config) PollInterval() time.Duration {
	if c == nil || c.UpdateInterval <= 0 {
		return defaultUpdateIntervalSeconds * time.Second
	}
	return time.Duration(c.UpdateInterval) * time.Second
}

// StaleThreshold returns the configured staleness threshold, defaulting to
// five poll intervals.
func (c *Config) StaleThreshold() time.Duration {
	if c != nil && c.StaleAfter.Duration > 0 {
		return c.StaleAfter.Duration
	}
	return 5 * c.PollInterval()
}

// APITimeout returns the per-call controller timeout.
func (c *Config) APITimeout() time.Duration {
	if c != nil && c.API.Timeout.Duration > 0 {
		return c.API.Timeout.Duration
	}
	return defaultAPITimeout
}

// DashboardListen returns the web panel listen address.
func (c *Config) DashboardListen() string {
	if c != nil && c.Dashboard.Listen != "" {
		return c.Dashboard.Listen
	}
	return defaultListen
}
