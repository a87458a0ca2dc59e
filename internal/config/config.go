package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jgoulah/powerdash/internal/tariff"
	"gopkg.in/yaml.v3"
)

const (
	defaultSourceURL   = "http://localhost:5000/api/data"
	defaultTimeout     = 10 * time.Second
	defaultCurrency    = "₹"
	defaultLogLevel    = "info"
	defaultTopicPrefix = "powerdash"
)

// Config holds the application configuration
type Config struct {
	Source        SourceConfig `yaml:"source"`
	Tariff        TariffConfig `yaml:"tariff,omitempty"`
	Currency      string       `yaml:"currency,omitempty"`
	LogLevel      string       `yaml:"log_level,omitempty"`
	MQTT          MQTTConfig   `yaml:"mqtt,omitempty"`
	HomeAssistant HAConfig     `yaml:"home_assistant,omitempty"`
}

// SourceConfig describes where readings are fetched from
type SourceConfig struct {
	URL            string `yaml:"url,omitempty"`             // e.g., "http://localhost:5000/api/data"
	File           string `yaml:"file,omitempty"`            // JSON dump used instead of the URL
	TimeoutSeconds int    `yaml:"timeout_seconds,omitempty"` // Per-request timeout (fallback: 10)
	Retries        int    `yaml:"retries,omitempty"`         // Extra attempts after the first
	Timezone       string `yaml:"timezone,omitempty"`        // IANA name for the local date (fallback: Local)
}

// TariffConfig overrides the default tariff schedule
type TariffConfig struct {
	Overflow tariff.OverflowPolicy `yaml:"overflow,omitempty"` // reject or extrapolate
	Bands    []tariff.Band         `yaml:"bands,omitempty"`
}

// MQTTConfig holds MQTT broker configuration
type MQTTConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Broker      string `yaml:"broker"`                 // e.g., "homeassistant.local:1883"
	Username    string `yaml:"username,omitempty"`
	Password    string `yaml:"password,omitempty"`
	TopicPrefix string `yaml:"topic_prefix,omitempty"` // (fallback: powerdash)
}

// HAConfig holds Home Assistant HTTP API configuration
type HAConfig struct {
	Enabled  bool   `yaml:"enabled"`
	URL      string `yaml:"url"`       // e.g., "http://yourdomain.local:5050"
	Token    string `yaml:"token"`     // Long-lived access token
	EntityID string `yaml:"entity_id"` // e.g., "sensor.powerdash_daily_cost"
}

// Load reads the config file
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			// Return empty config if file doesn't exist
			return &Config{}, nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	return &cfg, nil
}

// Save writes the config to file
func Save(configPath string, cfg *Config) error {
	// Ensure directory exists
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// DefaultConfigPath returns the default config file path (local directory)
func DefaultConfigPath() string {
	return "config.yaml"
}

// GetSourceURL returns the readings endpoint, defaulting to the local backend
func (c *Config) GetSourceURL() string {
	if c.Source.URL == "" {
		return defaultSourceURL
	}
	return c.Source.URL
}

// GetTimeout returns the per-request fetch timeout
func (c *Config) GetTimeout() time.Duration {
	if c.Source.TimeoutSeconds <= 0 {
		return defaultTimeout
	}
	return time.Duration(c.Source.TimeoutSeconds) * time.Second
}

// GetRetries returns the number of extra fetch attempts, never negative
func (c *Config) GetRetries() int {
	if c.Source.Retries < 0 {
		return 0
	}
	return c.Source.Retries
}

// GetLocation resolves the timezone used to derive local dates
func (c *Config) GetLocation() (*time.Location, error) {
	if c.Source.Timezone == "" || c.Source.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Source.Timezone)
	if err != nil {
		return nil, fmt.Errorf("loading timezone %q: %w", c.Source.Timezone, err)
	}
	return loc, nil
}

// GetSchedule returns the configured tariff, falling back to the default bands
func (c *Config) GetSchedule() (tariff.Schedule, error) {
	sched := tariff.DefaultSchedule()
	if len(c.Tariff.Bands) > 0 {
		sched.Bands = c.Tariff.Bands
	}
	if c.Tariff.Overflow != "" {
		sched.Overflow = c.Tariff.Overflow
	}

	if err := sched.Validate(); err != nil {
		return tariff.Schedule{}, fmt.Errorf("invalid tariff: %w", err)
	}
	return sched, nil
}

// GetCurrency returns the currency symbol shown next to costs
func (c *Config) GetCurrency() string {
	if c.Currency == "" {
		return defaultCurrency
	}
	return c.Currency
}

// GetLogLevel returns the configured log level (fallback: info)
func (c *Config) GetLogLevel() string {
	if c.LogLevel == "" {
		return defaultLogLevel
	}
	return c.LogLevel
}

// GetTopicPrefix returns the MQTT topic prefix
func (c *Config) GetTopicPrefix() string {
	if c.MQTT.TopicPrefix == "" {
		return defaultTopicPrefix
	}
	return c.MQTT.TopicPrefix
}
