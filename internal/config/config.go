package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/kcdb-client/pkg/kcdb"
)

// Config is the complete configuration of the kcdb tools.
type Config struct {
	KCDB    KCDBConfig    `mapstructure:"kcdb"`
	Logging LoggingConfig `mapstructure:"logging"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	MCP     MCPConfig     `mapstructure:"mcp"`
}

// KCDBConfig configures the KCDB client.
type KCDBConfig struct {
	BaseURL        string               `mapstructure:"base_url"`
	Timeout        time.Duration        `mapstructure:"timeout"`
	RateLimit      float64              `mapstructure:"rate_limit"`
	UserAgent      string               `mapstructure:"user_agent"`
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"`
}

// CircuitBreakerConfig configures the optional circuit breaker in front of the KCDB server.
type CircuitBreakerConfig struct {
	Enabled          bool          `mapstructure:"enabled"`
	MaxRequests      uint32        `mapstructure:"max_requests"`
	Interval         time.Duration `mapstructure:"interval"`
	Timeout          time.Duration `mapstructure:"timeout"`
	FailureThreshold uint32        `mapstructure:"failure_threshold"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// MetricsConfig controls the Prometheus listener of the MCP server.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Address string `mapstructure:"address"`
}

// MCPConfig represents MCP server configuration
type MCPConfig struct {
	ServerName    string `mapstructure:"server_name"`
	ServerVersion string `mapstructure:"server_version"`
}

// Option customizes how a Manager loads its configuration.
type Option func(*Manager)

// WithConfigFile reads the configuration from path instead of searching the default locations.
func WithConfigFile(path string) Option {
	return func(m *Manager) {
		m.file = path
	}
}

// Manager loads configuration from a config file, KCDB_* environment variables and defaults.
type Manager struct {
	v      *viper.Viper
	file   string
	config *Config
}

// NewManager creates a new configuration manager
func NewManager(opts ...Option) (*Manager, error) {
	m := &Manager{}
	for _, opt := range opts {
		opt(m)
	}
	if err := m.loadConfig(); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return m, nil
}

func (m *Manager) loadConfig() error {
	v := viper.New()

	if m.file != "" {
		v.SetConfigFile(m.file)
	} else {
		v.SetConfigName("kcdb")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("$HOME/.kcdb")
	}

	v.SetEnvPrefix("KCDB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// The config file is optional when it is searched for, but an explicit one must exist.
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if m.file != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	config := &Config{}
	if err := v.Unmarshal(config); err != nil {
		return fmt.Errorf("error unmarshaling config: %w", err)
	}

	m.v = v
	m.config = config
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("kcdb.base_url", kcdb.DefaultBaseURL)
	v.SetDefault("kcdb.timeout", "30s")
	v.SetDefault("kcdb.rate_limit", 5)
	v.SetDefault("kcdb.user_agent", kcdb.DefaultUserAgent)
	v.SetDefault("kcdb.circuit_breaker.enabled", false)
	v.SetDefault("kcdb.circuit_breaker.max_requests", 1)
	v.SetDefault("kcdb.circuit_breaker.interval", "60s")
	v.SetDefault("kcdb.circuit_breaker.timeout", "30s")
	v.SetDefault("kcdb.circuit_breaker.failure_threshold", 5)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "text")

	v.SetDefault("metrics.enabled", false)
	v.SetDefault("metrics.address", ":9464")

	v.SetDefault("mcp.server_name", "kcdb-mcp")
	v.SetDefault("mcp.server_version", "v0.1.0")
}

// GetConfig returns the complete configuration
func (m *Manager) GetConfig() *Config {
	return m.config
}

// ConfigFile returns the file the configuration was read from, or "" when only
// defaults and the environment were used.
func (m *Manager) ConfigFile() string {
	return m.v.ConfigFileUsed()
}

// Reload reloads the configuration
func (m *Manager) Reload() error {
	return m.loadConfig()
}

// Validate validates the configuration
func (m *Manager) Validate() error {
	config := m.config

	u, err := url.Parse(config.KCDB.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid KCDB base URL: %q", config.KCDB.BaseURL)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported KCDB base URL scheme: %s", u.Scheme)
	}
	if config.KCDB.Timeout < 0 {
		return fmt.Errorf("invalid KCDB timeout: %s", config.KCDB.Timeout)
	}
	if config.KCDB.RateLimit < 0 {
		return fmt.Errorf("invalid KCDB rate limit: %v", config.KCDB.RateLimit)
	}

	validLogLevels := map[string]bool{
		"trace": true, "debug": true, "info": true, "warn": true, "error": true, "fatal": true, "panic": true,
	}
	if !validLogLevels[strings.ToLower(config.Logging.Level)] {
		return fmt.Errorf("invalid log level: %s", config.Logging.Level)
	}
	switch strings.ToLower(config.Logging.Format) {
	case "text", "json":
	default:
		return fmt.Errorf("invalid log format: %s", config.Logging.Format)
	}

	if config.Metrics.Enabled && config.Metrics.Address == "" {
		return fmt.Errorf("metrics address is required when metrics are enabled")
	}
	return nil
}

// ClientConfig maps the kcdb section onto a kcdb.Config. A zero timeout means
// no timeout here, since the file has no other way to express it.
func (m *Manager) ClientConfig() kcdb.Config {
	c := m.config.KCDB
	timeout := c.Timeout
	if timeout == 0 {
		timeout = -1
	}
	return kcdb.Config{
		BaseURL:   c.BaseURL,
		Timeout:   timeout,
		RateLimit: c.RateLimit,
		UserAgent: c.UserAgent,
		CircuitBreaker: kcdb.CircuitBreakerConfig{
			Enabled:          c.CircuitBreaker.Enabled,
			MaxRequests:      c.CircuitBreaker.MaxRequests,
			Interval:         c.CircuitBreaker.Interval,
			Timeout:          c.CircuitBreaker.Timeout,
			FailureThreshold: c.CircuitBreaker.FailureThreshold,
		},
	}
}
