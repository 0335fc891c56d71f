// Package config provides the configuration schema and loader for the
// EmberFX MCP server.
package config

import "time"

// LogLevel controls log verbosity for the EmberFX server.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// Config is the root configuration structure for EmberFX.
// It is typically loaded from a YAML file using [Load] or [LoadFromReader];
// the config file is optional and every field has a working default.
type Config struct {
	Server ServerConfig `yaml:"server"`
	API    APIConfig    `yaml:"api"`
	Poll   PollConfig   `yaml:"poll"`
}

// ServerConfig holds logging and telemetry settings.
type ServerConfig struct {
	// LogLevel controls verbosity. All logs go to stderr; stdout carries
	// the MCP protocol stream.
	LogLevel LogLevel `yaml:"log_level"`

	// MetricsAddr is the TCP address of the optional Prometheus /metrics
	// listener (e.g. "127.0.0.1:9090"). Empty disables the listener.
	MetricsAddr string `yaml:"metrics_addr"`

	// Instructions overrides the server instructions advertised to MCP
	// clients. Empty uses the built-in default.
	Instructions string `yaml:"instructions"`
}

// APIConfig holds connection settings for the upstream generation service.
type APIConfig struct {
	// BaseURL overrides the upstream API endpoint. Empty uses the public
	// endpoint. Also settable via the ETERNAL_AI_API_BASE environment
	// variable (the file value wins).
	BaseURL string `yaml:"base_url"`

	// APIKey is the bearer credential sent as the x-api-key header. Also
	// settable via the ETERNAL_AI_API_KEY environment variable (the file
	// value wins). Required to start.
	APIKey string `yaml:"api_key"`

	// Timeout is the per-request HTTP timeout. Zero uses the client default.
	Timeout time.Duration `yaml:"timeout"`
}

// PollConfig holds the smart_poll_result schedule. Zero values fall back to
// the poller defaults (30s initial delay, 15s interval, 120s ceiling).
type PollConfig struct {
	// InitialDelay is the wait before the first status check of a session.
	InitialDelay time.Duration `yaml:"initial_delay"`

	// Interval is the wait between consecutive status checks.
	Interval time.Duration `yaml:"interval"`

	// MaxDuration is the hard wall-clock ceiling on one poll session.
	MaxDuration time.Duration `yaml:"max_duration"`
}
