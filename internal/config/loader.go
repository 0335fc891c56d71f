package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Environment variables honoured by [ApplyEnv]. They match the names used
// by other clients of the upstream service, so one credential setup covers
// all of them.
const (
	EnvAPIKey  = "ETERNAL_AI_API_KEY"
	EnvAPIBase = "ETERNAL_AI_API_BASE"
)

// Load reads the YAML configuration file at path, applies environment
// fallbacks, and returns a validated [Config].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r, applies environment
// fallbacks, and validates the result. Useful in tests where configs are
// constructed from string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	ApplyEnv(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// FromEnv returns a Config built purely from environment variables and
// defaults. Used when no config file is present, the common case for a
// stdio MCP server launched by a host application.
func FromEnv() (*Config, error) {
	cfg := &Config{}
	ApplyEnv(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv fills empty API fields from the environment. File values win
// over environment values.
func ApplyEnv(cfg *Config) {
	if cfg.API.APIKey == "" {
		cfg.API.APIKey = os.Getenv(EnvAPIKey)
	}
	if cfg.API.BaseURL == "" {
		cfg.API.BaseURL = os.Getenv(EnvAPIBase)
	}
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}

	if cfg.API.Timeout < 0 {
		errs = append(errs, fmt.Errorf("api.timeout %v must not be negative", cfg.API.Timeout))
	}

	if cfg.Poll.InitialDelay < 0 {
		errs = append(errs, fmt.Errorf("poll.initial_delay %v must not be negative", cfg.Poll.InitialDelay))
	}
	if cfg.Poll.Interval < 0 {
		errs = append(errs, fmt.Errorf("poll.interval %v must not be negative", cfg.Poll.Interval))
	}
	if cfg.Poll.MaxDuration < 0 {
		errs = append(errs, fmt.Errorf("poll.max_duration %v must not be negative", cfg.Poll.MaxDuration))
	}
	if cfg.Poll.MaxDuration > 0 && cfg.Poll.InitialDelay > cfg.Poll.MaxDuration {
		errs = append(errs, fmt.Errorf("poll.initial_delay %v exceeds poll.max_duration %v: no status check could ever be issued", cfg.Poll.InitialDelay, cfg.Poll.MaxDuration))
	}

	return errors.Join(errs...)
}
