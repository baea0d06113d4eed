// Package config provides configuration management for gospawn.
package config

import (
	"fmt"
	"time"

	"github.com/victoralfred/gospawn/observability"
	"github.com/victoralfred/gospawn/resilience"
)

// Config is the main configuration for gospawn.
type Config struct {
	RateLimiter resilience.RateLimiterConfig  `yaml:"rate_limiter"`
	Telemetry   observability.TelemetryConfig `yaml:"telemetry"`
	Executor    ExecutorConfig                `yaml:"executor"`
	Audit       observability.AuditConfig     `yaml:"audit"`
}

// ExecutorConfig configures the executor.
type ExecutorConfig struct {
	DefaultTimeout Duration `yaml:"default_timeout"`
	EnableMetrics  bool     `yaml:"enable_metrics"`
	EnableTracing  bool     `yaml:"enable_tracing"`
	EnableAudit    bool     `yaml:"enable_audit"`
	RateLimit      bool     `yaml:"rate_limit"`
}

// Duration is a time.Duration that can be unmarshaled from YAML.
type Duration struct {
	time.Duration
}

// UnmarshalYAML unmarshals a duration from YAML.
func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}

	duration, err := time.ParseDuration(s)
	if err != nil {
		return err
	}

	d.Duration = duration
	return nil
}

// MarshalYAML marshals a duration to YAML.
func (d Duration) MarshalYAML() (interface{}, error) {
	return d.String(), nil
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Executor: ExecutorConfig{
			DefaultTimeout: Duration{30 * time.Second},
			EnableMetrics:  true,
			EnableTracing:  true,
			EnableAudit:    true,
			RateLimit:      true,
		},
		RateLimiter: resilience.DefaultRateLimiterConfig(),
		Telemetry:   observability.DefaultTelemetryConfig(),
		Audit:       observability.DefaultAuditConfig(),
	}
}

// DevelopmentConfig returns configuration suitable for development.
func DevelopmentConfig() Config {
	cfg := DefaultConfig()
	cfg.Executor.DefaultTimeout = Duration{60 * time.Second}
	cfg.RateLimiter.DefaultLimit = 1000
	cfg.RateLimiter.DefaultBurst = 2000
	cfg.Audit.LogLevel = observability.AuditLogAll
	cfg.Audit.IncludeOutput = true
	return cfg
}

// ProductionConfig returns configuration suitable for production.
func ProductionConfig() Config {
	cfg := DefaultConfig()
	cfg.Executor.DefaultTimeout = Duration{30 * time.Second}
	cfg.RateLimiter.DefaultLimit = 100
	cfg.RateLimiter.DefaultBurst = 150
	cfg.Audit.LogLevel = observability.AuditLogAll
	cfg.Audit.IncludeOutput = false
	return cfg
}

// Validate validates the configuration, filling defaults for zero values.
func (c *Config) Validate() error {
	if c.Executor.DefaultTimeout.Duration < 0 {
		return fmt.Errorf("default timeout must not be negative")
	}
	if c.Executor.DefaultTimeout.Duration == 0 {
		c.Executor.DefaultTimeout = Duration{30 * time.Second}
	}

	if c.RateLimiter.DefaultLimit < 0 || c.RateLimiter.DefaultBurst < 0 {
		return fmt.Errorf("rate limits must not be negative")
	}
	if c.RateLimiter.DefaultLimit == 0 {
		c.RateLimiter.DefaultLimit = resilience.DefaultRateLimiterConfig().DefaultLimit
	}
	if c.RateLimiter.DefaultBurst == 0 {
		c.RateLimiter.DefaultBurst = resilience.DefaultRateLimiterConfig().DefaultBurst
	}

	if c.Audit.Enabled && c.Audit.BasePath == "" {
		return fmt.Errorf("audit base path is required when audit is enabled")
	}

	return nil
}
