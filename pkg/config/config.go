// Package config defines the orchestration core's configuration surface
// and its Viper-backed loader. Core packages never read environment
// variables or files themselves; cmd/orchestratord is the only consumer of
// this package's Load function, per the core's "config is external" scope
// boundary.
package config

import (
	"fmt"
	"time"
)

// Config is the orchestration core's external configuration surface.
type Config struct {
	LogLevel string `mapstructure:"log_level"`

	DefaultTimeoutSeconds int `mapstructure:"default_timeout_seconds"`

	RateLimitWindowSeconds int `mapstructure:"rate_limit_window_seconds"`
	RateLimitMax           int `mapstructure:"rate_limit_max"`

	CircuitBreakerFailureThreshold uint32 `mapstructure:"circuit_breaker_failure_threshold"`
	CircuitBreakerRecoverySeconds  int    `mapstructure:"circuit_breaker_recovery_seconds"`

	RetryMaxAttempts        int `mapstructure:"retry_max_attempts"`
	RetryInitialDelayMillis int `mapstructure:"retry_initial_delay_millis"`

	TaskPollIntervalMillis int `mapstructure:"task_poll_interval_millis"`

	HealthIntervalSeconds      int     `mapstructure:"health_interval_seconds"`
	MetricsIntervalSeconds     int     `mapstructure:"metrics_interval_seconds"`
	PerformanceIntervalSeconds int     `mapstructure:"performance_interval_seconds"`
	SecurityIntervalSeconds    int     `mapstructure:"security_interval_seconds"`
	PerformanceThreshold       float64 `mapstructure:"performance_threshold"`

	HTTPAddr    string `mapstructure:"http_addr"`
	MetricsAddr string `mapstructure:"metrics_addr"`
}

// DefaultConfig returns a Config with every field set to its production
// default.
func DefaultConfig() Config {
	return Config{
		LogLevel: "info",

		DefaultTimeoutSeconds: 1800,

		RateLimitWindowSeconds: 60,
		RateLimitMax:           0, // unlimited

		CircuitBreakerFailureThreshold: 5,
		CircuitBreakerRecoverySeconds:  60,

		RetryMaxAttempts:        3,
		RetryInitialDelayMillis: 1000,

		TaskPollIntervalMillis: 1000,

		HealthIntervalSeconds:      30,
		MetricsIntervalSeconds:     60,
		PerformanceIntervalSeconds: 60,
		SecurityIntervalSeconds:    60,
		PerformanceThreshold:       0.5,

		HTTPAddr:    ":8080",
		MetricsAddr: ":9090",
	}
}

// Validate rejects configurations that would make the core misbehave
// rather than simply underperform.
func (c Config) Validate() error {
	if c.DefaultTimeoutSeconds <= 0 {
		return fmt.Errorf("config: default_timeout_seconds must be positive, got %d", c.DefaultTimeoutSeconds)
	}
	if c.RateLimitWindowSeconds <= 0 {
		return fmt.Errorf("config: rate_limit_window_seconds must be positive, got %d", c.RateLimitWindowSeconds)
	}
	if c.RateLimitMax < 0 {
		return fmt.Errorf("config: rate_limit_max must be >= 0, got %d", c.RateLimitMax)
	}
	if c.RetryMaxAttempts <= 0 {
		return fmt.Errorf("config: retry_max_attempts must be positive, got %d", c.RetryMaxAttempts)
	}
	if c.TaskPollIntervalMillis < 1000 {
		return fmt.Errorf("config: task_poll_interval_millis must be >= 1000, got %d", c.TaskPollIntervalMillis)
	}
	if c.PerformanceThreshold < 0 || c.PerformanceThreshold > 1 {
		return fmt.Errorf("config: performance_threshold must be in [0, 1], got %f", c.PerformanceThreshold)
	}
	return nil
}

func (c Config) RateLimitWindow() time.Duration {
	return time.Duration(c.RateLimitWindowSeconds) * time.Second
}

func (c Config) CircuitBreakerRecovery() time.Duration {
	return time.Duration(c.CircuitBreakerRecoverySeconds) * time.Second
}

func (c Config) RetryInitialDelay() time.Duration {
	return time.Duration(c.RetryInitialDelayMillis) * time.Millisecond
}

func (c Config) TaskPollInterval() time.Duration {
	return time.Duration(c.TaskPollIntervalMillis) * time.Millisecond
}

func (c Config) HealthInterval() time.Duration {
	return time.Duration(c.HealthIntervalSeconds) * time.Second
}

func (c Config) MetricsInterval() time.Duration {
	return time.Duration(c.MetricsIntervalSeconds) * time.Second
}

func (c Config) PerformanceInterval() time.Duration {
	return time.Duration(c.PerformanceIntervalSeconds) * time.Second
}

func (c Config) SecurityInterval() time.Duration {
	return time.Duration(c.SecurityIntervalSeconds) * time.Second
}
