package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Load reads configuration from (in ascending precedence) the package
// defaults, an optional config file named configName under configPaths,
// and environment variables prefixed with envPrefix (e.g.
// ORCHESTRATOR_RATE_LIMIT_MAX overrides rate_limit_max). It is the only
// place in this module that touches viper or the environment.
func Load(configName string, configPaths []string, envPrefix string) (Config, error) {
	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("log_level", defaults.LogLevel)
	v.SetDefault("default_timeout_seconds", defaults.DefaultTimeoutSeconds)
	v.SetDefault("rate_limit_window_seconds", defaults.RateLimitWindowSeconds)
	v.SetDefault("rate_limit_max", defaults.RateLimitMax)
	v.SetDefault("circuit_breaker_failure_threshold", defaults.CircuitBreakerFailureThreshold)
	v.SetDefault("circuit_breaker_recovery_seconds", defaults.CircuitBreakerRecoverySeconds)
	v.SetDefault("retry_max_attempts", defaults.RetryMaxAttempts)
	v.SetDefault("retry_initial_delay_millis", defaults.RetryInitialDelayMillis)
	v.SetDefault("task_poll_interval_millis", defaults.TaskPollIntervalMillis)
	v.SetDefault("health_interval_seconds", defaults.HealthIntervalSeconds)
	v.SetDefault("metrics_interval_seconds", defaults.MetricsIntervalSeconds)
	v.SetDefault("performance_interval_seconds", defaults.PerformanceIntervalSeconds)
	v.SetDefault("security_interval_seconds", defaults.SecurityIntervalSeconds)
	v.SetDefault("performance_threshold", defaults.PerformanceThreshold)
	v.SetDefault("http_addr", defaults.HTTPAddr)
	v.SetDefault("metrics_addr", defaults.MetricsAddr)

	if configName != "" {
		v.SetConfigName(configName)
		v.SetConfigType("yaml")
		for _, p := range configPaths {
			v.AddConfigPath(p)
		}
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("config: failed to read config file: %w", err)
			}
		}
	}

	if envPrefix != "" {
		v.SetEnvPrefix(envPrefix)
	}
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: failed to unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
