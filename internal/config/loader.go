// Package config provides configuration management for the tennis predictions service.
package config

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

const (
	// EnvPrefix prefixes every environment override, e.g. TENNIS_PREDICTIONS_APP_LOG_LEVEL
	EnvPrefix = "TENNIS_PREDICTIONS"
	// ConfigPathEnv names the variable that points at the config file
	ConfigPathEnv     = EnvPrefix + "_CONFIG_PATH"
	defaultConfigPath = "config/config.yaml"
)

// ResolvePath returns the config file path from the flag value, the environment or the default
func ResolvePath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if envPath := os.Getenv(ConfigPathEnv); envPath != "" {
		return envPath
	}
	return defaultConfigPath
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	return v
}

// readExpanded reads the file and expands ${VAR} placeholders before viper parses it
func readExpanded(v *viper.Viper, data []byte) error {
	expanded := os.ExpandEnv(string(data))
	if err := v.ReadConfig(bytes.NewBufferString(expanded)); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

// Load reads and parses the configuration from file and environment variables.
// It expands environment variable placeholders in the YAML file (${VAR_NAME}).
func Load(configPath string) (*Config, error) {
	configPath = ResolvePath(configPath)

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found at %s: %w", configPath, err)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	v := newViper()
	if err := readExpanded(v, data); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	return cfg, nil
}

// LoadWithDefaults loads configuration on top of defaults for every field.
// A missing config file is not an error: defaults and environment variables apply.
func LoadWithDefaults(configPath string) (*Config, error) {
	configPath = ResolvePath(configPath)

	v := newViper()
	setDefaults(v)

	if data, err := os.ReadFile(configPath); err == nil {
		if err := readExpanded(v, data); err != nil {
			return nil, err
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "tennis-predictions")
	v.SetDefault("app.environment", "development")
	v.SetDefault("app.log_level", "info")

	v.SetDefault("rating.provisional_k", 40.0)
	v.SetDefault("rating.standard_k", 24.0)
	v.SetDefault("rating.provisional_matches", 30)
	v.SetDefault("rating.blend_min_surface_matches", 10)
	v.SetDefault("rating.surface_weight", 0.7)
	v.SetDefault("rating.overall_weight", 0.3)
	v.SetDefault("rating.margin_step", 0.25)
	v.SetDefault("rating.max_margin_multiplier", 1.5)
	v.SetDefault("rating.decay.enabled", false)
	v.SetDefault("rating.decay.grace_months", 3)
	v.SetDefault("rating.decay.monthly_rate", 0.015)
	v.SetDefault("rating.decay.floor", 1200.0)

	v.SetDefault("betting.edge_threshold", 0.05)
	v.SetDefault("betting.kelly_fraction", 0.25)
	v.SetDefault("betting.max_stake", 0.0)
	v.SetDefault("betting.strong_bet_ev", 0.10)
	v.SetDefault("betting.bet_ev", 0.05)
	v.SetDefault("betting.cache_ttl_seconds", 3600)
	v.SetDefault("betting.default_surface", "hard")
	v.SetDefault("betting.tours", []string{"atp", "wta"})

	v.SetDefault("data.matches_dir", "data")
	v.SetDefault("data.tours", []string{"atp", "wta"})
	v.SetDefault("data.start_year", 2020)

	v.SetDefault("odds_api.enabled", false)
	v.SetDefault("odds_api.base_url", "https://api.the-odds-api.com/v4")
	v.SetDefault("odds_api.regions", "us,uk,eu")
	v.SetDefault("odds_api.sport_keys", map[string]string{"atp": "tennis_atp", "wta": "tennis_wta"})
	v.SetDefault("odds_api.requests_per_second", 1.0)
	v.SetDefault("odds_api.burst", 2)
	v.SetDefault("odds_api.retry_max", 3)
	v.SetDefault("odds_api.timeout_seconds", 30)
	v.SetDefault("odds_api.odds_format", "decimal")

	v.SetDefault("storage.driver", StorageDriverFile)
	v.SetDefault("storage.file_path", "data/ratings.json")
	v.SetDefault("storage.sqlite_path", "data/ratings.db")
	v.SetDefault("storage.database.port", 5432)
	v.SetDefault("storage.database.ssl_mode", "disable")
	v.SetDefault("storage.database.max_connections", 10)

	v.SetDefault("api.port", 8000)
	v.SetDefault("api.read_timeout_seconds", 15)
	v.SetDefault("api.write_timeout_seconds", 30)
	v.SetDefault("api.allowed_origins", []string{"*"})
	v.SetDefault("api.stream_enabled", true)

	v.SetDefault("scheduler.enabled", false)
	v.SetDefault("scheduler.training_schedule", "0 6 * * *")
	v.SetDefault("scheduler.value_bet_interval_seconds", 900)
	v.SetDefault("scheduler.job_timeout_seconds", 600)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.stream_prefix", "value_bets.detected")

	v.SetDefault("telegram.enabled", false)
	v.SetDefault("telegram.max_retries", 3)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
}
