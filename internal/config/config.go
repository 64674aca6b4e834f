// Package config provides configuration management for the tennis predictions service.
package config

import (
	"fmt"
	"time"
)

// Storage drivers for rating snapshots
const (
	StorageDriverFile     = "file"
	StorageDriverSQLite   = "sqlite"
	StorageDriverPostgres = "postgres"
)

// Config represents the complete application configuration
type Config struct {
	App       AppConfig       `mapstructure:"app" validate:"required"`
	Rating    RatingConfig    `mapstructure:"rating" validate:"required"`
	Betting   BettingConfig   `mapstructure:"betting" validate:"required"`
	Data      DataConfig      `mapstructure:"data" validate:"required"`
	OddsAPI   OddsAPIConfig   `mapstructure:"odds_api"`
	Storage   StorageConfig   `mapstructure:"storage" validate:"required"`
	API       APIConfig       `mapstructure:"api" validate:"required"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Telegram  TelegramConfig  `mapstructure:"telegram"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

// AppConfig represents application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Environment string `mapstructure:"environment" validate:"required,environment"`
	LogLevel    string `mapstructure:"log_level" validate:"required,loglevel"`
}

// RatingConfig holds the Elo model parameters
type RatingConfig struct {
	ProvisionalK           float64     `mapstructure:"provisional_k" validate:"gte=0"`
	StandardK              float64     `mapstructure:"standard_k" validate:"gte=0"`
	ProvisionalMatches     int         `mapstructure:"provisional_matches" validate:"gte=0"`
	BlendMinSurfaceMatches int         `mapstructure:"blend_min_surface_matches" validate:"gte=0"`
	SurfaceWeight          float64     `mapstructure:"surface_weight" validate:"gte=0,lte=1"`
	OverallWeight          float64     `mapstructure:"overall_weight" validate:"gte=0,lte=1"`
	MarginStep             float64     `mapstructure:"margin_step" validate:"gte=0"`
	MaxMarginMultiplier    float64     `mapstructure:"max_margin_multiplier" validate:"gte=1"`
	Decay                  DecayConfig `mapstructure:"decay"`
}

// DecayConfig controls inactivity decay applied to predictions
type DecayConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	GraceMonths int     `mapstructure:"grace_months" validate:"gte=0"`
	MonthlyRate float64 `mapstructure:"monthly_rate" validate:"gte=0,lt=1"`
	Floor       float64 `mapstructure:"floor" validate:"gte=0"`
}

// BettingConfig represents value-bet detection configuration
type BettingConfig struct {
	EdgeThreshold   float64  `mapstructure:"edge_threshold" validate:"gt=0,lt=1"`
	KellyFraction   float64  `mapstructure:"kelly_fraction" validate:"gt=0,lte=1"`
	MaxStake        float64  `mapstructure:"max_stake" validate:"gte=0,lte=1"`
	StrongBetEV     float64  `mapstructure:"strong_bet_ev" validate:"gt=0"`
	BetEV           float64  `mapstructure:"bet_ev" validate:"gt=0"`
	CacheTTLSeconds int      `mapstructure:"cache_ttl_seconds" validate:"gt=0"`
	DefaultSurface  string   `mapstructure:"default_surface" validate:"required,surface"`
	Tours           []string `mapstructure:"tours" validate:"required,min=1,tours"`
}

// DataConfig represents the historical match source
type DataConfig struct {
	MatchesDir string   `mapstructure:"matches_dir" validate:"required"`
	Tours      []string `mapstructure:"tours" validate:"required,min=1,tours"`
	StartYear  int      `mapstructure:"start_year" validate:"required,gte=1968"`
	EndYear    int      `mapstructure:"end_year" validate:"omitempty,gte=1968"`
}

// OddsAPIConfig represents the bookmaker odds provider
type OddsAPIConfig struct {
	Enabled           bool              `mapstructure:"enabled"`
	BaseURL           string            `mapstructure:"base_url" validate:"omitempty,url"`
	APIKey            string            `mapstructure:"api_key"`
	Regions           string            `mapstructure:"regions"`
	SportKeys         map[string]string `mapstructure:"sport_keys"`
	RequestsPerSecond float64           `mapstructure:"requests_per_second" validate:"gte=0"`
	Burst             int               `mapstructure:"burst" validate:"gte=0"`
	RetryMax          int               `mapstructure:"retry_max" validate:"gte=0"`
	TimeoutSeconds    int               `mapstructure:"timeout_seconds" validate:"gte=0"`
	OddsFormat        string            `mapstructure:"odds_format" validate:"omitempty,oneof=decimal american"`
}

// StorageConfig selects where rating snapshots are persisted
type StorageConfig struct {
	Driver     string         `mapstructure:"driver" validate:"required,storagedriver"`
	FilePath   string         `mapstructure:"file_path"`
	SQLitePath string         `mapstructure:"sqlite_path"`
	Database   DatabaseConfig `mapstructure:"database"`
}

// DatabaseConfig represents database connection configuration
type DatabaseConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port" validate:"omitempty,min=1,max=65535"`
	Name           string `mapstructure:"name"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	SSLMode        string `mapstructure:"ssl_mode" validate:"omitempty,oneof=disable require verify-full"`
	MaxConnections int    `mapstructure:"max_connections" validate:"gte=0"`
}

// APIConfig represents the HTTP API server
type APIConfig struct {
	Port                int      `mapstructure:"port" validate:"required,min=1,max=65535"`
	ReadTimeoutSeconds  int      `mapstructure:"read_timeout_seconds" validate:"gt=0"`
	WriteTimeoutSeconds int      `mapstructure:"write_timeout_seconds" validate:"gt=0"`
	AllowedOrigins      []string `mapstructure:"allowed_origins"`
	StreamEnabled       bool     `mapstructure:"stream_enabled"`
}

// SchedulerConfig represents periodic jobs
type SchedulerConfig struct {
	Enabled                 bool   `mapstructure:"enabled"`
	TrainingSchedule        string `mapstructure:"training_schedule"`
	ValueBetIntervalSeconds int    `mapstructure:"value_bet_interval_seconds" validate:"gte=0"`
	JobTimeoutSeconds       int    `mapstructure:"job_timeout_seconds" validate:"gte=0"`
}

// RedisConfig represents the value-bet stream publisher
type RedisConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	Addr         string `mapstructure:"addr"`
	Password     string `mapstructure:"password"`
	DB           int    `mapstructure:"db" validate:"gte=0"`
	StreamPrefix string `mapstructure:"stream_prefix"`
}

// TelegramConfig represents value-bet alerts
type TelegramConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	BotToken   string `mapstructure:"bot_token"`
	ChatID     string `mapstructure:"chat_id"`
	MaxRetries int    `mapstructure:"max_retries" validate:"gte=0"`
	// MinEdge filters alerts; 0 alerts on every value bet.
	MinEdge float64 `mapstructure:"min_edge" validate:"gte=0"`
}

// MetricsConfig represents metrics and monitoring configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// IsDevelopment checks if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsStaging checks if the application is running in staging mode
func (c *Config) IsStaging() bool {
	return c.App.Environment == "staging"
}

// IsProduction checks if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// GetDatabaseDSN returns a PostgreSQL DSN string
func (c *Config) GetDatabaseDSN() string {
	db := c.Storage.Database
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		db.User,
		db.Password,
		db.Host,
		db.Port,
		db.Name,
		db.SSLMode,
	)
}

// CacheTTL returns the value-bet cache lifetime
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Betting.CacheTTLSeconds) * time.Second
}

// JobTimeout returns the timeout applied to scheduled jobs
func (c *Config) JobTimeout() time.Duration {
	if c.Scheduler.JobTimeoutSeconds <= 0 {
		return 10 * time.Minute
	}
	return time.Duration(c.Scheduler.JobTimeoutSeconds) * time.Second
}
