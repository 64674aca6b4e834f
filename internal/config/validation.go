// Package config provides configuration management for the tennis predictions service.
package config

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"
)

// CustomValidator wraps the validator with custom validation rules
type CustomValidator struct {
	validator *validator.Validate
}

// NewValidator creates a new validator with custom validation functions
func NewValidator() *CustomValidator {
	v := validator.New()

	// Registration only fails for empty tags or nil functions.
	_ = v.RegisterValidation("environment", validateEnvironment)
	_ = v.RegisterValidation("loglevel", validateLogLevel)
	_ = v.RegisterValidation("surface", validateSurface)
	_ = v.RegisterValidation("tours", validateTours)
	_ = v.RegisterValidation("storagedriver", validateStorageDriver)

	return &CustomValidator{validator: v}
}

// Validate validates the entire configuration
func Validate(cfg *Config) error {
	cv := NewValidator()
	return cv.Validate(cfg)
}

// Validate validates the configuration using registered validation rules
func (cv *CustomValidator) Validate(cfg *Config) error {
	err := cv.validator.Struct(cfg)
	if err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			return formatValidationErrors(validationErrors)
		}
		return fmt.Errorf("validation failed: %w", err)
	}

	if err := validateCrossField(cfg); err != nil {
		return err
	}

	return nil
}

func validateEnvironment(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "development", "staging", "production":
		return true
	default:
		return false
	}
}

func validateLogLevel(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "debug", "info", "warn", "error":
		return true
	default:
		return false
	}
}

func validateSurface(fl validator.FieldLevel) bool {
	switch strings.ToLower(fl.Field().String()) {
	case "hard", "clay", "grass":
		return true
	default:
		return false
	}
}

// validateTours checks every entry is a known tour
func validateTours(fl validator.FieldLevel) bool {
	tours, ok := fl.Field().Interface().([]string)
	if !ok || len(tours) == 0 {
		return false
	}
	for _, tour := range tours {
		switch strings.ToLower(tour) {
		case "atp", "wta":
		default:
			return false
		}
	}
	return true
}

func validateStorageDriver(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case StorageDriverFile, StorageDriverSQLite, StorageDriverPostgres:
		return true
	default:
		return false
	}
}

// validateCrossField performs cross-field validations
func validateCrossField(cfg *Config) error {
	if cfg.Rating.ProvisionalK < cfg.Rating.StandardK {
		return fmt.Errorf("rating.provisional_k must be at least rating.standard_k")
	}
	if math.Abs(cfg.Rating.SurfaceWeight+cfg.Rating.OverallWeight-1) > 1e-6 {
		return fmt.Errorf("rating.surface_weight and rating.overall_weight must sum to 1")
	}

	if cfg.Betting.BetEV > cfg.Betting.StrongBetEV {
		return fmt.Errorf("betting.bet_ev cannot exceed betting.strong_bet_ev")
	}

	if cfg.Data.EndYear != 0 && cfg.Data.EndYear < cfg.Data.StartYear {
		return fmt.Errorf("data.end_year must not be before data.start_year")
	}

	switch cfg.Storage.Driver {
	case StorageDriverFile:
		if cfg.Storage.FilePath == "" {
			return fmt.Errorf("storage.file_path is required for the file driver")
		}
	case StorageDriverSQLite:
		if cfg.Storage.SQLitePath == "" {
			return fmt.Errorf("storage.sqlite_path is required for the sqlite driver")
		}
	case StorageDriverPostgres:
		db := cfg.Storage.Database
		if db.Host == "" || db.Name == "" || db.User == "" || db.Port == 0 {
			return fmt.Errorf("storage.database host, port, name and user are required for the postgres driver")
		}
		if cfg.IsProduction() && db.SSLMode == "disable" {
			return fmt.Errorf("production environment requires SSL mode to be 'require' or 'verify-full'")
		}
	}

	if cfg.OddsAPI.Enabled {
		if cfg.OddsAPI.BaseURL == "" || cfg.OddsAPI.APIKey == "" {
			return fmt.Errorf("odds_api.base_url and odds_api.api_key are required when odds_api is enabled")
		}
		for _, tour := range cfg.Betting.Tours {
			if cfg.OddsAPI.SportKeys[strings.ToLower(tour)] == "" {
				return fmt.Errorf("odds_api.sport_keys has no entry for tour %q", tour)
			}
		}
	}

	if cfg.Scheduler.Enabled {
		if _, err := cron.ParseStandard(cfg.Scheduler.TrainingSchedule); err != nil {
			return fmt.Errorf("invalid scheduler.training_schedule: %w", err)
		}
	}

	if cfg.Redis.Enabled && cfg.Redis.Addr == "" {
		return fmt.Errorf("redis.addr is required when redis is enabled")
	}

	if cfg.Telegram.Enabled && (cfg.Telegram.BotToken == "" || cfg.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id are required when telegram is enabled")
	}

	return nil
}

// formatValidationErrors formats validation errors into a readable string
func formatValidationErrors(validationErrors validator.ValidationErrors) error {
	var errMsg string
	for _, fieldError := range validationErrors {
		field := fieldError.StructField()
		tag := fieldError.Tag()
		value := fieldError.Value()

		switch tag {
		case "required":
			errMsg += fmt.Sprintf("- Field '%s' is required\n", field)
		case "url":
			errMsg += fmt.Sprintf("- Field '%s' must be a valid URL, got '%v'\n", field, value)
		case "min", "max":
			errMsg += fmt.Sprintf("- Field '%s' validation failed: %s constraint violated\n", field, tag)
		case "gt", "gte", "lt", "lte":
			errMsg += fmt.Sprintf("- Field '%s' validation failed: numeric constraint %s violated\n", field, tag)
		case "environment":
			errMsg += fmt.Sprintf("- Field '%s' must be one of: development, staging, production\n", field)
		case "loglevel":
			errMsg += fmt.Sprintf("- Field '%s' must be one of: debug, info, warn, error\n", field)
		case "surface":
			errMsg += fmt.Sprintf("- Field '%s' must be one of: hard, clay, grass\n", field)
		case "tours":
			errMsg += fmt.Sprintf("- Field '%s' must list tours from: atp, wta\n", field)
		case "storagedriver":
			errMsg += fmt.Sprintf("- Field '%s' must be one of: file, sqlite, postgres\n", field)
		case "oneof":
			errMsg += fmt.Sprintf("- Field '%s' has invalid value '%v'\n", field, value)
		default:
			errMsg += fmt.Sprintf("- Field '%s' failed validation: %s\n", field, tag)
		}
	}
	return fmt.Errorf("configuration validation failed:\n%s", errMsg)
}

// ValidateEnvironment validates environment-specific requirements
func ValidateEnvironment(cfg *Config) error {
	if cfg.IsProduction() {
		if cfg.Storage.Driver == StorageDriverFile {
			return fmt.Errorf("production environment should persist ratings in sqlite or postgres")
		}
		if cfg.OddsAPI.Enabled && isTestCredential(cfg.OddsAPI.APIKey) {
			return fmt.Errorf("production environment should not use a test odds API key")
		}
	}
	return nil
}

// isTestCredential checks if a credential looks like a test credential
func isTestCredential(credential string) bool {
	testPatterns := []string{
		"test", "demo", "example", "placeholder", "YOUR_",
	}

	for _, pattern := range testPatterns {
		if match, _ := regexp.MatchString("(?i)"+pattern, credential); match {
			return true
		}
	}

	return false
}
