package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const (
	validConfigPath              = "testdata/valid_config.yaml"
	expansionConfigPath          = "testdata/expansion_config.yaml"
	nonexistentConfigPath        = "testdata/nonexistent_config.yaml"
	expectedNoErrorLoadingConfig = "expected no error loading config, got %v"
	expectedNoErrorMsg           = "expected no error, got %v"
	expectedNonNilConfig         = "expected non-nil config"
	appName                      = "tennis-predictions"
	developmentEnv               = "development"
	invalidEnv                   = "invalid"
	localhostHost                = "localhost"
	postgresPort                 = 5432
	postgresPrefix               = "postgres://"
	testAppName                  = "test-app"
	testDBPassword               = "TEST_DB_PASSWORD"
	testMissingVar               = "TEST_MISSING_VAR"
	expandedSecretValue          = "expanded_secret_value"
)

// TestLoadConfigSuccess tests loading a valid configuration file
func TestLoadConfigSuccess(t *testing.T) {
	cfg, err := Load(validConfigPath)
	if err != nil {
		t.Fatalf(expectedNoErrorMsg, err)
	}

	if cfg == nil {
		t.Fatal(expectedNonNilConfig)
	}

	if cfg.App.Name != appName {
		t.Errorf("expected app name '%s', got '%s'", appName, cfg.App.Name)
	}

	if cfg.App.Environment != developmentEnv {
		t.Errorf("expected environment '%s', got '%s'", developmentEnv, cfg.App.Environment)
	}

	if cfg.Storage.Database.Host != localhostHost {
		t.Errorf("expected database host '%s', got '%s'", localhostHost, cfg.Storage.Database.Host)
	}

	if cfg.Storage.Database.Port != postgresPort {
		t.Errorf("expected database port %d, got %d", postgresPort, cfg.Storage.Database.Port)
	}

	if cfg.OddsAPI.SportKeys["wta"] != "tennis_wta" {
		t.Errorf("expected wta sport key, got '%s'", cfg.OddsAPI.SportKeys["wta"])
	}

	if len(cfg.Betting.Tours) != 2 {
		t.Errorf("expected 2 betting tours, got %d", len(cfg.Betting.Tours))
	}
}

// TestLoadConfigFileNotFound tests handling of missing configuration file
func TestLoadConfigFileNotFound(t *testing.T) {
	_, err := Load(nonexistentConfigPath)
	if err == nil {
		t.Fatal("expected error for missing config file")
	}
}

// TestLoadConfigEnvironmentVariables tests environment variable override
func TestLoadConfigEnvironmentVariables(t *testing.T) {
	t.Setenv(EnvPrefix+"_APP_NAME", testAppName)

	cfg, err := Load(validConfigPath)
	if err != nil {
		t.Fatalf(expectedNoErrorMsg, err)
	}

	if cfg.App.Name != testAppName {
		t.Errorf("expected app name '%s' from environment, got '%s'", testAppName, cfg.App.Name)
	}
}

// TestLoadConfigEnvironmentExpansion tests ${VAR} placeholders in the YAML file
func TestLoadConfigEnvironmentExpansion(t *testing.T) {
	t.Setenv(testDBPassword, expandedSecretValue)
	os.Unsetenv(testMissingVar)

	cfg, err := Load(expansionConfigPath)
	if err != nil {
		t.Fatalf(expectedNoErrorLoadingConfig, err)
	}

	if cfg.Storage.Database.Password != expandedSecretValue {
		t.Errorf("expected expanded password '%s', got '%s'", expandedSecretValue, cfg.Storage.Database.Password)
	}

	if cfg.OddsAPI.APIKey != "" {
		t.Errorf("expected missing variable to expand to empty string, got '%s'", cfg.OddsAPI.APIKey)
	}
}

// TestResolvePath tests flag, environment and default resolution order
func TestResolvePath(t *testing.T) {
	t.Setenv(ConfigPathEnv, "from-env.yaml")

	if got := ResolvePath("from-flag.yaml"); got != "from-flag.yaml" {
		t.Errorf("expected flag path, got '%s'", got)
	}
	if got := ResolvePath(""); got != "from-env.yaml" {
		t.Errorf("expected env path, got '%s'", got)
	}

	t.Setenv(ConfigPathEnv, "")
	if got := ResolvePath(""); got != defaultConfigPath {
		t.Errorf("expected default path, got '%s'", got)
	}
}

// TestLoadWithDefaultsMissingFile tests that defaults alone produce a valid configuration
func TestLoadWithDefaultsMissingFile(t *testing.T) {
	cfg, err := LoadWithDefaults(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf(expectedNoErrorLoadingConfig, err)
	}

	if cfg.Rating.ProvisionalK != 40 || cfg.Rating.StandardK != 24 {
		t.Errorf("unexpected K factors %v/%v", cfg.Rating.ProvisionalK, cfg.Rating.StandardK)
	}
	if cfg.Betting.EdgeThreshold != 0.05 {
		t.Errorf("expected default edge threshold 0.05, got %v", cfg.Betting.EdgeThreshold)
	}
	if cfg.Storage.Driver != StorageDriverFile {
		t.Errorf("expected file storage driver, got '%s'", cfg.Storage.Driver)
	}

	if err := Validate(cfg); err != nil {
		t.Errorf("expected defaults to validate, got %v", err)
	}
}

// TestLoadWithDefaultsOverlay tests that file values override defaults
func TestLoadWithDefaultsOverlay(t *testing.T) {
	cfg, err := LoadWithDefaults(validConfigPath)
	if err != nil {
		t.Fatalf(expectedNoErrorLoadingConfig, err)
	}

	if cfg.Storage.Driver != StorageDriverPostgres {
		t.Errorf("expected postgres driver from file, got '%s'", cfg.Storage.Driver)
	}
	if cfg.Betting.MaxStake != 0.05 {
		t.Errorf("expected max stake 0.05 from file, got %v", cfg.Betting.MaxStake)
	}
	if cfg.Redis.StreamPrefix != "value_bets.detected" {
		t.Errorf("expected default stream prefix, got '%s'", cfg.Redis.StreamPrefix)
	}
}

// TestValidateValidConfig tests validation of a valid configuration
func TestValidateValidConfig(t *testing.T) {
	cfg, err := Load(validConfigPath)
	if err != nil {
		t.Fatalf(expectedNoErrorLoadingConfig, err)
	}

	if err := Validate(cfg); err != nil {
		t.Errorf("expected valid config, got validation error: %v", err)
	}
}

// TestValidateInvalidEnvironment tests validation of invalid environment
func TestValidateInvalidEnvironment(t *testing.T) {
	cfg, err := Load(validConfigPath)
	if err != nil {
		t.Fatalf(expectedNoErrorLoadingConfig, err)
	}

	cfg.App.Environment = invalidEnv

	err = Validate(cfg)
	if err == nil {
		t.Fatal("expected validation error for invalid environment")
	}
	if !strings.Contains(err.Error(), "Environment") {
		t.Errorf("expected error to mention Environment, got %v", err)
	}
}

// TestValidateInvalidSurface tests the custom surface validator
func TestValidateInvalidSurface(t *testing.T) {
	cfg, err := Load(validConfigPath)
	if err != nil {
		t.Fatalf(expectedNoErrorLoadingConfig, err)
	}

	cfg.Betting.DefaultSurface = "carpet"

	err = Validate(cfg)
	if err == nil {
		t.Fatal("expected validation error for unknown surface")
	}
	if !strings.Contains(err.Error(), "hard, clay, grass") {
		t.Errorf("expected surface hint in error, got %v", err)
	}
}

// TestValidateInvalidTours tests the custom tours validator
func TestValidateInvalidTours(t *testing.T) {
	cfg, err := Load(validConfigPath)
	if err != nil {
		t.Fatalf(expectedNoErrorLoadingConfig, err)
	}

	cfg.Data.Tours = []string{"atp", "itf"}

	if err := Validate(cfg); err == nil {
		t.Fatal("expected validation error for unknown tour")
	}
}

// TestValidateCrossField tests the cross-field rules
func TestValidateCrossField(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(cfg *Config)
	}{
		{"provisional below standard", func(cfg *Config) { cfg.Rating.ProvisionalK = 10 }},
		{"weights do not sum to one", func(cfg *Config) { cfg.Rating.SurfaceWeight = 0.5 }},
		{"bet ev above strong", func(cfg *Config) { cfg.Betting.BetEV = 0.2 }},
		{"postgres without host", func(cfg *Config) { cfg.Storage.Database.Host = "" }},
		{"file driver without path", func(cfg *Config) {
			cfg.Storage.Driver = StorageDriverFile
			cfg.Storage.FilePath = ""
		}},
		{"sqlite driver without path", func(cfg *Config) {
			cfg.Storage.Driver = StorageDriverSQLite
			cfg.Storage.SQLitePath = ""
		}},
		{"production without ssl", func(cfg *Config) { cfg.App.Environment = "production" }},
		{"odds api without key", func(cfg *Config) { cfg.OddsAPI.Enabled = true }},
		{"bad training schedule", func(cfg *Config) { cfg.Scheduler.TrainingSchedule = "every day" }},
		{"redis without addr", func(cfg *Config) { cfg.Redis.Enabled = true }},
		{"telegram without token", func(cfg *Config) { cfg.Telegram.Enabled = true }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(validConfigPath)
			if err != nil {
				t.Fatalf(expectedNoErrorLoadingConfig, err)
			}
			tt.mutate(cfg)
			if err := Validate(cfg); err == nil {
				t.Errorf("expected validation error for %s", tt.name)
			}
		})
	}
}

// TestValidateEnvironment tests production-only requirements
func TestValidateEnvironment(t *testing.T) {
	cfg, err := LoadWithDefaults(validConfigPath)
	if err != nil {
		t.Fatalf(expectedNoErrorLoadingConfig, err)
	}

	cfg.App.Environment = "production"
	cfg.Storage.Driver = StorageDriverFile
	if err := ValidateEnvironment(cfg); err == nil {
		t.Error("expected production to reject file storage")
	}

	cfg.Storage.Driver = StorageDriverPostgres
	cfg.OddsAPI.Enabled = true
	cfg.OddsAPI.APIKey = "YOUR_API_KEY"
	if err := ValidateEnvironment(cfg); err == nil {
		t.Error("expected production to reject a placeholder API key")
	}

	cfg.OddsAPI.APIKey = "a1b2c3d4"
	if err := ValidateEnvironment(cfg); err != nil {
		t.Errorf(expectedNoErrorMsg, err)
	}
}

// TestGetDatabaseDSN tests DSN generation
func TestGetDatabaseDSN(t *testing.T) {
	cfg, err := Load(validConfigPath)
	if err != nil {
		t.Fatalf(expectedNoErrorLoadingConfig, err)
	}

	dsn := cfg.GetDatabaseDSN()
	if !strings.HasPrefix(dsn, postgresPrefix) {
		t.Errorf("expected DSN to start with '%s', got '%s'", postgresPrefix, dsn)
	}
	if !strings.Contains(dsn, "localhost:5432/tennis_predictions") {
		t.Errorf("unexpected DSN %s", dsn)
	}
}

// TestEnvironmentHelpers tests environment predicates and duration helpers
func TestEnvironmentHelpers(t *testing.T) {
	cfg := &Config{App: AppConfig{Environment: developmentEnv}}
	if !cfg.IsDevelopment() || cfg.IsStaging() || cfg.IsProduction() {
		t.Error("expected development predicates")
	}

	if cfg.JobTimeout().Minutes() != 10 {
		t.Errorf("expected default job timeout of 10 minutes, got %v", cfg.JobTimeout())
	}

	cfg.Betting.CacheTTLSeconds = 60
	if cfg.CacheTTL().Seconds() != 60 {
		t.Errorf("expected cache ttl of 60s, got %v", cfg.CacheTTL())
	}
}

// TestOverlaySecretsOnConfig tests that only non-empty secrets replace config values
func TestOverlaySecretsOnConfig(t *testing.T) {
	cfg := &Config{}
	cfg.Storage.Database.Password = "original"
	cfg.Redis.Password = "redis-original"

	overlaySecretsOnConfig(cfg, &SecretsOverlay{
		DatabasePassword: "from-secrets",
		OddsAPIKey:       "odds-key",
		TelegramBotToken: "bot-token",
	})

	if cfg.Storage.Database.Password != "from-secrets" {
		t.Errorf("expected overlaid password, got '%s'", cfg.Storage.Database.Password)
	}
	if cfg.OddsAPI.APIKey != "odds-key" {
		t.Errorf("expected overlaid odds key, got '%s'", cfg.OddsAPI.APIKey)
	}
	if cfg.Redis.Password != "redis-original" {
		t.Errorf("expected redis password to be kept, got '%s'", cfg.Redis.Password)
	}
	if cfg.Telegram.BotToken != "bot-token" {
		t.Errorf("expected overlaid bot token, got '%s'", cfg.Telegram.BotToken)
	}
}
