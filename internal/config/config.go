package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"abstat/domain/experiment"
	"abstat/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Defaults DefaultsConfig `validate:"required"`
	Server   ServerConfig   `validate:"required"`
	UI       UIConfig       `validate:"required"`
	Batch    BatchConfig    `validate:"required"`
	Logging  LoggingConfig  `validate:"required"`
}

// DefaultsConfig holds the values presentation layers fill in when the user
// leaves a field empty. The engines themselves never read these.
type DefaultsConfig struct {
	ConfidenceLevel float64             `validate:"gt=0,lt=1"`
	Alpha           float64             `validate:"gt=0,lt=1"`
	Power           float64             `validate:"gt=0,lt=1"`
	SplitRatio      float64             `validate:"gt=0,lt=1"`
	TailKind        experiment.TailKind `validate:"oneof=one two"`
	Pooled          bool
	OneTailedMode   experiment.OneTailedMode `validate:"oneof=agnostic directional"`
}

// ServerConfig holds JSON API settings
type ServerConfig struct {
	Port    string `validate:"required"`
	GinMode string `validate:"oneof=debug release test"`
}

// UIConfig holds form app settings
type UIConfig struct {
	Port string `validate:"required"`
}

// BatchConfig holds spreadsheet batch settings
type BatchConfig struct {
	Concurrency int `validate:"gte=1,lte=256"`
}

// LoggingConfig holds zap settings
type LoggingConfig struct {
	Level  string `validate:"oneof=debug info warn error"`
	Format string `validate:"oneof=json console"`
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{}

	defaults, err := loadDefaultsConfig()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load default parameters")
	}
	config.Defaults = *defaults

	config.Server = *loadServerConfig()
	config.UI = *loadUIConfig()
	config.Batch = *loadBatchConfig()
	config.Logging = *loadLoggingConfig()

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func loadDefaultsConfig() (*DefaultsConfig, error) {
	tail, err := experiment.ParseTailKind(getEnvOrDefault("ABSTAT_TAIL", string(experiment.TailTwo)))
	if err != nil {
		return nil, errors.ConfigInvalid(err.Error())
	}
	mode, err := experiment.ParseOneTailedMode(getEnvOrDefault("ABSTAT_ONE_TAILED_MODE", string(experiment.DirectionAgnostic)))
	if err != nil {
		return nil, errors.ConfigInvalid(err.Error())
	}

	return &DefaultsConfig{
		ConfidenceLevel: getEnvFloatOrDefault("ABSTAT_CONFIDENCE", 0.95),
		Alpha:           getEnvFloatOrDefault("ABSTAT_ALPHA", 0.05),
		Power:           getEnvFloatOrDefault("ABSTAT_POWER", 0.8),
		SplitRatio:      getEnvFloatOrDefault("ABSTAT_SPLIT_RATIO", 0.5),
		TailKind:        tail,
		Pooled:          getEnvBoolOrDefault("ABSTAT_POOLED", true),
		OneTailedMode:   mode,
	}, nil
}

func loadServerConfig() *ServerConfig {
	return &ServerConfig{
		Port:    getEnvOrDefault("PORT", "8080"),
		GinMode: getEnvOrDefault("GIN_MODE", "release"),
	}
}

func loadUIConfig() *UIConfig {
	return &UIConfig{
		Port: getEnvOrDefault("UI_PORT", "8081"),
	}
}

func loadBatchConfig() *BatchConfig {
	return &BatchConfig{
		Concurrency: getEnvIntOrDefault("BATCH_CONCURRENCY", 4),
	}
}

func loadLoggingConfig() *LoggingConfig {
	return &LoggingConfig{
		Level:  strings.ToLower(getEnvOrDefault("LOG_LEVEL", "info")),
		Format: strings.ToLower(getEnvOrDefault("LOG_FORMAT", "json")),
	}
}

func validateConfig(config *Config) error {
	if err := validator.New().Struct(config); err != nil {
		return errors.ConfigInvalid(err.Error())
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
