// Package config provides configuration management for the evaluatorq CLI.
//
// Configuration is loaded from multiple sources in this order:
// 1. An optional .env file (local development convenience)
// 2. Environment variables
// 3. An optional YAML config file
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config represents the complete CLI configuration for running experiments.
type Config struct {
	Uploader UploaderConfig `mapstructure:"uploader"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Run      RunConfig      `mapstructure:"run"`
}

// UploaderConfig carries the remote platform credentials and endpoint.
type UploaderConfig struct {
	APIKey  string        `mapstructure:"api_key"`
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, text
}

// Validate validates logging configuration.
func (lc *LoggingConfig) Validate() error {
	validLevels := []string{"debug", "info", "warn", "error"}
	isValid := false
	for _, level := range validLevels {
		if lc.Level == level {
			isValid = true
			break
		}
	}
	if !isValid {
		return fmt.Errorf("invalid log level: %s (must be one of %v)", lc.Level, validLevels)
	}

	validFormats := []string{"json", "text"}
	isValid = false
	for _, format := range validFormats {
		if lc.Format == format {
			isValid = true
			break
		}
	}
	if !isValid {
		return fmt.Errorf("invalid log format: %s (must be one of %v)", lc.Format, validFormats)
	}

	return nil
}

// RunConfig contains defaults for cmd/evaluatorq experiment runs.
type RunConfig struct {
	Parallelism int  `mapstructure:"parallelism"`
	Print       bool `mapstructure:"print"`
}

// Validate validates run configuration.
func (rc *RunConfig) Validate() error {
	if rc.Parallelism < 1 {
		return errors.New("run.parallelism must be at least 1")
	}
	return nil
}

// Validate validates the main configuration and all sub-configurations.
func (c *Config) Validate() error {
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging config validation failed: %w", err)
	}
	if err := c.Run.Validate(); err != nil {
		return fmt.Errorf("run config validation failed: %w", err)
	}
	return nil
}

// Load loads configuration from an optional .env file, environment
// variables, and an optional ./evaluatorq.yaml config file. Environment
// variables win over the YAML file, which wins over the defaults; a .env
// entry only fills in a variable that is not already set in the process
// environment.
func Load() (*Config, error) {
	_ = godotenv.Load(".env")

	viper.SetConfigName("evaluatorq")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	//nolint:errcheck // BindEnv only errors with invalid args, safe with string literals
	viper.BindEnv("uploader.api_key", "ORQ_API_KEY")
	//nolint:errcheck
	viper.BindEnv("uploader.base_url", "ORQ_BASE_URL")
	//nolint:errcheck
	viper.BindEnv("logging.level", "ORQ_LOG_LEVEL")
	//nolint:errcheck
	viper.BindEnv("logging.format", "ORQ_LOG_FORMAT")

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

func setDefaults() {
	viper.SetDefault("uploader.base_url", "https://my.orq.ai")
	viper.SetDefault("uploader.timeout", "30s")

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "text")

	viper.SetDefault("run.parallelism", 1)
	viper.SetDefault("run.print", true)
}

// HasAPIKey reports whether a remote platform credential was configured.
func (c *Config) HasAPIKey() bool {
	return c.Uploader.APIKey != ""
}
