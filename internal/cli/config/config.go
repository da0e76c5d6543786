// Package config loads the tool configuration from apilevel.yml, the
// environment, or built-in defaults.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config represents the apilevel configuration
type Config struct {
	API      APIConfig      `mapstructure:"api"`
	Binary   BinaryConfig   `mapstructure:"binary"`
	Fixtures FixturesConfig `mapstructure:"fixtures"`
}

// APIConfig describes the API under verification
type APIConfig struct {
	// Prefix is the reserved namespace prefix for current-generation members
	Prefix string `mapstructure:"prefix"`
}

// BinaryConfig describes how to query the live binary for its metadata
type BinaryConfig struct {
	Path string   `mapstructure:"path"`
	Args []string `mapstructure:"args"`
}

// FixturesConfig locates the archived metadata snapshots
type FixturesConfig struct {
	Dir     string `mapstructure:"dir"`
	Pattern string `mapstructure:"pattern"`
}

// Load loads the configuration from apilevel.yml or apilevel.yaml in the
// current directory, with APILEVEL_* environment variables taking precedence
// and defaults matching the nvim layout filling the rest.
func Load() (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("api.prefix", "nvim_")
	v.SetDefault("binary.path", "nvim")
	v.SetDefault("binary.args", []string{"--api-info"})
	v.SetDefault("fixtures.dir", "test/functional/fixtures")
	v.SetDefault("fixtures.pattern", "api_level_*.mpack")

	// Set config name and paths
	v.SetConfigName("apilevel")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Enable environment variable support (APILEVEL_FIXTURES_DIR etc.)
	v.SetEnvPrefix("APILEVEL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file if it exists
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found - use defaults
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// validateConfig validates the configuration
func validateConfig(cfg *Config) error {
	if cfg.API.Prefix == "" {
		return fmt.Errorf("api.prefix must not be empty")
	}
	if cfg.Binary.Path == "" {
		return fmt.Errorf("binary.path must not be empty")
	}
	if cfg.Fixtures.Dir == "" {
		return fmt.Errorf("fixtures.dir must not be empty")
	}
	if strings.Count(cfg.Fixtures.Pattern, "*") != 1 {
		return fmt.Errorf("fixtures.pattern must contain exactly one '*', got: %s", cfg.Fixtures.Pattern)
	}
	return nil
}
