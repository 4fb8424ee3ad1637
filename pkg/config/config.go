package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config represents the complete mcufsd configuration.
//
// Configuration sources (in order of precedence):
//  1. Environment variables (MCUFS_*)
//  2. Configuration file (YAML)
//  3. Default values
//
// Backend Configuration Pattern:
// Each filesystem backend defines its own options. The Filesystem section
// contains one type-specific subsection per backend and only the section
// matching the selected type is used.
type Config struct {
	// Logging controls log output behavior
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// Server contains transport settings
	Server ServerConfig `mapstructure:"server" yaml:"server"`

	// Filesystem specifies the backend type and type-specific options
	Filesystem FilesystemConfig `mapstructure:"filesystem" yaml:"filesystem"`

	// Metrics controls the Prometheus endpoint
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output
	// Valid values: DEBUG, INFO, WARN, ERROR (case-insensitive)
	Level string `mapstructure:"level" yaml:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error"`
}

// ServerConfig contains transport settings.
type ServerConfig struct {
	// Listen is the TCP address to accept device connections on
	Listen string `mapstructure:"listen" yaml:"listen" validate:"required"`

	// MaxPacketSize caps the size of a single frame in either direction.
	// Response payloads fit in MaxPacketSize minus the frame header.
	MaxPacketSize int `mapstructure:"max_packet_size" yaml:"max_packet_size" validate:"required,gte=16,lte=65535"`

	// ShutdownTimeout is the maximum time to wait for graceful shutdown
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout" validate:"required,gt=0"`
}

// FilesystemConfig specifies the storage backend.
//
// The Type field determines which backend is used. Only the corresponding
// type-specific section is read.
type FilesystemConfig struct {
	// Type selects the backend implementation
	// Valid values: memory, local, badger, s3
	Type string `mapstructure:"type" yaml:"type" validate:"required,oneof=memory local badger s3"`

	// Memory contains in-memory backend options
	// Only used when Type = "memory"
	Memory map[string]any `mapstructure:"memory" yaml:"memory"`

	// Local contains host-directory backend options
	// Only used when Type = "local"
	Local map[string]any `mapstructure:"local" yaml:"local"`

	// Badger contains BadgerDB backend options
	// Only used when Type = "badger"
	Badger map[string]any `mapstructure:"badger" yaml:"badger"`

	// S3 contains S3 backend options
	// Only used when Type = "s3"
	S3 map[string]any `mapstructure:"s3" yaml:"s3"`
}

// MetricsConfig controls the Prometheus scrape endpoint.
type MetricsConfig struct {
	// Enabled turns the endpoint on
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Listen is the HTTP address serving /metrics
	Listen string `mapstructure:"listen" yaml:"listen"`
}

// Load loads configuration from file, environment, and defaults.
//
// Parameters:
//   - configPath: Path to config file (empty string uses default location)
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setupViper(v, configPath)

	if err := readConfigFile(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// setupViper configures environment variable and config file handling.
func setupViper(v *viper.Viper, configPath string) {
	// Environment variables use the MCUFS_ prefix with underscores.
	// Example: MCUFS_LOGGING_LEVEL=DEBUG
	v.SetEnvPrefix("MCUFS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(getConfigDir())
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
}

// readConfigFile reads the configuration file if it exists. A missing
// file is acceptable; defaults take over.
func readConfigFile(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}
	return nil
}

// getConfigDir returns the configuration directory path, preferring
// XDG_CONFIG_HOME, then ~/.config, then the current directory.
func getConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "mcufs")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "mcufs")
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}

// Dump renders the configuration as YAML, in the same shape Load reads.
func Dump(cfg *Config) ([]byte, error) {
	out, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return out, nil
}
