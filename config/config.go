package config

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	Storage StorageConfig `mapstructure:"storage"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// StorageConfig contains storage-related configuration
type StorageConfig struct {
	Backend    string `mapstructure:"backend"`
	DataDir    string `mapstructure:"data_dir"`
	BackupDir  string `mapstructure:"backup_dir"`
	GCInterval int    `mapstructure:"gc_interval"`
	CacheMB    int    `mapstructure:"cache_mb"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// LoadConfig loads configuration from file and environment
func LoadConfig(configPath string) (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	if configPath != "" {
		viper.SetConfigFile(configPath)
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath("./config")
		viper.AddConfigPath("/etc/localstore")
	}

	// Set defaults
	setDefaults()

	// Read environment variables
	viper.AutomaticEnv()
	viper.SetEnvPrefix("LOCALSTORE")

	// Read config file
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	viper.SetDefault("storage.backend", "badger")
	viper.SetDefault("storage.data_dir", "./data")
	viper.SetDefault("storage.backup_dir", "./backups")
	viper.SetDefault("storage.gc_interval", 300)
	viper.SetDefault("storage.cache_mb", 64)

	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "text")
}

// validateConfig validates the configuration
func validateConfig(config *Config) error {
	config.Storage.DataDir = filepath.Clean(config.Storage.DataDir)
	config.Storage.BackupDir = filepath.Clean(config.Storage.BackupDir)

	switch config.Storage.Backend {
	case "badger", "bolt", "memory":
	default:
		return fmt.Errorf("storage.backend must be one of badger, bolt, memory (got %q)", config.Storage.Backend)
	}

	if config.Storage.GCInterval < 0 {
		return fmt.Errorf("storage.gc_interval must not be negative")
	}
	if config.Storage.CacheMB < 0 {
		return fmt.Errorf("storage.cache_mb must not be negative")
	}

	return nil
}

// GetDefaultConfig returns a default configuration
func GetDefaultConfig() *Config {
	setDefaults()

	var config Config
	viper.Unmarshal(&config)
	validateConfig(&config)

	return &config
}
