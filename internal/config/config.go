// Package config handles configuration management using Viper
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	// Backend selection and request limits
	Backend BackendConfig `mapstructure:"backend"`

	// Behaviour of the commit step
	Apply ApplyConfig `mapstructure:"apply"`

	// Logging configuration
	Logging LoggingConfig `mapstructure:"logging"`
}

// BackendConfig selects the display-configuration backend
type BackendConfig struct {
	Name    string `mapstructure:"name"`    // auto, kscreen, wlr, randr, file
	File    string `mapstructure:"file"`    // Snapshot path for the file backend
	Timeout int    `mapstructure:"timeout"` // Seconds per fetch/apply request
}

// ApplyConfig controls what happens once the batch completed
type ApplyConfig struct {
	Confirm bool `mapstructure:"confirm"` // Ask before committing
	DryRun  bool `mapstructure:"dry_run"` // Never commit
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	LogLevel string `mapstructure:"log_level"` // Override LOG_LEVEL env var
}

// RequestTimeout returns the per-request backend timeout
func (b BackendConfig) RequestTimeout() time.Duration {
	if b.Timeout <= 0 {
		return time.Duration(DefaultConfig.Backend.Timeout) * time.Second
	}
	return time.Duration(b.Timeout) * time.Second
}

var (
	// DefaultConfig provides sensible defaults
	DefaultConfig = Config{
		Backend: BackendConfig{
			Name:    "auto",
			File:    "",
			Timeout: 10,
		},
		Apply: ApplyConfig{
			Confirm: false,
			DryRun:  false,
		},
		Logging: LoggingConfig{
			LogLevel: "", // Empty means use LOG_LEVEL env var
		},
	}

	// Global config instance
	cfg *Config

	// Override config path if set
	configPathOverride string
)

const configName = "outputctl"

// SetConfigPath allows overriding the config path
func SetConfigPath(path string) {
	configPathOverride = path
}

// Init initializes the configuration system
func Init() error {
	viper.SetConfigName(configName)
	viper.SetConfigType("toml")

	if configPathOverride != "" {
		viper.SetConfigFile(configPathOverride)
	} else {
		viper.AddConfigPath("/etc/" + configName)

		// If running with sudo, try the real user's config
		if sudoUser := os.Getenv("SUDO_USER"); sudoUser != "" {
			viper.AddConfigPath(fmt.Sprintf("/home/%s/.config/%s", sudoUser, configName))
		} else if home := os.Getenv("HOME"); home != "" {
			viper.AddConfigPath(filepath.Join(home, ".config", configName))
		}

		viper.AddConfigPath(".")
	}

	// Set defaults - need to set individual fields for proper merging
	viper.SetDefault("backend.name", DefaultConfig.Backend.Name)
	viper.SetDefault("backend.file", DefaultConfig.Backend.File)
	viper.SetDefault("backend.timeout", DefaultConfig.Backend.Timeout)

	viper.SetDefault("apply.confirm", DefaultConfig.Apply.Confirm)
	viper.SetDefault("apply.dry_run", DefaultConfig.Apply.DryRun)

	viper.SetDefault("logging.log_level", DefaultConfig.Logging.LogLevel)

	viper.SetEnvPrefix("OUTPUTCTL")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		// A missing file, searched for or given explicitly, means defaults
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	c := &Config{}
	if err := viper.Unmarshal(c); err != nil {
		return fmt.Errorf("unable to unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return err
	}
	cfg = c

	return nil
}

// Validate checks values that viper cannot check for us
func (c *Config) Validate() error {
	switch c.Backend.Name {
	case "auto", "kscreen", "wlr", "randr", "file":
	default:
		return fmt.Errorf("invalid backend.name %q (must be auto, kscreen, wlr, randr or file)", c.Backend.Name)
	}
	if c.Backend.Name == "file" && c.Backend.File == "" {
		return fmt.Errorf("backend.file must be set when backend.name is \"file\"")
	}
	if c.Backend.Timeout < 0 {
		return fmt.Errorf("backend.timeout must not be negative")
	}
	return nil
}

// Get returns the current configuration
func Get() *Config {
	if cfg == nil {
		// Return defaults if not initialized
		d := DefaultConfig
		return &d
	}
	return cfg
}

// Set sets the current configuration (for testing)
func Set(c *Config) {
	cfg = c
}

// Save saves the current configuration to file
func Save() error {
	configPath := GetConfigPath()

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		if os.IsPermission(err) && strings.Contains(configPath, "/etc/") {
			return fmt.Errorf("failed to create config directory %s: permission denied. Try running with sudo", dir)
		}
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := viper.WriteConfigAs(configPath); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// GetConfigPath returns the path to the config file
func GetConfigPath() string {
	if configPathOverride != "" {
		return configPathOverride
	}

	if viper.ConfigFileUsed() != "" {
		return viper.ConfigFileUsed()
	}

	if os.Getuid() == 0 || os.Getenv("SUDO_USER") != "" {
		return filepath.Join("/etc", configName, configName+".toml")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join("/etc", configName, configName+".toml")
	}

	return filepath.Join(home, ".config", configName, configName+".toml")
}
