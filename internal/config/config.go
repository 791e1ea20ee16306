package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"allowsync/internal/logger"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/spf13/viper"
)

var (
	AppName = "allowsync"
)

// Config represents daemon configuration
type Config struct {
	Token           string `mapstructure:"token" validate:"required"`
	AllowFile       string `mapstructure:"allow_file" validate:"required"`
	Repeat          int    `mapstructure:"repeat" validate:"gt=0"` // seconds
	AfterUpdateHook string `mapstructure:"after_update_hook"`

	Daemon DaemonConfig  `mapstructure:"daemon"`
	API    APIConfig     `mapstructure:"api"`
	Hook   HookConfig    `mapstructure:"hook"`
	Status StatusConfig  `mapstructure:"status"`
	Log    logger.Config `mapstructure:"log"`
}

// DaemonConfig represents daemon identity configuration
type DaemonConfig struct {
	ID string `mapstructure:"id"`
}

// APIConfig represents remote meta API configuration
type APIConfig struct {
	URL      string        `mapstructure:"url" validate:"required,url"`
	Category string        `mapstructure:"category" validate:"required"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// HookConfig represents after-update hook configuration
type HookConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

// StatusConfig represents status API configuration
type StatusConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Address string `mapstructure:"address"`
}

// Interval returns the polling interval between update cycles
func (c *Config) Interval() time.Duration {
	return time.Duration(c.Repeat) * time.Second
}

// Load loads the daemon configuration from file
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	setDefaults(&config)

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// setDefaults sets default values if not specified
func setDefaults(config *Config) {
	if config.Daemon.ID == "" {
		config.Daemon.ID = uuid.New().String()
	}

	if config.API.URL == "" {
		config.API.URL = "https://api.github.com/meta"
	}

	if config.API.Category == "" {
		config.API.Category = "hooks"
	}

	if config.API.Timeout == 0 {
		config.API.Timeout = 30 * time.Second
	}

	if config.Hook.Timeout == 0 {
		config.Hook.Timeout = 60 * time.Second
	}

	if config.Status.Address == "" {
		config.Status.Address = ":8081"
	}

	config.Log.SetDefaults()
}

// validateConfig validates the configuration
func validateConfig(config *Config) error {
	if err := validator.New().Struct(config); err != nil {
		if errs, ok := err.(validator.ValidationErrors); ok && len(errs) > 0 {
			e := errs[0]
			return fmt.Errorf("field %s failed on %q", e.Namespace(), e.Tag())
		}
		return err
	}

	// The allow file must live in an existing directory
	dir := filepath.Dir(config.AllowFile)
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("allow_file directory %s: %w", dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("allow_file parent %s is not a directory", dir)
	}

	return config.Log.Validate()
}
