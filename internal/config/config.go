// Package config loads console settings from defaults, an optional YAML
// file, and NURSERY_* environment variables, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds every runtime setting of the console.
type Config struct {
	Port       string `yaml:"port"`
	BackendURL string `yaml:"backend_url"`
	APIToken   string `yaml:"api_token"`
	LogLevel   string `yaml:"log_level"`

	Images struct {
		MaxCount int   `yaml:"max_count"`
		MaxBytes int64 `yaml:"max_bytes"`

		// AllowPrivateURLs lets URL imports reach loopback and private
		// networks, e.g. an internal asset server.
		AllowPrivateURLs bool `yaml:"allow_private_urls"`
	} `yaml:"images"`

	Import struct {
		MaxBytes int `yaml:"max_bytes"`
	} `yaml:"import"`

	Notifications struct {
		TTL time.Duration `yaml:"ttl"`
	} `yaml:"notifications"`

	Products struct {
		PerPage    int `yaml:"per_page"`
		MaxPerPage int `yaml:"max_per_page"`
		WindowSize int `yaml:"window_size"`
	} `yaml:"products"`
}

// Default returns the built-in settings.
func Default() *Config {
	cfg := &Config{
		Port:       "8888",
		BackendURL: "http://localhost:8080/api",
		LogLevel:   "info",
	}
	cfg.Images.MaxCount = 10
	cfg.Images.MaxBytes = 10 * 1024 * 1024
	cfg.Import.MaxBytes = 10 * 1024 * 1024
	cfg.Notifications.TTL = 5 * time.Second
	cfg.Products.PerPage = 20
	cfg.Products.MaxPerPage = 100
	cfg.Products.WindowSize = 5
	return cfg
}

// Load builds the configuration. path may be empty; a missing file is an
// error only when a path was given.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
		slog.Debug("Loaded config file", "path", path)
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("NURSERY_PORT"); v != "" {
		c.Port = v
	}
	if v := os.Getenv("NURSERY_BACKEND_URL"); v != "" {
		c.BackendURL = v
	}
	if v := os.Getenv("NURSERY_API_TOKEN"); v != "" {
		c.APIToken = v
	}
	if v := os.Getenv("NURSERY_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := os.Getenv("NURSERY_MAX_IMAGES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid NURSERY_MAX_IMAGES %q: %w", v, err)
		}
		c.Images.MaxCount = n
	}
	if v := os.Getenv("NURSERY_NOTIFICATION_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid NURSERY_NOTIFICATION_TTL %q: %w", v, err)
		}
		c.Notifications.TTL = d
	}
	return nil
}

// Validate reports settings the console cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.BackendURL) == "" {
		errs = append(errs, errors.New("backend_url is required"))
	}
	if c.Images.MaxCount <= 0 {
		errs = append(errs, fmt.Errorf("images.max_count must be positive, got %d", c.Images.MaxCount))
	}
	if c.Images.MaxBytes <= 0 {
		errs = append(errs, fmt.Errorf("images.max_bytes must be positive, got %d", c.Images.MaxBytes))
	}
	if c.Import.MaxBytes <= 0 {
		errs = append(errs, fmt.Errorf("import.max_bytes must be positive, got %d", c.Import.MaxBytes))
	}
	if c.Notifications.TTL <= 0 {
		errs = append(errs, fmt.Errorf("notifications.ttl must be positive, got %s", c.Notifications.TTL))
	}
	if c.Products.WindowSize <= 0 || c.Products.WindowSize%2 == 0 {
		errs = append(errs, fmt.Errorf("products.window_size must be a positive odd number, got %d", c.Products.WindowSize))
	}
	return errors.Join(errs...)
}

// SlogLevel maps LogLevel onto a slog level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
