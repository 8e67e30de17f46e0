package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/benvon/todo-pet/internal/kvstore"
	"github.com/benvon/todo-pet/internal/logger"
	"github.com/benvon/todo-pet/internal/validation"
	"gopkg.in/yaml.v3"
)

// AppName names the config directory and the tracer service
const AppName = "todo-pet"

// StoreConfig selects where todos and pet progress are persisted
type StoreConfig struct {
	Backend   string `yaml:"backend" validate:"oneof=sqlite postgres redis file memory"`
	Path      string `yaml:"path" validate:"required_if=Backend sqlite,required_if=Backend file"`
	URL       string `yaml:"url" validate:"required_if=Backend postgres,required_if=Backend redis"`
	KeyPrefix string `yaml:"key_prefix"`
}

// KV converts to the kvstore configuration
func (s StoreConfig) KV() kvstore.Config {
	return kvstore.Config{
		Backend:   s.Backend,
		Path:      s.Path,
		URL:       s.URL,
		KeyPrefix: s.KeyPrefix,
	}
}

// Config holds application configuration
type Config struct {
	Store           StoreConfig `yaml:"store"`
	XPPerCompletion int         `yaml:"xp_per_completion" validate:"min=0,max=1000"`
	Debug           bool        `yaml:"debug"`
	LogFormat       string      `yaml:"log_format" validate:"oneof=json console"`
	OTELEnabled     bool        `yaml:"otel_enabled"`
	OTELEndpoint    string      `yaml:"otel_endpoint"`
}

// Default returns the configuration used when nothing is overridden
func Default() *Config {
	return &Config{
		Store: StoreConfig{
			Backend: kvstore.BackendSQLite,
			Path:    filepath.Join(DataDir(), AppName+".db"),
		},
		XPPerCompletion: 5,
		LogFormat:       logger.FormatConsole,
	}
}

// DataDir is the per-user directory holding the config file and the sqlite database
func DataDir() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "."
	}
	return filepath.Join(dir, AppName)
}

// DefaultConfigPath is read when no explicit path is given and it exists
func DefaultConfigPath() string {
	return filepath.Join(DataDir(), "config.yaml")
}

// Load builds configuration from defaults, then the YAML file, then environment variables.
// An explicit path (argument or TODOPET_CONFIG) must exist; the default path is optional.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = getEnv("TODOPET_CONFIG", "")
	}
	explicit := path != ""
	if !explicit {
		path = DefaultConfigPath()
	}

	if err := cfg.loadFile(path); err != nil {
		if explicit || !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}

	cfg.applyEnv()

	if err := validation.Validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.Store.Backend = getEnv("TODOPET_STORE_BACKEND", c.Store.Backend)
	c.Store.Path = getEnv("TODOPET_STORE_PATH", c.Store.Path)
	c.Store.URL = getEnv("TODOPET_STORE_URL", c.Store.URL)
	c.Store.KeyPrefix = getEnv("TODOPET_STORE_KEY_PREFIX", c.Store.KeyPrefix)
	c.XPPerCompletion = getEnvInt("TODOPET_XP_PER_COMPLETION", c.XPPerCompletion)
	c.Debug = getEnvBool("TODOPET_DEBUG", c.Debug)
	c.LogFormat = getEnv("TODOPET_LOG_FORMAT", c.LogFormat)
	c.OTELEnabled = getEnvBool("OTEL_ENABLED", c.OTELEnabled)
	c.OTELEndpoint = getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", c.OTELEndpoint)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
