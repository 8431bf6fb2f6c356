// Package config loads agent-persona settings from file, environment and defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	// DefaultConfigDir is the default configuration directory
	DefaultConfigDir = ".agent-persona"
	// EnvPrefix prefixes environment overrides, e.g. AGENT_PERSONA_STORAGE_TYPE
	EnvPrefix = "AGENT_PERSONA"
)

// Load reads ~/.agent-persona/config.yaml if present, then applies
// environment overrides. A missing file means defaults.
func Load() (*Config, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get user home directory: %w", err)
	}

	v := newViper()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(filepath.Join(homeDir, DefaultConfigDir))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}
	return decode(v)
}

// LoadFromPath loads configuration from a specific file
func LoadFromPath(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return decode(v)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// setDefaults sets default configuration values. Every key needs a default
// so AutomaticEnv can override it during Unmarshal.
func setDefaults(v *viper.Viper) {
	d := DefaultConfig()

	v.SetDefault("storage.type", d.Storage.Type)
	v.SetDefault("storage.sqlite_path", d.Storage.SQLitePath)
	v.SetDefault("storage.postgres_dsn", "")
	v.SetDefault("storage.redis_addr", d.Storage.RedisAddr)
	v.SetDefault("storage.redis_password", "")
	v.SetDefault("storage.redis_db", 0)
	v.SetDefault("storage.redis_prefix", d.Storage.RedisPrefix)
	v.SetDefault("storage.collection", d.Storage.Collection)

	v.SetDefault("completion.provider", d.Completion.Provider)
	v.SetDefault("completion.base_url", "")
	v.SetDefault("completion.model", "")
	v.SetDefault("completion.api_key_env", d.Completion.APIKeyEnv)
	v.SetDefault("completion.timeout", d.Completion.Timeout)
	v.SetDefault("completion.max_retries", d.Completion.MaxRetries)
	v.SetDefault("completion.backoff_base", d.Completion.BackoffBase)
	v.SetDefault("completion.backoff_max", d.Completion.BackoffMax)
	v.SetDefault("completion.max_in_flight", d.Completion.MaxInFlight)

	v.SetDefault("engine.max_input_length", d.Engine.MaxInputLength)
	v.SetDefault("engine.default_mode", "")
	v.SetDefault("engine.context_budget", d.Engine.ContextBudget)
	v.SetDefault("engine.associated_limit", d.Engine.AssociatedLimit)
	v.SetDefault("engine.profile_path", "")
	v.SetDefault("engine.seed", 0)

	v.SetDefault("retention.interval", d.Retention.Interval)
	v.SetDefault("retention.days", 0)

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
}

// validate checks if the configuration is valid
func validate(cfg *Config) error {
	switch cfg.Storage.Type {
	case "sqlite":
		if cfg.Storage.SQLitePath == "" {
			return fmt.Errorf("storage.sqlite_path is required when type is 'sqlite'")
		}
	case "postgres":
		if cfg.Storage.PostgresDSN == "" {
			return fmt.Errorf("storage.postgres_dsn is required when type is 'postgres'")
		}
	case "redis":
		if cfg.Storage.RedisAddr == "" {
			return fmt.Errorf("storage.redis_addr is required when type is 'redis'")
		}
	case "memory":
	default:
		return fmt.Errorf("storage.type must be 'sqlite', 'postgres', 'redis' or 'memory', got '%s'", cfg.Storage.Type)
	}

	if cfg.Completion.Provider != "openai" && cfg.Completion.Provider != "gemini" {
		return fmt.Errorf("completion.provider must be 'openai' or 'gemini', got '%s'", cfg.Completion.Provider)
	}
	if cfg.Completion.Timeout <= 0 {
		return fmt.Errorf("completion.timeout must be positive, got %s", cfg.Completion.Timeout)
	}
	if cfg.Completion.MaxRetries < 0 || cfg.Completion.MaxRetries > 10 {
		return fmt.Errorf("completion.max_retries must be between 0 and 10, got %d", cfg.Completion.MaxRetries)
	}
	if cfg.Completion.MaxInFlight < 1 {
		return fmt.Errorf("completion.max_in_flight must be at least 1, got %d", cfg.Completion.MaxInFlight)
	}

	if cfg.Engine.MaxInputLength < 1 {
		return fmt.Errorf("engine.max_input_length must be at least 1, got %d", cfg.Engine.MaxInputLength)
	}
	if cfg.Retention.Interval <= 0 {
		return fmt.Errorf("retention.interval must be positive, got %s", cfg.Retention.Interval)
	}
	if cfg.Retention.Days < 0 {
		return fmt.Errorf("retention.days must not be negative, got %d", cfg.Retention.Days)
	}

	switch cfg.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logging.format must be 'json' or 'console', got '%s'", cfg.Logging.Format)
	}
	return nil
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()

	return &Config{
		Storage: StorageConfig{
			Type:        "sqlite",
			SQLitePath:  filepath.Join(homeDir, DefaultConfigDir, "persona.db"),
			RedisAddr:   "localhost:6379",
			RedisPrefix: "persona",
			Collection:  "memories",
		},
		Completion: CompletionConfig{
			Provider:    "openai",
			APIKeyEnv:   "OPENAI_API_KEY",
			Timeout:     30 * time.Second,
			MaxRetries:  3,
			BackoffBase: 500 * time.Millisecond,
			BackoffMax:  5 * time.Second,
			MaxInFlight: 4,
		},
		Engine: EngineConfig{
			MaxInputLength:  4000,
			ContextBudget:   1000,
			AssociatedLimit: 5,
		},
		Retention: RetentionConfig{
			Interval: time.Hour,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// EnsureConfigDir creates the configuration directory if it doesn't exist
func EnsureConfigDir() error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return fmt.Errorf("failed to get user home directory: %w", err)
	}
	if err := os.MkdirAll(filepath.Join(homeDir, DefaultConfigDir), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return nil
}
