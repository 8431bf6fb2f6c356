package config

import "time"

// Config represents the complete application configuration
type Config struct {
	Storage    StorageConfig    `mapstructure:"storage"`
	Completion CompletionConfig `mapstructure:"completion"`
	Engine     EngineConfig     `mapstructure:"engine"`
	Retention  RetentionConfig  `mapstructure:"retention"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// StorageConfig selects the durable backend
type StorageConfig struct {
	Type          string `mapstructure:"type"` // "sqlite", "postgres", "redis" or "memory"
	SQLitePath    string `mapstructure:"sqlite_path"`
	PostgresDSN   string `mapstructure:"postgres_dsn"`
	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`
	RedisPrefix   string `mapstructure:"redis_prefix"`
	Collection    string `mapstructure:"collection"`
}

// CompletionConfig selects the text-generation provider
type CompletionConfig struct {
	Provider    string        `mapstructure:"provider"` // "openai" or "gemini"
	BaseURL     string        `mapstructure:"base_url"`
	Model       string        `mapstructure:"model"`
	APIKeyEnv   string        `mapstructure:"api_key_env"`
	Timeout     time.Duration `mapstructure:"timeout"`
	MaxRetries  int           `mapstructure:"max_retries"`
	BackoffBase time.Duration `mapstructure:"backoff_base"`
	BackoffMax  time.Duration `mapstructure:"backoff_max"`
	MaxInFlight int           `mapstructure:"max_in_flight"`
}

// EngineConfig tunes the personality engine
type EngineConfig struct {
	MaxInputLength  int    `mapstructure:"max_input_length"`
	DefaultMode     string `mapstructure:"default_mode"` // overrides the profile's defaultMode when set
	ContextBudget   int    `mapstructure:"context_budget"`
	AssociatedLimit int    `mapstructure:"associated_limit"`
	ProfilePath     string `mapstructure:"profile_path"`
	Seed            int64  `mapstructure:"seed"` // 0 seeds from the clock
}

// RetentionConfig controls background pruning in serve mode
type RetentionConfig struct {
	Interval time.Duration `mapstructure:"interval"`
	Days     int           `mapstructure:"days"` // 0 uses the profile's memoryRetentionDays
}

// LoggingConfig controls the zap logger
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // "json" or "console"
}
