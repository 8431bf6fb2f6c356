package config

import (
	"github.com/rcliao/agent-persona/internal/completion"
	"github.com/rcliao/agent-persona/internal/orchestrator"
	"github.com/rcliao/agent-persona/internal/storage/backends"
)

// Backend returns the storage backend settings.
func (c *Config) Backend() backends.Config {
	return backends.Config{
		Type:          c.Storage.Type,
		SQLitePath:    c.Storage.SQLitePath,
		PostgresDSN:   c.Storage.PostgresDSN,
		RedisAddr:     c.Storage.RedisAddr,
		RedisPassword: c.Storage.RedisPassword,
		RedisDB:       c.Storage.RedisDB,
		RedisPrefix:   c.Storage.RedisPrefix,
	}
}

// Generator returns the completion provider settings.
func (c *Config) Generator() completion.Config {
	return completion.Config{
		Provider:  c.Completion.Provider,
		BaseURL:   c.Completion.BaseURL,
		Model:     c.Completion.Model,
		APIKeyEnv: c.Completion.APIKeyEnv,
		Policy: completion.RetryPolicy{
			MaxRetries:  c.Completion.MaxRetries,
			BackoffBase: c.Completion.BackoffBase,
			BackoffMax:  c.Completion.BackoffMax,
			Timeout:     c.Completion.Timeout,
		},
	}
}

// Orchestrator returns the turn pipeline settings.
func (c *Config) Orchestrator() orchestrator.Config {
	return orchestrator.Config{
		MaxInputLength:  c.Engine.MaxInputLength,
		ContextBudget:   c.Engine.ContextBudget,
		AssociatedLimit: c.Engine.AssociatedLimit,
		MaxInFlight:     c.Completion.MaxInFlight,
	}
}
