// Package backends opens the configured storage backend.
package backends

import (
	"context"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/rcliao/agent-persona/internal/storage"
	"github.com/rcliao/agent-persona/internal/storage/gormstore"
	"github.com/rcliao/agent-persona/internal/storage/redisstore"
	"github.com/rcliao/agent-persona/internal/storage/sqlitestore"
)

// Config selects and configures a storage backend.
type Config struct {
	Type          string // "sqlite", "postgres", "redis" or "memory"
	SQLitePath    string
	PostgresDSN   string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string
}

// Open establishes a storage connection based on the configuration.
func Open(ctx context.Context, cfg Config) (storage.Storage, error) {
	switch cfg.Type {
	case "sqlite", "":
		return sqlitestore.NewSQLiteStorage(cfg.SQLitePath)

	case "postgres":
		db, err := gorm.Open(postgres.Open(cfg.PostgresDSN), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		return gormstore.NewGormStorage(db)

	case "redis":
		return redisstore.NewRedisStorage(ctx, redisstore.RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   cfg.RedisPrefix,
		})

	case "memory":
		return storage.NewMemoryStorage(), nil

	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Type)
	}
}
