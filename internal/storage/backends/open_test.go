package backends

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcliao/agent-persona/internal/storage"
	"github.com/rcliao/agent-persona/internal/storage/redisstore"
	"github.com/rcliao/agent-persona/internal/storage/sqlitestore"
)

func TestOpen(t *testing.T) {
	ctx := context.Background()

	t.Run("memory", func(t *testing.T) {
		s, err := Open(ctx, Config{Type: "memory"})
		require.NoError(t, err)
		defer s.Close()
		assert.IsType(t, &storage.MemoryStorage{}, s)
	})

	t.Run("sqlite default", func(t *testing.T) {
		s, err := Open(ctx, Config{SQLitePath: filepath.Join(t.TempDir(), "p.db")})
		require.NoError(t, err)
		defer s.Close()
		assert.IsType(t, &sqlitestore.SQLiteStorage{}, s)
	})

	t.Run("redis", func(t *testing.T) {
		mr := miniredis.RunT(t)
		s, err := Open(ctx, Config{Type: "redis", RedisAddr: mr.Addr()})
		require.NoError(t, err)
		defer s.Close()
		assert.IsType(t, &redisstore.RedisStorage{}, s)
	})

	t.Run("unsupported", func(t *testing.T) {
		_, err := Open(ctx, Config{Type: "cassandra"})
		assert.Error(t, err)
	})
}
