// Package redisstore implements storage.Storage on Redis.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rcliao/agent-persona/internal/storage"
	"github.com/redis/go-redis/v9"
)

const defaultRedisPrefix = "persona"

// redisEnvelope is the JSON value stored per record key.
type redisEnvelope struct {
	ID        string            `json:"id"`
	CreatedAt time.Time         `json:"created_at"`
	Attrs     map[string]string `json:"attrs,omitempty"`
	Data      json.RawMessage   `json:"data"`
}

// RedisStorage implements storage.Storage on Redis.
// Records live at "{prefix}:{collection}:rec:{id}"; a sorted set
// "{prefix}:{collection}:idx" scored by creation time keeps ordering.
type RedisStorage struct {
	client redis.UniversalClient
	prefix string
}

// RedisOptions configures a Redis connection.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// NewRedisStorage connects to Redis and verifies the connection.
func NewRedisStorage(ctx context.Context, opts RedisOptions) (*RedisStorage, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewRedisStorageFromClient(client, opts.Prefix), nil
}

// NewRedisStorageFromClient wraps an existing client (single node, cluster or ring).
func NewRedisStorageFromClient(client redis.UniversalClient, prefix string) *RedisStorage {
	if prefix == "" {
		prefix = defaultRedisPrefix
	}
	return &RedisStorage{client: client, prefix: prefix}
}

func (s *RedisStorage) recKey(collection, id string) string {
	return fmt.Sprintf("%s:%s:rec:%s", s.prefix, collection, id)
}

func (s *RedisStorage) idxKey(collection string) string {
	return fmt.Sprintf("%s:%s:idx", s.prefix, collection)
}

func (s *RedisStorage) Put(ctx context.Context, collection string, rec storage.Record) error {
	data := json.RawMessage(rec.Data)
	if len(data) == 0 {
		data = json.RawMessage("null")
	}
	b, err := json.Marshal(redisEnvelope{
		ID:        rec.ID,
		CreatedAt: rec.CreatedAt.UTC(),
		Attrs:     rec.Attrs,
		Data:      data,
	})
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.recKey(collection, rec.ID), b, 0)
		pipe.ZAdd(ctx, s.idxKey(collection), redis.Z{
			Score:  float64(rec.CreatedAt.UnixMicro()),
			Member: rec.ID,
		})
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis put: %w", err)
	}
	return nil
}

func (s *RedisStorage) Get(ctx context.Context, collection, id string) (*storage.Record, error) {
	val, err := s.client.Get(ctx, s.recKey(collection, id)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}
	rec, err := decodeEnvelope(val)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *RedisStorage) Query(ctx context.Context, collection string, q storage.Query) ([]storage.Record, error) {
	var ids []string
	var err error
	if q.Order == storage.OldestFirst {
		ids, err = s.client.ZRange(ctx, s.idxKey(collection), 0, -1).Result()
	} else {
		ids, err = s.client.ZRevRange(ctx, s.idxKey(collection), 0, -1).Result()
	}
	if err != nil {
		return nil, fmt.Errorf("redis index: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.recKey(collection, id)
	}
	vals, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("redis mget: %w", err)
	}

	var records []storage.Record
	for _, v := range vals {
		str, ok := v.(string)
		if !ok {
			// index entry without a value; skipped
			continue
		}
		rec, err := decodeEnvelope(str)
		if err != nil {
			return nil, err
		}
		if !storage.MatchAttrs(rec.Attrs, q.Attrs) {
			continue
		}
		records = append(records, rec)
	}

	storage.SortRecords(records, q.Order)
	if q.Limit > 0 && len(records) > q.Limit {
		records = records[:q.Limit]
	}
	return records, nil
}

func (s *RedisStorage) Delete(ctx context.Context, collection string, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	keys := make([]string, len(ids))
	members := make([]interface{}, len(ids))
	for i, id := range ids {
		keys[i] = s.recKey(collection, id)
		members[i] = id
	}

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, keys...)
		pipe.ZRem(ctx, s.idxKey(collection), members...)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis delete: %w", err)
	}
	return nil
}

func (s *RedisStorage) Close() error {
	return s.client.Close()
}

func decodeEnvelope(val string) (storage.Record, error) {
	var env redisEnvelope
	if err := json.Unmarshal([]byte(val), &env); err != nil {
		return storage.Record{}, fmt.Errorf("decode record: %w", err)
	}
	return storage.Record{
		ID:        env.ID,
		CreatedAt: env.CreatedAt.UTC(),
		Attrs:     env.Attrs,
		Data:      []byte(env.Data),
	}, nil
}
