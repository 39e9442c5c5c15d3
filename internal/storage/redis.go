package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hyperjump/yowyob/internal/config"
)

const dialTimeout = 5 * time.Second

// RedisStorage implements Storage on a redis hash per key.
type RedisStorage struct {
	client *redis.Client
	prefix string
}

// NewRedisStorage connects to redis and verifies the connection with PING.
func NewRedisStorage(ctx context.Context, cfg config.RedisConfig) (*RedisStorage, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	dialCtx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()
	if err := client.Ping(dialCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis (ping failed): %w", err)
	}
	return NewRedisStorageFromClient(client, cfg.KeyPrefix), nil
}

// NewRedisStorageFromClient wraps an existing client. Keys are namespaced with prefix.
func NewRedisStorageFromClient(client *redis.Client, prefix string) *RedisStorage {
	return &RedisStorage{client: client, prefix: prefix}
}

// Get returns the entry stored at key.
func (s *RedisStorage) Get(ctx context.Context, key string) (*Entry, error) {
	vals, err := s.client.HMGet(ctx, s.prefix+key, "value", "updated_at").Result()
	if err != nil {
		return nil, err
	}
	value, ok := vals[0].(string)
	if !ok {
		return nil, ErrNotFound
	}
	e := &Entry{Key: key, Value: []byte(value)}
	if ts, ok := vals[1].(string); ok {
		e.UpdatedAt, err = time.Parse(time.RFC3339Nano, ts)
		if err != nil {
			return nil, fmt.Errorf("invalid updated_at for %s: %w", key, err)
		}
	}
	return e, nil
}

// Put stores value at key.
func (s *RedisStorage) Put(ctx context.Context, key string, value []byte) error {
	return s.client.HSet(ctx, s.prefix+key,
		"value", value,
		"updated_at", time.Now().UTC().Format(time.RFC3339Nano),
	).Err()
}

// Delete removes key.
func (s *RedisStorage) Delete(ctx context.Context, key string) error {
	err := s.client.Del(ctx, s.prefix+key).Err()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	return err
}

// Keys lists keys starting with prefix using SCAN.
func (s *RedisStorage) Keys(ctx context.Context, prefix string) ([]string, error) {
	var keys []string
	iter := s.client.Scan(ctx, 0, s.prefix+prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		k := strings.TrimPrefix(iter.Val(), s.prefix)
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	sort.Strings(keys)
	return keys, nil
}

// Close closes the client.
func (s *RedisStorage) Close() error {
	return s.client.Close()
}
