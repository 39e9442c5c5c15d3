// Package storage defines the key/value persistence used for client state.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hyperjump/yowyob/internal/config"
)

// ErrNotFound is returned by Get when the key does not exist.
var ErrNotFound = errors.New("storage: key not found")

// Entry is a stored value with the time it was last written.
type Entry struct {
	Key       string
	Value     []byte
	UpdatedAt time.Time
}

// Storage defines key/value persistence operations. Implementations are safe for concurrent use.
type Storage interface {
	Get(ctx context.Context, key string) (*Entry, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	// Keys lists the keys that start with prefix, sorted.
	Keys(ctx context.Context, prefix string) ([]string, error)

	Close() error
}

// Open returns the storage selected by cfg.Driver.
func Open(ctx context.Context, cfg config.StorageConfig) (Storage, error) {
	switch cfg.Driver {
	case "", "sqlite":
		return NewSQLiteStorage(cfg.DatabasePath)
	case "redis":
		return NewRedisStorage(ctx, cfg.Redis)
	case "memory":
		return NewMemoryStorage(), nil
	}
	return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
}

// GetJSON decodes the value at key into v and returns its write time.
func GetJSON(ctx context.Context, s Storage, key string, v any) (time.Time, error) {
	e, err := s.Get(ctx, key)
	if err != nil {
		return time.Time{}, err
	}
	if err := json.Unmarshal(e.Value, v); err != nil {
		return time.Time{}, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return e.UpdatedAt, nil
}

// PutJSON encodes v and stores it at key.
func PutJSON(ctx context.Context, s Storage, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	return s.Put(ctx, key, data)
}
