// Package kvstore is the local key-value persistence the todo and pet state live in.
// Each key holds one opaque blob; there is no per-record addressing and no
// cross-key transaction.
package kvstore

import (
	"context"
	"errors"
	"fmt"
	"regexp"
)

// ErrKeyNotFound is returned by Get when the key has never been written or was deleted
var ErrKeyNotFound = errors.New("key not found")

// Backend names accepted by Open
const (
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendFile     = "file"
	BackendMemory   = "memory"
	BackendRedis    = "redis"
)

var keyPattern = regexp.MustCompile(`^[a-z0-9_:.-]+$`)

// Store is a durable map from key to blob
type Store interface {
	// Get returns the stored value, or ErrKeyNotFound
	Get(ctx context.Context, key string) ([]byte, error)

	// Set replaces the value stored under key
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases the underlying connection or handle
	Close() error
}

// Config selects and parameterizes a backend
type Config struct {
	// Backend is one of sqlite, postgres, file, memory, redis
	Backend string
	// Path is the sqlite database file or the file backend directory
	Path string
	// URL is the redis or postgres connection URL
	URL string
	// KeyPrefix namespaces keys on shared servers (redis)
	KeyPrefix string
}

// Open builds the configured backend. On error the returned Store is nil.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Backend {
	case BackendSQLite, "":
		s, err := OpenSQLite(ctx, cfg.Path)
		if err != nil {
			return nil, err
		}
		return s, nil
	case BackendPostgres:
		s, err := OpenPostgres(ctx, cfg.URL)
		if err != nil {
			return nil, err
		}
		return s, nil
	case BackendFile:
		s, err := NewFileStore(cfg.Path)
		if err != nil {
			return nil, err
		}
		return s, nil
	case BackendMemory:
		return NewMemoryStore(), nil
	case BackendRedis:
		s, err := NewRedisStore(ctx, cfg.URL, cfg.KeyPrefix)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

// ValidateKey rejects keys that are unsafe as file names or SQL values
func ValidateKey(key string) error {
	if !keyPattern.MatchString(key) {
		return fmt.Errorf("invalid key %q", key)
	}
	return nil
}
