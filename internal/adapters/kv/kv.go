// Package kv provides the key-value backends the workout snapshot is stored in.
package kv

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/go-redis/redis/v8"

	"github.com/hugo-lorenzo-mato/pinlog/internal/core"
)

// Backend names accepted by New.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// Store is a key-value backend with a lifecycle.
type Store interface {
	core.KeyValueStore

	// Ping checks that the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases the backend's resources.
	Close() error
}

// Options configures backend creation.
type Options struct {
	// Backend selects the implementation. Empty means file.
	Backend string

	// Path is the data directory for the file backend and the database
	// file for the sqlite backend.
	Path string

	// Redis holds the connection settings for the redis backend.
	Redis RedisOptions
}

// RedisOptions configures the redis backend.
type RedisOptions struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
}

// New creates the backend selected by opts.Backend.
func New(opts Options) (Store, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Backend)) {
	case BackendMemory:
		return NewMemoryStore(), nil
	case "", BackendFile:
		return NewFileStore(opts.Path)
	case BackendSQLite:
		path := opts.Path
		if !strings.HasSuffix(path, ".db") {
			path = filepath.Join(path, "pinlog.db")
		}
		return NewSQLiteStore(path)
	case BackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     opts.Redis.Addr,
			Password: opts.Redis.Password,
			DB:       opts.Redis.DB,
		})
		return NewRedisStore(client, WithKeyPrefix(opts.Redis.KeyPrefix)), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q (valid: memory, file, sqlite, redis)", opts.Backend)
	}
}

// validateKey rejects keys that cannot be stored safely by every backend.
// The error is a validation error, so callers do not retry it.
func validateKey(key string) error {
	if key == "" {
		return core.ErrValidation(core.CodeInvalidKey, "empty key")
	}
	if strings.ContainsAny(key, `/\`) || key == "." || key == ".." {
		return core.ErrValidation(core.CodeInvalidKey, fmt.Sprintf("invalid key %q", key))
	}
	return nil
}
