// Package kv is the durable key-value layer. Values are opaque blobs that are
// always read and replaced whole.
package kv

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotFound is returned by Get when the key has no value.
var ErrNotFound = errors.New("kv: key not found")

// Store reads and replaces whole values by key.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Options selects and configures a driver.
type Options struct {
	Driver    string // file | redis | memory
	Dir       string
	RedisURL  string
	KeyPrefix string
}

// Open returns the Store for opt.Driver.
func Open(ctx context.Context, opt Options) (Store, error) {
	switch opt.Driver {
	case "", "file":
		return NewFileStore(opt.Dir)
	case "redis":
		return NewRedisStore(ctx, opt.RedisURL, opt.KeyPrefix)
	case "memory":
		return NewMemoryStore(), nil
	}
	return nil, fmt.Errorf("kv: unknown driver %q", opt.Driver)
}
