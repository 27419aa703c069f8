// Package cache provides the key/value stores behind the optional catalog response cache.
package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrCacheMiss indicates a cache miss.
var ErrCacheMiss = errors.New("cache miss")

// Drivers accepted by Open.
const (
	DriverNone   = "none"
	DriverMemory = "memory"
	DriverRedis  = "redis"
)

// Client defines the cache interface.
type Client interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	DeleteByPrefix(ctx context.Context, prefix string) error
	Close() error
}

// Open builds the client for driver. DriverNone (or "") returns a nil Client.
func Open(driver string, maxEntries int, redisCfg RedisConfig) (Client, error) {
	switch driver {
	case "", DriverNone:
		return nil, nil
	case DriverMemory:
		return NewMemoryClient(maxEntries), nil
	case DriverRedis:
		return NewRedisClient(redisCfg)
	default:
		return nil, fmt.Errorf("unknown cache driver: %s", driver)
	}
}

// Key joins key components with ':'.
func Key(parts ...string) string {
	return strings.Join(parts, ":")
}
