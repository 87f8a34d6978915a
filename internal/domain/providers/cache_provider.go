package providers

import (
	"context"
	"errors"
	"fmt"
)

// CacheProvider defines the interface for caching operations
type CacheProvider interface {
	// Get retrieves a value from cache
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value in cache with expiration
	Set(ctx context.Context, key string, value []byte, expirationSeconds int) error

	// SetNX stores a value only when the key is absent and reports whether it did
	SetNX(ctx context.Context, key string, value []byte, expirationSeconds int) (bool, error)

	// Delete removes a value from cache
	Delete(ctx context.Context, key string) error

	// DeletePattern removes every key matching a glob pattern
	DeletePattern(ctx context.Context, pattern string) error

	// Exists checks if a key exists in cache
	Exists(ctx context.Context, key string) (bool, error)
}

// ErrCacheMiss is returned by Get when the key is absent
var ErrCacheMiss = errors.New("cache miss")

// HTTPCachePrefix prefixes every cached HTTP response key
const HTTPCachePrefix = "http:cache:"

// TechnicianCacheKey returns the cache key of a single technician record
func TechnicianCacheKey(id string) string {
	return fmt.Sprintf("technician:%s", id)
}

// HTTPCachePattern matches every cached response for paths starting with pathPrefix
func HTTPCachePattern(pathPrefix string) string {
	return HTTPCachePrefix + "GET:" + pathPrefix + "*"
}
