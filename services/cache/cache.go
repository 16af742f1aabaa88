package cache

import (
	"errors"
	"time"

	"github.com/bradfitz/gomemcache/memcache"
)

// ErrMiss is returned by Get when the key is not cached
var ErrMiss = memcache.ErrCacheMiss

// CacheService represents a generic cache service
type CacheService interface {
	// Get retrieves a value from the cache
	Get(key string) ([]byte, error)

	// Set stores a value in the cache with an expiration time
	Set(key string, value []byte, expiration time.Duration) error

	// Delete removes a value from the cache
	Delete(key string) error
}

// IsMiss reports whether err means the key was not cached
func IsMiss(err error) bool {
	return errors.Is(err, ErrMiss)
}
