// Package cache provides the short-TTL dedup window backed by
// memcached.
package cache

import (
	"errors"
	"time"

	"github.com/bradfitz/gomemcache/memcache"

	"github.com/aprswatch/aprswatch/internal/log"
)

const keyPrefix = "dedup:"

// Cache is a memcached-backed dedup window. All operations fail open:
// when the cache is unreachable, Seen reports false so packets keep
// flowing (at the cost of duplicate suppression) instead of stalling
// the pipeline.
type Cache struct {
	client *memcache.Client
}

// New creates a cache client for the given memcached hosts.
func New(hosts ...string) *Cache {
	return &Cache{client: memcache.New(hosts...)}
}

// Seen reports whether fingerprint is present in the window.
func (c *Cache) Seen(fingerprint string) bool {
	_, err := c.client.Get(keyPrefix + fingerprint)
	switch {
	case err == nil:
		return true
	case errors.Is(err, memcache.ErrCacheMiss):
		return false
	default:
		log.Warnf("dedup cache get failed: %v", err)
		return false
	}
}

// Remember inserts fingerprint with the given TTL.
func (c *Cache) Remember(fingerprint string, ttl time.Duration) {
	seconds := int32(ttl / time.Second)
	if seconds < 1 {
		seconds = 1
	}

	item := &memcache.Item{
		Key:        keyPrefix + fingerprint,
		Value:      []byte("1"),
		Expiration: seconds,
	}
	if err := c.client.Set(item); err != nil {
		log.Warnf("dedup cache set failed: %v", err)
	}
}

// Ping reports cache liveness for the health endpoint.
func (c *Cache) Ping() error {
	return c.client.Ping()
}
