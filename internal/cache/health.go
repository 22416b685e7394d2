package cache

import (
	"context"
	"errors"
	"time"

	"github.com/aprswatch/aprswatch/internal/storage"
)

const healthCheckInterval = 60 * time.Second

// StartHealthMonitor starts a goroutine that periodically updates the health status
func (c *Cache) StartHealthMonitor(ctx context.Context) {
	storage.StartHealthMonitor(ctx, "cache", c, healthCheckInterval)
}

// CheckHealth performs a connectivity check against memcached
func (c *Cache) CheckHealth(ctx context.Context) *storage.HealthData {
	if c.client == nil {
		return storage.CreateHealthData(storage.StatusUnhealthy, "No memcached connection",
			errors.New("memcached client is nil"))
	}

	if err := c.Ping(); err != nil {
		return storage.CreateHealthData(storage.StatusUnhealthy, "Memcached ping failed", err)
	}

	return storage.CreateHealthData(storage.StatusHealthy, "memcached operational - ping: OK", nil)
}
