package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/aprswatch/aprswatch/internal/storage"
)

const healthCheckInterval = 60 * time.Second

// startHealthMonitor starts a goroutine that periodically updates the health status
func (s *Storage) startHealthMonitor(ctx context.Context) {
	storage.StartHealthMonitor(ctx, "database", s, healthCheckInterval)
}

// CheckHealth performs a connectivity check against PostgreSQL
func (s *Storage) CheckHealth(ctx context.Context) *storage.HealthData {
	if s.DB == nil {
		return storage.CreateHealthData(storage.StatusUnhealthy, "No database connection",
			errors.New("postgres connection is nil"))
	}

	sqlDB, err := s.DB.DB()
	if err != nil {
		return storage.CreateHealthData(storage.StatusUnhealthy, "Failed to get underlying database connection", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return storage.CreateHealthData(storage.StatusUnhealthy, "Database ping failed", err)
	}

	// Additional check: try a simple query
	var result int
	if err := s.DB.WithContext(ctx).Raw("SELECT 1").Scan(&result).Error; err != nil {
		return storage.CreateHealthData(storage.StatusUnhealthy, "Database query test failed", err)
	}

	return storage.CreateHealthData(storage.StatusHealthy, "PostgreSQL operational - ping: OK, query test: OK", nil)
}
