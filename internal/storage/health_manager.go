package storage

import (
	"sync"
	"time"
)

// HealthData describes the last observed health of a backing service.
type HealthData struct {
	LastCheck time.Time `json:"lastCheck"`
	Status    string    `json:"status"` // "healthy" or "unhealthy"
	Message   string    `json:"message,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// HealthManager manages backend health status in memory
type HealthManager struct {
	mu     sync.RWMutex
	health map[string]*HealthData
}

// GlobalHealthManager is the singleton instance for health management
var GlobalHealthManager = NewHealthManager()

// NewHealthManager creates a new health manager
func NewHealthManager() *HealthManager {
	return &HealthManager{
		health: make(map[string]*HealthData),
	}
}

// UpdateHealth updates the health status for a backend
func (hm *HealthManager) UpdateHealth(backend string, health *HealthData) {
	hm.mu.Lock()
	defer hm.mu.Unlock()

	// Clone the health data to avoid concurrent modification
	healthCopy := *health
	hm.health[backend] = &healthCopy
}

// GetHealth retrieves the health status for a specific backend
func (hm *HealthManager) GetHealth(backend string) (*HealthData, bool) {
	hm.mu.RLock()
	defer hm.mu.RUnlock()

	health, exists := hm.health[backend]
	if !exists {
		return nil, false
	}

	healthCopy := *health
	return &healthCopy, true
}

// GetAllHealth retrieves all backend health statuses
func (hm *HealthManager) GetAllHealth() map[string]*HealthData {
	hm.mu.RLock()
	defer hm.mu.RUnlock()

	result := make(map[string]*HealthData, len(hm.health))
	for k, v := range hm.health {
		healthCopy := *v
		result[k] = &healthCopy
	}

	return result
}

// IsHealthy checks if a backend is healthy
func (hm *HealthManager) IsHealthy(backend string, maxAge time.Duration) bool {
	health, exists := hm.GetHealth(backend)
	if !exists {
		return false
	}

	// Check if health data is stale
	if time.Since(health.LastCheck) > maxAge {
		return false
	}

	return health.Status == StatusHealthy
}
