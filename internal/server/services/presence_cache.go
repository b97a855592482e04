package services

import (
	"log"
	"sync"
	"time"

	"github.com/unilocator/server/pkg/models"
)

// PresenceCache keeps an in-memory mark of recent telemetry per device so
// device listings don't need a second store read for the online flag. It is
// a read-through fast path over last_seen, refreshed by the same write path
// that bumps last_seen; the store stays the source of truth.
type PresenceCache struct {
	data sync.Map // map[string]time.Time - deviceID -> expiry timestamp
}

// NewPresenceCache creates a new presence cache and starts the cleanup goroutine
func NewPresenceCache() *PresenceCache {
	cache := &PresenceCache{}
	go cache.startCleanup()
	return cache
}

// MarkSeen records a telemetry push; the device counts as online for the
// standard online window.
func (c *PresenceCache) MarkSeen(deviceID string) {
	expiryTime := time.Now().Add(models.OnlineWindow)
	c.data.Store(deviceID, expiryTime)
}

// IsOnline checks if a device has pushed telemetry within the online window
func (c *PresenceCache) IsOnline(deviceID string) bool {
	val, ok := c.data.Load(deviceID)
	if !ok {
		return false
	}

	expiryTime, ok := val.(time.Time)
	if !ok {
		return false
	}

	return time.Now().Before(expiryTime)
}

// Forget drops a device from the cache, used when the device is removed.
func (c *PresenceCache) Forget(deviceID string) {
	c.data.Delete(deviceID)
}

// startCleanup runs a background goroutine that removes expired entries
func (c *PresenceCache) startCleanup() {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		now := time.Now()
		keysToDelete := []string{}

		c.data.Range(func(key, val interface{}) bool {
			deviceID, ok1 := key.(string)
			expiryTime, ok2 := val.(time.Time)

			if ok1 && ok2 && now.After(expiryTime) {
				keysToDelete = append(keysToDelete, deviceID)
			}
			return true
		})

		for _, deviceID := range keysToDelete {
			c.data.Delete(deviceID)
		}

		if len(keysToDelete) > 0 {
			log.Printf("Presence cache: cleaned up %d expired entries", len(keysToDelete))
		}
	}
}
