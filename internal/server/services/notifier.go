package services

import (
	"github.com/google/uuid"
	"github.com/unilocator/server/pkg/models"
)

// Notifier fans out state-change events to an owner's live viewers.
// Implementations must never block the calling write path: delivery is
// best-effort, bounded per subscriber, drop-and-log on backpressure.
type Notifier interface {
	Publish(ownerID uuid.UUID, event models.Event)
}
