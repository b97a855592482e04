package services

import (
	"sync"

	"github.com/google/uuid"

	"github.com/unilocator/server/pkg/models"
)

// recordingNotifier captures published events for assertions.
type recordingNotifier struct {
	mu     sync.Mutex
	events []models.Event
	owners []uuid.UUID
}

func (n *recordingNotifier) Publish(ownerID uuid.UUID, event models.Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.owners = append(n.owners, ownerID)
	n.events = append(n.events, event)
}

func (n *recordingNotifier) Events() []models.Event {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]models.Event, len(n.events))
	copy(out, n.events)
	return out
}

func (n *recordingNotifier) LastOwner() (uuid.UUID, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.owners) == 0 {
		return uuid.Nil, false
	}
	return n.owners[len(n.owners)-1], true
}
