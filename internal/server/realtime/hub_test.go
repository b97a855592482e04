package realtime

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/unilocator/server/pkg/models"
)

func testEvent(deviceID uuid.UUID) models.Event {
	return models.Event{
		Type:       models.EventLocationUpdated,
		DeviceID:   deviceID,
		ReceivedAt: time.Now().UTC(),
	}
}

func TestHub_PublishScopedToOwner(t *testing.T) {
	hub := NewHub()
	defer hub.Shutdown()

	ownerA := uuid.New()
	ownerB := uuid.New()

	viewerA := NewViewer(ownerA, nil)
	viewerB := NewViewer(ownerB, nil)
	hub.Subscribe(ownerA, viewerA)
	hub.Subscribe(ownerB, viewerB)

	deviceID := uuid.New()
	hub.Publish(ownerA, testEvent(deviceID))

	select {
	case data := <-viewerA.send:
		var got models.Event
		if err := json.Unmarshal(data, &got); err != nil {
			t.Fatalf("Failed to unmarshal delivered event: %v", err)
		}
		if got.Type != models.EventLocationUpdated {
			t.Errorf("Expected event type %q, got %q", models.EventLocationUpdated, got.Type)
		}
		if got.DeviceID != deviceID {
			t.Errorf("Expected device %s, got %s", deviceID, got.DeviceID)
		}
	default:
		t.Fatal("Owner A's viewer received nothing")
	}

	select {
	case <-viewerB.send:
		t.Fatal("Owner B's viewer received an event for owner A")
	default:
	}
}

func TestHub_PublishFanOut(t *testing.T) {
	hub := NewHub()
	defer hub.Shutdown()

	owner := uuid.New()
	viewers := make([]*Viewer, 3)
	for i := range viewers {
		viewers[i] = NewViewer(owner, nil)
		hub.Subscribe(owner, viewers[i])
	}

	hub.Publish(owner, testEvent(uuid.New()))

	for i, v := range viewers {
		select {
		case <-v.send:
		default:
			t.Errorf("Viewer %d received nothing", i)
		}
	}
}

func TestHub_SlowViewerDropsEvents(t *testing.T) {
	hub := NewHub()
	defer hub.Shutdown()

	owner := uuid.New()
	viewer := NewViewer(owner, nil)
	hub.Subscribe(owner, viewer)

	// Nothing drains the buffer, so events beyond its capacity must be
	// dropped without blocking the publisher.
	for i := 0; i < sendBufferSize+10; i++ {
		hub.Publish(owner, testEvent(uuid.New()))
	}

	if got := len(viewer.send); got != sendBufferSize {
		t.Errorf("Expected buffer to hold %d events, got %d", sendBufferSize, got)
	}
}

func TestHub_Unsubscribe(t *testing.T) {
	hub := NewHub()

	owner := uuid.New()
	viewer := NewViewer(owner, nil)
	hub.Subscribe(owner, viewer)

	if hub.ViewerCount() != 1 {
		t.Fatalf("Expected 1 viewer, got %d", hub.ViewerCount())
	}

	hub.Unsubscribe(viewer)
	if hub.ViewerCount() != 0 {
		t.Errorf("Expected 0 viewers after unsubscribe, got %d", hub.ViewerCount())
	}

	// Channel must be closed so the write pump exits.
	select {
	case _, ok := <-viewer.send:
		if ok {
			t.Error("Expected send channel to be closed")
		}
	default:
		t.Error("Expected send channel to be closed, but it is still open")
	}

	// A second unsubscribe of the same viewer must not panic.
	hub.Unsubscribe(viewer)

	// Publishing to an owner with no viewers must not panic either.
	hub.Publish(owner, testEvent(uuid.New()))
}

func TestViewer_TrySendAfterClose(t *testing.T) {
	hub := NewHub()

	owner := uuid.New()
	viewer := NewViewer(owner, nil)
	hub.Subscribe(owner, viewer)
	hub.Unsubscribe(viewer)

	// A publisher can snapshot a viewer just before its unsubscribe closes
	// the send channel. The send on the closed channel must be absorbed,
	// not panic the publishing goroutine.
	viewer.trySend([]byte(`{}`))
}

func TestHub_PublishRacesUnsubscribe(t *testing.T) {
	hub := NewHub()
	owner := uuid.New()
	event := testEvent(uuid.New())

	for i := 0; i < 1000; i++ {
		viewer := NewViewer(owner, nil)
		hub.Subscribe(owner, viewer)

		var wg sync.WaitGroup
		for j := 0; j < 4; j++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				hub.Publish(owner, event)
			}()
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			hub.Unsubscribe(viewer)
		}()
		wg.Wait()
	}

	if got := hub.ViewerCount(); got != 0 {
		t.Errorf("Expected 0 viewers after all unsubscribed, got %d", got)
	}
}
