package models

import (
	"time"

	"github.com/google/uuid"
)

// Event types delivered to subscribed viewers.
const (
	EventDeviceConnected = "device_connected"
	EventDeviceRenamed   = "device_renamed"
	EventDeviceRemoved   = "device_removed"
	EventLocationUpdated = "location_updated"
	EventBatteryUpdated  = "battery_updated"
	EventNetworkUpdated  = "network_updated"
)

// Event is a state-change notification fanned out to the owner's live
// viewer connections. Delivery is best-effort, at most once per viewer;
// there is no replay, viewers re-fetch the device list on reconnect.
type Event struct {
	Type       string      `json:"type"`
	DeviceID   uuid.UUID   `json:"device_id"`
	ReceivedAt time.Time   `json:"received_at"`
	Payload    interface{} `json:"payload,omitempty"`
}

// LocationPayload carries coordinates for a location_updated event.
type LocationPayload struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lng"`
}
