package models

import (
	"time"

	"github.com/google/uuid"
)

// OnlineWindow is how recently a device must have pushed telemetry to be
// shown as online. Display-only derivation; the flag is never stored.
const OnlineWindow = 5 * time.Minute

type Device struct {
	ID     uuid.UUID `json:"id" db:"id"`
	UserID uuid.UUID `json:"user_id" db:"user_id"`

	// Code is the pairing code that created this device, retained for audit.
	Code       string `json:"code" db:"code"`
	DeviceName string `json:"device_name" db:"device_name"`

	// Last-known telemetry. Null until the device's first push.
	LastLatitude  *float64 `json:"last_latitude,omitempty" db:"last_latitude"`
	LastLongitude *float64 `json:"last_longitude,omitempty" db:"last_longitude"`
	LastBattery   *int     `json:"last_battery,omitempty" db:"last_battery"`
	LastNetwork   *string  `json:"last_network,omitempty" db:"last_network"`

	ConnectedAt time.Time  `json:"connected_at" db:"connected_at"`
	LastSeen    *time.Time `json:"last_seen,omitempty" db:"last_seen"`
	Active      bool       `json:"active" db:"active"`

	IsOnline bool `json:"is_online" db:"-"` // Calculated field, not stored in DB
}

// Online derives the display status from last_seen: a device that has
// pushed telemetry within OnlineWindow of now counts as online.
func (d *Device) Online(now time.Time) bool {
	if d.LastSeen == nil {
		return false
	}
	return now.Sub(*d.LastSeen) < OnlineWindow
}
