package models

import (
	"time"

	"github.com/google/uuid"
)

// PendingCode is a one-time pairing code waiting to be claimed by a device.
//
// Lifecycle: pending -> consumed (use_count == max_uses, active=false) or
// expired (expires_at passed, active=false). Neither terminal state is ever
// left again; a new pairing always mints a fresh code.
type PendingCode struct {
	ID        uuid.UUID `json:"id" db:"id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	Code      string    `json:"code" db:"code"`
	MaxUses   int       `json:"max_uses" db:"max_uses"`
	UseCount  int       `json:"use_count" db:"use_count"`
	Active    bool      `json:"active" db:"active"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	ExpiresAt time.Time `json:"expires_at" db:"expires_at"`
}

// Expired reports whether the code's validity window has passed.
func (c *PendingCode) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}

// Exhausted reports whether the code has no remaining uses.
func (c *PendingCode) Exhausted() bool {
	return c.UseCount >= c.MaxUses
}
