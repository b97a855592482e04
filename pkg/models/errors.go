package models

import "errors"

// Typed outcomes for pairing, device, and telemetry operations. Callers
// branch on these with errors.Is; none of them is retryable except
// ErrStoreTimeout.
var (
	// Validation
	ErrInvalidValue = errors.New("invalid value")
	ErrInvalidCode  = errors.New("invalid code")

	// Authorization
	ErrUnauthorized = errors.New("unauthorized")
	ErrSelfConnect  = errors.New("cannot pair a device to your own code")

	// State conflicts
	ErrCodeExpired     = errors.New("code has expired")
	ErrUsageExhausted  = errors.New("code usage exhausted")
	ErrDuplicateCode   = errors.New("code already exists")
	ErrDuplicateDevice = errors.New("device already connected for this code")
	ErrNotFound        = errors.New("not found")

	// Transient infrastructure
	ErrStoreTimeout = errors.New("store operation timed out")
)

// IsRetryable reports whether the caller may safely retry the same
// operation. Only transient store timeouts qualify; state-conflict and
// validation errors must not be retried verbatim.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrStoreTimeout)
}
