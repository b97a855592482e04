package models

// Auth API types
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,min=1,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type AuthResponse struct {
	Token     string `json:"token"`
	ExpiresAt string `json:"expires_at"`
}

// Pairing API types
type MintCodeResponse struct {
	Code      string `json:"code"`
	QRCode    string `json:"qr_code"` // base64 PNG data URI
	ExpiresAt string `json:"expires_at"`
}

type ConnectDeviceRequest struct {
	Code       string `json:"code" validate:"required"`
	DeviceName string `json:"device_name,omitempty" validate:"omitempty,max=100"`
}

type ConnectDeviceResponse struct {
	DeviceID   string `json:"device_id"`
	DeviceName string `json:"device_name"`
	OwnerID    string `json:"owner_id"`
}

type CheckConnectionRequest struct {
	Code string `json:"code" validate:"required"`
}

type CheckConnectionResponse struct {
	Connected bool `json:"connected"`
}

// Device API types
type RenameDeviceRequest struct {
	DeviceName string `json:"device_name" validate:"required,min=1,max=100"`
}

type ListDevicesResponse struct {
	Devices []Device `json:"devices"`
}

type TelemetryResponse struct {
	Latitude  *float64 `json:"lat"`
	Longitude *float64 `json:"lng"`
	Battery   *int     `json:"battery"`
	Network   *string  `json:"network"`
	LastSeen  *string  `json:"last_seen"`
	IsOnline  bool     `json:"is_online"`
}

// Telemetry push types
type LocationUpdateRequest struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lng"`
}

type BatteryUpdateRequest struct {
	Level int `json:"level"`
}

type NetworkUpdateRequest struct {
	Descriptor string `json:"descriptor"`
}

// Error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
