package api

import (
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/unilocator/server/internal/server/services"
	"github.com/unilocator/server/pkg/models"
)

type DeviceHandler struct {
	deviceService *services.DeviceService
}

func NewDeviceHandler(deviceService *services.DeviceService) *DeviceHandler {
	return &DeviceHandler{deviceService: deviceService}
}

// ListDevices handles GET /api/devices (requires auth)
func (h *DeviceHandler) ListDevices(w http.ResponseWriter, r *http.Request) {
	ident := GetIdentity(r)
	if ident == nil {
		respondErrorJSON(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	devices, err := h.deviceService.ListDevices(r.Context(), ident.UserID)
	if err != nil {
		log.Printf("Failed to list devices for user %s: %v", ident.UserID, err)
		respondErrorJSON(w, statusForError(err), "failed to list devices")
		return
	}

	respondJSON(w, http.StatusOK, models.ListDevicesResponse{Devices: devices})
}

// RenameDevice handles PATCH /api/devices/{device_id} (requires auth)
func (h *DeviceHandler) RenameDevice(w http.ResponseWriter, r *http.Request) {
	ident := GetIdentity(r)
	if ident == nil {
		respondErrorJSON(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	deviceID, err := uuid.Parse(chi.URLParam(r, "device_id"))
	if err != nil {
		respondErrorJSON(w, http.StatusBadRequest, "invalid device ID")
		return
	}

	var req models.RenameDeviceRequest
	if err := decodeJSON(r, &req); err != nil {
		respondErrorJSON(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.DeviceName) == "" {
		respondErrorJSON(w, http.StatusBadRequest, "device_name is required")
		return
	}

	if err := h.deviceService.Rename(r.Context(), deviceID, ident.UserID, req.DeviceName); err != nil {
		respondErrorJSON(w, statusForError(err), err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DeleteDevice handles DELETE /api/devices/{device_id} (requires auth)
func (h *DeviceHandler) DeleteDevice(w http.ResponseWriter, r *http.Request) {
	ident := GetIdentity(r)
	if ident == nil {
		respondErrorJSON(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	deviceID, err := uuid.Parse(chi.URLParam(r, "device_id"))
	if err != nil {
		respondErrorJSON(w, http.StatusBadRequest, "invalid device ID")
		return
	}

	if err := h.deviceService.Remove(r.Context(), deviceID, ident.UserID); err != nil {
		respondErrorJSON(w, statusForError(err), err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetTelemetry handles GET /api/devices/{device_id}/telemetry (requires auth)
// Returns the last known location, battery and network state of the device.
func (h *DeviceHandler) GetTelemetry(w http.ResponseWriter, r *http.Request) {
	ident := GetIdentity(r)
	if ident == nil {
		respondErrorJSON(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	deviceID, err := uuid.Parse(chi.URLParam(r, "device_id"))
	if err != nil {
		respondErrorJSON(w, http.StatusBadRequest, "invalid device ID")
		return
	}

	device, err := h.deviceService.GetDevice(r.Context(), deviceID, ident.UserID)
	if err != nil {
		respondErrorJSON(w, statusForError(err), err.Error())
		return
	}

	resp := models.TelemetryResponse{
		Latitude:  device.LastLatitude,
		Longitude: device.LastLongitude,
		Battery:   device.LastBattery,
		Network:   device.LastNetwork,
		IsOnline:  device.IsOnline,
	}
	if device.LastSeen != nil {
		seen := device.LastSeen.Format(time.RFC3339)
		resp.LastSeen = &seen
	}

	respondJSON(w, http.StatusOK, resp)
}
