package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/unilocator/server/internal/server/services"
	"github.com/unilocator/server/pkg/models"
)

type TelemetryHandler struct {
	telemetryService *services.TelemetryService
}

func NewTelemetryHandler(telemetryService *services.TelemetryService) *TelemetryHandler {
	return &TelemetryHandler{telemetryService: telemetryService}
}

// UpdateLocation handles POST /api/devices/{device_id}/location (requires auth)
func (h *TelemetryHandler) UpdateLocation(w http.ResponseWriter, r *http.Request) {
	ident, deviceID, ok := h.telemetryTarget(w, r)
	if !ok {
		return
	}

	var req models.LocationUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		respondErrorJSON(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.telemetryService.UpdateLocation(r.Context(), deviceID, ident.UserID, req.Latitude, req.Longitude); err != nil {
		respondErrorJSON(w, statusForError(err), err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// UpdateBattery handles POST /api/devices/{device_id}/battery (requires auth)
func (h *TelemetryHandler) UpdateBattery(w http.ResponseWriter, r *http.Request) {
	ident, deviceID, ok := h.telemetryTarget(w, r)
	if !ok {
		return
	}

	var req models.BatteryUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		respondErrorJSON(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.telemetryService.UpdateBattery(r.Context(), deviceID, ident.UserID, req.Level); err != nil {
		respondErrorJSON(w, statusForError(err), err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// UpdateNetwork handles POST /api/devices/{device_id}/network (requires auth)
func (h *TelemetryHandler) UpdateNetwork(w http.ResponseWriter, r *http.Request) {
	ident, deviceID, ok := h.telemetryTarget(w, r)
	if !ok {
		return
	}

	var req models.NetworkUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		respondErrorJSON(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.telemetryService.UpdateNetwork(r.Context(), deviceID, ident.UserID, req.Descriptor); err != nil {
		respondErrorJSON(w, statusForError(err), err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *TelemetryHandler) telemetryTarget(w http.ResponseWriter, r *http.Request) (*services.Identity, uuid.UUID, bool) {
	ident := GetIdentity(r)
	if ident == nil {
		respondErrorJSON(w, http.StatusUnauthorized, "unauthorized")
		return nil, uuid.Nil, false
	}

	deviceID, err := uuid.Parse(chi.URLParam(r, "device_id"))
	if err != nil {
		respondErrorJSON(w, http.StatusBadRequest, "invalid device ID")
		return nil, uuid.Nil, false
	}

	return ident, deviceID, true
}
