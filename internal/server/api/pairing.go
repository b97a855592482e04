package api

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/skip2/go-qrcode"

	"github.com/unilocator/server/internal/server/services"
	"github.com/unilocator/server/pkg/models"
)

type PairingHandler struct {
	codeService   *services.CodeService
	deviceService *services.DeviceService
}

func NewPairingHandler(codeService *services.CodeService, deviceService *services.DeviceService) *PairingHandler {
	return &PairingHandler{
		codeService:   codeService,
		deviceService: deviceService,
	}
}

// connectionDescriptor is the payload embedded in the pairing QR image.
// The scanning device learns where to connect and which code to claim.
type connectionDescriptor struct {
	ServerURL  string `json:"server_url"`
	OwnerID    string `json:"user_id"`
	DeviceCode string `json:"device_code"`
}

// MintCode handles POST /api/pair/mint (requires auth)
// Mints a one-time pairing code for the caller and returns it both as
// text and as a QR image for the device to scan.
func (h *PairingHandler) MintCode(w http.ResponseWriter, r *http.Request) {
	ident := GetIdentity(r)
	if ident == nil {
		respondErrorJSON(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	code, err := h.codeService.Mint(r.Context(), ident.UserID)
	if err != nil {
		log.Printf("Failed to mint pairing code for user %s: %v", ident.UserID, err)
		respondErrorJSON(w, statusForError(err), "failed to mint pairing code")
		return
	}

	qrData, err := encodePairingQR(code.Code, ident.UserID.String())
	if err != nil {
		respondErrorJSON(w, http.StatusInternalServerError, "failed to encode QR code")
		return
	}

	respondJSON(w, http.StatusCreated, models.MintCodeResponse{
		Code:      code.Code,
		QRCode:    qrData,
		ExpiresAt: code.ExpiresAt.Format(time.RFC3339),
	})
}

// ConnectDevice handles POST /api/pair/connect (requires auth)
// Called by the claiming device to consume a pairing code.
func (h *PairingHandler) ConnectDevice(w http.ResponseWriter, r *http.Request) {
	ident := GetIdentity(r)
	if ident == nil {
		respondErrorJSON(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req models.ConnectDeviceRequest
	if err := decodeJSON(r, &req); err != nil {
		respondErrorJSON(w, http.StatusBadRequest, "invalid request body")
		return
	}

	device, err := h.codeService.Consume(r.Context(), req.Code, ident.UserID, req.DeviceName)
	if err != nil {
		respondErrorJSON(w, statusForError(err), err.Error())
		return
	}

	respondJSON(w, http.StatusCreated, models.ConnectDeviceResponse{
		DeviceID:   device.ID.String(),
		DeviceName: device.DeviceName,
		OwnerID:    device.UserID.String(),
	})
}

// CheckConnection handles POST /api/pair/check (public)
// The pairing device polls whether its code has been consumed yet.
func (h *PairingHandler) CheckConnection(w http.ResponseWriter, r *http.Request) {
	var req models.CheckConnectionRequest
	if err := decodeJSON(r, &req); err != nil || req.Code == "" {
		respondErrorJSON(w, http.StatusBadRequest, "code is required")
		return
	}

	connected, err := h.deviceService.IsCodeConnected(r.Context(), req.Code)
	if err != nil {
		respondErrorJSON(w, statusForError(err), "failed to check connection")
		return
	}

	respondJSON(w, http.StatusOK, models.CheckConnectionResponse{Connected: connected})
}

func encodePairingQR(code, ownerID string) (string, error) {
	serverURL := os.Getenv("SERVER_PUBLIC_URL")
	if serverURL == "" {
		serverURL = "http://localhost:8080"
	}

	payload, err := json.Marshal(connectionDescriptor{
		ServerURL:  serverURL,
		OwnerID:    ownerID,
		DeviceCode: code,
	})
	if err != nil {
		return "", err
	}

	png, err := qrcode.Encode(string(payload), qrcode.Medium, 256)
	if err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(png), nil
}

// statusForError maps typed service errors onto HTTP status codes.
// StoreTimeout gets 503 so clients know the request is safe to retry.
func statusForError(err error) int {
	switch {
	case errors.Is(err, models.ErrInvalidCode):
		return http.StatusNotFound
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, models.ErrCodeExpired):
		return http.StatusGone
	case errors.Is(err, models.ErrUsageExhausted),
		errors.Is(err, models.ErrDuplicateDevice),
		errors.Is(err, models.ErrDuplicateCode):
		return http.StatusConflict
	case errors.Is(err, models.ErrSelfConnect),
		errors.Is(err, models.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, models.ErrInvalidValue):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrStoreTimeout):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
