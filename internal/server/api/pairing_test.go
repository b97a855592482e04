package api

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/unilocator/server/pkg/models"
)

func TestStatusForError(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{models.ErrInvalidCode, http.StatusNotFound},
		{models.ErrNotFound, http.StatusNotFound},
		{models.ErrCodeExpired, http.StatusGone},
		{models.ErrUsageExhausted, http.StatusConflict},
		{models.ErrDuplicateDevice, http.StatusConflict},
		{models.ErrDuplicateCode, http.StatusConflict},
		{models.ErrSelfConnect, http.StatusForbidden},
		{models.ErrUnauthorized, http.StatusForbidden},
		{models.ErrInvalidValue, http.StatusBadRequest},
		{models.ErrStoreTimeout, http.StatusServiceUnavailable},
	}

	for _, tc := range cases {
		if got := statusForError(tc.err); got != tc.want {
			t.Errorf("statusForError(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}

func TestEncodePairingQR(t *testing.T) {
	t.Setenv("SERVER_PUBLIC_URL", "https://track.example.com")

	ownerID := uuid.New().String()
	dataURI, err := encodePairingQR("ABCD-1234", ownerID)
	if err != nil {
		t.Fatalf("encodePairingQR() failed: %v", err)
	}

	const prefix = "data:image/png;base64,"
	if !strings.HasPrefix(dataURI, prefix) {
		t.Fatalf("Expected PNG data URI, got %q", dataURI[:32])
	}

	png, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(dataURI, prefix))
	if err != nil {
		t.Fatalf("Payload is not valid base64: %v", err)
	}
	if len(png) < 8 || string(png[1:4]) != "PNG" {
		t.Error("Decoded payload is not a PNG image")
	}
}

func TestConnectionDescriptor_JSONShape(t *testing.T) {
	desc := connectionDescriptor{
		ServerURL:  "https://track.example.com",
		OwnerID:    "owner-1",
		DeviceCode: "ABCD-1234",
	}

	data, err := json.Marshal(desc)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var decoded map[string]string
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	for _, key := range []string{"server_url", "user_id", "device_code"} {
		if _, ok := decoded[key]; !ok {
			t.Errorf("Descriptor JSON missing key %q", key)
		}
	}
}
