package api

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/unilocator/server/pkg/models"
)

func writeJSON(w http.ResponseWriter, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	return json.NewEncoder(w).Encode(data)
}

func respondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	writeJSON(w, data)
}

func respondErrorJSON(w http.ResponseWriter, statusCode int, message string) {
	respondJSON(w, statusCode, models.ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
	})
}

// maxRequestBody bounds JSON request bodies. The largest legitimate payload
// is a pairing request with a device name, well under a kilobyte.
const maxRequestBody = 64 << 10

func decodeJSON(r *http.Request, v interface{}) error {
	return json.NewDecoder(io.LimitReader(r.Body, maxRequestBody)).Decode(v)
}
