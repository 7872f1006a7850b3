package response

import (
	"encoding/json"
	"net/http"
)

// Envelope wraps every successful response body
type Envelope struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

// JSON writes data inside the success envelope
func JSON(w http.ResponseWriter, status int, data any) {
	Raw(w, status, Envelope{Success: true, Data: data})
}

// Raw writes a JSON response without the envelope
func Raw(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

// NoContent writes a 204 No Content response
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}
