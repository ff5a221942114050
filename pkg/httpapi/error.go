// Package httpapi carries the JSON response helpers shared by the API
// controllers.
package httpapi

import (
	"encoding/json"
	"net/http"
)

// ErrorEnvelope is the uniform JSON error body. Code is a stable
// machine-readable identifier; Meta carries field-level details such as
// validation messages.
type ErrorEnvelope struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Meta    map[string]string `json:"meta,omitempty"`
}

// WriteJSON encodes payload with the JSON content type. A nil payload writes
// only the status line.
func WriteJSON(w http.ResponseWriter, status int, payload any) error {
	if w == nil {
		return nil
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return nil
	}
	return json.NewEncoder(w).Encode(payload)
}

// WriteError writes a status line plus the ErrorEnvelope body.
func WriteError(w http.ResponseWriter, status int, code, message string, meta map[string]string) error {
	return WriteJSON(w, status, &ErrorEnvelope{
		Code:    code,
		Message: message,
		Meta:    meta,
	})
}
