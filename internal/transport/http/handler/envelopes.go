package handler

import (
	"encoding/json"
	"net/http"

	"github.com/otp-api-nosql/internal/domain"
)

// Envelope is the response wrapper for every endpoint: a success flag, a
// human-readable message, and optional payload fields.
type Envelope struct {
	Success bool              `json:"success"`
	Message string            `json:"message,omitempty"`
	Token   string            `json:"token,omitempty"`
	Data    []domain.Delivery `json:"data,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeFailure(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, Envelope{Success: false, Message: msg})
}
