package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/otp-api-nosql/internal/application/otp"
	"github.com/otp-api-nosql/internal/domain"
	"github.com/otp-api-nosql/internal/pkg/validate"
)

// OTPHandler handles the issuance and verification endpoints.
type OTPHandler struct {
	svc otp.Service
}

func NewOTPHandler(svc otp.Service) *OTPHandler { return &OTPHandler{svc: svc} }

type sendOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type verifyOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
	OTP   string `json:"otp" validate:"required"`
}

func (h *OTPHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req sendOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFailure(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeFailure(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	if err := h.svc.Issue(r.Context(), req.Email); err != nil {
		// Externally generic; the tagged cause lands in the logs only.
		slog.Error("otp issuance failed", "email", req.Email, "err", err)
		writeFailure(w, http.StatusInternalServerError, "An error occurred while sending OTP or storing data")
		return
	}
	writeJSON(w, http.StatusOK, Envelope{Success: true, Message: "OTP sent and data stored successfully"})
}

func (h *OTPHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req verifyOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFailure(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(&req); err != nil {
		writeFailure(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	token, err := h.svc.Verify(r.Context(), req.Email, req.OTP)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredential) {
			writeFailure(w, http.StatusBadRequest, "Invalid OTP")
			return
		}
		slog.Error("otp verification failed", "email", req.Email, "err", err)
		writeFailure(w, http.StatusInternalServerError, "An error occurred while verifying OTP")
		return
	}
	writeJSON(w, http.StatusOK, Envelope{Success: true, Message: "OTP verified successfully", Token: token})
}

// Deliveries returns the delivery audit trail for an email. Codes are never
// part of delivery records, so nothing secret leaks here.
func (h *OTPHandler) Deliveries(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if email == "" {
		writeFailure(w, http.StatusBadRequest, "email query parameter required")
		return
	}
	list, err := h.svc.Deliveries(r.Context(), email)
	if err != nil {
		slog.Error("delivery listing failed", "email", email, "err", err)
		writeFailure(w, http.StatusInternalServerError, "An error occurred while listing deliveries")
		return
	}
	writeJSON(w, http.StatusOK, Envelope{Success: true, Data: list})
}
