package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/atlasgate/atlasgate/internal/model"
	"github.com/atlasgate/atlasgate/internal/service"
)

// LicenseHandler serves the public key verification endpoint.
type LicenseHandler struct {
	licenses *service.LicenseService
}

// NewLicenseHandler creates a LicenseHandler.
func NewLicenseHandler(licenses *service.LicenseService) *LicenseHandler {
	return &LicenseHandler{licenses: licenses}
}

// verifyRequest is the expected payload for the Verify endpoint.
type verifyRequest struct {
	Key string `json:"key"`
}

// Verify checks a presented key code against the store, binding it to the
// requester's address on first use.
// POST /api/verify
func (h *LicenseHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusUnauthorized, "invalid key")
		return
	}

	err := h.licenses.Verify(r.Context(), req.Key, requesterIP(r), time.Now().UTC())
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, model.SuccessResponse{Success: true})
	case errors.Is(err, service.ErrInvalidKey):
		writeError(w, http.StatusUnauthorized, "invalid key")
	case errors.Is(err, service.ErrDeviceMismatch):
		writeError(w, http.StatusForbidden, "device mismatch")
	case errors.Is(err, service.ErrExpired):
		writeError(w, http.StatusForbidden, "expired")
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
