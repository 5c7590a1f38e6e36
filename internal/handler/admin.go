package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/atlasgate/atlasgate/internal/model"
	"github.com/atlasgate/atlasgate/internal/service"
)

// sessionTTL bounds how long the admin panel can go without re-entering
// the shared secret.
const sessionTTL = 24 * time.Hour

// AdminHandler serves key management: listing, issuance, and the session
// login used by the embedded admin panel.
type AdminHandler struct {
	licenses *service.LicenseService
	auth     *service.AuthService
}

// NewAdminHandler creates an AdminHandler.
func NewAdminHandler(licenses *service.LicenseService, auth *service.AuthService) *AdminHandler {
	return &AdminHandler{licenses: licenses, auth: auth}
}

// ListKeys returns every issued key, newest first. The table is expected to
// stay small, so there is no pagination.
// GET /api/admin/keys
func (h *AdminHandler) ListKeys(w http.ResponseWriter, r *http.Request) {
	keys, err := h.licenses.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list keys")
		return
	}
	if keys == nil {
		keys = []model.LicenseKey{}
	}
	writeJSON(w, http.StatusOK, keys)
}

// createKeyRequest is the expected payload for the CreateKey endpoint.
// Duration is in hours; -1 means the key never expires.
type createKeyRequest struct {
	Name     string `json:"name"`
	Duration int64  `json:"duration"`
}

// CreateKey issues a new key code. The response is the only time the
// plaintext code is shown to the admin.
// POST /api/admin/keys
func (h *AdminHandler) CreateKey(w http.ResponseWriter, r *http.Request) {
	var req createKeyRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusInternalServerError, "failed to create key")
		return
	}

	key, err := h.licenses.Issue(r.Context(), req.Name, req.Duration)
	if err != nil {
		if errors.Is(err, service.ErrInvalidDuration) {
			writeError(w, http.StatusBadRequest, "invalid duration")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to create key")
		return
	}
	writeJSON(w, http.StatusOK, model.SuccessResponse{Success: true, Key: key.KeyCode})
}

// sessionRequest is the expected payload for the Login endpoint.
type sessionRequest struct {
	Token string `json:"token"`
}

// Login exchanges the shared admin secret for a short-lived session token so
// the admin panel doesn't keep the raw secret in the browser.
// POST /api/admin/session
func (h *AdminHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusForbidden, "admin access denied")
		return
	}

	if !h.auth.Authorize(req.Token) {
		writeError(w, http.StatusForbidden, "admin access denied")
		return
	}

	token, err := h.auth.IssueSession(sessionTTL)
	if err != nil {
		writeError(w, http.StatusForbidden, "admin access denied")
		return
	}

	writeJSON(w, http.StatusOK, model.SessionResponse{
		Token:     token,
		TokenType: "bearer",
		ExpiresIn: int(sessionTTL.Seconds()),
	})
}
