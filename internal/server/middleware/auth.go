package middleware

import (
	"net/http"
	"strings"

	"github.com/atlasgate/atlasgate/internal/service"
)

// AdminTokenHeader is the header carrying the shared admin secret. The name
// is a compatibility contract with existing admin clients.
const AdminTokenHeader = "admin-token"

// RequireAdmin guards the key management endpoints. A request passes when
// it carries either the exact configured secret in the admin-token header
// or a valid Bearer session token from the session endpoint. Everything
// else, including requests against an unconfigured gate, gets a 403.
func RequireAdmin(authSvc *service.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if authSvc.Authorize(r.Header.Get(AdminTokenHeader)) {
				next.ServeHTTP(w, r)
				return
			}

			if bearer := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer "); bearer != r.Header.Get("Authorization") {
				if authSvc.ValidateSession(bearer) == nil {
					next.ServeHTTP(w, r)
					return
				}
			}

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusForbidden)
			w.Write([]byte(`{"error":"admin access denied"}`))
		})
	}
}
