package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/atlasgate/atlasgate/internal/service"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequestID_Generated(t *testing.T) {
	var captured string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = GetRequestID(r.Context())
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest("GET", "/", nil))

	if captured == "" {
		t.Error("expected a generated request ID in context")
	}
	if got := rr.Header().Get("X-Request-ID"); got != captured {
		t.Errorf("response header = %q, context = %q", got, captured)
	}
}

func TestRequestID_ClientProvided(t *testing.T) {
	handler := RequestID(okHandler())

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-Request-ID", "client-id-123")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if got := rr.Header().Get("X-Request-ID"); got != "client-id-123" {
		t.Errorf("X-Request-ID = %q, want client-id-123", got)
	}
}

func TestLogger_EscalatesLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	handler := Logger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("POST", "/api/verify", nil))

	out := buf.String()
	if !strings.Contains(out, "level=WARN") {
		t.Errorf("expected WARN level for 403, got: %s", out)
	}
	if !strings.Contains(out, "status=403") {
		t.Errorf("expected status field, got: %s", out)
	}
}

func TestRequireAdmin_TokenHeader(t *testing.T) {
	auth := service.NewAuthService("s3cret", "")
	handler := RequireAdmin(auth)(okHandler())

	req := httptest.NewRequest("GET", "/api/admin/keys", nil)
	req.Header.Set(AdminTokenHeader, "s3cret")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rr.Code)
	}

	req = httptest.NewRequest("GET", "/api/admin/keys", nil)
	req.Header.Set(AdminTokenHeader, "wrong")
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
}

func TestRequireAdmin_Bearer(t *testing.T) {
	auth := service.NewAuthService("s3cret", "")
	handler := RequireAdmin(auth)(okHandler())

	token, err := auth.IssueSession(time.Hour)
	if err != nil {
		t.Fatalf("IssueSession: %v", err)
	}

	req := httptest.NewRequest("GET", "/api/admin/keys", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rr.Code)
	}

	req = httptest.NewRequest("GET", "/api/admin/keys", nil)
	req.Header.Set("Authorization", "Bearer bogus")
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rr.Code)
	}
}

func TestRequireAdmin_FailsClosed(t *testing.T) {
	auth := service.NewAuthService("", "")
	handler := RequireAdmin(auth)(okHandler())

	// With no configured secret every request is denied, including one
	// presenting an empty token.
	for _, header := range []string{"", "admin123", "s3cret"} {
		req := httptest.NewRequest("GET", "/api/admin/keys", nil)
		if header != "" {
			req.Header.Set(AdminTokenHeader, header)
		}
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		if rr.Code != http.StatusForbidden {
			t.Errorf("token %q: status = %d, want 403", header, rr.Code)
		}
	}
}
