package service

import (
	"crypto/sha256"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrUnauthorized is returned for any failed admin credential check.
var ErrUnauthorized = errors.New("unauthorized")

// AuthService is the admin gate. Admin requests authenticate either with the
// shared secret itself (the admin-token header, an exact string compare) or
// with a short-lived session token previously exchanged for that secret.
//
// The gate fails closed: when no secret is configured, every admin request
// and every session issuance is denied. An earlier revision of this system
// fell back to a hardcoded default secret when unconfigured; that behavior
// is deliberately not preserved.
type AuthService struct {
	adminToken string
	jwtSecret  []byte
}

// NewAuthService creates the admin gate for the configured shared secret.
// jwtSecret signs session tokens; when empty it is derived from the admin
// token, which keeps single-secret deployments working without extra config.
func NewAuthService(adminToken, jwtSecret string) *AuthService {
	secret := []byte(jwtSecret)
	if len(secret) == 0 && adminToken != "" {
		sum := sha256.Sum256([]byte("atlasgate-session:" + adminToken))
		secret = sum[:]
	}
	return &AuthService{
		adminToken: adminToken,
		jwtSecret:  secret,
	}
}

// Authorize reports whether presentedToken exactly matches the configured
// admin secret. An unconfigured secret denies everything.
func (s *AuthService) Authorize(presentedToken string) bool {
	return s.adminToken != "" && presentedToken == s.adminToken
}

// IssueSession creates a signed session token for the admin panel so the
// browser doesn't have to hold the raw shared secret. Fails when the gate
// is unconfigured.
func (s *AuthService) IssueSession(ttl time.Duration) (string, error) {
	if s.adminToken == "" {
		return "", ErrUnauthorized
	}

	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   "admin",
		Issuer:    "atlasgate",
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

// ValidateSession verifies a session token issued by IssueSession.
func (s *AuthService) ValidateSession(tokenStr string) error {
	if s.adminToken == "" {
		return ErrUnauthorized
	}

	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return ErrUnauthorized
	}
	return nil
}
