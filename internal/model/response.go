package model

// SuccessResponse is the envelope for successful verify and issue calls.
// The Key field is only populated by issuance; it is the single moment the
// plaintext code is visible to the admin.
type SuccessResponse struct {
	Success bool   `json:"success"`
	Key     string `json:"key,omitempty"`
}

// ErrorResponse is the flat error envelope used by every API failure.
// The shape is a compatibility contract with existing download-page clients,
// so it stays a single short human-readable message.
type ErrorResponse struct {
	Error string `json:"error"`
}

// SessionResponse is the payload for a successful admin session login.
type SessionResponse struct {
	Token     string `json:"session_token"`
	TokenType string `json:"token_type"`
	ExpiresIn int    `json:"expires_in"`
}
