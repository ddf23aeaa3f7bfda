package auth

import (
	"context"
	"time"
)

// Identity is the verified caller behind a bearer token.
type Identity struct {
	UID   string
	Email string
}

// Verifier turns a bearer token into an Identity.
//
// Implementations return an UNAUTHORIZED domain error for tokens that are
// malformed, expired, or fail signature checks, and UNAVAILABLE or TIMEOUT
// when the identity provider itself cannot be reached.
type Verifier interface {
	Verify(ctx context.Context, token string) (*Identity, error)
}

// AccessClaims represents the claims stored in a locally issued PASETO token.
// These are encrypted in v4.local tokens, so they're not readable without the key.
type AccessClaims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`

	// Standard PASETO claims
	Issuer     string    `json:"iss"`
	Subject    string    `json:"sub"`
	Audience   string    `json:"aud"`
	Expiration time.Time `json:"exp"`
	NotBefore  time.Time `json:"nbf"`
	IssuedAt   time.Time `json:"iat"`
	TokenID    string    `json:"jti"`
}
