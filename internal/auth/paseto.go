package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"aidanwoods.dev/go-paseto"
	domainerrors "github.com/photogram/photogram-server/internal/errors"
	"github.com/photogram/photogram-server/internal/id"
)

const (
	tokenIssuer   = "photogram-server"
	tokenAudience = "photogram-client"
)

// ErrInvalidToken is the error every rejected token maps to.
var ErrInvalidToken = domainerrors.Unauthorized("Unauthorized: Invalid or expired token")

// TokenService issues and verifies PASETO v4.local tokens for self-hosted
// deployments and local development.
type TokenService struct {
	symmetricKey paseto.V4SymmetricKey
	duration     time.Duration
	now          func() time.Time
}

// NewTokenService creates a token service from a 32-byte key.
func NewTokenService(key []byte, duration time.Duration) (*TokenService, error) {
	if len(key) != keyLength {
		return nil, fmt.Errorf("PASETO v4 key must be exactly %d bytes, got %d", keyLength, len(key))
	}

	symmetricKey, err := paseto.V4SymmetricKeyFromBytes(key)
	if err != nil {
		return nil, fmt.Errorf("failed to create PASETO symmetric key: %w", err)
	}

	return &TokenService{
		symmetricKey: symmetricKey,
		duration:     duration,
		now:          time.Now,
	}, nil
}

// Issue creates a token for identity, valid for the configured duration.
func (s *TokenService) Issue(identity Identity) (string, error) {
	now := s.now()

	token := paseto.NewToken()
	token.SetIssuer(tokenIssuer)
	token.SetSubject(identity.UID)
	token.SetAudience(tokenAudience)
	token.SetIssuedAt(now)
	token.SetNotBefore(now)
	token.SetExpiration(now.Add(s.duration))

	tokenID, err := id.Generate("tok")
	if err != nil {
		return "", fmt.Errorf("generate token ID: %w", err)
	}
	token.SetJti(tokenID)

	//nolint:errcheck // Token.Set only errors on invalid types, which we control
	_ = token.Set("user_id", identity.UID)
	//nolint:errcheck // Token.Set only errors on invalid types, which we control
	_ = token.Set("email", identity.Email)

	return token.V4Encrypt(s.symmetricKey, nil), nil
}

// Verify decrypts and validates a token issued by this service.
func (s *TokenService) Verify(ctx context.Context, tokenString string) (*Identity, error) {
	if err := ctx.Err(); err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeTimeout, "token verification timed out")
	}

	parser := paseto.NewParser()
	parser.AddRule(paseto.ForAudience(tokenAudience))
	parser.AddRule(paseto.IssuedBy(tokenIssuer))
	parser.AddRule(paseto.NotExpired())
	parser.AddRule(paseto.ValidAt(s.now()))

	token, err := parser.ParseV4Local(s.symmetricKey, tokenString, nil)
	if err != nil {
		return nil, ErrInvalidToken.WithCause(err)
	}

	var claims AccessClaims
	if err := json.Unmarshal(token.ClaimsJSON(), &claims); err != nil {
		return nil, ErrInvalidToken.WithCause(fmt.Errorf("parse claims: %w", err))
	}
	if claims.Subject == "" {
		return nil, ErrInvalidToken.WithCause(fmt.Errorf("token has no subject"))
	}

	return &Identity{UID: claims.Subject, Email: claims.Email}, nil
}

// Duration returns the configured token lifetime.
func (s *TokenService) Duration() time.Duration {
	return s.duration
}

var _ Verifier = (*TokenService)(nil)
