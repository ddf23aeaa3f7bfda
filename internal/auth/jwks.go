package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jws"
	"github.com/lestrrat-go/jwx/v2/jwt"
	domainerrors "github.com/photogram/photogram-server/internal/errors"
)

// JWKSConfig configures a JWKSVerifier.
type JWKSConfig struct {
	URL      string
	Issuer   string
	Audience string

	// MinRefresh is the shortest interval between key set refreshes.
	// Providers usually send Cache-Control headers that lengthen it.
	MinRefresh time.Duration

	// Skew tolerates clock differences when checking exp/nbf/iat.
	Skew time.Duration

	HTTPClient *http.Client
}

// JWKSVerifier verifies signed JWTs (such as Firebase ID tokens) against a
// remote JSON Web Key Set. The key set is cached and refreshed in the
// background.
type JWKSVerifier struct {
	cache  *jwk.Cache
	cfg    JWKSConfig
	cancel context.CancelFunc
}

// NewJWKSVerifier registers the key set URL with a background-refreshing cache.
// Keys are fetched lazily on first use, so startup does not depend on the
// identity provider being reachable.
func NewJWKSVerifier(cfg JWKSConfig) (*JWKSVerifier, error) {
	if cfg.URL == "" {
		return nil, errors.New("jwks url is required")
	}
	if cfg.MinRefresh <= 0 {
		cfg.MinRefresh = 15 * time.Minute
	}
	if cfg.Skew <= 0 {
		cfg.Skew = 30 * time.Second
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 10 * time.Second}
	}

	ctx, cancel := context.WithCancel(context.Background())
	cache := jwk.NewCache(ctx)
	if err := cache.Register(cfg.URL,
		jwk.WithMinRefreshInterval(cfg.MinRefresh),
		jwk.WithHTTPClient(cfg.HTTPClient),
	); err != nil {
		cancel()
		return nil, fmt.Errorf("register jwks url: %w", err)
	}

	return &JWKSVerifier{cache: cache, cfg: cfg, cancel: cancel}, nil
}

// Verify checks the token signature, issuer, audience, and validity window.
func (v *JWKSVerifier) Verify(ctx context.Context, tokenString string) (*Identity, error) {
	set, err := v.cache.Get(ctx, v.cfg.URL)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, domainerrors.Wrap(err, domainerrors.CodeTimeout, "identity provider timed out")
		}
		return nil, domainerrors.Wrap(err, domainerrors.CodeUnavailable, "identity provider unavailable")
	}

	opts := []jwt.ParseOption{
		jwt.WithKeySet(set, jws.WithInferAlgorithmFromKey(true)),
		jwt.WithValidate(true),
		jwt.WithAcceptableSkew(v.cfg.Skew),
	}
	if v.cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.cfg.Issuer))
	}
	if v.cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(v.cfg.Audience))
	}

	token, err := jwt.ParseString(tokenString, opts...)
	if err != nil {
		return nil, ErrInvalidToken.WithCause(err)
	}
	if token.Subject() == "" {
		return nil, ErrInvalidToken.WithCause(errors.New("token has no subject"))
	}

	identity := &Identity{UID: token.Subject()}
	if email, ok := token.PrivateClaims()["email"].(string); ok {
		identity.Email = email
	}
	return identity, nil
}

// Shutdown stops the background key refresh.
func (v *JWKSVerifier) Shutdown() error {
	v.cancel()
	return nil
}

var _ Verifier = (*JWKSVerifier)(nil)
