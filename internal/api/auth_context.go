package api

import (
	"context"
	"errors"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/photogram/photogram-server/internal/auth"
	domainerrors "github.com/photogram/photogram-server/internal/errors"
)

// ctxKey is the type for context keys to avoid collisions.
type ctxKey string

// identityKey is the context key for the verified caller.
const identityKey ctxKey = "identity"

// Authorization failures.
var (
	errNoToken       = domainerrors.Unauthorized("Unauthorized: No token provided")
	errBadAuthHeader = domainerrors.Unauthorized("Unauthorized: Invalid token format")
	errNoIdentity    = domainerrors.Unauthorized("Unauthorized")
)

// identityFrom returns the verified caller, or nil for anonymous requests.
func identityFrom(ctx context.Context) *auth.Identity {
	identity, _ := ctx.Value(identityKey).(*auth.Identity)
	return identity
}

// viewerID returns the caller's uid, or "" for anonymous requests.
func viewerID(ctx context.Context) string {
	if identity := identityFrom(ctx); identity != nil {
		return identity.UID
	}
	return ""
}

// requireIdentity returns the caller or a 401.
func requireIdentity(ctx context.Context) (*auth.Identity, error) {
	identity := identityFrom(ctx)
	if identity == nil || identity.UID == "" {
		return nil, fromDomain(errNoIdentity)
	}
	return identity, nil
}

// bearerToken extracts the token from an Authorization header value.
func bearerToken(header string) (string, error) {
	if header == "" {
		return "", errNoToken
	}
	scheme, token, found := strings.Cut(header, " ")
	if !found || scheme != "Bearer" {
		return "", errBadAuthHeader
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", errBadAuthHeader
	}
	return token, nil
}

// authenticate verifies the request's bearer token.
func (s *Server) authenticate(ctx context.Context, header string) (*auth.Identity, error) {
	token, err := bearerToken(header)
	if err != nil {
		return nil, err
	}
	return s.verifier.Verify(ctx, token)
}

// requireAuth is operation middleware that rejects requests without a valid
// bearer token. It runs before input parsing, so authentication failures win
// over parameter validation.
func (s *Server) requireAuth(ctx huma.Context, next func(huma.Context)) {
	identity, err := s.authenticate(ctx.Context(), ctx.Header("Authorization"))
	if err != nil {
		s.writeAuthError(ctx, err)
		return
	}
	next(huma.WithValue(ctx, identityKey, identity))
}

// optionalAuth attaches the caller when a valid token is present and
// otherwise continues anonymously.
func (s *Server) optionalAuth(ctx huma.Context, next func(huma.Context)) {
	header := ctx.Header("Authorization")
	if header == "" {
		next(ctx)
		return
	}

	identity, err := s.authenticate(ctx.Context(), header)
	if err != nil {
		if !errors.Is(err, domainerrors.ErrUnauthorized) {
			s.logger.Warn("token verification failed, continuing anonymously", "error", err)
		}
		next(ctx)
		return
	}
	next(huma.WithValue(ctx, identityKey, identity))
}

func (s *Server) writeAuthError(ctx huma.Context, err error) {
	var domainErr *domainerrors.Error
	if !errors.As(err, &domainErr) {
		domainErr = domainerrors.Wrap(err, domainerrors.CodeInternal, "Internal server error during authentication")
	}
	if domainErr.Code != domainerrors.CodeUnauthorized {
		s.logger.Error("authentication failed", "error", err)
	}
	_ = huma.WriteErr(s.api, ctx, domainErr.HTTPStatus(), domainErr.Message, domainErr)
}
