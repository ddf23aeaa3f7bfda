package providers

import (
	"github.com/samber/do/v2"

	"github.com/photogram/photogram-server/internal/auth"
	"github.com/photogram/photogram-server/internal/config"
	"github.com/photogram/photogram-server/internal/logger"
)

// AuthKey wraps the authentication key bytes.
type AuthKey []byte

// ProvideAuthKey loads or generates the PASETO key.
func ProvideAuthKey(i do.Injector) (AuthKey, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	key, err := auth.LoadOrGenerateKey(cfg.Auth.TokenKeyPath)
	if err != nil {
		return nil, err
	}

	log.Info("Authentication key loaded",
		"key_path", cfg.Auth.TokenKeyPath,
		"token_duration", cfg.Auth.TokenDuration,
	)

	return AuthKey(key), nil
}

// ProvideTokenService provides the PASETO token service.
func ProvideTokenService(i do.Injector) (*auth.TokenService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	authKey := do.MustInvoke[AuthKey](i)

	return auth.NewTokenService([]byte(authKey), cfg.Auth.TokenDuration)
}

// VerifierHandle wraps the configured token verifier with shutdown capability.
type VerifierHandle struct {
	auth.Verifier
	jwks *auth.JWKSVerifier
}

// Shutdown implements do.Shutdownable.
func (h *VerifierHandle) Shutdown() error {
	if h.jwks != nil {
		return h.jwks.Shutdown()
	}
	return nil
}

// ProvideVerifier selects the verifier named by the auth provider setting.
func ProvideVerifier(i do.Injector) (*VerifierHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if cfg.Auth.Provider == config.AuthProviderJWKS {
		jwks, err := auth.NewJWKSVerifier(auth.JWKSConfig{
			URL:      cfg.Auth.JWKSURL,
			Issuer:   cfg.Auth.Issuer,
			Audience: cfg.Auth.Audience,
		})
		if err != nil {
			return nil, err
		}
		log.Info("Verifying identity tokens against JWKS",
			"jwks_url", cfg.Auth.JWKSURL,
			"issuer", cfg.Auth.Issuer,
			"audience", cfg.Auth.Audience,
		)
		return &VerifierHandle{Verifier: auth.WithTimeout(jwks, cfg.Auth.Timeout), jwks: jwks}, nil
	}

	tokens := do.MustInvoke[*auth.TokenService](i)
	log.Info("Verifying locally issued PASETO tokens")
	return &VerifierHandle{Verifier: auth.WithTimeout(tokens, cfg.Auth.Timeout)}, nil
}
