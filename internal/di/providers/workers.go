package providers

import (
	"github.com/samber/do/v2"

	"github.com/photogram/photogram-server/internal/config"
	"github.com/photogram/photogram-server/internal/logger"
	"github.com/photogram/photogram-server/internal/ratelimit"
)

// RateLimiterHandle wraps the per-IP limiter and its sweep goroutine.
// Limiter is nil when rate limiting is disabled.
type RateLimiterHandle struct {
	Limiter *ratelimit.KeyedRateLimiter
}

// Shutdown implements do.Shutdownable.
func (h *RateLimiterHandle) Shutdown() error {
	if h.Limiter == nil {
		return nil
	}
	return h.Limiter.Shutdown()
}

// ProvideRateLimiter provides the inbound request limiter.
func ProvideRateLimiter(i do.Injector) (*RateLimiterHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if !cfg.RateLimit.Enabled {
		log.Info("Rate limiting disabled by configuration")
		return &RateLimiterHandle{}, nil
	}

	log.Info("Rate limiting enabled", "rps", cfg.RateLimit.RPS, "burst", cfg.RateLimit.Burst)
	return &RateLimiterHandle{Limiter: ratelimit.New(cfg.RateLimit.RPS, cfg.RateLimit.Burst)}, nil
}
