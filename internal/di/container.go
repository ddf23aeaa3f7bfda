// Package di provides dependency injection configuration for the Photogram server.
package di

import (
	"github.com/samber/do/v2"

	"github.com/photogram/photogram-server/internal/api"
	"github.com/photogram/photogram-server/internal/config"
	"github.com/photogram/photogram-server/internal/di/providers"
	"github.com/photogram/photogram-server/internal/logger"
	"github.com/photogram/photogram-server/internal/metrics"
	"github.com/photogram/photogram-server/internal/service"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)
	do.Provide(injector, providers.ProvideSlogLogger)
	do.Provide(injector, providers.ProvideMetrics)

	// Database layer
	do.Provide(injector, providers.ProvideStore)
	do.Provide(injector, providers.ProvideKeyLock)

	// Auth layer
	do.Provide(injector, providers.ProvideAuthKey)
	do.Provide(injector, providers.ProvideTokenService)
	do.Provide(injector, providers.ProvideVerifier)

	// Business services
	do.Provide(injector, providers.ProvideLikeService)
	do.Provide(injector, providers.ProvideCommentService)
	do.Provide(injector, providers.ProvidePhotoService)
	do.Provide(injector, providers.ProvideUserService)
	do.Provide(injector, providers.ProvideMaintenanceService)

	// Workers
	do.Provide(injector, providers.ProvideRateLimiter)

	// Server
	do.Provide(injector, providers.ProvideAPIServer)
	do.Provide(injector, providers.ProvideHTTPServer)

	return injector
}

// Bootstrap initializes all services and starts the HTTP server.
// Maintenance runs before the server accepts traffic.
func Bootstrap(injector *do.RootScope) error {
	// Invoke core services to trigger initialization
	if _, err := do.Invoke[*config.Config](injector); err != nil {
		return err
	}
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[*metrics.Metrics](injector)
	if _, err := do.Invoke[*providers.StoreHandle](injector); err != nil {
		return err
	}
	if _, err := do.Invoke[*providers.VerifierHandle](injector); err != nil {
		return err
	}

	// Business services
	_ = do.MustInvoke[*service.LikeService](injector)
	_ = do.MustInvoke[*service.CommentService](injector)
	_ = do.MustInvoke[*service.PhotoService](injector)
	_ = do.MustInvoke[*service.UserService](injector)
	_ = do.MustInvoke[*service.MaintenanceService](injector)

	providers.RunStartupMaintenance(injector)

	// Workers
	_ = do.MustInvoke[*providers.RateLimiterHandle](injector)

	// Server
	_ = do.MustInvoke[*api.Server](injector)
	if _, err := do.Invoke[*providers.HTTPServerHandle](injector); err != nil {
		return err
	}

	return nil
}
