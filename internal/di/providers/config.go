// Package providers contains dependency injection providers for the Photogram server.
package providers

import (
	"github.com/samber/do/v2"

	"github.com/photogram/photogram-server/internal/config"
	"github.com/photogram/photogram-server/internal/logger"
)

// ProvideConfig provides the application configuration.
func ProvideConfig(i do.Injector) (*config.Config, error) {
	return config.LoadConfig()
}

// ProvideLogger provides the structured logger.
func ProvideLogger(i do.Injector) (*logger.Logger, error) {
	cfg := do.MustInvoke[*config.Config](i)

	log := logger.New(logger.Config{
		Level:       logger.ParseLevel(cfg.Logger.Level),
		AddSource:   cfg.App.IsDevelopment(),
		Environment: cfg.App.Environment,
	})

	log.Info("Starting Photogram Server",
		"environment", cfg.App.Environment,
		"log_level", cfg.Logger.Level,
		"db_path", cfg.Database.Path,
		"db_in_memory", cfg.Database.InMemory,
		"auth_provider", cfg.Auth.Provider,
	)

	return log, nil
}
