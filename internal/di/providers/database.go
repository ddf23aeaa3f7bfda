package providers

import (
	"log/slog"

	"github.com/samber/do/v2"

	"github.com/photogram/photogram-server/internal/config"
	"github.com/photogram/photogram-server/internal/logger"
	"github.com/photogram/photogram-server/internal/metrics"
	"github.com/photogram/photogram-server/internal/store"
)

// StoreHandle wraps the store with shutdown capability.
type StoreHandle struct {
	*store.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore provides the database store.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	m := do.MustInvoke[*metrics.Metrics](i)

	db, err := store.New(cfg.Database.Path, log.Logger, store.Options{
		InMemory: cfg.Database.InMemory,
		Timeout:  cfg.Database.Timeout,
		Observer: m.ObserveStore,
	})
	if err != nil {
		return nil, err
	}

	log.Info("Database initialized",
		"path", cfg.Database.Path,
		"in_memory", cfg.Database.InMemory,
		"timeout", cfg.Database.Timeout,
	)

	return &StoreHandle{Store: db}, nil
}

// ProvideSlogLogger provides access to the underlying slog.Logger for packages that need it.
func ProvideSlogLogger(i do.Injector) (*slog.Logger, error) {
	log := do.MustInvoke[*logger.Logger](i)
	return log.Logger, nil
}

// ProvideMetrics provides the Prometheus collectors.
func ProvideMetrics(i do.Injector) (*metrics.Metrics, error) {
	return metrics.New(), nil
}
