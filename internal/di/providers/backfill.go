package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/photogram/photogram-server/internal/config"
	"github.com/photogram/photogram-server/internal/logger"
	"github.com/photogram/photogram-server/internal/service"
)

// RunStartupMaintenance builds the like indexes on first start and, when
// configured, reconciles owner like counters. Failures are logged; the
// server keeps running on scan fallbacks.
func RunStartupMaintenance(i do.Injector) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)
	maintenance := do.MustInvoke[*service.MaintenanceService](i)

	ctx := context.Background()

	backfill, err := maintenance.BackfillLikeIndexes(ctx)
	if err != nil {
		log.Error("Failed to backfill like indexes", "error", err)
	} else if !backfill.Skipped {
		log.Info("Like indexes backfilled",
			"indexed", backfill.Indexed,
			"duplicates_removed", backfill.DuplicatesRemoved,
		)
	}

	if !cfg.Maintenance.ReconcileOnStart {
		return
	}
	reconcile, err := maintenance.ReconcileLikeCounters(ctx)
	if err != nil {
		log.Error("Failed to reconcile like counters", "error", err)
		return
	}
	log.Info("Like counters reconciled", "users", reconcile.Users, "fixed", reconcile.Fixed)
}
