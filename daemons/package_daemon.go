package daemons

import (
	"context"
	"log/slog"
	"time"

	"github.com/l3montree-dev/imagecatalog/database/models"
	"github.com/l3montree-dev/imagecatalog/services"
)

// EnqueueStalePackages schedules a metadata sync for packages not synced within STALE_PACKAGE_AGE.
func (runner *DaemonRunner) EnqueueStalePackages(ctx context.Context) (int, error) {
	start := time.Now()
	defer observe("stale_packages", start)

	packages, err := runner.packageRepository.ListStale(runner.now().Add(-runner.cfg.StalePackageAge), runner.cfg.BatchSize)
	if err != nil {
		return 0, err
	}

	enqueued := 0
	for _, pkg := range packages {
		added, err := runner.jobQueue.Enqueue(ctx, models.JobKindPackageSync, services.EntityKey(pkg.ID))
		if err != nil {
			return enqueued, err
		}
		if added {
			enqueued++
		}
	}
	slog.Info("stale packages enqueued", "found", len(packages), "enqueued", enqueued)
	return enqueued, nil
}

func (runner *DaemonRunner) SyncPopularPackages(ctx context.Context) error {
	start := time.Now()
	defer observe("popular_packages", start)
	return runner.packageSyncService.SyncPopular(ctx)
}
