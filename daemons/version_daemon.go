package daemons

import (
	"context"
	"log/slog"
	"time"

	"github.com/l3montree-dev/imagecatalog/database/models"
	"github.com/l3montree-dev/imagecatalog/services"
)

func (runner *DaemonRunner) enqueueVersions(ctx context.Context, versions []models.Version) (int, error) {
	enqueued := 0
	for _, v := range versions {
		added, err := runner.jobQueue.Enqueue(ctx, models.JobKindBOMSync, services.EntityKey(v.ID))
		if err != nil {
			return enqueued, err
		}
		if added {
			enqueued++
		}
	}
	return enqueued, nil
}

// EnqueueUnscannedVersions schedules a scan for versions without a bom. Versions which failed recently are left out.
func (runner *DaemonRunner) EnqueueUnscannedVersions(ctx context.Context) (int, error) {
	start := time.Now()
	defer observe("unscanned_versions", start)

	versions, err := runner.versionRepository.ListUnscanned(runner.now().Add(-runner.cfg.StalePackageAge), runner.cfg.BatchSize)
	if err != nil {
		return 0, err
	}
	enqueued, err := runner.enqueueVersions(ctx, versions)
	slog.Info("unscanned versions enqueued", "found", len(versions), "enqueued", enqueued)
	return enqueued, err
}

// EnqueueOutdatedVersions rescans versions whose bom was produced by another scanner version, oldest first.
func (runner *DaemonRunner) EnqueueOutdatedVersions(ctx context.Context) (int, error) {
	start := time.Now()
	defer observe("outdated_versions", start)

	current, err := runner.versionProvider.Version(ctx)
	if err != nil {
		return 0, err
	}

	versions, err := runner.versionRepository.ListOutdated(current, runner.now().Add(-runner.cfg.StalePackageAge), runner.cfg.BatchSize)
	if err != nil {
		return 0, err
	}
	enqueued, err := runner.enqueueVersions(ctx, versions)
	slog.Info("outdated versions enqueued", "scanner", current, "found", len(versions), "enqueued", enqueued)
	return enqueued, err
}
