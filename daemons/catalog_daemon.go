package daemons

import (
	"context"
	"log/slog"
	"time"

	"github.com/l3montree-dev/imagecatalog/database/models"
	"github.com/l3montree-dev/imagecatalog/services"
)

func (runner *DaemonRunner) EnqueueCatalogSync(ctx context.Context) error {
	start := time.Now()
	defer observe("catalog_sync", start)

	added, err := runner.jobQueue.Enqueue(ctx, models.JobKindCatalogSync, services.CatalogJobKey)
	if err != nil {
		return err
	}
	slog.Info("catalog sync requested", "enqueued", added)
	return nil
}
