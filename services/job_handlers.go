package services

import (
	"context"
	"strconv"

	"github.com/l3montree-dev/imagecatalog/database/models"
	"github.com/l3montree-dev/imagecatalog/queue"
	"github.com/l3montree-dev/imagecatalog/shared"
	"github.com/pkg/errors"
)

// CatalogJobKey is the entity key of the single catalog sync job.
const CatalogJobKey = "catalog"

func EntityKey(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

func parseEntityID(key string) (uint, error) {
	id, err := strconv.ParseUint(key, 10, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid entity key %q", key)
	}
	return uint(id), nil
}

// RegisterJobHandlers binds every job kind to the service that processes it.
func RegisterJobHandlers(pool *queue.WorkerPool, bomSync shared.BOMSyncService, packageSync shared.PackageSyncService, catalogSync shared.CatalogSyncService) {
	pool.Handle(models.JobKindBOMSync, func(ctx context.Context, key string) error {
		id, err := parseEntityID(key)
		if err != nil {
			return err
		}
		return bomSync.SyncVersion(ctx, id)
	})
	pool.Handle(models.JobKindPackageSync, func(ctx context.Context, key string) error {
		id, err := parseEntityID(key)
		if err != nil {
			return err
		}
		return packageSync.SyncLatestRelease(ctx, id)
	})
	pool.Handle(models.JobKindCatalogSync, func(ctx context.Context, _ string) error {
		_, err := catalogSync.Sync(ctx)
		return err
	})
}
