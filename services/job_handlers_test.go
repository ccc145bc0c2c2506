package services

import (
	"context"
	"testing"
	"time"

	"github.com/l3montree-dev/imagecatalog/database"
	"github.com/l3montree-dev/imagecatalog/database/models"
	"github.com/l3montree-dev/imagecatalog/database/repositories"
	"github.com/l3montree-dev/imagecatalog/dtos"
	"github.com/l3montree-dev/imagecatalog/integrationtestutil"
	"github.com/l3montree-dev/imagecatalog/queue"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type handlerCalls struct {
	versions []uint
	packages []uint
	catalogs int
	err      error
}

func (h *handlerCalls) SyncVersion(_ context.Context, versionID uint) error {
	h.versions = append(h.versions, versionID)
	return h.err
}

func (h *handlerCalls) SyncLatestRelease(_ context.Context, packageID uint) error {
	h.packages = append(h.packages, packageID)
	return h.err
}

func (h *handlerCalls) SyncPopular(context.Context) error {
	return nil
}

func (h *handlerCalls) Sync(context.Context) (dtos.CatalogSyncReport, error) {
	h.catalogs++
	return dtos.CatalogSyncReport{}, h.err
}

func newHandlerPool(t *testing.T, calls *handlerCalls) (*queue.Queue, *queue.WorkerPool) {
	db := integrationtestutil.InitSQLiteDatabase(t)
	jobRepository := repositories.NewJobRepository(db)
	broker := database.NewInMemoryBroker()
	q := queue.NewQueue(jobRepository, queue.NewMemoryLocker(100, time.Hour), broker, map[models.JobKind]time.Duration{})
	pool := queue.NewWorkerPool(q, jobRepository, broker, 1)
	RegisterJobHandlers(pool, calls, calls, calls)
	return q, pool
}

func TestEntityKey(t *testing.T) {
	t.Run("should round trip an id", func(t *testing.T) {
		id, err := parseEntityID(EntityKey(42))
		require.NoError(t, err)
		assert.Equal(t, uint(42), id)
	})

	t.Run("should reject a key which is not a number", func(t *testing.T) {
		_, err := parseEntityID("library/alpine")
		assert.ErrorContains(t, err, `invalid entity key "library/alpine"`)
	})
}

func TestRegisterJobHandlers(t *testing.T) {
	ctx := context.Background()

	t.Run("should dispatch every job kind to its service", func(t *testing.T) {
		calls := &handlerCalls{}
		q, pool := newHandlerPool(t, calls)

		for kind, key := range map[models.JobKind]string{
			models.JobKindBOMSync:     EntityKey(7),
			models.JobKindPackageSync: EntityKey(3),
			models.JobKindCatalogSync: CatalogJobKey,
		} {
			added, err := q.Enqueue(ctx, kind, key)
			require.NoError(t, err)
			require.True(t, added)
		}

		processed, err := pool.RunOnce(ctx)
		require.NoError(t, err)
		assert.Equal(t, 3, processed)
		assert.Equal(t, []uint{7}, calls.versions)
		assert.Equal(t, []uint{3}, calls.packages)
		assert.Equal(t, 1, calls.catalogs)
	})

	t.Run("should drop a job with a malformed entity key", func(t *testing.T) {
		calls := &handlerCalls{}
		q, pool := newHandlerPool(t, calls)

		_, err := q.Enqueue(ctx, models.JobKindBOMSync, "not-a-number")
		require.NoError(t, err)

		processed, err := pool.RunOnce(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, processed)
		assert.Empty(t, calls.versions)
	})

	t.Run("a failing service should not stop the pool", func(t *testing.T) {
		calls := &handlerCalls{err: errors.New("registry unavailable")}
		q, pool := newHandlerPool(t, calls)

		_, err := q.Enqueue(ctx, models.JobKindBOMSync, EntityKey(1))
		require.NoError(t, err)
		_, err = q.Enqueue(ctx, models.JobKindBOMSync, EntityKey(2))
		require.NoError(t, err)

		processed, err := pool.RunOnce(ctx)
		require.NoError(t, err)
		assert.Equal(t, 2, processed)
		assert.ElementsMatch(t, []uint{1, 2}, calls.versions)
	})
}
