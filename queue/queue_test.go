package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/l3montree-dev/imagecatalog/database"
	"github.com/l3montree-dev/imagecatalog/database/models"
	"github.com/l3montree-dev/imagecatalog/database/repositories"
	"github.com/l3montree-dev/imagecatalog/integrationtestutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testTTLs = map[models.JobKind]time.Duration{
	models.JobKindBOMSync:     20 * time.Minute,
	models.JobKindPackageSync: 10 * time.Minute,
}

func newTestQueue(t *testing.T) (*Queue, *database.InMemoryBroker) {
	t.Helper()
	db := integrationtestutil.InitSQLiteDatabase(t)
	broker := database.NewInMemoryBroker()
	return NewQueue(repositories.NewJobRepository(db), NewMemoryLocker(1000, time.Hour), broker, testTTLs), broker
}

func TestQueueEnqueue(t *testing.T) {
	t.Run("should drop a job for an entity already in flight", func(t *testing.T) {
		q, _ := newTestQueue(t)
		ctx := context.Background()

		added, err := q.Enqueue(ctx, models.JobKindBOMSync, "1")
		require.NoError(t, err)
		assert.True(t, added)

		added, err = q.Enqueue(ctx, models.JobKindBOMSync, "1")
		require.NoError(t, err)
		assert.False(t, added)

		// other entities and other kinds are independent
		added, err = q.Enqueue(ctx, models.JobKindBOMSync, "2")
		require.NoError(t, err)
		assert.True(t, added)
		added, err = q.Enqueue(ctx, models.JobKindPackageSync, "1")
		require.NoError(t, err)
		assert.True(t, added)

		pending, err := q.jobRepository.CountPending(models.JobKindBOMSync)
		require.NoError(t, err)
		assert.EqualValues(t, 2, pending)
	})

	t.Run("should accept the entity again after the job completed", func(t *testing.T) {
		q, _ := newTestQueue(t)
		ctx := context.Background()

		_, err := q.Enqueue(ctx, models.JobKindBOMSync, "1")
		require.NoError(t, err)
		job, ok, err := q.jobRepository.Claim([]models.JobKind{models.JobKindBOMSync}, time.Now(), time.Minute)
		require.NoError(t, err)
		require.True(t, ok)
		require.NoError(t, q.Complete(ctx, job))

		added, err := q.Enqueue(ctx, models.JobKindBOMSync, "1")
		require.NoError(t, err)
		assert.True(t, added)
	})

	t.Run("should notify workers", func(t *testing.T) {
		q, broker := newTestQueue(t)
		ch, err := broker.Subscribe("imagecatalog_jobs")
		require.NoError(t, err)

		_, err = q.Enqueue(context.Background(), models.JobKindPackageSync, "7")
		require.NoError(t, err)

		select {
		case msg := <-ch:
			assert.Equal(t, "package_sync", msg["kind"])
		case <-time.After(time.Second):
			t.Fatal("expected a notification")
		}
	})
}

func TestQueueSingleFlightAfterLockExpiry(t *testing.T) {
	ctx := context.Background()
	bomSync := []models.JobKind{models.JobKindBOMSync}

	setup := func(t *testing.T) (*Queue, *MemoryLocker, *time.Time) {
		q, _ := newTestQueue(t)
		locker := q.locker.(*MemoryLocker)
		now := time.Now()
		locker.now = func() time.Time { return now }
		return q, locker, &now
	}

	t.Run("should not enqueue a second job while the first one waits", func(t *testing.T) {
		q, _, now := setup(t)

		added, err := q.Enqueue(ctx, models.JobKindBOMSync, "7")
		require.NoError(t, err)
		require.True(t, added)

		*now = now.Add(21 * time.Minute)
		added, err = q.Enqueue(ctx, models.JobKindBOMSync, "7")
		require.NoError(t, err)
		assert.False(t, added)

		pending, err := q.jobRepository.CountPending(models.JobKindBOMSync)
		require.NoError(t, err)
		assert.EqualValues(t, 1, pending)
	})

	t.Run("a worker should re-acquire an expired lock before running", func(t *testing.T) {
		q, locker, now := setup(t)
		pool := NewWorkerPool(q, q.jobRepository, nil, 1)

		_, err := q.Enqueue(ctx, models.JobKindBOMSync, "7")
		require.NoError(t, err)
		*now = now.Add(21 * time.Minute)

		lockedWhileRunning := false
		pool.Handle(models.JobKindBOMSync, func(ctx context.Context, entityKey string) error {
			_, ok, err := locker.Acquire(ctx, "bom_sync:7", time.Minute)
			lockedWhileRunning = err == nil && !ok
			return nil
		})

		processed, err := pool.RunOnce(ctx)
		require.NoError(t, err)
		assert.Equal(t, 1, processed)
		assert.True(t, lockedWhileRunning)

		_, ok, err := locker.Acquire(ctx, "bom_sync:7", time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("a worker should postpone a job whose entity is held elsewhere", func(t *testing.T) {
		q, locker, now := setup(t)
		pool := NewWorkerPool(q, q.jobRepository, nil, 1)

		_, err := q.Enqueue(ctx, models.JobKindBOMSync, "7")
		require.NoError(t, err)
		*now = now.Add(21 * time.Minute)
		token, ok, err := locker.Acquire(ctx, "bom_sync:7", 20*time.Minute)
		require.NoError(t, err)
		require.True(t, ok)

		ran := false
		pool.Handle(models.JobKindBOMSync, func(context.Context, string) error {
			ran = true
			return nil
		})

		_, err = pool.RunOnce(ctx)
		require.NoError(t, err)
		assert.False(t, ran)

		pending, err := q.jobRepository.CountPending(models.JobKindBOMSync)
		require.NoError(t, err)
		assert.EqualValues(t, 1, pending)
		_, ok, err = q.jobRepository.Claim(bomSync, time.Now(), time.Minute)
		require.NoError(t, err)
		assert.False(t, ok, "a postponed job is not available right away")

		require.NoError(t, locker.Release(ctx, "bom_sync:7", token))
		job, ok, err := q.jobRepository.Claim(bomSync, time.Now().Add(2*time.Minute), time.Minute)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "7", job.EntityKey)
		assert.Equal(t, 1, job.Attempts)
	})
}

func TestQueueRunExclusive(t *testing.T) {
	ctx := context.Background()

	t.Run("should refuse an entity with a queued job", func(t *testing.T) {
		q, _ := newTestQueue(t)
		_, err := q.Enqueue(ctx, models.JobKindBOMSync, "7")
		require.NoError(t, err)

		ran, err := q.RunExclusive(ctx, models.JobKindBOMSync, "7", func(context.Context) error {
			t.Fatal("must not run")
			return nil
		})
		require.NoError(t, err)
		assert.False(t, ran)
	})

	t.Run("should refuse an entity locked by another process", func(t *testing.T) {
		q, _ := newTestQueue(t)
		_, ok, err := q.locker.Acquire(ctx, "bom_sync:7", time.Minute)
		require.NoError(t, err)
		require.True(t, ok)

		ran, err := q.RunExclusive(ctx, models.JobKindBOMSync, "7", func(context.Context) error { return nil })
		require.NoError(t, err)
		assert.False(t, ran)
	})

	t.Run("should hold the lock while running and free it afterwards", func(t *testing.T) {
		q, _ := newTestQueue(t)

		ran, err := q.RunExclusive(ctx, models.JobKindBOMSync, "7", func(ctx context.Context) error {
			added, err := q.Enqueue(ctx, models.JobKindBOMSync, "7")
			require.NoError(t, err)
			assert.False(t, added)
			return errors.New("scan failed")
		})
		assert.True(t, ran)
		assert.EqualError(t, err, "scan failed")

		added, err := q.Enqueue(ctx, models.JobKindBOMSync, "7")
		require.NoError(t, err)
		assert.True(t, added)
	})
}

func TestMemoryLocker(t *testing.T) {
	t.Run("should free the lock after its ttl", func(t *testing.T) {
		locker := NewMemoryLocker(10, time.Hour)
		now := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
		locker.now = func() time.Time { return now }
		ctx := context.Background()

		_, ok, err := locker.Acquire(ctx, "bom_sync:1", 20*time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)

		now = now.Add(19 * time.Minute)
		_, ok, _ = locker.Acquire(ctx, "bom_sync:1", 20*time.Minute)
		assert.False(t, ok)

		now = now.Add(2 * time.Minute)
		_, ok, _ = locker.Acquire(ctx, "bom_sync:1", 20*time.Minute)
		assert.True(t, ok)
	})

	t.Run("should only extend a lock held with the token", func(t *testing.T) {
		locker := NewMemoryLocker(10, time.Hour)
		now := time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC)
		locker.now = func() time.Time { return now }
		ctx := context.Background()

		token, ok, _ := locker.Acquire(ctx, "k", time.Minute)
		require.True(t, ok)

		ok, err := locker.Extend(ctx, "k", "not-the-token", time.Hour)
		require.NoError(t, err)
		assert.False(t, ok)

		ok, err = locker.Extend(ctx, "k", token, 10*time.Minute)
		require.NoError(t, err)
		assert.True(t, ok)

		now = now.Add(5 * time.Minute)
		_, ok, _ = locker.Acquire(ctx, "k", time.Minute)
		assert.False(t, ok)

		now = now.Add(6 * time.Minute)
		ok, err = locker.Extend(ctx, "k", token, time.Minute)
		require.NoError(t, err)
		assert.False(t, ok, "an expired lock cannot be extended")
	})

	t.Run("should ignore a release with a stale token", func(t *testing.T) {
		locker := NewMemoryLocker(10, time.Hour)
		ctx := context.Background()

		_, ok, _ := locker.Acquire(ctx, "k", time.Minute)
		require.True(t, ok)
		require.NoError(t, locker.Release(ctx, "k", "not-the-token"))

		_, ok, _ = locker.Acquire(ctx, "k", time.Minute)
		assert.False(t, ok)
	})
}

func TestWorkerPool(t *testing.T) {
	t.Run("RunOnce should process and remove every job", func(t *testing.T) {
		q, broker := newTestQueue(t)
		ctx := context.Background()
		pool := NewWorkerPool(q, q.jobRepository, broker, 2)

		var handled []string
		pool.Handle(models.JobKindBOMSync, func(ctx context.Context, entityKey string) error {
			handled = append(handled, entityKey)
			if entityKey == "2" {
				return errors.New("scan failed")
			}
			return nil
		})

		for _, key := range []string{"1", "2", "3"} {
			_, err := q.Enqueue(ctx, models.JobKindBOMSync, key)
			require.NoError(t, err)
		}

		processed, err := pool.RunOnce(ctx)
		require.NoError(t, err)
		assert.Equal(t, 3, processed)
		assert.Equal(t, []string{"1", "2", "3"}, handled)

		pending, err := q.jobRepository.CountPending(models.JobKindBOMSync)
		require.NoError(t, err)
		assert.Zero(t, pending)

		// failed jobs release their lock as well
		added, err := q.Enqueue(ctx, models.JobKindBOMSync, "2")
		require.NoError(t, err)
		assert.True(t, added)
	})

	t.Run("RunOnce should leave jobs of unhandled kinds alone", func(t *testing.T) {
		q, broker := newTestQueue(t)
		ctx := context.Background()
		pool := NewWorkerPool(q, q.jobRepository, broker, 1)
		pool.Handle(models.JobKindBOMSync, func(context.Context, string) error { return nil })

		_, err := q.Enqueue(ctx, models.JobKindPackageSync, "1")
		require.NoError(t, err)

		processed, err := pool.RunOnce(ctx)
		require.NoError(t, err)
		assert.Zero(t, processed)
	})

	t.Run("Run should pick up jobs until the context is cancelled", func(t *testing.T) {
		q, broker := newTestQueue(t)
		pool := NewWorkerPool(q, q.jobRepository, broker, 2)
		pool.pollInterval = 20 * time.Millisecond

		var mu sync.Mutex
		handled := map[string]bool{}
		pool.Handle(models.JobKindPackageSync, func(ctx context.Context, entityKey string) error {
			mu.Lock()
			defer mu.Unlock()
			handled[entityKey] = true
			return nil
		})

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error)
		go func() { done <- pool.Run(ctx) }()

		for _, key := range []string{"a", "b", "c"} {
			_, err := q.Enqueue(context.Background(), models.JobKindPackageSync, key)
			require.NoError(t, err)
		}

		assert.Eventually(t, func() bool {
			mu.Lock()
			defer mu.Unlock()
			return len(handled) == 3
		}, 5*time.Second, 10*time.Millisecond)

		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Fatal("Run did not return after cancel")
		}
	})
}
