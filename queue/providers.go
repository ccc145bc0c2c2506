package queue

import (
	"log/slog"

	"github.com/l3montree-dev/imagecatalog/config"
	"github.com/l3montree-dev/imagecatalog/shared"
	"go.uber.org/fx"
)

// NewLocker returns redis backed locks if REDIS_URL is set. Otherwise locks only span this process.
func NewLocker(cfg config.Config) Locker {
	if cfg.RedisURL == "" {
		slog.Info("REDIS_URL not set, using in-process locks")
		return NewMemoryLocker(10_000, max(cfg.BOMLockTTL, cfg.PackageLockTTL, cfg.CatalogLockTTL))
	}
	return NewRedisLocker(NewRedisPool(cfg.RedisURL))
}

func newQueueFromConfig(jobRepository shared.JobRepository, locker Locker, broker shared.PubSubBroker, cfg config.Config) *Queue {
	return NewQueue(jobRepository, locker, broker, cfg.LockTTLs())
}

func newWorkerPoolFromConfig(queue *Queue, jobRepository shared.JobRepository, broker shared.PubSubBroker, cfg config.Config) *WorkerPool {
	return NewWorkerPool(queue, jobRepository, broker, cfg.WorkerConcurrency)
}

var Module = fx.Options(
	fx.Provide(NewLocker),
	fx.Provide(newQueueFromConfig),
	fx.Provide(func(q *Queue) shared.JobQueue { return q }),
	fx.Provide(newWorkerPoolFromConfig),
)
