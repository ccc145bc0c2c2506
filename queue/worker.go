package queue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/l3montree-dev/imagecatalog/database/models"
	"github.com/l3montree-dev/imagecatalog/monitoring"
	"github.com/l3montree-dev/imagecatalog/shared"
	"golang.org/x/sync/errgroup"
)

const postponeDelay = time.Minute

type Handler func(ctx context.Context, entityKey string) error

// WorkerPool claims jobs and runs their handlers with bounded concurrency.
type WorkerPool struct {
	queue         *Queue
	jobRepository shared.JobRepository
	broker        shared.PubSubBroker
	handlers      map[models.JobKind]Handler
	concurrency   int
	pollInterval  time.Duration
}

func NewWorkerPool(queue *Queue, jobRepository shared.JobRepository, broker shared.PubSubBroker, concurrency int) *WorkerPool {
	if concurrency < 1 {
		concurrency = 1
	}
	return &WorkerPool{
		queue:         queue,
		jobRepository: jobRepository,
		broker:        broker,
		handlers:      make(map[models.JobKind]Handler),
		concurrency:   concurrency,
		pollInterval:  5 * time.Second,
	}
}

func (w *WorkerPool) Handle(kind models.JobKind, handler Handler) {
	w.handlers[kind] = handler
}

func (w *WorkerPool) kinds() ([]models.JobKind, time.Duration) {
	kinds := make([]models.JobKind, 0, len(w.handlers))
	var visibility time.Duration
	for kind := range w.handlers {
		kinds = append(kinds, kind)
		visibility = max(visibility, w.queue.TTL(kind))
	}
	return kinds, visibility
}

// Run processes jobs until ctx is done. Running handlers finish before Run returns.
func (w *WorkerPool) Run(ctx context.Context) error {
	var wakeup <-chan map[string]any
	if w.broker != nil {
		ch, err := w.broker.Subscribe(shared.JobsChannel)
		if err != nil {
			slog.Warn("could not subscribe to job notifications, falling back to polling", "err", err)
		} else {
			wakeup = ch
		}
	}

	kinds, visibility := w.kinds()
	g := new(errgroup.Group)
	g.SetLimit(w.concurrency)
	// claim only with a free slot
	slots := make(chan struct{}, w.concurrency)

	for {
		select {
		case <-ctx.Done():
			return g.Wait()
		case slots <- struct{}{}:
		}

		job, ok, err := w.jobRepository.Claim(kinds, time.Now(), visibility)
		if err != nil || !ok {
			<-slots
			if err != nil {
				slog.Error("could not claim job", "err", err)
			}
			select {
			case <-ctx.Done():
				return g.Wait()
			case <-wakeup:
			case <-time.After(w.pollInterval):
			}
			continue
		}

		g.Go(func() error {
			defer func() { <-slots }()
			w.process(ctx, job)
			return nil
		})
	}
}

// RunOnce claims and processes jobs one after the other until the queue is drained.
func (w *WorkerPool) RunOnce(ctx context.Context) (int, error) {
	kinds, visibility := w.kinds()
	processed := 0
	for ctx.Err() == nil {
		job, ok, err := w.jobRepository.Claim(kinds, time.Now(), visibility)
		if err != nil {
			return processed, err
		}
		if !ok {
			return processed, nil
		}
		w.process(ctx, job)
		processed++
	}
	return processed, ctx.Err()
}

func (w *WorkerPool) process(ctx context.Context, job models.Job) {
	defer func() {
		if r := recover(); r != nil {
			monitoring.RecoverAndAlert(fmt.Sprintf("job %s panicked", job.LockKey()), r)
		}
	}()

	held, err := w.queue.Hold(ctx, &job)
	if err != nil || !held {
		if err != nil {
			slog.Error("could not lock job entity", "kind", job.Kind, "entity", job.EntityKey, "err", err)
		} else {
			slog.Debug("entity in flight elsewhere, postponing job", "kind", job.Kind, "entity", job.EntityKey)
		}
		monitoring.JobsProcessed.WithLabelValues(string(job.Kind), "postponed").Inc()
		if err := w.queue.Postpone(job, postponeDelay); err != nil {
			slog.Error("could not postpone job", "kind", job.Kind, "entity", job.EntityKey, "err", err)
		}
		return
	}

	result := "success"
	handler, ok := w.handlers[job.Kind]
	if !ok {
		result = "unknown_kind"
		slog.Warn("no handler for job kind", "kind", job.Kind)
	} else if err := handler(ctx, job.EntityKey); err != nil {
		result = "error"
		slog.Error("job failed", "kind", job.Kind, "entity", job.EntityKey, "attempt", job.Attempts, "err", err)
	}
	monitoring.JobsProcessed.WithLabelValues(string(job.Kind), result).Inc()

	// retries are caller driven, a failed job is dropped as well
	if err := w.queue.Complete(context.WithoutCancel(ctx), job); err != nil {
		slog.Error("could not complete job", "kind", job.Kind, "entity", job.EntityKey, "err", err)
	}
}
