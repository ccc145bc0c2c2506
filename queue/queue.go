// Copyright (C) 2026 l3montree GmbH
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
// GNU Affero General Public License for more details.
//
// You should have received a copy of the GNU Affero General Public License
// along with this program.  If not, see <https://www.gnu.org/licenses/>.

package queue

import (
	"context"
	"log/slog"
	"time"

	"github.com/l3montree-dev/imagecatalog/database/models"
	"github.com/l3montree-dev/imagecatalog/monitoring"
	"github.com/l3montree-dev/imagecatalog/shared"
	"github.com/pkg/errors"
)

// Queue is a durable at-least-once job queue with single-flight locking per entity.
type Queue struct {
	jobRepository shared.JobRepository
	locker        Locker
	broker        shared.PubSubBroker
	ttls          map[models.JobKind]time.Duration
	now           func() time.Time
}

func NewQueue(jobRepository shared.JobRepository, locker Locker, broker shared.PubSubBroker, ttls map[models.JobKind]time.Duration) *Queue {
	return &Queue{
		jobRepository: jobRepository,
		locker:        locker,
		broker:        broker,
		ttls:          ttls,
		now:           time.Now,
	}
}

func (q *Queue) TTL(kind models.JobKind) time.Duration {
	if ttl, ok := q.ttls[kind]; ok {
		return ttl
	}
	return 10 * time.Minute
}

// Enqueue adds a job unless one for the same entity is in flight. It reports whether a job was added.
func (q *Queue) Enqueue(ctx context.Context, kind models.JobKind, entityKey string) (bool, error) {
	job := models.Job{Kind: kind, EntityKey: entityKey, AvailableAt: q.now()}

	// the lock of a job waiting longer than its ttl expires, the row does not
	exists, err := q.jobRepository.Exists(kind, entityKey)
	if err != nil {
		return false, errors.Wrap(err, "could not look up pending jobs")
	}
	if exists {
		monitoring.JobsDropped.WithLabelValues(string(kind)).Inc()
		slog.Debug("job already queued, dropping", "kind", kind, "entity", entityKey)
		return false, nil
	}

	token, ok, err := q.locker.Acquire(ctx, job.LockKey(), q.TTL(kind))
	if err != nil {
		return false, errors.Wrap(err, "could not acquire single flight lock")
	}
	if !ok {
		monitoring.JobsDropped.WithLabelValues(string(kind)).Inc()
		slog.Debug("job already in flight, dropping", "kind", kind, "entity", entityKey)
		return false, nil
	}

	job.LockToken = token
	if err := q.jobRepository.Create(nil, &job); err != nil {
		if releaseErr := q.locker.Release(ctx, job.LockKey(), token); releaseErr != nil {
			slog.Warn("could not release lock", "key", job.LockKey(), "err", releaseErr)
		}
		return false, errors.Wrap(err, "could not store job")
	}
	monitoring.JobsEnqueued.WithLabelValues(string(kind)).Inc()

	if q.broker != nil {
		msg := shared.NewSimplePubSubMessage(shared.JobsChannel, map[string]any{"kind": string(kind), "jobID": job.ID})
		if err := q.broker.Publish(ctx, msg); err != nil {
			// workers still poll
			slog.Warn("could not notify workers", "err", err)
		}
	}
	return true, nil
}

// Complete removes a processed job and frees its entity.
func (q *Queue) Complete(ctx context.Context, job models.Job) error {
	if err := q.jobRepository.Delete(nil, job.ID); err != nil {
		return errors.Wrap(err, "could not delete job")
	}
	if err := q.locker.Release(ctx, job.LockKey(), job.LockToken); err != nil {
		return errors.Wrap(err, "could not release lock")
	}
	return nil
}

// Hold renews the entity lock of a claimed job for another ttl, re-acquiring it if it expired.
// It reports false if another holder owns the entity.
func (q *Queue) Hold(ctx context.Context, job *models.Job) (bool, error) {
	ttl := q.TTL(job.Kind)
	extended, err := q.locker.Extend(ctx, job.LockKey(), job.LockToken, ttl)
	if err != nil {
		return false, errors.Wrap(err, "could not extend lock")
	}
	if extended {
		return true, nil
	}

	token, ok, err := q.locker.Acquire(ctx, job.LockKey(), ttl)
	if err != nil {
		return false, errors.Wrap(err, "could not acquire lock")
	}
	if !ok {
		return false, nil
	}
	if err := q.jobRepository.SetLockToken(job.ID, token); err != nil {
		if releaseErr := q.locker.Release(ctx, job.LockKey(), token); releaseErr != nil {
			slog.Warn("could not release lock", "key", job.LockKey(), "err", releaseErr)
		}
		return false, errors.Wrap(err, "could not store lock token")
	}
	job.LockToken = token
	return true, nil
}

// Postpone hands a claimed job back to the queue without running it.
func (q *Queue) Postpone(job models.Job, delay time.Duration) error {
	return errors.Wrap(q.jobRepository.Postpone(job.ID, q.now().Add(delay)), "could not postpone job")
}

// RunExclusive runs fn while holding the entity lock of kind. It reports false without running fn
// if the entity is in flight or a job for it is stored.
func (q *Queue) RunExclusive(ctx context.Context, kind models.JobKind, entityKey string, fn func(ctx context.Context) error) (bool, error) {
	// in-process locks do not span other instances, stored jobs do
	exists, err := q.jobRepository.Exists(kind, entityKey)
	if err != nil {
		return false, errors.Wrap(err, "could not look up pending jobs")
	}
	if exists {
		return false, nil
	}

	key := models.Job{Kind: kind, EntityKey: entityKey}.LockKey()
	token, ok, err := q.locker.Acquire(ctx, key, q.TTL(kind))
	if err != nil {
		return false, errors.Wrap(err, "could not acquire single flight lock")
	}
	if !ok {
		return false, nil
	}
	defer func() {
		if err := q.locker.Release(context.WithoutCancel(ctx), key, token); err != nil {
			slog.Warn("could not release lock", "key", key, "err", err)
		}
	}()
	return true, fn(ctx)
}
