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

package services

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/l3montree-dev/imagecatalog/database"
	"github.com/l3montree-dev/imagecatalog/database/models"
	"github.com/l3montree-dev/imagecatalog/dtos"
	"github.com/l3montree-dev/imagecatalog/monitoring"
	"github.com/l3montree-dev/imagecatalog/normalize"
	"github.com/l3montree-dev/imagecatalog/queue"
	"github.com/l3montree-dev/imagecatalog/shared"
	"github.com/pkg/errors"
)

var ErrEmptyCatalog = errors.New("catalog source contains no valid descriptor")

type entryOutcome int

const (
	entryCreated entryOutcome = iota
	entryUpdated
	entryUnchanged
)

type CatalogSyncService struct {
	distroRepository shared.DistroRepository
	source           CatalogSource
	locker           queue.Locker
	lockTTL          time.Duration
	lockAttempts     uint
}

func NewCatalogSyncService(distroRepository shared.DistroRepository, source CatalogSource, locker queue.Locker) *CatalogSyncService {
	return &CatalogSyncService{
		distroRepository: distroRepository,
		source:           source,
		locker:           locker,
		lockTTL:          time.Minute,
		lockAttempts:     10,
	}
}

// Sync mirrors the descriptor tree into the catalog. Entries whose slug is no longer in the tree are deleted.
func (s *CatalogSyncService) Sync(ctx context.Context) (dtos.CatalogSyncReport, error) {
	start := time.Now()
	report := dtos.CatalogSyncReport{Errors: []dtos.CatalogEntryError{}}

	tree, cleanup, err := s.source.Open(ctx)
	if err != nil {
		return report, errors.Wrap(err, "could not open catalog source")
	}
	defer cleanup()

	// every derivable slug protects its entry from pruning, even if the file is currently unparsable
	present := make(map[string]struct{})
	valid := make(map[string]string)

	err = fs.WalkDir(tree, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if strings.HasPrefix(d.Name(), ".") && path != "." {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}

		report.Seen++
		identity, err := normalize.IdentityFromPath(path)
		if err != nil {
			report.Skipped++
			return nil
		}
		present[identity.Slug] = struct{}{}

		content, err := fs.ReadFile(tree, path)
		if err != nil {
			return errors.Wrapf(err, "could not read %s", path)
		}
		release := normalize.ParseOSRelease(string(content))
		if !normalize.LooksLikeOSRelease(string(content)) || !release.Valid() {
			slog.Debug("skipping file without descriptor", "path", path)
			report.Skipped++
			return nil
		}

		if other, ok := valid[identity.Slug]; ok {
			err := shared.WithCause(shared.ErrDuplicateSlug, fmt.Errorf("slug %s is already used by %s", identity.Slug, other))
			report.Errors = append(report.Errors, dtos.CatalogEntryError{Path: path, Slug: identity.Slug, Error: err.Error()})
			return nil
		}
		valid[identity.Slug] = path

		outcome, err := s.upsertEntry(ctx, identity, release, string(content))
		if err != nil {
			slog.Warn("could not store catalog entry", "path", path, "slug", identity.Slug, "err", err)
			report.Errors = append(report.Errors, dtos.CatalogEntryError{Path: path, Slug: identity.Slug, Error: err.Error()})
			return nil
		}
		switch outcome {
		case entryCreated:
			report.Created++
		case entryUpdated:
			report.Updated++
		default:
			report.Unchanged++
		}
		return nil
	})
	if err != nil {
		return report, errors.Wrap(err, "could not walk catalog source")
	}

	if len(valid) == 0 {
		return report, ErrEmptyCatalog
	}

	if report.Pruned, err = s.prune(present); err != nil {
		return report, err
	}
	if err := s.refreshCounters(); err != nil {
		return report, err
	}

	monitoring.CatalogSyncDuration.Observe(time.Since(start).Minutes())
	slog.Info("catalog synced", "seen", report.Seen, "created", report.Created, "updated", report.Updated, "unchanged", report.Unchanged, "skipped", report.Skipped, "pruned", report.Pruned, "errors", len(report.Errors))
	return report, nil
}

func (s *CatalogSyncService) upsertEntry(ctx context.Context, identity normalize.PathIdentity, release normalize.OSRelease, content string) (entryOutcome, error) {
	lockKey := "distro:" + identity.Slug
	token, err := retry.DoWithData(func() (string, error) {
		token, ok, err := s.locker.Acquire(ctx, lockKey, s.lockTTL)
		if err != nil {
			return "", retry.Unrecoverable(err)
		}
		if !ok {
			return "", fmt.Errorf("catalog entry %s is locked", identity.Slug)
		}
		return token, nil
	}, retry.Context(ctx), retry.Attempts(s.lockAttempts), retry.Delay(100*time.Millisecond), retry.LastErrorOnly(true))
	if err != nil {
		return entryUnchanged, err
	}
	defer func() {
		if err := s.locker.Release(context.WithoutCancel(ctx), lockKey, token); err != nil {
			slog.Warn("could not release catalog entry lock", "slug", identity.Slug, "err", err)
		}
	}()

	outcome := entryUpdated
	err = s.distroRepository.Transaction(func(tx shared.DB) error {
		distro, err := s.distroRepository.FindBySlug(tx, identity.Slug)
		switch {
		case errors.Is(err, shared.ErrNotFound):
			distro = models.Distro{Slug: identity.Slug}
			outcome = entryCreated
		case err != nil:
			return err
		}

		if !distro.Assign(release, content, identity.Discontinued) && outcome != entryCreated {
			outcome = entryUnchanged
			return nil
		}
		return s.distroRepository.Save(tx, &distro)
	})
	if database.IsDuplicateKeyError(err) {
		return entryUnchanged, shared.WithCause(shared.ErrDuplicateSlug, err)
	}
	if err != nil {
		return entryUnchanged, shared.WithCause(shared.ErrPersistence, err)
	}
	return outcome, nil
}

func (s *CatalogSyncService) prune(present map[string]struct{}) (int64, error) {
	slugs, err := s.distroRepository.ListSlugs(nil)
	if err != nil {
		return 0, errors.Wrap(err, "could not list catalog slugs")
	}
	orphaned := make([]string, 0)
	for _, slug := range slugs {
		if _, ok := present[slug]; !ok {
			orphaned = append(orphaned, slug)
		}
	}
	if len(orphaned) == 0 {
		return 0, nil
	}

	deleted, err := s.distroRepository.DeleteBySlugs(nil, orphaned)
	if err != nil {
		return deleted, errors.Wrap(err, "could not prune catalog")
	}
	monitoring.CatalogEntriesPruned.Add(float64(deleted))
	slog.Info("pruned catalog entries", "count", deleted)
	return deleted, nil
}

func (s *CatalogSyncService) refreshCounters() error {
	distros, err := s.distroRepository.All()
	if err != nil {
		return errors.Wrap(err, "could not load catalog")
	}
	for i := range distros {
		if err := s.distroRepository.RefreshCounters(nil, &distros[i]); err != nil {
			return errors.Wrapf(err, "could not refresh counters of %s", distros[i].Slug)
		}
	}
	return nil
}
