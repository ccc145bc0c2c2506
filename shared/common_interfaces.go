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

package shared

import (
	"context"
	"time"

	"github.com/l3montree-dev/imagecatalog/database/models"
	"github.com/l3montree-dev/imagecatalog/dtos"
	"github.com/l3montree-dev/imagecatalog/normalize"
)

type LeaderElector interface {
	IsLeader() bool
}

type ConfigRepository interface {
	Save(tx DB, config *models.Config) error
	GetDB(tx DB) DB
}

type ConfigService interface {
	// retrieves the value for the given key and marshals it into v
	GetJSONConfig(key string, v any) error
	SetJSONConfig(key string, v any) error
	RemoveConfig(key string) error
}

type PackageRepository interface {
	GetDB(tx DB) DB
	Transaction(fn func(tx DB) error) error
	Read(id uint) (models.Package, error)
	Save(tx DB, p *models.Package) error
	FindByName(tx DB, name string) (models.Package, error)
	FindOrCreateByName(tx DB, name string) (models.Package, error)
	ListPaged(pageInfo PageInfo, search string, sort SortQuery) (Paged[models.Package], error)
	// ListStale returns packages never synced or synced before olderThan, oldest first.
	ListStale(olderThan time.Time, limit int) ([]models.Package, error)
	UpdateMetadata(tx DB, p *models.Package) error
	MarkScanned(tx DB, packageID uint, dependenciesCount int, at time.Time) error
	Touch(tx DB, packageID uint, at time.Time) error
	RefreshVersionsCount(tx DB, packageID uint) error
}

type VersionRepository interface {
	GetDB(tx DB) DB
	Read(id uint) (models.Version, error)
	Save(tx DB, v *models.Version) error
	FindByNumber(tx DB, packageID uint, number string) (models.Version, error)
	FindOrCreateByNumber(tx DB, packageID uint, number string) (models.Version, error)
	ListByPackage(packageID uint, pageInfo PageInfo) (Paged[models.Version], error)
	ListLatestByPackage(tx DB, packageID uint) (models.Version, error)
	SetPublishedAt(tx DB, versionID uint, publishedAt *time.Time) error
	RecordSyncFailure(versionID uint, syncErr string, at time.Time) error
	ApplyScanSummary(tx DB, versionID uint, distroName, syftVersion *string, artifactsCount int, at time.Time) error
	// ListOutdated returns scanned versions whose scanner version differs from current, oldest synced first.
	ListOutdated(currentScannerVersion string, olderThan time.Time, limit int) ([]models.Version, error)
	ListUnscanned(olderThan time.Time, limit int) ([]models.Version, error)
	CountByDistroName() ([]dtos.DistroNameCount, error)
	SampleScanResult(distroName string) (models.ScanResult, error)
}

type ScanResultRepository interface {
	Upsert(tx DB, s *models.ScanResult) error
	FindByVersionID(tx DB, versionID uint) (models.ScanResult, error)
}

type DependencyRepository interface {
	ReplaceForVersion(tx DB, versionID uint, deps []models.Dependency) error
	ListByVersion(tx DB, versionID uint) ([]models.Dependency, error)
	ListByPackageName(ecosystem, packageName string, pageInfo PageInfo) (Paged[models.Dependency], error)
	Usage(ecosystem, packageName string) (dtos.DependencyUsage, error)
}

type DistroRepository interface {
	GetDB(tx DB) DB
	Transaction(fn func(tx DB) error) error
	Save(tx DB, d *models.Distro) error
	FindBySlug(tx DB, slug string) (models.Distro, error)
	FindByPrettyName(tx DB, prettyName string) (models.Distro, error)
	// FindByIdentity matches id and version_id. A nil variantID requires variant_id to be NULL.
	FindByIdentity(tx DB, id, versionID string, variantID *string) (models.Distro, error)
	ListSlugs(tx DB) ([]string, error)
	DeleteBySlugs(tx DB, slugs []string) (int64, error)
	All() ([]models.Distro, error)
	ListPaged(pageInfo PageInfo, search string, sort SortQuery) (Paged[models.Distro], error)
	ListByIDFields(ids []string, excludeID uint) ([]models.Distro, error)
	RefreshCounters(tx DB, d *models.Distro) error
}

type JobRepository interface {
	Create(tx DB, job *models.Job) error
	// Claim locks the next available job of the given kinds until now+visibility.
	Claim(kinds []models.JobKind, now time.Time, visibility time.Duration) (models.Job, bool, error)
	Delete(tx DB, id uint) error
	CountPending(kind models.JobKind) (int64, error)
	// Exists reports whether a pending or running job for the entity is stored.
	Exists(kind models.JobKind, entityKey string) (bool, error)
	SetLockToken(id uint, token string) error
	// Postpone hides the job until availableAt without counting an attempt.
	Postpone(id uint, availableAt time.Time) error
}

type JobQueue interface {
	// Enqueue returns false if a job for the same entity is already in flight.
	Enqueue(ctx context.Context, kind models.JobKind, entityKey string) (bool, error)
}

type BOMSyncService interface {
	SyncVersion(ctx context.Context, versionID uint) error
}

type CatalogSyncService interface {
	Sync(ctx context.Context) (dtos.CatalogSyncReport, error)
}

type PackageSyncService interface {
	SyncLatestRelease(ctx context.Context, packageID uint) error
	SyncPopular(ctx context.Context) error
}

type DistroMatcher interface {
	Match(tx DB, distroName string, scanned *normalize.ScannedDistro) (models.Distro, bool, error)
	MatchVersion(tx DB, v models.Version) (models.Distro, bool, error)
	MissingFromCatalog() ([]dtos.MissingDistro, error)
}

type DistroService interface {
	Detail(slug string) (dtos.DistroDetail, error)
	Groups() ([]dtos.DistroGroup, error)
}

type ScannerVersionProvider interface {
	// Version returns the installed scanner version. It is resolved once per process.
	Version(ctx context.Context) (string, error)
}
