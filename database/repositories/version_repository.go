// Copyright (C) 2023 Tim Bastin, l3montree GmbH
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
// along with this program.  If not, see <http://www.gnu.org/licenses/>.

package repositories

import (
	"errors"
	"time"

	"github.com/l3montree-dev/imagecatalog/database/models"
	"github.com/l3montree-dev/imagecatalog/dtos"
	"github.com/l3montree-dev/imagecatalog/shared"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type versionRepository struct {
	db shared.DB
	*GormRepository[uint, models.Version]
}

func NewVersionRepository(db shared.DB) *versionRepository {
	return &versionRepository{
		db:             db,
		GormRepository: newGormRepository[uint, models.Version](db),
	}
}

// FindByNumber compares version numbers case insensitive.
func (r *versionRepository) FindByNumber(tx shared.DB, packageID uint, number string) (models.Version, error) {
	var v models.Version
	err := r.GetDB(tx).Where("package_id = ? AND LOWER(number) = LOWER(?)", packageID, number).First(&v).Error
	return v, notFound(err)
}

func (r *versionRepository) FindOrCreateByNumber(tx shared.DB, packageID uint, number string) (models.Version, error) {
	v, err := r.FindByNumber(tx, packageID, number)
	if err == nil || !errors.Is(err, shared.ErrNotFound) {
		return v, err
	}

	// a failed insert would abort a surrounding postgres transaction, a skipped one does not
	v = models.Version{PackageID: packageID, Number: number}
	res := r.GetDB(tx).Clauses(clause.OnConflict{DoNothing: true}).Create(&v)
	if res.Error != nil {
		return v, res.Error
	}
	if res.RowsAffected == 0 {
		// created concurrently
		return r.FindByNumber(tx, packageID, number)
	}
	return v, nil
}

func (r *versionRepository) ListByPackage(packageID uint, pageInfo shared.PageInfo) (shared.Paged[models.Version], error) {
	var versions []models.Version
	q := r.db.Model(&models.Version{}).Where("package_id = ?", packageID)

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return shared.Paged[models.Version]{}, err
	}
	err := pageInfo.ApplyOnDB(q.Order("published_at DESC NULLS LAST").Order("id DESC")).Find(&versions).Error
	return shared.NewPaged(pageInfo, total, versions), err
}

func (r *versionRepository) ListLatestByPackage(tx shared.DB, packageID uint) (models.Version, error) {
	var v models.Version
	err := r.GetDB(tx).Where("package_id = ?", packageID).Order("published_at DESC NULLS LAST").Order("id DESC").First(&v).Error
	return v, notFound(err)
}

func (r *versionRepository) SetPublishedAt(tx shared.DB, versionID uint, publishedAt *time.Time) error {
	return r.GetDB(tx).Model(&models.Version{}).Where("id = ?", versionID).Update("published_at", publishedAt).Error
}

// RecordSyncFailure only touches the sync bookkeeping, the cached bom of the last successful scan stays.
func (r *versionRepository) RecordSyncFailure(versionID uint, syncErr string, at time.Time) error {
	return r.db.Model(&models.Version{}).Where("id = ?", versionID).Updates(map[string]any{
		"last_synced_at":  at,
		"last_sync_error": syncErr,
	}).Error
}

func (r *versionRepository) ApplyScanSummary(tx shared.DB, versionID uint, distroName, syftVersion *string, artifactsCount int, at time.Time) error {
	return r.GetDB(tx).Model(&models.Version{}).Where("id = ?", versionID).Updates(map[string]any{
		"distro_name":     distroName,
		"syft_version":    syftVersion,
		"artifacts_count": artifactsCount,
		"last_synced_at":  at,
		"last_sync_error": nil,
	}).Error
}

func (r *versionRepository) ListOutdated(currentScannerVersion string, olderThan time.Time, limit int) ([]models.Version, error) {
	var versions []models.Version
	err := r.db.Where("syft_version IS NOT NULL AND syft_version <> ?", currentScannerVersion).
		Where("last_synced_at IS NULL OR last_synced_at < ?", olderThan).
		Order("last_synced_at ASC NULLS FIRST").
		Order("id").
		Limit(limit).
		Find(&versions).Error
	return versions, err
}

func (r *versionRepository) ListUnscanned(olderThan time.Time, limit int) ([]models.Version, error) {
	var versions []models.Version
	err := r.db.Where("syft_version IS NULL").
		Where("last_synced_at IS NULL OR last_synced_at < ?", olderThan).
		Order("last_synced_at ASC NULLS FIRST").
		Order("id").
		Limit(limit).
		Find(&versions).Error
	return versions, err
}

func (r *versionRepository) CountByDistroName() ([]dtos.DistroNameCount, error) {
	var counts []dtos.DistroNameCount
	err := r.db.Model(&models.Version{}).
		Select("distro_name, COUNT(*) AS count").
		Where("distro_name IS NOT NULL AND distro_name <> ''").
		Group("distro_name").
		Order("count DESC").
		Order("distro_name").
		Scan(&counts).Error
	return counts, err
}

// SampleScanResult returns the scan result of any version reporting distroName.
func (r *versionRepository) SampleScanResult(distroName string) (models.ScanResult, error) {
	var s models.ScanResult
	err := r.db.Where("version_id IN (?)", r.db.Model(&models.Version{}).Select("id").Where("distro_name = ?", distroName)).
		Order("id").
		First(&s).Error
	return s, notFound(err)
}
