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
	"github.com/l3montree-dev/imagecatalog/shared"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var PackageSortFields = []string{"name", "downloads", "versions_count", "dependencies_count", "last_synced_at", "latest_release_published_at"}

type packageRepository struct {
	db shared.DB
	*GormRepository[uint, models.Package]
}

func NewPackageRepository(db shared.DB) *packageRepository {
	return &packageRepository{
		db:             db,
		GormRepository: newGormRepository[uint, models.Package](db),
	}
}

func (r *packageRepository) FindByName(tx shared.DB, name string) (models.Package, error) {
	var p models.Package
	err := r.GetDB(tx).Where("name = ?", name).First(&p).Error
	return p, notFound(err)
}

func (r *packageRepository) FindOrCreateByName(tx shared.DB, name string) (models.Package, error) {
	p, err := r.FindByName(tx, name)
	if err == nil || !errors.Is(err, shared.ErrNotFound) {
		return p, err
	}

	p = models.Package{Name: name}
	res := r.GetDB(tx).Clauses(clause.OnConflict{DoNothing: true}).Create(&p)
	if res.Error != nil {
		return p, res.Error
	}
	if res.RowsAffected == 0 {
		// created concurrently
		return r.FindByName(tx, name)
	}
	return p, nil
}

func (r *packageRepository) ListPaged(pageInfo shared.PageInfo, search string, sort shared.SortQuery) (shared.Paged[models.Package], error) {
	var packages []models.Package
	q := r.db.Model(&models.Package{})
	if search != "" {
		pattern := shared.LikePattern(search)
		q = q.Where(`(LOWER(name) LIKE ? ESCAPE '\' OR LOWER(COALESCE(description, '')) LIKE ? ESCAPE '\')`, pattern, pattern)
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return shared.Paged[models.Package]{}, err
	}
	if err := pageInfo.ApplyOnDB(q.Order(sort.SQL()).Order("id")).Find(&packages).Error; err != nil {
		return shared.Paged[models.Package]{}, err
	}
	return shared.NewPaged(pageInfo, total, packages), nil
}

func (r *packageRepository) ListStale(olderThan time.Time, limit int) ([]models.Package, error) {
	var packages []models.Package
	err := r.db.Where("last_synced_at IS NULL OR last_synced_at < ?", olderThan).
		Order("last_synced_at ASC NULLS FIRST").
		Order("id").
		Limit(limit).
		Find(&packages).Error
	return packages, err
}

func (r *packageRepository) MarkScanned(tx shared.DB, packageID uint, dependenciesCount int, at time.Time) error {
	return r.GetDB(tx).Model(&models.Package{}).Where("id = ?", packageID).Updates(map[string]any{
		"has_sbom":           true,
		"last_synced_at":     at,
		"dependencies_count": dependenciesCount,
	}).Error
}

// UpdateMetadata writes the columns mirrored from the packages api. The bom summary columns are left alone.
func (r *packageRepository) UpdateMetadata(tx shared.DB, p *models.Package) error {
	return r.GetDB(tx).Model(&models.Package{}).Where("id = ?", p.ID).Updates(map[string]any{
		"description":                 p.Description,
		"downloads":                   p.Downloads,
		"repository_url":              p.RepositoryURL,
		"latest_release_number":       p.LatestReleaseNumber,
		"latest_release_published_at": p.LatestReleasePublishedAt,
		"last_synced_at":              p.LastSyncedAt,
	}).Error
}

func (r *packageRepository) Touch(tx shared.DB, packageID uint, at time.Time) error {
	return r.GetDB(tx).Model(&models.Package{}).Where("id = ?", packageID).Update("last_synced_at", at).Error
}

func (r *packageRepository) RefreshVersionsCount(tx shared.DB, packageID uint) error {
	return r.GetDB(tx).Model(&models.Package{}).Where("id = ?", packageID).
		UpdateColumn("versions_count", gorm.Expr("(SELECT COUNT(*) FROM versions WHERE versions.package_id = ?)", packageID)).Error
}
