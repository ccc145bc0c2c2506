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
	"github.com/l3montree-dev/imagecatalog/database/models"
	"github.com/l3montree-dev/imagecatalog/dtos"
	"github.com/l3montree-dev/imagecatalog/shared"
	"gorm.io/gorm"
)

type dependencyRepository struct {
	db shared.DB
	*GormRepository[uint, models.Dependency]
}

func NewDependencyRepository(db shared.DB) *dependencyRepository {
	return &dependencyRepository{
		db:             db,
		GormRepository: newGormRepository[uint, models.Dependency](db),
	}
}

// ReplaceForVersion swaps the complete dependency set of a version. Callers pass a transaction.
func (r *dependencyRepository) ReplaceForVersion(tx shared.DB, versionID uint, deps []models.Dependency) error {
	if err := r.GetDB(tx).Where("version_id = ?", versionID).Delete(&models.Dependency{}).Error; err != nil {
		return err
	}
	return r.CreateBatch(tx, deps)
}

func (r *dependencyRepository) ListByVersion(tx shared.DB, versionID uint) ([]models.Dependency, error) {
	var deps []models.Dependency
	err := r.GetDB(tx).Where("version_id = ?", versionID).Order("ecosystem").Order("package_name").Order("id").Find(&deps).Error
	return deps, err
}

func (r *dependencyRepository) ListByPackageName(ecosystem, packageName string, pageInfo shared.PageInfo) (shared.Paged[models.Dependency], error) {
	var deps []models.Dependency
	q := r.db.Model(&models.Dependency{}).Where("ecosystem = ? AND package_name = ?", ecosystem, packageName)

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return shared.Paged[models.Dependency]{}, err
	}
	err := pageInfo.ApplyOnDB(q.Order("id DESC")).Find(&deps).Error
	return shared.NewPaged(pageInfo, total, deps), err
}

// Usage counts the distinct packages depending on ecosystem/packageName and sums their downloads.
func (r *dependencyRepository) Usage(ecosystem, packageName string) (dtos.DependencyUsage, error) {
	usage := dtos.DependencyUsage{Ecosystem: ecosystem, PackageName: packageName}
	dependents := r.db.Model(&models.Dependency{}).
		Select("DISTINCT package_id").
		Where("ecosystem = ? AND package_name = ?", ecosystem, packageName)

	if err := r.db.Model(&models.Package{}).Where("id IN (?)", dependents).Count(&usage.DependentsCount).Error; err != nil {
		return usage, err
	}

	var downloads struct{ Total int64 }
	err := r.db.Model(&models.Package{}).
		Select("COALESCE(SUM(downloads), 0) AS total").
		Where("id IN (?)", dependents).
		Scan(&downloads).Error
	usage.DownloadsCount = downloads.Total
	return usage, err
}
