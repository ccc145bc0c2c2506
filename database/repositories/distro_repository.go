package repositories

import (
	"github.com/l3montree-dev/imagecatalog/database/models"
	"github.com/l3montree-dev/imagecatalog/shared"
	"gorm.io/gorm"
)

var DistroSortFields = []string{"slug", "pretty_name", "versions_count", "total_downloads"}

type distroRepository struct {
	db shared.DB
	*GormRepository[uint, models.Distro]
}

func NewDistroRepository(db shared.DB) *distroRepository {
	return &distroRepository{
		db:             db,
		GormRepository: newGormRepository[uint, models.Distro](db),
	}
}

func (r *distroRepository) FindBySlug(tx shared.DB, slug string) (models.Distro, error) {
	var d models.Distro
	err := r.GetDB(tx).Where("slug = ?", slug).First(&d).Error
	return d, notFound(err)
}

func (r *distroRepository) FindByPrettyName(tx shared.DB, prettyName string) (models.Distro, error) {
	var d models.Distro
	err := r.GetDB(tx).Where("pretty_name = ?", prettyName).Order("discontinued").Order("id").First(&d).Error
	return d, notFound(err)
}

func (r *distroRepository) FindByIdentity(tx shared.DB, id, versionID string, variantID *string) (models.Distro, error) {
	var d models.Distro
	q := r.GetDB(tx).Where("id_field = ? AND version_id = ?", id, versionID)
	if variantID == nil {
		q = q.Where("variant_id IS NULL")
	} else {
		q = q.Where("variant_id = ?", *variantID)
	}
	err := q.Order("discontinued").Order("id").First(&d).Error
	return d, notFound(err)
}

func (r *distroRepository) ListSlugs(tx shared.DB) ([]string, error) {
	var slugs []string
	err := r.GetDB(tx).Model(&models.Distro{}).Order("slug").Pluck("slug", &slugs).Error
	return slugs, err
}

func (r *distroRepository) DeleteBySlugs(tx shared.DB, slugs []string) (int64, error) {
	var deleted int64
	for start := 0; start < len(slugs); start += 500 {
		end := min(start+500, len(slugs))
		res := r.GetDB(tx).Where("slug IN ?", slugs[start:end]).Delete(&models.Distro{})
		if res.Error != nil {
			return deleted, res.Error
		}
		deleted += res.RowsAffected
	}
	return deleted, nil
}

func (r *distroRepository) All() ([]models.Distro, error) {
	var distros []models.Distro
	err := r.db.Order("slug").Find(&distros).Error
	return distros, err
}

func (r *distroRepository) ListPaged(pageInfo shared.PageInfo, search string, sort shared.SortQuery) (shared.Paged[models.Distro], error) {
	var distros []models.Distro
	q := r.db.Model(&models.Distro{})
	if search != "" {
		pattern := shared.LikePattern(search)
		q = q.Where(`(LOWER(slug) LIKE ? ESCAPE '\' OR LOWER(pretty_name) LIKE ? ESCAPE '\')`, pattern, pattern)
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return shared.Paged[models.Distro]{}, err
	}
	err := pageInfo.ApplyOnDB(q.Order(sort.SQL()).Order("slug")).Find(&distros).Error
	return shared.NewPaged(pageInfo, total, distros), err
}

// ListByIDFields returns the distros whose id is one of ids, without excludeID.
func (r *distroRepository) ListByIDFields(ids []string, excludeID uint) ([]models.Distro, error) {
	var distros []models.Distro
	if len(ids) == 0 {
		return distros, nil
	}
	err := r.db.Where("id_field IN ? AND id <> ?", ids, excludeID).Order("slug").Find(&distros).Error
	return distros, err
}

// RefreshCounters recomputes how many versions report the distro and the summed downloads of their distinct packages.
func (r *distroRepository) RefreshCounters(tx shared.DB, d *models.Distro) error {
	db := r.GetDB(tx)
	var versionsCount int64
	if err := db.Model(&models.Version{}).Where("distro_name = ?", d.PrettyName).Count(&versionsCount).Error; err != nil {
		return err
	}

	var downloads struct{ Total int64 }
	err := db.Model(&models.Package{}).
		Select("COALESCE(SUM(downloads), 0) AS total").
		Where("id IN (?)", db.Model(&models.Version{}).Select("package_id").Where("distro_name = ?", d.PrettyName)).
		Scan(&downloads).Error
	if err != nil {
		return err
	}

	d.VersionsCount = int(versionsCount)
	d.TotalDownloads = downloads.Total
	return db.Model(d).UpdateColumns(map[string]any{
		"versions_count":  d.VersionsCount,
		"total_downloads": d.TotalDownloads,
	}).Error
}
