package repositories

import (
	"github.com/l3montree-dev/imagecatalog/database/models"
	"github.com/l3montree-dev/imagecatalog/shared"
	"gorm.io/gorm/clause"
)

type scanResultRepository struct {
	*GormRepository[uint, models.ScanResult]
}

func NewScanResultRepository(db shared.DB) *scanResultRepository {
	return &scanResultRepository{GormRepository: newGormRepository[uint, models.ScanResult](db)}
}

// Upsert keeps exactly one scan result per version.
func (r *scanResultRepository) Upsert(tx shared.DB, s *models.ScanResult) error {
	return r.GormRepository.Upsert(tx, s, []clause.Column{{Name: "version_id"}}, []string{"data", "distro_name", "syft_version", "artifacts_count", "updated_at"})
}

func (r *scanResultRepository) FindByVersionID(tx shared.DB, versionID uint) (models.ScanResult, error) {
	var s models.ScanResult
	err := r.GetDB(tx).Where("version_id = ?", versionID).First(&s).Error
	return s, notFound(err)
}
