package repositories

import (
	"errors"
	"time"

	"github.com/l3montree-dev/imagecatalog/database/models"
	"github.com/l3montree-dev/imagecatalog/shared"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type jobRepository struct {
	db shared.DB
	*GormRepository[uint, models.Job]
}

func NewJobRepository(db shared.DB) *jobRepository {
	return &jobRepository{
		db:             db,
		GormRepository: newGormRepository[uint, models.Job](db),
	}
}

// Claim picks the oldest available job and hides it from other workers until now+visibility.
// A job whose lock expired is available again.
func (r *jobRepository) Claim(kinds []models.JobKind, now time.Time, visibility time.Duration) (models.Job, bool, error) {
	var job models.Job
	err := r.db.Transaction(func(tx *gorm.DB) error {
		q := tx.Where("kind IN ? AND available_at <= ?", kinds, now).
			Where("locked_until IS NULL OR locked_until < ?", now).
			Order("available_at").
			Order("id")
		if isPostgres(tx) {
			q = q.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"})
		}
		if err := q.First(&job).Error; err != nil {
			return err
		}

		lockedUntil := now.Add(visibility)
		job.LockedUntil = &lockedUntil
		job.Attempts++
		return tx.Model(&models.Job{}).Where("id = ?", job.ID).Updates(map[string]any{
			"locked_until": lockedUntil,
			"attempts":     job.Attempts,
		}).Error
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Job{}, false, nil
	}
	if err != nil {
		return models.Job{}, false, err
	}
	return job, true, nil
}

func (r *jobRepository) CountPending(kind models.JobKind) (int64, error) {
	var count int64
	err := r.db.Model(&models.Job{}).Where("kind = ?", kind).Count(&count).Error
	return count, err
}

func (r *jobRepository) Exists(kind models.JobKind, entityKey string) (bool, error) {
	var count int64
	err := r.db.Model(&models.Job{}).Where("kind = ? AND entity_key = ?", kind, entityKey).Count(&count).Error
	return count > 0, err
}

func (r *jobRepository) SetLockToken(id uint, token string) error {
	return r.db.Model(&models.Job{}).Where("id = ?", id).Update("lock_token", token).Error
}

func (r *jobRepository) Postpone(id uint, availableAt time.Time) error {
	return r.db.Model(&models.Job{}).Where("id = ?", id).Updates(map[string]any{
		"available_at": availableAt,
		"locked_until": nil,
		"attempts":     gorm.Expr("CASE WHEN attempts > 0 THEN attempts - 1 ELSE 0 END"),
	}).Error
}
