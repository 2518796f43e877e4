package repository

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/uploadkit/upload-gateway/entity"
)

type UploadSessionRepository struct {
	db *gorm.DB
}

func NewUploadSessionRepository(db *gorm.DB) *UploadSessionRepository {
	return &UploadSessionRepository{db: db}
}

// Upsert writes or replaces the mirror row for a session.
func (r *UploadSessionRepository) Upsert(row *entity.UploadSession) error {
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(row).Error
}

// FindByID finds a session mirror by its ID
func (r *UploadSessionRepository) FindByID(id uuid.UUID) (*entity.UploadSession, error) {
	var row entity.UploadSession
	err := r.db.Where("id = ?", id).First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// FindByUserID finds all session mirrors for a user
func (r *UploadSessionRepository) FindByUserID(userID uuid.UUID) ([]entity.UploadSession, error) {
	var rows []entity.UploadSession
	err := r.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&rows).Error
	return rows, err
}

// UpdateStatus updates the status of a session mirror
func (r *UploadSessionRepository) UpdateStatus(id uuid.UUID, status entity.SessionStatus) error {
	return r.db.Model(&entity.UploadSession{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": time.Now(),
		}).Error
}

// Delete deletes a session mirror
func (r *UploadSessionRepository) Delete(id uuid.UUID) error {
	return r.db.Delete(&entity.UploadSession{}, "id = ?", id).Error
}

// FindExpired finds sessions past their TTL that never finished.
func (r *UploadSessionRepository) FindExpired() ([]entity.UploadSession, error) {
	var rows []entity.UploadSession
	err := r.db.Where("expires_at < ? AND status NOT IN ?", time.Now(),
		[]entity.SessionStatus{entity.SessionStatusComplete, entity.SessionStatusExpired}).
		Find(&rows).Error
	return rows, err
}

// PurgeExpired removes mirrors already marked expired once their staged
// objects are gone, keeping the table from growing without bound.
func (r *UploadSessionRepository) PurgeExpired(olderThan time.Time) (int64, error) {
	result := r.db.Where("status = ? AND expires_at < ?", entity.SessionStatusExpired, olderThan).
		Delete(&entity.UploadSession{})
	return result.RowsAffected, result.Error
}
