package repository

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/uploadkit/upload-gateway/entity"
)

type StoredObjectRepository struct {
	db *gorm.DB
}

func NewStoredObjectRepository(db *gorm.DB) *StoredObjectRepository {
	return &StoredObjectRepository{db: db}
}

// CreateBatch records the stored objects of a completed session.
func (r *StoredObjectRepository) CreateBatch(objects []entity.StoredObject) error {
	if len(objects) == 0 {
		return nil
	}
	return r.db.Create(&objects).Error
}

// FindBySessionID finds all objects stored by one session
func (r *StoredObjectRepository) FindBySessionID(sessionID uuid.UUID) ([]entity.StoredObject, error) {
	var objects []entity.StoredObject
	err := r.db.Where("session_id = ?", sessionID).Order("created_at ASC").Find(&objects).Error
	return objects, err
}

// FindByRouteID finds all objects stored through one route
func (r *StoredObjectRepository) FindByRouteID(routeID string) ([]entity.StoredObject, error) {
	var objects []entity.StoredObject
	err := r.db.Where("route_id = ?", routeID).Order("created_at DESC").Find(&objects).Error
	return objects, err
}
