package repository

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/uploadkit/upload-gateway/entity"
)

type FileRouteRepository struct {
	db *gorm.DB
}

func NewFileRouteRepository(db *gorm.DB) *FileRouteRepository {
	return &FileRouteRepository{db: db}
}

// FindByRouteID finds a route by its string key
func (r *FileRouteRepository) FindByRouteID(routeID string) (*entity.FileRoute, error) {
	var route entity.FileRoute
	err := r.db.Where("route_id = ?", routeID).First(&route).Error
	if err != nil {
		return nil, err
	}
	return &route, nil
}

// List returns all configured routes
func (r *FileRouteRepository) List() ([]entity.FileRoute, error) {
	var routes []entity.FileRoute
	err := r.db.Order("route_id ASC").Find(&routes).Error
	return routes, err
}

// Upsert creates the route or updates its constraints, keyed by route_id.
// Used to seed defaults at startup.
func (r *FileRouteRepository) Upsert(route *entity.FileRoute) error {
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "route_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"max_file_size", "max_file_count", "accepted_types", "bucket", "webhook_url", "relay", "updated_at"}),
	}).Create(route).Error
}

// Delete removes a route by its string key
func (r *FileRouteRepository) Delete(routeID string) error {
	return r.db.Delete(&entity.FileRoute{}, "route_id = ?", routeID).Error
}
