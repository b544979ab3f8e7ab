package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"checador/internal/model"
)

// WorkplaceRepository defines workplace and geofence persistence operations.
type WorkplaceRepository interface {
	Create(ctx context.Context, workplace *model.Workplace) error
	FindByName(ctx context.Context, name string) (*model.Workplace, error)
	FindGeofence(ctx context.Context, workplaceID uint) (*model.Geofence, error)
	UpsertGeofence(ctx context.Context, geofence *model.Geofence) error
}

type workplaceRepository struct {
	db *gorm.DB
}

// NewWorkplaceRepository creates a new workplace repository.
func NewWorkplaceRepository(db *gorm.DB) WorkplaceRepository {
	return &workplaceRepository{db: db}
}

// Create creates a new workplace.
func (r *workplaceRepository) Create(ctx context.Context, workplace *model.Workplace) error {
	return r.db.WithContext(ctx).Create(workplace).Error
}

// FindByName finds a workplace by name.
func (r *workplaceRepository) FindByName(ctx context.Context, name string) (*model.Workplace, error) {
	var workplace model.Workplace
	if err := r.db.WithContext(ctx).Preload("Geofence").
		Where("name = ?", name).First(&workplace).Error; err != nil {
		return nil, err
	}
	return &workplace, nil
}

// FindGeofence finds the geofence owned by a workplace.
func (r *workplaceRepository) FindGeofence(ctx context.Context, workplaceID uint) (*model.Geofence, error) {
	var geofence model.Geofence
	if err := r.db.WithContext(ctx).Where("workplace_id = ?", workplaceID).First(&geofence).Error; err != nil {
		return nil, err
	}
	return &geofence, nil
}

// UpsertGeofence replaces the single geofence of a workplace.
func (r *workplaceRepository) UpsertGeofence(ctx context.Context, geofence *model.Geofence) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "workplace_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"center_latitude", "center_longitude", "radius_in_meters", "updated_at"}),
	}).Create(geofence).Error
}
