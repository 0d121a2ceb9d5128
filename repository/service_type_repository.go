// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"

	"github.com/talonsoft/fieldops/models"
	"gorm.io/gorm"
)

// ServiceTypeRepositoryImpl implements ServiceTypeRepository interface
type ServiceTypeRepositoryImpl struct {
	*BaseRepository[models.ServiceType, models.ServiceTypeFilter]
}

// NewServiceTypeRepository creates a new service type repository
func NewServiceTypeRepository(db *gorm.DB) ServiceTypeRepository {
	return &ServiceTypeRepositoryImpl{
		BaseRepository: NewBaseRepository[models.ServiceType, models.ServiceTypeFilter](db),
	}
}

// ByName retrieves a service type by its unique name
func (r *ServiceTypeRepositoryImpl) ByName(ctx context.Context, name string) (*models.ServiceType, error) {
	filter := models.ServiceTypeFilter{Name: &name}
	items, err := r.ByFilter(ctx, filter, "", 1, 0)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	return items[0], nil
}

// applyFilter applies filter criteria to a GORM query
func (r *ServiceTypeRepositoryImpl) applyFilter(query *gorm.DB, filter models.ServiceTypeFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.UUID != nil {
		query = query.Where("uuid = ?", *filter.UUID)
	}
	if filter.Name != nil {
		query = query.Where("name = ?", *filter.Name)
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}
	return query
}

// ByFilter retrieves service types based on filter criteria
func (r *ServiceTypeRepositoryImpl) ByFilter(ctx context.Context, filter models.ServiceTypeFilter, orderBy string, limit, offset int) ([]*models.ServiceType, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.ServiceType{})

	query = r.applyFilter(query, filter)

	if orderBy == "" {
		orderBy = "name ASC"
	}
	query = query.Order(orderBy)

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var types []*models.ServiceType
	if err := query.Find(&types).Error; err != nil {
		return nil, err
	}
	return types, nil
}

// Count returns the number of service types matching the filter
func (r *ServiceTypeRepositoryImpl) Count(ctx context.Context, filter models.ServiceTypeFilter) (int64, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.ServiceType{})
	query = r.applyFilter(query, filter)

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Exists checks if any service type matching the filter exists
func (r *ServiceTypeRepositoryImpl) Exists(ctx context.Context, filter models.ServiceTypeFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
