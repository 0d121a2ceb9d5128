// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"

	"github.com/talonsoft/fieldops/models"
	"github.com/talonsoft/fieldops/utils"
	"gorm.io/gorm"
)

// UserRepositoryImpl implements UserRepository interface
type UserRepositoryImpl struct {
	*BaseRepository[models.User, models.UserFilter]
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &UserRepositoryImpl{
		BaseRepository: NewBaseRepository[models.User, models.UserFilter](db),
	}
}

// ByUUID retrieves a user by UUID (string)
func (r *UserRepositoryImpl) ByUUID(ctx context.Context, uuid string) (*models.User, error) {
	parsed, err := utils.ParseUUID(uuid)
	if err != nil {
		return nil, err
	}

	filter := models.UserFilter{UUID: &parsed}
	items, err := r.ByFilter(ctx, filter, "", 1, 0)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	return items[0], nil
}

// ByEmail retrieves a user by email
func (r *UserRepositoryImpl) ByEmail(ctx context.Context, email string) (*models.User, error) {
	filter := models.UserFilter{Email: &email}
	items, err := r.ByFilter(ctx, filter, "", 1, 0)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	return items[0], nil
}

// ListActiveTechnicians returns all active users with the technician role
func (r *UserRepositoryImpl) ListActiveTechnicians(ctx context.Context) ([]*models.User, error) {
	role := models.UserRole(models.RoleTechnician)
	isActive := true
	filter := models.UserFilter{Role: &role, IsActive: &isActive}
	return r.ByFilter(ctx, filter, "name ASC", 0, 0)
}

// applyFilter applies filter criteria to a GORM query
func (r *UserRepositoryImpl) applyFilter(query *gorm.DB, filter models.UserFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.UUID != nil {
		query = query.Where("uuid = ?", *filter.UUID)
	}
	if filter.Email != nil {
		query = query.Where("email = ?", *filter.Email)
	}
	if filter.Role != nil {
		query = query.Where("role = ?", *filter.Role)
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}
	return query
}

// ByFilter retrieves users based on filter criteria
func (r *UserRepositoryImpl) ByFilter(ctx context.Context, filter models.UserFilter, orderBy string, limit, offset int) ([]*models.User, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.User{})

	query = r.applyFilter(query, filter)

	if orderBy == "" {
		orderBy = "id DESC"
	}
	query = query.Order(orderBy)

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var users []*models.User
	if err := query.Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// Count returns the number of users matching the filter
func (r *UserRepositoryImpl) Count(ctx context.Context, filter models.UserFilter) (int64, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.User{})
	query = r.applyFilter(query, filter)

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Exists checks if any user matching the filter exists
func (r *UserRepositoryImpl) Exists(ctx context.Context, filter models.UserFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
