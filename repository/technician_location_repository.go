// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"time"

	"github.com/talonsoft/fieldops/models"
	"gorm.io/gorm"
)

// TechnicianLocationRepositoryImpl implements TechnicianLocationRepository interface
type TechnicianLocationRepositoryImpl struct {
	*BaseRepository[models.TechnicianLocation, models.TechnicianLocationFilter]
}

// NewTechnicianLocationRepository creates a new technician location repository
func NewTechnicianLocationRepository(db *gorm.DB) TechnicianLocationRepository {
	return &TechnicianLocationRepositoryImpl{
		BaseRepository: NewBaseRepository[models.TechnicianLocation, models.TechnicianLocationFilter](db),
	}
}

// LatestActive returns the technician's most recent active position report
func (r *TechnicianLocationRepositoryImpl) LatestActive(ctx context.Context, technicianID uint) (*models.TechnicianLocation, error) {
	active := true
	filter := models.TechnicianLocationFilter{
		TechnicianID: &technicianID,
		IsActive:     &active,
	}
	items, err := r.ByFilter(ctx, filter, "reported_at DESC, id DESC", 1, 0)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	return items[0], nil
}

// CurrentSince returns the freshest active report per technician, restricted
// to reports newer than the cutoff. DISTINCT ON keeps exactly one row per
// technician (Postgres specific).
func (r *TechnicianLocationRepositoryImpl) CurrentSince(ctx context.Context, cutoff time.Time) ([]*models.TechnicianLocation, error) {
	db := r.getDB(ctx)

	var locations []*models.TechnicianLocation
	err := db.Raw(`
		SELECT DISTINCT ON (technician_id) *
		FROM technician_locations
		WHERE is_active = TRUE AND reported_at > ?
		ORDER BY technician_id, reported_at DESC, id DESC`, cutoff).
		Scan(&locations).Error
	if err != nil {
		return nil, err
	}
	return locations, nil
}

// applyFilter applies filter criteria to a GORM query
func (r *TechnicianLocationRepositoryImpl) applyFilter(query *gorm.DB, filter models.TechnicianLocationFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.TechnicianID != nil {
		query = query.Where("technician_id = ?", *filter.TechnicianID)
	}
	if filter.OrderID != nil {
		query = query.Where("order_id = ?", *filter.OrderID)
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}
	if filter.ReportedAfter != nil {
		query = query.Where("reported_at > ?", *filter.ReportedAfter)
	}
	return query
}

// ByFilter retrieves location reports based on filter criteria
func (r *TechnicianLocationRepositoryImpl) ByFilter(ctx context.Context, filter models.TechnicianLocationFilter, orderBy string, limit, offset int) ([]*models.TechnicianLocation, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.TechnicianLocation{})

	query = r.applyFilter(query, filter)

	if orderBy == "" {
		orderBy = "reported_at DESC"
	}
	query = query.Order(orderBy)

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var locations []*models.TechnicianLocation
	if err := query.Find(&locations).Error; err != nil {
		return nil, err
	}
	return locations, nil
}

// Count returns the number of location reports matching the filter
func (r *TechnicianLocationRepositoryImpl) Count(ctx context.Context, filter models.TechnicianLocationFilter) (int64, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.TechnicianLocation{})
	query = r.applyFilter(query, filter)

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Exists checks if any location report matching the filter exists
func (r *TechnicianLocationRepositoryImpl) Exists(ctx context.Context, filter models.TechnicianLocationFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
