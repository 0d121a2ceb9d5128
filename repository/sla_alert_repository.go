// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"

	"github.com/talonsoft/fieldops/models"
	"gorm.io/gorm"
)

// SLAAlertRepositoryImpl implements SLAAlertRepository interface
type SLAAlertRepositoryImpl struct {
	*BaseRepository[models.SLAAlert, models.SLAAlertFilter]
}

// NewSLAAlertRepository creates a new SLA alert repository
func NewSLAAlertRepository(db *gorm.DB) SLAAlertRepository {
	return &SLAAlertRepositoryImpl{
		BaseRepository: NewBaseRepository[models.SLAAlert, models.SLAAlertFilter](db),
	}
}

// LatestByOrderAndKind returns the most recent alert recorded for the order
// and deadline kind, nil when the monitor has never alerted on it
func (r *SLAAlertRepositoryImpl) LatestByOrderAndKind(ctx context.Context, orderID uint, kind models.SLAKind) (*models.SLAAlert, error) {
	filter := models.SLAAlertFilter{
		OrderID: &orderID,
		Kind:    &kind,
	}
	items, err := r.ByFilter(ctx, filter, "created_at DESC, id DESC", 1, 0)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	return items[0], nil
}

// applyFilter applies filter criteria to a GORM query
func (r *SLAAlertRepositoryImpl) applyFilter(query *gorm.DB, filter models.SLAAlertFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.OrderID != nil {
		query = query.Where("order_id = ?", *filter.OrderID)
	}
	if filter.Kind != nil {
		query = query.Where("kind = ?", *filter.Kind)
	}
	if filter.Class != nil {
		query = query.Where("classification = ?", *filter.Class)
	}
	return query
}

// ByFilter retrieves SLA alerts based on filter criteria
func (r *SLAAlertRepositoryImpl) ByFilter(ctx context.Context, filter models.SLAAlertFilter, orderBy string, limit, offset int) ([]*models.SLAAlert, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.SLAAlert{})

	query = r.applyFilter(query, filter)

	if orderBy == "" {
		orderBy = "created_at DESC"
	}
	query = query.Order(orderBy)

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var alerts []*models.SLAAlert
	if err := query.Find(&alerts).Error; err != nil {
		return nil, err
	}
	return alerts, nil
}

// Count returns the number of SLA alerts matching the filter
func (r *SLAAlertRepositoryImpl) Count(ctx context.Context, filter models.SLAAlertFilter) (int64, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.SLAAlert{})
	query = r.applyFilter(query, filter)

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Exists checks if any SLA alert matching the filter exists
func (r *SLAAlertRepositoryImpl) Exists(ctx context.Context, filter models.SLAAlertFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
