// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"

	"github.com/talonsoft/fieldops/models"
	"gorm.io/gorm"
)

// OrderEventRepositoryImpl implements OrderEventRepository interface
type OrderEventRepositoryImpl struct {
	*BaseRepository[models.OrderEvent, models.OrderEventFilter]
}

// NewOrderEventRepository creates a new order event repository
func NewOrderEventRepository(db *gorm.DB) OrderEventRepository {
	return &OrderEventRepositoryImpl{
		BaseRepository: NewBaseRepository[models.OrderEvent, models.OrderEventFilter](db),
	}
}

// ListByOrder returns the full audit trail of an order in chronological order
func (r *OrderEventRepositoryImpl) ListByOrder(ctx context.Context, orderID uint) ([]*models.OrderEvent, error) {
	filter := models.OrderEventFilter{OrderID: &orderID}
	return r.ByFilter(ctx, filter, "created_at ASC, id ASC", 0, 0)
}

// applyFilter applies filter criteria to a GORM query
func (r *OrderEventRepositoryImpl) applyFilter(query *gorm.DB, filter models.OrderEventFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.OrderID != nil {
		query = query.Where("order_id = ?", *filter.OrderID)
	}
	if filter.EventType != nil {
		query = query.Where("event_type = ?", *filter.EventType)
	}
	if filter.ActorID != nil {
		query = query.Where("actor_id = ?", *filter.ActorID)
	}
	return query
}

// ByFilter retrieves order events based on filter criteria
func (r *OrderEventRepositoryImpl) ByFilter(ctx context.Context, filter models.OrderEventFilter, orderBy string, limit, offset int) ([]*models.OrderEvent, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.OrderEvent{})

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

	var events []*models.OrderEvent
	if err := query.Find(&events).Error; err != nil {
		return nil, err
	}
	return events, nil
}

// Count returns the number of order events matching the filter
func (r *OrderEventRepositoryImpl) Count(ctx context.Context, filter models.OrderEventFilter) (int64, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.OrderEvent{})
	query = r.applyFilter(query, filter)

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Exists checks if any order event matching the filter exists
func (r *OrderEventRepositoryImpl) Exists(ctx context.Context, filter models.OrderEventFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
