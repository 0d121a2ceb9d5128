// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"time"

	"github.com/talonsoft/fieldops/models"
	"github.com/talonsoft/fieldops/utils"
	"gorm.io/gorm"
)

// OrderRepositoryImpl implements OrderRepository interface
type OrderRepositoryImpl struct {
	*BaseRepository[models.Order, models.OrderFilter]
}

// NewOrderRepository creates a new order repository
func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &OrderRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Order, models.OrderFilter](db),
	}
}

// ByUUID retrieves an order by UUID (string)
func (r *OrderRepositoryImpl) ByUUID(ctx context.Context, uuid string) (*models.Order, error) {
	parsed, err := utils.ParseUUID(uuid)
	if err != nil {
		return nil, err
	}

	filter := models.OrderFilter{UUID: &parsed}
	items, err := r.ByFilter(ctx, filter, "", 1, 0)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	return items[0], nil
}

// ByOrderNumber retrieves an order by its human-readable number
func (r *OrderRepositoryImpl) ByOrderNumber(ctx context.Context, orderNumber string) (*models.Order, error) {
	filter := models.OrderFilter{OrderNumber: &orderNumber}
	items, err := r.ByFilter(ctx, filter, "", 1, 0)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	return items[0], nil
}

// TransitionStatus applies a conditional status update. The WHERE clause
// pins the expected current status, so a row changed by a concurrent
// transition is simply not matched: RowsAffected reports 0 and the caller
// decides how to surface the conflict. No partial update is ever visible.
func (r *OrderRepositoryImpl) TransitionStatus(ctx context.Context, orderID uint, expected, next models.OrderStatus, updates map[string]any) (int64, error) {
	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return 0, err
	}
	if shouldCommit {
		defer func() {
			if err != nil {
				db.Rollback()
			} else {
				db.Commit()
			}
		}()
	}

	if updates == nil {
		updates = map[string]any{}
	}
	updates["status"] = next
	updates["updated_at"] = utils.UTCNow()

	result := db.Model(&models.Order{}).
		Where("id = ? AND status = ?", orderID, expected).
		Updates(updates)

	if result.Error != nil {
		err = result.Error
		return 0, err
	}
	return result.RowsAffected, nil
}

// UpdateDeadlines restamps both SLA deadlines, used only by the explicit
// recalculation operation
func (r *OrderRepositoryImpl) UpdateDeadlines(ctx context.Context, orderID uint, response, resolution time.Time) error {
	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return err
	}
	if shouldCommit {
		defer func() {
			if err != nil {
				db.Rollback()
			} else {
				db.Commit()
			}
		}()
	}

	if e := db.Model(&models.Order{}).
		Where("id = ?", orderID).
		Updates(map[string]any{
			"response_deadline":   response,
			"resolution_deadline": resolution,
			"updated_at":          utils.UTCNow(),
		}).Error; e != nil {
		err = e
		return err
	}
	return nil
}

// ListOpen returns all orders still subject to SLA monitoring
func (r *OrderRepositoryImpl) ListOpen(ctx context.Context, limit, offset int) ([]*models.Order, error) {
	open := true
	filter := models.OrderFilter{Open: &open}
	return r.ByFilter(ctx, filter, "resolution_deadline ASC", limit, offset)
}

// CountActiveByTechnician derives the technician's active-order count from
// order rows. There is no stored counter to drift.
func (r *OrderRepositoryImpl) CountActiveByTechnician(ctx context.Context, technicianID uint) (int64, error) {
	filter := models.OrderFilter{
		AssignedTechnicianID: &technicianID,
		Statuses: []models.OrderStatus{
			models.OrderStatusAssigned,
			models.OrderStatusEnRoute,
			models.OrderStatusInProgress,
		},
	}
	return r.Count(ctx, filter)
}

// applyFilter applies filter criteria to a GORM query
func (r *OrderRepositoryImpl) applyFilter(query *gorm.DB, filter models.OrderFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.UUID != nil {
		query = query.Where("uuid = ?", *filter.UUID)
	}
	if filter.OrderNumber != nil {
		query = query.Where("order_number = ?", *filter.OrderNumber)
	}
	if filter.ClientID != nil {
		query = query.Where("client_id = ?", *filter.ClientID)
	}
	if filter.SiteID != nil {
		query = query.Where("site_id = ?", *filter.SiteID)
	}
	if filter.AssignedTechnicianID != nil {
		query = query.Where("assigned_technician_id = ?", *filter.AssignedTechnicianID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if len(filter.Statuses) > 0 {
		query = query.Where("status IN ?", filter.Statuses)
	}
	if filter.Priority != nil {
		query = query.Where("priority = ?", *filter.Priority)
	}
	if filter.Open != nil {
		terminal := []models.OrderStatus{models.OrderStatusCompleted, models.OrderStatusCancelled}
		if *filter.Open {
			query = query.Where("status NOT IN ?", terminal)
		} else {
			query = query.Where("status IN ?", terminal)
		}
	}
	if filter.ScheduledAfter != nil {
		query = query.Where("scheduled_start >= ?", *filter.ScheduledAfter)
	}
	if filter.ScheduledBefore != nil {
		query = query.Where("scheduled_start <= ?", *filter.ScheduledBefore)
	}
	if filter.CreatedAfter != nil {
		query = query.Where("created_at > ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		query = query.Where("created_at < ?", *filter.CreatedBefore)
	}
	return query
}

// ByFilter retrieves orders based on filter criteria
func (r *OrderRepositoryImpl) ByFilter(ctx context.Context, filter models.OrderFilter, orderBy string, limit, offset int) ([]*models.Order, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.Order{})

	query = r.applyFilter(query, filter)

	if orderBy == "" {
		orderBy = "scheduled_start DESC"
	}
	query = query.Order(orderBy)

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var orders []*models.Order
	if err := query.Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// Count returns the number of orders matching the filter
func (r *OrderRepositoryImpl) Count(ctx context.Context, filter models.OrderFilter) (int64, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.Order{})
	query = r.applyFilter(query, filter)

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Exists checks if any order matching the filter exists
func (r *OrderRepositoryImpl) Exists(ctx context.Context, filter models.OrderFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
