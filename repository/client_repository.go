// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"errors"
	"strconv"

	"github.com/talonsoft/fieldops/models"
	"github.com/talonsoft/fieldops/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ClientRepositoryImpl implements ClientRepository interface
type ClientRepositoryImpl struct {
	*BaseRepository[models.Client, models.ClientFilter]
}

// NewClientRepository creates a new client repository
func NewClientRepository(db *gorm.DB) ClientRepository {
	return &ClientRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Client, models.ClientFilter](db),
	}
}

// ByUUID retrieves a client by UUID (string)
func (r *ClientRepositoryImpl) ByUUID(ctx context.Context, uuid string) (*models.Client, error) {
	parsed, err := utils.ParseUUID(uuid)
	if err != nil {
		return nil, err
	}

	filter := models.ClientFilter{UUID: &parsed}
	items, err := r.ByFilter(ctx, filter, "", 1, 0)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	return items[0], nil
}

// LockByID takes a row lock on the client for the duration of the
// surrounding transaction. Writers racing over the single-primary-contact
// and single-default-site invariants serialize on this lock.
func (r *ClientRepositoryImpl) LockByID(ctx context.Context, clientID uint) (*models.Client, error) {
	db := r.getDB(ctx)

	var client models.Client
	err := db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&client, clientID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &client, nil
}

// applyFilter applies filter criteria to a GORM query
func (r *ClientRepositoryImpl) applyFilter(query *gorm.DB, filter models.ClientFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.UUID != nil {
		query = query.Where("uuid = ?", *filter.UUID)
	}
	if filter.Name != nil {
		query = query.Where("name = ?", *filter.Name)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Search != nil {
		pattern := "%" + *filter.Search + "%"
		query = query.Where("name ILIKE ? OR email ILIKE ? OR phone ILIKE ?", pattern, pattern, pattern)
	}
	if filter.CreatedAfter != nil {
		query = query.Where("created_at > ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		query = query.Where("created_at < ?", *filter.CreatedBefore)
	}
	return query
}

// ByFilter retrieves clients based on filter criteria
func (r *ClientRepositoryImpl) ByFilter(ctx context.Context, filter models.ClientFilter, orderBy string, limit, offset int) ([]*models.Client, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.Client{})

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

	var clients []*models.Client
	if err := query.Find(&clients).Error; err != nil {
		return nil, err
	}
	return clients, nil
}

// Count returns the number of clients matching the filter
func (r *ClientRepositoryImpl) Count(ctx context.Context, filter models.ClientFilter) (int64, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.Client{})
	query = r.applyFilter(query, filter)

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Exists checks if any client matching the filter exists
func (r *ClientRepositoryImpl) Exists(ctx context.Context, filter models.ClientFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Update updates mutable fields for a client by ID
func (r *ClientRepositoryImpl) Update(ctx context.Context, client *models.Client) error {
	if client == nil {
		return errors.New("client payload is nil")
	}
	if client.ID == 0 {
		return errors.New("client ID is required for update")
	}

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

	updates := map[string]any{
		"updated_at": utils.UTCNow(),
	}
	if client.Name != "" {
		updates["name"] = client.Name
	}
	if client.LegalName != nil {
		updates["legal_name"] = *client.LegalName
	}
	if client.Email != nil {
		updates["email"] = *client.Email
	}
	if client.Phone != nil {
		updates["phone"] = *client.Phone
	}
	if client.Status != "" {
		updates["status"] = client.Status
	}

	result := db.Model(&models.Client{}).
		Where("id = ?", client.ID).
		Updates(updates)

	if result.Error != nil {
		err = result.Error
		return err
	}
	if result.RowsAffected == 0 {
		err = errors.New("client not found with ID: " + strconv.Itoa(int(client.ID)))
		return err
	}
	return nil
}

// Deactivate flips a client to inactive; orders keep their references
func (r *ClientRepositoryImpl) Deactivate(ctx context.Context, clientID uint) error {
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

	result := db.Model(&models.Client{}).
		Where("id = ?", clientID).
		Updates(map[string]any{
			"status":     models.ClientStatusInactive,
			"updated_at": utils.UTCNow(),
		})

	if result.Error != nil {
		err = result.Error
		return err
	}
	if result.RowsAffected == 0 {
		err = errors.New("client not found with ID: " + strconv.Itoa(int(clientID)))
		return err
	}
	return nil
}
