// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"errors"
	"strconv"

	"github.com/talonsoft/fieldops/models"
	"github.com/talonsoft/fieldops/utils"
	"gorm.io/gorm"
)

// ContactRepositoryImpl implements ContactRepository interface
type ContactRepositoryImpl struct {
	*BaseRepository[models.Contact, models.ContactFilter]
}

// NewContactRepository creates a new contact repository
func NewContactRepository(db *gorm.DB) ContactRepository {
	return &ContactRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Contact, models.ContactFilter](db),
	}
}

// ListByClient returns all contacts of a client, primary first
func (r *ContactRepositoryImpl) ListByClient(ctx context.Context, clientID uint) ([]*models.Contact, error) {
	filter := models.ContactFilter{ClientID: &clientID}
	return r.ByFilter(ctx, filter, "is_primary DESC, created_at ASC", 0, 0)
}

// ClearPrimary unsets the primary flag for all of a client's contacts,
// optionally excluding one. Callers wrap this together with the subsequent
// set in a single transaction to preserve the single-primary invariant.
func (r *ContactRepositoryImpl) ClearPrimary(ctx context.Context, clientID uint, exceptID *uint) error {
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

	query := db.Model(&models.Contact{}).Where("client_id = ? AND is_primary = ?", clientID, true)
	if exceptID != nil {
		query = query.Where("id != ?", *exceptID)
	}

	if e := query.Updates(map[string]any{
		"is_primary": false,
		"updated_at": utils.UTCNow(),
	}).Error; e != nil {
		err = e
		return err
	}
	return nil
}

// applyFilter applies filter criteria to a GORM query
func (r *ContactRepositoryImpl) applyFilter(query *gorm.DB, filter models.ContactFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.UUID != nil {
		query = query.Where("uuid = ?", *filter.UUID)
	}
	if filter.ClientID != nil {
		query = query.Where("client_id = ?", *filter.ClientID)
	}
	if filter.IsPrimary != nil {
		query = query.Where("is_primary = ?", *filter.IsPrimary)
	}
	return query
}

// ByFilter retrieves contacts based on filter criteria
func (r *ContactRepositoryImpl) ByFilter(ctx context.Context, filter models.ContactFilter, orderBy string, limit, offset int) ([]*models.Contact, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.Contact{})

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

	var contacts []*models.Contact
	if err := query.Find(&contacts).Error; err != nil {
		return nil, err
	}
	return contacts, nil
}

// Count returns the number of contacts matching the filter
func (r *ContactRepositoryImpl) Count(ctx context.Context, filter models.ContactFilter) (int64, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.Contact{})
	query = r.applyFilter(query, filter)

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Exists checks if any contact matching the filter exists
func (r *ContactRepositoryImpl) Exists(ctx context.Context, filter models.ContactFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Update updates mutable fields for a contact by ID
func (r *ContactRepositoryImpl) Update(ctx context.Context, contact *models.Contact) error {
	if contact == nil {
		return errors.New("contact payload is nil")
	}
	if contact.ID == 0 {
		return errors.New("contact ID is required for update")
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
	if contact.Name != "" {
		updates["name"] = contact.Name
	}
	if contact.Email != nil {
		updates["email"] = *contact.Email
	}
	if contact.Phone != nil {
		updates["phone"] = *contact.Phone
	}
	if contact.Role != nil {
		updates["role"] = *contact.Role
	}
	if contact.IsPrimary != nil {
		updates["is_primary"] = *contact.IsPrimary
	}

	result := db.Model(&models.Contact{}).
		Where("id = ?", contact.ID).
		Updates(updates)

	if result.Error != nil {
		err = result.Error
		return err
	}
	if result.RowsAffected == 0 {
		err = errors.New("contact not found with ID: " + strconv.Itoa(int(contact.ID)))
		return err
	}
	return nil
}

// Delete removes a contact row
func (r *ContactRepositoryImpl) Delete(ctx context.Context, contactID uint) error {
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

	result := db.Delete(&models.Contact{}, contactID)
	if result.Error != nil {
		err = result.Error
		return err
	}
	if result.RowsAffected == 0 {
		err = errors.New("contact not found with ID: " + strconv.Itoa(int(contactID)))
		return err
	}
	return nil
}
