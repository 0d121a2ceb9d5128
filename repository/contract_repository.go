// Package repository provides data access layer implementations and interfaces for database operations
package repository

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/talonsoft/fieldops/models"
	"github.com/talonsoft/fieldops/utils"
	"gorm.io/gorm"
)

// ContractRepositoryImpl implements ContractRepository interface
type ContractRepositoryImpl struct {
	*BaseRepository[models.Contract, models.ContractFilter]
}

// NewContractRepository creates a new contract repository
func NewContractRepository(db *gorm.DB) ContractRepository {
	return &ContractRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Contract, models.ContractFilter](db),
	}
}

// ListByClient returns all contracts of a client, newest first
func (r *ContractRepositoryImpl) ListByClient(ctx context.Context, clientID uint) ([]*models.Contract, error) {
	filter := models.ContractFilter{ClientID: &clientID}
	return r.ByFilter(ctx, filter, "created_at DESC", 0, 0)
}

// ActiveForClient resolves the contract in effect for a client at the given
// instant. Overlapping active contracts are permitted; the latest start date
// wins, ties broken by highest ID.
func (r *ContractRepositoryImpl) ActiveForClient(ctx context.Context, clientID uint, at time.Time) (*models.Contract, error) {
	status := models.ContractStatusActive
	filter := models.ContractFilter{
		ClientID: &clientID,
		Status:   &status,
		ActiveAt: &at,
	}
	items, err := r.ByFilter(ctx, filter, "start_date DESC, id DESC", 1, 0)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, nil
	}
	return items[0], nil
}

// applyFilter applies filter criteria to a GORM query
func (r *ContractRepositoryImpl) applyFilter(query *gorm.DB, filter models.ContractFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.UUID != nil {
		query = query.Where("uuid = ?", *filter.UUID)
	}
	if filter.ClientID != nil {
		query = query.Where("client_id = ?", *filter.ClientID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.ActiveAt != nil {
		query = query.Where("start_date <= ? AND (end_date IS NULL OR end_date >= ?)", *filter.ActiveAt, *filter.ActiveAt)
	}
	if filter.StartBefore != nil {
		query = query.Where("start_date < ?", *filter.StartBefore)
	}
	if filter.StartAfter != nil {
		query = query.Where("start_date > ?", *filter.StartAfter)
	}
	return query
}

// ByFilter retrieves contracts based on filter criteria
func (r *ContractRepositoryImpl) ByFilter(ctx context.Context, filter models.ContractFilter, orderBy string, limit, offset int) ([]*models.Contract, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.Contract{})

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

	var contracts []*models.Contract
	if err := query.Find(&contracts).Error; err != nil {
		return nil, err
	}
	return contracts, nil
}

// Count returns the number of contracts matching the filter
func (r *ContractRepositoryImpl) Count(ctx context.Context, filter models.ContractFilter) (int64, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.Contract{})
	query = r.applyFilter(query, filter)

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Exists checks if any contract matching the filter exists
func (r *ContractRepositoryImpl) Exists(ctx context.Context, filter models.ContractFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Update updates mutable fields for a contract by ID
func (r *ContractRepositoryImpl) Update(ctx context.Context, contract *models.Contract) error {
	if contract == nil {
		return errors.New("contract payload is nil")
	}
	if contract.ID == 0 {
		return errors.New("contract ID is required for update")
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
	if contract.ContractNumber != nil {
		updates["contract_number"] = *contract.ContractNumber
	}
	if !contract.StartDate.IsZero() {
		updates["start_date"] = contract.StartDate
	}
	if contract.EndDate != nil {
		updates["end_date"] = *contract.EndDate
	}
	if contract.ResponseMinutes != 0 {
		updates["response_minutes"] = contract.ResponseMinutes
	}
	if contract.ResolutionMinutes != 0 {
		updates["resolution_minutes"] = contract.ResolutionMinutes
	}
	if contract.FileURL != nil {
		updates["file_url"] = *contract.FileURL
	}
	if contract.Status != "" {
		updates["status"] = contract.Status
	}

	result := db.Model(&models.Contract{}).
		Where("id = ?", contract.ID).
		Updates(updates)

	if result.Error != nil {
		err = result.Error
		return err
	}
	if result.RowsAffected == 0 {
		err = errors.New("contract not found with ID: " + strconv.Itoa(int(contract.ID)))
		return err
	}
	return nil
}

// Delete removes a contract row
func (r *ContractRepositoryImpl) Delete(ctx context.Context, contractID uint) error {
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

	result := db.Delete(&models.Contract{}, contractID)
	if result.Error != nil {
		err = result.Error
		return err
	}
	if result.RowsAffected == 0 {
		err = errors.New("contract not found with ID: " + strconv.Itoa(int(contractID)))
		return err
	}
	return nil
}
