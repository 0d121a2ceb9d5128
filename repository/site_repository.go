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

// SiteRepositoryImpl implements SiteRepository interface
type SiteRepositoryImpl struct {
	*BaseRepository[models.Site, models.SiteFilter]
}

// NewSiteRepository creates a new site repository
func NewSiteRepository(db *gorm.DB) SiteRepository {
	return &SiteRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Site, models.SiteFilter](db),
	}
}

// ListByClient returns all sites of a client, default first
func (r *SiteRepositoryImpl) ListByClient(ctx context.Context, clientID uint) ([]*models.Site, error) {
	filter := models.SiteFilter{ClientID: &clientID}
	return r.ByFilter(ctx, filter, "is_default DESC, created_at ASC", 0, 0)
}

// ClearDefault unsets the default flag for all of a client's sites,
// optionally excluding one. Same transactional contract as
// ContactRepository.ClearPrimary.
func (r *SiteRepositoryImpl) ClearDefault(ctx context.Context, clientID uint, exceptID *uint) error {
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

	query := db.Model(&models.Site{}).Where("client_id = ? AND is_default = ?", clientID, true)
	if exceptID != nil {
		query = query.Where("id != ?", *exceptID)
	}

	if e := query.Updates(map[string]any{
		"is_default": false,
		"updated_at": utils.UTCNow(),
	}).Error; e != nil {
		err = e
		return err
	}
	return nil
}

// applyFilter applies filter criteria to a GORM query
func (r *SiteRepositoryImpl) applyFilter(query *gorm.DB, filter models.SiteFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.UUID != nil {
		query = query.Where("uuid = ?", *filter.UUID)
	}
	if filter.ClientID != nil {
		query = query.Where("client_id = ?", *filter.ClientID)
	}
	if filter.IsDefault != nil {
		query = query.Where("is_default = ?", *filter.IsDefault)
	}
	return query
}

// ByFilter retrieves sites based on filter criteria
func (r *SiteRepositoryImpl) ByFilter(ctx context.Context, filter models.SiteFilter, orderBy string, limit, offset int) ([]*models.Site, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.Site{})

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

	var sites []*models.Site
	if err := query.Find(&sites).Error; err != nil {
		return nil, err
	}
	return sites, nil
}

// Count returns the number of sites matching the filter
func (r *SiteRepositoryImpl) Count(ctx context.Context, filter models.SiteFilter) (int64, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.Site{})
	query = r.applyFilter(query, filter)

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Exists checks if any site matching the filter exists
func (r *SiteRepositoryImpl) Exists(ctx context.Context, filter models.SiteFilter) (bool, error) {
	count, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Update updates mutable fields for a site by ID
func (r *SiteRepositoryImpl) Update(ctx context.Context, site *models.Site) error {
	if site == nil {
		return errors.New("site payload is nil")
	}
	if site.ID == 0 {
		return errors.New("site ID is required for update")
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
	if site.Name != "" {
		updates["name"] = site.Name
	}
	if site.Address != "" {
		updates["address"] = site.Address
	}
	if site.Latitude != nil {
		updates["latitude"] = *site.Latitude
	}
	if site.Longitude != nil {
		updates["longitude"] = *site.Longitude
	}
	if site.IsDefault != nil {
		updates["is_default"] = *site.IsDefault
	}

	result := db.Model(&models.Site{}).
		Where("id = ?", site.ID).
		Updates(updates)

	if result.Error != nil {
		err = result.Error
		return err
	}
	if result.RowsAffected == 0 {
		err = errors.New("site not found with ID: " + strconv.Itoa(int(site.ID)))
		return err
	}
	return nil
}

// Delete removes a site row
func (r *SiteRepositoryImpl) Delete(ctx context.Context, siteID uint) error {
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

	result := db.Delete(&models.Site{}, siteID)
	if result.Error != nil {
		err = result.Error
		return err
	}
	if result.RowsAffected == 0 {
		err = errors.New("site not found with ID: " + strconv.Itoa(int(siteID)))
		return err
	}
	return nil
}
