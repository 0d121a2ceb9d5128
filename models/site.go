package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/talonsoft/fieldops/utils"
	"gorm.io/gorm"
)

// Site represents a physical service location owned by a client. At most one
// site per client carries the default flag, mirroring the primary-contact
// rule.
type Site struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UUID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uk_sites_uuid" json:"uuid"`
	ClientID  uint      `gorm:"not null;index:idx_sites_client_id" json:"client_id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Address   string    `gorm:"size:500;not null" json:"address"`
	Latitude  *float64  `json:"latitude,omitempty"`
	Longitude *float64  `json:"longitude,omitempty"`
	IsDefault *bool     `gorm:"not null;default:false;index:idx_sites_is_default" json:"is_default"`
	CreatedAt time.Time  `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`

	// Relations
	Client *Client `gorm:"foreignKey:ClientID;references:ID" json:"client,omitempty"`
}

// TableName returns the table name for the model
func (Site) TableName() string {
	return "sites"
}

// BeforeCreate is called before creating a new record
func (s *Site) BeforeCreate(tx *gorm.DB) error {
	if s.UUID == uuid.Nil {
		s.UUID = uuid.New()
	}
	if s.IsDefault == nil {
		s.IsDefault = utils.ToPtr(false)
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = utils.UTCNow()
	}
	return nil
}

// BeforeUpdate is called before updating a record
func (s *Site) BeforeUpdate(tx *gorm.DB) error {
	now := utils.UTCNow()
	s.UpdatedAt = &now
	return nil
}

// SiteFilter represents filter criteria for sites
type SiteFilter struct {
	ID        *uint      `json:"id,omitempty"`
	UUID      *uuid.UUID `json:"uuid,omitempty"`
	ClientID  *uint      `json:"client_id,omitempty"`
	IsDefault *bool      `json:"is_default,omitempty"`
}
