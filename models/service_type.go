package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/talonsoft/fieldops/utils"
	"gorm.io/gorm"
)

// ServiceType categorizes orders (installation, repair, maintenance, ...).
// SLA budgets come from the client's contract or the system defaults, not
// from the service type.
type ServiceType struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UUID        uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uk_service_types_uuid" json:"uuid"`
	Name        string    `gorm:"size:255;not null;uniqueIndex:uk_service_types_name" json:"name"`
	Description *string   `gorm:"type:text" json:"description,omitempty"`
	IsActive    *bool     `gorm:"not null;default:true" json:"is_active"`
	CreatedAt   time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
}

// TableName returns the table name for the model
func (ServiceType) TableName() string {
	return "service_types"
}

// BeforeCreate is called before creating a new record
func (s *ServiceType) BeforeCreate(tx *gorm.DB) error {
	if s.UUID == uuid.Nil {
		s.UUID = uuid.New()
	}
	if s.IsActive == nil {
		s.IsActive = utils.ToPtr(true)
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = utils.UTCNow()
	}
	return nil
}

// ServiceTypeFilter represents filter criteria for service types
type ServiceTypeFilter struct {
	ID       *uint      `json:"id,omitempty"`
	UUID     *uuid.UUID `json:"uuid,omitempty"`
	Name     *string    `json:"name,omitempty"`
	IsActive *bool      `json:"is_active,omitempty"`
}
