package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/talonsoft/fieldops/utils"
	"gorm.io/gorm"
)

// TechnicianLocation is an immutable point-in-time position report. The
// current location of a technician is the most recent active report; old
// rows are kept for history and simply fall out of live queries once past
// the freshness window.
type TechnicianLocation struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	UUID           uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uk_technician_locations_uuid" json:"uuid"`
	TechnicianID   uint      `gorm:"not null;index:idx_technician_locations_technician_id" json:"technician_id"`
	OrderID        *uint     `gorm:"index:idx_technician_locations_order_id" json:"order_id,omitempty"`
	Latitude       float64   `gorm:"not null" json:"latitude"`
	Longitude      float64   `gorm:"not null" json:"longitude"`
	AccuracyMeters *float64  `json:"accuracy_meters,omitempty"`
	IsActive       *bool     `gorm:"not null;default:true;index:idx_technician_locations_is_active" json:"is_active"`
	ReportedAt     time.Time `gorm:"not null;index:idx_technician_locations_reported_at" json:"reported_at"`
	CreatedAt      time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`

	// Relations
	Technician *User  `gorm:"foreignKey:TechnicianID;references:ID" json:"technician,omitempty"`
	Order      *Order `gorm:"foreignKey:OrderID;references:ID" json:"order,omitempty"`
}

// TableName returns the table name for the model
func (TechnicianLocation) TableName() string {
	return "technician_locations"
}

// BeforeCreate is called before creating a new record
func (l *TechnicianLocation) BeforeCreate(tx *gorm.DB) error {
	if l.UUID == uuid.Nil {
		l.UUID = uuid.New()
	}
	if l.IsActive == nil {
		l.IsActive = utils.ToPtr(true)
	}
	if l.ReportedAt.IsZero() {
		l.ReportedAt = utils.UTCNow()
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = utils.UTCNow()
	}
	return nil
}

// TechnicianLocationFilter represents filter criteria for location reports
type TechnicianLocationFilter struct {
	ID            *uint      `json:"id,omitempty"`
	TechnicianID  *uint      `json:"technician_id,omitempty"`
	OrderID       *uint      `json:"order_id,omitempty"`
	IsActive      *bool      `json:"is_active,omitempty"`
	ReportedAfter *time.Time `json:"reported_after,omitempty"`
}
