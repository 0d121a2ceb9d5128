package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/talonsoft/fieldops/utils"
	"gorm.io/gorm"
)

// Contact represents a person associated with a client. At most one contact
// per client carries the primary flag; flipping it is done inside a single
// transaction (see ClientFlow.SetPrimaryContact).
type Contact struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UUID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uk_contacts_uuid" json:"uuid"`
	ClientID  uint      `gorm:"not null;index:idx_contacts_client_id" json:"client_id"`
	Name      string    `gorm:"size:255;not null" json:"name"`
	Email     *string   `gorm:"size:255" json:"email,omitempty"`
	Phone     *string   `gorm:"size:50" json:"phone,omitempty"`
	Role      *string   `gorm:"size:100" json:"role,omitempty"`
	IsPrimary *bool     `gorm:"not null;default:false;index:idx_contacts_is_primary" json:"is_primary"`
	CreatedAt time.Time  `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`

	// Relations
	Client *Client `gorm:"foreignKey:ClientID;references:ID" json:"client,omitempty"`
}

// TableName returns the table name for the model
func (Contact) TableName() string {
	return "client_contacts"
}

// BeforeCreate is called before creating a new record
func (c *Contact) BeforeCreate(tx *gorm.DB) error {
	if c.UUID == uuid.Nil {
		c.UUID = uuid.New()
	}
	if c.IsPrimary == nil {
		c.IsPrimary = utils.ToPtr(false)
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = utils.UTCNow()
	}
	return nil
}

// BeforeUpdate is called before updating a record
func (c *Contact) BeforeUpdate(tx *gorm.DB) error {
	now := utils.UTCNow()
	c.UpdatedAt = &now
	return nil
}

// ContactFilter represents filter criteria for contacts
type ContactFilter struct {
	ID        *uint      `json:"id,omitempty"`
	UUID      *uuid.UUID `json:"uuid,omitempty"`
	ClientID  *uint      `json:"client_id,omitempty"`
	IsPrimary *bool      `json:"is_primary,omitempty"`
}
