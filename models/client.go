package models

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/talonsoft/fieldops/utils"
	"gorm.io/gorm"
)

// ClientStatus represents the status of a client
type ClientStatus string

const (
	ClientStatusActive   ClientStatus = "active"
	ClientStatusInactive ClientStatus = "inactive"
)

// String returns the string representation of the status
func (s ClientStatus) String() string {
	return string(s)
}

// Valid checks if the status is valid
func (s ClientStatus) Valid() bool {
	switch s {
	case ClientStatusActive, ClientStatusInactive:
		return true
	default:
		return false
	}
}

// Scan implements the sql.Scanner interface for ClientStatus
func (s *ClientStatus) Scan(value any) error {
	if value == nil {
		*s = ""
		return nil
	}

	switch v := value.(type) {
	case string:
		*s = ClientStatus(v)
	case []byte:
		*s = ClientStatus(string(v))
	default:
		return fmt.Errorf("cannot scan %T into ClientStatus", value)
	}

	return nil
}

// Value implements the driver.Valuer interface for ClientStatus
func (s ClientStatus) Value() (driver.Value, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid ClientStatus: %s", s)
	}
	return string(s), nil
}

// Client represents a business entity receiving field service. Clients are
// deactivated rather than deleted so that existing orders keep their
// references.
type Client struct {
	ID        uint         `gorm:"primaryKey" json:"id"`
	UUID      uuid.UUID    `gorm:"type:uuid;not null;uniqueIndex:uk_clients_uuid" json:"uuid"`
	Name      string       `gorm:"size:255;not null;index:idx_clients_name" json:"name"`
	LegalName *string      `gorm:"size:255" json:"legal_name,omitempty"`
	Email     *string      `gorm:"size:255" json:"email,omitempty"`
	Phone     *string      `gorm:"size:50" json:"phone,omitempty"`
	Status    ClientStatus `gorm:"type:varchar(20);not null;default:'active';index:idx_clients_status" json:"status"`
	CreatedAt time.Time    `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt *time.Time   `json:"updated_at,omitempty"`

	// Relations
	Contacts  []Contact  `gorm:"foreignKey:ClientID" json:"contacts,omitempty"`
	Sites     []Site     `gorm:"foreignKey:ClientID" json:"sites,omitempty"`
	Contracts []Contract `gorm:"foreignKey:ClientID" json:"contracts,omitempty"`
}

// TableName returns the table name for the model
func (Client) TableName() string {
	return "clients"
}

// BeforeCreate is called before creating a new record
func (c *Client) BeforeCreate(tx *gorm.DB) error {
	if c.UUID == uuid.Nil {
		c.UUID = uuid.New()
	}
	if c.Status == "" {
		c.Status = ClientStatusActive
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = utils.UTCNow()
	}
	return nil
}

// BeforeUpdate is called before updating a record
func (c *Client) BeforeUpdate(tx *gorm.DB) error {
	now := utils.UTCNow()
	c.UpdatedAt = &now
	return nil
}

// IsActive reports whether the client can receive new orders
func (c *Client) IsActive() bool {
	return c.Status == ClientStatusActive
}

// ClientFilter represents filter criteria for clients
type ClientFilter struct {
	ID            *uint         `json:"id,omitempty"`
	UUID          *uuid.UUID    `json:"uuid,omitempty"`
	Name          *string       `json:"name,omitempty"`
	Status        *ClientStatus `json:"status,omitempty"`
	Search        *string       `json:"search,omitempty"`
	CreatedAfter  *time.Time    `json:"created_after,omitempty"`
	CreatedBefore *time.Time    `json:"created_before,omitempty"`
}
