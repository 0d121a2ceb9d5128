package models

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/talonsoft/fieldops/utils"
	"gorm.io/gorm"
)

// ContractStatus represents the status of a service contract
type ContractStatus string

const (
	ContractStatusActive    ContractStatus = "active"
	ContractStatusExpired   ContractStatus = "expired"
	ContractStatusCancelled ContractStatus = "cancelled"
)

// String returns the string representation of the status
func (s ContractStatus) String() string {
	return string(s)
}

// Valid checks if the status is valid
func (s ContractStatus) Valid() bool {
	switch s {
	case ContractStatusActive, ContractStatusExpired, ContractStatusCancelled:
		return true
	default:
		return false
	}
}

// Scan implements the sql.Scanner interface for ContractStatus
func (s *ContractStatus) Scan(value any) error {
	if value == nil {
		*s = ""
		return nil
	}

	switch v := value.(type) {
	case string:
		*s = ContractStatus(v)
	case []byte:
		*s = ContractStatus(string(v))
	default:
		return fmt.Errorf("cannot scan %T into ContractStatus", value)
	}

	return nil
}

// Value implements the driver.Valuer interface for ContractStatus
func (s ContractStatus) Value() (driver.Value, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid ContractStatus: %s", s)
	}
	return string(s), nil
}

// Contract defines the SLA terms for a client over a date range. EndDate nil
// means open-ended. ResponseMinutes/ResolutionMinutes are the time budgets
// stamped onto orders created while the contract is in effect.
type Contract struct {
	ID                uint           `gorm:"primaryKey" json:"id"`
	UUID              uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:uk_contracts_uuid" json:"uuid"`
	ClientID          uint           `gorm:"not null;index:idx_contracts_client_id" json:"client_id"`
	ContractNumber    *string        `gorm:"size:100" json:"contract_number,omitempty"`
	StartDate         time.Time      `gorm:"not null;index:idx_contracts_start_date" json:"start_date"`
	EndDate           *time.Time     `json:"end_date,omitempty"`
	ResponseMinutes   int            `gorm:"not null" json:"response_minutes"`
	ResolutionMinutes int            `gorm:"not null" json:"resolution_minutes"`
	FileURL           *string        `gorm:"size:500" json:"file_url,omitempty"`
	Status            ContractStatus `gorm:"type:varchar(20);not null;default:'active';index:idx_contracts_status" json:"status"`
	CreatedAt         time.Time      `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt         *time.Time     `json:"updated_at,omitempty"`

	// Relations
	Client *Client `gorm:"foreignKey:ClientID;references:ID" json:"client,omitempty"`
}

// TableName returns the table name for the model
func (Contract) TableName() string {
	return "client_contracts"
}

// BeforeCreate is called before creating a new record
func (c *Contract) BeforeCreate(tx *gorm.DB) error {
	if c.UUID == uuid.Nil {
		c.UUID = uuid.New()
	}
	if c.Status == "" {
		c.Status = ContractStatusActive
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = utils.UTCNow()
	}
	return nil
}

// BeforeUpdate is called before updating a record
func (c *Contract) BeforeUpdate(tx *gorm.DB) error {
	now := utils.UTCNow()
	c.UpdatedAt = &now
	return nil
}

// CoversAt reports whether the contract is active and its date range
// contains the given instant.
func (c *Contract) CoversAt(at time.Time) bool {
	if c.Status != ContractStatusActive {
		return false
	}
	if c.StartDate.After(at) {
		return false
	}
	if c.EndDate != nil && c.EndDate.Before(at) {
		return false
	}
	return true
}

// ContractFilter represents filter criteria for contracts
type ContractFilter struct {
	ID          *uint           `json:"id,omitempty"`
	UUID        *uuid.UUID      `json:"uuid,omitempty"`
	ClientID    *uint           `json:"client_id,omitempty"`
	Status      *ContractStatus `json:"status,omitempty"`
	ActiveAt    *time.Time      `json:"active_at,omitempty"`
	StartBefore *time.Time      `json:"start_before,omitempty"`
	StartAfter  *time.Time      `json:"start_after,omitempty"`
}
