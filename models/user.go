// Package models contains the database models for the application
package models

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/talonsoft/fieldops/utils"
	"gorm.io/gorm"
)

// User roles
const (
	RoleAdmin      = "admin"
	RoleDispatcher = "dispatcher"
	RoleTechnician = "technician"
)

// UserRole represents the role of a user
type UserRole string

// String returns the string representation of the role
func (r UserRole) String() string {
	return string(r)
}

// Valid checks if the role is valid
func (r UserRole) Valid() bool {
	switch string(r) {
	case RoleAdmin, RoleDispatcher, RoleTechnician:
		return true
	default:
		return false
	}
}

// Scan implements the sql.Scanner interface for UserRole
func (r *UserRole) Scan(value any) error {
	if value == nil {
		*r = ""
		return nil
	}

	switch v := value.(type) {
	case string:
		*r = UserRole(v)
	case []byte:
		*r = UserRole(string(v))
	default:
		return fmt.Errorf("cannot scan %T into UserRole", value)
	}

	return nil
}

// Value implements the driver.Valuer interface for UserRole
func (r UserRole) Value() (driver.Value, error) {
	if !r.Valid() {
		return nil, fmt.Errorf("invalid UserRole: %s", r)
	}
	return string(r), nil
}

// User represents an authenticated actor: admins and dispatchers run the
// back office, technicians execute orders in the field.
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	UUID         uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uk_users_uuid" json:"uuid"`
	Name         string    `gorm:"size:255;not null" json:"name"`
	Email        string    `gorm:"size:255;not null;uniqueIndex:uk_users_email" json:"email"`
	Phone        *string   `gorm:"size:50" json:"phone,omitempty"`
	Role         UserRole  `gorm:"type:varchar(20);not null;index:idx_users_role" json:"role"`
	PasswordHash string    `gorm:"size:255;not null" json:"-"`
	IsActive     *bool     `gorm:"not null;default:true" json:"is_active"`
	CreatedAt    time.Time  `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC')" json:"created_at"`
	UpdatedAt    *time.Time `json:"updated_at,omitempty"`
}

// TableName returns the table name for the model
func (User) TableName() string {
	return "users"
}

// BeforeCreate is called before creating a new record
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.UUID == uuid.Nil {
		u.UUID = uuid.New()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = utils.UTCNow()
	}
	return nil
}

// BeforeUpdate is called before updating a record
func (u *User) BeforeUpdate(tx *gorm.DB) error {
	now := utils.UTCNow()
	u.UpdatedAt = &now
	return nil
}

// IsTechnician reports whether the user works in the field
func (u *User) IsTechnician() bool {
	return u.Role == RoleTechnician
}

// UserFilter represents filter criteria for users
type UserFilter struct {
	ID       *uint      `json:"id,omitempty"`
	UUID     *uuid.UUID `json:"uuid,omitempty"`
	Email    *string    `json:"email,omitempty"`
	Role     *UserRole  `json:"role,omitempty"`
	IsActive *bool      `json:"is_active,omitempty"`
}
