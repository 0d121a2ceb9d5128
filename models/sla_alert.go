package models

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/talonsoft/fieldops/utils"
	"gorm.io/gorm"
)

// SLAClass is the advisory urgency classification of an open order against
// one of its deadlines. It is derived, never stored on the order itself.
type SLAClass string

const (
	SLAClassOnTrack  SLAClass = "on_track"
	SLAClassWarning  SLAClass = "warning"
	SLAClassBreached SLAClass = "breached"
)

// String returns the string representation of the classification
func (c SLAClass) String() string {
	return string(c)
}

// Valid checks if the classification is valid
func (c SLAClass) Valid() bool {
	switch c {
	case SLAClassOnTrack, SLAClassWarning, SLAClassBreached:
		return true
	default:
		return false
	}
}

// Severity orders classifications so the monitor can detect upward
// transitions: on_track < warning < breached.
func (c SLAClass) Severity() int {
	switch c {
	case SLAClassWarning:
		return 1
	case SLAClassBreached:
		return 2
	default:
		return 0
	}
}

// Scan implements the sql.Scanner interface for SLAClass
func (c *SLAClass) Scan(value any) error {
	if value == nil {
		*c = ""
		return nil
	}

	switch v := value.(type) {
	case string:
		*c = SLAClass(v)
	case []byte:
		*c = SLAClass(string(v))
	default:
		return fmt.Errorf("cannot scan %T into SLAClass", value)
	}

	return nil
}

// Value implements the driver.Valuer interface for SLAClass
func (c SLAClass) Value() (driver.Value, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("invalid SLAClass: %s", c)
	}
	return string(c), nil
}

// SLAKind distinguishes the two deadlines an order carries
type SLAKind string

const (
	SLAKindResponse   SLAKind = "response"
	SLAKindResolution SLAKind = "resolution"
)

// String returns the string representation of the kind
func (k SLAKind) String() string {
	return string(k)
}

// Valid checks if the kind is valid
func (k SLAKind) Valid() bool {
	return k == SLAKindResponse || k == SLAKindResolution
}

// Scan implements the sql.Scanner interface for SLAKind
func (k *SLAKind) Scan(value any) error {
	if value == nil {
		*k = ""
		return nil
	}

	switch v := value.(type) {
	case string:
		*k = SLAKind(v)
	case []byte:
		*k = SLAKind(string(v))
	default:
		return fmt.Errorf("cannot scan %T into SLAKind", value)
	}

	return nil
}

// Value implements the driver.Valuer interface for SLAKind
func (k SLAKind) Value() (driver.Value, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("invalid SLAKind: %s", k)
	}
	return string(k), nil
}

// SLAAlert records that the monitor saw an order cross into a worse
// classification. The latest row per order and kind is the monitor's memory
// for edge-triggered alerting; rows are append-only.
type SLAAlert struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	UUID           uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uk_sla_alerts_uuid" json:"uuid"`
	OrderID        uint      `gorm:"not null;index:idx_sla_alerts_order_id" json:"order_id"`
	Kind           SLAKind   `gorm:"type:varchar(12);not null" json:"kind"`
	Classification SLAClass  `gorm:"type:varchar(12);not null" json:"classification"`
	Deadline       time.Time `gorm:"not null" json:"deadline"`
	CreatedAt      time.Time `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_sla_alerts_created_at" json:"created_at"`

	// Relations
	Order *Order `gorm:"foreignKey:OrderID;references:ID" json:"order,omitempty"`
}

// TableName returns the table name for the model
func (SLAAlert) TableName() string {
	return "sla_alerts"
}

// BeforeCreate is called before creating a new record
func (a *SLAAlert) BeforeCreate(tx *gorm.DB) error {
	if a.UUID == uuid.Nil {
		a.UUID = uuid.New()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = utils.UTCNow()
	}
	return nil
}

// SLAAlertFilter represents filter criteria for SLA alerts
type SLAAlertFilter struct {
	ID      *uint     `json:"id,omitempty"`
	OrderID *uint     `json:"order_id,omitempty"`
	Kind    *SLAKind  `json:"kind,omitempty"`
	Class   *SLAClass `json:"classification,omitempty"`
}
