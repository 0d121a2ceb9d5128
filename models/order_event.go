package models

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/talonsoft/fieldops/utils"
	"gorm.io/gorm"
)

// OrderEventType classifies audit records on an order
type OrderEventType string

const (
	OrderEventStatusChanged OrderEventType = "status_changed"
	OrderEventAssigned      OrderEventType = "assigned"
	OrderEventUnassigned    OrderEventType = "unassigned"
	OrderEventCheckIn       OrderEventType = "check_in"
	OrderEventCheckOut      OrderEventType = "check_out"
	OrderEventCancelled     OrderEventType = "cancelled"
	OrderEventCompleted     OrderEventType = "completed"
	OrderEventSLARestamped  OrderEventType = "sla_restamped"
)

// String returns the string representation of the event type
func (t OrderEventType) String() string {
	return string(t)
}

// Valid checks if the event type is valid
func (t OrderEventType) Valid() bool {
	switch t {
	case OrderEventStatusChanged, OrderEventAssigned, OrderEventUnassigned,
		OrderEventCheckIn, OrderEventCheckOut, OrderEventCancelled,
		OrderEventCompleted, OrderEventSLARestamped:
		return true
	default:
		return false
	}
}

// Scan implements the sql.Scanner interface for OrderEventType
func (t *OrderEventType) Scan(value any) error {
	if value == nil {
		*t = ""
		return nil
	}

	switch v := value.(type) {
	case string:
		*t = OrderEventType(v)
	case []byte:
		*t = OrderEventType(string(v))
	default:
		return fmt.Errorf("cannot scan %T into OrderEventType", value)
	}

	return nil
}

// Value implements the driver.Valuer interface for OrderEventType
func (t OrderEventType) Value() (driver.Value, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("invalid OrderEventType: %s", t)
	}
	return string(t), nil
}

// OrderEvent is an immutable audit record of a lifecycle transition or
// notable action on an order. Rows are append-only and never updated.
type OrderEvent struct {
	ID         uint           `gorm:"primaryKey" json:"id"`
	UUID       uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:uk_order_events_uuid" json:"uuid"`
	OrderID    uint           `gorm:"not null;index:idx_order_events_order_id" json:"order_id"`
	EventType  OrderEventType `gorm:"type:varchar(30);not null" json:"event_type"`
	FromStatus *OrderStatus   `gorm:"type:varchar(20)" json:"from_status,omitempty"`
	ToStatus   *OrderStatus   `gorm:"type:varchar(20)" json:"to_status,omitempty"`
	ActorID    uint           `gorm:"not null" json:"actor_id"`
	Latitude   *float64       `json:"latitude,omitempty"`
	Longitude  *float64       `json:"longitude,omitempty"`
	Notes      *string        `gorm:"type:text" json:"notes,omitempty"`
	CreatedAt  time.Time      `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_order_events_created_at" json:"created_at"`

	// Relations
	Order *Order `gorm:"foreignKey:OrderID;references:ID" json:"order,omitempty"`
	Actor *User  `gorm:"foreignKey:ActorID;references:ID" json:"actor,omitempty"`
}

// TableName returns the table name for the model
func (OrderEvent) TableName() string {
	return "order_events"
}

// BeforeCreate is called before creating a new record
func (e *OrderEvent) BeforeCreate(tx *gorm.DB) error {
	if e.UUID == uuid.Nil {
		e.UUID = uuid.New()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = utils.UTCNow()
	}
	return nil
}

// OrderEventFilter represents filter criteria for order events
type OrderEventFilter struct {
	ID        *uint           `json:"id,omitempty"`
	OrderID   *uint           `json:"order_id,omitempty"`
	EventType *OrderEventType `json:"event_type,omitempty"`
	ActorID   *uint           `json:"actor_id,omitempty"`
}
