package models

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/talonsoft/fieldops/utils"
	"gorm.io/gorm"
)

// OrderStatus represents the lifecycle state of a work order
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusAssigned   OrderStatus = "assigned"
	OrderStatusEnRoute    OrderStatus = "en_route"
	OrderStatusInProgress OrderStatus = "in_progress"
	OrderStatusCompleted  OrderStatus = "completed"
	OrderStatusCancelled  OrderStatus = "cancelled"
	OrderStatusOnHold     OrderStatus = "on_hold"
)

// String returns the string representation of the status
func (s OrderStatus) String() string {
	return string(s)
}

// Valid checks if the status is valid
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusAssigned, OrderStatusEnRoute,
		OrderStatusInProgress, OrderStatusCompleted, OrderStatusCancelled,
		OrderStatusOnHold:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether the status ends the order lifecycle
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusCancelled
}

// Scan implements the sql.Scanner interface for OrderStatus
func (s *OrderStatus) Scan(value any) error {
	if value == nil {
		*s = ""
		return nil
	}

	switch v := value.(type) {
	case string:
		*s = OrderStatus(v)
	case []byte:
		*s = OrderStatus(string(v))
	default:
		return fmt.Errorf("cannot scan %T into OrderStatus", value)
	}

	return nil
}

// Value implements the driver.Valuer interface for OrderStatus
func (s OrderStatus) Value() (driver.Value, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("invalid OrderStatus: %s", s)
	}
	return string(s), nil
}

// OrderPriority represents the dispatch priority of an order
type OrderPriority string

const (
	OrderPriorityLow    OrderPriority = "low"
	OrderPriorityMedium OrderPriority = "medium"
	OrderPriorityHigh   OrderPriority = "high"
	OrderPriorityUrgent OrderPriority = "urgent"
)

// String returns the string representation of the priority
func (p OrderPriority) String() string {
	return string(p)
}

// Valid checks if the priority is valid
func (p OrderPriority) Valid() bool {
	switch p {
	case OrderPriorityLow, OrderPriorityMedium, OrderPriorityHigh, OrderPriorityUrgent:
		return true
	default:
		return false
	}
}

// Scan implements the sql.Scanner interface for OrderPriority
func (p *OrderPriority) Scan(value any) error {
	if value == nil {
		*p = ""
		return nil
	}

	switch v := value.(type) {
	case string:
		*p = OrderPriority(v)
	case []byte:
		*p = OrderPriority(string(v))
	default:
		return fmt.Errorf("cannot scan %T into OrderPriority", value)
	}

	return nil
}

// Value implements the driver.Valuer interface for OrderPriority
func (p OrderPriority) Value() (driver.Value, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("invalid OrderPriority: %s", p)
	}
	return string(p), nil
}

// orderTransitions is the lifecycle transition table. A status missing from
// the map (completed, cancelled) accepts no further transitions.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:    {OrderStatusAssigned, OrderStatusCancelled},
	OrderStatusAssigned:   {OrderStatusEnRoute, OrderStatusCancelled, OrderStatusPending},
	OrderStatusEnRoute:    {OrderStatusInProgress, OrderStatusOnHold, OrderStatusCancelled},
	OrderStatusInProgress: {OrderStatusCompleted, OrderStatusOnHold, OrderStatusCancelled},
	OrderStatusOnHold:     {OrderStatusInProgress, OrderStatusCancelled},
}

// Order represents a unit of dispatchable field-service work. SLA deadlines
// are stamped at creation from the client's contract (or system defaults) and
// only change through an explicit recalculation.
type Order struct {
	ID                   uint          `gorm:"primaryKey" json:"id"`
	UUID                 uuid.UUID     `gorm:"type:uuid;not null;uniqueIndex:uk_orders_uuid" json:"uuid"`
	OrderNumber          string        `gorm:"size:100;not null;uniqueIndex:uk_orders_order_number" json:"order_number"`
	ClientID             uint          `gorm:"not null;index:idx_orders_client_id" json:"client_id"`
	SiteID               uint          `gorm:"not null;index:idx_orders_site_id" json:"site_id"`
	ServiceTypeID        uint          `gorm:"not null" json:"service_type_id"`
	AssignedTechnicianID *uint         `gorm:"index:idx_orders_assigned_technician_id" json:"assigned_technician_id,omitempty"`
	Status               OrderStatus   `gorm:"type:varchar(20);not null;default:'pending';index:idx_orders_status" json:"status"`
	Priority             OrderPriority `gorm:"type:varchar(10);not null;default:'medium'" json:"priority"`
	ScheduledStart       time.Time     `gorm:"not null;index:idx_orders_scheduled_start" json:"scheduled_start"`
	ScheduledEnd         *time.Time    `json:"scheduled_end,omitempty"`
	ResponseDeadline     time.Time     `gorm:"not null" json:"response_deadline"`
	ResolutionDeadline   time.Time     `gorm:"not null;index:idx_orders_resolution_deadline" json:"resolution_deadline"`
	ActualStart          *time.Time    `json:"actual_start,omitempty"`
	ActualEnd            *time.Time    `json:"actual_end,omitempty"`
	Notes                *string       `gorm:"type:text" json:"notes,omitempty"`
	CreatedByID          uint          `gorm:"not null" json:"created_by_id"`
	CreatedAt            time.Time     `gorm:"default:(CURRENT_TIMESTAMP AT TIME ZONE 'UTC');index:idx_orders_created_at" json:"created_at"`
	UpdatedAt            *time.Time    `json:"updated_at,omitempty"`

	// Relations
	Client             *Client      `gorm:"foreignKey:ClientID;references:ID" json:"client,omitempty"`
	Site               *Site        `gorm:"foreignKey:SiteID;references:ID" json:"site,omitempty"`
	ServiceType        *ServiceType `gorm:"foreignKey:ServiceTypeID;references:ID" json:"service_type,omitempty"`
	AssignedTechnician *User        `gorm:"foreignKey:AssignedTechnicianID;references:ID" json:"assigned_technician,omitempty"`
	Events             []OrderEvent `gorm:"foreignKey:OrderID" json:"events,omitempty"`
}

// TableName returns the table name for the model
func (Order) TableName() string {
	return "orders"
}

// BeforeCreate is called before creating a new record
func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.UUID == uuid.Nil {
		o.UUID = uuid.New()
	}
	if o.Status == "" {
		o.Status = OrderStatusPending
	}
	if o.Priority == "" {
		o.Priority = OrderPriorityMedium
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = utils.UTCNow()
	}
	return nil
}

// BeforeUpdate is called before updating a record
func (o *Order) BeforeUpdate(tx *gorm.DB) error {
	now := utils.UTCNow()
	o.UpdatedAt = &now
	return nil
}

// CanTransitionTo checks whether the order may move to the given status
func (o *Order) CanTransitionTo(newStatus OrderStatus) bool {
	for _, allowed := range orderTransitions[o.Status] {
		if allowed == newStatus {
			return true
		}
	}
	return false
}

// IsOpen reports whether the order is still subject to SLA monitoring
func (o *Order) IsOpen() bool {
	return !o.Status.IsTerminal()
}

// Responded reports whether the response milestone has been met: a
// technician is at least en route, or was at some point (actual_start set).
func (o *Order) Responded() bool {
	if o.ActualStart != nil {
		return true
	}
	switch o.Status {
	case OrderStatusEnRoute, OrderStatusInProgress, OrderStatusCompleted:
		return true
	default:
		return false
	}
}

// GetStatusDisplayName returns a human-readable status name
func (o *Order) GetStatusDisplayName() string {
	switch o.Status {
	case OrderStatusPending:
		return "Pending"
	case OrderStatusAssigned:
		return "Assigned"
	case OrderStatusEnRoute:
		return "En Route"
	case OrderStatusInProgress:
		return "In Progress"
	case OrderStatusCompleted:
		return "Completed"
	case OrderStatusCancelled:
		return "Cancelled"
	case OrderStatusOnHold:
		return "On Hold"
	default:
		return "Unknown"
	}
}

// OrderFilter represents filter criteria for orders
type OrderFilter struct {
	ID                   *uint          `json:"id,omitempty"`
	UUID                 *uuid.UUID     `json:"uuid,omitempty"`
	OrderNumber          *string        `json:"order_number,omitempty"`
	ClientID             *uint          `json:"client_id,omitempty"`
	SiteID               *uint          `json:"site_id,omitempty"`
	AssignedTechnicianID *uint          `json:"assigned_technician_id,omitempty"`
	Status               *OrderStatus   `json:"status,omitempty"`
	Statuses             []OrderStatus  `json:"statuses,omitempty"`
	Priority             *OrderPriority `json:"priority,omitempty"`
	Open                 *bool          `json:"open,omitempty"`
	ScheduledAfter       *time.Time     `json:"scheduled_after,omitempty"`
	ScheduledBefore      *time.Time     `json:"scheduled_before,omitempty"`
	CreatedAfter         *time.Time     `json:"created_after,omitempty"`
	CreatedBefore        *time.Time     `json:"created_before,omitempty"`
}
