// Package dto contains Data Transfer Objects for API request and response structures
package dto

import "time"

// CreateOrderRequest represents the request to create a work order
type CreateOrderRequest struct {
	ClientID       uint    `json:"client_id" validate:"required" example:"42"`
	SiteID         uint    `json:"site_id" validate:"required" example:"7"`
	ServiceTypeID  uint    `json:"service_type_id" validate:"required" example:"3"`
	Priority       *string `json:"priority,omitempty" validate:"omitempty,oneof=low medium high urgent"`
	ScheduledStart string  `json:"scheduled_start" validate:"required" example:"2024-01-15T09:00:00Z"`
	ScheduledEnd   *string `json:"scheduled_end,omitempty"`
	Notes          *string `json:"notes,omitempty" validate:"omitempty,max=5000"`
}

// UpdateOrderRequest represents the request to update order details that do
// not participate in the lifecycle
type UpdateOrderRequest struct {
	Priority       *string `json:"priority,omitempty" validate:"omitempty,oneof=low medium high urgent"`
	ScheduledStart *string `json:"scheduled_start,omitempty"`
	ScheduledEnd   *string `json:"scheduled_end,omitempty"`
	Notes          *string `json:"notes,omitempty" validate:"omitempty,max=5000"`
}

// TransitionOrderRequest represents the request to move an order to a new
// lifecycle status
type TransitionOrderRequest struct {
	Status string  `json:"status" validate:"required,oneof=pending assigned en_route in_progress completed cancelled on_hold" example:"en_route"`
	Notes  *string `json:"notes,omitempty" validate:"omitempty,max=5000"`
}

// AssignOrderRequest represents the request to assign a technician
type AssignOrderRequest struct {
	TechnicianID uint    `json:"technician_id" validate:"required" example:"15"`
	Notes        *string `json:"notes,omitempty" validate:"omitempty,max=5000"`
}

// CheckInRequest represents a technician arriving on site
type CheckInRequest struct {
	Latitude  *float64 `json:"latitude,omitempty" validate:"omitempty,min=-90,max=90"`
	Longitude *float64 `json:"longitude,omitempty" validate:"omitempty,min=-180,max=180"`
	Notes     *string  `json:"notes,omitempty" validate:"omitempty,max=5000"`
}

// CheckOutRequest represents a technician finishing work on site
type CheckOutRequest struct {
	Latitude  *float64 `json:"latitude,omitempty" validate:"omitempty,min=-90,max=90"`
	Longitude *float64 `json:"longitude,omitempty" validate:"omitempty,min=-180,max=180"`
	Notes     *string  `json:"notes,omitempty" validate:"omitempty,max=5000"`
}

// SLAStateDTO is the derived SLA classification for one deadline
type SLAStateDTO struct {
	Kind           string    `json:"kind" example:"response"`
	Deadline       time.Time `json:"deadline"`
	Classification string    `json:"classification" example:"on_track"`
	Met            *bool     `json:"met,omitempty"`
}

// OrderDTO represents a work order in API responses
type OrderDTO struct {
	ID                   uint          `json:"id"`
	UUID                 string        `json:"uuid"`
	OrderNumber          string        `json:"order_number"`
	ClientID             uint          `json:"client_id"`
	SiteID               uint          `json:"site_id"`
	ServiceTypeID        uint          `json:"service_type_id"`
	AssignedTechnicianID *uint         `json:"assigned_technician_id,omitempty"`
	Status               string        `json:"status"`
	StatusDisplay        string        `json:"status_display"`
	Priority             string        `json:"priority"`
	ScheduledStart       time.Time     `json:"scheduled_start"`
	ScheduledEnd         *time.Time    `json:"scheduled_end,omitempty"`
	ResponseDeadline     time.Time     `json:"response_deadline"`
	ResolutionDeadline   time.Time     `json:"resolution_deadline"`
	ActualStart          *time.Time    `json:"actual_start,omitempty"`
	ActualEnd            *time.Time    `json:"actual_end,omitempty"`
	Notes                *string       `json:"notes,omitempty"`
	SLA                  []SLAStateDTO `json:"sla,omitempty"`
	CreatedAt            time.Time     `json:"created_at"`
}

// OrderEventDTO represents an audit record in API responses
type OrderEventDTO struct {
	ID         uint      `json:"id"`
	UUID       string    `json:"uuid"`
	OrderID    uint      `json:"order_id"`
	EventType  string    `json:"event_type"`
	FromStatus *string   `json:"from_status,omitempty"`
	ToStatus   *string   `json:"to_status,omitempty"`
	ActorID    uint      `json:"actor_id"`
	Latitude   *float64  `json:"latitude,omitempty"`
	Longitude  *float64  `json:"longitude,omitempty"`
	Notes      *string   `json:"notes,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// ListOrdersRequest represents query filters for order listings
type ListOrdersRequest struct {
	ClientID     *uint   `query:"client_id"`
	TechnicianID *uint   `query:"technician_id"`
	Status       *string `query:"status" validate:"omitempty,oneof=pending assigned en_route in_progress completed cancelled on_hold"`
	Priority     *string `query:"priority" validate:"omitempty,oneof=low medium high urgent"`
	Open         *bool   `query:"open"`
	Page         int     `query:"page" validate:"omitempty,min=1"`
	PageSize     int     `query:"page_size" validate:"omitempty,min=1,max=100"`
}

// OrderListDTO is a paginated order listing
type OrderListDTO struct {
	Items    []OrderDTO `json:"items"`
	Total    int64      `json:"total"`
	Page     int        `json:"page"`
	PageSize int        `json:"page_size"`
}
