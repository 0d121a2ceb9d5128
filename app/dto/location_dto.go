// Package dto contains Data Transfer Objects for API request and response structures
package dto

import "time"

// LocationPingRequest represents a technician position report
type LocationPingRequest struct {
	Latitude       float64  `json:"latitude" validate:"required,min=-90,max=90" example:"51.5007"`
	Longitude      float64  `json:"longitude" validate:"required,min=-180,max=180" example:"-0.1246"`
	AccuracyMeters *float64 `json:"accuracy_meters,omitempty" validate:"omitempty,min=0"`
	OrderID        *uint    `json:"order_id,omitempty"`
	ReportedAt     *string  `json:"reported_at,omitempty"`
}

// TechnicianLocationDTO represents a position report in API responses
type TechnicianLocationDTO struct {
	TechnicianID   uint      `json:"technician_id"`
	OrderID        *uint     `json:"order_id,omitempty"`
	Latitude       float64   `json:"latitude"`
	Longitude      float64   `json:"longitude"`
	AccuracyMeters *float64  `json:"accuracy_meters,omitempty"`
	ReportedAt     time.Time `json:"reported_at"`
}

// TechnicianDTO represents a technician with live dispatch context
type TechnicianDTO struct {
	ID              uint                   `json:"id"`
	UUID            string                 `json:"uuid"`
	Name            string                 `json:"name"`
	Email           string                 `json:"email"`
	Phone           *string                `json:"phone,omitempty"`
	ActiveOrders    int64                  `json:"active_orders"`
	CurrentLocation *TechnicianLocationDTO `json:"current_location,omitempty"`
}
