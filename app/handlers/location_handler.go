// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/talonsoft/fieldops/app/dto"
	"github.com/talonsoft/fieldops/app/services"
	businessflow "github.com/talonsoft/fieldops/business_flow"
)

const streamKeepaliveInterval = 30 * time.Second

// LocationHandlerInterface defines the contract for technician location handlers
type LocationHandlerInterface interface {
	Ping(c fiber.Ctx) error
	Current(c fiber.Ctx) error
	Stream(c fiber.Ctx) error
}

// LocationHandler handles location ingest and realtime streaming requests
type LocationHandler struct {
	locationFlow businessflow.LocationFlow
	broadcaster  services.LocationBroadcaster
	validator    *validator.Validate
}

// NewLocationHandler creates a new location handler
func NewLocationHandler(locationFlow businessflow.LocationFlow, broadcaster services.LocationBroadcaster) *LocationHandler {
	return &LocationHandler{
		locationFlow: locationFlow,
		broadcaster:  broadcaster,
		validator:    validator.New(),
	}
}

func (h *LocationHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *LocationHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// Ping ingests a technician position report
func (h *LocationHandler) Ping(c fiber.Ctx) error {
	var req dto.LocationPingRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationMessages(err))
	}

	result, err := h.locationFlow.IngestLocation(requestContext(c, "/api/v1/locations/ping"), &req, currentActor(c), clientMetadata(c))
	if err != nil {
		switch {
		case businessflow.IsCoordinateOutOfRange(err):
			return h.ErrorResponse(c, fiber.StatusBadRequest, "Coordinates out of range", "COORDINATES_OUT_OF_RANGE", nil)
		case businessflow.IsNotATechnician(err):
			return h.ErrorResponse(c, fiber.StatusForbidden, "Only technicians may report locations", "NOT_A_TECHNICIAN", nil)
		case businessflow.IsTechnicianNotFound(err):
			return h.ErrorResponse(c, fiber.StatusNotFound, "Technician not found", "TECHNICIAN_NOT_FOUND", nil)
		case businessflow.IsOrderNotFound(err):
			return h.ErrorResponse(c, fiber.StatusNotFound, "Order not found", "ORDER_NOT_FOUND", nil)
		}
		log.Println("Failed to ingest location", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to ingest location", "LOCATION_INGEST_FAILED", nil)
	}
	return h.SuccessResponse(c, fiber.StatusCreated, "Location recorded", result)
}

// Current returns the freshest location per technician within the freshness window
func (h *LocationHandler) Current(c fiber.Ctx) error {
	result, err := h.locationFlow.CurrentLocations(requestContext(c, "/api/v1/locations/current"))
	if err != nil {
		log.Println("Failed to load current locations", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to load current locations", "LOCATION_CURRENT_FAILED", nil)
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Current locations retrieved", result)
}

// Stream pushes live location updates to the client over server-sent events.
// The subscription is dropped as soon as the client goes away; a slow
// consumer loses updates rather than stalling the hub.
func (h *LocationHandler) Stream(c fiber.Ctx) error {
	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	updates, cancel := h.broadcaster.Subscribe()

	return c.SendStreamWriter(func(w *bufio.Writer) {
		defer cancel()

		fmt.Fprintf(w, "event: connected\ndata: {}\n\n")
		if err := w.Flush(); err != nil {
			return
		}

		keepalive := time.NewTicker(streamKeepaliveInterval)
		defer keepalive.Stop()

		for {
			select {
			case update, ok := <-updates:
				if !ok {
					return
				}
				payload, err := json.Marshal(update)
				if err != nil {
					continue
				}
				fmt.Fprintf(w, "event: location\ndata: %s\n\n", payload)
				if err := w.Flush(); err != nil {
					return
				}
			case <-keepalive.C:
				fmt.Fprintf(w, ": keepalive\n\n")
				if err := w.Flush(); err != nil {
					return
				}
			}
		}
	})
}
