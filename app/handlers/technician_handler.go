// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"log"

	"github.com/gofiber/fiber/v3"
	"github.com/talonsoft/fieldops/app/dto"
	businessflow "github.com/talonsoft/fieldops/business_flow"
)

// TechnicianHandlerInterface defines the contract for technician roster handlers
type TechnicianHandlerInterface interface {
	ListTechnicians(c fiber.Ctx) error
	GetTechnician(c fiber.Ctx) error
}

// TechnicianHandler handles technician roster HTTP requests
type TechnicianHandler struct {
	technicianFlow businessflow.TechnicianFlow
}

// NewTechnicianHandler creates a new technician handler
func NewTechnicianHandler(technicianFlow businessflow.TechnicianFlow) *TechnicianHandler {
	return &TechnicianHandler{technicianFlow: technicianFlow}
}

func (h *TechnicianHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *TechnicianHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// ListTechnicians returns active technicians with live location and workload
func (h *TechnicianHandler) ListTechnicians(c fiber.Ctx) error {
	availableOnly := c.Query("available") == "true"
	result, err := h.technicianFlow.ListTechnicians(requestContext(c, "/api/v1/technicians"), availableOnly)
	if err != nil {
		log.Println("Failed to list technicians", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to list technicians", "TECHNICIAN_LIST_FAILED", nil)
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Technicians retrieved", result)
}

// GetTechnician returns one technician with live location and workload
func (h *TechnicianHandler) GetTechnician(c fiber.Ctx) error {
	technicianID, err := paramUint(c, "id")
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid technician ID", "INVALID_TECHNICIAN_ID", nil)
	}

	result, err := h.technicianFlow.GetTechnician(requestContext(c, "/api/v1/technicians/:id"), technicianID)
	if err != nil {
		switch {
		case businessflow.IsTechnicianNotFound(err):
			return h.ErrorResponse(c, fiber.StatusNotFound, "Technician not found", "TECHNICIAN_NOT_FOUND", nil)
		case businessflow.IsNotATechnician(err):
			return h.ErrorResponse(c, fiber.StatusNotFound, "Technician not found", "TECHNICIAN_NOT_FOUND", nil)
		}
		log.Println("Failed to get technician", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to get technician", "TECHNICIAN_GET_FAILED", nil)
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Technician retrieved", result)
}
