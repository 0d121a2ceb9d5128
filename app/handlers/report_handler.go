// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"log"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/talonsoft/fieldops/app/dto"
	businessflow "github.com/talonsoft/fieldops/business_flow"
)

// ReportHandlerInterface defines the contract for report handlers
type ReportHandlerInterface interface {
	OrdersReport(c fiber.Ctx) error
}

// ReportHandler handles downloadable report requests
type ReportHandler struct {
	reportFlow businessflow.ReportFlow
	validator  *validator.Validate
}

// NewReportHandler creates a new report handler
func NewReportHandler(reportFlow businessflow.ReportFlow) *ReportHandler {
	return &ReportHandler{
		reportFlow: reportFlow,
		validator:  validator.New(),
	}
}

func (h *ReportHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

// OrdersReport streams the filtered orders as an xlsx download
func (h *ReportHandler) OrdersReport(c fiber.Ctx) error {
	var req dto.ListOrdersRequest
	if err := c.Bind().Query(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid query parameters", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationMessages(err))
	}

	content, filename, err := h.reportFlow.OrdersReport(requestContext(c, "/api/v1/reports/orders.xlsx"), &req)
	if err != nil {
		log.Println("Failed to build orders report", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to build orders report", "REPORT_FAILED", nil)
	}

	c.Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	return c.Send(content)
}
