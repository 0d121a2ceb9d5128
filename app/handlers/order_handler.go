// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"log"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/talonsoft/fieldops/app/dto"
	businessflow "github.com/talonsoft/fieldops/business_flow"
)

// OrderHandlerInterface defines the contract for work order handlers
type OrderHandlerInterface interface {
	CreateOrder(c fiber.Ctx) error
	ListOrders(c fiber.Ctx) error
	GetOrder(c fiber.Ctx) error
	UpdateOrder(c fiber.Ctx) error
	Transition(c fiber.Ctx) error
	Assign(c fiber.Ctx) error
	Unassign(c fiber.Ctx) error
	CheckIn(c fiber.Ctx) error
	CheckOut(c fiber.Ctx) error
	RecalculateSLA(c fiber.Ctx) error
	ListOrderEvents(c fiber.Ctx) error
}

// OrderHandler handles work order HTTP requests
type OrderHandler struct {
	orderFlow businessflow.OrderFlow
	validator *validator.Validate
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(orderFlow businessflow.OrderFlow) *OrderHandler {
	return &OrderHandler{
		orderFlow: orderFlow,
		validator: validator.New(),
	}
}

func (h *OrderHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *OrderHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// mapOrderError translates business errors shared by the order endpoints
func (h *OrderHandler) mapOrderError(c fiber.Ctx, err error, fallbackMessage, fallbackCode string) error {
	switch {
	case businessflow.IsOrderNotFound(err):
		return h.ErrorResponse(c, fiber.StatusNotFound, "Order not found", "ORDER_NOT_FOUND", nil)
	case businessflow.IsClientNotFound(err):
		return h.ErrorResponse(c, fiber.StatusNotFound, "Client not found", "CLIENT_NOT_FOUND", nil)
	case businessflow.IsClientInactive(err):
		return h.ErrorResponse(c, fiber.StatusUnprocessableEntity, "Client is inactive", "CLIENT_INACTIVE", nil)
	case businessflow.IsSiteNotFound(err):
		return h.ErrorResponse(c, fiber.StatusNotFound, "Site not found", "SITE_NOT_FOUND", nil)
	case businessflow.IsSiteClientMismatch(err):
		return h.ErrorResponse(c, fiber.StatusUnprocessableEntity, "Site does not belong to the client", "SITE_CLIENT_MISMATCH", nil)
	case businessflow.IsServiceTypeNotFound(err):
		return h.ErrorResponse(c, fiber.StatusNotFound, "Service type not found", "SERVICE_TYPE_NOT_FOUND", nil)
	case businessflow.IsTechnicianNotFound(err):
		return h.ErrorResponse(c, fiber.StatusNotFound, "Technician not found", "TECHNICIAN_NOT_FOUND", nil)
	case businessflow.IsNotATechnician(err):
		return h.ErrorResponse(c, fiber.StatusUnprocessableEntity, "User is not a technician", "NOT_A_TECHNICIAN", nil)
	case businessflow.IsTechnicianInactive(err):
		return h.ErrorResponse(c, fiber.StatusUnprocessableEntity, "Technician is inactive", "TECHNICIAN_INACTIVE", nil)
	case businessflow.IsInvalidTransition(err):
		return h.ErrorResponse(c, fiber.StatusConflict, err.Error(), "INVALID_TRANSITION", nil)
	case businessflow.IsOrderTerminal(err):
		return h.ErrorResponse(c, fiber.StatusConflict, "Order is in a terminal status", "ORDER_TERMINAL", nil)
	case businessflow.IsOrderNotAssigned(err):
		return h.ErrorResponse(c, fiber.StatusConflict, "Order has no assigned technician", "ORDER_NOT_ASSIGNED", nil)
	case businessflow.IsNotAssignedTechnician(err):
		return h.ErrorResponse(c, fiber.StatusForbidden, "Only the assigned technician may perform this action", "NOT_ASSIGNED_TECHNICIAN", nil)
	case businessflow.IsConcurrentModification(err):
		return h.ErrorResponse(c, fiber.StatusConflict, "Order was modified concurrently, retry with fresh state", "CONCURRENT_MODIFICATION", nil)
	case businessflow.IsCoordinateOutOfRange(err):
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Coordinates out of range", "COORDINATES_OUT_OF_RANGE", nil)
	case businessflow.IsScheduledStartRequired(err):
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Scheduled start is required", "SCHEDULED_START_REQUIRED", nil)
	case businessflow.IsRescheduleBeyondDeadline(err):
		return h.ErrorResponse(c, fiber.StatusUnprocessableEntity, "Rescheduled start is past the stamped SLA deadlines; recalculate the SLA first", "ORDER_RESCHEDULE_BEYOND_SLA", nil)
	}

	var businessErr *businessflow.BusinessError
	if asBusinessError(err, &businessErr) && businessErr.Code == "ORDER_VALIDATION_FAILED" {
		return h.ErrorResponse(c, fiber.StatusBadRequest, businessErr.Message, businessErr.Code, nil)
	}

	log.Println(fallbackMessage, err)
	return h.ErrorResponse(c, fiber.StatusInternalServerError, fallbackMessage, fallbackCode, nil)
}

// CreateOrder creates a work order and stamps its SLA deadlines
func (h *OrderHandler) CreateOrder(c fiber.Ctx) error {
	var req dto.CreateOrderRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationMessages(err))
	}

	result, err := h.orderFlow.CreateOrder(requestContext(c, "/api/v1/orders"), &req, currentActor(c), clientMetadata(c))
	if err != nil {
		return h.mapOrderError(c, err, "Failed to create order", "ORDER_CREATE_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusCreated, "Order created", result)
}

// ListOrders returns a filtered page of orders
func (h *OrderHandler) ListOrders(c fiber.Ctx) error {
	var req dto.ListOrdersRequest
	if err := c.Bind().Query(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid query parameters", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationMessages(err))
	}

	result, err := h.orderFlow.ListOrders(requestContext(c, "/api/v1/orders"), &req)
	if err != nil {
		return h.mapOrderError(c, err, "Failed to list orders", "ORDER_LIST_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Orders retrieved", result)
}

// GetOrder returns one order with its live SLA evaluation
func (h *OrderHandler) GetOrder(c fiber.Ctx) error {
	orderID, err := paramUint(c, "id")
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid order ID", "INVALID_ORDER_ID", nil)
	}

	result, err := h.orderFlow.GetOrder(requestContext(c, "/api/v1/orders/:id"), orderID)
	if err != nil {
		return h.mapOrderError(c, err, "Failed to get order", "ORDER_GET_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Order retrieved", result)
}

// UpdateOrder updates mutable order fields. Deadlines never move here.
func (h *OrderHandler) UpdateOrder(c fiber.Ctx) error {
	orderID, err := paramUint(c, "id")
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid order ID", "INVALID_ORDER_ID", nil)
	}

	var req dto.UpdateOrderRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationMessages(err))
	}

	result, err := h.orderFlow.UpdateOrder(requestContext(c, "/api/v1/orders/:id"), orderID, &req, currentActor(c), clientMetadata(c))
	if err != nil {
		return h.mapOrderError(c, err, "Failed to update order", "ORDER_UPDATE_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Order updated", result)
}

// Transition moves an order to a new lifecycle status
func (h *OrderHandler) Transition(c fiber.Ctx) error {
	orderID, err := paramUint(c, "id")
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid order ID", "INVALID_ORDER_ID", nil)
	}

	var req dto.TransitionOrderRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationMessages(err))
	}

	result, err := h.orderFlow.Transition(requestContext(c, "/api/v1/orders/:id/transition"), orderID, &req, currentActor(c), clientMetadata(c))
	if err != nil {
		return h.mapOrderError(c, err, "Failed to transition order", "ORDER_TRANSITION_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Order transitioned", result)
}

// Assign assigns or reassigns a technician to an order
func (h *OrderHandler) Assign(c fiber.Ctx) error {
	orderID, err := paramUint(c, "id")
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid order ID", "INVALID_ORDER_ID", nil)
	}

	var req dto.AssignOrderRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationMessages(err))
	}

	result, err := h.orderFlow.Assign(requestContext(c, "/api/v1/orders/:id/assign"), orderID, &req, currentActor(c), clientMetadata(c))
	if err != nil {
		return h.mapOrderError(c, err, "Failed to assign order", "ORDER_ASSIGN_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Order assigned", result)
}

// Unassign removes the technician and returns the order to pending
func (h *OrderHandler) Unassign(c fiber.Ctx) error {
	orderID, err := paramUint(c, "id")
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid order ID", "INVALID_ORDER_ID", nil)
	}

	result, err := h.orderFlow.Unassign(requestContext(c, "/api/v1/orders/:id/unassign"), orderID, currentActor(c), clientMetadata(c))
	if err != nil {
		return h.mapOrderError(c, err, "Failed to unassign order", "ORDER_UNASSIGN_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Order unassigned", result)
}

// CheckIn records on-site arrival and moves the order to in progress
func (h *OrderHandler) CheckIn(c fiber.Ctx) error {
	orderID, err := paramUint(c, "id")
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid order ID", "INVALID_ORDER_ID", nil)
	}

	var req dto.CheckInRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationMessages(err))
	}

	result, err := h.orderFlow.CheckIn(requestContext(c, "/api/v1/orders/:id/check-in"), orderID, &req, currentActor(c), clientMetadata(c))
	if err != nil {
		return h.mapOrderError(c, err, "Failed to check in", "ORDER_CHECK_IN_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Checked in", result)
}

// CheckOut records work completion and moves the order to completed
func (h *OrderHandler) CheckOut(c fiber.Ctx) error {
	orderID, err := paramUint(c, "id")
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid order ID", "INVALID_ORDER_ID", nil)
	}

	var req dto.CheckOutRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationMessages(err))
	}

	result, err := h.orderFlow.CheckOut(requestContext(c, "/api/v1/orders/:id/check-out"), orderID, &req, currentActor(c), clientMetadata(c))
	if err != nil {
		return h.mapOrderError(c, err, "Failed to check out", "ORDER_CHECK_OUT_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Checked out", result)
}

// RecalculateSLA restamps both deadlines from the contract currently in effect
func (h *OrderHandler) RecalculateSLA(c fiber.Ctx) error {
	orderID, err := paramUint(c, "id")
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid order ID", "INVALID_ORDER_ID", nil)
	}

	result, err := h.orderFlow.RecalculateSLA(requestContext(c, "/api/v1/orders/:id/sla/recalculate"), orderID, currentActor(c), clientMetadata(c))
	if err != nil {
		return h.mapOrderError(c, err, "Failed to recalculate SLA", "SLA_RECALCULATE_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "SLA recalculated", result)
}

// ListOrderEvents returns the order's audit trail in chronological order
func (h *OrderHandler) ListOrderEvents(c fiber.Ctx) error {
	orderID, err := paramUint(c, "id")
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid order ID", "INVALID_ORDER_ID", nil)
	}

	result, err := h.orderFlow.ListOrderEvents(requestContext(c, "/api/v1/orders/:id/events"), orderID)
	if err != nil {
		return h.mapOrderError(c, err, "Failed to list order events", "ORDER_EVENTS_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Order events retrieved", result)
}
