// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"log"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/talonsoft/fieldops/app/dto"
	businessflow "github.com/talonsoft/fieldops/business_flow"
)

// ClientHandlerInterface defines the contract for client registry handlers
type ClientHandlerInterface interface {
	CreateClient(c fiber.Ctx) error
	UpdateClient(c fiber.Ctx) error
	DeactivateClient(c fiber.Ctx) error
	GetClient(c fiber.Ctx) error
	ListClients(c fiber.Ctx) error
	AddContact(c fiber.Ctx) error
	UpdateContact(c fiber.Ctx) error
	RemoveContact(c fiber.Ctx) error
	AddSite(c fiber.Ctx) error
	UpdateSite(c fiber.Ctx) error
	RemoveSite(c fiber.Ctx) error
	CreateContract(c fiber.Ctx) error
	UpdateContract(c fiber.Ctx) error
	DeleteContract(c fiber.Ctx) error
	ListContracts(c fiber.Ctx) error
}

// ClientHandler handles client, contact, site and contract HTTP requests
type ClientHandler struct {
	clientFlow   businessflow.ClientFlow
	contractFlow businessflow.ContractFlow
	validator    *validator.Validate
}

// NewClientHandler creates a new client handler
func NewClientHandler(clientFlow businessflow.ClientFlow, contractFlow businessflow.ContractFlow) *ClientHandler {
	return &ClientHandler{
		clientFlow:   clientFlow,
		contractFlow: contractFlow,
		validator:    validator.New(),
	}
}

func (h *ClientHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *ClientHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// mapClientError translates business errors shared by the client endpoints
func (h *ClientHandler) mapClientError(c fiber.Ctx, err error, fallbackMessage, fallbackCode string) error {
	switch {
	case businessflow.IsClientNotFound(err):
		return h.ErrorResponse(c, fiber.StatusNotFound, "Client not found", "CLIENT_NOT_FOUND", nil)
	case businessflow.IsContactNotFound(err):
		return h.ErrorResponse(c, fiber.StatusNotFound, "Contact not found", "CONTACT_NOT_FOUND", nil)
	case businessflow.IsSiteNotFound(err):
		return h.ErrorResponse(c, fiber.StatusNotFound, "Site not found", "SITE_NOT_FOUND", nil)
	case businessflow.IsContractNotFound(err):
		return h.ErrorResponse(c, fiber.StatusNotFound, "Contract not found", "CONTRACT_NOT_FOUND", nil)
	case businessflow.IsCoordinateOutOfRange(err):
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Coordinates out of range", "COORDINATES_OUT_OF_RANGE", nil)
	}

	log.Println(fallbackMessage, err)
	return h.ErrorResponse(c, fiber.StatusInternalServerError, fallbackMessage, fallbackCode, nil)
}

// CreateClient registers a new client
func (h *ClientHandler) CreateClient(c fiber.Ctx) error {
	var req dto.CreateClientRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationMessages(err))
	}

	result, err := h.clientFlow.CreateClient(requestContext(c, "/api/v1/clients"), &req, currentActor(c), clientMetadata(c))
	if err != nil {
		return h.mapClientError(c, err, "Failed to create client", "CLIENT_CREATE_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusCreated, "Client created", result)
}

// UpdateClient updates an existing client
func (h *ClientHandler) UpdateClient(c fiber.Ctx) error {
	clientID, err := paramUint(c, "id")
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid client ID", "INVALID_CLIENT_ID", nil)
	}

	var req dto.UpdateClientRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationMessages(err))
	}

	result, err := h.clientFlow.UpdateClient(requestContext(c, "/api/v1/clients/:id"), clientID, &req, currentActor(c), clientMetadata(c))
	if err != nil {
		return h.mapClientError(c, err, "Failed to update client", "CLIENT_UPDATE_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Client updated", result)
}

// DeactivateClient marks a client inactive
func (h *ClientHandler) DeactivateClient(c fiber.Ctx) error {
	clientID, err := paramUint(c, "id")
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid client ID", "INVALID_CLIENT_ID", nil)
	}

	if err := h.clientFlow.DeactivateClient(requestContext(c, "/api/v1/clients/:id"), clientID, currentActor(c), clientMetadata(c)); err != nil {
		return h.mapClientError(c, err, "Failed to deactivate client", "CLIENT_DEACTIVATE_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Client deactivated", nil)
}

// GetClient returns a client with contacts, sites and contracts
func (h *ClientHandler) GetClient(c fiber.Ctx) error {
	clientID, err := paramUint(c, "id")
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid client ID", "INVALID_CLIENT_ID", nil)
	}

	result, err := h.clientFlow.GetClient(requestContext(c, "/api/v1/clients/:id"), clientID)
	if err != nil {
		return h.mapClientError(c, err, "Failed to get client", "CLIENT_GET_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Client retrieved", result)
}

// ListClients returns a page of clients
func (h *ClientHandler) ListClients(c fiber.Ctx) error {
	page, _ := strconv.Atoi(c.Query("page", "1"))
	pageSize, _ := strconv.Atoi(c.Query("page_size", "20"))

	var search *string
	if s := c.Query("search"); s != "" {
		search = &s
	}

	clients, total, err := h.clientFlow.ListClients(requestContext(c, "/api/v1/clients"), search, page, pageSize)
	if err != nil {
		return h.mapClientError(c, err, "Failed to list clients", "CLIENT_LIST_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Clients retrieved", fiber.Map{
		"items":     clients,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

// AddContact adds a contact to a client
func (h *ClientHandler) AddContact(c fiber.Ctx) error {
	clientID, err := paramUint(c, "id")
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid client ID", "INVALID_CLIENT_ID", nil)
	}

	var req dto.CreateContactRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationMessages(err))
	}

	result, err := h.clientFlow.AddContact(requestContext(c, "/api/v1/clients/:id/contacts"), clientID, &req, currentActor(c), clientMetadata(c))
	if err != nil {
		return h.mapClientError(c, err, "Failed to add contact", "CONTACT_CREATE_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusCreated, "Contact added", result)
}

// UpdateContact updates a client's contact
func (h *ClientHandler) UpdateContact(c fiber.Ctx) error {
	clientID, err := paramUint(c, "id")
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid client ID", "INVALID_CLIENT_ID", nil)
	}
	contactID, err := paramUint(c, "contactId")
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid contact ID", "INVALID_CONTACT_ID", nil)
	}

	var req dto.UpdateContactRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationMessages(err))
	}

	result, err := h.clientFlow.UpdateContact(requestContext(c, "/api/v1/clients/:id/contacts/:contactId"), clientID, contactID, &req, currentActor(c), clientMetadata(c))
	if err != nil {
		return h.mapClientError(c, err, "Failed to update contact", "CONTACT_UPDATE_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Contact updated", result)
}

// RemoveContact deletes a client's contact
func (h *ClientHandler) RemoveContact(c fiber.Ctx) error {
	clientID, err := paramUint(c, "id")
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid client ID", "INVALID_CLIENT_ID", nil)
	}
	contactID, err := paramUint(c, "contactId")
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid contact ID", "INVALID_CONTACT_ID", nil)
	}

	if err := h.clientFlow.RemoveContact(requestContext(c, "/api/v1/clients/:id/contacts/:contactId"), clientID, contactID, currentActor(c), clientMetadata(c)); err != nil {
		return h.mapClientError(c, err, "Failed to remove contact", "CONTACT_DELETE_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Contact removed", nil)
}

// AddSite adds a service location to a client
func (h *ClientHandler) AddSite(c fiber.Ctx) error {
	clientID, err := paramUint(c, "id")
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid client ID", "INVALID_CLIENT_ID", nil)
	}

	var req dto.CreateSiteRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationMessages(err))
	}

	result, err := h.clientFlow.AddSite(requestContext(c, "/api/v1/clients/:id/sites"), clientID, &req, currentActor(c), clientMetadata(c))
	if err != nil {
		return h.mapClientError(c, err, "Failed to add site", "SITE_CREATE_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusCreated, "Site added", result)
}

// UpdateSite updates a client's service location
func (h *ClientHandler) UpdateSite(c fiber.Ctx) error {
	clientID, err := paramUint(c, "id")
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid client ID", "INVALID_CLIENT_ID", nil)
	}
	siteID, err := paramUint(c, "siteId")
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid site ID", "INVALID_SITE_ID", nil)
	}

	var req dto.UpdateSiteRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationMessages(err))
	}

	result, err := h.clientFlow.UpdateSite(requestContext(c, "/api/v1/clients/:id/sites/:siteId"), clientID, siteID, &req, currentActor(c), clientMetadata(c))
	if err != nil {
		return h.mapClientError(c, err, "Failed to update site", "SITE_UPDATE_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Site updated", result)
}

// RemoveSite deletes a client's service location
func (h *ClientHandler) RemoveSite(c fiber.Ctx) error {
	clientID, err := paramUint(c, "id")
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid client ID", "INVALID_CLIENT_ID", nil)
	}
	siteID, err := paramUint(c, "siteId")
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid site ID", "INVALID_SITE_ID", nil)
	}

	if err := h.clientFlow.RemoveSite(requestContext(c, "/api/v1/clients/:id/sites/:siteId"), clientID, siteID, currentActor(c), clientMetadata(c)); err != nil {
		return h.mapClientError(c, err, "Failed to remove site", "SITE_DELETE_FAILED")
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Site removed", nil)
}

// CreateContract registers a service contract for a client
func (h *ClientHandler) CreateContract(c fiber.Ctx) error {
	clientID, err := paramUint(c, "id")
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid client ID", "INVALID_CLIENT_ID", nil)
	}

	var req dto.CreateContractRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationMessages(err))
	}

	result, err := h.contractFlow.CreateContract(requestContext(c, "/api/v1/clients/:id/contracts"), clientID, &req, currentActor(c), clientMetadata(c))
	if err != nil {
		if businessflow.IsClientNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Client not found", "CLIENT_NOT_FOUND", nil)
		}
		var businessErr *businessflow.BusinessError
		if ok := asBusinessError(err, &businessErr); ok && businessErr.Code == "CONTRACT_VALIDATION_FAILED" {
			return h.ErrorResponse(c, fiber.StatusBadRequest, businessErr.Message, businessErr.Code, nil)
		}
		log.Println("Failed to create contract", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to create contract", "CONTRACT_CREATE_FAILED", nil)
	}
	return h.SuccessResponse(c, fiber.StatusCreated, "Contract created", result)
}

// UpdateContract updates a service contract
func (h *ClientHandler) UpdateContract(c fiber.Ctx) error {
	contractID, err := paramUint(c, "contractId")
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid contract ID", "INVALID_CONTRACT_ID", nil)
	}

	var req dto.UpdateContractRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationMessages(err))
	}

	result, err := h.contractFlow.UpdateContract(requestContext(c, "/api/v1/contracts/:contractId"), contractID, &req, currentActor(c), clientMetadata(c))
	if err != nil {
		if businessflow.IsContractNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Contract not found", "CONTRACT_NOT_FOUND", nil)
		}
		var businessErr *businessflow.BusinessError
		if ok := asBusinessError(err, &businessErr); ok && businessErr.Code == "CONTRACT_VALIDATION_FAILED" {
			return h.ErrorResponse(c, fiber.StatusBadRequest, businessErr.Message, businessErr.Code, nil)
		}
		log.Println("Failed to update contract", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to update contract", "CONTRACT_UPDATE_FAILED", nil)
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Contract updated", result)
}

// DeleteContract removes a service contract
func (h *ClientHandler) DeleteContract(c fiber.Ctx) error {
	contractID, err := paramUint(c, "contractId")
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid contract ID", "INVALID_CONTRACT_ID", nil)
	}

	if err := h.contractFlow.DeleteContract(requestContext(c, "/api/v1/contracts/:contractId"), contractID, currentActor(c), clientMetadata(c)); err != nil {
		if businessflow.IsContractNotFound(err) {
			return h.ErrorResponse(c, fiber.StatusNotFound, "Contract not found", "CONTRACT_NOT_FOUND", nil)
		}
		log.Println("Failed to delete contract", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to delete contract", "CONTRACT_DELETE_FAILED", nil)
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Contract deleted", nil)
}

// ListContracts returns all contracts of a client
func (h *ClientHandler) ListContracts(c fiber.Ctx) error {
	clientID, err := paramUint(c, "id")
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid client ID", "INVALID_CLIENT_ID", nil)
	}

	result, err := h.contractFlow.ListContracts(requestContext(c, "/api/v1/clients/:id/contracts"), clientID)
	if err != nil {
		log.Println("Failed to list contracts", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to list contracts", "CONTRACT_LIST_FAILED", nil)
	}
	return h.SuccessResponse(c, fiber.StatusOK, "Contracts retrieved", result)
}
