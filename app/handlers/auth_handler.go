// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"log"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/talonsoft/fieldops/app/dto"
	businessflow "github.com/talonsoft/fieldops/business_flow"
)

// AuthHandlerInterface defines the contract for authentication handlers
type AuthHandlerInterface interface {
	Login(c fiber.Ctx) error
	Refresh(c fiber.Ctx) error
	Logout(c fiber.Ctx) error
}

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	loginFlow businessflow.LoginFlow
	validator *validator.Validate
}

// NewAuthHandler creates a new authentication handler
func NewAuthHandler(loginFlow businessflow.LoginFlow) *AuthHandler {
	return &AuthHandler{
		loginFlow: loginFlow,
		validator: validator.New(),
	}
}

func (h *AuthHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *AuthHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// Login authenticates a user with email and password
func (h *AuthHandler) Login(c fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationMessages(err))
	}

	result, err := h.loginFlow.Login(requestContext(c, "/api/v1/auth/login"), &req, clientMetadata(c))
	if err != nil {
		if businessflow.IsUserNotFound(err) || businessflow.IsIncorrectPassword(err) {
			return h.ErrorResponse(c, fiber.StatusUnauthorized, "Invalid email or password", "INVALID_CREDENTIALS", nil)
		}
		if businessflow.IsAccountInactive(err) {
			return h.ErrorResponse(c, fiber.StatusUnauthorized, "Account is inactive", "ACCOUNT_INACTIVE", nil)
		}

		log.Println("Login failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Login failed", "LOGIN_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Login successful", result)
}

// Refresh exchanges a refresh token for a fresh token pair
func (h *AuthHandler) Refresh(c fiber.Ctx) error {
	var req dto.RefreshTokenRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", validationMessages(err))
	}

	result, err := h.loginFlow.Refresh(requestContext(c, "/api/v1/auth/refresh"), &req, clientMetadata(c))
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "Invalid refresh token", "INVALID_REFRESH_TOKEN", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Tokens refreshed", result)
}

// Logout revokes the presented access token
func (h *AuthHandler) Logout(c fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	token := strings.TrimPrefix(authHeader, "Bearer ")
	if token == "" || token == authHeader {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Authorization header is required", "MISSING_AUTHORIZATION_HEADER", nil)
	}

	if err := h.loginFlow.Logout(requestContext(c, "/api/v1/auth/logout"), token, clientMetadata(c)); err != nil {
		log.Println("Logout failed", err)
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Logout failed", "LOGOUT_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Logged out", nil)
}
