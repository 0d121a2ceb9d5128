// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	businessflow "github.com/talonsoft/fieldops/business_flow"
	"github.com/talonsoft/fieldops/models"
	"github.com/talonsoft/fieldops/utils"
)

func getValidationErrorMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return err.Field() + " is required"
	case "email":
		return "Invalid email format"
	case "min":
		return err.Field() + " must be at least " + err.Param()
	case "max":
		return err.Field() + " must be at most " + err.Param()
	case "oneof":
		return err.Field() + " must be one of: " + err.Param()
	case "url":
		return err.Field() + " must be a valid URL"
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", err.Field(), err.Param())
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", err.Field(), err.Param())
	default:
		return err.Field() + " is invalid"
	}
}

// validationMessages flattens validator errors into user-facing strings
func validationMessages(err error) []string {
	if errs, ok := err.(validator.ValidationErrors); ok {
		messages := make([]string, 0, len(errs))
		for _, fieldErr := range errs {
			messages = append(messages, getValidationErrorMessage(fieldErr))
		}
		return messages
	}
	return []string{err.Error()}
}

// requestContext carries request metadata into flows with a per-request
// timeout decoupled from the fasthttp connection lifetime
func requestContext(c fiber.Ctx, endpoint string) context.Context {
	timeout := 30 * time.Second
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	ctx = context.WithValue(ctx, utils.RequestIDKey, c.Get("X-Request-ID"))
	ctx = context.WithValue(ctx, utils.UserAgentKey, c.Get("User-Agent"))
	ctx = context.WithValue(ctx, utils.IPAddressKey, c.IP())
	ctx = context.WithValue(ctx, utils.EndpointKey, endpoint)
	ctx = context.WithValue(ctx, utils.TimeoutKey, timeout)
	ctx = context.WithValue(ctx, utils.CancelFuncKey, cancel)
	return ctx
}

// clientMetadata builds the audit metadata every flow call receives
func clientMetadata(c fiber.Ctx) *businessflow.ClientMetadata {
	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	if requestID := c.Get("X-Request-ID"); requestID != "" {
		metadata.SetRequestID(requestID)
	}
	return metadata
}

// currentActor reads the authenticated user placed in locals by the auth
// middleware. Zero value means the route was not protected.
func currentActor(c fiber.Ctx) businessflow.Actor {
	actor := businessflow.Actor{}
	if id, ok := c.Locals("user_id").(uint); ok {
		actor.ID = id
	}
	if role, ok := c.Locals("user_role").(string); ok {
		actor.Role = models.UserRole(role)
	}
	return actor
}

// asBusinessError unwraps a flow error into its BusinessError when one is present
func asBusinessError(err error, target **businessflow.BusinessError) bool {
	return errors.As(err, target)
}

// paramUint parses a numeric path parameter
func paramUint(c fiber.Ctx, name string) (uint, error) {
	value, err := strconv.ParseUint(c.Params(name), 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid %s", name)
	}
	return uint(value), nil
}
