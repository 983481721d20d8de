package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/LeoDhali007/TaskVerse/internal/service"
	"github.com/LeoDhali007/TaskVerse/pkg/validator"
)

// ErrorResponse is the envelope every error leaves the API in.
type ErrorResponse struct {
	Error   string      `json:"error"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func respondError(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(ErrorResponse{Error: code, Message: message})
}

func respondValidation(c *fiber.Ctx, verr *validator.ValidationError) error {
	return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
		Error:   "validation_failed",
		Message: "request validation failed",
		Details: verr.Fields,
	})
}

// respondServiceError maps service sentinels onto HTTP statuses. Anything
// unmapped bubbles to the fiber error handler as a 500.
func respondServiceError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		return respondError(c, fiber.StatusUnauthorized, "invalid_credentials", err.Error())
	case errors.Is(err, service.ErrInvalidRefresh):
		return respondError(c, fiber.StatusForbidden, "invalid_refresh_token", err.Error())
	case errors.Is(err, service.ErrAccountInactive):
		return respondError(c, fiber.StatusForbidden, "account_inactive", err.Error())
	case errors.Is(err, service.ErrUserExists),
		errors.Is(err, service.ErrCategoryExists):
		return respondError(c, fiber.StatusConflict, "already_exists", err.Error())
	case errors.Is(err, service.ErrUserNotFound),
		errors.Is(err, service.ErrSessionNotFound),
		errors.Is(err, service.ErrCategoryNotFound),
		errors.Is(err, service.ErrTaskNotFound),
		errors.Is(err, service.ErrSubtaskMissing),
		errors.Is(err, service.ErrObjectNotFound):
		return respondError(c, fiber.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, service.ErrPasswordMismatch):
		return respondError(c, fiber.StatusBadRequest, "password_mismatch", err.Error())
	case errors.Is(err, service.ErrNotTaskCreator),
		errors.Is(err, service.ErrObjectNotOwned):
		return respondError(c, fiber.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, service.ErrUploadTooLarge):
		return respondError(c, fiber.StatusRequestEntityTooLarge, "file_too_large", err.Error())
	case errors.Is(err, service.ErrUploadBadType):
		return respondError(c, fiber.StatusBadRequest, "unsupported_file_type", err.Error())
	default:
		return err
	}
}

// parseAndValidate binds the JSON body into dst and runs struct validation.
// On failure it writes the error response and returns false.
func parseAndValidate(c *fiber.Ctx, v *validator.Validator, dst interface{}) bool {
	if err := c.BodyParser(dst); err != nil {
		_ = respondError(c, fiber.StatusBadRequest, "invalid_body", "request body could not be parsed")
		return false
	}
	if err := v.Validate(dst); err != nil {
		var verr *validator.ValidationError
		if errors.As(err, &verr) {
			_ = respondValidation(c, verr)
		} else {
			_ = respondError(c, fiber.StatusBadRequest, "invalid_body", "request validation failed")
		}
		return false
	}
	return true
}

func paramUUID(c *fiber.Ctx, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Params(name))
	if err != nil {
		_ = respondError(c, fiber.StatusBadRequest, "invalid_id", "invalid "+name+" parameter")
		return uuid.Nil, false
	}
	return id, true
}

// currentUserID reads the authenticated user id set by the auth middleware.
func currentUserID(c *fiber.Ctx) uuid.UUID {
	id, _ := c.Locals("user_id").(uuid.UUID)
	return id
}

func clientInfo(c *fiber.Ctx) service.ClientInfo {
	return service.ClientInfo{
		DeviceInfo: c.Get("User-Agent"),
		IPAddress:  c.IP(),
	}
}
