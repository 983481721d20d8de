package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/LeoDhali007/TaskVerse/internal/service"
	"github.com/LeoDhali007/TaskVerse/pkg/validator"
)

type UserHandler struct {
	userService *service.UserService
	validator   *validator.Validator
}

func NewUserHandler(userService *service.UserService, validator *validator.Validator) *UserHandler {
	return &UserHandler{userService: userService, validator: validator}
}

// GetMe handles GET /api/users/me
func (h *UserHandler) GetMe(c *fiber.Ctx) error {
	user, err := h.userService.GetProfile(c.Context(), currentUserID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"user": user})
}

// UpdateMe handles PUT /api/users/me
func (h *UserHandler) UpdateMe(c *fiber.Ctx) error {
	var req service.UpdateProfileRequest
	if !parseAndValidate(c, h.validator, &req) {
		return nil
	}

	user, err := h.userService.UpdateProfile(c.Context(), currentUserID(c), req)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"user": user})
}

// DeleteMe handles DELETE /api/users/me. The account is deactivated, not
// erased, and every session is revoked.
func (h *UserHandler) DeleteMe(c *fiber.Ctx) error {
	if err := h.userService.Deactivate(c.Context(), currentUserID(c)); err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "account deactivated"})
}

// Stats handles GET /api/users/me/stats
func (h *UserHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.userService.Stats(c.Context(), currentUserID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"stats": stats})
}

// Search handles GET /api/users/search?q=&limit=&offset=
func (h *UserHandler) Search(c *fiber.Ctx) error {
	query := c.Query("q")
	if query == "" {
		return respondError(c, fiber.StatusBadRequest, "missing_query", "query parameter q is required")
	}

	users, total, err := h.userService.Search(c.Context(), query, c.QueryInt("limit", 20), c.QueryInt("offset", 0))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"users": users, "total": total})
}

// GetByID handles GET /api/users/:id
func (h *UserHandler) GetByID(c *fiber.Ctx) error {
	id, ok := paramUUID(c, "id")
	if !ok {
		return nil
	}

	user, err := h.userService.GetPublic(c.Context(), id)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"user": user})
}
