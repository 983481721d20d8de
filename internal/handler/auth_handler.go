package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/LeoDhali007/TaskVerse/internal/service"
	"github.com/LeoDhali007/TaskVerse/pkg/validator"
)

type AuthHandler struct {
	authService *service.AuthService
	validator   *validator.Validator
}

func NewAuthHandler(authService *service.AuthService, validator *validator.Validator) *AuthHandler {
	return &AuthHandler{authService: authService, validator: validator}
}

// Register handles POST /api/auth/register
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req service.RegisterRequest
	if !parseAndValidate(c, h.validator, &req) {
		return nil
	}

	resp, err := h.authService.Register(c.Context(), req, clientInfo(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req service.LoginRequest
	if !parseAndValidate(c, h.validator, &req) {
		return nil
	}

	resp, err := h.authService.Login(c.Context(), req, clientInfo(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(resp)
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

// Refresh handles POST /api/auth/refresh
func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	var req refreshRequest
	if !parseAndValidate(c, h.validator, &req) {
		return nil
	}

	tokens, err := h.authService.Refresh(c.Context(), req.RefreshToken, clientInfo(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"tokens": tokens})
}

// Logout handles POST /api/auth/logout. Succeeds whether or not the token was
// still active.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	var req struct {
		RefreshToken string `json:"refreshToken"`
	}
	_ = c.BodyParser(&req)

	if err := h.authService.Logout(c.Context(), req.RefreshToken); err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "logged out"})
}

// LogoutAll handles POST /api/auth/logout-all
func (h *AuthHandler) LogoutAll(c *fiber.Ctx) error {
	count, err := h.authService.LogoutAll(c.Context(), currentUserID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "logged out everywhere", "revokedSessions": count})
}

// ListSessions handles GET /api/auth/sessions
func (h *AuthHandler) ListSessions(c *fiber.Ctx) error {
	sessions, err := h.authService.ListSessions(c.Context(), currentUserID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"sessions": sessions})
}

// RevokeSession handles DELETE /api/auth/sessions/:id
func (h *AuthHandler) RevokeSession(c *fiber.Ctx) error {
	sessionID, ok := paramUUID(c, "id")
	if !ok {
		return nil
	}

	if err := h.authService.RevokeSession(c.Context(), currentUserID(c), sessionID); err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "session revoked"})
}

// ChangePassword handles POST /api/auth/change-password
func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	var req service.ChangePasswordRequest
	if !parseAndValidate(c, h.validator, &req) {
		return nil
	}

	if err := h.authService.ChangePassword(c.Context(), currentUserID(c), req); err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "password changed, all sessions revoked"})
}
