package middleware

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/LeoDhali007/TaskVerse/internal/repository"
	"github.com/LeoDhali007/TaskVerse/pkg/token"
)

// Protected authenticates requests with a Bearer access token. A missing
// credential is a 401; a credential that fails verification is a 403, with
// expiry reported distinctly so clients know to refresh.
//
// The user is re-fetched from the store on every request, so deactivation
// takes effect immediately even while access tokens are still outstanding.
func Protected(codec *token.Codec, users repository.UserRepository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := bearerToken(c)
		if raw == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error":   "missing_token",
				"message": "authorization header with a Bearer token is required",
			})
		}

		claims, err := codec.Verify(raw, token.PurposeAccess)
		if err != nil {
			if errors.Is(err, token.ErrExpired) {
				return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
					"error":   "token_expired",
					"message": "access token has expired",
				})
			}
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error":   "invalid_token",
				"message": "access token is invalid",
			})
		}

		user, err := users.GetByID(c.Context(), claims.UserID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
					"error":   "invalid_token",
					"message": "access token is invalid",
				})
			}
			return fiber.ErrInternalServerError
		}
		if !user.IsActive {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error":   "account_inactive",
				"message": "account is deactivated",
			})
		}

		c.Locals("user_id", user.ID)
		c.Locals("email", user.Email)
		c.Locals("username", user.Username)

		return c.Next()
	}
}

// Optional resolves the principal when a valid Bearer token is presented and
// passes the request through anonymously otherwise. It never rejects: a
// missing, invalid or expired credential just means no locals are set.
func Optional(codec *token.Codec, users repository.UserRepository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := bearerToken(c)
		if raw == "" {
			return c.Next()
		}

		claims, err := codec.Verify(raw, token.PurposeAccess)
		if err != nil {
			return c.Next()
		}

		user, err := users.GetByID(c.Context(), claims.UserID)
		if err != nil || !user.IsActive {
			return c.Next()
		}

		c.Locals("user_id", user.ID)
		c.Locals("email", user.Email)
		c.Locals("username", user.Username)

		return c.Next()
	}
}

func bearerToken(c *fiber.Ctx) string {
	header := c.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
