package handler

import (
	"github.com/gofiber/fiber/v2"
)

// SetupRoutes wires every HTTP route. protect is the bearer-token middleware,
// authLimit the tight per-IP limiter for credential endpoints.
func SetupRoutes(
	app *fiber.App,
	authHandler *AuthHandler,
	userHandler *UserHandler,
	categoryHandler *CategoryHandler,
	taskHandler *TaskHandler,
	uploadHandler *UploadHandler,
	healthHandler *HealthHandler,
	protect fiber.Handler,
	authLimit fiber.Handler,
) {
	app.Get("/health", healthHandler.Health)
	app.Get("/ready", healthHandler.Ready)

	api := app.Group("/api")

	api.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"name":    "TaskVerse API",
			"version": "1.0.0",
		})
	})

	auth := api.Group("/auth")
	auth.Post("/register", authLimit, authHandler.Register)
	auth.Post("/login", authLimit, authHandler.Login)
	auth.Post("/refresh", authLimit, authHandler.Refresh)
	auth.Post("/logout", authHandler.Logout)
	auth.Post("/logout-all", protect, authHandler.LogoutAll)
	auth.Post("/change-password", protect, authHandler.ChangePassword)
	auth.Get("/sessions", protect, authHandler.ListSessions)
	auth.Delete("/sessions/:id", protect, authHandler.RevokeSession)

	users := api.Group("/users", protect)
	users.Get("/me", userHandler.GetMe)
	users.Get("/me/stats", userHandler.Stats)
	users.Put("/me", userHandler.UpdateMe)
	users.Delete("/me", userHandler.DeleteMe)
	users.Get("/search", userHandler.Search)
	users.Get("/:id", userHandler.GetByID)

	categories := api.Group("/categories", protect)
	categories.Post("/", categoryHandler.Create)
	categories.Get("/", categoryHandler.List)
	categories.Get("/stats", categoryHandler.Stats)
	categories.Put("/reorder", categoryHandler.Reorder)
	categories.Get("/:id", categoryHandler.Get)
	categories.Put("/:id", categoryHandler.Update)
	categories.Delete("/:id", categoryHandler.Delete)

	tasks := api.Group("/tasks", protect)
	tasks.Post("/", taskHandler.Create)
	tasks.Get("/", taskHandler.List)
	tasks.Get("/stats", taskHandler.Stats)
	tasks.Get("/:id", taskHandler.Get)
	tasks.Put("/:id", taskHandler.Update)
	tasks.Delete("/:id", taskHandler.Delete)
	tasks.Post("/:id/comments", taskHandler.AddComment)
	tasks.Post("/:id/subtasks", taskHandler.AddSubtask)
	tasks.Patch("/:id/subtasks/:subtaskId", taskHandler.ToggleSubtask)
	tasks.Post("/:id/attachments", taskHandler.Attach)
	tasks.Delete("/:id/attachments/:attachmentId", taskHandler.RemoveAttachment)

	uploads := api.Group("/uploads", protect)
	uploads.Post("/presign", uploadHandler.Presign)
	uploads.Delete("/", uploadHandler.Delete)

	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":   "not_found",
			"message": "route not found",
		})
	})
}
