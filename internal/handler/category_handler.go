package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/LeoDhali007/TaskVerse/internal/service"
	"github.com/LeoDhali007/TaskVerse/pkg/validator"
)

type CategoryHandler struct {
	categoryService *service.CategoryService
	validator       *validator.Validator
}

func NewCategoryHandler(categoryService *service.CategoryService, validator *validator.Validator) *CategoryHandler {
	return &CategoryHandler{categoryService: categoryService, validator: validator}
}

// Create handles POST /api/categories
func (h *CategoryHandler) Create(c *fiber.Ctx) error {
	var req service.CreateCategoryRequest
	if !parseAndValidate(c, h.validator, &req) {
		return nil
	}

	category, err := h.categoryService.Create(c.Context(), currentUserID(c), req)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"category": category})
}

// List handles GET /api/categories
func (h *CategoryHandler) List(c *fiber.Ctx) error {
	categories, err := h.categoryService.List(c.Context(), currentUserID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"categories": categories})
}

// Get handles GET /api/categories/:id
func (h *CategoryHandler) Get(c *fiber.Ctx) error {
	id, ok := paramUUID(c, "id")
	if !ok {
		return nil
	}

	category, err := h.categoryService.Get(c.Context(), currentUserID(c), id)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"category": category})
}

// Update handles PUT /api/categories/:id
func (h *CategoryHandler) Update(c *fiber.Ctx) error {
	id, ok := paramUUID(c, "id")
	if !ok {
		return nil
	}

	var req service.UpdateCategoryRequest
	if !parseAndValidate(c, h.validator, &req) {
		return nil
	}

	category, err := h.categoryService.Update(c.Context(), currentUserID(c), id, req)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"category": category})
}

// Delete handles DELETE /api/categories/:id
func (h *CategoryHandler) Delete(c *fiber.Ctx) error {
	id, ok := paramUUID(c, "id")
	if !ok {
		return nil
	}

	if err := h.categoryService.Delete(c.Context(), currentUserID(c), id); err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "category deleted"})
}

// Reorder handles PUT /api/categories/reorder
func (h *CategoryHandler) Reorder(c *fiber.Ctx) error {
	var req service.ReorderRequest
	if !parseAndValidate(c, h.validator, &req) {
		return nil
	}

	if err := h.categoryService.Reorder(c.Context(), currentUserID(c), req); err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "categories reordered"})
}

// Stats handles GET /api/categories/stats
func (h *CategoryHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.categoryService.Stats(c.Context(), currentUserID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"stats": stats})
}
