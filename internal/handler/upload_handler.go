package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/LeoDhali007/TaskVerse/internal/service"
	"github.com/LeoDhali007/TaskVerse/pkg/validator"
)

type UploadHandler struct {
	uploadService *service.UploadService
	validator     *validator.Validator
}

func NewUploadHandler(uploadService *service.UploadService, validator *validator.Validator) *UploadHandler {
	return &UploadHandler{uploadService: uploadService, validator: validator}
}

// Presign handles POST /api/uploads/presign. The client PUTs the bytes to the
// returned URL itself.
func (h *UploadHandler) Presign(c *fiber.Ctx) error {
	var req service.PresignRequest
	if !parseAndValidate(c, h.validator, &req) {
		return nil
	}

	resp, err := h.uploadService.Presign(c.Context(), currentUserID(c), req)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(resp)
}

type deleteObjectRequest struct {
	Key string `json:"key" validate:"required,max=300"`
}

// Delete handles DELETE /api/uploads
func (h *UploadHandler) Delete(c *fiber.Ctx) error {
	var req deleteObjectRequest
	if !parseAndValidate(c, h.validator, &req) {
		return nil
	}

	if err := h.uploadService.Delete(c.Context(), currentUserID(c), req.Key); err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "object deleted"})
}
