package handler

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/LeoDhali007/TaskVerse/internal/domain"
	"github.com/LeoDhali007/TaskVerse/internal/repository"
	"github.com/LeoDhali007/TaskVerse/internal/service"
	"github.com/LeoDhali007/TaskVerse/pkg/validator"
)

type TaskHandler struct {
	taskService   *service.TaskService
	uploadService *service.UploadService
	validator     *validator.Validator
}

func NewTaskHandler(taskService *service.TaskService, uploadService *service.UploadService, validator *validator.Validator) *TaskHandler {
	return &TaskHandler{taskService: taskService, uploadService: uploadService, validator: validator}
}

// Create handles POST /api/tasks
func (h *TaskHandler) Create(c *fiber.Ctx) error {
	var req service.CreateTaskRequest
	if !parseAndValidate(c, h.validator, &req) {
		return nil
	}

	task, err := h.taskService.Create(c.Context(), currentUserID(c), req)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"task": task})
}

// List handles GET /api/tasks with the filter/sort/pagination query params.
func (h *TaskHandler) List(c *fiber.Ctx) error {
	filter, err := taskFilterFromQuery(c)
	if err != nil {
		return respondError(c, fiber.StatusBadRequest, "invalid_filter", err.Error())
	}

	tasks, total, err := h.taskService.List(c.Context(), currentUserID(c), filter)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{
		"tasks":  tasks,
		"total":  total,
		"limit":  filter.Limit,
		"offset": filter.Offset,
	})
}

// Get handles GET /api/tasks/:id
func (h *TaskHandler) Get(c *fiber.Ctx) error {
	id, ok := paramUUID(c, "id")
	if !ok {
		return nil
	}

	task, err := h.taskService.Get(c.Context(), currentUserID(c), id)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"task": task})
}

// Update handles PUT /api/tasks/:id
func (h *TaskHandler) Update(c *fiber.Ctx) error {
	id, ok := paramUUID(c, "id")
	if !ok {
		return nil
	}

	var req service.UpdateTaskRequest
	if !parseAndValidate(c, h.validator, &req) {
		return nil
	}

	task, err := h.taskService.Update(c.Context(), currentUserID(c), id, req)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"task": task})
}

// Delete handles DELETE /api/tasks/:id
func (h *TaskHandler) Delete(c *fiber.Ctx) error {
	id, ok := paramUUID(c, "id")
	if !ok {
		return nil
	}

	if err := h.taskService.Delete(c.Context(), currentUserID(c), id); err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "task deleted"})
}

// AddComment handles POST /api/tasks/:id/comments
func (h *TaskHandler) AddComment(c *fiber.Ctx) error {
	id, ok := paramUUID(c, "id")
	if !ok {
		return nil
	}

	var req service.AddCommentRequest
	if !parseAndValidate(c, h.validator, &req) {
		return nil
	}

	task, err := h.taskService.AddComment(c.Context(), currentUserID(c), id, req)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"task": task})
}

// AddSubtask handles POST /api/tasks/:id/subtasks
func (h *TaskHandler) AddSubtask(c *fiber.Ctx) error {
	id, ok := paramUUID(c, "id")
	if !ok {
		return nil
	}

	var req service.AddSubtaskRequest
	if !parseAndValidate(c, h.validator, &req) {
		return nil
	}

	task, err := h.taskService.AddSubtask(c.Context(), currentUserID(c), id, req)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"task": task})
}

// ToggleSubtask handles PATCH /api/tasks/:id/subtasks/:subtaskId
func (h *TaskHandler) ToggleSubtask(c *fiber.Ctx) error {
	id, ok := paramUUID(c, "id")
	if !ok {
		return nil
	}
	subtaskID, ok := paramUUID(c, "subtaskId")
	if !ok {
		return nil
	}

	task, err := h.taskService.ToggleSubtask(c.Context(), currentUserID(c), id, subtaskID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"task": task})
}

type attachRequest struct {
	Key          string `json:"key" validate:"required,max=300"`
	OriginalName string `json:"originalName" validate:"required,max=255"`
}

// Attach handles POST /api/tasks/:id/attachments. The object must already be
// in storage under the caller's upload prefix.
func (h *TaskHandler) Attach(c *fiber.Ctx) error {
	id, ok := paramUUID(c, "id")
	if !ok {
		return nil
	}

	var req attachRequest
	if !parseAndValidate(c, h.validator, &req) {
		return nil
	}

	userID := currentUserID(c)
	attachment, err := h.uploadService.Confirm(c.Context(), userID, req.Key, req.OriginalName)
	if err != nil {
		return respondServiceError(c, err)
	}

	task, err := h.taskService.AttachFile(c.Context(), userID, id, *attachment)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"task": task})
}

// RemoveAttachment handles DELETE /api/tasks/:id/attachments/:attachmentId
func (h *TaskHandler) RemoveAttachment(c *fiber.Ctx) error {
	id, ok := paramUUID(c, "id")
	if !ok {
		return nil
	}
	attachmentID, ok := paramUUID(c, "attachmentId")
	if !ok {
		return nil
	}

	userID := currentUserID(c)
	task, removed, err := h.taskService.RemoveAttachment(c.Context(), userID, id, attachmentID)
	if err != nil {
		return respondServiceError(c, err)
	}

	// Best effort: the metadata is already gone, a stranded object is only
	// storage cost.
	if removed.UploadedBy == userID {
		key := "uploads/" + userID.String() + "/" + removed.Filename
		_ = h.uploadService.Delete(c.Context(), userID, key)
	}
	return c.JSON(fiber.Map{"task": task})
}

// Stats handles GET /api/tasks/stats
func (h *TaskHandler) Stats(c *fiber.Ctx) error {
	stats, err := h.taskService.Stats(c.Context(), currentUserID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"stats": stats})
}

func taskFilterFromQuery(c *fiber.Ctx) (repository.TaskFilter, error) {
	filter := repository.TaskFilter{
		Status:    domain.TaskStatus(c.Query("status")),
		Priority:  domain.TaskPriority(c.Query("priority")),
		Search:    c.Query("search"),
		Archived:  c.QueryBool("archived", false),
		SortBy:    c.Query("sortBy", "position"),
		SortOrder: c.Query("sortOrder", "asc"),
		Limit:     c.QueryInt("limit", 20),
		Offset:    c.QueryInt("offset", 0),
	}

	if raw := c.Query("categoryId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return filter, fiber.NewError(fiber.StatusBadRequest, "invalid categoryId")
		}
		filter.CategoryID = &id
	}
	if raw := c.Query("assignedTo"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return filter, fiber.NewError(fiber.StatusBadRequest, "invalid assignedTo")
		}
		filter.AssignedTo = &id
	}
	if raw := c.Query("tags"); raw != "" {
		filter.Tags = strings.Split(raw, ",")
	}
	if raw := c.Query("dueAfter"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filter, fiber.NewError(fiber.StatusBadRequest, "invalid dueAfter")
		}
		filter.DueAfter = &t
	}
	if raw := c.Query("dueBefore"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return filter, fiber.NewError(fiber.StatusBadRequest, "invalid dueBefore")
		}
		filter.DueBefore = &t
	}
	return filter, nil
}
