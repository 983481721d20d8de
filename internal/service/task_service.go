package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/LeoDhali007/TaskVerse/internal/domain"
	"github.com/LeoDhali007/TaskVerse/internal/repository"
)

var (
	ErrTaskNotFound   = errors.New("task not found")
	ErrNotTaskCreator = errors.New("only the task creator may do this")
	ErrSubtaskMissing = errors.New("subtask not found")
)

type TaskService struct {
	taskRepo     repository.TaskRepository
	categoryRepo repository.CategoryRepository
	userRepo     repository.UserRepository
	events       EventPublisher
	logger       *zap.Logger
}

func NewTaskService(
	taskRepo repository.TaskRepository,
	categoryRepo repository.CategoryRepository,
	userRepo repository.UserRepository,
	events EventPublisher,
	logger *zap.Logger,
) *TaskService {
	if events == nil {
		events = NopPublisher{}
	}
	return &TaskService{
		taskRepo:     taskRepo,
		categoryRepo: categoryRepo,
		userRepo:     userRepo,
		events:       events,
		logger:       logger,
	}
}

type CreateTaskRequest struct {
	Title          string     `json:"title" validate:"required,max=200"`
	Description    string     `json:"description" validate:"omitempty,max=2000"`
	Status         string     `json:"status" validate:"omitempty,oneof=todo in_progress completed cancelled"`
	Priority       string     `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	CategoryID     *uuid.UUID `json:"categoryId"`
	AssignedTo     *uuid.UUID `json:"assignedTo"`
	DueDate        *time.Time `json:"dueDate"`
	StartDate      *time.Time `json:"startDate"`
	EstimatedHours *float64   `json:"estimatedHours" validate:"omitempty,gte=0"`
	Tags           []string   `json:"tags" validate:"omitempty,max=10,dive,max=30"`
	Position       int        `json:"position" validate:"gte=0"`
}

func (s *TaskService) Create(ctx context.Context, creatorID uuid.UUID, req CreateTaskRequest) (*domain.Task, error) {
	if req.CategoryID != nil {
		if err := s.checkCategory(ctx, creatorID, *req.CategoryID); err != nil {
			return nil, err
		}
	}
	if req.AssignedTo != nil {
		if err := s.checkAssignee(ctx, *req.AssignedTo); err != nil {
			return nil, err
		}
	}

	status := domain.TaskStatusTodo
	if req.Status != "" {
		status = domain.TaskStatus(req.Status)
	}
	priority := domain.TaskPriorityMedium
	if req.Priority != "" {
		priority = domain.TaskPriority(req.Priority)
	}

	now := time.Now().UTC()
	task := &domain.Task{
		ID:             uuid.New(),
		Title:          req.Title,
		Description:    req.Description,
		Status:         status,
		Priority:       priority,
		CategoryID:     req.CategoryID,
		AssignedTo:     req.AssignedTo,
		CreatedBy:      creatorID,
		DueDate:        req.DueDate,
		StartDate:      req.StartDate,
		EstimatedHours: req.EstimatedHours,
		Tags:           req.Tags,
		Subtasks:       domain.Subtasks{},
		Comments:       domain.Comments{},
		Attachments:    domain.Attachments{},
		Position:       req.Position,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if status == domain.TaskStatusCompleted {
		task.CompletedAt = &now
	}
	if task.Tags == nil {
		task.Tags = domain.Tags{}
	}

	if err := s.taskRepo.Create(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	created, err := s.taskRepo.GetByID(ctx, task.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload task: %w", err)
	}

	s.events.PublishTask(ctx, TaskEvent{
		Type:    EventTaskCreated,
		TaskID:  created.ID,
		ActorID: creatorID,
		Task:    created,
	})
	return created, nil
}

func (s *TaskService) List(ctx context.Context, userID uuid.UUID, filter repository.TaskFilter) ([]*domain.Task, int, error) {
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 20
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	tasks, total, err := s.taskRepo.List(ctx, userID, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, total, nil
}

func (s *TaskService) Get(ctx context.Context, userID, taskID uuid.UUID) (*domain.Task, error) {
	task, err := s.taskRepo.GetByID(ctx, taskID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	if !task.VisibleTo(userID) {
		return nil, ErrTaskNotFound
	}
	return task, nil
}

type UpdateTaskRequest struct {
	Title          *string    `json:"title" validate:"omitempty,max=200"`
	Description    *string    `json:"description" validate:"omitempty,max=2000"`
	Status         *string    `json:"status" validate:"omitempty,oneof=todo in_progress completed cancelled"`
	Priority       *string    `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	CategoryID     *uuid.UUID `json:"categoryId"`
	AssignedTo     *uuid.UUID `json:"assignedTo"`
	DueDate        *time.Time `json:"dueDate"`
	StartDate      *time.Time `json:"startDate"`
	EstimatedHours *float64   `json:"estimatedHours" validate:"omitempty,gte=0"`
	ActualHours    *float64   `json:"actualHours" validate:"omitempty,gte=0"`
	Tags           []string   `json:"tags" validate:"omitempty,max=10,dive,max=30"`
	IsArchived     *bool      `json:"isArchived"`
	Position       *int       `json:"position" validate:"omitempty,gte=0"`
}

// Update applies a partial update. Status transitions maintain completedAt,
// and the matching task:* events are published after the write.
func (s *TaskService) Update(ctx context.Context, userID, taskID uuid.UUID, req UpdateTaskRequest) (*domain.Task, error) {
	task, err := s.Get(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}

	prevStatus := task.Status
	prevAssignee := task.AssignedTo

	if req.CategoryID != nil && (task.CategoryID == nil || *req.CategoryID != *task.CategoryID) {
		if err := s.checkCategory(ctx, task.CreatedBy, *req.CategoryID); err != nil {
			return nil, err
		}
	}
	if req.AssignedTo != nil && (task.AssignedTo == nil || *req.AssignedTo != *task.AssignedTo) {
		if err := s.checkAssignee(ctx, *req.AssignedTo); err != nil {
			return nil, err
		}
	}

	if req.Title != nil {
		task.Title = *req.Title
	}
	if req.Description != nil {
		task.Description = *req.Description
	}
	if req.Priority != nil {
		task.Priority = domain.TaskPriority(*req.Priority)
	}
	if req.CategoryID != nil {
		task.CategoryID = req.CategoryID
	}
	if req.AssignedTo != nil {
		task.AssignedTo = req.AssignedTo
	}
	if req.DueDate != nil {
		task.DueDate = req.DueDate
	}
	if req.StartDate != nil {
		task.StartDate = req.StartDate
	}
	if req.EstimatedHours != nil {
		task.EstimatedHours = req.EstimatedHours
	}
	if req.ActualHours != nil {
		task.ActualHours = req.ActualHours
	}
	if req.Tags != nil {
		task.Tags = req.Tags
	}
	if req.IsArchived != nil {
		task.IsArchived = *req.IsArchived
	}
	if req.Position != nil {
		task.Position = *req.Position
	}
	if req.Status != nil {
		next := domain.TaskStatus(*req.Status)
		if next != task.Status {
			task.Status = next
			if next == domain.TaskStatusCompleted {
				now := time.Now().UTC()
				task.CompletedAt = &now
			} else {
				task.CompletedAt = nil
			}
		}
	}
	task.UpdatedAt = time.Now().UTC()

	if err := s.taskRepo.Update(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	updated, err := s.taskRepo.GetByID(ctx, task.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload task: %w", err)
	}

	s.publishUpdate(ctx, userID, updated, prevStatus, prevAssignee)
	return updated, nil
}

// Delete removes a task permanently. Only the creator may delete; assignees
// get the same not-found answer as strangers.
func (s *TaskService) Delete(ctx context.Context, userID, taskID uuid.UUID) error {
	task, err := s.Get(ctx, userID, taskID)
	if err != nil {
		return err
	}
	if task.CreatedBy != userID {
		return ErrNotTaskCreator
	}

	if err := s.taskRepo.Delete(ctx, taskID); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	s.events.PublishTask(ctx, TaskEvent{
		Type:    EventTaskDeleted,
		TaskID:  taskID,
		ActorID: userID,
		Task:    task,
	})
	return nil
}

type AddCommentRequest struct {
	Content string `json:"content" validate:"required,max=1000"`
}

func (s *TaskService) AddComment(ctx context.Context, userID, taskID uuid.UUID, req AddCommentRequest) (*domain.Task, error) {
	task, err := s.Get(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	comment := domain.Comment{
		ID:        uuid.New(),
		Content:   req.Content,
		AuthorID:  userID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	task.Comments = append(task.Comments, comment)
	task.UpdatedAt = now

	if err := s.taskRepo.Update(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to add comment: %w", err)
	}

	updated, err := s.taskRepo.GetByID(ctx, task.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload task: %w", err)
	}

	s.events.PublishTask(ctx, TaskEvent{
		Type:    EventTaskCommentAdded,
		TaskID:  task.ID,
		ActorID: userID,
		Task:    updated,
		Data:    comment,
	})
	return updated, nil
}

type AddSubtaskRequest struct {
	Title string `json:"title" validate:"required,max=200"`
}

func (s *TaskService) AddSubtask(ctx context.Context, userID, taskID uuid.UUID, req AddSubtaskRequest) (*domain.Task, error) {
	task, err := s.Get(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}

	subtask := domain.Subtask{
		ID:        uuid.New(),
		Title:     req.Title,
		CreatedAt: time.Now().UTC(),
	}
	task.Subtasks = append(task.Subtasks, subtask)
	task.UpdatedAt = time.Now().UTC()

	if err := s.taskRepo.Update(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to add subtask: %w", err)
	}

	s.events.PublishTask(ctx, TaskEvent{
		Type:    EventTaskSubtaskUpdated,
		TaskID:  task.ID,
		ActorID: userID,
		Task:    task,
		Data:    subtask,
	})
	return task, nil
}

func (s *TaskService) ToggleSubtask(ctx context.Context, userID, taskID, subtaskID uuid.UUID) (*domain.Task, error) {
	task, err := s.Get(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}

	var toggled *domain.Subtask
	for i := range task.Subtasks {
		if task.Subtasks[i].ID == subtaskID {
			task.Subtasks[i].IsCompleted = !task.Subtasks[i].IsCompleted
			toggled = &task.Subtasks[i]
			break
		}
	}
	if toggled == nil {
		return nil, ErrSubtaskMissing
	}
	task.UpdatedAt = time.Now().UTC()

	if err := s.taskRepo.Update(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to update subtask: %w", err)
	}

	s.events.PublishTask(ctx, TaskEvent{
		Type:    EventTaskSubtaskUpdated,
		TaskID:  task.ID,
		ActorID: userID,
		Task:    task,
		Data:    *toggled,
	})
	return task, nil
}

// AttachFile records attachment metadata on the task. The bytes themselves go
// straight to object storage via a presigned URL.
func (s *TaskService) AttachFile(ctx context.Context, userID, taskID uuid.UUID, attachment domain.Attachment) (*domain.Task, error) {
	task, err := s.Get(ctx, userID, taskID)
	if err != nil {
		return nil, err
	}

	task.Attachments = append(task.Attachments, attachment)
	task.UpdatedAt = time.Now().UTC()

	if err := s.taskRepo.Update(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to attach file: %w", err)
	}

	s.events.PublishTask(ctx, TaskEvent{
		Type:    EventTaskAttachmentAdded,
		TaskID:  task.ID,
		ActorID: userID,
		Task:    task,
		Data:    attachment,
	})
	return task, nil
}

func (s *TaskService) RemoveAttachment(ctx context.Context, userID, taskID, attachmentID uuid.UUID) (*domain.Task, *domain.Attachment, error) {
	task, err := s.Get(ctx, userID, taskID)
	if err != nil {
		return nil, nil, err
	}

	var removed *domain.Attachment
	kept := task.Attachments[:0]
	for _, a := range task.Attachments {
		if a.ID == attachmentID {
			removed = &a
			continue
		}
		kept = append(kept, a)
	}
	if removed == nil {
		return nil, nil, ErrTaskNotFound
	}
	task.Attachments = kept
	task.UpdatedAt = time.Now().UTC()

	if err := s.taskRepo.Update(ctx, task); err != nil {
		return nil, nil, fmt.Errorf("failed to remove attachment: %w", err)
	}

	s.events.PublishTask(ctx, TaskEvent{
		Type:    EventTaskUpdated,
		TaskID:  task.ID,
		ActorID: userID,
		Task:    task,
	})
	return task, removed, nil
}

func (s *TaskService) Stats(ctx context.Context, userID uuid.UUID) (*repository.TaskStats, error) {
	stats, err := s.taskRepo.Stats(ctx, userID, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to get task stats: %w", err)
	}
	return stats, nil
}

func (s *TaskService) publishUpdate(ctx context.Context, actorID uuid.UUID, task *domain.Task, prevStatus domain.TaskStatus, prevAssignee *uuid.UUID) {
	s.events.PublishTask(ctx, TaskEvent{
		Type:    EventTaskUpdated,
		TaskID:  task.ID,
		ActorID: actorID,
		Task:    task,
	})

	if task.Status != prevStatus {
		s.events.PublishTask(ctx, TaskEvent{
			Type:    EventTaskStatusChanged,
			TaskID:  task.ID,
			ActorID: actorID,
			Task:    task,
			Data:    map[string]interface{}{"from": prevStatus, "to": task.Status},
		})
	}

	assigneeChanged := (task.AssignedTo == nil) != (prevAssignee == nil) ||
		(task.AssignedTo != nil && prevAssignee != nil && *task.AssignedTo != *prevAssignee)
	if assigneeChanged && task.AssignedTo != nil {
		s.events.PublishTask(ctx, TaskEvent{
			Type:    EventTaskAssigned,
			TaskID:  task.ID,
			ActorID: actorID,
			Task:    task,
			Data:    map[string]interface{}{"assignedTo": *task.AssignedTo},
		})
	}
}

func (s *TaskService) checkCategory(ctx context.Context, ownerID, categoryID uuid.UUID) error {
	category, err := s.categoryRepo.GetByID(ctx, categoryID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrCategoryNotFound
		}
		return fmt.Errorf("failed to check category: %w", err)
	}
	if category.CreatedBy != ownerID {
		return ErrCategoryNotFound
	}
	return nil
}

func (s *TaskService) checkAssignee(ctx context.Context, assigneeID uuid.UUID) error {
	user, err := s.userRepo.GetByID(ctx, assigneeID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to check assignee: %w", err)
	}
	if !user.IsActive {
		return ErrUserNotFound
	}
	return nil
}
