package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/LeoDhali007/TaskVerse/internal/domain"
)

// TaskFilter narrows task listings. Zero values mean "no constraint".
type TaskFilter struct {
	Status     domain.TaskStatus
	Priority   domain.TaskPriority
	CategoryID *uuid.UUID
	AssignedTo *uuid.UUID
	Tags       []string
	Search     string
	DueAfter   *time.Time
	DueBefore  *time.Time
	Archived   bool
	SortBy     string
	SortOrder  string
	Limit      int
	Offset     int
}

type TaskStats struct {
	Todo       int `json:"todo" db:"todo"`
	InProgress int `json:"inProgress" db:"in_progress"`
	Completed  int `json:"completed" db:"completed"`
	Cancelled  int `json:"cancelled" db:"cancelled"`
	Overdue    int `json:"overdue" db:"overdue"`
}

type TaskRepository interface {
	Create(ctx context.Context, task *domain.Task) error
	// GetByID returns the task with category/user projections populated.
	// Visibility is the caller's concern.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error)
	// List returns tasks visible to userID (creator or assignee) matching the
	// filter, plus the total count before pagination.
	List(ctx context.Context, userID uuid.UUID, filter TaskFilter) ([]*domain.Task, int, error)
	Update(ctx context.Context, task *domain.Task) error
	Delete(ctx context.Context, id uuid.UUID) error
	// ClearCategory detaches every task from a category being deleted.
	ClearCategory(ctx context.Context, categoryID uuid.UUID) error
	Stats(ctx context.Context, userID uuid.UUID, now time.Time) (*TaskStats, error)
}
