package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/LeoDhali007/TaskVerse/internal/domain"
)

// CategoryOrder is one entry of a bulk reorder request.
type CategoryOrder struct {
	ID        uuid.UUID `json:"id" validate:"required"`
	SortOrder int       `json:"sortOrder" validate:"gte=0"`
}

type CategoryStat struct {
	ID             uuid.UUID `json:"id" db:"id"`
	Name           string    `json:"name" db:"name"`
	Color          string    `json:"color" db:"color"`
	TaskCount      int       `json:"taskCount" db:"task_count"`
	CompletedTasks int       `json:"completedTasks" db:"completed_tasks"`
}

type CategoryRepository interface {
	Create(ctx context.Context, category *domain.Category) error
	// GetByID returns active categories only, with task count populated.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Category, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.Category, error)
	Update(ctx context.Context, category *domain.Category) error
	SoftDelete(ctx context.Context, id uuid.UUID) error
	// Reorder bulk-updates sort orders for categories owned by ownerID and
	// returns how many rows matched, so callers can detect foreign ids.
	Reorder(ctx context.Context, ownerID uuid.UUID, orders []CategoryOrder) (int64, error)
	Stats(ctx context.Context, ownerID uuid.UUID) ([]*CategoryStat, error)
}
