package domain

import (
	"time"

	"github.com/google/uuid"
)

type Category struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description,omitempty" db:"description"`
	Color       string    `json:"color" db:"color"`
	Icon        string    `json:"icon,omitempty" db:"icon"`
	CreatedBy   uuid.UUID `json:"createdBy" db:"created_by"`
	IsDefault   bool      `json:"isDefault" db:"is_default"`
	SortOrder   int       `json:"sortOrder" db:"sort_order"`
	IsActive    bool      `json:"isActive" db:"is_active"`
	TaskCount   int       `json:"taskCount" db:"task_count"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt" db:"updated_at"`
}

// CategoryRef is the lightweight projection embedded in task responses.
type CategoryRef struct {
	ID    uuid.UUID `json:"id" db:"id"`
	Name  string    `json:"name" db:"name"`
	Color string    `json:"color" db:"color"`
	Icon  string    `json:"icon,omitempty" db:"icon"`
}
