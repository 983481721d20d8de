package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/LeoDhali007/TaskVerse/internal/domain"
)

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	// GetByEmail matches case-insensitively and only returns active users.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	// ExistsByEmailOrUsername matches case-insensitively, active users only.
	ExistsByEmailOrUsername(ctx context.Context, email, username string) (bool, error)
	Update(ctx context.Context, user *domain.User) error
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	UpdateLastLogin(ctx context.Context, id uuid.UUID) error
	// Deactivate soft-deletes: marks inactive and replaces email/username with
	// mangled values so the uniqueness constraints are freed for reuse.
	Deactivate(ctx context.Context, id uuid.UUID, mangledEmail, mangledUsername string) error
	Search(ctx context.Context, query string, limit, offset int) ([]*domain.PublicUser, int, error)
}
