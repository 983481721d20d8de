package repository

import (
	"context"

	"github.com/google/uuid"

	"github.com/LeoDhali007/TaskVerse/internal/domain"
)

type SessionRepository interface {
	Create(ctx context.Context, session *domain.RefreshSession) error
	GetByToken(ctx context.Context, token string) (*domain.RefreshSession, error)
	// Consume atomically revokes the session identified by token if and only
	// if it is still active (not revoked, not expired) and returns it. Two
	// concurrent calls for the same token yield exactly one success; the
	// loser gets ErrNotFound. This single conditional write is what makes
	// refresh-token rotation race-free.
	Consume(ctx context.Context, token string) (*domain.RefreshSession, error)
	// RevokeByToken is idempotent: revoking a missing or already revoked
	// session is not an error.
	RevokeByToken(ctx context.Context, token string) error
	RevokeByID(ctx context.Context, userID, sessionID uuid.UUID) error
	RevokeAllForUser(ctx context.Context, userID uuid.UUID) (int64, error)
	// ListActiveByUser returns non-revoked, non-expired sessions, newest first.
	ListActiveByUser(ctx context.Context, userID uuid.UUID) ([]*domain.RefreshSession, error)
	// DeleteStale removes expired-or-revoked rows; called opportunistically.
	DeleteStale(ctx context.Context) (int64, error)
}
