package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/LeoDhali007/TaskVerse/internal/domain"
	"github.com/LeoDhali007/TaskVerse/internal/repository"
)

type sessionRepository struct {
	db *sqlx.DB
}

// NewSessionRepository creates a PostgreSQL refresh session repository.
func NewSessionRepository(db *sqlx.DB) repository.SessionRepository {
	return &sessionRepository{db: db}
}

const sessionColumns = `id, user_id, token, device_info, ip_address, is_revoked, expires_at, created_at`

func (r *sessionRepository) Create(ctx context.Context, session *domain.RefreshSession) error {
	query := `
		INSERT INTO refresh_sessions (
			id, user_id, token, device_info, ip_address, is_revoked,
			expires_at, created_at
		) VALUES (
			:id, :user_id, :token, :device_info, :ip_address, :is_revoked,
			:expires_at, :created_at
		)`

	if _, err := r.db.NamedExecContext(ctx, query, session); err != nil {
		if terr := translate(err); terr == repository.ErrDuplicate {
			return terr
		}
		return fmt.Errorf("failed to create session: %w", err)
	}
	return nil
}

func (r *sessionRepository) GetByToken(ctx context.Context, token string) (*domain.RefreshSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM refresh_sessions WHERE token = $1`

	var session domain.RefreshSession
	if err := r.db.GetContext(ctx, &session, query, token); err != nil {
		if terr := translate(err); terr == repository.ErrNotFound {
			return nil, terr
		}
		return nil, fmt.Errorf("failed to get session by token: %w", err)
	}
	return &session, nil
}

// Consume is the rotation primitive: revoke-if-active in one statement. The
// row predicate and the write are a single conditional update, so concurrent
// callers cannot both observe the session as active.
func (r *sessionRepository) Consume(ctx context.Context, token string) (*domain.RefreshSession, error) {
	query := `
		UPDATE refresh_sessions
		SET is_revoked = TRUE
		WHERE token = $1 AND NOT is_revoked AND expires_at > now()
		RETURNING ` + sessionColumns

	var session domain.RefreshSession
	if err := r.db.GetContext(ctx, &session, query, token); err != nil {
		if terr := translate(err); terr == repository.ErrNotFound {
			return nil, terr
		}
		return nil, fmt.Errorf("failed to consume session: %w", err)
	}
	return &session, nil
}

func (r *sessionRepository) RevokeByToken(ctx context.Context, token string) error {
	query := `UPDATE refresh_sessions SET is_revoked = TRUE WHERE token = $1`

	if _, err := r.db.ExecContext(ctx, query, token); err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}
	return nil
}

func (r *sessionRepository) RevokeByID(ctx context.Context, userID, sessionID uuid.UUID) error {
	query := `
		UPDATE refresh_sessions
		SET is_revoked = TRUE
		WHERE id = $1 AND user_id = $2 AND NOT is_revoked`

	result, err := r.db.ExecContext(ctx, query, sessionID, userID)
	if err != nil {
		return fmt.Errorf("failed to revoke session by id: %w", err)
	}
	return requireRowsAffected(result, "revoke session")
}

func (r *sessionRepository) RevokeAllForUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	query := `UPDATE refresh_sessions SET is_revoked = TRUE WHERE user_id = $1 AND NOT is_revoked`

	result, err := r.db.ExecContext(ctx, query, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to revoke user sessions: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows, nil
}

func (r *sessionRepository) ListActiveByUser(ctx context.Context, userID uuid.UUID) ([]*domain.RefreshSession, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM refresh_sessions
		WHERE user_id = $1 AND NOT is_revoked AND expires_at > now()
		ORDER BY created_at DESC`

	var sessions []*domain.RefreshSession
	if err := r.db.SelectContext(ctx, &sessions, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return sessions, nil
}

func (r *sessionRepository) DeleteStale(ctx context.Context) (int64, error) {
	query := `DELETE FROM refresh_sessions WHERE is_revoked OR expires_at <= now()`

	result, err := r.db.ExecContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("failed to delete stale sessions: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rows, nil
}
