package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/LeoDhali007/TaskVerse/internal/domain"
	"github.com/LeoDhali007/TaskVerse/internal/repository"
)

type userRepository struct {
	db *sqlx.DB
}

// NewUserRepository creates a PostgreSQL user repository.
func NewUserRepository(db *sqlx.DB) repository.UserRepository {
	return &userRepository{db: db}
}

const userColumns = `
	id, username, email, password_hash, first_name, last_name, avatar, bio,
	timezone, preferences, is_active, created_at, updated_at, last_login_at`

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (
			id, username, email, password_hash, first_name, last_name, avatar,
			bio, timezone, preferences, is_active, created_at, updated_at
		) VALUES (
			:id, :username, :email, :password_hash, :first_name, :last_name,
			:avatar, :bio, :timezone, :preferences, :is_active, :created_at,
			:updated_at
		)`

	if _, err := r.db.NamedExecContext(ctx, query, user); err != nil {
		if terr := translate(err); terr == repository.ErrDuplicate {
			return terr
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	var user domain.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		if terr := translate(err); terr == repository.ErrNotFound {
			return nil, terr
		}
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE lower(email) = lower($1) AND is_active`

	var user domain.User
	if err := r.db.GetContext(ctx, &user, query, email); err != nil {
		if terr := translate(err); terr == repository.ErrNotFound {
			return nil, terr
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return &user, nil
}

func (r *userRepository) ExistsByEmailOrUsername(ctx context.Context, email, username string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM users
			WHERE (lower(email) = lower($1) OR lower(username) = lower($2))
			  AND is_active
		)`

	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, email, username); err != nil {
		return false, fmt.Errorf("failed to check user existence: %w", err)
	}
	return exists, nil
}

func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	query := `
		UPDATE users
		SET first_name = :first_name,
			last_name = :last_name,
			avatar = :avatar,
			bio = :bio,
			timezone = :timezone,
			preferences = :preferences,
			updated_at = now()
		WHERE id = :id AND is_active`

	result, err := r.db.NamedExecContext(ctx, query, user)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	return requireRowsAffected(result, "update user")
}

func (r *userRepository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	query := `UPDATE users SET password_hash = $2, updated_at = now() WHERE id = $1 AND is_active`

	result, err := r.db.ExecContext(ctx, query, id, passwordHash)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return requireRowsAffected(result, "update password")
}

func (r *userRepository) UpdateLastLogin(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE users SET last_login_at = now() WHERE id = $1`

	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("failed to update last login: %w", err)
	}
	return nil
}

func (r *userRepository) Deactivate(ctx context.Context, id uuid.UUID, mangledEmail, mangledUsername string) error {
	query := `
		UPDATE users
		SET is_active = FALSE, email = $2, username = $3, updated_at = now()
		WHERE id = $1 AND is_active`

	result, err := r.db.ExecContext(ctx, query, id, mangledEmail, mangledUsername)
	if err != nil {
		return fmt.Errorf("failed to deactivate user: %w", err)
	}
	return requireRowsAffected(result, "deactivate user")
}

func (r *userRepository) Search(ctx context.Context, query string, limit, offset int) ([]*domain.PublicUser, int, error) {
	where := `is_active`
	args := []interface{}{}
	if query != "" {
		where += ` AND (username ILIKE $1 OR first_name ILIKE $1 OR last_name ILIKE $1 OR email ILIKE $1)`
		args = append(args, "%"+query+"%")
	}

	var total int
	countQuery := `SELECT count(*) FROM users WHERE ` + where
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	listQuery := fmt.Sprintf(`
		SELECT id, username, first_name, last_name, avatar, bio, created_at
		FROM users
		WHERE %s
		ORDER BY username
		LIMIT $%d OFFSET $%d`, where, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	var users []*domain.PublicUser
	if err := r.db.SelectContext(ctx, &users, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to search users: %w", err)
	}
	return users, total, nil
}
