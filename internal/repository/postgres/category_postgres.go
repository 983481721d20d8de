package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/LeoDhali007/TaskVerse/internal/domain"
	"github.com/LeoDhali007/TaskVerse/internal/repository"
)

type categoryRepository struct {
	db *sqlx.DB
}

// NewCategoryRepository creates a PostgreSQL category repository.
func NewCategoryRepository(db *sqlx.DB) repository.CategoryRepository {
	return &categoryRepository{db: db}
}

const categoryColumns = `
	c.id, c.name, c.description, c.color, c.icon, c.created_by, c.is_default,
	c.sort_order, c.is_active, c.created_at, c.updated_at,
	(SELECT count(*) FROM tasks t WHERE t.category_id = c.id) AS task_count`

func (r *categoryRepository) Create(ctx context.Context, category *domain.Category) error {
	query := `
		INSERT INTO categories (
			id, name, description, color, icon, created_by, is_default,
			sort_order, is_active, created_at, updated_at
		) VALUES (
			:id, :name, :description, :color, :icon, :created_by, :is_default,
			:sort_order, :is_active, :created_at, :updated_at
		)`

	if _, err := r.db.NamedExecContext(ctx, query, category); err != nil {
		if terr := translate(err); terr == repository.ErrDuplicate {
			return terr
		}
		return fmt.Errorf("failed to create category: %w", err)
	}
	return nil
}

func (r *categoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories c WHERE c.id = $1 AND c.is_active`

	var category domain.Category
	if err := r.db.GetContext(ctx, &category, query, id); err != nil {
		if terr := translate(err); terr == repository.ErrNotFound {
			return nil, terr
		}
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	return &category, nil
}

func (r *categoryRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*domain.Category, error) {
	query := `
		SELECT ` + categoryColumns + `
		FROM categories c
		WHERE c.created_by = $1 AND c.is_active
		ORDER BY c.sort_order, c.created_at`

	var categories []*domain.Category
	if err := r.db.SelectContext(ctx, &categories, query, ownerID); err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

func (r *categoryRepository) Update(ctx context.Context, category *domain.Category) error {
	query := `
		UPDATE categories
		SET name = :name,
			description = :description,
			color = :color,
			icon = :icon,
			sort_order = :sort_order,
			updated_at = now()
		WHERE id = :id AND is_active`

	result, err := r.db.NamedExecContext(ctx, query, category)
	if err != nil {
		if terr := translate(err); terr == repository.ErrDuplicate {
			return terr
		}
		return fmt.Errorf("failed to update category: %w", err)
	}
	return requireRowsAffected(result, "update category")
}

func (r *categoryRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE categories SET is_active = FALSE, updated_at = now() WHERE id = $1 AND is_active`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}
	return requireRowsAffected(result, "delete category")
}

func (r *categoryRepository) Reorder(ctx context.Context, ownerID uuid.UUID, orders []repository.CategoryOrder) (int64, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin reorder: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := `
		UPDATE categories
		SET sort_order = $3, updated_at = now()
		WHERE id = $1 AND created_by = $2 AND is_active`

	var matched int64
	for _, o := range orders {
		result, err := tx.ExecContext(ctx, query, o.ID, ownerID, o.SortOrder)
		if err != nil {
			return 0, fmt.Errorf("failed to reorder category: %w", err)
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return 0, fmt.Errorf("failed to get rows affected: %w", err)
		}
		matched += rows
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit reorder: %w", err)
	}
	return matched, nil
}

func (r *categoryRepository) Stats(ctx context.Context, ownerID uuid.UUID) ([]*repository.CategoryStat, error) {
	query := `
		SELECT c.id, c.name, c.color,
			   count(t.id) AS task_count,
			   count(t.id) FILTER (WHERE t.status = 'completed') AS completed_tasks
		FROM categories c
		LEFT JOIN tasks t ON t.category_id = c.id
		WHERE c.created_by = $1 AND c.is_active
		GROUP BY c.id, c.name, c.color, c.sort_order, c.created_at
		ORDER BY c.sort_order, c.created_at`

	var stats []*repository.CategoryStat
	if err := r.db.SelectContext(ctx, &stats, query, ownerID); err != nil {
		return nil, fmt.Errorf("failed to get category stats: %w", err)
	}
	return stats, nil
}
