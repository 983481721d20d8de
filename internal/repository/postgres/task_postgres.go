package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/LeoDhali007/TaskVerse/internal/domain"
	"github.com/LeoDhali007/TaskVerse/internal/repository"
)

type taskRepository struct {
	db *sqlx.DB
}

// NewTaskRepository creates a PostgreSQL task repository.
func NewTaskRepository(db *sqlx.DB) repository.TaskRepository {
	return &taskRepository{db: db}
}

const taskColumns = `
	id, title, description, status, priority, category_id, assigned_to,
	created_by, due_date, start_date, completed_at, estimated_hours,
	actual_hours, tags, subtasks, comments, attachments, is_archived,
	position, created_at, updated_at`

func (r *taskRepository) Create(ctx context.Context, task *domain.Task) error {
	query := `
		INSERT INTO tasks (
			id, title, description, status, priority, category_id, assigned_to,
			created_by, due_date, start_date, completed_at, estimated_hours,
			actual_hours, tags, subtasks, comments, attachments, is_archived,
			position, created_at, updated_at
		) VALUES (
			:id, :title, :description, :status, :priority, :category_id,
			:assigned_to, :created_by, :due_date, :start_date, :completed_at,
			:estimated_hours, :actual_hours, :tags, :subtasks, :comments,
			:attachments, :is_archived, :position, :created_at, :updated_at
		)`

	if _, err := r.db.NamedExecContext(ctx, query, task); err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}
	return nil
}

func (r *taskRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`

	var task domain.Task
	if err := r.db.GetContext(ctx, &task, query, id); err != nil {
		if terr := translate(err); terr == repository.ErrNotFound {
			return nil, terr
		}
		return nil, fmt.Errorf("failed to get task: %w", err)
	}

	if err := r.populate(ctx, []*domain.Task{&task}); err != nil {
		return nil, err
	}
	return &task, nil
}

// Sortable columns are whitelisted; anything else falls back to position.
var taskSortColumns = map[string]string{
	"createdAt": "created_at",
	"updatedAt": "updated_at",
	"dueDate":   "due_date",
	"title":     "title",
	"position":  "position",
	"priority":  "CASE priority WHEN 'urgent' THEN 4 WHEN 'high' THEN 3 WHEN 'medium' THEN 2 ELSE 1 END",
}

func (r *taskRepository) List(ctx context.Context, userID uuid.UUID, filter repository.TaskFilter) ([]*domain.Task, int, error) {
	conds := []string{"(created_by = $1 OR assigned_to = $1)", "is_archived = $2"}
	args := []interface{}{userID, filter.Archived}

	add := func(cond string, value interface{}) {
		args = append(args, value)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if filter.Status != "" {
		add("status = $%d", filter.Status)
	}
	if filter.Priority != "" {
		add("priority = $%d", filter.Priority)
	}
	if filter.CategoryID != nil {
		add("category_id = $%d", *filter.CategoryID)
	}
	if filter.AssignedTo != nil {
		add("assigned_to = $%d", *filter.AssignedTo)
	}
	if len(filter.Tags) > 0 {
		add("tags ?| $%d", pq.Array(filter.Tags))
	}
	if filter.Search != "" {
		add("(title ILIKE $%d OR description ILIKE $%[1]d)", "%"+filter.Search+"%")
	}
	if filter.DueAfter != nil {
		add("due_date >= $%d", *filter.DueAfter)
	}
	if filter.DueBefore != nil {
		add("due_date <= $%d", *filter.DueBefore)
	}

	where := strings.Join(conds, " AND ")

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT count(*) FROM tasks WHERE `+where, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count tasks: %w", err)
	}

	orderBy, ok := taskSortColumns[filter.SortBy]
	if !ok {
		orderBy = "position"
	}
	direction := "ASC"
	if strings.EqualFold(filter.SortOrder, "desc") {
		direction = "DESC"
	}

	query := fmt.Sprintf(`SELECT %s FROM tasks WHERE %s ORDER BY %s %s LIMIT $%d OFFSET $%d`,
		taskColumns, where, orderBy, direction, len(args)+1, len(args)+2)
	args = append(args, filter.Limit, filter.Offset)

	var tasks []*domain.Task
	if err := r.db.SelectContext(ctx, &tasks, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list tasks: %w", err)
	}

	if err := r.populate(ctx, tasks); err != nil {
		return nil, 0, err
	}
	return tasks, total, nil
}

func (r *taskRepository) Update(ctx context.Context, task *domain.Task) error {
	query := `
		UPDATE tasks
		SET title = :title,
			description = :description,
			status = :status,
			priority = :priority,
			category_id = :category_id,
			assigned_to = :assigned_to,
			due_date = :due_date,
			start_date = :start_date,
			completed_at = :completed_at,
			estimated_hours = :estimated_hours,
			actual_hours = :actual_hours,
			tags = :tags,
			subtasks = :subtasks,
			comments = :comments,
			attachments = :attachments,
			is_archived = :is_archived,
			position = :position,
			updated_at = now()
		WHERE id = :id`

	result, err := r.db.NamedExecContext(ctx, query, task)
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}
	return requireRowsAffected(result, "update task")
}

func (r *taskRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	return requireRowsAffected(result, "delete task")
}

func (r *taskRepository) ClearCategory(ctx context.Context, categoryID uuid.UUID) error {
	query := `UPDATE tasks SET category_id = NULL, updated_at = now() WHERE category_id = $1`

	if _, err := r.db.ExecContext(ctx, query, categoryID); err != nil {
		return fmt.Errorf("failed to clear task category: %w", err)
	}
	return nil
}

func (r *taskRepository) Stats(ctx context.Context, userID uuid.UUID, now time.Time) (*repository.TaskStats, error) {
	query := `
		SELECT
			count(*) FILTER (WHERE status = 'todo') AS todo,
			count(*) FILTER (WHERE status = 'in_progress') AS in_progress,
			count(*) FILTER (WHERE status = 'completed') AS completed,
			count(*) FILTER (WHERE status = 'cancelled') AS cancelled,
			count(*) FILTER (
				WHERE due_date < $2 AND status NOT IN ('completed', 'cancelled')
			) AS overdue
		FROM tasks
		WHERE (created_by = $1 OR assigned_to = $1) AND NOT is_archived`

	var stats repository.TaskStats
	if err := r.db.GetContext(ctx, &stats, query, userID, now); err != nil {
		return nil, fmt.Errorf("failed to get task stats: %w", err)
	}
	return &stats, nil
}

// populate fills the category/user projections for a batch of tasks with two
// lookup queries, mirroring the reference-population the API exposes.
func (r *taskRepository) populate(ctx context.Context, tasks []*domain.Task) error {
	if len(tasks) == 0 {
		return nil
	}

	userIDs := map[uuid.UUID]struct{}{}
	categoryIDs := map[uuid.UUID]struct{}{}
	for _, t := range tasks {
		userIDs[t.CreatedBy] = struct{}{}
		if t.AssignedTo != nil {
			userIDs[*t.AssignedTo] = struct{}{}
		}
		if t.CategoryID != nil {
			categoryIDs[*t.CategoryID] = struct{}{}
		}
		for _, c := range t.Comments {
			userIDs[c.AuthorID] = struct{}{}
		}
	}

	userRefs, err := r.userRefs(ctx, keys(userIDs))
	if err != nil {
		return err
	}
	categoryRefs, err := r.categoryRefs(ctx, keys(categoryIDs))
	if err != nil {
		return err
	}

	for _, t := range tasks {
		t.CreatedByUser = userRefs[t.CreatedBy]
		if t.AssignedTo != nil {
			t.AssignedToUser = userRefs[*t.AssignedTo]
		}
		if t.CategoryID != nil {
			t.Category = categoryRefs[*t.CategoryID]
		}
		for i := range t.Comments {
			t.Comments[i].Author = userRefs[t.Comments[i].AuthorID]
		}
	}
	return nil
}

func (r *taskRepository) userRefs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*domain.UserRef, error) {
	if len(ids) == 0 {
		return map[uuid.UUID]*domain.UserRef{}, nil
	}

	query := `SELECT id, username, first_name, last_name, avatar FROM users WHERE id = ANY($1)`

	var refs []*domain.UserRef
	if err := r.db.SelectContext(ctx, &refs, query, pq.Array(uuidStrings(ids))); err != nil {
		return nil, fmt.Errorf("failed to get user refs: %w", err)
	}

	out := make(map[uuid.UUID]*domain.UserRef, len(refs))
	for _, ref := range refs {
		out[ref.ID] = ref
	}
	return out, nil
}

func (r *taskRepository) categoryRefs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*domain.CategoryRef, error) {
	if len(ids) == 0 {
		return map[uuid.UUID]*domain.CategoryRef{}, nil
	}

	query := `SELECT id, name, color, icon FROM categories WHERE id = ANY($1)`

	var refs []*domain.CategoryRef
	if err := r.db.SelectContext(ctx, &refs, query, pq.Array(uuidStrings(ids))); err != nil {
		return nil, fmt.Errorf("failed to get category refs: %w", err)
	}

	out := make(map[uuid.UUID]*domain.CategoryRef, len(refs))
	for _, ref := range refs {
		out[ref.ID] = ref
	}
	return out, nil
}

func keys(set map[uuid.UUID]struct{}) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	return out
}

func uuidStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
