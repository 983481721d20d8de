package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type TaskStatus string

const (
	TaskStatusTodo       TaskStatus = "todo"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusCancelled  TaskStatus = "cancelled"
)

type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "low"
	TaskPriorityMedium TaskPriority = "medium"
	TaskPriorityHigh   TaskPriority = "high"
	TaskPriorityUrgent TaskPriority = "urgent"
)

type Task struct {
	ID             uuid.UUID    `json:"id" db:"id"`
	Title          string       `json:"title" db:"title"`
	Description    string       `json:"description,omitempty" db:"description"`
	Status         TaskStatus   `json:"status" db:"status"`
	Priority       TaskPriority `json:"priority" db:"priority"`
	CategoryID     *uuid.UUID   `json:"categoryId,omitempty" db:"category_id"`
	AssignedTo     *uuid.UUID   `json:"assignedTo,omitempty" db:"assigned_to"`
	CreatedBy      uuid.UUID    `json:"createdBy" db:"created_by"`
	DueDate        *time.Time   `json:"dueDate,omitempty" db:"due_date"`
	StartDate      *time.Time   `json:"startDate,omitempty" db:"start_date"`
	CompletedAt    *time.Time   `json:"completedAt,omitempty" db:"completed_at"`
	EstimatedHours *float64     `json:"estimatedHours,omitempty" db:"estimated_hours"`
	ActualHours    *float64     `json:"actualHours,omitempty" db:"actual_hours"`
	Tags           Tags         `json:"tags" db:"tags"`
	Subtasks       Subtasks     `json:"subtasks" db:"subtasks"`
	Comments       Comments     `json:"comments" db:"comments"`
	Attachments    Attachments  `json:"attachments" db:"attachments"`
	IsArchived     bool         `json:"isArchived" db:"is_archived"`
	Position       int          `json:"position" db:"position"`
	CreatedAt      time.Time    `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time    `json:"updatedAt" db:"updated_at"`

	// Populated projections, filled by the repository, never stored.
	Category       *CategoryRef `json:"category,omitempty" db:"-"`
	AssignedToUser *UserRef     `json:"assignedToUser,omitempty" db:"-"`
	CreatedByUser  *UserRef     `json:"createdByUser,omitempty" db:"-"`
}

// VisibleTo reports whether userID may read or mutate the task.
func (t *Task) VisibleTo(userID uuid.UUID) bool {
	if t.CreatedBy == userID {
		return true
	}
	return t.AssignedTo != nil && *t.AssignedTo == userID
}

// Overdue reports whether the task is past due and still open.
func (t *Task) Overdue(now time.Time) bool {
	if t.DueDate == nil || t.Status == TaskStatusCompleted || t.Status == TaskStatusCancelled {
		return false
	}
	return now.After(*t.DueDate)
}

type Subtask struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	IsCompleted bool      `json:"isCompleted"`
	CreatedAt   time.Time `json:"createdAt"`
}

type Comment struct {
	ID        uuid.UUID `json:"id"`
	Content   string    `json:"content"`
	AuthorID  uuid.UUID `json:"authorId"`
	Author    *UserRef  `json:"author,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Attachment struct {
	ID           uuid.UUID `json:"id"`
	Filename     string    `json:"filename"`
	OriginalName string    `json:"originalName"`
	MimeType     string    `json:"mimeType"`
	Size         int64     `json:"size"`
	URL          string    `json:"url"`
	UploadedBy   uuid.UUID `json:"uploadedBy"`
	UploadedAt   time.Time `json:"uploadedAt"`
}

// Tags, Subtasks, Comments and Attachments live in JSONB columns, mirroring
// the embedded-document shape of the task aggregate.
type (
	Tags        []string
	Subtasks    []Subtask
	Comments    []Comment
	Attachments []Attachment
)

func (t Tags) Value() (driver.Value, error)        { return jsonbValue(t) }
func (t *Tags) Scan(src interface{}) error         { return jsonbScan(src, t) }
func (s Subtasks) Value() (driver.Value, error)    { return jsonbValue(s) }
func (s *Subtasks) Scan(src interface{}) error     { return jsonbScan(src, s) }
func (c Comments) Value() (driver.Value, error)    { return jsonbValue(c) }
func (c *Comments) Scan(src interface{}) error     { return jsonbScan(src, c) }
func (a Attachments) Value() (driver.Value, error) { return jsonbValue(a) }
func (a *Attachments) Scan(src interface{}) error  { return jsonbScan(src, a) }

func jsonbValue(v interface{}) (driver.Value, error) {
	return json.Marshal(v)
}

func jsonbScan(src, dst interface{}) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, dst)
	case string:
		return json.Unmarshal([]byte(v), dst)
	case nil:
		return nil
	default:
		return fmt.Errorf("cannot scan %T into %T", src, dst)
	}
}
