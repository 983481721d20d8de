package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/LeoDhali007/TaskVerse/internal/domain"
)

// Task event types delivered to connected clients.
const (
	EventTaskCreated         = "task:created"
	EventTaskUpdated         = "task:updated"
	EventTaskStatusChanged   = "task:status_changed"
	EventTaskAssigned        = "task:assigned"
	EventTaskCommentAdded    = "task:comment_added"
	EventTaskAttachmentAdded = "task:attachment_added"
	EventTaskDeleted         = "task:deleted"
	EventTaskSubtaskUpdated  = "task:subtask_updated"
)

// TaskEvent describes a task mutation for interested listeners.
type TaskEvent struct {
	Type    string       `json:"type"`
	TaskID  uuid.UUID    `json:"taskId"`
	ActorID uuid.UUID    `json:"actorId"`
	Task    *domain.Task `json:"task,omitempty"`
	Data    interface{}  `json:"data,omitempty"`
}

// EventPublisher decouples task mutations from their delivery. Publishing is
// fire-and-forget; implementations must not block the caller.
type EventPublisher interface {
	PublishTask(ctx context.Context, event TaskEvent)
}

// NopPublisher discards all events.
type NopPublisher struct{}

func (NopPublisher) PublishTask(context.Context, TaskEvent) {}
