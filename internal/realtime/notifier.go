package realtime

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/LeoDhali007/TaskVerse/internal/domain"
	"github.com/LeoDhali007/TaskVerse/internal/repository"
	"github.com/LeoDhali007/TaskVerse/internal/service"
)

const deliverTimeout = 5 * time.Second

// Notifier receives task events from the services and fans them out to the
// hub: the task room plus the creator's and assignee's user rooms.
type Notifier struct {
	hub      *Hub
	taskRepo repository.TaskRepository
	logger   *zap.Logger
}

func NewNotifier(hub *Hub, taskRepo repository.TaskRepository, logger *zap.Logger) *Notifier {
	return &Notifier{hub: hub, taskRepo: taskRepo, logger: logger}
}

// PublishTask delivers asynchronously; the mutating request never waits on
// socket fan-out.
func (n *Notifier) PublishTask(_ context.Context, event service.TaskEvent) {
	go n.deliver(event)
}

func (n *Notifier) deliver(event service.TaskEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), deliverTimeout)
	defer cancel()

	task := event.Task
	if task == nil {
		loaded, err := n.taskRepo.GetByID(ctx, event.TaskID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				n.logger.Debug("dropping event for missing task",
					zap.String("task_id", event.TaskID.String()),
					zap.String("type", event.Type))
			} else {
				n.logger.Warn("failed to load task for event",
					zap.String("task_id", event.TaskID.String()),
					zap.Error(err))
			}
			return
		}
		task = loaded
	}

	out := NewEvent(event.Type, event)

	n.hub.Broadcast(TaskRoom(event.TaskID), out)
	for _, userID := range interestedUsers(task) {
		n.hub.Broadcast(UserRoom(userID), out)
	}
}

// interestedUsers returns the creator and assignee, deduplicated.
func interestedUsers(task *domain.Task) []uuid.UUID {
	users := []uuid.UUID{task.CreatedBy}
	if task.AssignedTo != nil && *task.AssignedTo != task.CreatedBy {
		users = append(users, *task.AssignedTo)
	}
	return users
}
