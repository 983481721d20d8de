package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/LeoDhali007/TaskVerse/internal/domain"
	"github.com/LeoDhali007/TaskVerse/internal/repository"
)

// In-memory repository fakes. They mirror the documented contracts of the
// postgres implementations, including Consume's single-winner semantics.

type memUserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]*domain.User
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[uuid.UUID]*domain.User)}
}

func (r *memUserRepo) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.IsActive && (strings.EqualFold(u.Email, user.Email) || strings.EqualFold(u.Username, user.Username)) {
			return repository.ErrDuplicate
		}
	}
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *memUserRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	clone := *u
	return &clone, nil
}

func (r *memUserRepo) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.IsActive && strings.EqualFold(u.Email, email) {
			clone := *u
			return &clone, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memUserRepo) ExistsByEmailOrUsername(_ context.Context, email, username string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.IsActive && (strings.EqualFold(u.Email, email) || strings.EqualFold(u.Username, username)) {
			return true, nil
		}
	}
	return false, nil
}

func (r *memUserRepo) Update(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return repository.ErrNotFound
	}
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *memUserRepo) UpdatePassword(_ context.Context, id uuid.UUID, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.PasswordHash = passwordHash
	return nil
}

func (r *memUserRepo) UpdateLastLogin(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		now := time.Now().UTC()
		u.LastLoginAt = &now
	}
	return nil
}

func (r *memUserRepo) Deactivate(_ context.Context, id uuid.UUID, mangledEmail, mangledUsername string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.IsActive = false
	u.Email = mangledEmail
	u.Username = mangledUsername
	return nil
}

func (r *memUserRepo) Search(_ context.Context, query string, limit, offset int) ([]*domain.PublicUser, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.PublicUser
	for _, u := range r.users {
		if !u.IsActive {
			continue
		}
		if strings.Contains(strings.ToLower(u.Username), strings.ToLower(query)) ||
			strings.Contains(strings.ToLower(u.Email), strings.ToLower(query)) {
			out = append(out, u.Public())
		}
	}
	total := len(out)
	if offset >= len(out) {
		return nil, total, nil
	}
	out = out[offset:]
	if len(out) > limit {
		out = out[:limit]
	}
	return out, total, nil
}

type memSessionRepo struct {
	mu       sync.Mutex
	sessions map[string]*domain.RefreshSession
}

func newMemSessionRepo() *memSessionRepo {
	return &memSessionRepo{sessions: make(map[string]*domain.RefreshSession)}
}

func (r *memSessionRepo) Create(_ context.Context, session *domain.RefreshSession) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[session.Token]; ok {
		return repository.ErrDuplicate
	}
	clone := *session
	r.sessions[session.Token] = &clone
	return nil
}

func (r *memSessionRepo) GetByToken(_ context.Context, token string) (*domain.RefreshSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[token]
	if !ok {
		return nil, repository.ErrNotFound
	}
	clone := *s
	return &clone, nil
}

func (r *memSessionRepo) Consume(_ context.Context, token string) (*domain.RefreshSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[token]
	if !ok || s.IsRevoked || !time.Now().Before(s.ExpiresAt) {
		return nil, repository.ErrNotFound
	}
	s.IsRevoked = true
	clone := *s
	return &clone, nil
}

func (r *memSessionRepo) RevokeByToken(_ context.Context, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[token]; ok {
		s.IsRevoked = true
	}
	return nil
}

func (r *memSessionRepo) RevokeByID(_ context.Context, userID, sessionID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.sessions {
		if s.ID == sessionID && s.UserID == userID && !s.IsRevoked {
			s.IsRevoked = true
			return nil
		}
	}
	return repository.ErrNotFound
}

func (r *memSessionRepo) RevokeAllForUser(_ context.Context, userID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, s := range r.sessions {
		if s.UserID == userID && !s.IsRevoked {
			s.IsRevoked = true
			n++
		}
	}
	return n, nil
}

func (r *memSessionRepo) ListActiveByUser(_ context.Context, userID uuid.UUID) ([]*domain.RefreshSession, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.RefreshSession
	for _, s := range r.sessions {
		if s.UserID == userID && s.Active(time.Now()) {
			clone := *s
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *memSessionRepo) DeleteStale(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for token, s := range r.sessions {
		if s.IsRevoked || !time.Now().Before(s.ExpiresAt) {
			delete(r.sessions, token)
			n++
		}
	}
	return n, nil
}

type memCategoryRepo struct {
	mu         sync.Mutex
	categories map[uuid.UUID]*domain.Category
}

func newMemCategoryRepo() *memCategoryRepo {
	return &memCategoryRepo{categories: make(map[uuid.UUID]*domain.Category)}
}

func (r *memCategoryRepo) Create(_ context.Context, category *domain.Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.categories {
		if c.IsActive && c.CreatedBy == category.CreatedBy && strings.EqualFold(c.Name, category.Name) {
			return repository.ErrDuplicate
		}
	}
	clone := *category
	r.categories[category.ID] = &clone
	return nil
}

func (r *memCategoryRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.categories[id]
	if !ok || !c.IsActive {
		return nil, repository.ErrNotFound
	}
	clone := *c
	return &clone, nil
}

func (r *memCategoryRepo) ListByOwner(_ context.Context, ownerID uuid.UUID) ([]*domain.Category, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Category
	for _, c := range r.categories {
		if c.IsActive && c.CreatedBy == ownerID {
			clone := *c
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *memCategoryRepo) Update(_ context.Context, category *domain.Category) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.categories[category.ID]; !ok {
		return repository.ErrNotFound
	}
	clone := *category
	r.categories[category.ID] = &clone
	return nil
}

func (r *memCategoryRepo) SoftDelete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.categories[id]
	if !ok || !c.IsActive {
		return repository.ErrNotFound
	}
	c.IsActive = false
	return nil
}

func (r *memCategoryRepo) Reorder(_ context.Context, ownerID uuid.UUID, orders []repository.CategoryOrder) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var matched int64
	for _, o := range orders {
		if c, ok := r.categories[o.ID]; ok && c.IsActive && c.CreatedBy == ownerID {
			c.SortOrder = o.SortOrder
			matched++
		}
	}
	return matched, nil
}

func (r *memCategoryRepo) Stats(_ context.Context, ownerID uuid.UUID) ([]*repository.CategoryStat, error) {
	return nil, nil
}

type memTaskRepo struct {
	mu    sync.Mutex
	tasks map[uuid.UUID]*domain.Task
}

func newMemTaskRepo() *memTaskRepo {
	return &memTaskRepo{tasks: make(map[uuid.UUID]*domain.Task)}
}

func (r *memTaskRepo) Create(_ context.Context, task *domain.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *task
	r.tasks[task.ID] = &clone
	return nil
}

func (r *memTaskRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	clone := *t
	return &clone, nil
}

func (r *memTaskRepo) List(_ context.Context, userID uuid.UUID, filter repository.TaskFilter) ([]*domain.Task, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Task
	for _, t := range r.tasks {
		if !t.VisibleTo(userID) || t.IsArchived != filter.Archived {
			continue
		}
		if filter.Status != "" && t.Status != filter.Status {
			continue
		}
		clone := *t
		out = append(out, &clone)
	}
	return out, len(out), nil
}

func (r *memTaskRepo) Update(_ context.Context, task *domain.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tasks[task.ID]; !ok {
		return repository.ErrNotFound
	}
	clone := *task
	r.tasks[task.ID] = &clone
	return nil
}

func (r *memTaskRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.tasks[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.tasks, id)
	return nil
}

func (r *memTaskRepo) ClearCategory(_ context.Context, categoryID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tasks {
		if t.CategoryID != nil && *t.CategoryID == categoryID {
			t.CategoryID = nil
		}
	}
	return nil
}

func (r *memTaskRepo) Stats(_ context.Context, userID uuid.UUID, now time.Time) (*repository.TaskStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stats := &repository.TaskStats{}
	for _, t := range r.tasks {
		if !t.VisibleTo(userID) || t.IsArchived {
			continue
		}
		switch t.Status {
		case domain.TaskStatusTodo:
			stats.Todo++
		case domain.TaskStatusInProgress:
			stats.InProgress++
		case domain.TaskStatusCompleted:
			stats.Completed++
		case domain.TaskStatusCancelled:
			stats.Cancelled++
		}
		if t.Overdue(now) {
			stats.Overdue++
		}
	}
	return stats, nil
}

// capturePublisher records every published event for assertions.
type capturePublisher struct {
	mu     sync.Mutex
	events []TaskEvent
}

func (p *capturePublisher) PublishTask(_ context.Context, event TaskEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *capturePublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}
