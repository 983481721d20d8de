package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/LeoDhali007/TaskVerse/internal/domain"
	"github.com/LeoDhali007/TaskVerse/internal/repository"
)

type UserService struct {
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	taskRepo    repository.TaskRepository
	logger      *zap.Logger
}

func NewUserService(userRepo repository.UserRepository, sessionRepo repository.SessionRepository, taskRepo repository.TaskRepository, logger *zap.Logger) *UserService {
	return &UserService{userRepo: userRepo, sessionRepo: sessionRepo, taskRepo: taskRepo, logger: logger}
}

func (s *UserService) GetProfile(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

type UpdateProfileRequest struct {
	FirstName   *string             `json:"firstName" validate:"omitempty,max=50"`
	LastName    *string             `json:"lastName" validate:"omitempty,max=50"`
	Avatar      *string             `json:"avatar" validate:"omitempty,url"`
	Bio         *string             `json:"bio" validate:"omitempty,max=500"`
	Timezone    *string             `json:"timezone" validate:"omitempty,max=50"`
	Preferences *domain.Preferences `json:"preferences"`
}

func (s *UserService) UpdateProfile(ctx context.Context, userID uuid.UUID, req UpdateProfileRequest) (*domain.User, error) {
	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.FirstName != nil {
		user.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		user.LastName = *req.LastName
	}
	if req.Avatar != nil {
		user.Avatar = *req.Avatar
	}
	if req.Bio != nil {
		user.Bio = *req.Bio
	}
	if req.Timezone != nil {
		user.Timezone = *req.Timezone
	}
	if req.Preferences != nil {
		user.Preferences = *req.Preferences
	}
	user.UpdatedAt = time.Now().UTC()

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return user, nil
}

func (s *UserService) GetPublic(ctx context.Context, userID uuid.UUID) (*domain.PublicUser, error) {
	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	return user.Public(), nil
}

func (s *UserService) Search(ctx context.Context, query string, limit, offset int) ([]*domain.PublicUser, int, error) {
	if limit <= 0 || limit > 50 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	users, total, err := s.userRepo.Search(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to search users: %w", err)
	}
	return users, total, nil
}

type UserStats struct {
	Tasks          *repository.TaskStats `json:"tasks"`
	ActiveSessions int                   `json:"activeSessions"`
	MemberSince    time.Time             `json:"memberSince"`
}

// Stats aggregates the account overview shown on the profile page.
func (s *UserService) Stats(ctx context.Context, userID uuid.UUID) (*UserStats, error) {
	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}

	taskStats, err := s.taskRepo.Stats(ctx, userID, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to get task stats: %w", err)
	}

	sessions, err := s.sessionRepo.ListActiveByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	return &UserStats{
		Tasks:          taskStats,
		ActiveSessions: len(sessions),
		MemberSince:    user.CreatedAt,
	}, nil
}

// Deactivate soft-deletes the account. Email and username are rewritten with a
// timestamped prefix so they can be registered again, and all refresh sessions
// are revoked.
func (s *UserService) Deactivate(ctx context.Context, userID uuid.UUID) error {
	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return err
	}

	stamp := time.Now().Unix()
	mangledEmail := fmt.Sprintf("deleted_%d_%s", stamp, user.Email)
	mangledUsername := fmt.Sprintf("deleted_%d_%s", stamp, user.Username)

	if err := s.userRepo.Deactivate(ctx, userID, mangledEmail, mangledUsername); err != nil {
		return fmt.Errorf("failed to deactivate user: %w", err)
	}

	if _, err := s.sessionRepo.RevokeAllForUser(ctx, userID); err != nil {
		s.logger.Warn("failed to revoke sessions on deactivation", zap.Error(err))
	}

	s.logger.Info("user deactivated", zap.String("user_id", userID.String()))
	return nil
}
