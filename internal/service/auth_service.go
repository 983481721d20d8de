package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/LeoDhali007/TaskVerse/internal/domain"
	"github.com/LeoDhali007/TaskVerse/internal/repository"
	"github.com/LeoDhali007/TaskVerse/pkg/hash"
	"github.com/LeoDhali007/TaskVerse/pkg/token"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidRefresh     = errors.New("invalid or expired refresh token")
	ErrUserExists         = errors.New("user with this email or username already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrSessionNotFound    = errors.New("session not found")
	ErrPasswordMismatch   = errors.New("current password is incorrect")
	ErrAccountInactive    = errors.New("account is deactivated")
)

// dummyHash is compared against when the login email is unknown, so the
// request takes the same time either way.
var dummyHash, _ = hash.Password("correct horse battery staple")

type AuthService struct {
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	codec       *token.Codec
	logger      *zap.Logger
}

func NewAuthService(
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
	codec *token.Codec,
	logger *zap.Logger,
) *AuthService {
	return &AuthService{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		codec:       codec,
		logger:      logger,
	}
}

type RegisterRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Username  string `json:"username" validate:"required,min=3,max=30,alphanum"`
	Password  string `json:"password" validate:"required,min=8,max=128"`
	FirstName string `json:"firstName" validate:"required,max=50"`
	LastName  string `json:"lastName" validate:"required,max=50"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// ClientInfo carries the request metadata recorded on each session.
type ClientInfo struct {
	DeviceInfo string
	IPAddress  string
}

type AuthResponse struct {
	User   *domain.PublicUser `json:"user"`
	Tokens *domain.TokenPair  `json:"tokens"`
}

func (s *AuthService) Register(ctx context.Context, req RegisterRequest, client ClientInfo) (*AuthResponse, error) {
	exists, err := s.userRepo.ExistsByEmailOrUsername(ctx, req.Email, req.Username)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if exists {
		return nil, ErrUserExists
	}

	passwordHash, err := hash.Password(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:           uuid.New(),
		Email:        req.Email,
		Username:     req.Username,
		PasswordHash: passwordHash,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Timezone:     "UTC",
		Preferences:  domain.DefaultPreferences(),
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	tokens, err := s.issueSession(ctx, user.ID, client)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user registered",
		zap.String("user_id", user.ID.String()),
		zap.String("username", user.Username))

	return &AuthResponse{User: user.Public(), Tokens: tokens}, nil
}

func (s *AuthService) Login(ctx context.Context, req LoginRequest, client ClientInfo) (*AuthResponse, error) {
	user, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			hash.Compare(req.Password, dummyHash)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	ok, err := hash.Compare(req.Password, user.PasswordHash)
	if err != nil || !ok {
		return nil, ErrInvalidCredentials
	}

	if err := s.userRepo.UpdateLastLogin(ctx, user.ID); err != nil {
		s.logger.Warn("failed to record last login", zap.Error(err))
	}

	// Occasionally sweep revoked and expired sessions so the table does not
	// grow unbounded. Inline on the login path, same odds as before.
	if rand.Intn(100) == 0 {
		if n, err := s.sessionRepo.DeleteStale(ctx); err != nil {
			s.logger.Warn("stale session sweep failed", zap.Error(err))
		} else if n > 0 {
			s.logger.Info("swept stale sessions", zap.Int64("count", n))
		}
	}

	tokens, err := s.issueSession(ctx, user.ID, client)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user logged in", zap.String("user_id", user.ID.String()))

	return &AuthResponse{User: user.Public(), Tokens: tokens}, nil
}

// Refresh rotates a refresh token: the presented token is revoked and a fresh
// pair is issued. Each refresh token is usable exactly once; concurrent
// attempts race on the conditional revoke and only one wins.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string, client ClientInfo) (*domain.TokenPair, error) {
	claims, err := s.codec.Verify(refreshToken, token.PurposeRefresh)
	if err != nil {
		return nil, ErrInvalidRefresh
	}

	session, err := s.sessionRepo.Consume(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidRefresh
		}
		return nil, fmt.Errorf("failed to consume refresh session: %w", err)
	}

	if session.UserID != claims.UserID {
		s.logger.Warn("refresh session user mismatch",
			zap.String("session_user", session.UserID.String()),
			zap.String("claims_user", claims.UserID.String()))
		return nil, ErrInvalidRefresh
	}

	user, err := s.userRepo.GetByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidRefresh
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if !user.IsActive {
		return nil, ErrAccountInactive
	}

	return s.issueSession(ctx, user.ID, client)
}

// Logout revokes the presented refresh token. Unknown and already revoked
// tokens are accepted silently.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	if err := s.sessionRepo.RevokeByToken(ctx, refreshToken); err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}
	return nil
}

// LogoutAll revokes every active refresh session for the user. Outstanding
// access tokens remain valid until they expire.
func (s *AuthService) LogoutAll(ctx context.Context, userID uuid.UUID) (int64, error) {
	n, err := s.sessionRepo.RevokeAllForUser(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to revoke sessions: %w", err)
	}
	s.logger.Info("revoked all sessions",
		zap.String("user_id", userID.String()),
		zap.Int64("count", n))
	return n, nil
}

func (s *AuthService) ListSessions(ctx context.Context, userID uuid.UUID) ([]*domain.RefreshSession, error) {
	sessions, err := s.sessionRepo.ListActiveByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return sessions, nil
}

func (s *AuthService) RevokeSession(ctx context.Context, userID, sessionID uuid.UUID) error {
	if err := s.sessionRepo.RevokeByID(ctx, userID, sessionID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrSessionNotFound
		}
		return fmt.Errorf("failed to revoke session: %w", err)
	}
	return nil
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=8,max=128"`
}

// ChangePassword verifies the current password before writing the new hash,
// then revokes every refresh session so other devices must log in again.
func (s *AuthService) ChangePassword(ctx context.Context, userID uuid.UUID, req ChangePasswordRequest) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to look up user: %w", err)
	}

	ok, err := hash.Compare(req.CurrentPassword, user.PasswordHash)
	if err != nil || !ok {
		return ErrPasswordMismatch
	}

	newHash, err := hash.Password(req.NewPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.userRepo.UpdatePassword(ctx, userID, newHash); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	if _, err := s.sessionRepo.RevokeAllForUser(ctx, userID); err != nil {
		s.logger.Warn("failed to revoke sessions after password change", zap.Error(err))
	}

	s.logger.Info("password changed", zap.String("user_id", userID.String()))
	return nil
}

func (s *AuthService) issueSession(ctx context.Context, userID uuid.UUID, client ClientInfo) (*domain.TokenPair, error) {
	access, expiresAt, err := s.codec.IssueAccess(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to issue access token: %w", err)
	}

	refresh, refreshExpiry, err := s.codec.IssueRefresh(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to issue refresh token: %w", err)
	}

	session := &domain.RefreshSession{
		ID:         uuid.New(),
		UserID:     userID,
		Token:      refresh,
		DeviceInfo: client.DeviceInfo,
		IPAddress:  client.IPAddress,
		ExpiresAt:  refreshExpiry,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to persist refresh session: %w", err)
	}

	return &domain.TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    expiresAt,
		TokenType:    "Bearer",
	}, nil
}
