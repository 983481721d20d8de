package service

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/LeoDhali007/TaskVerse/internal/domain"
)

func TestDeactivateManglesIdentityAndRevokesSessions(t *testing.T) {
	authSvc, users, sessions := newTestAuthService(t)
	userSvc := NewUserService(users, sessions, newMemTaskRepo(), zap.NewNop())
	ctx := context.Background()

	reg := registerTestUser(t, authSvc)

	require.NoError(t, userSvc.Deactivate(ctx, reg.User.ID))

	gone, err := users.GetByID(ctx, reg.User.ID)
	require.NoError(t, err)
	assert.False(t, gone.IsActive)
	assert.True(t, strings.HasPrefix(gone.Email, "deleted_"))
	assert.True(t, strings.HasSuffix(gone.Email, "kara@example.com"))
	assert.True(t, strings.HasPrefix(gone.Username, "deleted_"))

	// The original identity is free to register again.
	_, err = authSvc.Register(ctx, RegisterRequest{
		Email:     "kara@example.com",
		Username:  "kara",
		Password:  "another-password",
		FirstName: "Kara",
		LastName:  "Danvers",
	}, ClientInfo{})
	assert.NoError(t, err)

	// Existing refresh sessions died with the account.
	_, err = authSvc.Refresh(ctx, reg.Tokens.RefreshToken, ClientInfo{})
	assert.ErrorIs(t, err, ErrInvalidRefresh)
}

func TestUpdateProfilePartial(t *testing.T) {
	authSvc, users, sessions := newTestAuthService(t)
	userSvc := NewUserService(users, sessions, newMemTaskRepo(), zap.NewNop())
	ctx := context.Background()

	reg := registerTestUser(t, authSvc)

	name := "Kara Zor-El"
	updated, err := userSvc.UpdateProfile(ctx, reg.User.ID, UpdateProfileRequest{FirstName: &name})
	require.NoError(t, err)
	assert.Equal(t, "Kara Zor-El", updated.FirstName)
	assert.Equal(t, "Danvers", updated.LastName)
	assert.Equal(t, "system", updated.Preferences.Theme)
}

func TestSearchClampsPagination(t *testing.T) {
	authSvc, users, sessions := newTestAuthService(t)
	userSvc := NewUserService(users, sessions, newMemTaskRepo(), zap.NewNop())
	ctx := context.Background()

	registerTestUser(t, authSvc)

	found, total, err := userSvc.Search(ctx, "kara", 500, -3)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, found, 1)
	assert.Equal(t, "kara", found[0].Username)
}

func TestUserStatsAggregatesAccountOverview(t *testing.T) {
	authSvc, users, sessions := newTestAuthService(t)
	tasks := newMemTaskRepo()
	userSvc := NewUserService(users, sessions, tasks, zap.NewNop())
	ctx := context.Background()

	reg := registerTestUser(t, authSvc)

	require.NoError(t, tasks.Create(ctx, &domain.Task{
		ID:        uuid.New(),
		Title:     "write report",
		Status:    domain.TaskStatusTodo,
		CreatedBy: reg.User.ID,
	}))
	require.NoError(t, tasks.Create(ctx, &domain.Task{
		ID:        uuid.New(),
		Title:     "ship release",
		Status:    domain.TaskStatusCompleted,
		CreatedBy: reg.User.ID,
	}))

	stats, err := userSvc.Stats(ctx, reg.User.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Tasks.Todo)
	assert.Equal(t, 1, stats.Tasks.Completed)
	assert.Equal(t, 1, stats.ActiveSessions)
	assert.Equal(t, reg.User.CreatedAt, stats.MemberSince)
}

func TestGetPublicStripsPrivateFields(t *testing.T) {
	authSvc, users, sessions := newTestAuthService(t)
	userSvc := NewUserService(users, sessions, newMemTaskRepo(), zap.NewNop())
	ctx := context.Background()

	reg := registerTestUser(t, authSvc)

	public, err := userSvc.GetPublic(ctx, reg.User.ID)
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, public.ID)
	assert.Equal(t, "kara", public.Username)

	encoded, err := json.Marshal(public)
	require.NoError(t, err)
	assert.NotContains(t, string(encoded), "kara@example.com")
	assert.NotContains(t, string(encoded), "password")
}
