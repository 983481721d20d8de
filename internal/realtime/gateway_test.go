package realtime

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/LeoDhali007/TaskVerse/internal/config"
	"github.com/LeoDhali007/TaskVerse/internal/domain"
	"github.com/LeoDhali007/TaskVerse/internal/repository"
	"github.com/LeoDhali007/TaskVerse/pkg/token"
)

type stubUserRepo struct {
	users map[uuid.UUID]*domain.User
}

func (r *stubUserRepo) Create(context.Context, *domain.User) error { return nil }

func (r *stubUserRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return user, nil
}

func (r *stubUserRepo) GetByEmail(context.Context, string) (*domain.User, error) {
	return nil, repository.ErrNotFound
}

func (r *stubUserRepo) ExistsByEmailOrUsername(context.Context, string, string) (bool, error) {
	return false, nil
}

func (r *stubUserRepo) Update(context.Context, *domain.User) error { return nil }

func (r *stubUserRepo) UpdatePassword(context.Context, uuid.UUID, string) error { return nil }

func (r *stubUserRepo) UpdateLastLogin(context.Context, uuid.UUID) error { return nil }

func (r *stubUserRepo) Deactivate(context.Context, uuid.UUID, string, string) error { return nil }

func (r *stubUserRepo) Search(context.Context, string, int, int) ([]*domain.PublicUser, int, error) {
	return nil, 0, nil
}

func newTestGateway(t *testing.T, accessTTL time.Duration) (*Gateway, *token.Codec, *stubUserRepo) {
	t.Helper()

	codec, err := token.NewCodec(
		[]byte("access-secret-for-gateway-test-x"),
		[]byte("refresh-secret-for-gateway-tests"),
		accessTTL, time.Hour, "taskverse", "taskverse-api")
	require.NoError(t, err)

	repo := &stubUserRepo{users: make(map[uuid.UUID]*domain.User)}

	cfg := config.RealtimeConfig{
		SendQueueSize:     8,
		WriteTimeout:      time.Second,
		HeartbeatInterval: time.Minute,
		HeartbeatTimeout:  time.Second,
	}
	gw := NewGateway(zap.NewNop(), NewHub(zap.NewNop()), nil, codec, repo, nil, cfg, nil)
	return gw, codec, repo
}

func TestHandshakeRejectsMissingToken(t *testing.T) {
	gw, _, _ := newTestGateway(t, time.Minute)

	req := httptest.NewRequest("GET", "/ws", nil)
	rec := httptest.NewRecorder()
	gw.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandshakeRejectsExpiredToken(t *testing.T) {
	gw, codec, repo := newTestGateway(t, -time.Minute)

	userID := uuid.New()
	repo.users[userID] = &domain.User{ID: userID, IsActive: true}

	expired, _, err := codec.IssueAccess(userID)
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/ws?token="+expired, nil)
	rec := httptest.NewRecorder()
	gw.ServeHTTP(rec, req)

	// Rejected before the upgrade; the connection never reaches the hub.
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestHandshakeRejectsRefreshToken(t *testing.T) {
	gw, codec, repo := newTestGateway(t, time.Minute)

	userID := uuid.New()
	repo.users[userID] = &domain.User{ID: userID, IsActive: true}

	refresh, _, err := codec.IssueRefresh(userID)
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/ws?token="+refresh, nil)
	rec := httptest.NewRecorder()
	gw.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestHandshakeRejectsInactiveAndUnknownUsers(t *testing.T) {
	gw, codec, repo := newTestGateway(t, time.Minute)

	inactive := uuid.New()
	repo.users[inactive] = &domain.User{ID: inactive, IsActive: false}

	tok, _, err := codec.IssueAccess(inactive)
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/ws?token="+tok, nil)
	rec := httptest.NewRecorder()
	gw.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)

	tok, _, err = codec.IssueAccess(uuid.New())
	require.NoError(t, err)

	req = httptest.NewRequest("GET", "/ws?token="+tok, nil)
	rec = httptest.NewRecorder()
	gw.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestHandshakeAcceptsBearerHeader(t *testing.T) {
	gw, codec, repo := newTestGateway(t, time.Minute)

	userID := uuid.New()
	repo.users[userID] = &domain.User{ID: userID, IsActive: true}

	tok, _, err := codec.IssueAccess(userID)
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/ws", nil)
	req.Header.Set("Authorization", "Bearer "+tok)

	got, err := gw.authenticate(req)
	require.NoError(t, err)
	assert.Equal(t, userID, got)
}
